package ast

import (
	"fmt"
	"strings"
)

// Node is any program construct the traversal can visit
type Node interface {
	Positioner
	fmt.Stringer
	node()
}

type Stmt interface {
	Node
	stmtNode()
}

type Expr interface {
	Node
	exprNode()
}

var (
	_ Stmt = (*VarDecl)(nil)
	_ Stmt = (*Assign)(nil)
	_ Stmt = (*ExprStmt)(nil)
	_ Stmt = (*Return)(nil)
	_ Stmt = (*If)(nil)

	_ Expr = (*Ident)(nil)
	_ Expr = (*FieldAccess)(nil)
	_ Expr = (*Literal)(nil)
	_ Expr = (*NullLit)(nil)
	_ Expr = (*New)(nil)
	_ Expr = (*Call)(nil)
	_ Expr = (*Binary)(nil)
)

// Program is everything one run works on: the compilation units to visit,
// precompiled library methods, and the class table
type Program struct {
	Units   []*CompilationUnit
	Library []*Method
	Classes *Classes
}

// LookupMethod finds a method by name, first in unit and then in the library
func (p *Program) LookupMethod(unit *CompilationUnit, name string) (*Method, bool) {
	if unit != nil {
		for _, m := range unit.Methods {
			if m.Name == name {
				return m, true
			}
		}
	}
	for _, m := range p.Library {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

type CompilationUnit struct {
	Position
	Name    string
	Fields  []*VarDecl
	Methods []*Method
}

func (u *CompilationUnit) Field(name string) (*VarDecl, bool) {
	for _, f := range u.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

func (u *CompilationUnit) String() string { return "unit " + u.Name }
func (*CompilationUnit) node()            {}

type Method struct {
	Position
	Name       string
	TypeParams []*TypeParam
	Params     []*VarDecl
	// Result is nil for void methods
	Result Type
	Body   []Stmt
	// Foreign methods come precompiled: their types carry only what the
	// library was compiled with, and they have no body
	Foreign bool
}

func (m *Method) String() string { return "method " + m.Name }
func (*Method) node()            {}

// VarDecl declares a local variable, a parameter or a field
type VarDecl struct {
	Position
	Name string
	Type Type
	// Init may be nil
	Init  Expr
	Local bool
}

func (d *VarDecl) String() string {
	if d.Init == nil {
		return fmt.Sprintf("%s %s", d.Type, d.Name)
	}
	return fmt.Sprintf("%s %s = %s", d.Type, d.Name, d.Init)
}

type Assign struct {
	Position
	Target Expr
	Value  Expr
}

func (a *Assign) String() string { return fmt.Sprintf("%s = %s", a.Target, a.Value) }

type ExprStmt struct {
	Position
	X Expr
}

func (s *ExprStmt) String() string { return s.X.String() }

type Return struct {
	Position
	// Value is nil in void methods
	Value Expr
}

func (r *Return) String() string {
	if r.Value == nil {
		return "return"
	}
	return "return " + r.Value.String()
}

type If struct {
	Position
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (s *If) String() string { return "if (" + s.Cond.String() + ")" }

// Ident refers to a local variable, a parameter, or a field of the current unit
type Ident struct {
	Position
	Name string
}

func (e *Ident) String() string { return e.Name }

// FieldAccess with a nil Recv reads a field of the current unit through this
type FieldAccess struct {
	Position
	Recv Expr
	Name string
}

func (e *FieldAccess) String() string {
	if e.Recv == nil {
		return "this." + e.Name
	}
	return e.Recv.String() + "." + e.Name
}

// Literal is a constant of the given type, e.g. a string or an int
type Literal struct {
	Position
	Type  Type
	Value string
}

func (e *Literal) String() string { return e.Value }

type NullLit struct {
	Position
}

func (e *NullLit) String() string { return "null" }

type New struct {
	Position
	Type Type
	Args []Expr
}

func (e *New) String() string { return "new " + e.Type.String() + "(" + joinExprs(e.Args) + ")" }

// Call invokes a method of the program. TypeArgs are the type arguments
// of a generic method, either written or inferred by the front end.
type Call struct {
	Position
	Method   string
	TypeArgs []Type
	Args     []Expr
}

func (e *Call) String() string { return e.Method + "(" + joinExprs(e.Args) + ")" }

type Binary struct {
	Position
	Op          string
	Left, Right Expr
}

func (e *Binary) String() string { return e.Left.String() + " " + e.Op + " " + e.Right.String() }

func joinExprs(exprs []Expr) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}

func (*VarDecl) node()     {}
func (*Assign) node()      {}
func (*ExprStmt) node()    {}
func (*Return) node()      {}
func (*If) node()          {}
func (*Ident) node()       {}
func (*FieldAccess) node() {}
func (*Literal) node()     {}
func (*NullLit) node()     {}
func (*New) node()         {}
func (*Call) node()        {}
func (*Binary) node()      {}

func (*VarDecl) stmtNode()  {}
func (*Assign) stmtNode()   {}
func (*ExprStmt) stmtNode() {}
func (*Return) stmtNode()   {}
func (*If) stmtNode()       {}

func (*Ident) exprNode()       {}
func (*FieldAccess) exprNode() {}
func (*Literal) exprNode()     {}
func (*NullLit) exprNode()     {}
func (*New) exprNode()         {}
func (*Call) exprNode()        {}
func (*Binary) exprNode()      {}
