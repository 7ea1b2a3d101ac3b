package visitor

import "github.com/cottand/qualinfer/frontend/ast"

// Rules are the checks of one type system, on top of the assignment and
// type argument checks every type system makes. They state their checks
// through the Relations of the Visitor, so one set of Rules serves both
// checking and inference.
type Rules interface {
	// Literal returns the qualifier of a literal written without one
	Literal(lit *ast.Literal) (ast.Annotation, bool)
	// Assignable reports whether target may be assigned to at all
	Assignable(target ast.Expr) bool
	Declaration(v *Visitor, decl *ast.VarDecl, t ast.Type)
	New(v *Visitor, e *ast.New, t ast.Type)
	Call(v *Visitor, e *ast.Call, m *ast.Method, args []ast.Type, result ast.Type)
	Binary(v *Visitor, e *ast.Binary, left, right ast.Type)
}

// BaseRules checks nothing. Type systems embed it and override what they check.
type BaseRules struct{}

var _ Rules = BaseRules{}

func (BaseRules) Literal(*ast.Literal) (ast.Annotation, bool)                 { return ast.Annotation{}, false }
func (BaseRules) Assignable(ast.Expr) bool                                    { return true }
func (BaseRules) Declaration(*Visitor, *ast.VarDecl, ast.Type)                {}
func (BaseRules) New(*Visitor, *ast.New, ast.Type)                            {}
func (BaseRules) Call(*Visitor, *ast.Call, *ast.Method, []ast.Type, ast.Type) {}
func (BaseRules) Binary(*Visitor, *ast.Binary, ast.Type, ast.Type)            {}
