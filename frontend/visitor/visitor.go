// Package visitor walks compilation units and states, for every construct,
// the qualifier relations the type system requires. In checking mode the
// relations are decided on the spot; in inference mode they become
// constraints for the solver.
package visitor

import (
	"slices"

	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/cottand/qualinfer/frontend/qerr"
	"github.com/cottand/qualinfer/frontend/typefactory"
	"github.com/cottand/qualinfer/internal/log"
)

var logger = log.DefaultLogger.With("section", "traversal")

const (
	KeyAssignment   = "assignment.type.incompatible"
	KeyArgument     = "argument.type.incompatible"
	KeyReturn       = "return.type.incompatible"
	KeyTypeArgument = "type.argument.type.incompatible"
)

type Visitor struct {
	Relations
	factory *typefactory.Factory
	rules   Rules
	diags   *diagnostics

	unit *ast.CompilationUnit
	sig  *typefactory.Signature
}

// New returns a Visitor making the relations of rules in the mode of f
func New(f *typefactory.Factory, rules Rules) *Visitor {
	if rules == nil {
		rules = BaseRules{}
	}
	v := &Visitor{factory: f, rules: rules, diags: &diagnostics{}}
	if f.Mode() == typefactory.Inference {
		v.Relations = newEmitter(f.Classes(), f.Registry(), f.Annotator(), f.Store())
	} else {
		v.Relations = newJudge(f.Hierarchy(), f.Classes(), v.diags)
	}
	return v
}

func (v *Visitor) Factory() *typefactory.Factory { return v.factory }

// Diagnostics are the failures reported so far
func (v *Visitor) Diagnostics() *qerr.Errors { return v.diags.errs }

func (v *Visitor) Report(d qerr.Diagnostic) {
	v.diags.report(d)
}

// AssertAllBut forbids every qualifier of the hierarchy except allowed on
// the primary position of t
func (v *Visitor) AssertAllBut(t ast.Type, allowed []ast.Annotation, key string, at ast.Node) {
	keep := names(allowed)
	var forbidden []ast.Annotation
	for _, q := range v.factory.Hierarchy().Qualifiers() {
		if !keep.Contains(q.Name) {
			forbidden = append(forbidden, q)
		}
	}
	if len(forbidden) > 0 {
		v.AssertNoneOf(t, forbidden, key, at)
	}
}

// ValidateTypeOf looks for ill-formed types. It is permissive: suspicious
// types are logged and the check always passes.
func (v *Visitor) ValidateTypeOf(t ast.Type, at ast.Node) bool {
	h := v.factory.Hierarchy()
	ast.Walk(t, func(occ ast.Type) {
		count := 0
		for _, a := range occ.Annotations().All() {
			if h.IsValid(a) {
				count++
			}
		}
		if count > 1 {
			logger.Warn("more than one qualifier on one position", "type", occ.String(), "at", at.Pos().String())
		}
		if d, ok := occ.(*ast.Declared); ok && !v.factory.Classes().IsDeclared(d.Name) {
			logger.Debug("type of an undeclared class", "class", d.Name, "at", at.Pos().String())
		}
	})
	return true
}

// CheckAssignment checks the assignment of value to target, which is a
// declaration with an initializer or an assignable expression
func (v *Visitor) CheckAssignment(target ast.Node, value ast.Expr, key string) bool {
	valueType := v.valueOf(value)
	switch t := target.(type) {
	case *ast.VarDecl:
		// an initializer is checked against the declared type, never a
		// refinement; later reads see it through Assigned
		ok := v.CheckAssignmentTypes(v.factory.DeclaredType(t), valueType, t, key, t.Local)
		if ok {
			v.factory.Assigned(t, valueType)
		}
		return ok
	case ast.Expr:
		decl, local, assignable := v.resolveTarget(t)
		if !assignable {
			v.Report(qerr.NewUnassignable{Positioner: t, Target: t.String()})
			return false
		}
		ok := v.CheckAssignmentTypes(v.factory.AssignTarget(decl, t.Pos()), valueType, t, key, local)
		if ok {
			v.factory.Assigned(decl, valueType)
		}
		return ok
	}
	qerr.Abort(qerr.InvariantViolation, "%s: %s is not an assignment target", target.Pos(), target)
	return false
}

func (v *Visitor) resolveTarget(e ast.Expr) (decl *ast.VarDecl, local bool, ok bool) {
	if !v.rules.Assignable(e) {
		return nil, false, false
	}
	switch e := e.(type) {
	case *ast.Ident:
		decl := v.lookup(e)
		return decl, decl.Local, true
	case *ast.FieldAccess:
		return v.field(e), false, true
	}
	return nil, false, false
}

// CheckAssignmentTypes checks that a value of type value may flow into a
// location of type target. Argument passing, returns and type arguments
// are checked as such pseudo-assignments.
//
// Locals of a type variable type written without qualifiers accept any
// value. A refined target is handled by Refine alone. Everything else is a
// subtype test.
func (v *Visitor) CheckAssignmentTypes(target, value ast.Type, at ast.Node, key string, local bool) bool {
	if target == nil || value == nil {
		qerr.Abort(qerr.InvariantViolation, "%s: a void value cannot be assigned", at.Pos())
	}
	v.ValidateTypeOf(target, at)
	if local && target.Kind() == ast.KindTypeVar && target.Annotations().IsEmpty() {
		logger.Debug("unconstrained local type variable", "target", target.String(), "at", at.Pos().String())
		return true
	}
	if v.Refine(target, value) {
		return true
	}
	if v.IsSubtype(value, target) {
		return true
	}
	v.Report(qerr.NewIncompatibleAssignment{
		Positioner: at,
		MsgKey:     key,
		Value:      value.String(),
		Target:     target.String(),
	})
	return false
}

// CheckTypeArguments checks type arguments against the instantiated
// bounds of the type parameters they stand for
func (v *Visitor) CheckTypeArguments(bounds []typefactory.Bounds, typeArgs []ast.Type, at ast.Node) {
	if len(bounds) == 0 {
		return
	}
	if len(bounds) != len(typeArgs) {
		qerr.Abort(qerr.ArityMismatch, "%s: %d type parameters but %d type arguments", at.Pos(), len(bounds), len(typeArgs))
	}
	classes := v.factory.Classes()
	for i, bound := range bounds {
		arg := typeArgs[i]
		upper := bound.Upper
		if w, ok := arg.(*ast.Wildcard); ok {
			if upper.Kind() == ast.KindWildcard {
				continue
			}
			argUpper, varUpper := w.Erased(), upper.Erased()
			if !classes.IsSubclass(argUpper, varUpper) && classes.IsSubclass(varUpper, argUpper) {
				upper = ast.AsSuper(upper, argUpper)
			}
		}
		v.CheckAssignmentTypes(upper, arg, at, KeyTypeArgument, false)
		if !v.IsSubtype(bound.Lower, arg) {
			v.Report(qerr.NewIncompatibleTypeArgument{
				Positioner: at,
				MsgKey:     KeyTypeArgument,
				Argument:   arg.String(),
				Bound:      bound.Lower.String(),
			})
		}
	}
}

// VisitUnit visits the fields and then the methods of unit
func (v *Visitor) VisitUnit(unit *ast.CompilationUnit) {
	logger.Debug("visiting unit", "unit", unit.Name, "mode", v.factory.Mode().String())
	v.unit = unit
	v.factory.EnterUnit(unit)
	for _, field := range unit.Fields {
		v.declaration(field)
	}
	for _, m := range unit.Methods {
		v.method(m)
	}
}

func (v *Visitor) method(m *ast.Method) {
	if m.Foreign {
		return
	}
	v.factory.EnterMethod(v.unit, m)
	v.sig = v.factory.Signature(m)
	for i, param := range m.Params {
		v.ValidateTypeOf(v.sig.Params[i], param)
		v.rules.Declaration(v, param, v.sig.Params[i])
	}
	if v.sig.Result != nil {
		v.ValidateTypeOf(v.sig.Result, m)
	}
	v.block(m.Body)
	v.sig = nil
}

func (v *Visitor) block(stmts []ast.Stmt) {
	v.factory.PushScope()
	defer v.factory.PopScope()
	for _, s := range stmts {
		v.stmt(s)
	}
}

func (v *Visitor) declaration(decl *ast.VarDecl) {
	t := v.factory.DeclaredType(decl)
	v.ValidateTypeOf(t, decl)
	v.rules.Declaration(v, decl, t)
	if decl.Init != nil {
		v.CheckAssignment(decl, decl.Init, KeyAssignment)
	}
}

func (v *Visitor) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.VarDecl:
		v.factory.Declare(s)
		v.declaration(s)
	case *ast.Assign:
		v.CheckAssignment(s.Target, s.Value, KeyAssignment)
	case *ast.ExprStmt:
		v.expr(s.X)
	case *ast.Return:
		v.ret(s)
	case *ast.If:
		v.valueOf(s.Cond)
		before := v.factory.Fork()
		v.block(s.Then)
		afterThen := v.factory.Fork()
		v.factory.Restore(before)
		v.block(s.Else)
		v.factory.Join(afterThen, v.factory.Fork(), s.Position)
	default:
		qerr.Abort(qerr.InvariantViolation, "%s: unknown statement %T", s.Pos(), s)
	}
}

func (v *Visitor) ret(s *ast.Return) {
	if s.Value == nil {
		return
	}
	if v.sig == nil || v.sig.Result == nil {
		qerr.Abort(qerr.InvariantViolation, "%s: return with a value outside of a method returning one", s.Pos())
	}
	v.CheckAssignmentTypes(v.sig.Result, v.valueOf(s.Value), s, KeyReturn, false)
}

// valueOf is the type of an expression used as a value
func (v *Visitor) valueOf(e ast.Expr) ast.Type {
	t := v.expr(e)
	if t == nil {
		qerr.Abort(qerr.InvariantViolation, "%s: %s has no value", e.Pos(), e)
	}
	return t
}

// expr returns the type of e, nil for calls of void methods
func (v *Visitor) expr(e ast.Expr) ast.Type {
	switch e := e.(type) {
	case *ast.Ident:
		return v.factory.Current(v.lookup(e))
	case *ast.FieldAccess:
		decl := v.field(e)
		if e.Recv == nil {
			return v.factory.Current(decl)
		}
		return v.factory.DeclaredType(decl)
	case *ast.Literal:
		return v.factory.Literal(e)
	case *ast.NullLit:
		return v.factory.Null(e.Position)
	case *ast.New:
		for _, arg := range e.Args {
			v.valueOf(arg)
		}
		t := v.factory.Elaborate(e.Type, e.Position)
		v.ValidateTypeOf(t, e)
		v.rules.New(v, e, t)
		return t
	case *ast.Call:
		return v.call(e)
	case *ast.Binary:
		left, right := v.valueOf(e.Left), v.valueOf(e.Right)
		v.rules.Binary(v, e, left, right)
		return v.factory.Elaborate(binaryResult(e.Op, left, right), e.Position)
	}
	qerr.Abort(qerr.InvariantViolation, "%s: unknown expression %T", e.Pos(), e)
	return nil
}

func (v *Visitor) call(e *ast.Call) ast.Type {
	m, ok := v.factory.Program().LookupMethod(v.unit, e.Method)
	if !ok {
		qerr.Abort(qerr.InvariantViolation, "%s: unknown method %s", e.Pos(), e.Method)
	}
	sig := v.factory.Signature(m)

	typeArgs := make([]ast.Type, 0, len(e.TypeArgs))
	for _, arg := range e.TypeArgs {
		typeArgs = append(typeArgs, v.factory.Elaborate(arg, e.Position))
	}
	if len(sig.Params) != len(e.Args) {
		qerr.Abort(qerr.ArityMismatch, "%s: %s takes %d arguments but %d were given", e.Pos(), m.Name, len(sig.Params), len(e.Args))
	}
	args := make([]ast.Type, 0, len(e.Args))
	for _, arg := range e.Args {
		args = append(args, v.valueOf(arg))
	}
	if len(e.TypeArgs) == 0 && len(m.TypeParams) > 0 {
		typeArgs = v.factory.InferTypeArgs(m, args, e.Position)
		logger.Debug("type arguments inferred", "method", m.Name, "at", e.Pos().String())
	}
	v.CheckTypeArguments(v.factory.InstantiateBounds(m, typeArgs), typeArgs, e)

	params, result := v.factory.Instantiate(sig, typeArgs)
	for i, arg := range e.Args {
		v.CheckAssignmentTypes(params[i], args[i], arg, KeyArgument, false)
	}
	v.rules.Call(v, e, m, args, result)
	v.factory.ForgetFields()
	return result
}

func (v *Visitor) lookup(e *ast.Ident) *ast.VarDecl {
	decl, ok := v.factory.Lookup(e.Name)
	if !ok {
		qerr.Abort(qerr.InvariantViolation, "%s: unknown variable %s", e.Pos(), e.Name)
	}
	return decl
}

func (v *Visitor) field(e *ast.FieldAccess) *ast.VarDecl {
	var recv ast.Type
	if e.Recv != nil {
		recv = v.valueOf(e.Recv)
	}
	decl, ok := v.factory.FieldOf(recv, e.Name)
	if !ok {
		qerr.Abort(qerr.InvariantViolation, "%s: unknown field %s", e.Pos(), e)
	}
	return decl
}

var booleanOps = []string{"==", "!=", "<", ">", "<=", ">=", "&&", "||"}

// binaryResult is the unannotated type of a binary operation
func binaryResult(op string, left, right ast.Type) ast.Type {
	if slices.Contains(booleanOps, op) {
		return ast.NewPrimitive("boolean")
	}
	if op == "+" && (left.Erased() == "String" || right.Erased() == "String") {
		return ast.NewDeclared("String")
	}
	if p, ok := left.(*ast.Primitive); ok {
		return ast.NewPrimitive(p.Name)
	}
	return ast.NewPrimitive("int")
}
