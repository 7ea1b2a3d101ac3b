// Package typefactory turns the types written in a program into the
// annotated types the traversal works on.
//
// In checking mode, positions nothing was written on get the defaults of
// the hierarchy. In inference mode, every position gets a slot marker.
package typefactory

import (
	"github.com/cottand/qualinfer/frontend/annotator"
	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/cottand/qualinfer/frontend/constraints"
	"github.com/cottand/qualinfer/frontend/model"
	"github.com/cottand/qualinfer/frontend/qual"
	"github.com/cottand/qualinfer/frontend/slots"
	"github.com/cottand/qualinfer/internal/log"
	"github.com/cottand/qualinfer/util"
)

var logger = log.DefaultLogger.With("section", "typefactory")

type Mode int

const (
	Checking Mode = iota
	Inference
)

func (m Mode) String() string {
	if m == Inference {
		return "inference"
	}
	return "checking"
}

// Signature is the elaborated view of a method declaration
type Signature struct {
	Method *ast.Method
	Params []ast.Type
	// Result is nil for void methods
	Result ast.Type
}

// Bounds are the elaborated bounds of a type parameter
type Bounds struct {
	Upper, Lower ast.Type
}

type Factory struct {
	mode      Mode
	program   *ast.Program
	hierarchy qual.Hierarchy

	// inference only
	registry  *slots.Registry
	store     *constraints.Store
	annotator *annotator.Annotator

	literal func(*ast.Literal) (ast.Annotation, bool)

	declared   map[*ast.VarDecl]ast.Type
	bounds     map[*ast.TypeParam]Bounds
	signatures map[*ast.Method]*Signature

	unit   *ast.CompilationUnit
	scopes util.Stack[map[string]*ast.VarDecl]
	flow   Flow
}

type Option func(*Factory)

// WithLiteralQualifier lets a hierarchy decide the qualifier of literals
// that were written without one
func WithLiteralQualifier(fn func(*ast.Literal) (ast.Annotation, bool)) Option {
	return func(f *Factory) { f.literal = fn }
}

func NewChecking(program *ast.Program, h qual.Hierarchy, opts ...Option) *Factory {
	f := newFactory(Checking, program, h)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func NewInference(program *ast.Program, registry *slots.Registry, store *constraints.Store, ann *annotator.Annotator, opts ...Option) *Factory {
	f := newFactory(Inference, program, registry.Hierarchy())
	f.registry = registry
	f.store = store
	f.annotator = ann
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func newFactory(mode Mode, program *ast.Program, h qual.Hierarchy) *Factory {
	if program.Classes == nil {
		program.Classes = ast.NewClasses()
	}
	return &Factory{
		mode:       mode,
		program:    program,
		hierarchy:  h,
		declared:   make(map[*ast.VarDecl]ast.Type),
		bounds:     make(map[*ast.TypeParam]Bounds),
		signatures: make(map[*ast.Method]*Signature),
		flow:       make(Flow),
	}
}

func (f *Factory) Mode() Mode                 { return f.mode }
func (f *Factory) Program() *ast.Program      { return f.program }
func (f *Factory) Hierarchy() qual.Hierarchy  { return f.hierarchy }
func (f *Factory) Unit() *ast.CompilationUnit { return f.unit }
func (f *Factory) Registry() *slots.Registry  { return f.registry }
func (f *Factory) Store() *constraints.Store  { return f.store }
func (f *Factory) Classes() *ast.Classes      { return f.program.Classes }

// Annotator is nil in checking mode
func (f *Factory) Annotator() *annotator.Annotator {
	return f.annotator
}

func (f *Factory) inferring() bool { return f.mode == Inference }

// Elaborate returns an annotated copy of a type written in source code
func (f *Factory) Elaborate(t ast.Type, at ast.Position) ast.Type {
	if t == nil {
		return nil
	}
	c := ast.Copy(t)
	if f.inferring() {
		f.elaborateInference(c, at)
	} else {
		f.elaborateChecking(c)
	}
	return c
}

// ElaborateForeign returns an annotated copy of a type that comes from a
// precompiled library. Its qualifiers are known: in inference mode every
// position is pinned to the qualifier it was compiled with.
func (f *Factory) ElaborateForeign(t ast.Type, at ast.Position) ast.Type {
	if !f.inferring() {
		return f.Elaborate(t, at)
	}
	c := ast.Copy(t)
	f.materialize(c)
	f.annotator.Annotate(c, c, at)
	return c
}

// materialize gives every type variable use its bounds: the elaborated
// bounds of its declaration when there are some, with the qualifier
// written on the use when there is one
func (f *Factory) materialize(t ast.Type) {
	ast.Walk(t, func(occ ast.Type) {
		tv, ok := occ.(*ast.TypeVar)
		if !ok {
			return
		}
		if b, ok := f.bounds[tv.Param]; ok && tv.Upper == nil && tv.Lower == nil {
			tv.Upper, tv.Lower = b.Upper, b.Lower
		}
		tv.Upper, tv.Lower = orObject(tv.UpperBound()), orNull(tv.LowerBound())
		if q, ok := qual.Effective(f.hierarchy, tv); ok {
			f.qualifyBounds(tv, q)
		}
	})
}

// qualifyBounds gives both bounds of tv their own top position, carrying q
func (f *Factory) qualifyBounds(tv *ast.TypeVar, q ast.Annotation) {
	tv.Upper, tv.Lower = unmarked(tv.Upper), unmarked(tv.Lower)
	setQualifier(f.hierarchy, tv.Upper, q)
	setQualifier(f.hierarchy, tv.Lower, q)
}

func unmarked(t ast.Type) ast.Type {
	c := ast.Shallow(t)
	c.Annotations().RemoveIf(func(a ast.Annotation) bool { return a.Name == slots.MarkerName })
	return c
}

func orObject(t ast.Type) ast.Type {
	if t == nil {
		return ast.NewDeclared(ast.ObjectName)
	}
	return t
}

func orNull(t ast.Type) ast.Type {
	if t == nil {
		return &ast.Null{}
	}
	return t
}

func (f *Factory) elaborateChecking(t ast.Type) {
	ast.Walk(t, func(occ ast.Type) {
		if tv, ok := occ.(*ast.TypeVar); ok {
			f.checkingBounds(tv)
			return
		}
		defaultQualifier(f.hierarchy, occ, f.hierarchy.Default())
	})
}

// checkingBounds shares the bounds of the declaration of tv, unless a
// qualifier written on tv applies to both
func (f *Factory) checkingBounds(tv *ast.TypeVar) {
	if tv.Param != nil && (tv.Upper == nil || tv.Lower == nil) {
		b := f.Bounds(tv.Param)
		tv.Upper, tv.Lower = b.Upper, b.Lower
	}
	tv.Upper, tv.Lower = orObject(tv.UpperBound()), orNull(tv.LowerBound())
	if q, ok := qual.Effective(f.hierarchy, tv); ok {
		f.qualifyBounds(tv, q)
		return
	}
	defaultQualifier(f.hierarchy, tv.Upper, f.hierarchy.Top())
	defaultQualifier(f.hierarchy, tv.Lower, f.hierarchy.Bottom())
}

func setQualifier(h qual.Hierarchy, t ast.Type, q ast.Annotation) {
	t.Annotations().RemoveIf(h.IsValid)
	t.Annotations().Replace(q)
}

func defaultQualifier(h qual.Hierarchy, t ast.Type, q ast.Annotation) {
	if !h.Annotates(t) {
		return
	}
	if _, ok := qual.Effective(h, t); !ok {
		t.Annotations().Replace(q)
	}
}

func (f *Factory) elaborateInference(t ast.Type, at ast.Position) {
	ast.Walk(t, func(occ ast.Type) {
		if tv, ok := occ.(*ast.TypeVar); ok {
			f.elaborateUse(tv, at)
			return
		}
		f.mark(occ, at)
	})
}

// mark gives occ a slot unless it has one already. Qualifiers written in
// source become variables pinned to their constant.
func (f *Factory) mark(occ ast.Type, at ast.Position) {
	if !f.hierarchy.Annotates(occ) || hasMarker(occ) {
		return
	}
	if q, ok := qual.Effective(f.hierarchy, occ); ok {
		f.annotator.Pin(occ, q, at)
		return
	}
	f.registry.Annotate(occ, f.registry.NewVariable(at))
}

// elaborateUse gives a type variable use its bounds. A qualifier written on
// the use applies to both bounds. Otherwise each bound is an Existential
// choosing between a slot of the use and the slot of the declaration.
func (f *Factory) elaborateUse(tv *ast.TypeVar, at ast.Position) {
	if tv.Upper != nil && tv.Lower != nil && hasMarker(tv.Upper) && hasMarker(tv.Lower) {
		return
	}
	decl := f.Bounds(tv.Param)
	if q, ok := qual.Effective(f.hierarchy, tv); ok {
		tv.Upper, tv.Lower = decl.Upper, decl.Lower
		f.qualifyBounds(tv, q)
		return
	}
	tv.Upper = f.existential(decl.Upper, at)
	tv.Lower = f.existential(decl.Lower, at)
}

func (f *Factory) existential(bound ast.Type, at ast.Position) ast.Type {
	if !f.hierarchy.Annotates(bound) {
		return bound
	}
	alternative := f.registry.VariableSlotOf(bound)
	if alternative == nil {
		return bound
	}
	use := ast.Shallow(bound)
	e := f.registry.NewExistential(at, f.registry.NewVariable(at), alternative)
	f.registry.Annotate(use, e)
	return use
}

// Bounds returns the elaborated bounds of p, computed once per run.
// Missing bounds are Object and null.
func (f *Factory) Bounds(p *ast.TypeParam) Bounds {
	if b, ok := f.bounds[p]; ok {
		return b
	}
	b := Bounds{Upper: orObject(ast.Copy(p.Upper)), Lower: orNull(ast.Copy(p.Lower))}
	f.bounds[p] = b
	if f.inferring() {
		// the tops come first, uses of p inside the bounds refer to them
		f.mark(b.Upper, p.Position)
		f.mark(b.Lower, p.Position)
		f.elaborateInference(b.Upper, p.Position)
		f.elaborateInference(b.Lower, p.Position)
	} else {
		defaultQualifier(f.hierarchy, b.Upper, f.hierarchy.Top())
		defaultQualifier(f.hierarchy, b.Lower, f.hierarchy.Bottom())
		f.elaborateChecking(b.Upper)
		f.elaborateChecking(b.Lower)
	}
	return b
}

func (f *Factory) foreignBounds(p *ast.TypeParam) {
	if _, ok := f.bounds[p]; ok || !f.inferring() {
		return
	}
	b := Bounds{Upper: orObject(ast.Copy(p.Upper)), Lower: orNull(ast.Copy(p.Lower))}
	f.bounds[p] = b
	f.materialize(b.Upper)
	f.materialize(b.Lower)
	f.annotator.Annotate(b.Upper, b.Upper, p.Position)
	f.annotator.Annotate(b.Lower, b.Lower, p.Position)
}

// DeclaredType is the flow-insensitive type of a variable, elaborated once per run
func (f *Factory) DeclaredType(decl *ast.VarDecl) ast.Type {
	if t, ok := f.declared[decl]; ok {
		return t
	}
	t := f.Elaborate(decl.Type, decl.Position)
	f.declared[decl] = t
	return t
}

// Signature elaborates the parameters and result of m once per run
func (f *Factory) Signature(m *ast.Method) *Signature {
	if sig, ok := f.signatures[m]; ok {
		return sig
	}
	sig := &Signature{Method: m}
	f.signatures[m] = sig
	if m.Foreign {
		for _, p := range m.TypeParams {
			f.foreignBounds(p)
		}
		for _, param := range m.Params {
			t := f.ElaborateForeign(param.Type, param.Position)
			f.declared[param] = t
			sig.Params = append(sig.Params, t)
		}
		sig.Result = f.ElaborateForeign(m.Result, m.Position)
		return sig
	}
	for _, p := range m.TypeParams {
		f.Bounds(p)
	}
	for _, param := range m.Params {
		sig.Params = append(sig.Params, f.DeclaredType(param))
	}
	sig.Result = f.Elaborate(m.Result, m.Position)
	return sig
}

// Instantiate substitutes typeArgs for the type parameters of sig
func (f *Factory) Instantiate(sig *Signature, typeArgs []ast.Type) (params []ast.Type, result ast.Type) {
	typeParams := sig.Method.TypeParams
	if len(typeParams) == 0 || len(typeParams) != len(typeArgs) {
		return sig.Params, sig.Result
	}
	subst := make(map[*ast.TypeParam]ast.Type, len(typeParams))
	for i, p := range typeParams {
		subst[p] = typeArgs[i]
	}
	for _, p := range sig.Params {
		params = append(params, ast.Substitute(p, subst))
	}
	if sig.Result != nil {
		result = ast.Substitute(sig.Result, subst)
	}
	return params, result
}

// InstantiateBounds returns the bounds of the type parameters of m with
// typeArgs substituted for the type parameters they mention. A bound that
// is a bare use of a type parameter becomes its type argument.
func (f *Factory) InstantiateBounds(m *ast.Method, typeArgs []ast.Type) []Bounds {
	bounds := make([]Bounds, 0, len(m.TypeParams))
	for _, p := range m.TypeParams {
		bounds = append(bounds, f.Bounds(p))
	}
	if len(typeArgs) != len(m.TypeParams) {
		return bounds
	}
	subst := make(map[*ast.TypeParam]ast.Type, len(m.TypeParams))
	for i, p := range m.TypeParams {
		subst[p] = typeArgs[i]
	}
	for i, p := range m.TypeParams {
		bounds[i] = Bounds{
			Upper: substituteBound(bounds[i].Upper, p.Upper, subst),
			Lower: substituteBound(bounds[i].Lower, p.Lower, subst),
		}
	}
	return bounds
}

func substituteBound(bound, written ast.Type, subst map[*ast.TypeParam]ast.Type) ast.Type {
	if tv, ok := written.(*ast.TypeVar); ok && tv.Annotations().IsEmpty() {
		if arg, ok := subst[tv.Param]; ok {
			return arg
		}
	}
	return ast.Substitute(bound, subst)
}

// InferTypeArgs returns the type arguments of a call to m written without
// them. A type parameter that is the type of a parameter takes the type of
// the first argument passed there, null and primitives aside. The others
// take their upper bound. In inference mode every inferred type argument
// gets slots of its own.
func (f *Factory) InferTypeArgs(m *ast.Method, args []ast.Type, at ast.Position) []ast.Type {
	typeArgs := make([]ast.Type, len(m.TypeParams))
	subst := make(map[*ast.TypeParam]ast.Type, len(m.TypeParams))
	for i, param := range m.Params {
		tv, ok := param.Type.(*ast.TypeVar)
		if !ok || i >= len(args) || !inferable(args[i]) {
			continue
		}
		for j, p := range m.TypeParams {
			if tv.Param == p && typeArgs[j] == nil {
				typeArgs[j] = f.fresh(args[i], at)
				subst[p] = typeArgs[j]
			}
		}
	}
	for j, p := range m.TypeParams {
		if typeArgs[j] != nil {
			continue
		}
		typeArgs[j] = f.Elaborate(ast.Substitute(orObject(p.Upper), subst), at)
		subst[p] = typeArgs[j]
	}
	return typeArgs
}

func inferable(t ast.Type) bool {
	switch t.(type) {
	case nil, *ast.Null, *ast.Primitive:
		return false
	}
	return true
}

// fresh copies t. In inference mode the copy drops the slots of t and
// gets new ones, qualifiers written in source stay pinned.
func (f *Factory) fresh(t ast.Type, at ast.Position) ast.Type {
	c := ast.Copy(t)
	if !f.inferring() {
		return c
	}
	ast.Walk(c, func(occ ast.Type) {
		occ.Annotations().RemoveIf(func(a ast.Annotation) bool { return a.Name == slots.MarkerName })
	})
	f.elaborateInference(c, at)
	return c
}

// Literal is the type of a literal: its written type, with the qualifier
// the hierarchy gives literals when none was written
func (f *Factory) Literal(lit *ast.Literal) ast.Type {
	t := ast.Copy(lit.Type)
	if _, ok := qual.Effective(f.hierarchy, t); !ok && f.literal != nil {
		if q, ok := f.literal(lit); ok {
			t.Annotations().Replace(q)
		}
	}
	return f.known(t, lit.Position)
}

// Null is the type of the null literal, the bottom of the hierarchy
func (f *Factory) Null(at ast.Position) ast.Type {
	t := &ast.Null{}
	t.Annotations().Replace(f.hierarchy.Bottom())
	return f.known(t, at)
}

// known elaborates a type whose qualifiers are all known
func (f *Factory) known(t ast.Type, at ast.Position) ast.Type {
	f.materialize(t)
	if f.inferring() {
		f.annotator.Annotate(t, t, at)
	} else {
		f.elaborateChecking(t)
	}
	return t
}

// SlotOf returns the slot of the primary position of t.
// Only meaningful in inference mode.
func (f *Factory) SlotOf(t ast.Type) model.VariableSlot {
	if t == nil || f.registry == nil {
		return nil
	}
	return f.registry.VariableSlotOf(t)
}

func hasMarker(t ast.Type) bool {
	_, ok := t.Annotations().Get(slots.MarkerName)
	return ok
}
