package typefactory

import (
	"cmp"
	"maps"
	"slices"

	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/cottand/qualinfer/frontend/model"
	"github.com/cottand/qualinfer/frontend/qual"
)

// Flow maps variables to their type at the current program point, for the
// variables that were assigned since the start of the method
type Flow map[*ast.VarDecl]ast.Type

// EnterMethod resets scopes and flow for visiting the body of m in unit
func (f *Factory) EnterMethod(unit *ast.CompilationUnit, m *ast.Method) {
	f.unit = unit
	f.flow = make(Flow)
	f.scopes.PopAll()
	params := make(map[string]*ast.VarDecl)
	if m != nil {
		for _, p := range m.Params {
			params[p.Name] = p
		}
	}
	f.scopes.Push(params)
}

func (f *Factory) EnterUnit(unit *ast.CompilationUnit) {
	f.EnterMethod(unit, nil)
}

// PushScope opens a block; locals declared in it are dropped by PopScope
func (f *Factory) PushScope() {
	f.scopes.Push(make(map[string]*ast.VarDecl))
}

func (f *Factory) PopScope() {
	f.scopes.Pop()
}

// Declare makes a local variable visible in the current block
func (f *Factory) Declare(decl *ast.VarDecl) {
	scope, ok := f.scopes.Peek()
	if !ok {
		scope = make(map[string]*ast.VarDecl)
		f.scopes.Push(scope)
	}
	scope[decl.Name] = decl
}

// Lookup resolves a name to a local, a parameter, or a field of the current unit
func (f *Factory) Lookup(name string) (*ast.VarDecl, bool) {
	for scope := range f.scopes.TopDown() {
		if decl, ok := scope[name]; ok {
			return decl, true
		}
	}
	if f.unit != nil {
		return f.unit.Field(name)
	}
	return nil, false
}

// FieldOf resolves a field of the unit declaring the class of recv
func (f *Factory) FieldOf(recv ast.Type, name string) (*ast.VarDecl, bool) {
	if recv == nil {
		if f.unit == nil {
			return nil, false
		}
		return f.unit.Field(name)
	}
	className := ast.Primary(recv).Erased()
	for _, unit := range f.program.Units {
		if unit.Name == className {
			return unit.Field(name)
		}
	}
	return nil, false
}

// Current is the type of decl at the current program point
func (f *Factory) Current(decl *ast.VarDecl) ast.Type {
	if t, ok := f.flow[decl]; ok {
		return t
	}
	return f.DeclaredType(decl)
}

// AssignTarget returns the type an assignment to decl is checked against.
//
// In inference mode this creates the Refinement slots of decl at this
// program point, which later reads observe. Locals of a type variable type
// written without qualifiers are never refined: assignments to them are
// always accepted.
func (f *Factory) AssignTarget(decl *ast.VarDecl, at ast.Position) ast.Type {
	declared := f.DeclaredType(decl)
	if !f.inferring() {
		return declared
	}
	tv, isTypeVar := declared.(*ast.TypeVar)
	if decl.Local && isTypeVar && declared.Annotations().IsEmpty() {
		return declared
	}
	var refined ast.Type
	if isTypeVar {
		use := ast.Shallow(tv).(*ast.TypeVar)
		use.Upper = f.refinement(tv.UpperBound(), at)
		use.Lower = f.refinement(tv.LowerBound(), at)
		refined = use
	} else {
		refined = f.refinement(declared, at)
	}
	f.flow[decl] = refined
	logger.Debug("refined variable", "name", decl.Name, "type", refined.String(), "at", at.String())
	return refined
}

func (f *Factory) refinement(t ast.Type, at ast.Position) ast.Type {
	if t == nil || !f.hierarchy.Annotates(t) {
		return t
	}
	declared := f.registry.VariableSlotOf(t)
	if declared == nil {
		return t
	}
	r := ast.Shallow(t)
	f.registry.Annotate(r, f.registry.NewRefinement(at, declared))
	return r
}

// Assigned records, in checking mode, that decl now holds a value of type
// value: later reads see the declared type with the primary qualifier of value
func (f *Factory) Assigned(decl *ast.VarDecl, value ast.Type) {
	if f.inferring() || value == nil {
		return
	}
	declared := f.DeclaredType(decl)
	if !f.hierarchy.Annotates(declared) {
		return
	}
	q, ok := qual.Effective(f.hierarchy, ast.Primary(value))
	if !ok {
		return
	}
	narrowed := ast.Shallow(declared)
	setQualifier(f.hierarchy, narrowed, q)
	f.flow[decl] = narrowed
}

// ForgetFields drops what is known about fields, which a call may have changed
func (f *Factory) ForgetFields() {
	maps.DeleteFunc(f.flow, func(decl *ast.VarDecl, _ ast.Type) bool {
		return !decl.Local
	})
}

// Fork returns a copy of the current flow, to visit a branch with
func (f *Factory) Fork() Flow {
	return maps.Clone(f.flow)
}

func (f *Factory) Restore(flow Flow) {
	f.flow = maps.Clone(flow)
}

// Join makes the current flow the merge of two branches.
//
// In inference mode a variable whose slots differ between the branches
// reads as a Combination of both, which is above each branch and below
// the declaration. In checking mode it reads as declared unless both
// branches agree on its qualifier.
func (f *Factory) Join(then, els Flow, at ast.Position) {
	joined := make(Flow)
	decls := slices.Collect(maps.Keys(then))
	for decl := range els {
		if _, ok := then[decl]; !ok {
			decls = append(decls, decl)
		}
	}
	slices.SortFunc(decls, compareDecls)

	for _, decl := range decls {
		declared := f.DeclaredType(decl)
		first, second := orElse(then, decl, declared), orElse(els, decl, declared)
		if first == second {
			joined[decl] = first
			continue
		}
		if !f.inferring() {
			q1, ok1 := qual.Effective(f.hierarchy, ast.Primary(first))
			q2, ok2 := qual.Effective(f.hierarchy, ast.Primary(second))
			if ok1 && ok2 && q1.Name == q2.Name {
				joined[decl] = first
			}
			continue
		}
		if tv, ok := declared.(*ast.TypeVar); ok {
			ft, fok := first.(*ast.TypeVar)
			st, sok := second.(*ast.TypeVar)
			if !fok || !sok {
				continue
			}
			use := ast.Shallow(tv).(*ast.TypeVar)
			use.Upper = f.combine(tv.UpperBound(), ft.UpperBound(), st.UpperBound(), at)
			use.Lower = f.combine(tv.LowerBound(), ft.LowerBound(), st.LowerBound(), at)
			joined[decl] = use
			continue
		}
		joined[decl] = f.combine(declared, first, second, at)
	}
	f.flow = joined
}

func (f *Factory) combine(declared, first, second ast.Type, at ast.Position) ast.Type {
	if declared == nil || !f.hierarchy.Annotates(declared) {
		return declared
	}
	s1, s2, decl := f.SlotOf(first), f.SlotOf(second), f.SlotOf(declared)
	if s1 == nil || s2 == nil || decl == nil {
		return declared
	}
	if model.SameSlot(s1, s2) {
		return first
	}
	comb := f.registry.NewCombination(at, s1, s2)
	f.store.Add(model.Subtype{Sub: s1, Super: comb})
	f.store.Add(model.Subtype{Sub: s2, Super: comb})
	f.store.Add(model.Subtype{Sub: comb, Super: decl})
	joined := ast.Shallow(declared)
	f.registry.Annotate(joined, comb)
	return joined
}

func orElse(flow Flow, decl *ast.VarDecl, fallback ast.Type) ast.Type {
	if t, ok := flow[decl]; ok {
		return t
	}
	return fallback
}

func compareDecls(a, b *ast.VarDecl) int {
	return cmp.Or(
		cmp.Compare(a.Line, b.Line),
		cmp.Compare(a.Col, b.Col),
		cmp.Compare(a.Name, b.Name),
	)
}
