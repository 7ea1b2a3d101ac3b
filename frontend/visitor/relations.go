package visitor

import (
	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/cottand/qualinfer/frontend/qerr"
	"github.com/cottand/qualinfer/frontend/qual"
	"github.com/hashicorp/go-set/v3"
)

// Relations are the qualifier judgements the traversal makes. A Judge
// decides them on the spot, an Emitter records them as constraints for
// the solver and assumes they hold.
type Relations interface {
	// AssertAbsent requires that no position of t, nested ones included,
	// carries one of forbidden
	AssertAbsent(t ast.Type, forbidden []ast.Annotation, key string, at ast.Node)
	AssertExact(t ast.Type, q ast.Annotation, key string, at ast.Node)
	AssertNoneOf(t ast.Type, forbidden []ast.Annotation, key string, at ast.Node)
	AssertSubtypeOf(t ast.Type, q ast.Annotation, key string, at ast.Node)
	AssertComparable(a, b ast.Type, key string, at ast.Node)
	AssertEqual(a, b ast.Type, key string, at ast.Node)
	// IsSubtype relates sub and super position by position
	IsSubtype(sub, super ast.Type) bool
	// Refine handles an assignment to a flow-refined target. It reports
	// whether it did, in which case no other relation must be recorded for
	// the assignment.
	Refine(target, value ast.Type) bool
}

// diagnostics collects the failures of one traversal
type diagnostics struct {
	errs *qerr.Errors
}

func (d *diagnostics) report(diag qerr.Diagnostic) {
	d.errs = d.errs.With(qerr.New(diag))
}

// occurrences lists the positions of t that AssertAbsent looks at: t, its
// type arguments, array components and type variable bounds. Each
// occurrence is listed once, even when t is cyclic.
func occurrences(t ast.Type) []ast.Type {
	visited := set.New[ast.Type](8)
	var found []ast.Type
	var rec func(ast.Type)
	rec = func(t ast.Type) {
		if t == nil || !visited.Insert(t) {
			return
		}
		found = append(found, t)
		switch t := t.(type) {
		case *ast.Declared:
			for _, arg := range t.TypeArgs {
				rec(arg)
			}
		case *ast.Array:
			rec(t.Component)
		case *ast.TypeVar:
			rec(t.UpperBound())
			rec(t.LowerBound())
		}
	}
	rec(t)
	return found
}

// relateFunc judges or records the qualifier relation between two
// corresponding positions: sub below super, or both equal
type relateFunc func(sub, super ast.Type, equal bool) bool

// structure walks two types the way the subtype test of the type system
// does, calling relate on every pair of positions whose qualifiers must
// agree. Both Judge and Emitter use it, so checking and inference look at
// exactly the same positions.
type structure struct {
	classes   *ast.Classes
	hierarchy qual.Hierarchy
	relate    relateFunc
	visited   *set.Set[[2]ast.Type]
}

func newStructure(classes *ast.Classes, h qual.Hierarchy, relate relateFunc) *structure {
	return &structure{
		classes:   classes,
		hierarchy: h,
		relate:    relate,
		visited:   set.New[[2]ast.Type](8),
	}
}

func (s *structure) subtype(sub, super ast.Type) bool {
	if sub == nil || super == nil {
		return true
	}
	if !s.visited.Insert([2]ast.Type{sub, super}) {
		return true
	}
	if w, ok := super.(*ast.Wildcard); ok {
		return s.contains(w, sub)
	}
	switch sb := sub.(type) {
	case *ast.Wildcard:
		return s.subtype(sb.Extends, super)
	case *ast.TypeVar:
		if sp, ok := super.(*ast.TypeVar); ok && sp.Param == sb.Param {
			upper := s.subtype(sb.UpperBound(), sp.UpperBound())
			return s.subtype(sp.LowerBound(), sb.LowerBound()) && upper
		}
		return s.subtype(sb.UpperBound(), super)
	case *ast.Primitive:
		if ast.IsReference(super) {
			return s.subtype(box(s.hierarchy, sb), super)
		}
	}
	if sp, ok := super.(*ast.TypeVar); ok {
		lower := sp.LowerBound()
		if lower == nil {
			return sub.Kind() == ast.KindNull
		}
		return s.subtype(sub, lower)
	}

	if !s.classes.IsSubclass(sub.Erased(), super.Erased()) {
		return false
	}
	ok := s.relate(sub, super, false)
	switch sp := super.(type) {
	case *ast.Declared:
		sb, isDeclared := sub.(*ast.Declared)
		if isDeclared && sb.Name == sp.Name && len(sb.TypeArgs) == len(sp.TypeArgs) {
			for i := range sp.TypeArgs {
				ok = s.typeArg(sb.TypeArgs[i], sp.TypeArgs[i]) && ok
			}
		}
	case *ast.Array:
		if sb, isArray := sub.(*ast.Array); isArray {
			ok = s.subtype(sb.Component, sp.Component) && ok
		}
	}
	return ok
}

// typeArg relates the type arguments of two applications of the same
// class: invariant unless the super argument is a wildcard
func (s *structure) typeArg(sub, super ast.Type) bool {
	if w, ok := super.(*ast.Wildcard); ok {
		return s.contains(w, sub)
	}
	return s.equal(sub, super)
}

func (s *structure) contains(w *ast.Wildcard, arg ast.Type) bool {
	ok := true
	upper, lower := arg, arg
	if argW, isWildcard := arg.(*ast.Wildcard); isWildcard {
		upper, lower = argW.Extends, argW.Super
	}
	if w.Extends != nil {
		ok = s.subtype(upper, w.Extends)
	}
	if w.Super != nil && w.Super.Kind() != ast.KindNull {
		ok = s.subtype(w.Super, lower) && ok
	}
	return ok
}

func (s *structure) equal(a, b ast.Type) bool {
	if a.Erased() != b.Erased() {
		return false
	}
	ok := true
	ast.Zip(a, b, func(x, y ast.Type) {
		if x.Kind() == y.Kind() && s.hierarchy.Annotates(x) {
			ok = s.relate(x, y, true) && ok
		}
	})
	return ok
}

// box returns the reference type of a primitive. The boxed value keeps the
// qualifier of the primitive, or gets the bottom qualifier when the
// hierarchy does not qualify primitives.
func box(h qual.Hierarchy, p *ast.Primitive) ast.Type {
	name, ok := ast.BoxedName(p.Name)
	if !ok {
		name = ast.ObjectName
	}
	boxed := ast.NewDeclared(name)
	for _, a := range p.Annotations().All() {
		boxed.Annotations().Replace(a)
	}
	if _, ok := qual.Effective(h, boxed); !ok && !h.Annotates(p) {
		boxed.Annotations().Replace(h.Bottom())
	}
	return boxed
}

func names(qs []ast.Annotation) *set.Set[string] {
	s := set.New[string](len(qs))
	for _, q := range qs {
		s.Insert(q.Name)
	}
	return s
}
