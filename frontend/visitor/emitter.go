package visitor

import (
	"github.com/cottand/qualinfer/frontend/annotator"
	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/cottand/qualinfer/frontend/constraints"
	"github.com/cottand/qualinfer/frontend/model"
	"github.com/cottand/qualinfer/frontend/qerr"
	"github.com/cottand/qualinfer/frontend/qual"
	"github.com/cottand/qualinfer/frontend/slots"
)

var _ Relations = (*Emitter)(nil)

// Emitter turns every relation into constraints over the slots of the
// positions involved. It never fails a relation: whether the constraints
// hold is up to the solver.
type Emitter struct {
	hierarchy qual.Hierarchy
	classes   *ast.Classes
	registry  *slots.Registry
	annotator *annotator.Annotator
	store     *constraints.Store
}

func newEmitter(classes *ast.Classes, registry *slots.Registry, ann *annotator.Annotator, store *constraints.Store) *Emitter {
	return &Emitter{
		hierarchy: registry.Hierarchy(),
		classes:   classes,
		registry:  registry,
		annotator: ann,
		store:     store,
	}
}

// slotOf is the slot of the primary position of t: the one its marker
// names, or the constant of a qualifier written without a marker
func (e *Emitter) slotOf(t ast.Type) model.Slot {
	t = ast.Primary(t)
	if t == nil {
		return nil
	}
	if marker, ok := t.Annotations().Get(slots.MarkerName); ok {
		return e.registry.Decode(marker, nil)
	}
	if q, ok := qual.Effective(e.hierarchy, t); ok {
		return e.annotator.Constant(q)
	}
	if s := e.registry.VariableSlotOf(t); s != nil {
		return s
	}
	return nil
}

func (e *Emitter) add(c model.Constraint) {
	e.store.Add(c)
	logger.Debug("constraint", "kind", c.Kind(), "constraint", c.String())
}

func (e *Emitter) relate(sub, super ast.Type, equal bool) bool {
	s1, s2 := e.slotOf(sub), e.slotOf(super)
	if s1 == nil || s2 == nil {
		logger.Warn("position without a slot, relation dropped", "sub", sub.String(), "super", super.String())
		return true
	}
	if equal {
		e.add(model.Equality{First: s1, Second: s2})
	} else {
		e.add(model.Subtype{Sub: s1, Super: s2})
	}
	return true
}

// AssertAbsent forbids every qualifier in forbidden on every occurrence
// of t. Type variables and wildcards are covered through their bounds.
func (e *Emitter) AssertAbsent(t ast.Type, forbidden []ast.Annotation, key string, at ast.Node) {
	for _, occ := range occurrences(t) {
		if !e.hierarchy.Annotates(occ) {
			continue
		}
		s := e.slotOf(occ)
		if s == nil {
			logger.Warn("occurrence without a slot", "type", occ.String(), "key", key, "at", at.Pos().String())
			continue
		}
		for _, q := range forbidden {
			e.add(model.Inequality{First: s, Second: e.annotator.Constant(q)})
		}
	}
}

func (e *Emitter) AssertExact(t ast.Type, q ast.Annotation, key string, at ast.Node) {
	if s := e.primarySlot(t, key, at); s != nil {
		e.add(model.Equality{First: s, Second: e.annotator.Constant(q)})
	}
}

func (e *Emitter) AssertNoneOf(t ast.Type, forbidden []ast.Annotation, key string, at ast.Node) {
	s := e.primarySlot(t, key, at)
	if s == nil {
		return
	}
	for _, q := range forbidden {
		e.add(model.Inequality{First: s, Second: e.annotator.Constant(q)})
	}
}

func (e *Emitter) AssertSubtypeOf(t ast.Type, q ast.Annotation, key string, at ast.Node) {
	if s := e.primarySlot(t, key, at); s != nil {
		e.add(model.Subtype{Sub: s, Super: e.annotator.Constant(q)})
	}
}

func (e *Emitter) AssertComparable(a, b ast.Type, key string, at ast.Node) {
	s1, s2 := e.primarySlot(a, key, at), e.primarySlot(b, key, at)
	if s1 != nil && s2 != nil {
		e.add(model.Comparable{First: s1, Second: s2})
	}
}

func (e *Emitter) AssertEqual(a, b ast.Type, key string, at ast.Node) {
	s1, s2 := e.primarySlot(a, key, at), e.primarySlot(b, key, at)
	if s1 != nil && s2 != nil {
		e.add(model.Equality{First: s1, Second: s2})
	}
}

func (e *Emitter) primarySlot(t ast.Type, key string, at ast.Node) model.Slot {
	s := e.slotOf(t)
	if s == nil {
		logger.Warn("type without a slot, relation dropped", "type", t.String(), "key", key, "at", at.Pos().String())
	}
	return s
}

// IsSubtype records sub <: super for every pair of corresponding positions
func (e *Emitter) IsSubtype(sub, super ast.Type) bool {
	newStructure(e.classes, e.hierarchy, e.relate).subtype(sub, super)
	return true
}

// Refine connects the Refinement slots of target to value. For a target of
// a type variable type both bounds are refined, and only values of a type
// variable type or null can be assigned to it.
func (e *Emitter) Refine(target, value ast.Type) bool {
	switch t := target.(type) {
	case *ast.Wildcard:
		return false
	case *ast.TypeVar:
		switch v := value.(type) {
		case *ast.TypeVar:
			return e.refineBounds(t, v)
		case *ast.Null:
			return false
		}
		if e.registry.Degraded() {
			logger.Warn("unexpected assignment to a type variable, nothing recorded", "target", target.String(), "value", value.String())
			return true
		}
		qerr.Abort(qerr.UnexpectedAssignment, "cannot assign %s of kind %s to type variable %s", value, value.Kind(), target)
		return false
	}

	ref, ok := e.slotOf(target).(*model.Refinement)
	if !ok {
		return false
	}
	if s := e.slotOf(value); s != nil {
		e.add(model.Equality{First: ref, Second: s})
	} else {
		logger.Warn("assigned value has no slot", "value", value.String(), "refinement", ref.String())
	}
	e.add(model.Subtype{Sub: ref, Super: ref.Refined})
	return true
}

func (e *Emitter) refineBounds(target, value *ast.TypeVar) bool {
	upper, ok1 := e.slotOf(target.UpperBound()).(*model.Refinement)
	lower, ok2 := e.slotOf(target.LowerBound()).(*model.Refinement)
	if !ok1 || !ok2 {
		return false
	}
	valueUpper, valueLower := e.slotOf(value.UpperBound()), e.slotOf(value.LowerBound())
	if valueUpper == nil || valueLower == nil {
		logger.Warn("assigned type variable has bounds without slots", "value", value.String())
	} else {
		e.add(model.Equality{First: upper, Second: valueUpper})
		e.add(model.Equality{First: lower, Second: valueLower})
	}
	e.add(model.Subtype{Sub: upper, Super: upper.Refined})
	e.add(model.Subtype{Sub: lower, Super: upper})
	return true
}
