// Package model holds the problem vocabulary shared by the traversal and
// the solver: slots, which stand for one qualifier position each, and the
// constraints relating them.
package model

import (
	"fmt"

	"github.com/cottand/qualinfer/frontend/ast"
)

// Slot is either an inference variable or a known qualifier.
//
// The set of variants is closed: *Variable, *Refinement, *Existential,
// *Combination and *Constant.
type Slot interface {
	fmt.Stringer
	isSlot()
}

// VariableSlot is a Slot the solver must assign a qualifier to.
// Its identity is issued once by the slot registry and never changes.
type VariableSlot interface {
	Slot
	ID() int
	Location() ast.Position
	variable() *Variable
}

var (
	_ VariableSlot = (*Variable)(nil)
	_ VariableSlot = (*Refinement)(nil)
	_ VariableSlot = (*Existential)(nil)
	_ VariableSlot = (*Combination)(nil)
	_ Slot         = (*Constant)(nil)
)

// Variable is a plain inference variable
type Variable struct {
	id  int
	loc ast.Position
}

// NewVariable is meant for the slot registry, which owns identities
func NewVariable(id int, loc ast.Position) *Variable {
	return &Variable{id: id, loc: loc}
}

func (v *Variable) ID() int                { return v.id }
func (v *Variable) Location() ast.Position { return v.loc }
func (v *Variable) String() string         { return fmt.Sprintf("%d", v.id) }
func (v *Variable) variable() *Variable    { return v }
func (*Variable) isSlot()                  {}

// Refinement is the qualifier of a variable at one program point after it
// was assigned. It must remain below Refined, the slot of the declaration.
type Refinement struct {
	Variable
	Refined VariableSlot
}

func NewRefinement(id int, loc ast.Position, refined VariableSlot) *Refinement {
	return &Refinement{Variable: Variable{id: id, loc: loc}, Refined: refined}
}

func (r *Refinement) String() string { return fmt.Sprintf("r%d(of %s)", r.id, r.Refined) }

// Existential stands for a type variable use: it is Potential when the use
// ends up with a qualifier of its own, and Alternative otherwise
type Existential struct {
	Variable
	Potential   VariableSlot
	Alternative VariableSlot
}

func NewExistential(id int, loc ast.Position, potential, alternative VariableSlot) *Existential {
	return &Existential{Variable: Variable{id: id, loc: loc}, Potential: potential, Alternative: alternative}
}

func (e *Existential) String() string {
	return fmt.Sprintf("e%d(%s|%s)", e.id, e.Potential, e.Alternative)
}

// Combination is the qualifier of a synthesized position built out of two
// existing slots, like the merge of two flow refinements
type Combination struct {
	Variable
	First  Slot
	Second Slot
}

func NewCombination(id int, loc ast.Position, first, second Slot) *Combination {
	return &Combination{Variable: Variable{id: id, loc: loc}, First: first, Second: second}
}

func (c *Combination) String() string {
	return fmt.Sprintf("c%d(%s+%s)", c.id, c.First, c.Second)
}

// Constant is a qualifier that is already known
type Constant struct {
	Value ast.Annotation
}

func NewConstant(value ast.Annotation) *Constant {
	return &Constant{Value: value}
}

func (c *Constant) String() string { return c.Value.String() }
func (*Constant) isSlot()          {}

// SameSlot compares variables by identity and constants by value
func SameSlot(a, b Slot) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch a := a.(type) {
	case *Constant:
		b, ok := b.(*Constant)
		return ok && a.Value.Equal(b.Value)
	case VariableSlot:
		b, ok := b.(VariableSlot)
		return ok && a.ID() == b.ID()
	}
	return false
}

// KindOf names the variant of s, as used in problem listings
func KindOf(s Slot) string {
	switch s.(type) {
	case *Variable:
		return "variable"
	case *Refinement:
		return "refinement"
	case *Existential:
		return "existential"
	case *Combination:
		return "combination"
	case *Constant:
		return "constant"
	}
	return "unknown"
}
