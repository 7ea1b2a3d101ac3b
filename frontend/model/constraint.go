package model

import (
	"fmt"
	"strings"
)

// Constraint relates two or more slots. Constraints are values: once built
// they are never changed.
//
// Core kinds are Equality, Subtype, Inequality and Comparable. A
// hierarchy contributes further kinds as Relation values.
type Constraint interface {
	Kind() string
	// Operands returns the slots of the constraint, in order
	Operands() []Slot
	fmt.Stringer
	isConstraint()
}

var (
	_ Constraint = Equality{}
	_ Constraint = Subtype{}
	_ Constraint = Inequality{}
	_ Constraint = Comparable{}
	_ Constraint = Relation{}
)

type Equality struct {
	First, Second Slot
}

func (c Equality) Kind() string     { return "equality" }
func (c Equality) Operands() []Slot { return []Slot{c.First, c.Second} }
func (c Equality) String() string   { return fmt.Sprintf("%s == %s", c.First, c.Second) }
func (Equality) isConstraint()      {}

// Subtype requires Sub to be below or equal to Super in the hierarchy
type Subtype struct {
	Sub, Super Slot
}

func (c Subtype) Kind() string     { return "subtype" }
func (c Subtype) Operands() []Slot { return []Slot{c.Sub, c.Super} }
func (c Subtype) String() string   { return fmt.Sprintf("%s <: %s", c.Sub, c.Super) }
func (Subtype) isConstraint()      {}

type Inequality struct {
	First, Second Slot
}

func (c Inequality) Kind() string     { return "inequality" }
func (c Inequality) Operands() []Slot { return []Slot{c.First, c.Second} }
func (c Inequality) String() string   { return fmt.Sprintf("%s != %s", c.First, c.Second) }
func (Inequality) isConstraint()      {}

// Comparable requires one of the two slots to be a subtype of the other
type Comparable struct {
	First, Second Slot
}

func (c Comparable) Kind() string     { return "comparable" }
func (c Comparable) Operands() []Slot { return []Slot{c.First, c.Second} }
func (c Comparable) String() string   { return fmt.Sprintf("%s <:> %s", c.First, c.Second) }
func (Comparable) isConstraint()      {}

// Relation is a constraint kind the core does not know about, named by the
// hierarchy that emits it
type Relation struct {
	Name  string
	Slots []Slot
}

func NewRelation(name string, slots ...Slot) Relation {
	return Relation{Name: name, Slots: append([]Slot(nil), slots...)}
}

func (c Relation) Kind() string { return c.Name }
func (c Relation) Operands() []Slot {
	return append([]Slot(nil), c.Slots...)
}
func (c Relation) String() string {
	operands := make([]string, 0, len(c.Slots))
	for _, s := range c.Slots {
		operands = append(operands, fmt.Sprint(s))
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(operands, ", "))
}
func (Relation) isConstraint() {}
