// Package interning is the interning type system: @Interned values may be
// compared by reference.
package interning

import (
	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/cottand/qualinfer/frontend/qual"
	"github.com/cottand/qualinfer/frontend/visitor"
)

const (
	Interned        = "Interned"
	PolyInterned    = "PolyInterned"
	UnknownInterned = "UnknownInterned"
)

const (
	keyNotInterned  = "not.interned"
	keyIncomparable = "incomparable.types"
	keyCreation     = "interned.object.creation"
	keyPolyField    = "poly.field.forbidden"
	stringClass     = "String"
)

// Config is the interning hierarchy: Interned <: PolyInterned <: UnknownInterned.
// Primitives are compared by value and carry no qualifier.
func Config() qual.Config {
	return qual.Config{
		Name: "interning",
		Qualifiers: map[string][]string{
			Interned:        {PolyInterned},
			PolyInterned:    {UnknownInterned},
			UnknownInterned: nil,
		},
		Default:        UnknownInterned,
		SkipPrimitives: true,
	}
}

func NewHierarchy() (*qual.Lattice, error) {
	return qual.NewLattice(Config())
}

var _ visitor.Rules = Rules{}

type Rules struct {
	visitor.BaseRules
}

// Literal makes string literals interned
func (Rules) Literal(lit *ast.Literal) (ast.Annotation, bool) {
	if lit.Type != nil && lit.Type.Erased() == stringClass {
		return ast.NewAnnotation(Interned), true
	}
	return ast.Annotation{}, false
}

// Declaration forbids @PolyInterned anywhere in the type of a field
func (Rules) Declaration(v *visitor.Visitor, decl *ast.VarDecl, t ast.Type) {
	if decl.Local {
		return
	}
	v.AssertAbsent(t, []ast.Annotation{ast.NewAnnotation(PolyInterned)}, keyPolyField, decl)
}

// New makes freshly created objects UnknownInterned
func (Rules) New(v *visitor.Visitor, e *ast.New, t ast.Type) {
	v.AssertAllBut(t, []ast.Annotation{ast.NewAnnotation(UnknownInterned)}, keyCreation, e)
}

// Binary requires both operands of a reference comparison to be interned.
// Comparisons against null are always fine.
func (Rules) Binary(v *visitor.Visitor, e *ast.Binary, left, right ast.Type) {
	if e.Op != "==" && e.Op != "!=" {
		return
	}
	if !ast.IsReference(left) || !ast.IsReference(right) {
		return
	}
	if left.Kind() == ast.KindNull || right.Kind() == ast.KindNull {
		return
	}
	v.AssertComparable(left, right, keyIncomparable, e)
	interned := ast.NewAnnotation(Interned)
	v.AssertExact(left, interned, keyNotInterned, e.Left)
	v.AssertExact(right, interned, keyNotInterned, e.Right)
}
