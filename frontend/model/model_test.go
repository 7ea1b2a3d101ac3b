package model

import (
	"testing"

	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/stretchr/testify/assert"
)

func TestSameSlot(t *testing.T) {
	interned := ast.NewAnnotation("Interned")
	v1 := NewVariable(1, ast.Position{})
	v1Again := NewVariable(1, ast.Position{Unit: "other"})
	v2 := NewVariable(2, ast.Position{})
	r3 := NewRefinement(3, ast.Position{}, v1)

	tests := []struct {
		name string
		a, b Slot
		same bool
	}{
		{"same variable", v1, v1, true},
		{"same id", v1, v1Again, true},
		{"different ids", v1, v2, false},
		{"refinement vs its refined", r3, v1, false},
		{"constants by value", NewConstant(interned), NewConstant(ast.NewAnnotation("Interned")), true},
		{"different constants", NewConstant(interned), NewConstant(ast.NewAnnotation("PolyInterned")), false},
		{"constant vs variable", NewConstant(interned), v1, false},
		{"nil vs slot", nil, v1, false},
		{"nil vs nil", nil, nil, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.same, SameSlot(test.a, test.b))
			assert.Equal(t, test.same, SameSlot(test.b, test.a))
		})
	}
}

func TestSlotStrings(t *testing.T) {
	v1 := NewVariable(1, ast.Position{})
	v2 := NewVariable(2, ast.Position{})
	assert.Equal(t, "1", v1.String())
	assert.Equal(t, "r3(of 1)", NewRefinement(3, ast.Position{}, v1).String())
	assert.Equal(t, "e4(1|2)", NewExistential(4, ast.Position{}, v1, v2).String())
	assert.Equal(t, "c5(1+@Interned)", NewCombination(5, ast.Position{}, v1, NewConstant(ast.NewAnnotation("Interned"))).String())
}

func TestKindOf(t *testing.T) {
	v := NewVariable(1, ast.Position{})
	assert.Equal(t, "variable", KindOf(v))
	assert.Equal(t, "refinement", KindOf(NewRefinement(2, ast.Position{}, v)))
	assert.Equal(t, "existential", KindOf(NewExistential(3, ast.Position{}, v, v)))
	assert.Equal(t, "combination", KindOf(NewCombination(4, ast.Position{}, v, v)))
	assert.Equal(t, "constant", KindOf(NewConstant(ast.NewAnnotation("Interned"))))
}

func TestConstraints(t *testing.T) {
	a := NewVariable(1, ast.Position{})
	b := NewConstant(ast.NewAnnotation("Interned"))

	assert.Equal(t, "1 == @Interned", Equality{a, b}.String())
	assert.Equal(t, "1 <: @Interned", Subtype{Sub: a, Super: b}.String())
	assert.Equal(t, "1 != @Interned", Inequality{a, b}.String())
	assert.Equal(t, "1 <:> @Interned", Comparable{a, b}.String())
	assert.Equal(t, []Slot{a, b}, Subtype{Sub: a, Super: b}.Operands())

	rel := NewRelation("preference", a, b, a)
	assert.Equal(t, "preference", rel.Kind())
	assert.Equal(t, "preference(1, @Interned, 1)", rel.String())

	ops := rel.Operands()
	ops[0] = b
	assert.Same(t, a, rel.Operands()[0].(*Variable), "operands are a copy")
}
