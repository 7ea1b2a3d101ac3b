package annotator

import (
	"testing"

	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/cottand/qualinfer/frontend/constraints"
	"github.com/cottand/qualinfer/frontend/model"
	"github.com/cottand/qualinfer/frontend/qual"
	"github.com/cottand/qualinfer/frontend/slots"
	"github.com/cottand/qualinfer/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	interned = ast.NewAnnotation("Interned")
	unknown  = ast.NewAnnotation("UnknownInterned")
)

func newAnnotator(t *testing.T) (*Annotator, *slots.Registry, *constraints.Store) {
	h, err := qual.NewLattice(qual.Config{
		Name: "interning",
		Qualifiers: map[string][]string{
			"Interned":        {"UnknownInterned"},
			"UnknownInterned": nil,
		},
		Default:        "UnknownInterned",
		SkipPrimitives: true,
	})
	require.NoError(t, err)
	registry := slots.NewRegistry(h)
	store := constraints.NewStore()
	a, err := New(registry, store)
	require.NoError(t, err)
	return a, registry, store
}

func TestConstantsAreCached(t *testing.T) {
	a, registry, _ := newAnnotator(t)
	first := a.Constant(interned)
	assert.Same(t, first, a.Constant(interned))
	assert.NotSame(t, first, a.Constant(unknown))
	// the registry lists each qualifier value once
	assert.Len(t, registry.Slots(), 2)
}

func TestAnnotateCopiesRealQualifiers(t *testing.T) {
	a, registry, store := newAnnotator(t)
	real := parser.MustParseType("@Interned List<String>", nil)
	inference := parser.MustParseType("List<String>", nil)

	a.Annotate(real, inference, ast.Position{Unit: "U", Line: 1, Col: 1})

	outer := registry.VariableSlotOf(inference)
	inner := registry.VariableSlotOf(inference.(*ast.Declared).TypeArgs[0])
	require.NotNil(t, outer)
	require.NotNil(t, inner)
	assert.Equal(t, []model.Constraint{
		model.Equality{First: outer, Second: a.Constant(interned)},
		model.Equality{First: inner, Second: a.Constant(unknown)},
	}, store.Slice())
}

func TestAnnotateKeepsExistingSlots(t *testing.T) {
	a, registry, store := newAnnotator(t)
	inference := parser.MustParseType("String", nil)
	existing := registry.NewVariable(ast.Position{})
	registry.Annotate(inference, existing)

	a.Annotate(parser.MustParseType("@Interned String", nil), inference, ast.Position{})

	assert.Same(t, existing, registry.VariableSlotOf(inference))
	assert.Zero(t, store.Len())
}

func TestAnnotateSkipsPrimitives(t *testing.T) {
	a, registry, store := newAnnotator(t)
	inference := parser.MustParseType("int[]", nil)

	a.Annotate(parser.MustParseType("int[]", nil), inference, ast.Position{})

	assert.Len(t, registry.VariableSlots(), 1)
	assert.Equal(t, 1, store.Len())
}

func TestPin(t *testing.T) {
	a, registry, store := newAnnotator(t)
	lit := parser.MustParseType("String", nil)
	v := a.Pin(lit, interned, ast.Position{Unit: "U", Line: 4, Col: 2})

	assert.Same(t, v, registry.VariableSlotOf(lit))
	assert.Equal(t, 4, v.Location().Line)
	assert.Equal(t, []model.Constraint{model.Equality{First: v, Second: a.Constant(interned)}}, store.Slice())
}
