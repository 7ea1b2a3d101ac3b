package problem

import (
	"bytes"
	"testing"

	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/cottand/qualinfer/frontend/constraints"
	"github.com/cottand/qualinfer/frontend/model"
	"github.com/cottand/qualinfer/frontend/qual"
	"github.com/cottand/qualinfer/frontend/slots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func setup(t *testing.T) (*slots.Registry, *constraints.Store) {
	h, err := qual.NewLattice(qual.Config{
		Name:       "interning",
		Qualifiers: map[string][]string{"Interned": {"UnknownInterned"}, "UnknownInterned": nil},
	})
	require.NoError(t, err)
	return slots.NewRegistry(h), constraints.NewStore()
}

func TestWellFormedProblemHasNoDangling(t *testing.T) {
	registry, store := setup(t)
	v := registry.NewVariable(ast.Position{Unit: "A", Line: 1, Col: 2})
	r := registry.NewRefinement(ast.Position{}, v)
	store.Add(model.Subtype{Sub: r, Super: r.Refined})
	store.Add(model.Equality{First: v, Second: registry.Constant(ast.NewAnnotation("Interned"))})

	p := New(registry, store)
	assert.Empty(t, p.Dangling())
	assert.Equal(t, "interning", p.Hierarchy)
	assert.Len(t, p.ConstraintSlice(), 2)
}

func TestDangling(t *testing.T) {
	registry, store := setup(t)
	v := registry.NewVariable(ast.Position{})
	ghost := model.NewVariable(99, ast.Position{})
	other := model.NewVariable(42, ast.Position{})
	store.Add(model.Equality{First: v, Second: ghost})
	store.Add(model.Subtype{Sub: ghost, Super: model.NewRefinement(50, ast.Position{}, other)})

	assert.Equal(t, []int{42, 50, 99}, New(registry, store).Dangling())
}

func TestSnapshotIgnoresLaterConstraints(t *testing.T) {
	registry, store := setup(t)
	v := registry.NewVariable(ast.Position{})
	store.Add(model.Equality{First: v, Second: v})
	p := New(registry, store)
	store.Add(model.Subtype{Sub: v, Super: v})
	assert.Len(t, p.ConstraintSlice(), 1)
}

func TestWriteYAML(t *testing.T) {
	registry, store := setup(t)
	v := registry.NewVariable(ast.Position{Unit: "A", Line: 3, Col: 4})
	e := registry.NewExistential(ast.Position{}, registry.NewVariable(ast.Position{}), v)
	interned := registry.Constant(ast.NewAnnotation("Interned"))
	store.Add(model.Subtype{Sub: e, Super: interned})

	p := New(registry, store)
	var buf bytes.Buffer
	require.NoError(t, p.WriteYAML(&buf))

	var doc document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, p.RunID.String(), doc.Run)
	require.Len(t, doc.Slots, 3)
	assert.Equal(t, slotEntry{ID: v.ID(), Kind: "variable", At: "A:3:4"}, doc.Slots[0])
	assert.Equal(t, "existential", doc.Slots[2].Kind)
	assert.Len(t, doc.Slots[2].Refs, 2)
	assert.Equal(t, []string{"@Interned"}, doc.Constants)
	assert.Equal(t, []constraint{{Kind: "subtype", Operands: []string{"3", "@Interned"}}}, doc.Constraints)
}

func TestDump(t *testing.T) {
	registry, store := setup(t)
	v := registry.NewVariable(ast.Position{})
	store.Add(model.Equality{First: v, Second: registry.Constant(ast.NewAnnotation("Interned"))})

	var buf bytes.Buffer
	New(registry, store).Dump(&buf)
	assert.Contains(t, buf.String(), "model.Equality")
	assert.Contains(t, buf.String(), "Interned")
}
