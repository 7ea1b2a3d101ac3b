package slots

import (
	"testing"

	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/cottand/qualinfer/frontend/model"
	"github.com/cottand/qualinfer/frontend/qerr"
	"github.com/cottand/qualinfer/frontend/qual"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func internedOnly(t *testing.T) qual.Hierarchy {
	l, err := qual.NewLattice(qual.Config{
		Name:           "interned",
		Qualifiers:     map[string][]string{"Interned": nil},
		SkipPrimitives: true,
	})
	require.NoError(t, err)
	return l
}

func TestFirstIdentity(t *testing.T) {
	r := NewRegistry(internedOnly(t))
	first := r.NextID()
	assert.Equal(t, FirstID, first)
	assert.NotZero(t, first)
	assert.Equal(t, first+1, r.NextID())
}

func TestIdentitiesAreUniqueAndIncreasing(t *testing.T) {
	r := NewRegistry(internedOnly(t))
	v := r.NewVariable(ast.Position{})
	created := []model.VariableSlot{
		v,
		r.NewRefinement(ast.Position{}, v),
		r.NewExistential(ast.Position{}, v, v),
		r.NewCombination(ast.Position{}, v, r.Constant(ast.NewAnnotation("Interned"))),
		r.NewVariable(ast.Position{}),
	}
	for i := 1; i < len(created); i++ {
		assert.Greater(t, created[i].ID(), created[i-1].ID())
	}
	assert.ElementsMatch(t, created, r.VariableSlots())
}

func TestAllVariableSlotsMembership(t *testing.T) {
	r := NewRegistry(internedOnly(t))
	a := model.NewVariable(r.NextID(), ast.Position{})
	b := model.NewVariable(r.NextID(), ast.Position{})
	r.Register(b)
	r.Register(a)

	assert.ElementsMatch(t, []model.VariableSlot{a, b}, r.VariableSlots())
	got, ok := r.Lookup(a.ID())
	assert.True(t, ok)
	assert.Same(t, a, got)
}

func TestRegisterPreconditions(t *testing.T) {
	r := NewRegistry(internedOnly(t))
	v := r.NewVariable(ast.Position{})

	assert.NoError(t, qerr.Catch(func() { r.Register(v) }), "registering the same slot again is fine")

	err := qerr.Catch(func() { r.Register(model.NewVariable(v.ID(), ast.Position{})) })
	assert.True(t, qerr.IsFatal(err, qerr.InvariantViolation), "different slot under a taken identity")

	err = qerr.Catch(func() { r.Register(model.NewVariable(0, ast.Position{})) })
	assert.True(t, qerr.IsFatal(err, qerr.InvariantViolation), "sentinel identity")

	err = qerr.Catch(func() { r.Register(model.NewVariable(100, ast.Position{})) })
	assert.True(t, qerr.IsFatal(err, qerr.InvariantViolation), "identity never issued")
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	r := NewRegistry(internedOnly(t))
	v := r.NewVariable(ast.Position{})
	slots := []model.VariableSlot{
		v,
		r.NewRefinement(ast.Position{}, v),
		r.NewExistential(ast.Position{}, v, v),
		r.NewCombination(ast.Position{}, v, v),
	}
	for _, s := range slots {
		t.Run(model.KindOf(s), func(t *testing.T) {
			encoded := r.Encode(s)
			assert.True(t, encoded.Equal(r.Encode(s)), "encoding is idempotent")
			assert.Equal(t, MarkerName, encoded.Name)

			decoded := r.Decode(encoded, nil)
			looked, _ := r.Lookup(s.ID())
			assert.Same(t, s, decoded)
			assert.Same(t, looked, decoded)
		})
	}
}

func TestConstantRoundTrip(t *testing.T) {
	r := NewRegistry(internedOnly(t))
	q := ast.NewAnnotation("Interned")
	c := model.NewConstant(q)

	decoded := r.Decode(r.Encode(c), nil)
	require.IsType(t, &model.Constant{}, decoded)
	assert.True(t, decoded.(*model.Constant).Value.Equal(q))
	assert.True(t, model.SameSlot(c, decoded))
}

func TestDecodeUnregisteredIdentity(t *testing.T) {
	marker := ast.NewAnnotation(MarkerName).WithValue("value", "7")

	t.Run("aborts", func(t *testing.T) {
		r := NewRegistry(internedOnly(t))
		err := qerr.Catch(func() { r.Decode(marker, nil) })
		assert.True(t, qerr.IsFatal(err, qerr.MissingSlot))
	})
	t.Run("degraded", func(t *testing.T) {
		r := NewRegistry(internedOnly(t), WithDegraded())
		var got model.Slot
		assert.NoError(t, qerr.Catch(func() { got = r.Decode(marker, nil) }))
		assert.Nil(t, got)
	})
}

func TestDecodeMarkerWithoutIdentity(t *testing.T) {
	for _, marker := range []ast.Annotation{
		ast.NewAnnotation(MarkerName),
		ast.NewAnnotation(MarkerName).WithValue("value", ""),
		ast.NewAnnotation(MarkerName).WithValue("value", "r"),
	} {
		t.Run(marker.String(), func(t *testing.T) {
			r := NewRegistry(internedOnly(t))
			err := qerr.Catch(func() { r.Decode(marker, nil) })
			assert.True(t, qerr.IsFatal(err, qerr.MissingSlot))

			degraded := NewRegistry(internedOnly(t), WithDegraded())
			assert.NoError(t, qerr.Catch(func() { assert.Nil(t, degraded.Decode(marker, nil)) }))
		})
	}
}

func TestDecodeWrongVariantTag(t *testing.T) {
	r := NewRegistry(internedOnly(t))
	v := r.NewVariable(ast.Position{})
	marker := ast.NewAnnotation(MarkerName).WithValue("value", "r1")
	require.Equal(t, 1, v.ID())
	err := qerr.Catch(func() { r.Decode(marker, nil) })
	assert.True(t, qerr.IsFatal(err, qerr.InvariantViolation))
}

func TestDecodeUnrecognizedAnnotation(t *testing.T) {
	deprecated := ast.NewAnnotation("Deprecated")

	r := NewRegistry(internedOnly(t))
	err := qerr.Catch(func() { r.Decode(deprecated, ast.Position{Unit: "A", Line: 1, Col: 1}) })
	assert.True(t, qerr.IsFatal(err, qerr.UnrecognizedAnnotation))
	assert.Contains(t, err.Error(), "A:1:1")

	degraded := NewRegistry(internedOnly(t), WithDegraded())
	got := degraded.Decode(deprecated, nil)
	require.IsType(t, &model.Constant{}, got)
	assert.Equal(t, "Interned", got.(*model.Constant).Value.Name)
}

func TestVariableSlotOf(t *testing.T) {
	r := NewRegistry(internedOnly(t))
	v := r.NewVariable(ast.Position{})

	str := ast.NewDeclared("String")
	r.Annotate(str, v)
	assert.Same(t, v, r.VariableSlotOf(str))

	assert.Nil(t, r.VariableSlotOf(ast.NewPrimitive("int")), "primitives carry no slot")

	err := qerr.Catch(func() { r.VariableSlotOf(ast.NewDeclared("Object")) })
	assert.True(t, qerr.IsFatal(err, qerr.MissingSlot))

	degraded := NewRegistry(internedOnly(t), WithDegraded())
	assert.Nil(t, degraded.VariableSlotOf(ast.NewDeclared("Object")))
}

func TestSlotsIncludesConstants(t *testing.T) {
	r := NewRegistry(internedOnly(t))
	v := r.NewVariable(ast.Position{})
	r.Decode(ast.NewAnnotation("Interned"), nil)
	r.Decode(ast.NewAnnotation("Interned"), nil)

	all := r.Slots()
	require.Len(t, all, 2)
	assert.Same(t, v, all[0])
	assert.Equal(t, "constant", model.KindOf(all[1]))
}
