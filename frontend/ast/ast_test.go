package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var interned = NewAnnotation("Interned")

func annotate(t Type, as ...Annotation) Type {
	for _, a := range as {
		t.Annotations().Replace(a)
	}
	return t
}

func TestAnnotationsReplaceByName(t *testing.T) {
	var as Annotations
	as.Replace(NewAnnotation("VarAnnot").WithValue("value", "1"))
	as.Replace(interned)
	as.Replace(NewAnnotation("VarAnnot").WithValue("value", "2"))

	require.Equal(t, 2, as.Len())
	marker, ok := as.Get("VarAnnot")
	require.True(t, ok)
	v, _ := marker.Value("value")
	assert.Equal(t, "2", v)
	assert.Equal(t, `@VarAnnot(value="2") @Interned `, as.String())

	as.RemoveIf(func(a Annotation) bool { return a.Name == "Interned" })
	assert.False(t, as.Has(interned))
}

func TestCopyIsDeep(t *testing.T) {
	orig := annotate(NewDeclared("List", annotate(NewDeclared("String"), interned)), interned)
	c := Copy(orig).(*Declared)

	c.TypeArgs[0].Annotations().Clear()
	c.Annotations().Clear()
	assert.True(t, orig.Annotations().Has(interned))
	assert.True(t, orig.(*Declared).TypeArgs[0].Annotations().Has(interned))
}

func TestCopyKeepsRecursiveBounds(t *testing.T) {
	// T extends Comparable<T>
	param := &TypeParam{Name: "T"}
	param.Upper = NewDeclared("Comparable", NewTypeVar(param))
	use := NewTypeVar(param)

	c := Copy(use).(*TypeVar)
	require.NotNil(t, c.Upper)
	assert.NotSame(t, param.Upper, c.Upper)
	inner := c.Upper.(*Declared).TypeArgs[0].(*TypeVar)
	// the nested use shares its copied bound with the declaration's use
	assert.Same(t, c.Upper, inner.Upper)

	count := 0
	Walk(c, func(Type) { count++ })
	assert.Equal(t, 3, count)
}

func TestSubstitute(t *testing.T) {
	param := &TypeParam{Name: "E"}
	use := annotate(NewTypeVar(param), interned)
	list := NewDeclared("List", use)

	got := Substitute(list, map[*TypeParam]Type{param: NewDeclared("String")}).(*Declared)
	arg := got.TypeArgs[0]
	assert.Equal(t, KindDeclared, arg.Kind())
	assert.True(t, arg.Annotations().Has(interned))
	// the original is untouched
	assert.Equal(t, KindTypeVar, list.TypeArgs[0].Kind())
}

func TestShallowSharesNested(t *testing.T) {
	arg := NewDeclared("String")
	orig := annotate(NewDeclared("List", arg), interned)
	s := Shallow(orig).(*Declared)

	s.Annotations().Clear()
	assert.True(t, orig.Annotations().Has(interned))
	assert.Same(t, arg, s.TypeArgs[0])
}

func TestPrimary(t *testing.T) {
	object := annotate(NewDeclared(ObjectName), interned)
	param := &TypeParam{Name: "T", Upper: object}

	assert.Same(t, object, Primary(NewTypeVar(param)))
	assert.Same(t, object, Primary(&Wildcard{Extends: NewTypeVar(param)}))

	unbounded := NewTypeVar(&TypeParam{Name: "U"})
	assert.Same(t, unbounded, Primary(unbounded))

	// a bound that is the variable itself ends the search
	loop := &TypeParam{Name: "L"}
	self := NewTypeVar(loop)
	loop.Upper = self
	assert.NotNil(t, Primary(self))
}

func TestZipStopsAtShapeMismatch(t *testing.T) {
	a := NewDeclared("Map", NewDeclared("String"), NewDeclared("Integer"))
	b := NewDeclared("Map", NewArray(NewPrimitive("int")), NewDeclared("Integer"))

	var pairs []string
	Zip(a, b, func(x, y Type) { pairs = append(pairs, x.Erased()+"~"+y.Erased()) })
	assert.Equal(t, []string{"Map~Map", "String~int[]", "Integer~Integer"}, pairs)
}

func TestClasses(t *testing.T) {
	c := NewClasses()
	c.Declare("Animal")
	c.Declare("Dog", "Animal")

	tests := []struct {
		sub, super string
		want       bool
	}{
		{"Dog", "Animal", true},
		{"Dog", ObjectName, true},
		{"Animal", "Dog", false},
		{"null", "Dog", true},
		{"null", "int", false},
		{"Dog[]", "Animal[]", true},
		{"Dog[]", "Animal", false},
		{"Integer", ObjectName, true},
	}
	for _, test := range tests {
		t.Run(test.sub+"<:"+test.super, func(t *testing.T) {
			assert.Equal(t, test.want, c.IsSubclass(test.sub, test.super))
		})
	}
	assert.True(t, c.IsDeclared(ObjectName))
	assert.False(t, c.IsDeclared("Cat"))
}

func TestAsSuperKeepsPrimaryAnnotations(t *testing.T) {
	dog := annotate(NewDeclared("Dog"), interned)
	widened := AsSuper(dog, "Animal")
	assert.Equal(t, "Animal", widened.Erased())
	assert.True(t, widened.Annotations().Has(interned))

	prim := NewPrimitive("int")
	assert.NotSame(t, prim, AsSuper(prim, "Object"))
}

func TestBoxedName(t *testing.T) {
	name, ok := BoxedName("int")
	assert.True(t, ok)
	assert.Equal(t, "Integer", name)
	_, ok = BoxedName("String")
	assert.False(t, ok)
}

func TestLookupMethodPrefersUnit(t *testing.T) {
	local := &Method{Name: "m"}
	lib := &Method{Name: "m", Foreign: true}
	other := &Method{Name: "other", Foreign: true}
	unit := &CompilationUnit{Name: "U", Methods: []*Method{local}}
	p := &Program{Units: []*CompilationUnit{unit}, Library: []*Method{lib, other}}

	m, ok := p.LookupMethod(unit, "m")
	require.True(t, ok)
	assert.Same(t, local, m)
	m, ok = p.LookupMethod(unit, "other")
	require.True(t, ok)
	assert.Same(t, other, m)
	_, ok = p.LookupMethod(nil, "missing")
	assert.False(t, ok)
}
