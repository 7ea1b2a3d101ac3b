package parser_test

import (
	"testing"

	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/cottand/qualinfer/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoPanics(t *testing.T) {
	inputs := map[string]string{
		"empty":             ``,
		"lone annotation":   `@`,
		"unclosed generic":  `List<String`,
		"unclosed array":    `String[`,
		"dangling wildcard": `? extends`,
		"bad element":       `@A(=)`,
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_, err := parser.ParseType(input, nil)
				assert.Error(t, err)
			})
		})
	}
}

func TestRoundTripsThroughString(t *testing.T) {
	cases := []string{
		"String",
		"@Interned String",
		"int",
		"List<@Interned String>",
		"Map<String, List<Integer>>",
		"@Interned String []",
		"String @A []",
		"List<? extends Number>",
		"List<? super Integer>",
		`@VarAnnot(value="12") Object`,
	}
	for _, input := range cases {
		t.Run(input, func(t *testing.T) {
			parsed, err := parser.ParseType(input, nil)
			require.NoError(t, err)
			assert.Equal(t, input, parsed.String())
		})
	}
}

func TestAnnotationElements(t *testing.T) {
	parsed, err := parser.ParseType(`@VarAnnot(3) @Other(key="v", n=-2) Object`, nil)
	require.NoError(t, err)

	varAnnot, ok := parsed.Annotations().Get("VarAnnot")
	require.True(t, ok)
	value, _ := varAnnot.Value("value")
	assert.Equal(t, "3", value)

	other, ok := parsed.Annotations().Get("Other")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"key": "v", "n": "-2"}, other.Values)
}

func TestKinds(t *testing.T) {
	param := &ast.TypeParam{Name: "T", Upper: ast.NewDeclared(ast.ObjectName), Lower: &ast.Null{}}
	scope := parser.Scope{"T": param}

	cases := map[string]ast.TypeKind{
		"T":           ast.KindTypeVar,
		"int":         ast.KindPrimitive,
		"null":        ast.KindNull,
		"T[]":         ast.KindArray,
		"List<T>":     ast.KindDeclared,
		"? super T":   ast.KindWildcard,
		"@Interned T": ast.KindTypeVar,
	}
	for input, kind := range cases {
		t.Run(input, func(t *testing.T) {
			parsed, err := parser.ParseType(input, scope)
			require.NoError(t, err)
			assert.Equal(t, kind, parsed.Kind())
		})
	}

	tv := parser.MustParseType("T", scope).(*ast.TypeVar)
	assert.Same(t, param, tv.Param)
	assert.Equal(t, ast.ObjectName, tv.Erased())
}

func TestWildcardDefaults(t *testing.T) {
	w := parser.MustParseType("?", nil).(*ast.Wildcard)
	assert.Equal(t, ast.ObjectName, w.Extends.Erased())
	assert.Equal(t, ast.KindNull, w.Super.Kind())
	assert.Equal(t, "?", w.String())
}
