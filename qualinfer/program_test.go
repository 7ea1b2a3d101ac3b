package qualinfer

import (
	"testing"
	"testing/fstest"

	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProgramShapes(t *testing.T) {
	prog, err := ParseProgram([]byte(`
classes:
  Dog: [Animal]
units:
  - name: U
    fields:
      - {name: f, type: "@Interned String"}
    methods:
      - name: m
        typeParams:
          - {name: T, upper: "Comparable<T>"}
        params:
          - {name: x, type: T}
        body:
          - var: {name: s, type: String, init: 'hi'}
          - assign: {target: this.f, value: {lit: '"a"'}}
          - expr: {call: m, typeArgs: [String], args: [x]}
          - if:
              cond: {binary: "!=", left: x, right: null}
              then:
                - expr: {new: "List<String>", args: [1, 2.5, true]}
          - return:
`))
	require.NoError(t, err)
	require.Len(t, prog.Units, 1)
	assert.True(t, prog.Classes.IsSubclass("Dog", "Animal"))

	u := prog.Units[0]
	require.Len(t, u.Fields, 1)
	assert.False(t, u.Fields[0].Local)
	assert.Equal(t, "@Interned String", u.Fields[0].Type.String())

	m := u.Methods[0]
	assert.Nil(t, m.Result)
	require.Len(t, m.TypeParams, 1)
	tp := m.TypeParams[0]
	// the bound refers back to the parameter it bounds
	bound, ok := tp.Upper.(*ast.Declared)
	require.True(t, ok)
	require.Len(t, bound.TypeArgs, 1)
	assert.Same(t, tp, bound.TypeArgs[0].(*ast.TypeVar).Param)
	assert.Same(t, tp, m.Params[0].Type.(*ast.TypeVar).Param)
	assert.True(t, m.Params[0].Local)

	require.Len(t, m.Body, 5)
	s := m.Body[0].(*ast.VarDecl)
	assert.Equal(t, `"hi"`, s.Init.(*ast.Literal).Value)
	assert.Equal(t, 15, s.Line)

	assign := m.Body[1].(*ast.Assign)
	assert.Equal(t, "this.f", assign.Target.String())
	assert.Equal(t, `"a"`, assign.Value.(*ast.Literal).Value)

	call := m.Body[2].(*ast.ExprStmt).X.(*ast.Call)
	assert.Equal(t, "m", call.Method)
	assert.Equal(t, "String", call.TypeArgs[0].String())

	cond := m.Body[3].(*ast.If)
	assert.IsType(t, &ast.NullLit{}, cond.Cond.(*ast.Binary).Right)
	created := cond.Then[0].(*ast.ExprStmt).X.(*ast.New)
	require.Len(t, created.Args, 3)
	assert.Equal(t, "int", created.Args[0].(*ast.Literal).Type.String())
	assert.Equal(t, "double", created.Args[1].(*ast.Literal).Type.String())
	assert.Equal(t, "boolean", created.Args[2].(*ast.Literal).Type.String())

	assert.Nil(t, m.Body[4].(*ast.Return).Value)
}

func TestParseProgramErrors(t *testing.T) {
	tests := map[string]string{
		"unknown statement": "units: [{name: U, methods: [{name: m, body: [{loop: x}]}]}]",
		"bad type":          "units: [{name: U, fields: [{name: f, type: 'List<'}]}]",
		"unnamed unit":      "units: [{fields: []}]",
		"two keys":          "units: [{name: U, methods: [{name: m, body: [{expr: x, return: y}]}]}]",
		"not yaml":          "units: [",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProgram([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadProgramMergesFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"src/lib.yaml":   {Data: []byte("library: [{name: id, params: [{name: s, type: String}], result: String}]")},
		"src/main.yaml":  {Data: []byte("units: [{name: Main, methods: [{name: m, body: [{expr: {call: id, args: ['x']}}]}]}]")},
		"src/README.md":  {Data: []byte("not a program")},
		"src/sub/x.yaml": {Data: []byte("units: [{name: Ignored}]")},
	}
	prog, err := LoadProgram(fsys, "src")
	require.NoError(t, err)
	require.Len(t, prog.Units, 1)
	assert.Equal(t, "Main", prog.Units[0].Name)
	require.Len(t, prog.Library, 1)
	assert.True(t, prog.Library[0].Foreign)

	_, err = LoadProgram(fstest.MapFS{"src/lib.yaml": fsys["src/lib.yaml"]}, "src")
	assert.ErrorContains(t, err, "no compilation units")
}
