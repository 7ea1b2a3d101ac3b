package interning

import (
	"testing"

	"github.com/cottand/qualinfer/frontend/annotator"
	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/cottand/qualinfer/frontend/constraints"
	"github.com/cottand/qualinfer/frontend/model"
	"github.com/cottand/qualinfer/frontend/qerr"
	"github.com/cottand/qualinfer/frontend/slots"
	"github.com/cottand/qualinfer/frontend/typefactory"
	"github.com/cottand/qualinfer/frontend/visitor"
	"github.com/cottand/qualinfer/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(line int) ast.Position {
	return ast.Position{Unit: "Strings", Line: line, Col: 1}
}

func param(name, src string) *ast.VarDecl {
	return &ast.VarDecl{Position: pos(1), Name: name, Type: parser.MustParseType(src, nil), Local: true}
}

func compare(line int, left, right ast.Expr) ast.Stmt {
	return &ast.ExprStmt{Position: pos(line), X: &ast.Binary{Position: pos(line), Op: "==", Left: left, Right: right}}
}

func ident(line int, name string) *ast.Ident {
	return &ast.Ident{Position: pos(line), Name: name}
}

func check(t *testing.T, u *ast.CompilationUnit) []qerr.Diagnostic {
	h, err := NewHierarchy()
	require.NoError(t, err)
	f := typefactory.NewChecking(&ast.Program{Units: []*ast.CompilationUnit{u}}, h, typefactory.WithLiteralQualifier(Rules{}.Literal))
	v := visitor.New(f, Rules{})
	require.NoError(t, qerr.Catch(func() { v.VisitUnit(u) }))
	return v.Diagnostics().Errors()
}

func codes(diags []qerr.Diagnostic) []qerr.ErrCode {
	var found []qerr.ErrCode
	for _, d := range diags {
		found = append(found, d.Code())
	}
	return found
}

func TestHierarchy(t *testing.T) {
	h, err := NewHierarchy()
	require.NoError(t, err)
	assert.Equal(t, Interned, h.Bottom().Name)
	assert.Equal(t, UnknownInterned, h.Top().Name)
	assert.Equal(t, UnknownInterned, h.Default().Name)
	assert.True(t, h.IsSubtype(ast.NewAnnotation(Interned), ast.NewAnnotation(UnknownInterned)))
	assert.False(t, h.Annotates(ast.NewPrimitive("int")))
}

func TestReferenceComparison(t *testing.T) {
	tests := []struct {
		name  string
		left  string
		right string
		want  []qerr.ErrCode
	}{
		{name: "both interned", left: "@Interned String", right: "@Interned String"},
		{name: "unknown operands", left: "String", right: "String", want: []qerr.ErrCode{qerr.QualifierRequired, qerr.QualifierRequired}},
		{name: "one unknown operand", left: "@Interned String", right: "String", want: []qerr.ErrCode{qerr.QualifierRequired}},
		{name: "primitives", left: "int", right: "int"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			u := &ast.CompilationUnit{Name: "Strings", Methods: []*ast.Method{{
				Position: pos(1),
				Name:     "same",
				Params:   []*ast.VarDecl{param("a", test.left), param("b", test.right)},
				Body:     []ast.Stmt{compare(2, ident(2, "a"), ident(2, "b"))},
			}}}
			assert.Equal(t, test.want, codes(check(t, u)))
		})
	}
}

func TestComparisonWithNull(t *testing.T) {
	u := &ast.CompilationUnit{Name: "Strings", Methods: []*ast.Method{{
		Position: pos(1),
		Name:     "isNull",
		Params:   []*ast.VarDecl{param("a", "String")},
		Body:     []ast.Stmt{compare(2, ident(2, "a"), &ast.NullLit{Position: pos(2)})},
	}}}
	assert.Empty(t, check(t, u))
}

func TestStringLiteralsAreInterned(t *testing.T) {
	lit := &ast.Literal{Position: pos(2), Type: parser.MustParseType("String", nil), Value: `"hello"`}
	s := &ast.VarDecl{Position: pos(2), Name: "s", Type: parser.MustParseType("@Interned String", nil), Init: lit, Local: true}
	u := &ast.CompilationUnit{Name: "Strings", Methods: []*ast.Method{{
		Position: pos(1),
		Name:     "greet",
		Body:     []ast.Stmt{s, compare(3, ident(3, "s"), lit)},
	}}}
	assert.Empty(t, check(t, u))
}

func TestNewObjectsAreNotInterned(t *testing.T) {
	created := &ast.New{Position: pos(2), Type: parser.MustParseType("@Interned String", nil)}
	u := &ast.CompilationUnit{Name: "Strings", Methods: []*ast.Method{{
		Position: pos(1),
		Name:     "make",
		Body:     []ast.Stmt{&ast.ExprStmt{Position: pos(2), X: created}},
	}}}
	diags := check(t, u)
	require.Len(t, diags, 1)
	assert.Equal(t, qerr.QualifierForbidden, diags[0].Code())
	assert.Equal(t, keyCreation, diags[0].Key())
}

func TestPolyInternedFieldsAreForbidden(t *testing.T) {
	u := &ast.CompilationUnit{Name: "Strings", Fields: []*ast.VarDecl{
		{Position: pos(1), Name: "ok", Type: parser.MustParseType("List<@Interned String>", nil)},
		{Position: pos(2), Name: "bad", Type: parser.MustParseType("List<@PolyInterned String>", nil)},
	}}
	diags := check(t, u)
	require.Len(t, diags, 1)
	assert.Equal(t, keyPolyField, diags[0].Key())
	assert.Equal(t, 2, diags[0].Pos().Line)
}

func TestInferenceConstrainsComparedOperands(t *testing.T) {
	h, err := NewHierarchy()
	require.NoError(t, err)
	a, b := param("a", "String"), param("b", "String")
	u := &ast.CompilationUnit{Name: "Strings", Methods: []*ast.Method{{
		Position: pos(1),
		Name:     "same",
		Params:   []*ast.VarDecl{a, b},
		Body:     []ast.Stmt{compare(2, ident(2, "a"), ident(2, "b"))},
	}}}

	registry := slots.NewRegistry(h)
	store := constraints.NewStore()
	ann, err := annotator.New(registry, store)
	require.NoError(t, err)
	f := typefactory.NewInference(&ast.Program{Units: []*ast.CompilationUnit{u}}, registry, store, ann, typefactory.WithLiteralQualifier(Rules{}.Literal))
	v := visitor.New(f, Rules{})
	require.NoError(t, qerr.Catch(func() { v.VisitUnit(u) }))

	sa, sb := f.SlotOf(f.DeclaredType(a)), f.SlotOf(f.DeclaredType(b))
	interned := ann.Constant(ast.NewAnnotation(Interned))
	all := store.Slice()
	assert.Contains(t, all, model.Comparable{First: sa, Second: sb})
	assert.Contains(t, all, model.Equality{First: sa, Second: interned})
	assert.Contains(t, all, model.Equality{First: sb, Second: interned})
	assert.False(t, v.Diagnostics().HasError())
}
