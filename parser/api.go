package parser

import (
	"fmt"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/cottand/qualinfer/frontend/ast"
)

// Scope maps type variable names to their declarations.
// Identifiers found in a Scope parse as type variable uses.
type Scope map[string]*ast.TypeParam

var primitives = map[string]bool{
	"boolean": true,
	"byte":    true,
	"char":    true,
	"short":   true,
	"int":     true,
	"long":    true,
	"float":   true,
	"double":  true,
}

// ParseType parses a Java-style annotated type expression, such as
//
//	@Interned List<? extends @Interned String> @A []
//
// Annotation elements are written @Name(value) or @Name(key="value").
func ParseType(src string, scope Scope) (ast.Type, error) {
	p := newParser(src, scope)
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.tok != scanner.EOF {
		return nil, p.errorf("unexpected %q after type", p.text())
	}
	return t, nil
}

// MustParseType is like ParseType but panics on syntax errors
func MustParseType(src string, scope Scope) ast.Type {
	t, err := ParseType(src, scope)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	s     scanner.Scanner
	tok   rune
	src   string
	scope Scope
}

func newParser(src string, scope Scope) *parser {
	p := &parser{src: src, scope: scope}
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanStrings
	p.s.Error = func(*scanner.Scanner, string) {}
	p.next()
	return p
}

func (p *parser) next() {
	p.tok = p.s.Scan()
}

func (p *parser) text() string {
	if p.tok == scanner.EOF {
		return "end of input"
	}
	return p.s.TokenText()
}

func (p *parser) errorf(format string, args ...any) error {
	return SyntaxError{
		Source: p.src,
		Offset: p.s.Position.Offset,
		Msg:    fmt.Sprintf(format, args...),
	}
}

func (p *parser) expect(tok rune) error {
	if p.tok != tok {
		return p.errorf("expected %q, found %q", string(tok), p.text())
	}
	p.next()
	return nil
}

func (p *parser) parseType() (ast.Type, error) {
	annos, err := p.parseAnnotations()
	if err != nil {
		return nil, err
	}
	base, err := p.parseBase()
	if err != nil {
		return nil, err
	}
	for _, a := range annos {
		base.Annotations().Replace(a)
	}
	for {
		arrayAnnos, err := p.parseAnnotations()
		if err != nil {
			return nil, err
		}
		if p.tok != '[' {
			if len(arrayAnnos) > 0 {
				return nil, p.errorf("annotations must be followed by []")
			}
			return base, nil
		}
		p.next()
		if err := p.expect(']'); err != nil {
			return nil, err
		}
		arr := ast.NewArray(base)
		for _, a := range arrayAnnos {
			arr.Annotations().Replace(a)
		}
		base = arr
	}
}

func (p *parser) parseAnnotations() ([]ast.Annotation, error) {
	var annos []ast.Annotation
	for p.tok == '@' {
		p.next()
		if p.tok != scanner.Ident {
			return nil, p.errorf("expected annotation name, found %q", p.text())
		}
		anno := ast.NewAnnotation(p.s.TokenText())
		p.next()
		if p.tok == '(' {
			p.next()
			for p.tok != ')' {
				key := "value"
				if p.tok == scanner.Ident {
					key = p.s.TokenText()
					p.next()
					if err := p.expect('='); err != nil {
						return nil, err
					}
				}
				value, err := p.parseElementValue()
				if err != nil {
					return nil, err
				}
				anno = anno.WithValue(key, value)
				if p.tok == ',' {
					p.next()
				} else if p.tok != ')' {
					return nil, p.errorf("expected ',' or ')', found %q", p.text())
				}
			}
			p.next()
		}
		annos = append(annos, anno)
	}
	return annos, nil
}

func (p *parser) parseElementValue() (string, error) {
	switch p.tok {
	case scanner.String:
		v, err := strconv.Unquote(p.s.TokenText())
		if err != nil {
			return "", p.errorf("bad string %s", p.s.TokenText())
		}
		p.next()
		return v, nil
	case scanner.Int:
		v := p.s.TokenText()
		p.next()
		return v, nil
	case '-':
		p.next()
		if p.tok != scanner.Int {
			return "", p.errorf("expected number after '-'")
		}
		v := "-" + p.s.TokenText()
		p.next()
		return v, nil
	}
	return "", p.errorf("expected annotation value, found %q", p.text())
}

func (p *parser) parseBase() (ast.Type, error) {
	if p.tok == '?' {
		p.next()
		return p.parseWildcard()
	}
	if p.tok != scanner.Ident {
		return nil, p.errorf("expected type, found %q", p.text())
	}
	name := p.s.TokenText()
	p.next()
	if name == "null" {
		return &ast.Null{}, nil
	}
	if primitives[name] {
		return ast.NewPrimitive(name), nil
	}
	if param, ok := p.scope[name]; ok {
		return ast.NewTypeVar(param), nil
	}
	declared := ast.NewDeclared(name)
	if p.tok != '<' {
		return declared, nil
	}
	p.next()
	for {
		arg, err := p.parseType()
		if err != nil {
			return nil, err
		}
		declared.TypeArgs = append(declared.TypeArgs, arg)
		if p.tok == ',' {
			p.next()
			continue
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		return declared, nil
	}
}

func (p *parser) parseWildcard() (ast.Type, error) {
	w := &ast.Wildcard{}
	if p.tok == scanner.Ident && (p.s.TokenText() == "extends" || p.s.TokenText() == "super") {
		keyword := p.s.TokenText()
		p.next()
		bound, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if keyword == "extends" {
			w.Extends = bound
		} else {
			w.Super = bound
		}
	}
	if w.Extends == nil {
		w.Extends = ast.NewDeclared(ast.ObjectName)
	}
	if w.Super == nil {
		w.Super = &ast.Null{}
	}
	return w, nil
}
