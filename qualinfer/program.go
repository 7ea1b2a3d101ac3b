package qualinfer

import (
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/cottand/qualinfer/internal/log"
	"github.com/cottand/qualinfer/parser"
	"gopkg.in/yaml.v3"
)

var loadLogger = log.DefaultLogger.With("section", "load")

// programFile is the YAML form of an ast.Program:
//
//	classes:
//	  Dog: [Animal]
//	library:
//	  - {name: intern, params: [{name: s, type: String}], result: "@Interned String"}
//	units:
//	  - name: Strings
//	    fields: [{name: cache, type: "@Interned String"}]
//	    methods:
//	      - name: same
//	        params: [{name: a, type: String}, {name: b, type: String}]
//	        result: boolean
//	        body:
//	          - return: {binary: "==", left: a, right: b}
//
// Statements are single-key mappings: var, assign, expr, return or if.
// Expressions are either scalars or single-purpose mappings. Plain scalars
// are identifiers, this.field or recv.field accesses, null, numbers and
// booleans; quoted scalars are String literals.
type programFile struct {
	Classes map[string][]string `yaml:"classes"`
	Library []methodFile        `yaml:"library"`
	Units   []unitFile          `yaml:"units"`
}

type unitFile struct {
	Name    string       `yaml:"name"`
	Fields  []varFile    `yaml:"fields"`
	Methods []methodFile `yaml:"methods"`

	line, col int
}

type methodFile struct {
	Name       string          `yaml:"name"`
	TypeParams []typeParamFile `yaml:"typeParams"`
	Params     []varFile       `yaml:"params"`
	Result     string          `yaml:"result"`
	Body       []yaml.Node     `yaml:"body"`

	line, col int
}

type typeParamFile struct {
	Name  string `yaml:"name"`
	Upper string `yaml:"upper"`
	Lower string `yaml:"lower"`
}

type varFile struct {
	Name string    `yaml:"name"`
	Type string    `yaml:"type"`
	Init yaml.Node `yaml:"init"`

	line, col int
}

func (u *unitFile) UnmarshalYAML(value *yaml.Node) error {
	type plain unitFile
	u.line, u.col = value.Line, value.Column
	return value.Decode((*plain)(u))
}

func (m *methodFile) UnmarshalYAML(value *yaml.Node) error {
	type plain methodFile
	m.line, m.col = value.Line, value.Column
	return value.Decode((*plain)(m))
}

func (v *varFile) UnmarshalYAML(value *yaml.Node) error {
	type plain varFile
	v.line, v.col = value.Line, value.Column
	return value.Decode((*plain)(v))
}

// ParseProgram reads a program from its YAML description
func ParseProgram(src []byte) (*ast.Program, error) {
	var file programFile
	if err := yaml.Unmarshal(src, &file); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	return file.build()
}

// LoadProgram reads every .yaml file of dir in fsys into a single program.
// Class tables and libraries of all files are merged.
func LoadProgram(fsys fs.FS, dir string) (*ast.Program, error) {
	if dir == "" {
		dir = "."
	}
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	merged := &ast.Program{Classes: ast.NewClasses()}
	for _, entry := range entries {
		ext := path.Ext(entry.Name())
		if entry.IsDir() || ext != ".yaml" && ext != ".yml" {
			continue
		}
		src, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		var file programFile
		if err := yaml.Unmarshal(src, &file); err != nil {
			return nil, fmt.Errorf("decode %s: %w", entry.Name(), err)
		}
		if err := file.into(merged); err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		loadLogger.Debug("loaded program file", "file", entry.Name(), "units", len(file.Units))
	}
	if len(merged.Units) == 0 {
		return nil, fmt.Errorf("no compilation units found in %s", dir)
	}
	return merged, nil
}

func (file *programFile) build() (*ast.Program, error) {
	program := &ast.Program{Classes: ast.NewClasses()}
	if err := file.into(program); err != nil {
		return nil, err
	}
	return program, nil
}

func (file *programFile) into(program *ast.Program) error {
	for name, supers := range file.Classes {
		program.Classes.Declare(name, supers...)
	}
	for _, mf := range file.Library {
		m, err := (&builder{unit: "library"}).method(mf)
		if err != nil {
			return err
		}
		m.Foreign = true
		program.Library = append(program.Library, m)
	}
	for _, uf := range file.Units {
		if uf.Name == "" {
			return fmt.Errorf("%d:%d: unit without a name", uf.line, uf.col)
		}
		b := &builder{unit: uf.Name}
		unit := &ast.CompilationUnit{Position: b.pos(uf.line, uf.col), Name: uf.Name}
		for _, ff := range uf.Fields {
			field, err := b.varDecl(ff, false)
			if err != nil {
				return err
			}
			unit.Fields = append(unit.Fields, field)
		}
		for _, mf := range uf.Methods {
			m, err := b.method(mf)
			if err != nil {
				return err
			}
			unit.Methods = append(unit.Methods, m)
		}
		program.Units = append(program.Units, unit)
	}
	return nil
}

// builder turns the decoded file of one unit into trees
type builder struct {
	unit  string
	scope parser.Scope
}

func (b *builder) pos(line, col int) ast.Position {
	return ast.Position{Unit: b.unit, Line: line, Col: col}
}

func (b *builder) nodePos(n *yaml.Node) ast.Position {
	return b.pos(n.Line, n.Column)
}

func (b *builder) errorf(at ast.Position, format string, args ...any) error {
	return fmt.Errorf("%s: %s", at, fmt.Sprintf(format, args...))
}

func (b *builder) typ(src string, at ast.Position) (ast.Type, error) {
	t, err := parser.ParseType(src, b.scope)
	if err != nil {
		return nil, b.errorf(at, "type %q: %v", src, err)
	}
	return t, nil
}

func (b *builder) method(mf methodFile) (*ast.Method, error) {
	at := b.pos(mf.line, mf.col)
	if mf.Name == "" {
		return nil, b.errorf(at, "method without a name")
	}
	m := &ast.Method{Position: at, Name: mf.Name}

	// all parameters are in scope of every bound, so F-bounds parse
	b.scope = parser.Scope{}
	defer func() { b.scope = nil }()
	for _, tp := range mf.TypeParams {
		param := &ast.TypeParam{Position: at, Name: tp.Name}
		b.scope[tp.Name] = param
		m.TypeParams = append(m.TypeParams, param)
	}
	for i, tp := range mf.TypeParams {
		var err error
		if tp.Upper != "" {
			if m.TypeParams[i].Upper, err = b.typ(tp.Upper, at); err != nil {
				return nil, err
			}
		}
		if tp.Lower != "" {
			if m.TypeParams[i].Lower, err = b.typ(tp.Lower, at); err != nil {
				return nil, err
			}
		}
	}

	for _, pf := range mf.Params {
		p, err := b.varDecl(pf, true)
		if err != nil {
			return nil, err
		}
		m.Params = append(m.Params, p)
	}
	if mf.Result != "" && mf.Result != "void" {
		result, err := b.typ(mf.Result, at)
		if err != nil {
			return nil, err
		}
		m.Result = result
	}
	body, err := b.block(mf.Body)
	if err != nil {
		return nil, err
	}
	m.Body = body
	return m, nil
}

func (b *builder) varDecl(vf varFile, local bool) (*ast.VarDecl, error) {
	at := b.pos(vf.line, vf.col)
	if vf.Name == "" || vf.Type == "" {
		return nil, b.errorf(at, "declaration needs a name and a type")
	}
	t, err := b.typ(vf.Type, at)
	if err != nil {
		return nil, err
	}
	decl := &ast.VarDecl{Position: at, Name: vf.Name, Type: t, Local: local}
	if !vf.Init.IsZero() {
		if decl.Init, err = b.expr(&vf.Init); err != nil {
			return nil, err
		}
	}
	return decl, nil
}

func (b *builder) block(nodes []yaml.Node) ([]ast.Stmt, error) {
	stmts := make([]ast.Stmt, 0, len(nodes))
	for i := range nodes {
		s, err := b.stmt(&nodes[i])
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}

// single returns the key and value of a single-key mapping
func single(n *yaml.Node) (string, *yaml.Node, bool) {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return "", nil, false
	}
	return n.Content[0].Value, n.Content[1], true
}

// entries maps the keys of a mapping node to their values
func entries(n *yaml.Node) map[string]*yaml.Node {
	m := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		m[n.Content[i].Value] = n.Content[i+1]
	}
	return m
}

func (b *builder) stmt(n *yaml.Node) (ast.Stmt, error) {
	at := b.nodePos(n)
	key, value, ok := single(n)
	if !ok {
		return nil, b.errorf(at, "a statement is a mapping with exactly one key")
	}
	switch key {
	case "var":
		var vf varFile
		if err := value.Decode(&vf); err != nil {
			return nil, b.errorf(at, "var: %v", err)
		}
		return b.varDecl(vf, true)
	case "assign":
		fields := entries(value)
		if fields["target"] == nil || fields["value"] == nil {
			return nil, b.errorf(at, "assign needs a target and a value")
		}
		target, err := b.expr(fields["target"])
		if err != nil {
			return nil, err
		}
		v, err := b.expr(fields["value"])
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Position: at, Target: target, Value: v}, nil
	case "expr":
		x, err := b.expr(value)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Position: at, X: x}, nil
	case "return":
		ret := &ast.Return{Position: at}
		if value.ShortTag() == "!!null" {
			return ret, nil
		}
		v, err := b.expr(value)
		if err != nil {
			return nil, err
		}
		ret.Value = v
		return ret, nil
	case "if":
		fields := entries(value)
		if fields["cond"] == nil {
			return nil, b.errorf(at, "if needs a cond")
		}
		cond, err := b.expr(fields["cond"])
		if err != nil {
			return nil, err
		}
		s := &ast.If{Position: at, Cond: cond}
		if s.Then, err = b.branch(fields["then"]); err != nil {
			return nil, err
		}
		if s.Else, err = b.branch(fields["else"]); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, b.errorf(at, "unknown statement %q", key)
}

func (b *builder) branch(n *yaml.Node) ([]ast.Stmt, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, b.errorf(b.nodePos(n), "a branch is a list of statements")
	}
	nodes := make([]yaml.Node, len(n.Content))
	for i, c := range n.Content {
		nodes[i] = *c
	}
	return b.block(nodes)
}

func (b *builder) exprs(n *yaml.Node) ([]ast.Expr, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, b.errorf(b.nodePos(n), "expected a list of expressions")
	}
	var out []ast.Expr
	for _, c := range n.Content {
		e, err := b.expr(c)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (b *builder) expr(n *yaml.Node) (ast.Expr, error) {
	at := b.nodePos(n)
	if n.Kind == yaml.ScalarNode {
		return b.scalar(n, at)
	}
	if n.Kind != yaml.MappingNode {
		return nil, b.errorf(at, "expected an expression")
	}
	fields := entries(n)
	switch {
	case fields["ident"] != nil:
		return &ast.Ident{Position: at, Name: fields["ident"].Value}, nil
	case fields["field"] != nil:
		access := &ast.FieldAccess{Position: at, Name: fields["field"].Value}
		if fields["recv"] != nil {
			recv, err := b.expr(fields["recv"])
			if err != nil {
				return nil, err
			}
			access.Recv = recv
		}
		return access, nil
	case fields["lit"] != nil:
		if fields["type"] == nil {
			return b.scalar(fields["lit"], at)
		}
		t, err := b.typ(fields["type"].Value, at)
		if err != nil {
			return nil, err
		}
		return &ast.Literal{Position: at, Type: t, Value: fields["lit"].Value}, nil
	case fields["new"] != nil:
		t, err := b.typ(fields["new"].Value, at)
		if err != nil {
			return nil, err
		}
		args, err := b.exprs(fields["args"])
		if err != nil {
			return nil, err
		}
		return &ast.New{Position: at, Type: t, Args: args}, nil
	case fields["call"] != nil:
		call := &ast.Call{Position: at, Method: fields["call"].Value}
		if ta := fields["typeArgs"]; ta != nil {
			for _, c := range ta.Content {
				t, err := b.typ(c.Value, b.nodePos(c))
				if err != nil {
					return nil, err
				}
				call.TypeArgs = append(call.TypeArgs, t)
			}
		}
		args, err := b.exprs(fields["args"])
		if err != nil {
			return nil, err
		}
		call.Args = args
		return call, nil
	case fields["binary"] != nil:
		if fields["left"] == nil || fields["right"] == nil {
			return nil, b.errorf(at, "binary needs a left and a right operand")
		}
		left, err := b.expr(fields["left"])
		if err != nil {
			return nil, err
		}
		right, err := b.expr(fields["right"])
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Position: at, Op: fields["binary"].Value, Left: left, Right: right}, nil
	}
	return nil, b.errorf(at, "unknown expression")
}

func (b *builder) scalar(n *yaml.Node, at ast.Position) (ast.Expr, error) {
	value := n.Value
	switch n.ShortTag() {
	case "!!null":
		return &ast.NullLit{Position: at}, nil
	case "!!bool":
		return &ast.Literal{Position: at, Type: ast.NewPrimitive("boolean"), Value: value}, nil
	case "!!int":
		return &ast.Literal{Position: at, Type: ast.NewPrimitive("int"), Value: value}, nil
	case "!!float":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return nil, b.errorf(at, "bad number %q", value)
		}
		return &ast.Literal{Position: at, Type: ast.NewPrimitive("double"), Value: value}, nil
	}
	// quoted scalars are string literals
	if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		if !strings.HasPrefix(value, `"`) {
			value = strconv.Quote(value)
		}
		return &ast.Literal{Position: at, Type: ast.NewDeclared("String"), Value: value}, nil
	}
	switch {
	case value == "":
		return nil, b.errorf(at, "empty expression")
	case strings.HasPrefix(value, "this."):
		return &ast.FieldAccess{Position: at, Name: strings.TrimPrefix(value, "this.")}, nil
	case strings.Contains(value, "."):
		recv, name, _ := strings.Cut(value, ".")
		return &ast.FieldAccess{Position: at, Recv: &ast.Ident{Position: at, Name: recv}, Name: name}, nil
	}
	return &ast.Ident{Position: at, Name: value}, nil
}
