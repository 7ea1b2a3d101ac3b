package qual

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"gopkg.in/yaml.v3"
)

// LoadYAML reads a Config written as YAML, for example
//
//	name: interning
//	default: UnknownInterned
//	qualifiers:
//	  UnknownInterned: []
//	  PolyInterned: [UnknownInterned]
//	  Interned: [PolyInterned]
func LoadYAML(src []byte) (*Lattice, error) {
	var cfg Config
	if err := yaml.Unmarshal(src, &cfg); err != nil {
		return nil, errors.Wrap(err, "reading hierarchy")
	}
	return NewLattice(cfg)
}

// LoadScript interprets src, a Go file of package hierarchy, and builds a
// Lattice out of its Config function:
//
//	package hierarchy
//
//	func Config() map[string][]string { ... }
//
// The script may also declare Name() string and Default() string.
func LoadScript(src string) (*Lattice, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, errors.Wrap(err, "loading Go interpreter")
	}
	if _, err := i.Eval(src); err != nil {
		return nil, errors.Wrap(err, "evaluating hierarchy script")
	}
	v, err := i.Eval("hierarchy.Config")
	if err != nil {
		return nil, errors.Wrap(err, "hierarchy script must declare func Config() map[string][]string")
	}
	configFn, ok := v.Interface().(func() map[string][]string)
	if !ok {
		return nil, errors.Errorf("hierarchy.Config has type %s, expected func() map[string][]string", v.Type())
	}
	cfg := Config{Name: "script", Qualifiers: configFn()}
	if name, ok := optionalString(i, "hierarchy.Name"); ok {
		cfg.Name = name
	}
	if def, ok := optionalString(i, "hierarchy.Default"); ok {
		cfg.Default = def
	}
	return NewLattice(cfg)
}

func optionalString(i *interp.Interpreter, symbol string) (string, bool) {
	v, err := i.Eval(symbol)
	if err != nil {
		return "", false
	}
	fn, ok := v.Interface().(func() string)
	if !ok {
		return "", false
	}
	return fn(), true
}

// LoadFile picks the loader from the extension of path: .go files are
// scripts, everything else is YAML
func LoadFile(path string) (*Lattice, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading hierarchy file")
	}
	if filepath.Ext(path) == ".go" {
		return LoadScript(string(src))
	}
	return LoadYAML(src)
}
