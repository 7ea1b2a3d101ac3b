package qual

import (
	"fmt"
	"slices"

	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
)

// Config declares a hierarchy by listing, for every qualifier, its direct
// supertypes. The top qualifier is the one with no supertypes.
type Config struct {
	Name       string              `yaml:"name"`
	Qualifiers map[string][]string `yaml:"qualifiers"`
	// Default is the top qualifier when left empty
	Default string `yaml:"default"`
	// SkipPrimitives makes primitive positions carry no qualifier
	SkipPrimitives bool `yaml:"skipPrimitives"`
}

var _ Hierarchy = (*Lattice)(nil)

// Lattice is a Hierarchy built from a Config
type Lattice struct {
	name     string
	names    []string
	supers   map[string]*set.Set[string] // reflexive-transitive
	top      string
	bottom   string
	default_ string
	skipPrim bool
}

// NewLattice checks cfg and computes the subtyping closure of its qualifiers.
// A valid hierarchy has exactly one top and one bottom and no cycles.
func NewLattice(cfg Config) (*Lattice, error) {
	if len(cfg.Qualifiers) == 0 {
		return nil, errors.Errorf("hierarchy %q declares no qualifiers", cfg.Name)
	}
	l := &Lattice{
		name:     cfg.Name,
		supers:   make(map[string]*set.Set[string], len(cfg.Qualifiers)),
		skipPrim: cfg.SkipPrimitives,
	}
	for name, direct := range cfg.Qualifiers {
		for _, super := range direct {
			if _, ok := cfg.Qualifiers[super]; !ok {
				return nil, errors.Errorf("qualifier %s extends undeclared %s", name, super)
			}
		}
		l.names = append(l.names, name)
	}
	slices.Sort(l.names)

	for _, name := range l.names {
		reached := set.New[string](len(l.names))
		queue := []string{name}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			if !reached.Insert(current) {
				continue
			}
			queue = append(queue, cfg.Qualifiers[current]...)
		}
		l.supers[name] = reached
	}

	var tops, bottoms []string
	for _, name := range l.names {
		for _, super := range l.supers[name].Slice() {
			if super != name && l.supers[super].Contains(name) {
				return nil, errors.Errorf("qualifiers %s and %s are subtypes of each other", name, super)
			}
		}
		if l.supers[name].Size() == len(l.names) {
			bottoms = append(bottoms, name)
		}
		if l.isTop(name) {
			tops = append(tops, name)
		}
	}
	if len(tops) != 1 {
		return nil, errors.Errorf("hierarchy %q must have exactly one top qualifier, found %v", cfg.Name, tops)
	}
	if len(bottoms) != 1 {
		return nil, errors.Errorf("hierarchy %q must have exactly one bottom qualifier, found %v", cfg.Name, bottoms)
	}
	l.top, l.bottom = tops[0], bottoms[0]

	l.default_ = cfg.Default
	if l.default_ == "" {
		l.default_ = l.top
	}
	if _, ok := l.supers[l.default_]; !ok {
		return nil, errors.Errorf("default qualifier %s is not declared", l.default_)
	}
	return l, nil
}

func (l *Lattice) isTop(name string) bool {
	for _, other := range l.names {
		if !l.supers[other].Contains(name) {
			return false
		}
	}
	return true
}

func (l *Lattice) Name() string { return l.name }

func (l *Lattice) Qualifiers() []ast.Annotation {
	qualifiers := make([]ast.Annotation, 0, len(l.names))
	for _, name := range l.names {
		qualifiers = append(qualifiers, ast.NewAnnotation(name))
	}
	return qualifiers
}

func (l *Lattice) Top() ast.Annotation     { return ast.NewAnnotation(l.top) }
func (l *Lattice) Bottom() ast.Annotation  { return ast.NewAnnotation(l.bottom) }
func (l *Lattice) Default() ast.Annotation { return ast.NewAnnotation(l.default_) }

func (l *Lattice) IsSubtype(sub, super ast.Annotation) bool {
	supers, ok := l.supers[sub.Name]
	return ok && supers.Contains(super.Name)
}

// Annotates is false for type variables and wildcards, whose qualifiers
// live on their bounds, and for primitives when the Config skips them
func (l *Lattice) Annotates(t ast.Type) bool {
	switch t.Kind() {
	case ast.KindTypeVar, ast.KindWildcard:
		return false
	case ast.KindPrimitive:
		return !l.skipPrim
	}
	return true
}

func (l *Lattice) IsValid(a ast.Annotation) bool {
	_, ok := l.supers[a.Name]
	return ok
}

func (l *Lattice) String() string {
	return fmt.Sprintf("%s%v", l.name, l.names)
}
