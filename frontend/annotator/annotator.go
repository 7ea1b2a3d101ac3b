// Package annotator gives inference variables to positions whose qualifier
// is already known, so that the solver sees every position as a variable.
package annotator

import (
	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/cottand/qualinfer/frontend/constraints"
	"github.com/cottand/qualinfer/frontend/model"
	"github.com/cottand/qualinfer/frontend/qual"
	"github.com/cottand/qualinfer/frontend/slots"
	"github.com/cottand/qualinfer/internal/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

var logger = log.DefaultLogger.With("section", "annotator")

const constantCacheSize = 128

type Annotator struct {
	registry  *slots.Registry
	store     *constraints.Store
	hierarchy qual.Hierarchy
	constants *lru.Cache[string, *model.Constant]
}

func New(registry *slots.Registry, store *constraints.Store) (*Annotator, error) {
	cache, err := lru.New[string, *model.Constant](constantCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "creating constant cache")
	}
	return &Annotator{
		registry:  registry,
		store:     store,
		hierarchy: registry.Hierarchy(),
		constants: cache,
	}, nil
}

// Constant returns the Constant slot of q, reusing the one handed out last time
func (a *Annotator) Constant(q ast.Annotation) *model.Constant {
	key := q.String()
	if c, ok := a.constants.Get(key); ok {
		return c
	}
	c := a.registry.Constant(q)
	a.constants.Add(key, c)
	return c
}

// Annotate copies the real qualifiers of real onto the matching positions
// of inference, then pins every eligible position of inference that has no
// slot yet: it gets a fresh Variable equal to the constant of its real
// qualifier, or of the hierarchy default when it has none.
//
// real and inference are expected to have the same shape.
func (a *Annotator) Annotate(real, inference ast.Type, at ast.Position) {
	ast.Zip(real, inference, func(r, i ast.Type) {
		if q, ok := qual.Effective(a.hierarchy, r); ok {
			i.Annotations().RemoveIf(a.hierarchy.IsValid)
			i.Annotations().Replace(q)
		}
	})
	ast.Walk(inference, func(t ast.Type) {
		if !a.hierarchy.Annotates(t) || hasMarker(t) {
			return
		}
		q, ok := qual.Effective(a.hierarchy, t)
		if !ok {
			q = a.hierarchy.Default()
		}
		a.Pin(t, q, at)
	})
}

// Pin puts a fresh Variable on the primary position of t and constrains it
// to equal q
func (a *Annotator) Pin(t ast.Type, q ast.Annotation, at ast.Position) *model.Variable {
	v := a.registry.NewVariable(at)
	a.registry.Annotate(t, v)
	c := model.Equality{First: v, Second: a.Constant(q)}
	a.store.Add(c)
	logger.Debug("pinned position", "type", t.String(), "constraint", c.String())
	return v
}

func hasMarker(t ast.Type) bool {
	_, ok := t.Annotations().Get(slots.MarkerName)
	return ok
}
