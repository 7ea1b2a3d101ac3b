// Package qual describes qualifier hierarchies: the lattices of type
// qualifiers, like @Interned, that inference assigns to type positions.
package qual

import (
	"github.com/cottand/qualinfer/frontend/ast"
)

// Hierarchy is what a qualifier plugin supplies to the generic engine.
//
// Qualifiers are identified by annotation name; element values are
// ignored by every judgement.
type Hierarchy interface {
	Name() string
	// Qualifiers are the real qualifiers of the hierarchy, sorted by name
	Qualifiers() []ast.Annotation
	Top() ast.Annotation
	Bottom() ast.Annotation
	// Default is the qualifier of a position nothing was written on
	Default() ast.Annotation
	IsSubtype(sub, super ast.Annotation) bool
	// Annotates reports whether positions of the shape of t carry a qualifier
	Annotates(t ast.Type) bool
	// IsValid reports whether a is one of the real qualifiers of the hierarchy
	IsValid(a ast.Annotation) bool
}

// Effective returns the primary qualifier of t in h, if any
func Effective(h Hierarchy, t ast.Type) (ast.Annotation, bool) {
	return t.Annotations().Find(h.IsValid)
}

// Comparable is true when one of a or b is below the other
func Comparable(h Hierarchy, a, b ast.Annotation) bool {
	return h.IsSubtype(a, b) || h.IsSubtype(b, a)
}
