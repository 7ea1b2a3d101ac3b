package ast

import (
	"maps"
	"slices"
	"strings"
)

// Annotation is a qualifier annotation as written on a type position,
// like @Interned or @VarAnnot(value="12").
//
// Annotations are values: two annotations with the same name and element
// values are interchangeable.
type Annotation struct {
	Name string
	// Values may be nil for annotations without elements
	Values map[string]string
}

func NewAnnotation(name string) Annotation {
	return Annotation{Name: name}
}

// WithValue returns a copy of a with the element key set to value
func (a Annotation) WithValue(key, value string) Annotation {
	values := make(map[string]string, len(a.Values)+1)
	maps.Copy(values, a.Values)
	values[key] = value
	return Annotation{Name: a.Name, Values: values}
}

func (a Annotation) Value(key string) (string, bool) {
	v, ok := a.Values[key]
	return v, ok
}

func (a Annotation) IsZero() bool {
	return a.Name == ""
}

func (a Annotation) Equal(other Annotation) bool {
	return a.Name == other.Name && maps.Equal(a.Values, other.Values)
}

func (a Annotation) String() string {
	if len(a.Values) == 0 {
		return "@" + a.Name
	}
	keys := slices.Sorted(maps.Keys(a.Values))
	sb := strings.Builder{}
	sb.WriteString("@")
	sb.WriteString(a.Name)
	sb.WriteString("(")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteString("=\"")
		sb.WriteString(a.Values[k])
		sb.WriteString("\"")
	}
	sb.WriteString(")")
	return sb.String()
}

// Annotations is the mutable set of annotations on one type position,
// keyed by annotation name
type Annotations struct {
	list []Annotation
}

func (as *Annotations) All() []Annotation {
	return slices.Clone(as.list)
}

func (as *Annotations) Len() int {
	return len(as.list)
}

func (as *Annotations) IsEmpty() bool {
	return len(as.list) == 0
}

// Get returns the annotation with the given name
func (as *Annotations) Get(name string) (Annotation, bool) {
	for _, a := range as.list {
		if a.Name == name {
			return a, true
		}
	}
	return Annotation{}, false
}

// Find returns the first annotation matching pred
func (as *Annotations) Find(pred func(Annotation) bool) (Annotation, bool) {
	for _, a := range as.list {
		if pred(a) {
			return a, true
		}
	}
	return Annotation{}, false
}

func (as *Annotations) Has(a Annotation) bool {
	return slices.ContainsFunc(as.list, a.Equal)
}

// Replace adds a, replacing any annotation with the same name
func (as *Annotations) Replace(a Annotation) {
	for i, existing := range as.list {
		if existing.Name == a.Name {
			as.list[i] = a
			return
		}
	}
	as.list = append(as.list, a)
}

// RemoveIf drops every annotation matching pred
func (as *Annotations) RemoveIf(pred func(Annotation) bool) {
	as.list = slices.DeleteFunc(as.list, pred)
}

func (as *Annotations) Clear() {
	as.list = nil
}

func (as *Annotations) String() string {
	if len(as.list) == 0 {
		return ""
	}
	parts := make([]string, 0, len(as.list))
	for _, a := range as.list {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, " ") + " "
}
