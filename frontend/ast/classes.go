package ast

import (
	"strings"

	"github.com/hashicorp/go-set/v3"
)

// Classes is the table of declared classes and their direct supertypes,
// used for judgements over unannotated (erased) types
type Classes struct {
	supers map[string][]string
}

var boxes = map[string]string{
	"boolean": "Boolean",
	"byte":    "Byte",
	"char":    "Character",
	"short":   "Short",
	"int":     "Integer",
	"long":    "Long",
	"float":   "Float",
	"double":  "Double",
}

// BoxedName returns the reference type name of a primitive
func BoxedName(primitive string) (string, bool) {
	name, ok := boxes[primitive]
	return name, ok
}

func NewClasses() *Classes {
	c := &Classes{supers: make(map[string][]string)}
	c.Declare("String", ObjectName)
	for _, boxed := range boxes {
		c.Declare(boxed, ObjectName)
	}
	return c
}

// Declare records the direct supertypes of a class.
// A class without supertypes extends Object.
func (c *Classes) Declare(name string, supers ...string) {
	if name == ObjectName {
		return
	}
	if len(supers) == 0 {
		supers = []string{ObjectName}
	}
	c.supers[name] = supers
}

func (c *Classes) IsDeclared(name string) bool {
	_, ok := c.supers[name]
	return ok || name == ObjectName
}

// IsSubclass reports whether the erased type sub is a subtype of the erased type super
func (c *Classes) IsSubclass(sub, super string) bool {
	if sub == super || super == ObjectName {
		return true
	}
	if sub == "null" {
		return !isPrimitiveName(super)
	}
	if strings.HasSuffix(sub, "[]") {
		if !strings.HasSuffix(super, "[]") {
			return false
		}
		return c.IsSubclass(strings.TrimSuffix(sub, "[]"), strings.TrimSuffix(super, "[]"))
	}
	visited := set.New[string](4)
	queue := []string{sub}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if !visited.Insert(current) {
			continue
		}
		if current == super {
			return true
		}
		queue = append(queue, c.supers[current]...)
	}
	return false
}

func isPrimitiveName(name string) bool {
	_, ok := boxes[name]
	return ok
}

// AsSuper views t as its supertype super, keeping the primary annotations of t.
// When t is not a declared type, a copy of t is returned unchanged.
func AsSuper(t Type, super string) Type {
	declared, ok := t.(*Declared)
	if !ok || declared.Name == super {
		return Copy(t)
	}
	widened := NewDeclared(super)
	for _, a := range declared.annos.list {
		widened.annos.Replace(a)
	}
	return widened
}
