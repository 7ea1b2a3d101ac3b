package ast

import (
	"strings"
)

// TypeKind distinguishes the shapes a Type can take
type TypeKind int

const (
	KindDeclared TypeKind = iota
	KindPrimitive
	KindArray
	KindTypeVar
	KindWildcard
	KindNull
)

func (k TypeKind) String() string {
	switch k {
	case KindDeclared:
		return "declared"
	case KindPrimitive:
		return "primitive"
	case KindArray:
		return "array"
	case KindTypeVar:
		return "typevar"
	case KindWildcard:
		return "wildcard"
	case KindNull:
		return "null"
	}
	return "unknown"
}

// ObjectName is the root of the class hierarchy
const ObjectName = "Object"

// Type is a fully elaborated type occurrence. Every occurrence owns its
// primary annotations, so two occurrences of the same class are different
// Type values and are annotated independently.
//
// Types are pointers and may form cycles through type variable bounds,
// so identity (==) is what tells two occurrences apart.
type Type interface {
	Kind() TypeKind
	// Annotations are the primary annotations of this occurrence
	Annotations() *Annotations
	// Erased is the name of the underlying unannotated type
	Erased() string
	String() string
	isType()
}

var (
	_ Type = (*Declared)(nil)
	_ Type = (*Primitive)(nil)
	_ Type = (*Array)(nil)
	_ Type = (*TypeVar)(nil)
	_ Type = (*Wildcard)(nil)
	_ Type = (*Null)(nil)
)

type annotated struct {
	annos Annotations
}

func (a *annotated) Annotations() *Annotations { return &a.annos }
func (a *annotated) isType()                   {}

// Declared is a class type, possibly applied to type arguments
type Declared struct {
	annotated
	Name     string
	TypeArgs []Type
}

func NewDeclared(name string, args ...Type) *Declared {
	return &Declared{Name: name, TypeArgs: args}
}

func (t *Declared) Kind() TypeKind { return KindDeclared }
func (t *Declared) Erased() string { return t.Name }
func (t *Declared) String() string {
	sb := strings.Builder{}
	sb.WriteString(t.annos.String())
	sb.WriteString(t.Name)
	if len(t.TypeArgs) > 0 {
		sb.WriteString("<")
		for i, arg := range t.TypeArgs {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(arg.String())
		}
		sb.WriteString(">")
	}
	return sb.String()
}

type Primitive struct {
	annotated
	Name string
}

func NewPrimitive(name string) *Primitive {
	return &Primitive{Name: name}
}

func (t *Primitive) Kind() TypeKind { return KindPrimitive }
func (t *Primitive) Erased() string { return t.Name }
func (t *Primitive) String() string { return t.annos.String() + t.Name }

type Array struct {
	annotated
	Component Type
}

func NewArray(component Type) *Array {
	return &Array{Component: component}
}

func (t *Array) Kind() TypeKind { return KindArray }
func (t *Array) Erased() string { return t.Component.Erased() + "[]" }
func (t *Array) String() string {
	// java syntax puts the array annotations before the brackets
	return t.Component.String() + " " + t.annos.String() + "[]"
}

// TypeParam is the declaration of a type variable, shared by all its uses
type TypeParam struct {
	Position
	Name  string
	Upper Type
	Lower Type
}

// TypeVar is one use of a TypeParam.
//
// When Upper or Lower are nil, the bounds of the declaration apply.
type TypeVar struct {
	annotated
	Param *TypeParam
	Upper Type
	Lower Type
}

func NewTypeVar(param *TypeParam) *TypeVar {
	return &TypeVar{Param: param}
}

func (t *TypeVar) Kind() TypeKind { return KindTypeVar }
func (t *TypeVar) Name() string {
	if t.Param == nil {
		return "?"
	}
	return t.Param.Name
}

func (t *TypeVar) UpperBound() Type {
	if t.Upper != nil {
		return t.Upper
	}
	if t.Param != nil {
		return t.Param.Upper
	}
	return nil
}

func (t *TypeVar) LowerBound() Type {
	if t.Lower != nil {
		return t.Lower
	}
	if t.Param != nil {
		return t.Param.Lower
	}
	return nil
}

func (t *TypeVar) Erased() string {
	seen := map[*TypeVar]bool{}
	var current Type = t
	for {
		tv, ok := current.(*TypeVar)
		if !ok {
			break
		}
		if seen[tv] || tv.UpperBound() == nil {
			return ObjectName
		}
		seen[tv] = true
		current = tv.UpperBound()
	}
	return current.Erased()
}

// String does not print the bounds, which may refer back to t
func (t *TypeVar) String() string { return t.annos.String() + t.Name() }

type Wildcard struct {
	annotated
	Extends Type
	Super   Type
}

func (t *Wildcard) Kind() TypeKind { return KindWildcard }
func (t *Wildcard) Erased() string {
	if t.Extends == nil {
		return ObjectName
	}
	return t.Extends.Erased()
}
func (t *Wildcard) String() string {
	s := t.annos.String() + "?"
	if t.Extends != nil && t.Extends.Erased() != ObjectName {
		s += " extends " + t.Extends.String()
	}
	if t.Super != nil && t.Super.Kind() != KindNull {
		s += " super " + t.Super.String()
	}
	return s
}

// Null is the type of the null literal, and the default lower bound of type variables
type Null struct {
	annotated
}

func (t *Null) Kind() TypeKind { return KindNull }
func (t *Null) Erased() string { return "null" }
func (t *Null) String() string { return t.annos.String() + "null" }

// IsReference is true for every type that is not a primitive
func IsReference(t Type) bool {
	return t.Kind() != KindPrimitive
}
