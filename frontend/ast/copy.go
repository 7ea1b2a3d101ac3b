package ast

import (
	"iter"
)

// Copy returns a deep copy of t, annotations included.
// Sharing and cycles among the occurrences reachable from t are preserved.
func Copy(t Type) Type {
	return copyWith(t, make(map[Type]Type), nil)
}

// Substitute returns a copy of t where every use of a TypeParam in subst
// is replaced by a copy of the mapped type. Primary annotations written on
// the use win over those of the replacement.
func Substitute(t Type, subst map[*TypeParam]Type) Type {
	return copyWith(t, make(map[Type]Type), subst)
}

func copyWith(t Type, memo map[Type]Type, subst map[*TypeParam]Type) Type {
	if t == nil {
		return nil
	}
	if done, ok := memo[t]; ok {
		return done
	}
	switch t := t.(type) {
	case *Declared:
		c := &Declared{Name: t.Name}
		memo[t] = c
		c.annos.list = t.annos.All()
		for _, arg := range t.TypeArgs {
			c.TypeArgs = append(c.TypeArgs, copyWith(arg, memo, subst))
		}
		return c
	case *Primitive:
		c := &Primitive{Name: t.Name}
		c.annos.list = t.annos.All()
		memo[t] = c
		return c
	case *Array:
		c := &Array{}
		memo[t] = c
		c.annos.list = t.annos.All()
		c.Component = copyWith(t.Component, memo, subst)
		return c
	case *TypeVar:
		if replacement, ok := subst[t.Param]; ok && replacement != nil {
			c := Copy(replacement)
			for _, a := range t.annos.list {
				c.Annotations().Replace(a)
			}
			memo[t] = c
			return c
		}
		c := &TypeVar{Param: t.Param}
		memo[t] = c
		c.annos.list = t.annos.All()
		c.Upper = copyWith(t.UpperBound(), memo, subst)
		c.Lower = copyWith(t.LowerBound(), memo, subst)
		return c
	case *Wildcard:
		c := &Wildcard{}
		memo[t] = c
		c.annos.list = t.annos.All()
		c.Extends = copyWith(t.Extends, memo, subst)
		c.Super = copyWith(t.Super, memo, subst)
		return c
	case *Null:
		c := &Null{}
		c.annos.list = t.annos.All()
		memo[t] = c
		return c
	}
	panic("unexpected type in copy")
}

// Children yields the occurrences directly nested in t:
// type arguments, the array component, or the bounds of a type variable or wildcard
func Children(t Type) iter.Seq[Type] {
	return func(yield func(Type) bool) {
		var children []Type
		switch t := t.(type) {
		case *Declared:
			children = t.TypeArgs
		case *Array:
			children = []Type{t.Component}
		case *TypeVar:
			children = []Type{t.UpperBound(), t.LowerBound()}
		case *Wildcard:
			children = []Type{t.Extends, t.Super}
		}
		for _, child := range children {
			if child == nil {
				continue
			}
			if !yield(child) {
				return
			}
		}
	}
}

// Walk visits every occurrence reachable from t once, in depth-first pre-order
func Walk(t Type, visit func(Type)) {
	seen := make(map[Type]bool)
	var rec func(Type)
	rec = func(t Type) {
		if t == nil || seen[t] {
			return
		}
		seen[t] = true
		visit(t)
		for child := range Children(t) {
			rec(child)
		}
	}
	rec(t)
}

// Zip walks two structurally similar types side by side, calling visit for
// each pair of corresponding positions. It stops descending where the shapes differ.
func Zip(a, b Type, visit func(a, b Type)) {
	seen := make(map[[2]Type]bool)
	var rec func(a, b Type)
	rec = func(a, b Type) {
		if a == nil || b == nil || seen[[2]Type{a, b}] {
			return
		}
		seen[[2]Type{a, b}] = true
		visit(a, b)
		if a.Kind() != b.Kind() {
			return
		}
		var as, bs []Type
		for c := range Children(a) {
			as = append(as, c)
		}
		for c := range Children(b) {
			bs = append(bs, c)
		}
		if len(as) != len(bs) {
			return
		}
		for i := range as {
			rec(as[i], bs[i])
		}
	}
	rec(a, b)
}

// Shallow copies the top occurrence of t with its annotations, sharing
// every nested occurrence with t
func Shallow(t Type) Type {
	switch t := t.(type) {
	case *Declared:
		c := &Declared{Name: t.Name, TypeArgs: t.TypeArgs}
		c.annos.list = t.annos.All()
		return c
	case *Primitive:
		c := &Primitive{Name: t.Name}
		c.annos.list = t.annos.All()
		return c
	case *Array:
		c := &Array{Component: t.Component}
		c.annos.list = t.annos.All()
		return c
	case *TypeVar:
		c := &TypeVar{Param: t.Param, Upper: t.Upper, Lower: t.Lower}
		c.annos.list = t.annos.All()
		return c
	case *Wildcard:
		c := &Wildcard{Extends: t.Extends, Super: t.Super}
		c.annos.list = t.annos.All()
		return c
	case *Null:
		c := &Null{}
		c.annos.list = t.annos.All()
		return c
	}
	return nil
}

// Primary is the occurrence holding the qualifier of t: type variables
// and wildcards carry theirs on the upper bound
func Primary(t Type) Type {
	seen := make(map[Type]bool)
	for t != nil && !seen[t] {
		seen[t] = true
		switch tt := t.(type) {
		case *TypeVar:
			if tt.UpperBound() == nil {
				return t
			}
			t = tt.UpperBound()
		case *Wildcard:
			if tt.Extends == nil {
				return t
			}
			t = tt.Extends
		default:
			return t
		}
	}
	return t
}
