// Package typeid supplies type identity for the mapper container: explicit
// type descriptors (base type plus ordered generic arguments) and a registry
// mapping types to stable string ids.
//
// Descriptors replace any reliance on reflecting generic instantiations:
// every encode/decode call carries its type arguments explicitly, so generic
// dispatch is keyed off the descriptor rather than inferred.
package typeid

import (
	"reflect"
	"strings"
)

// Desc identifies a type: its base (generic-argument-stripped) form and the
// ordered argument list. The zero Desc is invalid; use Of or Describe.
type Desc struct {
	Base reflect.Type
	Args []Desc
}

// Any is the descriptor of the empty interface. It substitutes for erased or
// unknown generic arguments.
var Any = Desc{Base: reflect.TypeFor[any]()}

// Of returns the descriptor for T with no explicit arguments.
func Of[T any]() Desc {
	return Desc{Base: reflect.TypeFor[T]()}
}

// Describe returns the descriptor for t with the given arguments.
func Describe(t reflect.Type, args ...Desc) Desc {
	return Desc{Base: t, Args: args}
}

// IsZero reports whether d carries no base type.
func (d Desc) IsZero() bool { return d.Base == nil }

// Arity returns the number of declared arguments.
func (d Desc) Arity() int { return len(d.Args) }

// Arg returns the i-th argument, or Any when the argument is absent or was
// left unresolved.
func (d Desc) Arg(i int) Desc {
	if i < 0 || i >= len(d.Args) || d.Args[i].IsZero() {
		return Any
	}
	return d.Args[i]
}

// Equal reports whether two descriptors name the same base type with the
// same argument list.
func (d Desc) Equal(o Desc) bool {
	if d.Base != o.Base || len(d.Args) != len(o.Args) {
		return false
	}
	for i := range d.Args {
		if !d.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// String renders the descriptor as Base[Arg, ...] for diagnostics.
func (d Desc) String() string {
	if d.Base == nil {
		return "<nil>"
	}
	if len(d.Args) == 0 {
		return d.Base.String()
	}
	b := &strings.Builder{}
	b.WriteString(d.Base.String())
	b.WriteByte('[')
	for i, a := range d.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte(']')
	return b.String()
}

// BaseOf returns the base reflect.Type of v's dynamic type, or nil for an
// untyped nil. Registry keys are exact dynamic types; predicate dispatch
// (Mapper.IsFor) covers pointer and subtype matching.
func BaseOf(v any) reflect.Type {
	return reflect.TypeOf(v)
}
