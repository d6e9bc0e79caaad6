package mappable

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/mappable-go/mappable/typeid"
)

// Mapper is the capability every registered codec implements: it converts
// values of one base type to and from the generic tree representation.
//
// Exactly one mapper may be registered per base type per container; the id
// must be unique within a container's closure because it is what the
// "__type" discriminator carries on the wire.
type Mapper interface {
	// ID returns the stable string id of the governed type.
	ID() string
	// Type returns the base type this mapper is registered under.
	Type() reflect.Type
	// Decode converts a tree value into the governed type.
	Decode(v any, ctx DecodingContext) (any, error)
	// Encode converts a value of the governed type into a tree value.
	Encode(v any, ctx EncodingContext) (any, error)
	// IsFor reports whether this mapper can encode v even when v's dynamic
	// type is not the mapper's exact declared type (subtype support for
	// polymorphic families).
	IsFor(v any) bool
}

// Optional mapper capabilities, detected with type assertions. A mapper that
// does not implement one gets the container's native fallback (equality,
// hash, stringify) or the default policy (discriminator).

// EqualityMapper customizes value equality for the governed type.
type EqualityMapper interface {
	Equals(a, b any, ctx MappingContext) (bool, error)
}

// HashMapper customizes hashing for the governed type.
type HashMapper interface {
	Hash(v any, ctx MappingContext) (uint64, error)
}

// StringifyMapper customizes the string rendering of the governed type.
type StringifyMapper interface {
	Stringify(v any, ctx MappingContext) (string, error)
}

// Discriminated overrides the discriminator policy. The general rule is
// "embed an id when the dynamic type of the value differs from the
// statically requested type"; a mapper may force always or never instead.
type Discriminated interface {
	IncludeTypeID(static reflect.Type, v any) bool
}

// Refinable marks a mapper for a polymorphic family that can resolve to the
// most specific sub-mapper for a concrete value. SubOrSelfFor returns the
// dedicated sub-mapper when one matches, the receiver otherwise.
type Refinable interface {
	SubOrSelfFor(v any) Mapper
}

// Parameterized declares a mapper's generic arguments. When a call site's
// requested argument count does not match this arity, the declared list wins
// (see ToValue).
type Parameterized interface {
	Args() []typeid.Desc
}

// Base carries the identity shared by most mapper implementations and
// provides the default discriminator policy. Embed it and implement
// Decode/Encode on the outer type.
type Base struct {
	MapperID   string
	MapperType reflect.Type
}

// NewBase returns a Base for T under the given id.
func NewBase[T any](id string) Base {
	return Base{MapperID: id, MapperType: reflect.TypeFor[T]()}
}

func (b Base) ID() string         { return b.MapperID }
func (b Base) Type() reflect.Type { return b.MapperType }

// IsFor matches the exact declared type and its pointer form.
func (b Base) IsFor(v any) bool {
	t := reflect.TypeOf(v)
	return t == b.MapperType || (t != nil && t.Kind() == reflect.Pointer && t.Elem() == b.MapperType)
}

// IncludeTypeID implements the general policy: a discriminator is needed
// exactly when the dynamic type is not the statically requested one.
func (b Base) IncludeTypeID(static reflect.Type, v any) bool {
	return reflect.TypeOf(v) != static
}

func (b Base) String() string {
	return fmt.Sprintf("Mapper[%s](%s)", b.MapperType, b.MapperID)
}

// ---- native fallbacks (shared by Container and by mappers that want the
// default behavior for one of the optional capabilities) ----

// nativeEqual is the platform-default equality used for unmapped types.
func nativeEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta.Comparable() && tb.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// nativeHash hashes arbitrary values structurally via hashstructure. It
// degrades to a string-format hash for values hashstructure rejects.
func nativeHash(v any) uint64 {
	h, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
	if err != nil {
		h, _ = hashstructure.Hash(fmt.Sprintf("%#v", v), hashstructure.FormatV2, nil)
	}
	return h
}

// nativeString is the platform-default string conversion.
func nativeString(v any) string {
	return fmt.Sprintf("%v", v)
}
