package mappable

import (
	"fmt"
	"reflect"

	"github.com/mappable-go/mappable/typeid"
)

// ToValue encodes v into the generic tree representation (map[string]any,
// []any, scalars, nil). The statically requested type T participates in the
// discriminator policy: by default an id is embedded exactly when v's dynamic
// type differs from T.
func ToValue[T any](c *Container, v T, opts ...EncodeOptions) (any, error) {
	return ToValueDesc(c, v, typeid.Of[T](), opts...)
}

// ToValueDesc is ToValue with an explicit type descriptor supplying the
// generic-argument list of the requested type. ToValue passes a bare
// descriptor; parameterized mappers then fall back to their declared
// arguments (see computeArgs).
func ToValueDesc[T any](c *Container, v T, desc typeid.Desc, opts ...EncodeOptions) (any, error) {
	var av any = v
	if isNil(av) {
		return nil, nil
	}
	var opt *EncodeOptions
	if len(opts) > 0 {
		opt = &opts[len(opts)-1]
	}
	return c.encodeValue(av, reflect.TypeFor[T](), desc, opt)
}

// encodeValue runs the encoding pipeline for a value whose statically
// requested type is static. Nested mapper calls recurse through here via
// EncodingContext.
func (c *Container) encodeValue(v any, static reflect.Type, desc typeid.Desc, opt *EncodeOptions) (any, error) {
	m, ok := c.mapperForValue(v)
	if !ok {
		return nil, newErr(MethodEncode, CodeUnknownType, typeHint(v))
	}

	include := includePolicy(m, static, v)
	if opt != nil && opt.IncludeTypeID != nil {
		include = *opt.IncludeTypeID
	}

	args := computeArgs(desc.Args, m)
	out, err := m.Encode(v, newEncodingContext(c, args, opt))
	if err != nil {
		return nil, chain(MethodEncode, func() string { return typeHint(v) }, err)
	}

	if include {
		if obj, isMap := out.(map[string]any); isMap {
			obj[TypeKey] = c.dynamicID(m, v)
		}
	}
	return out, nil
}

// includePolicy consults the mapper's discriminator override when present,
// otherwise applies the general "dynamic differs from static" rule.
func includePolicy(m Mapper, static reflect.Type, v any) bool {
	if d, ok := m.(Discriminated); ok {
		return d.IncludeTypeID(static, v)
	}
	return reflect.TypeOf(v) != static
}

// dynamicID returns the string id of v's dynamic runtime type. The refined
// mapper usually is that type's mapper; when a family mapper matched via
// IsFor without a dedicated sub-mapper, the typeid registry is consulted
// before settling for the family id.
func (c *Container) dynamicID(m Mapper, v any) string {
	dt := reflect.TypeOf(v)
	if m.Type() == dt {
		return m.ID()
	}
	if id, ok := typeid.DefaultRegistry().IDOf(dt); ok {
		return id
	}
	return m.ID()
}

// computeArgs produces the type-argument list handed to a mapper: the
// requested arguments with unresolved entries replaced by typeid.Any, unless
// the count does not match the mapper's declared arity, in which case the
// mapper's own declared list wins entirely. The fallback is deliberate and
// documented; it absorbs call-site arity mismatches rather than failing.
func computeArgs(requested []typeid.Desc, m Mapper) []typeid.Desc {
	p, parameterized := m.(Parameterized)
	if !parameterized {
		return nil
	}
	declared := p.Args()
	if len(requested) != len(declared) {
		return declared
	}
	out := make([]typeid.Desc, len(requested))
	for i, a := range requested {
		if a.IsZero() {
			a = typeid.Any
		}
		out[i] = a
	}
	return out
}

// FromValue decodes a tree value into T. A "__type" discriminator on an
// object input selects the concrete type; otherwise an input that already
// satisfies T is returned as-is, and T itself is the decode target.
func FromValue[T any](c *Container, v any) (T, error) {
	return FromValueDesc[T](c, v, typeid.Of[T]())
}

// FromValueDesc is FromValue with an explicit descriptor for the requested
// type's generic arguments.
func FromValueDesc[T any](c *Container, v any, desc typeid.Desc) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	requested := reflect.TypeFor[T]()

	effective := requested
	if obj, isMap := v.(map[string]any); isMap {
		if tag, tagged := obj[TypeKey].(string); tagged {
			t, ok := c.typeOf(tag)
			if !ok {
				return zero, newErr(MethodDecode, CodeUnresolvedType, requested.String()+" (id "+tag+")")
			}
			effective = t
		} else if tv, ok := v.(T); ok {
			return tv, nil
		}
	} else if tv, ok := v.(T); ok {
		return tv, nil
	}

	out, err := c.decodeValue(v, effective, desc)
	if err != nil {
		return zero, err
	}
	tv, ok := out.(T)
	if !ok {
		return zero, newErr(MethodDecode, CodeMapperFailure,
			fmt.Sprintf("%s (mapper returned %s)", effective, typeHint(out)))
	}
	return tv, nil
}

// decodeValue runs the decoding pipeline for an effective target type.
func (c *Container) decodeValue(v any, effective reflect.Type, desc typeid.Desc) (any, error) {
	m, ok := c.mapperForType(effective)
	if !ok {
		return nil, newErr(MethodDecode, CodeUnknownType, effective.String())
	}
	out, err := m.Decode(v, newDecodingContext(c, computeArgs(desc.Args, m)))
	if err != nil {
		return nil, chain(MethodDecode, func() string { return effective.String() }, err)
	}
	return out, nil
}

// ---- typed narrowings ----

// ToMap encodes v and narrows the result to an object, failing with
// incorrect_encoding for any other tree shape.
func ToMap[T any](c *Container, v T, opts ...EncodeOptions) (map[string]any, error) {
	out, err := ToValue(c, v, opts...)
	if err != nil {
		return nil, err
	}
	obj, ok := out.(map[string]any)
	if !ok {
		return nil, newErr(MethodEncode, CodeIncorrectEncoding, typeHint(out))
	}
	return obj, nil
}

// FromMap decodes an object tree value into T.
func FromMap[T any](c *Container, obj map[string]any) (T, error) {
	return FromValue[T](c, obj)
}

// ToSlice encodes v and narrows the result to a sequence, failing with
// incorrect_encoding for any other tree shape.
func ToSlice[T any](c *Container, v T, opts ...EncodeOptions) ([]any, error) {
	out, err := ToValue(c, v, opts...)
	if err != nil {
		return nil, err
	}
	seq, ok := out.([]any)
	if !ok {
		return nil, newErr(MethodEncode, CodeIncorrectEncoding, typeHint(out))
	}
	return seq, nil
}

// FromSlice decodes a sequence tree value into T.
func FromSlice[T any](c *Container, seq []any) (T, error) {
	return FromValue[T](c, seq)
}

// ---- helpers ----

// typeHint is the short rendering used in error hints.
func typeHint(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}

// isNil reports whether v is nil or a typed nil pointer/map/slice, which
// encode to the null tree value.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
