package mappable

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// builtinMappers returns the mapper set of the default root container:
// scalars, raw collections, and byte slices. Dedicated codecs (time, uuid,
// typed collections) live in the codec subpackage.
func builtinMappers() []Mapper {
	return []Mapper{
		Scalar[string]("string"),
		Scalar[bool]("bool"),
		Scalar[int]("int"),
		Scalar[int8]("int8"),
		Scalar[int16]("int16"),
		Scalar[int32]("int32"),
		Scalar[int64]("int64"),
		Scalar[uint]("uint"),
		Scalar[uint8]("uint8"),
		Scalar[uint16]("uint16"),
		Scalar[uint32]("uint32"),
		Scalar[uint64]("uint64"),
		Scalar[float32]("float32"),
		Scalar[float64]("float64"),
		numberMapper{Base: NewBase[json.Number]("number")},
		bytesMapper{Base: NewBase[[]byte]("bytes")},
		listMapper{Base: NewBase[[]any]("list")},
		mapMapper{Base: NewBase[map[string]any]("map")},
	}
}

// Scalar returns the mapper for a scalar base type T. It also encodes named
// types of the same kind (e.g. a `type Age int` goes through the int mapper),
// converting to T on the way out. Scalars are tree values themselves, so no
// discriminator is ever embedded.
func Scalar[T any](id string) Mapper {
	return scalarMapper[T]{Base: NewBase[T](id)}
}

type scalarMapper[T any] struct {
	Base
}

func (m scalarMapper[T]) IsFor(v any) bool {
	t := reflect.TypeOf(v)
	return t != nil && t.Kind() == m.MapperType.Kind()
}

func (m scalarMapper[T]) IncludeTypeID(static reflect.Type, v any) bool { return false }

func (m scalarMapper[T]) Encode(v any, ctx EncodingContext) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Type() == m.MapperType {
		return v, nil
	}
	return rv.Convert(m.MapperType).Interface(), nil
}

func (m scalarMapper[T]) Decode(v any, ctx DecodingContext) (any, error) {
	return decodeScalar(m.MapperType, v)
}

// decodeScalar coerces a tree scalar into the target type. Numeric targets
// accept any numeric tree form including json.Number; kind classes are never
// crossed (no string-to-int coercion).
func decodeScalar(target reflect.Type, v any) (any, error) {
	if n, ok := v.(json.Number); ok {
		out := reflect.New(target).Elem()
		switch target.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			i, err := strconv.ParseInt(string(n), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid integer %q: %w", string(n), err)
			}
			if out.OverflowInt(i) {
				return nil, fmt.Errorf("integer %q overflows %s", string(n), target)
			}
			out.SetInt(i)
			return out.Interface(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			u, err := strconv.ParseUint(string(n), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid integer %q: %w", string(n), err)
			}
			if out.OverflowUint(u) {
				return nil, fmt.Errorf("integer %q overflows %s", string(n), target)
			}
			out.SetUint(u)
			return out.Interface(), nil
		case reflect.Float32, reflect.Float64:
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("invalid number %q: %w", string(n), err)
			}
			out.SetFloat(f)
			return out.Interface(), nil
		}
	}
	rv := reflect.ValueOf(v)
	if rv.IsValid() && sameKindClass(target.Kind(), rv.Kind()) && rv.Type().ConvertibleTo(target) {
		return rv.Convert(target).Interface(), nil
	}
	return nil, fmt.Errorf("cannot decode %s into %s", typeHint(v), target)
}

func sameKindClass(a, b reflect.Kind) bool {
	return kindClass(a) != 0 && kindClass(a) == kindClass(b)
}

func kindClass(k reflect.Kind) int {
	switch k {
	case reflect.String:
		return 1
	case reflect.Bool:
		return 2
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return 3
	default:
		return 0
	}
}

// numberMapper keeps json.Number values lossless in both directions.
type numberMapper struct {
	Base
}

func (m numberMapper) IncludeTypeID(static reflect.Type, v any) bool { return false }

func (m numberMapper) Encode(v any, ctx EncodingContext) (any, error) {
	return v, nil
}

func (m numberMapper) Decode(v any, ctx DecodingContext) (any, error) {
	switch n := v.(type) {
	case json.Number:
		return n, nil
	case float64:
		return json.Number(strconv.FormatFloat(n, 'g', -1, 64)), nil
	case int:
		return json.Number(strconv.Itoa(n)), nil
	case int64:
		return json.Number(strconv.FormatInt(n, 10)), nil
	default:
		return nil, fmt.Errorf("cannot decode %s into json.Number", typeHint(v))
	}
}

// bytesMapper renders []byte as a base64 string, matching encoding/json.
type bytesMapper struct {
	Base
}

func (m bytesMapper) IncludeTypeID(static reflect.Type, v any) bool { return false }

func (m bytesMapper) Encode(v any, ctx EncodingContext) (any, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("cannot encode %s as bytes", typeHint(v))
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (m bytesMapper) Decode(v any, ctx DecodingContext) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("cannot decode %s into []byte", typeHint(v))
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return b, nil
}

// listMapper handles []any exactly and any other slice or array via IsFor,
// recursing per element through the owning container.
type listMapper struct {
	Base
}

func (m listMapper) IsFor(v any) bool {
	t := reflect.TypeOf(v)
	if t == nil {
		return false
	}
	return t.Kind() == reflect.Slice || t.Kind() == reflect.Array
}

func (m listMapper) IncludeTypeID(static reflect.Type, v any) bool { return false }

func (m listMapper) Encode(v any, ctx EncodingContext) (any, error) {
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		ev, err := encodeNested(ctx, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out[i] = ev
	}
	return out, nil
}

func (m listMapper) Decode(v any, ctx DecodingContext) (any, error) {
	seq, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("cannot decode %s into []any", typeHint(v))
	}
	out := make([]any, len(seq))
	for i, ev := range seq {
		dv, err := FromValue[any](ctx.Container(), ev)
		if err != nil {
			return nil, err
		}
		out[i] = dv
	}
	return out, nil
}

// mapMapper handles map[string]any exactly and any string-keyed map via
// IsFor. It always allocates a fresh map so discriminator injection never
// mutates caller data.
type mapMapper struct {
	Base
}

func (m mapMapper) IsFor(v any) bool {
	t := reflect.TypeOf(v)
	return t != nil && t.Kind() == reflect.Map && t.Key().Kind() == reflect.String
}

func (m mapMapper) IncludeTypeID(static reflect.Type, v any) bool { return false }

func (m mapMapper) Encode(v any, ctx EncodingContext) (any, error) {
	rv := reflect.ValueOf(v)
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		ev, err := encodeNested(ctx, iter.Value().Interface())
		if err != nil {
			return nil, err
		}
		out[iter.Key().String()] = ev
	}
	return out, nil
}

func (m mapMapper) Decode(v any, ctx DecodingContext) (any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot decode %s into map[string]any", typeHint(v))
	}
	out := make(map[string]any, len(obj))
	for k, ev := range obj {
		dv, err := FromValue[any](ctx.Container(), ev)
		if err != nil {
			return nil, err
		}
		out[k] = dv
	}
	return out, nil
}

// encodeNested encodes a collection element with static type any, forwarding
// the caller's options only when InheritOptions was set.
func encodeNested(ctx EncodingContext, v any) (any, error) {
	if opts := ctx.Options(); opts != nil {
		return ToValue[any](ctx.Container(), v, *opts)
	}
	return ToValue[any](ctx.Container(), v)
}
