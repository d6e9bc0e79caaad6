package codec

import (
	"fmt"

	mappable "github.com/mappable-go/mappable"
	"github.com/mappable-go/mappable/typeid"
)

// Slice returns a mapper for []T that recurses per element through the
// owning container with static element type T. It declares T as its single
// generic argument, so call sites with a mismatched argument count fall back
// to the declared list.
func Slice[T any](id string) mappable.Mapper {
	return sliceMapper[T]{Base: mappable.NewBase[[]T](id)}
}

type sliceMapper[T any] struct {
	mappable.Base
}

func (m sliceMapper[T]) Args() []typeid.Desc {
	return []typeid.Desc{typeid.Of[T]()}
}

func (m sliceMapper[T]) Encode(v any, ctx mappable.EncodingContext) (any, error) {
	s, ok := v.([]T)
	if !ok {
		return nil, fmt.Errorf("expected []%s, got %T", typeid.Of[T](), v)
	}
	out := make([]any, len(s))
	for i, ev := range s {
		tv, err := encodeElem(ctx, ev)
		if err != nil {
			return nil, err
		}
		out[i] = tv
	}
	return out, nil
}

func (m sliceMapper[T]) Decode(v any, ctx mappable.DecodingContext) (any, error) {
	seq, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected []any, got %T", v)
	}
	out := make([]T, len(seq))
	for i, ev := range seq {
		dv, err := mappable.FromValue[T](ctx.Container(), ev)
		if err != nil {
			return nil, err
		}
		out[i] = dv
	}
	return out, nil
}

// MapOf returns a mapper for map[string]V, recursing per entry value with
// static type V.
func MapOf[V any](id string) mappable.Mapper {
	return mapOfMapper[V]{Base: mappable.NewBase[map[string]V](id)}
}

type mapOfMapper[V any] struct {
	mappable.Base
}

func (m mapOfMapper[V]) Args() []typeid.Desc {
	return []typeid.Desc{typeid.Of[V]()}
}

func (m mapOfMapper[V]) Encode(v any, ctx mappable.EncodingContext) (any, error) {
	src, ok := v.(map[string]V)
	if !ok {
		return nil, fmt.Errorf("expected map[string]%s, got %T", typeid.Of[V](), v)
	}
	out := make(map[string]any, len(src))
	for k, ev := range src {
		tv, err := encodeElem(ctx, ev)
		if err != nil {
			return nil, err
		}
		out[k] = tv
	}
	return out, nil
}

func (m mapOfMapper[V]) Decode(v any, ctx mappable.DecodingContext) (any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected map[string]any, got %T", v)
	}
	out := make(map[string]V, len(obj))
	for k, ev := range obj {
		dv, err := mappable.FromValue[V](ctx.Container(), ev)
		if err != nil {
			return nil, err
		}
		out[k] = dv
	}
	return out, nil
}

// encodeElem encodes one collection element with its static type, forwarding
// options only when the caller opted into inheritance.
func encodeElem[T any](ctx mappable.EncodingContext, v T) (any, error) {
	if opts := ctx.Options(); opts != nil {
		return mappable.ToValue(ctx.Container(), v, *opts)
	}
	return mappable.ToValue(ctx.Container(), v)
}
