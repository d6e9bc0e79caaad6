package codec

import (
	mappable "github.com/mappable-go/mappable"
)

// Raw returns an identity mapper for T: values pass through encode and
// decode unchanged. Useful for types that already are tree values, or for
// opting a type out of conversion inside a larger document.
func Raw[T any](id string) mappable.Mapper {
	return rawMapper[T]{Base: mappable.NewBase[T](id)}
}

type rawMapper[T any] struct {
	mappable.Base
}

func (m rawMapper[T]) Decode(v any, ctx mappable.DecodingContext) (any, error) {
	return v, nil
}

func (m rawMapper[T]) Encode(v any, ctx mappable.EncodingContext) (any, error) {
	return v, nil
}
