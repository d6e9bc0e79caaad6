package codec

import (
	"fmt"

	"github.com/google/uuid"

	mappable "github.com/mappable-go/mappable"
)

// UUID returns a mapper that converts between canonical UUID strings and
// uuid.UUID.
func UUID() mappable.Mapper {
	return uuidMapper{Base: mappable.NewBase[uuid.UUID]("uuid")}
}

type uuidMapper struct {
	mappable.Base
}

func (m uuidMapper) Decode(v any, ctx mappable.DecodingContext) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected UUID string, got %T", v)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID %q: %w", s, err)
	}
	return id, nil
}

func (m uuidMapper) Encode(v any, ctx mappable.EncodingContext) (any, error) {
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil, fmt.Errorf("expected uuid.UUID, got %T", v)
	}
	return id.String(), nil
}

func (m uuidMapper) Stringify(v any, ctx mappable.MappingContext) (string, error) {
	id, ok := v.(uuid.UUID)
	if !ok {
		return "", fmt.Errorf("expected uuid.UUID, got %T", v)
	}
	return id.String(), nil
}
