package mappable_test

import (
	"errors"

	mappable "github.com/mappable-go/mappable"
)

var errNotObject = errors.New("expected object")

func asMapperError(err error, target **mappable.Error) bool {
	return errors.As(err, target)
}
