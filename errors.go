package mappable

import (
	"errors"
	"fmt"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeUnknownType       = "unknown_type"       // no mapper resolvable for the type/value
	CodeUnresolvedType    = "unresolved_type"    // discriminator id has no known mapped type
	CodeIncorrectEncoding = "incorrect_encoding" // typed narrowing received the wrong tree shape
	CodeMapperFailure     = "mapper_failure"     // a mapper's own implementation failed
)

// Method tags the container entry point an error escaped from.
type Method string

const (
	MethodDecode    Method = "decode"
	MethodEncode    Method = "encode"
	MethodEquals    Method = "equals"
	MethodHash      Method = "hash"
	MethodStringify Method = "stringify"
)

// Error is the chained failure surfaced by every container operation. Hint is
// a short rendering of the offending type or value; Cause preserves the
// original failure for errors.Is/As.
type Error struct {
	Method Method
	Code   string
	Hint   string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mappable: %s (%s): %s: %v", e.Method, e.Hint, e.Code, e.Cause)
	}
	return fmt.Sprintf("mappable: %s (%s): %s", e.Method, e.Hint, e.Code)
}

func (e *Error) Unwrap() error { return e.Cause }

// newErr builds a terminal chained error with no cause.
func newErr(method Method, code, hint string) *Error {
	return &Error{Method: method, Code: code, Hint: hint}
}

// chain wraps err as a mapper failure for method. The hint function is lazy;
// it only runs when err is non-nil. An *Error cause keeps its own code so a
// nested unknown_type is still recognizable at the top of the chain.
func chain(method Method, hint func() string, err error) error {
	if err == nil {
		return nil
	}
	code := CodeMapperFailure
	if me, ok := err.(*Error); ok {
		code = me.Code
	}
	return &Error{Method: method, Code: code, Hint: hint(), Cause: err}
}

// CodeOf extracts the code from a chained error using errors.As internally,
// or "" for foreign errors.
func CodeOf(err error) string {
	var me *Error
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}
