package serde

import (
	"errors"
	"fmt"
)

// Decode error kinds. Every decoder failure wraps exactly one of these so callers can
// match with errors.Is.
var (
	ErrUnexpectedEOF       = errors.New("unexpected end of buffer")
	ErrMalformedVarint     = errors.New("malformed unsigned varint")
	ErrUnexpectedTagBuffer = errors.New("unexpected tagged fields")
)

// DecodeError reports which field failed to decode, where, and what was observed.
type DecodeError struct {
	Field  string
	Offset int
	Value  any
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%v: field %s at offset %d", e.Err, e.Field, e.Offset)
	}
	return fmt.Sprintf("%v: field %s at offset %d (observed %v)", e.Err, e.Field, e.Offset, e.Value)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewDecodeError is used by packages layering their own checks on top of a Decoder.
func NewDecodeError(field string, offset int, value any, err error) *DecodeError {
	return &DecodeError{Field: field, Offset: offset, Value: value, Err: err}
}
