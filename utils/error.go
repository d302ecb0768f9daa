package utils

import (
	"errors"
	"fmt"
)

var (
	ErrorRecordNotFound = errors.New("record not found")
	ErrInvalidNumber    = errors.New("invalid number")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrLockNotObtained  = errors.New("could not obtain lock")
)

// ParseError reports a value that could not be parsed as a number.
type ParseError struct {
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %v", e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
