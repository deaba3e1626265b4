package shift

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedShift = errors.New("malformed shift text")
)

// MalformedError carries the cell text that failed the range grammar.
type MalformedError struct {
	Raw string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMalformedShift.Error(), e.Raw)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformedShift
}
