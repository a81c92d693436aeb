package scraper

import (
	"errors"
	"fmt"
)

// ErrInvalidAmount is returned when a unit attribute line names a known
// attribute but does not start with a number.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseError means a required field of a detail page could not be read.
// The property is discarded.
type ParseError struct {
	URL   string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s on %s: %v", e.Field, e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
