package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedConversion is returned for currency pairs that need a
	// cross rate the caller did not supply
	ErrUnsupportedConversion = errors.New("unsupported currency conversion")
	// ErrInvalidRate is returned for non-positive exchange rates
	ErrInvalidRate = errors.New("exchange rate must be positive")
	// ErrUnknownCurrency is returned for currencies outside HUF/EUR/USD
	ErrUnknownCurrency = errors.New("unknown currency")
)

// FieldError describes one invalid input field
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationError collects every problem found in a set of contract inputs
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return "invalid contract inputs: " + strings.Join(parts, "; ")
}

// Add records a field problem
func (e *ValidationError) Add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: fmt.Sprintf(format, args...)})
}

// Has reports whether a problem was recorded for field
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns nil when no problem was recorded
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
