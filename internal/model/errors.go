package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is matched by every contract validation failure.
var ErrValidation = errors.New("contract validation failed")

// ValidationError lists every problem found while constructing one record.
type ValidationError struct {
	Record   string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Record, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(record string, problems ...string) error {
	return &ValidationError{Record: record, Problems: problems}
}
