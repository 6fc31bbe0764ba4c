package models

import (
	"fmt"
	"strings"
)

// ValidationError describes a single field-level configuration problem.
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Message string      `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors accumulates every problem found while validating a
// configuration, rather than stopping at the first one, so a misconfigured
// experiment is reported in full.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// HasErrors reports whether any problems were accumulated.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Add unconditionally records a field-level problem.
func (e *ValidationErrors) Add(field string, value interface{}, message string) {
	*e = append(*e, ValidationError{Field: field, Value: value, Message: message})
}

// AddIf records a field-level problem only when condition holds.
func (e *ValidationErrors) AddIf(condition bool, field string, value interface{}, message string) {
	if condition {
		e.Add(field, value, message)
	}
}
