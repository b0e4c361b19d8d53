package models

import (
	"errors"
	"strings"
)

// ErrNotFound covers both "no such record" and "record owned by someone
// else" so callers cannot probe for existence.
var ErrNotFound = errors.New("record not found")

// FieldError is one validation failure on one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every field failure of one request. No
// write happens when it is returned.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// validationErrors collects field failures while a record is checked.
type validationErrors struct {
	fields []FieldError
}

func (v *validationErrors) add(field, message string) {
	v.fields = append(v.fields, FieldError{Field: field, Message: message})
}

// err returns the accumulated ValidationError, or nil when everything
// passed.
func (v *validationErrors) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

// IsValidation reports whether err is a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
