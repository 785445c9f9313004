// Package validation turns rejected input into field-scoped errors that the
// HTTP layer renders as {"loc": [scope, field], "msg": ...} entries.
package validation

import (
	"errors"
	"sort"
	"strings"
)

// Locations used as the first element of FieldError.Loc.
const (
	ScopeForm = "form"
	ScopeFile = "file"
)

// FieldError pins a message to the input location it concerns.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type,omitempty"`
}

func (e FieldError) Error() string {
	return strings.Join(e.Loc, ".") + ": " + e.Msg
}

// Field returns the error's field name, the last element of Loc.
func (e FieldError) Field() string {
	if len(e.Loc) == 0 {
		return ""
	}
	return e.Loc[len(e.Loc)-1]
}

// NewFieldError builds a FieldError for scope/field.
func NewFieldError(scope, field, msg string) FieldError {
	return FieldError{
		Loc:  []string{scope, field},
		Msg:  msg,
		Type: "value_error",
	}
}

// Errors is a list of field errors. A nil or empty list means the input passed.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i := range e {
		parts[i] = e[i].Error()
	}
	return strings.Join(parts, "; ")
}

// Add appends a field error.
func (e *Errors) Add(scope, field, msg string) {
	*e = append(*e, NewFieldError(scope, field, msg))
}

// Has reports whether a field already carries an error.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field() == field {
			return true
		}
	}
	return false
}

// Err returns nil for an empty list so callers can `return errs.Err()`.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// As extracts an Errors list from err.
func As(err error) (Errors, bool) {
	var list Errors
	if errors.As(err, &list) {
		return list, true
	}
	var single FieldError
	if errors.As(err, &single) {
		return Errors{single}, true
	}
	return nil, false
}

func sortByField(errs Errors) {
	sort.SliceStable(errs, func(i, j int) bool {
		return errs[i].Field() < errs[j].Field()
	})
}
