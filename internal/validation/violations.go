package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Violation is one field-level validation failure.
type Violation struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Violations flattens a validator error into field-level violations. Errors
// from other sources produce an empty list.
func Violations(err error) []Violation {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}

	out := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, Violation{
			Field: strings.ToLower(fe.Field()),
			Rule:  fe.Tag(),
		})
	}
	return out
}
