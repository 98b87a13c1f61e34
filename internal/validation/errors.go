package validation

import (
	"fmt"
	"strings"
)

const (
	ReasonRequired    = "required"
	ReasonInvalidCUI  = "invalid CUI"
	ReasonInvalidIBAN = "invalid IBAN"
	ReasonNotPositive = "must be > 0"
	ReasonNegative    = "must be a non-negative number"
	ReasonInvalidDate = "invalid date"
	ReasonCurrency    = "invalid currency"
	ReasonDuplicate   = "already exists"
)

// FieldError is a single violated rule on a submitted field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Errors collects every violated rule of one submission.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Reason))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}
