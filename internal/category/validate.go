package category

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"listing_intake/internal/domain"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors"`
}

// ValidationError is the client-facing failure of a category check.
type ValidationError struct {
	Category domain.Category `json:"category"`
	Errors   []FieldError    `json:"errors"`
}

func (e *ValidationError) Error() string {
	msgs := lo.Map(e.Errors, func(fe FieldError, _ int) string { return fe.Message })
	return fmt.Sprintf("%s validation failed: %s", e.Category, strings.Join(msgs, "; "))
}

// Validate checks that every required field is present and non-empty and
// that no forbidden field carries a value. Optional fields are not checked.
func Validate(c domain.Category, fields domain.Fields) Result {
	req, ok := Lookup(c)
	if !ok {
		return Result{Errors: []FieldError{{Field: "category", Message: fmt.Sprintf("unknown category %q", c)}}}
	}
	errs := []FieldError{}
	for _, f := range req.Required {
		if isBlank(fields, f) {
			errs = append(errs, FieldError{Field: f, Message: fmt.Sprintf("%s is required for %s listings", f, c)})
		}
	}
	for _, f := range req.Forbidden {
		if fields.Has(f) {
			errs = append(errs, FieldError{Field: f, Message: fmt.Sprintf("%s is not allowed for %s listings", f, c)})
		}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// ValidateOrThrow is Validate returning a *ValidationError on failure.
func ValidateOrThrow(c domain.Category, fields domain.Fields) error {
	res := Validate(c, fields)
	if res.Valid {
		return nil
	}
	return &ValidationError{Category: c, Errors: res.Errors}
}

// ExtractAllowedFields copies the required and optional fields of c out of
// fields. Unknown categories yield an empty map.
func ExtractAllowedFields(c domain.Category, fields domain.Fields) domain.Fields {
	req, ok := Lookup(c)
	if !ok {
		return domain.Fields{}
	}
	return domain.Fields(lo.PickByKeys(fields, req.Allowed()))
}

func isBlank(fields domain.Fields, key string) bool {
	v, ok := fields[key]
	if !ok || v == nil {
		return true
	}
	s, isStr := v.(string)
	return isStr && s == ""
}

func sortStrings(s []string) []string {
	sort.Strings(s)
	return s
}
