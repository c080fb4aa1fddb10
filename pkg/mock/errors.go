package mock

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mocks-server/mocks-server/internal/schema"
)

// Sentinel errors.
var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateID         = errors.New("duplicate id")
	ErrUnknownHandler      = errors.New("unknown variant handler")
	ErrCircularCollections = errors.New("circular collection inheritance")
)

// ValidationError describes an invalid route, variant or collection.
type ValidationError struct {
	Kind    string // "route", "variant" or "collection"
	ID      string
	Details []string
}

func (e *ValidationError) Error() string {
	subject := e.Kind
	if e.ID != "" {
		subject = fmt.Sprintf("%s %q", e.Kind, e.ID)
	}
	return fmt.Sprintf("invalid %s: %s", subject, strings.Join(e.Details, "; "))
}

func newValidationError(kind, id string, violations []schema.Violation) *ValidationError {
	details := make([]string, len(violations))
	for i, v := range violations {
		details[i] = v.String()
	}
	return &ValidationError{Kind: kind, ID: id, Details: details}
}
