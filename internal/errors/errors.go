// Package errors implements the catalog's error taxonomy (spec §7):
// Kind values raised by the validator, the store and the write/read
// services, carried through in a CatalogError with per-failure location
// detail.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind is one of the nine error kinds below (Duplicate and Superseded are
// separate kinds).
type Kind string

const (
	KindInputValidation      Kind = "INPUT_VALIDATION"
	KindVersionValidation    Kind = "VERSION_VALIDATION"
	KindConsistencyValidation Kind = "CONSISTENCY_VALIDATION"
	KindNotFound             Kind = "NOT_FOUND"
	KindWrongType            Kind = "WRONG_TYPE"
	KindDuplicate            Kind = "DUPLICATE"
	KindSuperseded           Kind = "SUPERSEDED"
	KindConfigLoad           Kind = "CONFIG_LOAD"
	KindInternal             Kind = "INTERNAL"
)

// Failure is one validation failure, carrying the path from the traversal
// root (see internal/validation) and a human message.
type Failure struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// CatalogError is the structured error every catalog component returns.
type CatalogError struct {
	Kind     Kind      `json:"kind"`
	Message  string    `json:"message"`
	Failures []Failure `json:"failures,omitempty"`
	cause    error
}

func (e *CatalogError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (%d failure(s))", e.Kind, e.Message, len(e.Failures))
}

func (e *CatalogError) Unwrap() error { return e.cause }

// Is supports errors.Is(err, New(kind, "")) to test the kind only.
func (e *CatalogError) Is(target error) bool {
	other, ok := target.(*CatalogError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// New constructs a CatalogError with no failure detail.
func New(kind Kind, message string) *CatalogError {
	return &CatalogError{Kind: kind, Message: message}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...interface{}) *CatalogError {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap attaches a lower-level cause while keeping e's own Kind/Message as
// what callers see from Error().
func Wrap(kind Kind, message string, cause error) *CatalogError {
	return &CatalogError{Kind: kind, Message: message, cause: cause}
}

// WithFailures attaches structured per-location validation failures.
func (e *CatalogError) WithFailures(failures []Failure) *CatalogError {
	e.Failures = failures
	return e
}

// StatusCode maps a Kind to the HTTP-equivalent status used by this
// repository's operational HTTP surface only (the real wire-API transport
// is out of scope; see spec §7's propagation policy for the mapping this
// mirrors: InvalidArgument/FailedPrecondition/NotFound/AlreadyExists/Internal).
func (e *CatalogError) StatusCode() int {
	switch e.Kind {
	case KindInputValidation:
		return http.StatusBadRequest
	case KindVersionValidation, KindConsistencyValidation, KindSuperseded:
		return http.StatusPreconditionFailed
	case KindNotFound:
		return http.StatusNotFound
	case KindWrongType:
		// Not one of spec §7's five named propagation buckets; treated as
		// an InvalidArgument-shaped failure (the caller's selector named
		// the wrong type), not folded into the "Internal" catch-all.
		return http.StatusBadRequest
	case KindDuplicate:
		return http.StatusConflict
	case KindConfigLoad:
		return http.StatusInternalServerError
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Of extracts a *CatalogError from err, if it is (or wraps) one.
func Of(err error) (*CatalogError, bool) {
	var ce *CatalogError
	ok := stderrors.As(err, &ce)
	return ce, ok
}
