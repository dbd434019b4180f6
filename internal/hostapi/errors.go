// Package hostapi holds the JSON-over-HTTP plumbing shared by the clients of
// the third-party hosts PLUDO deploys through, and classifies their errors.
package hostapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a host API failure by HTTP status.
type Kind string

const (
	KindPermission Kind = "permission"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindValidation Kind = "validation"
	KindGeneric    Kind = "generic"
)

// Sentinel errors, one per Kind, matched with errors.Is.
var (
	ErrPermission = errors.New("host denied permission")
	ErrNotFound   = errors.New("host resource not found")
	ErrConflict   = errors.New("host resource conflict")
	ErrValidation = errors.New("host rejected request")
	ErrGeneric    = errors.New("host request failed")
)

// KindForStatus maps an HTTP status code to a Kind.
func KindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindPermission
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return KindValidation
	default:
		return KindGeneric
	}
}

// APIError is a non-2xx response from a host API.
type APIError struct {
	Host       string
	Op         string
	StatusCode int
	Message    string
	Details    []string
	// Hint is an actionable suggestion for the user.
	Hint string
}

// Kind returns the classification of the error.
func (e *APIError) Kind() Kind {
	return KindForStatus(e.StatusCode)
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s failed (%d)", e.Host, e.Op, e.StatusCode)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Details) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Details, "; "))
	}
	if e.Hint != "" {
		b.WriteString(". ")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// Unwrap exposes the Kind sentinel so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Kind() {
	case KindPermission:
		return ErrPermission
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConflict
	case KindValidation:
		return ErrValidation
	default:
		return ErrGeneric
	}
}

// AsAPIError returns the APIError in err's chain, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
