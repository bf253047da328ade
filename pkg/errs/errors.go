package errs

import (
	"errors"
	"net/http"

	"github.com/muhammadhuzaifasarfraz/collab-sphere/internal/domain"
)

// Stable machine-checkable error codes for API consumers.
const (
	CodeInvalidInput    = "invalid_input"
	CodePolicyViolation = "policy_violation"
	CodeNotFound        = "not_found"
	CodeUnauthorized    = "unauthorized"
	CodeStorage         = "storage"
)

// ToHTTP maps a domain error to response status + code.
// Unrecognized errors are reported as storage failures so that backing-store
// internals never leak to the client.
func ToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrMessageTooLong),
		errors.Is(err, domain.ErrSelfMessage):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, domain.ErrInvalidInteraction):
		return http.StatusForbidden, CodePolicyViolation
	case errors.Is(err, domain.ErrIdentityNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, CodeUnauthorized
	default:
		return http.StatusInternalServerError, CodeStorage
	}
}
