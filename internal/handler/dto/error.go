package dto

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mtlprog/pludo/internal/domain"
	"github.com/mtlprog/pludo/internal/github"
	"github.com/mtlprog/pludo/internal/hostapi"
	"github.com/mtlprog/pludo/internal/llm"
	"github.com/mtlprog/pludo/internal/vercel"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// MapDomainError maps domain and host errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code string, message string) {
	message = err.Error()

	switch {
	// Agent errors
	case errors.Is(err, domain.ErrAgentNotFound):
		return http.StatusNotFound, "AGENT_NOT_FOUND", message
	case errors.Is(err, domain.ErrNotAgentOwner):
		return http.StatusForbidden, "INSUFFICIENT_ACCESS", message
	case errors.Is(err, domain.ErrSubdomainTaken):
		return http.StatusConflict, "SUBDOMAIN_TAKEN", message
	case errors.Is(err, domain.ErrSubdomainImmutable):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message

	// Pipeline errors
	case errors.Is(err, domain.ErrNotUploaded):
		return http.StatusConflict, "PHASE_ORDER", message

	// Auth errors
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "INVALID_TOKEN", message

	// Validation errors
	case errors.Is(err, domain.ErrInvalidSubdomain):
		return http.StatusUnprocessableEntity, "INVALID_SUBDOMAIN", message
	case errors.Is(err, domain.ErrUnknownProvider):
		return http.StatusUnprocessableEntity, "UNKNOWN_PROVIDER", message
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message

	// Chat errors
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED", message

	// Build host outcomes
	case errors.Is(err, vercel.ErrDeploymentTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "DEPLOYMENT_TIMEOUT", message
	case errors.Is(err, vercel.ErrDeploymentFailed),
		errors.Is(err, vercel.ErrDeploymentCanceled),
		errors.Is(err, vercel.ErrNoDeployment):
		return http.StatusBadGateway, "DEPLOYMENT_FAILED", message

	// Source host outcomes
	case errors.Is(err, github.ErrFileTooLarge):
		return http.StatusUnprocessableEntity, "FILE_TOO_LARGE", message
	case errors.Is(err, github.ErrNoBranch):
		return http.StatusBadGateway, "NO_BRANCH", message

	// Model provider outcomes
	case errors.Is(err, llm.ErrEmptyReply):
		return http.StatusBadGateway, "EMPTY_REPLY", message
	}

	// Third-party host API errors keep their classification and hint.
	if apiErr, ok := hostapi.AsAPIError(err); ok {
		return http.StatusBadGateway, "HOST_" + strings.ToUpper(string(apiErr.Kind())), message
	}

	// Log unmapped error for debugging
	slog.Error("unmapped domain error returned to client",
		"error", err,
		"error_type", fmt.Sprintf("%T", err),
	)
	return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
}
