package domain

import "errors"

// Domain-specific errors for business logic validation.
var (
	// Agent errors
	ErrAgentNotFound      = errors.New("agent not found")
	ErrNotAgentOwner      = errors.New("not agent owner")
	ErrSubdomainTaken     = errors.New("subdomain is already taken")
	ErrSubdomainImmutable = errors.New("subdomain cannot be changed after creation")

	// Pipeline errors
	ErrNotUploaded = errors.New("agent source has not been uploaded")

	// Auth errors
	ErrUnauthenticated = errors.New("authentication required")
	ErrInvalidToken    = errors.New("invalid authentication token")

	// Validation errors
	ErrValidation       = errors.New("validation failed")
	ErrInvalidSubdomain = errors.New("invalid subdomain")
	ErrUnknownProvider  = errors.New("unknown AI provider")

	// Chat errors
	ErrRateLimited = errors.New("too many requests")
)
