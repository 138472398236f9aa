package entity

import (
	"errors"
	"fmt"
)

// Standard domain errors
var (
	ErrRateLimitExceeded   = errors.New("rate limit exceeded: too many tokens used")
	ErrInvalidRequest      = errors.New("invalid request parameters")
	ErrProviderUnavailable = errors.New("recommendation provider unavailable")
)

// FallbackReason classifies why a request was served by the deterministic recommender.
type FallbackReason string

const (
	ReasonDisabled          FallbackReason = "disabled"
	ReasonMissingCredential FallbackReason = "missing_credential"
	ReasonRateLimited       FallbackReason = "rate_limited"
	ReasonCircuitOpen       FallbackReason = "circuit_open"
	ReasonTimeout           FallbackReason = "timeout"
	ReasonProviderError     FallbackReason = "provider_error"
	ReasonEmptyResponse     FallbackReason = "empty_response"
	ReasonNoJSONObject      FallbackReason = "no_json_object"
	ReasonInvalidJSON       FallbackReason = "invalid_json"
	ReasonInvalidShape      FallbackReason = "invalid_shape"
)

// FallbackError is the tagged failure produced anywhere on the Gemini path.
type FallbackError struct {
	Reason FallbackReason
	Err    error
}

func NewFallbackError(reason FallbackReason, err error) *FallbackError {
	return &FallbackError{Reason: reason, Err: err}
}

func (e *FallbackError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *FallbackError) Unwrap() error {
	return e.Err
}

// InputError wraps ErrInvalidRequest with the offending field.
func InputError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
