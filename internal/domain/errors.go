package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidRequest indicates invalid request
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthorized indicates unauthorized access to this API
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnsupportedType indicates a file extension no extractor handles
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrExtractionFailed indicates a supported file could not be parsed
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrAuth indicates a missing or rejected provider credential
	ErrAuth = errors.New("provider authentication failed")
	// ErrRateLimited indicates the provider throttled the request
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrUnavailable indicates the provider could not be reached
	ErrUnavailable = errors.New("provider unavailable")
	// ErrProvider indicates any other provider-side failure
	ErrProvider = errors.New("provider error")
	// ErrConfiguration indicates a model id or setting that cannot be dispatched
	ErrConfiguration = errors.New("configuration error")
)

// AuthError is returned when a provider credential is absent or rejected.
type AuthError struct {
	Provider string
	Message  string
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return ErrAuth }

// RateLimitError is returned on HTTP 429.
type RateLimitError struct {
	Provider string
	Message  string
}

func (e *RateLimitError) Error() string { return e.Message }
func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// UnavailableError is returned when the provider endpoint refuses connections.
type UnavailableError struct {
	Provider string
	Message  string
	Err      error
}

func (e *UnavailableError) Error() string { return e.Message }
func (e *UnavailableError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnavailable}
	}
	return []error{ErrUnavailable, e.Err}
}

// ProviderError wraps any other failure reported by a provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProvider}
	}
	return []error{ErrProvider, e.Err}
}

// ConfigurationError is returned before any network attempt when a request
// cannot be dispatched (unknown model prefix, invalid setting).
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }
func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }
