// Package provider defines the shared contract for external data providers.
package provider

import "fmt"

// Error is the uniform failure reported by every provider adapter. It carries
// the provider name so multi-source endpoints can attribute partial failures.
type Error struct {
	Provider string
	Message  string
	Err      error
}

// NewError creates a provider error. err may be nil for logical failures
// (e.g. an upstream that returns HTTP 200 with an error body).
func NewError(providerName, message string, err error) *Error {
	return &Error{Provider: providerName, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}
