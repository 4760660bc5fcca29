package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeValidation          ErrorType = "validation"
	ErrorTypeProviderUnavailable ErrorType = "provider_unavailable"
	ErrorTypeBackendsExhausted   ErrorType = "backends_exhausted"
	ErrorTypeQueryFailed         ErrorType = "query_failed"
	ErrorTypeBatchTimeout        ErrorType = "batch_timeout"
	ErrorTypeConfig              ErrorType = "config"
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func ProviderUnavailable(backend string, err error) *DomainError {
	return NewError(ErrorTypeProviderUnavailable, backend+" unavailable", err)
}

func BackendsExhausted(query string, err error) *DomainError {
	return NewError(ErrorTypeBackendsExhausted, fmt.Sprintf("no backend produced results for %q", query), err)
}

func QueryFailed(query string, err error) *DomainError {
	return NewError(ErrorTypeQueryFailed, fmt.Sprintf("query %q failed", query), err)
}

func BatchTimeout(message string, err error) *DomainError {
	return NewError(ErrorTypeBatchTimeout, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

// IsType reports whether any error in err's chain is a DomainError of type t.
func IsType(err error, t ErrorType) bool {
	var de *DomainError
	for err != nil {
		if !errors.As(err, &de) {
			return false
		}
		if de.Type == t {
			return true
		}
		err = de.Err
	}
	return false
}
