package compliance

import (
	"errors"
	"fmt"
)

// Error categories for compliance scoring
const (
	// ErrInvalidInput represents a candidate that cannot be scored
	ErrInvalidInput = "invalid_input"

	// ErrInventoryUnavailable represents a failure to read the live inventory
	ErrInventoryUnavailable = "inventory_unavailable"

	// ErrMalformedMessage represents a queue message that could not be decoded
	ErrMalformedMessage = "malformed_message"
)

// ComplianceError represents an error that occurred while scoring an
// instance, with context about what went wrong.
type ComplianceError struct {
	// Category helps with programmatic error handling
	Category string

	// Message provides human-readable details
	Message string

	// InstanceID identifies the scored instance (if known)
	InstanceID string

	// Underlying is the wrapped cause of this error
	Underlying error
}

// Error returns the error message
func (e *ComplianceError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Category, e.Message)
	if e.InstanceID != "" {
		msg = fmt.Sprintf("%s (instance: %s)", msg, e.InstanceID)
	}
	if e.Underlying != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Underlying)
	}
	return msg
}

// Unwrap returns the underlying error (for errors.Is/As support)
func (e *ComplianceError) Unwrap() error {
	return e.Underlying
}

// NewComplianceError creates a new error with the given category and details
func NewComplianceError(category, message, instanceID string, underlying error) *ComplianceError {
	return &ComplianceError{
		Category:   category,
		Message:    message,
		InstanceID: instanceID,
		Underlying: underlying,
	}
}

// IsErrorCategory checks if an error belongs to a specific error category
func IsErrorCategory(err error, category string) bool {
	if err == nil {
		return false
	}

	var e *ComplianceError
	if errors.As(err, &e) {
		return e.Category == category
	}

	return false
}
