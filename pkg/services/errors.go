// Package services implements the business operations behind the HTTP API:
// workflow, node and connection management plus the service catalog.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors indicating client mistakes (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrWorkflowNil          = errors.New("workflow cannot be nil")
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrOwnerRequired        = errors.New("workflow owner is required")
	ErrNodeNil              = errors.New("node cannot be nil")
	ErrUnknownActionRef     = errors.New("node references an unknown action")
	ErrUnknownReactionRef   = errors.New("node references an unknown reaction")
	ErrConfSchemaViolation  = errors.New("node configuration violates the registered schema")
	ErrInvalidChannel       = errors.New("connection channel must be success, failed or unknown")
	ErrSelfConnection       = errors.New("connection cannot point a node at itself")

	// Business logic conflicts (409 Conflict).
	ErrConnectionExists = errors.New("an identical connection already exists")
)

// ServiceError wraps service-level errors with operation context.
type ServiceError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrOwnerRequired) ||
		errors.Is(err, ErrNodeNil) ||
		errors.Is(err, ErrUnknownActionRef) ||
		errors.Is(err, ErrUnknownReactionRef) ||
		errors.Is(err, ErrConfSchemaViolation) ||
		errors.Is(err, ErrInvalidChannel) ||
		errors.Is(err, ErrSelfConnection)
}

// IsConflictError checks if an error should map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConnectionExists)
}

// NewValidationError creates a validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
