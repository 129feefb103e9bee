// Package persistence provides standardized error types for persistence
// operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrNodeNotFound indicates a node was not found by the given identifier.
	ErrNodeNotFound = errors.New("node not found")

	// ErrConnectionNotFound indicates a connection was not found by the given identifier.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrConnectionExists indicates a connection with the same
	// (source, target, channel) triple already exists.
	ErrConnectionExists = errors.New("connection already exists")

	// ErrSelfConnection indicates source and target node are the same.
	ErrSelfConnection = errors.New("connection source and target must differ")

	// ErrRunNotFound indicates a workflow execution was not found.
	ErrRunNotFound = errors.New("workflow execution not found")

	// ErrNodeExecutionNotFound indicates a node has no recorded execution.
	ErrNodeExecutionNotFound = errors.New("node execution not found")

	// ErrServiceNotFound indicates a service was not found by the given identifier.
	ErrServiceNotFound = errors.New("service not found")

	// ErrActionNotFound indicates an action was not found.
	ErrActionNotFound = errors.New("action not found")

	// ErrReactionNotFound indicates a reaction was not found.
	ErrReactionNotFound = errors.New("reaction not found")
)

// WorkflowError wraps workflow-related errors with additional context.
type WorkflowError struct {
	Op         string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	WorkflowID string
	Err        error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, workflowID string, err error) *WorkflowError {
	return &WorkflowError{Op: op, WorkflowID: workflowID, Err: err}
}

// NodeError wraps node-related errors with additional context.
type NodeError struct {
	Op         string
	WorkflowID string
	NodeID     string
	Err        error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("%s operation failed for node %s in workflow %s: %v", e.Op, e.NodeID, e.WorkflowID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

func (e *NodeError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewNodeError creates a new node error with context.
func NewNodeError(op, workflowID, nodeID string, err error) *NodeError {
	return &NodeError{Op: op, WorkflowID: workflowID, NodeID: nodeID, Err: err}
}

// ConnectionError wraps connection-related errors with additional context.
type ConnectionError struct {
	Op           string
	WorkflowID   string
	ConnectionID string
	Err          error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s operation failed for connection %s in workflow %s: %v", e.Op, e.ConnectionID, e.WorkflowID, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsNodeNotFound checks if an error indicates a node was not found.
func IsNodeNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}

// IsConnectionNotFound checks if an error indicates a connection was not found.
func IsConnectionNotFound(err error) bool {
	return errors.Is(err, ErrConnectionNotFound)
}

// IsNotFound checks whether an error is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, ErrConnectionNotFound) ||
		errors.Is(err, ErrRunNotFound) ||
		errors.Is(err, ErrNodeExecutionNotFound) ||
		errors.Is(err, ErrServiceNotFound) ||
		errors.Is(err, ErrActionNotFound) ||
		errors.Is(err, ErrReactionNotFound)
}
