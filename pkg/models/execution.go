package models

import "time"

// ExecutionStatus is the lifecycle state of a run or of a single node
// execution. SUCCESS and FAILED are terminal.
type ExecutionStatus string

const (
	ExecutionStatusPending ExecutionStatus = "PENDING"
	ExecutionStatusRunning ExecutionStatus = "RUNNING"
	ExecutionStatusSuccess ExecutionStatus = "SUCCESS"
	ExecutionStatusFailed  ExecutionStatus = "FAILED"
	ExecutionStatusSkipped ExecutionStatus = "SKIPPED"
)

// Execution channels produced by node executions. Outgoing connections fire
// when their channel equals the channel the node produced.
const (
	ChannelSuccess = "success"
	ChannelFailed  = "failed"
	ChannelUnknown = "unknown"
)

// WorkflowExecution is one run: the record of a single end-to-end traversal
// triggered by one external event or direct invocation.
type WorkflowExecution struct {
	ID          string          `json:"id"`
	WorkflowID  string          `json:"workflow_id"`
	TriggeredBy string          `json:"triggered_by"` // Entry node ID
	Status      ExecutionStatus `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	ErrorMsg    string          `json:"error_message,omitempty"`
}

// NodeExecution records a single node invocation within a run. A node
// reached on several paths of the same run produces several rows.
type NodeExecution struct {
	ID          string          `json:"id"`
	NodeID      string          `json:"node_id"`
	ExecutionID string          `json:"execution_id"`
	Status      ExecutionStatus `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Output      map[string]any  `json:"output,omitempty"`
	Logs        string          `json:"logs,omitempty"`

	// ExecutionChannel is the channel this invocation produced, e.g.
	// "success" or "failed". Empty until the execution completes.
	ExecutionChannel string `json:"execution_channel,omitempty"`
}

// Terminal reports whether the execution reached a final status.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionStatusSuccess || s == ExecutionStatusFailed || s == ExecutionStatusSkipped
}
