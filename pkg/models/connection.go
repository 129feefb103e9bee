package models

// DefaultChannel is the channel a connection follows when none is given.
const DefaultChannel = ChannelSuccess

// Connection is a directed edge between two nodes of the same workflow. A
// connection fires when its source node's execution produced the matching
// channel. (source, target, channel) is unique within a workflow and
// self-loops are rejected at creation time; cycles across two or more nodes
// are not.
type Connection struct {
	ID           string `json:"id"`
	WorkflowID   string `json:"workflow_id"`
	SourceNodeID string `json:"source_node_id" validate:"required"`
	TargetNodeID string `json:"target_node_id" validate:"required"`
	Channel      string `json:"channel"`

	// Condition is reserved for per-edge conditional routing. It is stored
	// and returned by the API but never read by the execution engine.
	Condition map[string]any `json:"condition,omitempty"`
}
