package models

import (
	"errors"
	"time"
)

// NodeKind discriminates what a node does when executed.
type NodeKind string

const (
	NodeKindAction   NodeKind = "action"   // Pass-through marker for an external trigger event
	NodeKindReaction NodeKind = "reaction" // Dispatched to the owning service's /execute endpoint
	NodeKindLogic    NodeKind = "logic"    // Evaluated in-process (IF/AND/NOT)
)

// LogicType enumerates the built-in logic node behaviors.
type LogicType string

const (
	LogicTypeIf  LogicType = "IF"
	LogicTypeAnd LogicType = "AND"
	LogicTypeNot LogicType = "NOT"
)

var (
	ErrNodeKindMissing   = errors.New("node must reference exactly one of action, reaction or logic type")
	ErrNodeKindAmbiguous = errors.New("node references more than one of action, reaction and logic type")
	ErrUnknownLogicType  = errors.New("unknown logic type")
)

// Node is a single vertex of a workflow graph. Exactly one of ActionID,
// ReactionID and LogicType must be set; Validate enforces this at creation
// time so the engine can treat the kind as a tagged union.
type Node struct {
	ID         string     `json:"id"`
	WorkflowID string     `json:"workflow_id"`
	Name       string     `json:"name,omitempty"`
	ActionID   *string    `json:"action_id,omitempty"`
	ReactionID *string    `json:"reaction_id,omitempty"`
	LogicType  *LogicType `json:"logic_type,omitempty"`

	// Conf is the node's opaque configuration. String values may contain
	// ${name} placeholders resolved against the input payload at dispatch
	// time.
	Conf map[string]any `json:"conf,omitempty"`

	// IsTriggered marks the node as an entry point for external events.
	// Advisory: the engine still executes non-trigger nodes on direct
	// invocation.
	IsTriggered bool `json:"is_triggered"`

	// Canvas position, presentation only.
	PositionX int `json:"position_x"`
	PositionY int `json:"position_y"`

	LastExecuted   *time.Time `json:"last_executed,omitempty"`
	ExecutionCount int64      `json:"execution_count"`
}

// Kind returns the node's discriminator. It assumes the node passed
// Validate; an unvalidated node with nothing set falls through to
// NodeKindLogic, so callers must run Validate first.
func (n *Node) Kind() NodeKind {
	switch {
	case n.ActionID != nil:
		return NodeKindAction
	case n.ReactionID != nil:
		return NodeKindReaction
	default:
		return NodeKindLogic
	}
}

// Validate enforces the exactly-one-kind invariant and known logic types.
func (n *Node) Validate() error {
	count := 0
	if n.ActionID != nil {
		count++
	}

	if n.ReactionID != nil {
		count++
	}

	if n.LogicType != nil {
		count++
	}

	if count == 0 {
		return ErrNodeKindMissing
	}

	if count > 1 {
		return ErrNodeKindAmbiguous
	}

	if n.LogicType != nil {
		switch *n.LogicType {
		case LogicTypeIf, LogicTypeAnd, LogicTypeNot:
		default:
			return ErrUnknownLogicType
		}
	}

	return nil
}
