// Package protocol defines the contracts between trigger receivers and the
// execution engine.
package protocol

import "context"

// TriggerEvent is one external event delivered by a trigger receiver. It
// carries everything the trigger ingress needs to match workflows.
type TriggerEvent struct {
	ServiceID  string         `json:"service_id"`
	ActionName string         `json:"action"`
	UserID     int64          `json:"user_id"`
	Payload    map[string]any `json:"payload"`
}

// TriggerCallback is invoked once per received trigger event.
type TriggerCallback func(ctx context.Context, event TriggerEvent) error

// Trigger is a long-running receiver of external events.
type Trigger interface {
	Start(ctx context.Context, callback TriggerCallback) error
	Stop(ctx context.Context) error
}
