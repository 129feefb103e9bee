// Package web provides the HTTP handlers and request types of the REST API.
package web

// ExecuteNodeRequest is the body of a manual node execution. UserID
// identifies the acting user; admin tooling sets Admin to bypass the
// ownership check.
type ExecuteNodeRequest struct {
	UserID int64          `json:"user_id" validate:"required"`
	Admin  bool           `json:"admin"`
	Input  map[string]any `json:"input"`
}

// TriggerRequest is the body of the trigger ingress endpoint.
type TriggerRequest struct {
	UserID  int64          `json:"user_id" validate:"required"`
	Payload map[string]any `json:"payload"`
}

// ActivateRequest toggles whether a workflow reacts to external triggers.
type ActivateRequest struct {
	Active bool `json:"active"`
}
