// Package models defines the core domain models for trigger-action-reaction
// workflow automation.
package models

import "time"

// Workflow is a user-owned directed graph of nodes and connections. Only
// active workflows are considered by the trigger ingress.
type Workflow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"       validate:"required,min=3"`
	UserID    int64     `json:"user_id"    validate:"required"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
