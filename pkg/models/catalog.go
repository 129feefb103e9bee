package models

import "time"

// Service is a third-party microservice that owns actions and reactions.
// BaseURL is the root the engine POSTs /execute requests to and the catalog
// GETs /area from.
type Service struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"     validate:"required"`
	BaseURL   string    `json:"base_url" validate:"required,url"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Action is an external trigger definition published by a service. Nodes
// reference actions as pass-through entry markers.
type Action struct {
	ID           string         `json:"id"`
	ServiceID    string         `json:"service_id" validate:"required"`
	Name         string         `json:"name"       validate:"required"`
	Description  string         `json:"description,omitempty"`
	ConfigSchema map[string]any `json:"config_schema,omitempty"`
}

// Reaction is an external effect definition published by a service. Nodes
// referencing a reaction are dispatched to the service's /execute endpoint.
type Reaction struct {
	ID           string         `json:"id"`
	ServiceID    string         `json:"service_id" validate:"required"`
	Name         string         `json:"name"       validate:"required"`
	Description  string         `json:"description,omitempty"`
	ConfigSchema map[string]any `json:"config_schema,omitempty"`
}
