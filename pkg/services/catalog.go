package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stellivo/areaflow/pkg/models"
	"github.com/stellivo/areaflow/pkg/persistence"
)

// areaManifest is the payload a third-party service publishes on GET /area.
type areaManifest struct {
	Actions   []areaDefinition `json:"actions"`
	Reactions []areaDefinition `json:"reactions"`
}

type areaDefinition struct {
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	ConfigSchema map[string]any `json:"configSchema,omitempty"`
}

// Catalog manages registered services and keeps their published actions and
// reactions in sync.
type Catalog struct {
	persistence persistence.Persistence
	client      *http.Client
	logger      *slog.Logger
}

// NewCatalog creates a catalog service. Zero timeout defaults to 10s.
func NewCatalog(persist persistence.Persistence, timeout time.Duration, logger *slog.Logger) *Catalog {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Catalog{
		persistence: persist,
		client:      &http.Client{Timeout: timeout},
		logger:      logger.With("module", "catalog"),
	}
}

// ListServices returns every registered service.
func (c *Catalog) ListServices(ctx context.Context) ([]*models.Service, error) {
	return c.persistence.CatalogRepository().Services(ctx)
}

// RegisterServiceRequest carries the fields accepted on registration.
type RegisterServiceRequest struct {
	Name    string `json:"name"     validate:"required"`
	BaseURL string `json:"base_url" validate:"required,url"`
}

// RegisterService stores a service and immediately syncs its catalog.
func (c *Catalog) RegisterService(ctx context.Context, req RegisterServiceRequest) (*models.Service, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.BaseURL) == "" {
		return nil, NewValidationError("register_service", "invalid_service", "name and base_url are required", ErrInvalidRequest)
	}

	now := time.Now().UTC()
	service := &models.Service{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		BaseURL:   strings.TrimRight(strings.TrimSpace(req.BaseURL), "/"),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.persistence.CatalogRepository().SaveService(ctx, service); err != nil {
		return nil, fmt.Errorf("failed to register service: %w", err)
	}

	if err := c.SyncService(ctx, service.ID); err != nil {
		c.logger.WarnContext(ctx, "Initial catalog sync failed", "service_id", service.ID, "error", err)
	}

	return service, nil
}

// SyncService fetches the service's /area manifest and upserts its actions
// and reactions, keeping existing IDs stable so nodes keep their references.
func (c *Catalog) SyncService(ctx context.Context, serviceID string) error {
	service, err := c.persistence.CatalogRepository().ServiceByID(ctx, serviceID)
	if err != nil {
		return err
	}

	manifest, err := c.fetchManifest(ctx, service.BaseURL)
	if err != nil {
		return fmt.Errorf("fetch manifest of %s: %w", service.Name, err)
	}

	for _, definition := range manifest.Actions {
		if err := c.upsertAction(ctx, service.ID, definition); err != nil {
			return err
		}
	}

	for _, definition := range manifest.Reactions {
		if err := c.upsertReaction(ctx, service.ID, definition); err != nil {
			return err
		}
	}

	c.logger.InfoContext(ctx, "Catalog synced",
		"service_id", service.ID,
		"actions", len(manifest.Actions),
		"reactions", len(manifest.Reactions),
	)

	return nil
}

// SyncAll syncs every active service; per-service failures are logged and
// do not stop the others.
func (c *Catalog) SyncAll(ctx context.Context) error {
	servicesList, err := c.persistence.CatalogRepository().Services(ctx)
	if err != nil {
		return err
	}

	for _, service := range servicesList {
		if !service.IsActive {
			continue
		}

		if err := c.SyncService(ctx, service.ID); err != nil {
			c.logger.WarnContext(ctx, "Catalog sync failed", "service_id", service.ID, "error", err)
		}
	}

	return nil
}

func (c *Catalog) fetchManifest(ctx context.Context, baseURL string) (*areaManifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/area", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("service returned status %d", resp.StatusCode)
	}

	var manifest areaManifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	return &manifest, nil
}

func (c *Catalog) upsertAction(ctx context.Context, serviceID string, definition areaDefinition) error {
	action, err := c.persistence.CatalogRepository().ActionByName(ctx, serviceID, definition.Name)
	if err != nil {
		if !persistence.IsNotFound(err) {
			return err
		}

		action = &models.Action{ID: uuid.New().String(), ServiceID: serviceID, Name: definition.Name}
	}

	action.Description = definition.Description
	action.ConfigSchema = definition.ConfigSchema

	return c.persistence.CatalogRepository().SaveAction(ctx, action)
}

func (c *Catalog) upsertReaction(ctx context.Context, serviceID string, definition areaDefinition) error {
	reaction, err := c.persistence.CatalogRepository().ReactionByName(ctx, serviceID, definition.Name)
	if err != nil {
		if !persistence.IsNotFound(err) {
			return err
		}

		reaction = &models.Reaction{ID: uuid.New().String(), ServiceID: serviceID, Name: definition.Name}
	}

	reaction.Description = definition.Description
	reaction.ConfigSchema = definition.ConfigSchema

	return c.persistence.CatalogRepository().SaveReaction(ctx, reaction)
}
