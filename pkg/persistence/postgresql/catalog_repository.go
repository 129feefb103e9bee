package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stellivo/areaflow/pkg/models"
	"github.com/stellivo/areaflow/pkg/persistence"
)

// CatalogRepository handles service, action and reaction database operations.
type CatalogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *sql.DB, logger *slog.Logger) *CatalogRepository {
	return &CatalogRepository{db: db, logger: logger}
}

func (cr *CatalogRepository) Services(ctx context.Context) ([]*models.Service, error) {
	query := `
		SELECT id, name, base_url, is_active, created_at, updated_at
		FROM services
		ORDER BY name
	`

	rows, err := cr.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			cr.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var services []*models.Service

	for rows.Next() {
		service, err := cr.scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}

		services = append(services, service)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating services: %w", err)
	}

	return services, nil
}

func (cr *CatalogRepository) ServiceByID(ctx context.Context, id string) (*models.Service, error) {
	query := `
		SELECT id, name, base_url, is_active, created_at, updated_at
		FROM services
		WHERE id = $1
	`

	row := cr.db.QueryRowContext(ctx, query, id)

	service, err := cr.scanService(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrServiceNotFound
		}

		return nil, fmt.Errorf("failed to scan service: %w", err)
	}

	return service, nil
}

func (cr *CatalogRepository) SaveService(ctx context.Context, service *models.Service) error {
	query := `
		INSERT INTO services (id, name, base_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			base_url = EXCLUDED.base_url,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := cr.db.ExecContext(ctx, query,
		service.ID,
		service.Name,
		service.BaseURL,
		service.IsActive,
		service.CreatedAt,
		service.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save service: %w", err)
	}

	return nil
}

func (cr *CatalogRepository) ActionByID(ctx context.Context, id string) (*models.Action, error) {
	query := `
		SELECT id, service_id, name, description, config_schema
		FROM actions
		WHERE id = $1
	`

	return cr.getAction(ctx, query, id)
}

func (cr *CatalogRepository) ActionByName(ctx context.Context, serviceID, name string) (*models.Action, error) {
	query := `
		SELECT id, service_id, name, description, config_schema
		FROM actions
		WHERE service_id = $1 AND name = $2
	`

	return cr.getAction(ctx, query, serviceID, name)
}

func (cr *CatalogRepository) ActionsByService(ctx context.Context, serviceID string) ([]*models.Action, error) {
	query := `
		SELECT id, service_id, name, description, config_schema
		FROM actions
		WHERE service_id = $1
		ORDER BY name
	`

	rows, err := cr.db.QueryContext(ctx, query, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			cr.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var actions []*models.Action

	for rows.Next() {
		action, err := cr.scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}

		actions = append(actions, action)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating actions: %w", err)
	}

	return actions, nil
}

func (cr *CatalogRepository) SaveAction(ctx context.Context, action *models.Action) error {
	schemaJSON, err := marshalSchema(action.ConfigSchema)
	if err != nil {
		return fmt.Errorf("failed to marshal action config schema: %w", err)
	}

	query := `
		INSERT INTO actions (id, service_id, name, description, config_schema)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			config_schema = EXCLUDED.config_schema
	`

	_, err = cr.db.ExecContext(ctx, query,
		action.ID,
		action.ServiceID,
		action.Name,
		action.Description,
		schemaJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save action: %w", err)
	}

	return nil
}

func (cr *CatalogRepository) ReactionByID(ctx context.Context, id string) (*models.Reaction, error) {
	query := `
		SELECT id, service_id, name, description, config_schema
		FROM reactions
		WHERE id = $1
	`

	return cr.getReaction(ctx, query, id)
}

func (cr *CatalogRepository) ReactionByName(ctx context.Context, serviceID, name string) (*models.Reaction, error) {
	query := `
		SELECT id, service_id, name, description, config_schema
		FROM reactions
		WHERE service_id = $1 AND name = $2
	`

	return cr.getReaction(ctx, query, serviceID, name)
}

func (cr *CatalogRepository) ReactionsByService(ctx context.Context, serviceID string) ([]*models.Reaction, error) {
	query := `
		SELECT id, service_id, name, description, config_schema
		FROM reactions
		WHERE service_id = $1
		ORDER BY name
	`

	rows, err := cr.db.QueryContext(ctx, query, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reactions: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			cr.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var reactions []*models.Reaction

	for rows.Next() {
		reaction, err := cr.scanReaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}

		reactions = append(reactions, reaction)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reactions: %w", err)
	}

	return reactions, nil
}

func (cr *CatalogRepository) SaveReaction(ctx context.Context, reaction *models.Reaction) error {
	schemaJSON, err := marshalSchema(reaction.ConfigSchema)
	if err != nil {
		return fmt.Errorf("failed to marshal reaction config schema: %w", err)
	}

	query := `
		INSERT INTO reactions (id, service_id, name, description, config_schema)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			config_schema = EXCLUDED.config_schema
	`

	_, err = cr.db.ExecContext(ctx, query,
		reaction.ID,
		reaction.ServiceID,
		reaction.Name,
		reaction.Description,
		schemaJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save reaction: %w", err)
	}

	return nil
}

func (cr *CatalogRepository) getAction(ctx context.Context, query string, args ...any) (*models.Action, error) {
	row := cr.db.QueryRowContext(ctx, query, args...)

	action, err := cr.scanAction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrActionNotFound
		}

		return nil, fmt.Errorf("failed to scan action: %w", err)
	}

	return action, nil
}

func (cr *CatalogRepository) getReaction(ctx context.Context, query string, args ...any) (*models.Reaction, error) {
	row := cr.db.QueryRowContext(ctx, query, args...)

	reaction, err := cr.scanReaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrReactionNotFound
		}

		return nil, fmt.Errorf("failed to scan reaction: %w", err)
	}

	return reaction, nil
}

func (cr *CatalogRepository) scanService(scanner interface {
	Scan(dest ...any) error
}) (*models.Service, error) {
	var service models.Service

	err := scanner.Scan(
		&service.ID,
		&service.Name,
		&service.BaseURL,
		&service.IsActive,
		&service.CreatedAt,
		&service.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &service, nil
}

func (cr *CatalogRepository) scanAction(scanner interface {
	Scan(dest ...any) error
}) (*models.Action, error) {
	var (
		action     models.Action
		schemaJSON []byte
	)

	err := scanner.Scan(
		&action.ID,
		&action.ServiceID,
		&action.Name,
		&action.Description,
		&schemaJSON,
	)
	if err != nil {
		return nil, err
	}

	if schemaJSON != nil {
		err := json.Unmarshal(schemaJSON, &action.ConfigSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal action config schema: %w", err)
		}
	}

	return &action, nil
}

func (cr *CatalogRepository) scanReaction(scanner interface {
	Scan(dest ...any) error
}) (*models.Reaction, error) {
	var (
		reaction   models.Reaction
		schemaJSON []byte
	)

	err := scanner.Scan(
		&reaction.ID,
		&reaction.ServiceID,
		&reaction.Name,
		&reaction.Description,
		&schemaJSON,
	)
	if err != nil {
		return nil, err
	}

	if schemaJSON != nil {
		err := json.Unmarshal(schemaJSON, &reaction.ConfigSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal reaction config schema: %w", err)
		}
	}

	return &reaction, nil
}

func marshalSchema(schema map[string]any) ([]byte, error) {
	if schema == nil {
		return nil, nil
	}

	return json.Marshal(schema)
}
