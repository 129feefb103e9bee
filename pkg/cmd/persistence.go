// Package cmd provides shared construction helpers for the binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/stellivo/areaflow/pkg/persistence"
	"github.com/stellivo/areaflow/pkg/persistence/memory"
	"github.com/stellivo/areaflow/pkg/persistence/postgresql"
)

// NewPersistence selects the backing store from the database URL scheme.
// postgres:// and postgresql:// connect to PostgreSQL; anything else falls
// back to the in-memory store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		logger.WarnContext(ctx, "No supported database URL given, using in-memory persistence")

		return memory.NewPersistence(), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.Split(databaseURL, "://")

	return parts[0]
}
