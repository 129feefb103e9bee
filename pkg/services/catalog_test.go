package services

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellivo/areaflow/pkg/persistence/memory"
)

func TestRegisterServiceSyncsCatalog(t *testing.T) {
	manifest := `{
		"actions": [{"name": "new_message", "description": "A message arrived"}],
		"reactions": [{"name": "send_message", "configSchema": {"type": "object"}}]
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/area", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(manifest))
	}))
	defer server.Close()

	persist := memory.NewPersistence()
	catalog := NewCatalog(persist, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	service, err := catalog.RegisterService(ctx, RegisterServiceRequest{Name: "chat", BaseURL: server.URL})
	require.NoError(t, err)

	actions, err := persist.CatalogRepository().ActionsByService(ctx, service.ID)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "new_message", actions[0].Name)
	assert.Equal(t, "A message arrived", actions[0].Description)

	reactions, err := persist.CatalogRepository().ReactionsByService(ctx, service.ID)
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, map[string]any{"type": "object"}, reactions[0].ConfigSchema)
}

func TestSyncServiceKeepsIDsStable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"actions": [{"name": "new_message", "description": "updated"}], "reactions": []}`))
	}))
	defer server.Close()

	persist := memory.NewPersistence()
	catalog := NewCatalog(persist, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	service, err := catalog.RegisterService(ctx, RegisterServiceRequest{Name: "chat", BaseURL: server.URL})
	require.NoError(t, err)

	first, err := persist.CatalogRepository().ActionsByService(ctx, service.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	require.NoError(t, catalog.SyncService(ctx, service.ID))

	second, err := persist.CatalogRepository().ActionsByService(ctx, service.ID)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, "updated", second[0].Description)
}

func TestRegisterServiceValidation(t *testing.T) {
	persist := memory.NewPersistence()
	catalog := NewCatalog(persist, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := catalog.RegisterService(context.Background(), RegisterServiceRequest{Name: "", BaseURL: ""})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestSyncServiceUnreachable(t *testing.T) {
	persist := memory.NewPersistence()
	catalog := NewCatalog(persist, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	// Registration succeeds even when the initial sync cannot reach the
	// service.
	service, err := catalog.RegisterService(ctx, RegisterServiceRequest{Name: "chat", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	err = catalog.SyncService(ctx, service.ID)
	require.Error(t, err)
}
