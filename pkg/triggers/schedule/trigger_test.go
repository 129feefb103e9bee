package schedule

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrigger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	valid := map[string]any{
		"id":         "daily-digest",
		"cron":       "0 9 * * *",
		"service_id": "svc-1",
		"action":     "daily_digest",
		"user_id":    7,
	}

	tests := []struct {
		name        string
		mutate      func(map[string]any)
		expectError string
	}{
		{
			name:   "valid_config",
			mutate: func(_ map[string]any) {},
		},
		{
			name:        "missing_id",
			mutate:      func(c map[string]any) { delete(c, "id") },
			expectError: "schedule trigger ID is required",
		},
		{
			name:        "missing_cron",
			mutate:      func(c map[string]any) { delete(c, "cron") },
			expectError: "cron expression is required",
		},
		{
			name:        "invalid_cron",
			mutate:      func(c map[string]any) { c["cron"] = "not a cron" },
			expectError: "invalid cron expression",
		},
		{
			name:        "missing_action",
			mutate:      func(c map[string]any) { delete(c, "action") },
			expectError: "service_id and action",
		},
		{
			name:        "missing_user",
			mutate:      func(c map[string]any) { delete(c, "user_id") },
			expectError: "user_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := map[string]any{}
			for k, v := range valid {
				config[k] = v
			}

			tt.mutate(config)

			trigger, err := NewTrigger(config, logger)

			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				assert.Nil(t, trigger)
			} else {
				require.NoError(t, err)
				require.NotNil(t, trigger)
				assert.Equal(t, int64(7), trigger.UserID)
			}
		})
	}
}

func TestNewTriggerUserIDFromJSONNumber(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// JSON decoding hands numbers over as float64.
	trigger, err := NewTrigger(map[string]any{
		"id":         "digest",
		"cron":       "*/5 * * * *",
		"service_id": "svc-1",
		"action":     "poll",
		"user_id":    float64(42),
	}, logger)
	require.NoError(t, err)
	assert.Equal(t, int64(42), trigger.UserID)
}
