package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTriggerConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triggers.yaml")

	content := `
queue:
  name: areaflow_events
  connection:
    addr: redis.internal:6379
    db: "1"
schedules:
  - id: daily-digest
    cron: "0 9 * * *"
    service_id: svc-1
    action: daily_digest
    user_id: 7
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	config, err := LoadTriggerConfig(path)
	require.NoError(t, err)

	require.NotNil(t, config.Queue)
	assert.Equal(t, "areaflow_events", config.Queue.Name)
	assert.Equal(t, "redis.internal:6379", config.Queue.Connection["addr"])

	require.Len(t, config.Schedules, 1)
	assert.Equal(t, "daily-digest", config.Schedules[0]["id"])
	assert.Equal(t, "0 9 * * *", config.Schedules[0]["cron"])
}

func TestLoadTriggerConfigMissingFile(t *testing.T) {
	_, err := LoadTriggerConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadTriggerConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triggers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("queue: [broken"), 0o600))

	_, err := LoadTriggerConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML config")
}
