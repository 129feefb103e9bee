// Package config provides configuration loading for the trigger daemon.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TriggerConfigFile is the structure of the triggers.yaml file. Queue
// settings override the daemon's flag defaults when present; each schedule
// entry is handed to the schedule trigger as-is.
type TriggerConfigFile struct {
	Queue     *QueueConfig     `yaml:"queue"`
	Schedules []map[string]any `yaml:"schedules"`
}

// QueueConfig configures the Redis queue trigger.
type QueueConfig struct {
	Name       string            `yaml:"name"`
	Connection map[string]string `yaml:"connection"`
}

// LoadTriggerConfig loads the trigger daemon configuration from a YAML file.
func LoadTriggerConfig(filepath string) (TriggerConfigFile, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return TriggerConfigFile{}, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	var configFile TriggerConfigFile
	if err := yaml.Unmarshal(data, &configFile); err != nil {
		return TriggerConfigFile{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return configFile, nil
}
