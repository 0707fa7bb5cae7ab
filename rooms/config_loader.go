package rooms

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads the unified configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	// Validate required fields
	if config.MQTT.Broker == "" {
		return nil, fmt.Errorf("mqtt.broker is required")
	}
	if len(config.Plans) == 0 {
		return nil, fmt.Errorf("at least one plan must be defined")
	}

	// Validate plan configs
	for i, pc := range config.Plans {
		if pc.ID == "" {
			return nil, fmt.Errorf("plans[%d].id is required", i)
		}
		if pc.Topic == "" {
			return nil, fmt.Errorf("plans[%d].topic is required for %s", i, pc.ID)
		}
	}

	if config.SnapSize < 0 {
		return nil, fmt.Errorf("snapSize must not be negative")
	}
	if config.SimplifyTolerance < 0 {
		return nil, fmt.Errorf("simplifyTolerance must not be negative")
	}

	return &config, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
