package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const ConfigFileName = "trashdash.yaml"

// Config is the per-project configuration checked into each app's working
// directory. It names which app this checkout is (customer, dasher or
// admin) and optionally overrides the backend URL.
type Config struct {
	App    string `yaml:"app"`
	APIURL string `yaml:"api_url,omitempty"`
}

// knownApps are the three TrashDash apps.
var knownApps = map[string]bool{
	"customer": true,
	"dasher":   true,
	"admin":    true,
}

// Validate checks the config names a known app.
func (c *Config) Validate() error {
	if c.App == "" {
		return fmt.Errorf("app is empty. Please edit %s and set app to customer, dasher or admin", ConfigFileName)
	}
	if !knownApps[c.App] {
		return fmt.Errorf("unknown app %q, must be one of: customer, dasher, admin", c.App)
	}
	return nil
}

// LoadFromCurrentDir reads trashdash.yaml from the working directory.
func LoadFromCurrentDir() (*Config, error) {
	data, err := os.ReadFile(ConfigFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ConfigFileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFileName, err)
	}
	return &cfg, nil
}

// Save writes the config to the working directory.
func Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(ConfigFileName, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ConfigFileName, err)
	}
	return nil
}
