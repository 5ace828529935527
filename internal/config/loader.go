package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load loads the configuration from file. A missing file yields the defaults;
// environment variables prefixed with ORCH override file values.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath == "" {
		return cfg, nil
	}

	if _, err := os.Stat(l.configPath); os.IsNotExist(err) {
		// Return default config if file doesn't exist
		return cfg, nil
	}

	// Setup viper
	v := viper.New()
	v.SetConfigFile(l.configPath)
	v.SetConfigType("json")

	// Read environment variables
	v.SetEnvPrefix("ORCH")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into config struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	return l.configPath
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	loader := NewLoader(configPath)
	return loader.Load()
}
