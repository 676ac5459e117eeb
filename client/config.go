package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/opticode/core/gateway"
	"github.com/opticode/core/storage"
)

// Config holds initialization parameters for all client subsystems.
// Each section delegates to that subsystem's config-driven constructor.
type Config struct {
	Storage storage.Config `json:"storage"`
	Gateway gateway.Config `json:"gateway"`
}

// DefaultConfig returns a Config with sensible defaults for all subsystems:
// in-memory storage and no gateway (the browser-only variant).
func DefaultConfig() Config {
	return Config{
		Storage: storage.DefaultConfig(),
		Gateway: gateway.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Storage.Merge(&source.Storage)
	c.Gateway.Merge(&source.Gateway)
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
