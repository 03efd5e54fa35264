// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config collects every knob of a run. Endpoint and key are required; the
// rest default to the service's conventional values. ANALYZE_TIMEOUT of zero
// leaves the poll loop unbounded.
type Config struct {
	Endpoint     string        `envconfig:"AZURE_ENDPOINT" required:"true"`
	APIKey       string        `envconfig:"AZURE_API_KEY" required:"true"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	PollJitter   time.Duration `envconfig:"POLL_JITTER" default:"0s"`
	Timeout      time.Duration `envconfig:"ANALYZE_TIMEOUT" default:"0s"`
	MaxPages     int           `envconfig:"MAX_PAGES" default:"2"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the configuration from process environment variables.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
