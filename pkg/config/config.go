// Package config loads the framework configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config errors.
var (
	ErrNoPorts         = errors.New("configuration declares no ports")
	ErrDuplicatePortID = errors.New("duplicate port ID")
)

// Port configures one power port.
type Port struct {
	// ID is the power-policy device ID assigned to the port.
	ID uint8 `yaml:"id"`

	// MaxCurrentMA caps the current the port may sink, 0 for no cap.
	MaxCurrentMA uint16 `yaml:"maxCurrentMa"`
}

// Config is the top-level framework configuration.
type Config struct {
	// Ports lists the power ports the controller exposes.
	Ports []Port `yaml:"ports"`

	// ConsumerBudgetMW caps the total power the system may sink across
	// all ports, 0 for no cap.
	ConsumerBudgetMW uint32 `yaml:"consumerBudgetMw"`

	// EventLog is the flight-recorder output path, empty to disable.
	EventLog string `yaml:"eventLog"`
}

// Default returns the configuration used when no file is given:
// two unconstrained ports and no flight recorder.
func Default() *Config {
	return &Config{
		Ports: []Port{{ID: 0}, {ID: 1}},
	}
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	if len(c.Ports) == 0 {
		return ErrNoPorts
	}
	seen := make(map[uint8]bool, len(c.Ports))
	for _, p := range c.Ports {
		if seen[p.ID] {
			return fmt.Errorf("%w: %d", ErrDuplicatePortID, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}
