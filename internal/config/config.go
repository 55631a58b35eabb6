// Package config loads and validates the kernel's configuration record
// (§6, §7), generalized from the reference engine's per-subsystem
// Default*Config() constructors into a single YAML-backed record with
// compiled-in defaults.
package config

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the kernel's full configuration record (§6).
type Config struct {
	Population        int     `yaml:"population"`
	Regions           int     `yaml:"regions"`
	AvgConnections    int     `yaml:"avgConnections"`
	RewireProb        float64 `yaml:"rewireProb"`
	StepSize          float64 `yaml:"stepSize"`
	SimFloor          float64 `yaml:"simFloor"`
	UseMeanField      bool    `yaml:"useMeanField"`
	Seed              int64   `yaml:"seed"`
	StartCondition    string  `yaml:"startCondition"`
	TicksPerYear      int     `yaml:"ticksPerYear"`
	MaxAgeYears       int     `yaml:"maxAgeYears"`
	RegionCapacity    int     `yaml:"regionCapacity"`
	DemographyEnabled bool    `yaml:"demographyEnabled"`
}

// ConfigError names the offending field on a fatal validation failure
// (§7 "Configuration invalid").
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: field %q: %s", e.Field, e.Reason)
}

// Default returns the compiled-in default configuration.
func Default() Config {
	var c Config
	if err := yaml.Unmarshal(defaultsYAML, &c); err != nil {
		panic("config: embedded defaults.yaml is malformed: " + err.Error())
	}
	return c
}

// Load merges YAML data (the contents of a config file) over the compiled
// defaults. Empty data returns the defaults unchanged.
func Load(data []byte) (Config, error) {
	c := Default()
	if len(data) == 0 {
		return c, nil
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("config: parse: %w", err)
	}
	return c, nil
}

// Validate implements the fatal checks in §7: non-positive population,
// regions, ticksPerYear, maxAgeYears, or regionCapacity.
func (c Config) Validate() error {
	switch {
	case c.Population < 1:
		return &ConfigError{Field: "population", Reason: "must be >= 1"}
	case c.Regions < 1:
		return &ConfigError{Field: "regions", Reason: "must be >= 1"}
	case c.TicksPerYear < 1:
		return &ConfigError{Field: "ticksPerYear", Reason: "must be >= 1"}
	case c.MaxAgeYears < 1:
		return &ConfigError{Field: "maxAgeYears", Reason: "must be >= 1"}
	case c.RegionCapacity < 1:
		return &ConfigError{Field: "regionCapacity", Reason: "must be >= 1"}
	case c.RewireProb < 0 || c.RewireProb > 1:
		return &ConfigError{Field: "rewireProb", Reason: "must be in [0,1]"}
	}
	return nil
}
