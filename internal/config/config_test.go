package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Greater(t, cfg.Population, 0)
	assert.Greater(t, cfg.Regions, 0)
}

func TestLoad_EmptyOverridesNothing(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialOverride(t *testing.T) {
	cfg, err := Load([]byte("population: 1000\nseed: 7\n"))
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Population)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, Default().Regions, cfg.Regions)
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load([]byte("population: [this is not: valid"))
	require.Error(t, err)
}

func TestValidate_FatalCases(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c *Config)
		field   string
	}{
		{"population zero", func(c *Config) { c.Population = 0 }, "population"},
		{"regions negative", func(c *Config) { c.Regions = -1 }, "regions"},
		{"ticksPerYear zero", func(c *Config) { c.TicksPerYear = 0 }, "ticksPerYear"},
		{"maxAgeYears zero", func(c *Config) { c.MaxAgeYears = 0 }, "maxAgeYears"},
		{"regionCapacity zero", func(c *Config) { c.RegionCapacity = 0 }, "regionCapacity"},
		{"rewireProb above one", func(c *Config) { c.RewireProb = 1.5 }, "rewireProb"},
		{"rewireProb negative", func(c *Config) { c.RewireProb = -0.1 }, "rewireProb"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tc.field, cerr.Field)
		})
	}
}
