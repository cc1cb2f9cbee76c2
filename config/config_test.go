package config

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFor(t *testing.T, args ...string) *Config {
	t.Helper()
	cfg, err := parse(flag.NewFlagSet("test", flag.ContinueOnError), args)
	require.NoError(t, err)
	return cfg
}

func TestParse_Defaults(t *testing.T) {
	cfg := parseFor(t)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "./data/hoa.db", cfg.DBPath)
	assert.Equal(t, "300", cfg.BaseFee)
	assert.Equal(t, time.Hour, cfg.SchedulerInterval)
	assert.True(t, cfg.SchedulerEnabled)
}

func TestParse_FlagsOverrideDefaults(t *testing.T) {
	cfg := parseFor(t, "-addr", ":9090", "-scheduler=false")

	assert.Equal(t, ":9090", cfg.Addr)
	assert.False(t, cfg.SchedulerEnabled)
}

func TestParse_EnvironmentWinsOverFlags(t *testing.T) {
	t.Setenv("HOA_ADDR", ":7070")
	t.Setenv("HOA_BASE_FEE", "450")

	cfg := parseFor(t, "-addr", ":9090", "-base-fee", "100")

	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, "450", cfg.BaseFee)
}

func TestParse_FalseInEnvironmentDisablesScheduler(t *testing.T) {
	// GIVEN: HOA_SCHEDULER_ENABLED=false in the environment
	// WHEN: Parsing with the flag left at its default of true
	// THEN: The scheduler is disabled; a zero env value is not "unset"

	t.Setenv("HOA_SCHEDULER_ENABLED", "false")

	cfg := parseFor(t)

	assert.False(t, cfg.SchedulerEnabled)
}

func TestParse_ZeroIntervalInEnvironmentIsHonored(t *testing.T) {
	t.Setenv("HOA_SCHEDULER_INTERVAL", "0s")

	cfg := parseFor(t)

	assert.Equal(t, time.Duration(0), cfg.SchedulerInterval)
}
