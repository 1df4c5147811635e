package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finadvisor/internal/calculator"
	"finadvisor/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no .env

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "finadvisor", cfg.App.Name)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.False(t, cfg.Postgres.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "advice.requests", cfg.Kafka.RequestTopic)
	assert.Equal(t, "advice.responses", cfg.Kafka.ResponseTopic)

	assert.Equal(t, 1000, cfg.Advisor.MonteCarloTrials)
	assert.Equal(t, uint64(0), cfg.Advisor.MonteCarloSeed)
	assert.Equal(t, 30, cfg.Advisor.RetirementYears)
	assert.InDelta(t, 0.03, cfg.Advisor.InflationRate, 1e-12)
	assert.InDelta(t, 0.04, cfg.Advisor.SafeWithdrawalRate, 1e-12)
	assert.InDelta(t, 3.0, cfg.Advisor.AvalancheSpread, 1e-12)
	assert.Equal(t, 73, cfg.Advisor.RMDStartAge)
	assert.Equal(t, 5, cfg.Advisor.DisplayCap)
	assert.Equal(t, 10*time.Minute, cfg.Advisor.ProfileCacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.Workers.AssumptionsRefreshInterval)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ADVISOR_MC_TRIALS", "20000")
	t.Setenv("ADVISOR_MC_SEED", "99")
	t.Setenv("ADVISOR_RMD_START_AGE", "75")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20000, cfg.Advisor.MonteCarloTrials, "clamping is the engine's job")
	assert.Equal(t, uint64(99), cfg.Advisor.MonteCarloSeed)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)

	opts := cfg.Advisor.CalculatorOptions()
	assert.Equal(t, 20000, opts.Trials)
	assert.Equal(t, 75, opts.RMDStartAge)
	assert.Equal(t, calculator.DefaultOptions().Workers, opts.Workers)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		t.Chdir(t.TempDir())
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, "HTTP_PORT"},
		{"no trials", func(c *Config) { c.Advisor.MonteCarloTrials = 0 }, "ADVISOR_MC_TRIALS"},
		{"negative inflation", func(c *Config) { c.Advisor.InflationRate = -0.01 }, "ADVISOR_INFLATION_RATE"},
		{"withdrawal rate of one", func(c *Config) { c.Advisor.SafeWithdrawalRate = 1 }, "ADVISOR_SAFE_WITHDRAWAL_RATE"},
		{"no display cap", func(c *Config) { c.Advisor.DisplayCap = 0 }, "ADVISOR_DISPLAY_CAP"},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil }, "KAFKA_BROKERS"},
		{"sentry without dsn", func(c *Config) { c.ErrorTracking.Enabled = true }, "SENTRY_DSN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
