package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"finadvisor/internal/calculator"
	"finadvisor/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	ErrorTracking ErrorTrackingConfig
	Advisor       AdvisorConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"finadvisor"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type HTTPConfig struct {
	Port            int           `envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	MaxBodyBytes    int64         `envconfig:"HTTP_MAX_BODY_BYTES" default:"1048576"`

	// Per-client token bucket; RateLimitRPS <= 0 disables limiting
	RateLimitRPS   float64       `envconfig:"HTTP_RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst int           `envconfig:"HTTP_RATE_LIMIT_BURST" default:"10"`
	RateLimitIdle  time.Duration `envconfig:"HTTP_RATE_LIMIT_IDLE" default:"10m"`
}

type PostgresConfig struct {
	Enabled  bool   `envconfig:"POSTGRES_ENABLED" default:"false"`
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"postgres"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"finadvisor"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	Enabled       bool          `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	Host          string        `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port          int           `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User          string        `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password      string        `envconfig:"CLICKHOUSE_PASSWORD"`
	Database      string        `envconfig:"CLICKHOUSE_DB" default:"finadvisor"`
	BatchSize     int           `envconfig:"CLICKHOUSE_BATCH_SIZE" default:"500"`
	FlushInterval time.Duration `envconfig:"CLICKHOUSE_FLUSH_INTERVAL" default:"5s"`
}

type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled       bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers       []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	GroupID       string   `envconfig:"KAFKA_GROUP_ID" default:"finadvisor"`
	RequestTopic  string   `envconfig:"KAFKA_ADVICE_REQUEST_TOPIC" default:"advice.requests"`
	ResponseTopic string   `envconfig:"KAFKA_ADVICE_RESPONSE_TOPIC" default:"advice.responses"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// AdvisorConfig holds the calculation and presentation assumptions
type AdvisorConfig struct {
	MonteCarloTrials    int           `envconfig:"ADVISOR_MC_TRIALS" default:"1000"`
	MonteCarloWorkers   int           `envconfig:"ADVISOR_MC_WORKERS" default:"4"`
	MonteCarloSeed      uint64        `envconfig:"ADVISOR_MC_SEED" default:"0"` // 0 derives a seed per request
	RetirementYears     int           `envconfig:"ADVISOR_RETIREMENT_YEARS" default:"30"`
	InflationRate       float64       `envconfig:"ADVISOR_INFLATION_RATE" default:"0.03"`
	DefaultContribution float64       `envconfig:"ADVISOR_DEFAULT_CONTRIBUTION" default:"10000"`
	SafeWithdrawalRate  float64       `envconfig:"ADVISOR_SAFE_WITHDRAWAL_RATE" default:"0.04"`
	AvalancheSpread     float64       `envconfig:"ADVISOR_AVALANCHE_SPREAD" default:"3.0"`
	RMDStartAge         int           `envconfig:"ADVISOR_RMD_START_AGE" default:"73"`
	ReturnWindow        int           `envconfig:"ADVISOR_RETURN_WINDOW" default:"30"`
	DisplayCap          int           `envconfig:"ADVISOR_DISPLAY_CAP" default:"5"`
	NextSteps           int           `envconfig:"ADVISOR_NEXT_STEPS" default:"3"`
	ProfileCacheTTL     time.Duration `envconfig:"ADVISOR_PROFILE_CACHE_TTL" default:"10m"`
	RequestTimeout      time.Duration `envconfig:"ADVISOR_REQUEST_TIMEOUT" default:"20s"`
}

// CalculatorOptions maps the advisor settings onto engine options.
// Trials above calculator.MaxTrials are clamped by the engine.
func (c AdvisorConfig) CalculatorOptions() calculator.Options {
	opts := calculator.DefaultOptions()
	opts.Trials = c.MonteCarloTrials
	opts.Workers = c.MonteCarloWorkers
	opts.RetirementYears = c.RetirementYears
	opts.InflationRate = c.InflationRate
	opts.DefaultContribution = c.DefaultContribution
	opts.SafeWithdrawalRate = c.SafeWithdrawalRate
	opts.AvalancheSpread = c.AvalancheSpread
	opts.RMDStartAge = c.RMDStartAge
	opts.ReturnWindow = c.ReturnWindow
	return opts
}

// WorkerConfig contains intervals for background workers
type WorkerConfig struct {
	AssumptionsRefreshEnabled  bool          `envconfig:"WORKER_ASSUMPTIONS_REFRESH_ENABLED" default:"true"`
	AssumptionsRefreshInterval time.Duration `envconfig:"WORKER_ASSUMPTIONS_REFRESH_INTERVAL" default:"24h"`
	LimiterSweepInterval       time.Duration `envconfig:"WORKER_LIMITER_SWEEP_INTERVAL" default:"1m"`
	ShutdownTimeout            time.Duration `envconfig:"WORKER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, cfg.Validate()
}

// Validate rejects settings no component can run with
func (c *Config) Validate() error {
	var errs errors.MultiError
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs.Add(errors.NewValidationError("HTTP_PORT", "must be a valid port", c.HTTP.Port))
	}
	if c.Advisor.MonteCarloTrials <= 0 {
		errs.Add(errors.NewValidationError("ADVISOR_MC_TRIALS", "must be positive", c.Advisor.MonteCarloTrials))
	}
	if c.Advisor.InflationRate < 0 {
		errs.Add(errors.NewValidationError("ADVISOR_INFLATION_RATE", "must be non-negative", c.Advisor.InflationRate))
	}
	if c.Advisor.SafeWithdrawalRate <= 0 || c.Advisor.SafeWithdrawalRate >= 1 {
		errs.Add(errors.NewValidationError("ADVISOR_SAFE_WITHDRAWAL_RATE", "must be between 0 and 1", c.Advisor.SafeWithdrawalRate))
	}
	if c.Advisor.DisplayCap <= 0 {
		errs.Add(errors.NewValidationError("ADVISOR_DISPLAY_CAP", "must be positive", c.Advisor.DisplayCap))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs.Add(errors.NewValidationError("KAFKA_BROKERS", "required when Kafka is enabled", c.Kafka.Brokers))
	}
	if c.ErrorTracking.Enabled && c.ErrorTracking.Provider == "sentry" && c.ErrorTracking.SentryDSN == "" {
		errs.Add(errors.NewValidationError("SENTRY_DSN", "required when Sentry tracking is enabled", ""))
	}
	return errs.ToError()
}
