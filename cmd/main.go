package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	chadapter "finadvisor/internal/adapters/clickhouse"
	"finadvisor/internal/adapters/config"
	"finadvisor/internal/adapters/errors/noop"
	"finadvisor/internal/adapters/errors/sentry"
	kafkaadapter "finadvisor/internal/adapters/kafka"
	pgadapter "finadvisor/internal/adapters/postgres"
	"finadvisor/internal/adapters/ratelimit"
	redisadapter "finadvisor/internal/adapters/redis"
	"finadvisor/internal/agent"
	"finadvisor/internal/api"
	"finadvisor/internal/api/health"
	"finadvisor/internal/calculator"
	"finadvisor/internal/consumers"
	"finadvisor/internal/domain/profile"
	"finadvisor/internal/metrics"
	chrepo "finadvisor/internal/repository/clickhouse"
	pgrepo "finadvisor/internal/repository/postgres"
	redisrepo "finadvisor/internal/repository/redis"
	"finadvisor/internal/response"
	advicesvc "finadvisor/internal/services/advice"
	"finadvisor/internal/workers"
	"finadvisor/pkg/errors"
	"finadvisor/pkg/logger"
	"finadvisor/pkg/reconnect"
)

// Database holds the optional store clients; a nil field is disabled
type Database struct {
	Postgres   *pgadapter.Client
	ClickHouse *chadapter.Client
	Redis      *redisadapter.Client
}

// Close closes every open client
func (db *Database) Close(log *logger.Logger) {
	if db.Postgres != nil {
		if err := db.Postgres.Close(); err != nil {
			log.Warnw("Failed to close PostgreSQL", "error", err)
		}
	}
	if db.ClickHouse != nil {
		if err := db.ClickHouse.Close(); err != nil {
			log.Warnw("Failed to close ClickHouse", "error", err)
		}
	}
	if db.Redis != nil {
		if err := db.Redis.Close(); err != nil {
			log.Warnw("Failed to close Redis", "error", err)
		}
	}
}

// StoreCollector reports gauges for the enabled stores, nil when none is
func (db *Database) StoreCollector() *metrics.StoreCollector {
	if db.Postgres == nil && db.ClickHouse == nil && db.Redis == nil {
		return nil
	}

	var (
		pg  *sqlx.DB
		ch  driver.Conn
		rdb *redis.Client
	)
	if db.Postgres != nil {
		pg = db.Postgres.DB()
	}
	if db.ClickHouse != nil {
		ch = db.ClickHouse.Conn()
	}
	if db.Redis != nil {
		rdb = db.Redis.Client()
	}
	return metrics.NewStoreCollector(pg, ch, rdb)
}

// Components is everything started and stopped by main
type Components struct {
	Assumptions *calculator.AssumptionSet
	Service     *advicesvc.Service
	Audit       *chrepo.AuditRepository
	Limiter     *ratelimit.KeyedLimiter
	Server      *api.Server
	Scheduler   *workers.Scheduler
	JobConsumer *consumers.AdviceJobConsumer
	Producer    *kafkaadapter.Producer
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	log.Infof("Starting %s %s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Env)

	// Initialize error tracker
	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Init()

	connectCtx, stopConnecting := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	db, err := initDatabases(connectCtx, cfg, log)
	stopConnecting()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.Close(log)

	c, err := initComponents(cfg, db, log)
	if err != nil {
		log.Fatalf("Failed to initialize components: %v", err)
	}

	log.Info("System initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	startComponents(ctx, &wg, c, log)

	waitForShutdown(cancel, &wg, cfg, c, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initDatabases connects every enabled store, retrying each with backoff
func initDatabases(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Database, error) {
	db := &Database{}

	connect := func(name string, fn func(ctx context.Context) error) error {
		err := reconnect.NewManager(name, reconnect.Config{}, log).Connect(ctx, fn)
		if err != nil {
			db.Close(log)
			return err
		}
		log.Infof("✓ %s connected", name)
		return nil
	}

	if cfg.Postgres.Enabled {
		if err := connect("postgres", func(ctx context.Context) (err error) {
			db.Postgres, err = pgadapter.NewClient(ctx, cfg.Postgres)
			return err
		}); err != nil {
			return nil, err
		}
	}

	if cfg.ClickHouse.Enabled {
		if err := connect("clickhouse", func(ctx context.Context) error {
			client, err := chadapter.NewClient(ctx, cfg.ClickHouse)
			if err != nil {
				return err
			}
			if err := client.EnsureAuditTable(ctx); err != nil {
				_ = client.Close()
				return err
			}
			db.ClickHouse = client
			return nil
		}); err != nil {
			return nil, err
		}
	}

	if cfg.Redis.Enabled {
		if err := connect("redis", func(ctx context.Context) (err error) {
			db.Redis, err = redisadapter.NewClient(ctx, cfg.Redis)
			return err
		}); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// initComponents builds the pipeline and its transports over the enabled stores
func initComponents(cfg *config.Config, db *Database, log *logger.Logger) (*Components, error) {
	c := &Components{Assumptions: calculator.NewAssumptionSet()}

	engine := calculator.NewEngine(cfg.Advisor.CalculatorOptions(), c.Assumptions)
	generator := response.NewGenerator(nil,
		response.WithDisplayLimit(cfg.Advisor.DisplayCap),
		response.WithNextSteps(cfg.Advisor.NextSteps),
	)
	router, err := agent.NewRouter(engine, agent.WithResponseGenerator(generator))
	if err != nil {
		return nil, errors.Wrap(err, "build advice router")
	}

	opts := []advicesvc.Option{
		advicesvc.WithTimeout(cfg.Advisor.RequestTimeout),
		advicesvc.WithFixedSeed(cfg.Advisor.MonteCarloSeed),
	}
	if profiles := initProfileRepository(cfg, db, log); profiles != nil {
		opts = append(opts, advicesvc.WithProfiles(profiles))
	}
	if db.ClickHouse != nil {
		c.Audit = chrepo.NewAuditRepository(db.ClickHouse.Conn(), chrepo.AuditConfig{
			BatchSize:     cfg.ClickHouse.BatchSize,
			FlushInterval: cfg.ClickHouse.FlushInterval,
		})
		opts = append(opts, advicesvc.WithAudit(c.Audit))
	} else {
		log.Info("ClickHouse disabled, advice audit is logged only")
	}
	c.Service = advicesvc.NewService(router, opts...)

	// Store gauges
	if collector := db.StoreCollector(); collector != nil {
		if err := prometheus.Register(collector); err != nil {
			log.Warnw("Failed to register store collector", "error", err)
		}
	}

	// HTTP
	if cfg.HTTP.RateLimitRPS > 0 {
		c.Limiter = ratelimit.NewKeyedLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst, cfg.HTTP.RateLimitIdle)
	}
	healthHandler := health.New(cfg.App.Name, cfg.App.Version)
	if db.Postgres != nil {
		healthHandler.Register("postgres", db.Postgres)
	}
	if db.ClickHouse != nil {
		healthHandler.Register("clickhouse", db.ClickHouse)
	}
	if db.Redis != nil {
		healthHandler.Register("redis", db.Redis)
	}

	// Workers
	c.Scheduler = workers.NewScheduler(cfg.Workers.ShutdownTimeout)
	if db.Postgres != nil {
		c.Scheduler.RegisterWorker(workers.NewAssumptionsRefreshWorker(
			pgrepo.NewReturnSeriesRepository(db.Postgres.DB()),
			c.Assumptions,
			cfg.Advisor.ReturnWindow,
			cfg.Workers.AssumptionsRefreshInterval,
			cfg.Workers.AssumptionsRefreshEnabled,
		))
	}
	c.Scheduler.RegisterWorker(workers.NewLimiterSweepWorker(c.Limiter, cfg.Workers.LimiterSweepInterval))
	healthHandler.Register("workers", c.Scheduler)

	c.Server = api.NewServer(api.ServerConfig{
		Port:         cfg.HTTP.Port,
		ServiceName:  cfg.App.Name,
		Version:      cfg.App.Version,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}, c.Service, healthHandler, c.Limiter, log)

	// Kafka job layer
	if cfg.Kafka.Enabled {
		c.Producer = kafkaadapter.NewProducer(kafkaadapter.ProducerConfig{Brokers: cfg.Kafka.Brokers})
		consumer := kafkaadapter.NewConsumer(kafkaadapter.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.GroupID,
			Topic:   cfg.Kafka.RequestTopic,
		})
		c.JobConsumer = consumers.NewAdviceJobConsumer(consumer, c.Service, c.Producer, cfg.Kafka.ResponseTopic, log)
	} else {
		log.Info("Kafka disabled, serving HTTP only")
	}

	return c, nil
}

// initProfileRepository layers the Redis cache over Postgres when both are enabled.
// Returns nil when there is no profile store.
func initProfileRepository(cfg *config.Config, db *Database, log *logger.Logger) profile.Repository {
	if db.Postgres == nil {
		log.Info("PostgreSQL disabled, requests use their own context only")
		return nil
	}

	var repo profile.Repository = pgrepo.NewProfileRepository(db.Postgres.DB())
	if db.Redis != nil {
		repo = redisrepo.NewCachedProfileRepository(repo, db.Redis, cfg.Advisor.ProfileCacheTTL)
		log.Info("✓ Profile cache enabled")
	}
	return repo
}

// startComponents launches the long-running parts
func startComponents(ctx context.Context, wg *sync.WaitGroup, c *Components, log *logger.Logger) {
	if c.Audit != nil {
		c.Audit.Start(ctx)
	}

	if err := c.Scheduler.Start(ctx); err != nil {
		log.Errorw("Failed to start workers", "error", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := c.Server.Start(); err != nil {
			log.Errorw("HTTP server error", "error", err)
		}
	}()

	if c.JobConsumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.JobConsumer.Start(ctx); err != nil {
				log.Errorw("Advice job consumer error", "error", err)
			}
		}()
	}
}

// waitForShutdown waits for a signal, then stops intake first and sinks last
func waitForShutdown(cancel context.CancelFunc, wg *sync.WaitGroup, cfg *config.Config, c *Components, errorTracker errors.Tracker, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer done()

	if err := c.Server.Shutdown(shutdownCtx); err != nil {
		log.Warnw("HTTP shutdown failed", "error", err)
	}

	// Stops the job consumer and workers
	cancel()
	wg.Wait()

	if err := c.Scheduler.Stop(); err != nil {
		log.Warnw("Worker shutdown failed", "error", err)
	}

	if c.Producer != nil {
		if err := c.Producer.Close(); err != nil {
			log.Warnw("Failed to close Kafka producer", "error", err)
		}
	}

	if c.Audit != nil {
		flushCtx, flushDone := context.WithTimeout(context.Background(), 10*time.Second)
		if err := c.Audit.Stop(flushCtx); err != nil {
			log.Warnw("Failed to flush advice audit", "error", err)
		}
		flushDone()
	}

	if err := errorTracker.Flush(shutdownCtx); err != nil {
		log.Warnf("Failed to flush error tracker: %v", err)
	}

	log.Info("Shutdown complete")
}
