package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Advice pipeline metrics
	AdviceRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finadvisor_advice_requests_total",
			Help: "Total number of advice requests",
		},
		[]string{"domain", "intent", "status"}, // status: answered|general|needs_more_information|error
	)

	AdviceLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finadvisor_advice_latency_seconds",
			Help:    "Advice pipeline latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"domain"},
	)

	ClassificationConfidence = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finadvisor_classification_confidence",
			Help:    "Intent classifier confidence",
			Buckets: []float64{0, 0.17, 0.34, 0.5, 0.67, 0.84, 1},
		},
		[]string{"domain"},
	)

	Calculations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finadvisor_calculations_total",
			Help: "Calculator results produced, by kind",
		},
		[]string{"kind"},
	)

	MonteCarloTrials = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "finadvisor_monte_carlo_trials",
			Help:    "Trials per Monte Carlo simulation",
			Buckets: []float64{100, 500, 1000, 2500, 5000, 10000},
		},
	)

	MonteCarloSuccess = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "finadvisor_monte_carlo_success_probability",
			Help:    "Simulated retirement success probability",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finadvisor_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// Job metrics
	AdviceJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finadvisor_advice_jobs_total",
			Help: "Advice jobs consumed from Kafka",
		},
		[]string{"status"}, // status: success|invalid|error
	)

	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finadvisor_kafka_messages_total",
			Help: "Total Kafka messages",
		},
		[]string{"topic", "direction"}, // direction: produced|consumed
	)

	// Storage metrics
	ProfileCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finadvisor_profile_cache_total",
			Help: "Profile cache lookups",
		},
		[]string{"result"}, // result: hit|miss|error
	)

	AuditRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finadvisor_audit_rows_total",
			Help: "Advice audit rows written",
		},
		[]string{"status"}, // status: success|error
	)

	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finadvisor_db_queries_total",
			Help: "Total database queries",
		},
		[]string{"database", "operation", "status"},
	)

	DBQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finadvisor_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"database", "operation"},
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finadvisor_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finadvisor_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "finadvisor_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	ReturnAssumption = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "finadvisor_return_assumption",
			Help: "Current capital market assumption per asset class",
		},
		[]string{"asset_class", "stat"}, // stat: mean|std_dev
	)
)

var registerOnce sync.Once

// Init registers all metrics with Prometheus. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			AdviceRequests,
			AdviceLatency,
			ClassificationConfidence,
			Calculations,
			MonteCarloTrials,
			MonteCarloSuccess,
			RateLimited,
			AdviceJobs,
			KafkaMessages,
			ProfileCache,
			AuditRows,
			DBQueries,
			DBQueryDuration,
			WorkerExecutions,
			WorkerDuration,
			WorkerLastRun,
			ReturnAssumption,
		)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAdvice records one pipeline run
func RecordAdvice(domain, intent, status string, confidence float64, latency time.Duration) {
	AdviceRequests.WithLabelValues(domain, intent, status).Inc()
	AdviceLatency.WithLabelValues(domain).Observe(latency.Seconds())
	ClassificationConfidence.WithLabelValues(domain).Observe(confidence)
}

// RecordCalculations counts produced calculator results
func RecordCalculations(kinds []string) {
	for _, k := range kinds {
		Calculations.WithLabelValues(k).Inc()
	}
}

// RecordMonteCarlo records a finished simulation
func RecordMonteCarlo(trials int, successProbability float64) {
	MonteCarloTrials.Observe(float64(trials))
	MonteCarloSuccess.Observe(successProbability)
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordDBQuery records a database query
func RecordDBQuery(database, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	DBQueries.WithLabelValues(database, operation, status).Inc()
	DBQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}

// RecordCacheLookup records a profile cache hit, miss or error
func RecordCacheLookup(result string) {
	ProfileCache.WithLabelValues(result).Inc()
}

// RecordAuditFlush records a flushed audit batch
func RecordAuditFlush(rows int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	AuditRows.WithLabelValues(status).Add(float64(rows))
}

// RecordAssumption publishes a refreshed return assumption
func RecordAssumption(assetClass string, mean, stdDev float64) {
	ReturnAssumption.WithLabelValues(assetClass, "mean").Set(mean)
	ReturnAssumption.WithLabelValues(assetClass, "std_dev").Set(stdDev)
}
