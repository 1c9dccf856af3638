package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "creatorlog"

var (
	// HTTP
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds, by endpoint, method and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "method", "status"})

	RequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	// Case data
	SheetFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cases",
		Name:      "sheet_fetch_total",
		Help:      "Sheet fetch attempts, by result (ok, upstream, malformed).",
	}, []string{"result"})

	CaseSourceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cases",
		Name:      "dataset_loads_total",
		Help:      "Case datasets loaded, by the source that served them.",
	}, []string{"source"})

	CasesLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "cases",
		Name:      "loaded",
		Help:      "Number of cases in the most recently loaded dataset.",
	})

	// Upstreams
	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Outbound request duration, by upstream, operation and result.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	}, []string{"upstream", "operation", "result"})

	RateLimitWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "rate_limit_waits_total",
		Help:      "Outbound calls that had to wait for a rate limiter token.",
	}, []string{"upstream"})

	// Cache
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Cache hits, by tier (memory, redis).",
	}, []string{"tier"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Cache misses, by tier (memory, redis).",
	}, []string{"tier"})

	// Grading
	GradesComputed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "grader",
		Name:      "grades_computed_total",
		Help:      "Grades computed from fresh market data, by final letter.",
	}, []string{"grade"})

	// Workers
	RefreshTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "worker",
		Name:      "refresh_duration_seconds",
		Help:      "Duration of background case refreshes.",
		Buckets:   prometheus.DefBuckets,
	})
)

// RegisterPool exposes live pgxpool stats. Safe to call with a nil pool.
func RegisterPool(pool *pgxpool.Pool) {
	if pool == nil {
		return
	}
	prometheus.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "connection_pool_active",
			Help:      "Number of active database connections.",
		}, func() float64 { return float64(pool.Stat().AcquiredConns()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "connection_pool_idle",
			Help:      "Number of idle database connections.",
		}, func() float64 { return float64(pool.Stat().IdleConns()) }),
	)
}

// Result classifies an outbound call for metric labels.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
