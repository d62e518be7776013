package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "token_layer",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "token_layer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "token_layer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	ledgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "token_layer",
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Total number of ledger operations by kind and outcome.",
		},
		[]string{"operation", "status"},
	)

	totalSupply = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "token_layer",
			Subsystem: "ledger",
			Name:      "total_supply",
			Help:      "Current total token supply in base units.",
		},
	)

	upkeepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "token_layer",
			Subsystem: "stabilization",
			Name:      "upkeep_runs_total",
			Help:      "Total number of stabilization upkeep runs.",
		},
		[]string{"outcome"},
	)

	upkeepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "token_layer",
			Subsystem: "stabilization",
			Name:      "upkeep_duration_seconds",
			Help:      "Duration of stabilization upkeep runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)

	priceDeviation = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "token_layer",
			Subsystem: "stabilization",
			Name:      "price_deviation_basis_points",
			Help:      "Last observed deviation of the oracle price from the peg.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ledgerOperations,
		totalSupply,
		upkeepRuns,
		upkeepDuration,
		priceDeviation,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordLedgerOperation records the outcome of a single ledger mutation.
func RecordLedgerOperation(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	ledgerOperations.WithLabelValues(operation, status).Inc()
}

// SetTotalSupply publishes the current total supply. Values beyond float64
// precision lose low-order digits, which is acceptable for a gauge.
func SetTotalSupply(supply float64) {
	totalSupply.Set(supply)
}

// RecordUpkeep records a stabilization upkeep run.
func RecordUpkeep(outcome string, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	upkeepRuns.WithLabelValues(outcome).Inc()
	upkeepDuration.Observe(duration.Seconds())
}

// SetPriceDeviation publishes the last observed peg deviation.
func SetPriceDeviation(basisPoints float64) {
	priceDeviation.Set(basisPoints)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "accounts" {
		return "/" + parts[0]
	}
	if len(parts) == 1 {
		return "/accounts"
	}
	if len(parts) == 2 {
		return "/accounts/:account"
	}
	return "/accounts/:account/" + parts[2]
}
