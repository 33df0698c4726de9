package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"vrproute/internal/model"
)

var (
	// Registry is the dedicated Prometheus registry for the service
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Solves counts finished solves by algorithm, mode and outcome
	Solves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vrp_solves_total", Help: "Solves by algorithm, mode and status."},
		[]string{"algorithm", "mode", "status"},
	)
	// SolveDuration tracks solve wall time in milliseconds
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "vrp_solve_duration_ms", Help: "Solve wall time in ms.", Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000}},
		[]string{"algorithm", "mode"},
	)
	// SearchWork counts enumerator frames, candidates and 2-opt swaps
	SearchWork = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vrp_search_work_total", Help: "Search work units by kind."},
		[]string{"kind"},
	)
	// ActiveSolves is the number of solves in flight
	ActiveSolves = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "vrp_active_solves", Help: "Solves currently running."},
	)
	// CacheLookups counts result cache hits and misses
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vrp_cache_lookups_total", Help: "Result cache lookups by outcome."},
		[]string{"result"},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Solves)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(SearchWork)
		Registry.MustRegister(ActiveSolves)
		Registry.MustRegister(CacheLookups)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

// Mode labels a solve as sequential or parallel.
func Mode(parallel bool) string {
	if parallel {
		return "parallel"
	}
	return "sequential"
}

// ObserveSolve records one finished solve.
func ObserveSolve(algorithm, mode, status string, dur time.Duration, st model.Stats) {
	Solves.WithLabelValues(algorithm, mode, status).Inc()
	SolveDuration.WithLabelValues(algorithm, mode).Observe(float64(dur.Milliseconds()))
	SearchWork.WithLabelValues("frames").Add(float64(st.Frames))
	SearchWork.WithLabelValues("candidates").Add(float64(st.Candidates))
	SearchWork.WithLabelValues("twoopt_swaps").Add(float64(st.TwoOptSwaps))
}
