package api

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vrproute/internal/metrics"
)

// RateLimit rejects requests beyond the configured rate with 429.
// Streams and probes are exempt.
func (s *Server) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && limited(r.URL.Path) && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeProblem(w, 429, "Too Many Requests", "rate limit exceeded", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func limited(path string) bool {
	return strings.HasPrefix(path, "/v1/") &&
		!strings.HasSuffix(path, "/ws") && !strings.HasSuffix(path, "/events")
}

// Instrument records request counts and latencies.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(rec, r)
		labels := []string{methodLabel(r.Method), routeLabel(r.URL.Path), strconv.Itoa(rec.status)}
		metrics.HTTPRequests.WithLabelValues(labels...).Inc()
		metrics.HTTPDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	})
}

// knownRoutes are the fixed paths reported as their own label.
var knownRoutes = map[string]bool{
	"/v1/solve":     true,
	"/v1/runs":      true,
	"/healthz":      true,
	"/readyz":       true,
	"/debug/info":   true,
	"/metrics":      true,
	"/openapi.yaml": true,
	"/openapi.json": true,
	"/docs":         true,
}

// routeLabel maps a request path onto a fixed label set: run ids collapse
// to {id} and anything unrecognized is "other".
func routeLabel(path string) string {
	if knownRoutes[path] {
		return path
	}
	rest, ok := strings.CutPrefix(path, "/v1/runs/")
	if !ok || rest == "" {
		return "other"
	}
	id, sub, found := strings.Cut(rest, "/")
	switch {
	case id == "":
		return "other"
	case !found:
		return "/v1/runs/{id}"
	case sub == "ws" || sub == "events":
		return "/v1/runs/{id}/" + sub
	}
	return "other"
}

func methodLabel(m string) string {
	switch m {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodHead, http.MethodOptions:
		return m
	}
	return "OTHER"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack lets WebSocket upgrades pass through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
