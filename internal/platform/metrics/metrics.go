// Package metrics holds the Prometheus collectors for the service.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector on a private registry so tests can build
// as many independent instances as they like.
type Metrics struct {
	Registry *prometheus.Registry

	ActivitiesRecorded *prometheus.CounterVec
	BadgesAwarded      *prometheus.CounterVec
	GradingRequests    *prometheus.CounterVec
	RequestCounter     *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ActivitiesRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activities_recorded_total",
				Help: "Activity upserts by activity type and status.",
			},
			[]string{"type", "status"},
		),
		BadgesAwarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "badges_awarded_total",
				Help: "Badges newly awarded, by badge name.",
			},
			[]string{"badge"},
		),
		GradingRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grading_requests_total",
				Help: "Problem grading attempts by outcome.",
			},
			[]string{"outcome"},
		),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
	}

	m.Registry.MustRegister(
		m.ActivitiesRecorded,
		m.BadgesAwarded,
		m.GradingRequests,
		m.RequestCounter,
		m.RequestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Middleware records request count and latency. route should be the mux
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) Middleware(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		m.RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack passes through to the underlying writer; the chat websocket needs it.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}
