package devserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "langassess_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"status"}, // success / failure
	)

	submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "langassess_submissions_total",
			Help: "Answer submissions by step",
		},
		[]string{"step"},
	)

	scorings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "langassess_scorings_total",
			Help: "Scored attempts by step and resulting status",
		},
		[]string{"step", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "langassess_http_request_duration_seconds",
			Help:    "Time spent serving requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)
)

// instrument records request latency by chi route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
