package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/aep/scopedb/authz"
	"github.com/aep/scopedb/engine"
	"github.com/aep/scopedb/kv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry so it can be accessed from middleware
var promRegistry *prometheus.Registry

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	promRegistry = prometheus.NewRegistry()

	promRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promRegistry.MustRegister(collectors.NewGoCollector())

	promRegistry.MustRegister(httpRequestsTotal)
	promRegistry.MustRegister(httpRequestDuration)
	promRegistry.MustRegister(authz.DecisionsTotal)
	promRegistry.MustRegister(engine.QueryPlansTotal)
	promRegistry.MustRegister(kv.Collectors()...)
}

// statsHandler serves /healthz and /metrics.
func (s *server) statsHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		err := s.kv.Ping()
		if err != nil {
			log.Warn("health check failed", "err", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		w.Write([]byte("OK"))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	return mux
}

func (s *server) statsd(addr string) {
	healthServer := &http.Server{
		Addr:    addr,
		Handler: s.statsHandler(),
	}

	err := healthServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Error("metrics listener stopped", "addr", addr, "err", err)
	}
}

// PrometheusMiddleware records HTTP request metrics
func PrometheusMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)

		duration := time.Since(start).Seconds()
		status := c.Response().Status
		if err != nil {
			status = statusOf(err)
		}
		method := c.Request().Method
		// route pattern, not the raw url
		path := c.Path()

		httpRequestsTotal.WithLabelValues(method, path, fmt.Sprintf("%d", status)).Inc()
		httpRequestDuration.WithLabelValues(method, path, fmt.Sprintf("%d", status)).Observe(duration)

		return err
	}
}
