package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Repository operation outcomes.
const (
	OutcomeSuccess    = "success"
	OutcomeNotFound   = "not_found"
	OutcomeConnection = "connection_error"
	OutcomeError      = "error"
)

// UnknownRoute labels requests that matched no registered route.
const UnknownRoute = "unknown"

// Metrics holds the collectors exposed on /metrics.
type Metrics struct {
	registry    *prometheus.Registry
	httpReqs    *prometheus.CounterVec
	httpLatency *prometheus.HistogramVec
	repoOps     *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		httpReqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "service_records_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "service_records_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		repoOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "service_records_repository_operations_total",
			Help: "Repository operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}

	reg.MustRegister(m.httpReqs, m.httpLatency, m.repoOps)
	return m
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveOperation counts one repository call. A nil receiver is a no-op.
func (m *Metrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.repoOps.WithLabelValues(operation, outcome).Inc()
}

// OperationCounter returns the counter behind one operation/outcome pair.
func (m *Metrics) OperationCounter(operation, outcome string) prometheus.Counter {
	return m.repoOps.WithLabelValues(operation, outcome)
}

// Middleware records request count and latency. Errors returned by the chain
// are rendered by the app error handler first so the recorded status is final.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		entry := c.Route()

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		// fasthttp buffer'ları istek sonrası yeniden kullanılıyor, label'lar kopyalanmalı
		method := utils.CopyString(c.Method())
		route := RouteLabel(c, entry)
		m.httpReqs.WithLabelValues(method, route, strconv.Itoa(c.Response().StatusCode())).Inc()
		m.httpLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return nil
	}
}

// RouteLabel returns the pattern of the route that handled c. entry is the
// route seen when the calling middleware started; if the chain never moved
// past it, no registered route matched.
func RouteLabel(c *fiber.Ctx, entry *fiber.Route) string {
	r := c.Route()
	if r == nil || r == entry || r.Path == "" {
		return UnknownRoute
	}
	return utils.CopyString(r.Path)
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
