package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOperation(t *testing.T) {
	m := New()
	m.ObserveOperation("create", OutcomeSuccess)
	m.ObserveOperation("create", OutcomeSuccess)
	m.ObserveOperation("delete", OutcomeNotFound)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.repoOps.WithLabelValues("create", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.repoOps.WithLabelValues("delete", OutcomeNotFound)))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.ObserveOperation("list", OutcomeError) })
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		},
	})
	app.Use(m.Middleware())
	app.Get("/metrics", m.Handler())
	app.Get("/api/records", func(c *fiber.Ctx) error { return c.JSON([]string{}) })
	app.Delete("/api/records/:id", func(c *fiber.Ctx) error { return errors.New("boom") })

	_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/records", nil))
	require.NoError(t, err)
	resp, err := app.Test(httptest.NewRequest(fiber.MethodDelete, "/api/records/7", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpReqs.WithLabelValues("GET", "/api/records", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpReqs.WithLabelValues("DELETE", "/api/records/:id", "500")))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "service_records_http_requests_total"))
}

func TestMiddleware_LabelsSurviveLaterRequests(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("index") })
	app.Get("/api/records", func(c *fiber.Ctx) error { return c.JSON([]string{}) })
	app.Put("/api/records/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for _, req := range []struct{ method, target string }{
		{fiber.MethodPut, "/api/records/5"},
		{fiber.MethodGet, "/api/records"},
		{fiber.MethodGet, "/nope"},
		{fiber.MethodGet, "/"},
	} {
		_, err := app.Test(httptest.NewRequest(req.method, req.target, nil))
		require.NoError(t, err)
	}

	// Okuma WithLabelValues ile seri oluşturduğu için sayım önce yapılır
	assert.Equal(t, 4, testutil.CollectAndCount(m.httpReqs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpReqs.WithLabelValues("PUT", "/api/records/:id", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpReqs.WithLabelValues("GET", "/api/records/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpReqs.WithLabelValues("GET", "/api/records", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpReqs.WithLabelValues("GET", UnknownRoute, "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpReqs.WithLabelValues("GET", "/", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpReqs.WithLabelValues("GET", "/", "200")))
}
