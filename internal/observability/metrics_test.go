package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/blog-service/internal/config"
)

func TestRecordAuthOutcomes(t *testing.T) {
	m := NewMetrics("blog")
	m.RecordAuth("login", nil)
	m.RecordAuth("login", errors.New("bad"))
	m.RecordAuth("login", errors.New("bad"))

	if got := testutil.ToFloat64(m.AuthOperations().WithLabelValues("login", OutcomeSuccess)); got != 1 {
		t.Fatalf("success count = %v", got)
	}
	if got := testutil.ToFloat64(m.AuthOperations().WithLabelValues("login", OutcomeFailure)); got != 2 {
		t.Fatalf("failure count = %v", got)
	}
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	m.RecordAuth("logout", nil)
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "INTERNAL_ERROR")
}

func TestRequestLoggerRecordsRouteTemplate(t *testing.T) {
	m := NewMetrics("blog")
	app := fiber.New()
	app.Use(RequestLogger(zaptest.NewLogger(t), m))
	app.Get("/api/users/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest("GET", "/api/users/42", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/users/:id", "204")); got != 1 {
		t.Fatalf("request counter = %v", got)
	}
}

func TestRequestLabelsSurviveLaterRequests(t *testing.T) {
	m := NewMetrics("blog")
	app := fiber.New()
	app.Use(RequestLogger(zaptest.NewLogger(t), m))
	app.Post("/api/auth/login", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/api/roles", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for _, req := range []struct{ method, path string }{
		{"POST", "/api/auth/login"},
		{"GET", "/api/roles"},
		{"GET", "/api/roles"},
	} {
		if _, err := app.Test(httptest.NewRequest(req.method, req.path, nil)); err != nil {
			t.Fatalf("%s %s: %v", req.method, req.path, err)
		}
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`blog_http_requests_total{method="POST",path="/api/auth/login",status="200"} 1`,
		`blog_http_requests_total{method="GET",path="/api/roles",status="200"} 2`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %s:\n%s", want, body)
		}
	}
}

func TestMetricsHandlerExposesAuthCounter(t *testing.T) {
	m := NewMetrics("blog")
	m.RecordAuth("refresh", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `blog_auth_operations_total{operation="refresh",outcome="success"} 1`) {
		t.Fatalf("metrics output missing auth counter:\n%s", body)
	}
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "nonsense"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if logger.Core().Enabled(-1) {
		t.Fatalf("debug should be disabled at fallback level")
	}
}
