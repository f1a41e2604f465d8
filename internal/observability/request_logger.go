package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// RequestLogger logs each request once it completes and records its metrics.
// Paths are labelled by route template to keep metric cardinality bounded.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		path, method := RouteLabels(c)
		metrics.RecordRequest(path, method, status, latency)

		logger.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", c.IP()),
		)
		return err
	}
}

// RouteLabels returns the route template and method of the request as metric
// label values. Fiber strings alias request buffers that are reused after the
// handler returns, so both are copied.
func RouteLabels(c *fiber.Ctx) (path, method string) {
	path = c.Route().Path
	if path == "" {
		path = c.Path()
	}
	return utils.CopyString(path), utils.CopyString(c.Method())
}
