package logger

import (
	"time"

	"servis-kayit-backend/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// Middleware logs one line per request. It must run after the requestid
// middleware and before the handlers so the status reflects the error handler.
func Middleware(base *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		entry := c.Route()

		chainErr := c.Next()
		if chainErr != nil {
			// Hata handler'ını burada çalıştır ki status kodu doğru loglansın
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		route := metrics.RouteLabel(c, entry)

		fields := []zap.Field{
			zap.String("method", utils.CopyString(c.Method())),
			zap.String("path", utils.CopyString(c.Path())),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Int("bytes_out", len(c.Response().Body())),
		}

		log := FromCtx(c, base)
		switch {
		case route == "/metrics":
			log.Debug("http_request", fields...)
		case status >= fiber.StatusInternalServerError:
			log.Error("http_request", fields...)
		default:
			log.Info("http_request", fields...)
		}

		return nil
	}
}
