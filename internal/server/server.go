package server

import (
	"errors"
	"path/filepath"
	"strings"

	"servis-kayit-backend/internal/config"
	"servis-kayit-backend/internal/logger"
	"servis-kayit-backend/internal/metrics"
	"servis-kayit-backend/internal/records"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

const msgInternal = "Internal server error"

// New assembles the Fiber app: middleware, routes and the central error handler.
func New(cfg *config.Config, log *zap.Logger, store records.Store, m *metrics.Metrics) *fiber.App {
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "servis-kayit-backend",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})

	app.Use(requestid.New(requestid.Config{ContextKey: logger.RequestIDKey}))
	app.Use(logger.Middleware(log))
	app.Use(m.Middleware())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins(), ","),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get("/", indexHandler(cfg.StaticDir))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", m.Handler())

	api := app.Group("/api")
	api.Get("/records", records.ListRecordsHandler(store, log))
	api.Get("/records/export", records.ExportRecordsHandler(store, log))
	api.Post("/records", records.CreateRecordHandler(store, log))
	api.Put("/records/:id", records.UpdateRecordHandler(store, log))
	api.Delete("/records/:id", records.DeleteRecordHandler(store, log))

	return app
}

// errorHandler renders every error as {"error": msg}. Only *fiber.Error
// messages reach the client; anything else becomes a generic 500.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var e *fiber.Error
		if errors.As(err, &e) {
			return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
		}
		logger.FromCtx(c, log).Error("beklenmeyen hata", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msgInternal})
	}
}

// GET /
func indexHandler(dir string) fiber.Handler {
	index := filepath.Join(dir, "index.html")
	return func(c *fiber.Ctx) error {
		return c.SendFile(index)
	}
}
