package api

import (
	"io"
	"strings"

	"github.com/ChitterSync/SynisterChat/internal/api/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

// Config wires the HTTP surface.
type Config struct {
	Handlers    *Handlers
	Auth        middleware.AuthConfig
	CORSOrigins []string
	Log         *logrus.Logger
}

// NewApp builds the fiber app with middleware and routes.
func NewApp(cfg Config) *fiber.App {
	if cfg.Log == nil {
		cfg.Log = logrus.New()
		cfg.Log.SetOutput(io.Discard)
	}

	app := fiber.New(fiber.Config{
		AppName:               "SynisterChat",
		ErrorHandler:          errorHandler(cfg.Log),
		BodyLimit:             25 * 1024 * 1024,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{Output: cfg.Log.Out}))
	origins := "*"
	if len(cfg.CORSOrigins) > 0 {
		origins = strings.Join(cfg.CORSOrigins, ",")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PATCH, DELETE, OPTIONS",
	}))

	if cfg.Auth.Log == nil {
		cfg.Auth.Log = cfg.Log
	}
	SetupRoutes(app, cfg.Handlers, middleware.AuthRequired(cfg.Auth))
	return app
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h *Handlers, authRequired fiber.Handler) {
	api := app.Group("/api")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "synister",
		})
	})

	protected := api.Group("", authRequired)

	// Raw session storage
	protected.Get("/storage", h.GetStorage)
	protected.Post("/storage", h.PostStorage)
	protected.Delete("/storage", h.DeleteStorage)

	// Session management
	protected.Get("/sessions", h.ListSessions)
	protected.Post("/sessions", h.CreateSession)
	protected.Get("/sessions/:id", h.GetSession)
	protected.Patch("/sessions/:id", h.RenameSession)
	protected.Delete("/sessions/:id", h.DeleteSession)
	protected.Post("/sessions/:id/messages", h.SendMessage)
	protected.Delete("/sessions/:id/memory", h.ResetMemory)
	protected.Delete("/sessions/:id/history", h.ClearHistory)

	// Model passthrough
	protected.Post("/gpt", h.Complete)
	protected.Post("/generate", h.GenerateImage)
	protected.Post("/whisper", h.Transcribe)
}
