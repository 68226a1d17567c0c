// Package server exposes the interpretation pipeline over HTTP. The
// transport layer is deliberately thin: it validates the payload shape,
// invokes the orchestrator, and reports metrics.
package server

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/egvia/egvia/internal/metrics"
	"github.com/egvia/egvia/internal/model"
	"github.com/egvia/egvia/internal/pipeline"
)

// Server wraps the fiber application and its listener configuration
type Server struct {
	app *fiber.App
	cfg model.ServerConfig
	log *zap.Logger
}

// New builds the HTTP server around an orchestrator
func New(cfg model.ServerConfig, orch *pipeline.Orchestrator, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	metrics.Init()

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(requestLogger(log))

	h := &handler{orch: orch, log: log}
	app.Get("/healthz", h.handleHealthz)
	app.Get("/metrics", metrics.Handler())
	app.Post("/v1/interpret", h.handleInterpret)

	return &Server{app: app, cfg: cfg, log: log}
}

// App returns the underlying fiber application, used by tests via app.Test
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving HTTP until Shutdown is called
func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.log.Info("server listening", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// requestLogger emits one structured log line per request
func requestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Info("http request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
		)
		return err
	}
}
