package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/quarrylabs/ragcheck/pkg/index"
	"github.com/quarrylabs/ragcheck/pkg/rag"
)

// Server is the API server for querying the ragcheck index.
type Server struct {
	config   Config
	pipeline *rag.Pipeline
	driver   index.Driver
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates a new API server.
// The pipeline and driver are injected to allow sharing with the CLI.
func NewServer(config Config, pipeline *rag.Pipeline, driver index.Driver, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		pipeline: pipeline,
		driver:   driver,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/search", s.handleSearch)
	app.Post("/v1/ask", s.handleAsk)
	app.Get("/v1/stats", s.handleStats)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
