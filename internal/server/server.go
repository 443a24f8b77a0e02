package server

import (
	"log"

	"multisite-be/internal/bootstrap"
	"multisite-be/internal/config"
	"multisite-be/internal/pkg/serverutils"
	"multisite-be/internal/service"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := NewApp(cfg)

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

// NewApp builds the fiber app with the shared middleware chain and no routes.
func NewApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:     "GET, HEAD, POST, PUT, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Location, X-Request-ID",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.RequestIDMiddleware())
	app.Use(serverutils.ErrorHandlerMiddleware(service.ErrorStatus))

	return app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	c.WebSocketHub.RegisterRoutes(api, c.JwtMiddleware)
	c.SiteTreeController.RegisterRoutes(api, c.JwtMiddleware)

	// Content pages answer every remaining path.
	c.ContentController.RegisterRoutes(app)
}
