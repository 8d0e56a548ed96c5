package server

import (
	"context"
	"strings"
	"time"

	"github.com/PizzaHomicide/lectern/internal/auth"
	"github.com/PizzaHomicide/lectern/internal/config"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/PizzaHomicide/lectern/internal/service"
	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// requestTimeout bounds the database work of a single request
const requestTimeout = 10 * time.Second

// Services are the application services the HTTP layer exposes
type Services struct {
	Progress   *service.ProgressService
	Aggregator *service.ProgressAggregator
	Catalog    *service.CatalogService
}

// Server is the progress HTTP API
type Server struct {
	app      *fiber.App
	listen   string
	verifier *auth.Verifier
	svc      Services
	validate *validator.Validate
}

func New(cfg config.ServerConfig, verifier *auth.Verifier, svc Services) *Server {
	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           90 * time.Second,
	})

	s := &Server{
		app:      app,
		listen:   cfg.Listen,
		verifier: verifier,
		svc:      svc,
		validate: validator.New(),
	}
	s.routes(cfg)
	return s
}

func (s *Server) routes(cfg config.ServerConfig) {
	s.app.Use(recoveryMiddleware())
	s.app.Use(requestContext(requestTimeout))
	s.app.Use(corsMiddleware(splitOrigins(cfg.CORSOrigins)))
	if cfg.RateLimitPerMinute > 0 {
		s.app.Use(rateLimiter(cfg.RateLimitPerMinute))
	}

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	api := s.app.Group("", requireAuth(s.verifier))
	api.Post("/progress", s.reportProgress)
	api.Get("/progress", s.getProgress)
	api.Get("/progress/dashboard", s.dashboard)
	api.Get("/cohorts/:id/lessons", s.cohortLessons)
	api.Get("/lessons/:id/embed", s.lessonEmbed)
}

// App exposes the underlying fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until Shutdown is called
func (s *Server) Listen() error {
	log.Info("Progress server listening", "addr", s.listen)
	return s.app.Listen(s.listen)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func splitOrigins(origins string) []string {
	var out []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
