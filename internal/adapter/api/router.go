package api

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthInfo is reported on /health.
type HealthInfo struct {
	Version string
	Env     string
	Breaker func() string
}

// NewApp returns a fiber app that encodes and decodes JSON with goccy/go-json.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:     name,
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})
}

func SetupRouter(app *fiber.App, handler *QuizHandler, health HealthInfo) {
	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		breaker := "disabled"
		if health.Breaker != nil {
			breaker = health.Breaker()
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "healthy",
			"version": health.Version,
			"env":     health.Env,
			"locales": handler.catalog.Locales(),
			"gemini":  breaker,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API Versioning
	v1 := app.Group("/v1")
	// Endpoints
	v1.Post("/recommend", handler.HandleRecommend)
	v1.Get("/quiz/:locale", handler.HandleQuiz)
	v1.Post("/quiz/:locale/recommend", handler.HandleLocaleRecommend)
	v1.Post("/quiz/:locale/match", handler.HandleMatch)
}
