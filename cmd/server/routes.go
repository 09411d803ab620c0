package main

import (
	"time"

	"github.com/arturoeanton/storyline/internal/handler"
	"github.com/arturoeanton/storyline/internal/middleware"
	"github.com/arturoeanton/storyline/pkg/config"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// newApp builds the fiber app with every route mounted.
func newApp(cfg *config.Config, d *deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
	}))

	app.Get("/health", func(c fiber.Ctx) error {
		status := "healthy"
		if err := d.pg.Ping(c.Context()); err != nil {
			status = "degraded"
		}
		return c.JSON(fiber.Map{
			"status":  status,
			"app":     cfg.AppName,
			"version": version,
		})
	})

	api := app.Group("/api/v1", middleware.JWTMiddleware(jwtConfig(cfg)), middleware.AuditMiddleware(d.pg))

	handler.NewActivityHandler(d.activities).Register(api)
	handler.NewProfileHandler(d.profiles).Register(api)
	handler.NewApplicationHandler(d.applications).Register(api)
	handler.NewChatHandler(d.chats, cfg.ProviderTimeout*2).Register(api)
	handler.NewEmbeddingHandler(d.embeddings, d.retriever, cfg.MatchThreshold, cfg.MatchCount).Register(api)
	handler.NewGuidanceHandler(d.guidance).Register(api)
	handler.NewAuditHandler(d.pg).Register(api)

	return app
}
