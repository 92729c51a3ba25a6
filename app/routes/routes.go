// app/routes/routes.go
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"questmatch/app/controllers"
	"questmatch/app/middlewares"
	"questmatch/config"
	"questmatch/database"
	"questmatch/redis"
)

// SetupRoutes registers the queue endpoints plus the health and
// version probes.
func SetupRoutes(app *fiber.App, queueController *controllers.QueueController, redisService *redis.Service) {
	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		health := map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services":  map[string]string{},
		}

		// Check Cassandra and MongoDB connections
		if err := database.HealthCheck(); err != nil {
			health["services"].(map[string]string)["database"] = "error: " + err.Error()
		} else {
			health["services"].(map[string]string)["database"] = "ok"
		}

		// Check Redis connection
		if _, err := redisService.GetClient().Ping(redisService.GetContext()).Result(); err != nil {
			health["services"].(map[string]string)["redis"] = "error: " + err.Error()
		} else {
			health["services"].(map[string]string)["redis"] = "ok"
		}

		return c.JSON(health)
	})

	// API version endpoint
	app.Get("/api/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"version":   config.AppVersion,
			"name":      config.AppName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Matchmaking queue endpoints
	queue := app.Group("/queue", middlewares.JWTMiddleware())
	queue.Post("/join", queueController.Join)
	queue.Delete("/leave/:userId", queueController.Leave)
	queue.Get("/status/:userId", queueController.GetStatus)
	queue.Get("/list", queueController.List)
	queue.Get("/stats", queueController.Stats)
	queue.Get("/match/:matchId", queueController.GetMatch)
	queue.Post("/process", queueController.Process)
}
