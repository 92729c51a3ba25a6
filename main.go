// main.go
package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"questmatch/app/controllers"
	"questmatch/app/routes"
	"questmatch/app/services"
	"questmatch/app/stores"
	"questmatch/config"
	"questmatch/database"
	"questmatch/redis"
)

func main() {
	app := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
		ServerHeader:  "Fiber",
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			ctx.Status(code)
			return ctx.JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Initialize databases first
	fmt.Println("🔌 Initializing database connections...")
	if err := database.InitDB(); err != nil {
		log.Fatalf("❌ Failed to connect to the database: %v", err)
	}
	fmt.Println("✅ Databases initialized successfully")

	// Redis service (daily match counters, health probe)
	redisService := redis.NewService()

	// Stores over the shared connections
	queueStore := stores.NewCassandraQueueStore(database.CassandraSession)
	matchStore := stores.NewMongoMatchStore(database.MatchesCollection())

	// Socket.IO handler for match notifications
	fmt.Println("🔌 Initializing Socket.IO handler...")
	socketHandler := config.NewQueueSocketHandler()
	socketHandler.SetupSocketRoutes(app)
	fmt.Println("✅ Socket.IO handler initialized")

	// Matchmaking pipeline
	matchmakingService := services.NewMatchmakingService(queueStore, matchStore, config.LongWaitThreshold)
	matchmakingService.SetNotifier(socketHandler)
	matchmakingService.SetMatchCounter(redisService)

	cronService := services.NewCronService(matchmakingService)
	cronService.StartMatchmakingCron(config.MatchmakingInterval)
	cronService.RunCleanupCron(config.CleanupInterval, config.LeftRetention)

	queueService := services.NewQueueService(queueStore, matchStore)
	queueService.SetDailyMatchReader(redisService)
	queueService.SetStatsCache(redisService)
	queueService.SetMatchmakingTrigger(cronService.RequestMatchmakingRun)

	// HTTP surface
	queueController := controllers.NewQueueController(queueService, matchmakingService)
	routes.SetupRoutes(app, queueController, redisService)

	port := config.ServerPort
	fmt.Printf("🚀 Server starting on port :%d\n", port)
	fmt.Printf("🔌 Socket.IO server available at :%d/socket.io (namespace /queue)\n", port)

	log.Fatal(app.Listen(fmt.Sprintf(":%d", port)))
}
