package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"questmatch/app/models"
	"questmatch/app/services"
)

// QueueController handles the matchmaking queue HTTP endpoints
type QueueController struct {
	queueService       *services.QueueService
	matchmakingService *services.MatchmakingService
}

// NewQueueController creates a new queue controller instance
func NewQueueController(queueService *services.QueueService, matchmakingService *services.MatchmakingService) *QueueController {
	return &QueueController{
		queueService:       queueService,
		matchmakingService: matchmakingService,
	}
}

// Join handles POST /queue/join
func (c *QueueController) Join(ctx *fiber.Ctx) error {
	var req models.JoinQueueRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request format",
		})
	}

	if err := req.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": err.Error(),
		})
	}

	// Joining on someone else's behalf is not allowed
	if tokenUser, ok := ctx.Locals("user_id").(string); ok && tokenUser != "" && tokenUser != req.UserID {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status":  "error",
			"message": "Token does not match user_id",
		})
	}

	status, err := c.queueService.Join(&req)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyQueued) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status":  "error",
				"message": "User is already in the queue",
			})
		}
		return queueServerError(ctx, "Failed to join queue", err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"data":   status,
	})
}

// Leave handles DELETE /queue/leave/:userId
func (c *QueueController) Leave(ctx *fiber.Ctx) error {
	userID := ctx.Params("userId")

	if tokenUser, ok := ctx.Locals("user_id").(string); ok && tokenUser != "" && tokenUser != userID {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status":  "error",
			"message": "Token does not match user_id",
		})
	}

	if _, err := c.queueService.Leave(userID); err != nil {
		if errors.Is(err, models.ErrNotQueued) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"status":  "error",
				"message": "User is not in the queue",
			})
		}
		return queueServerError(ctx, "Failed to leave queue", err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// GetStatus handles GET /queue/status/:userId
func (c *QueueController) GetStatus(ctx *fiber.Ctx) error {
	status, err := c.queueService.GetStatus(ctx.Params("userId"))
	if err != nil {
		return queueServerError(ctx, "Failed to get queue status", err)
	}

	return ctx.JSON(fiber.Map{
		"status": "success",
		"data":   status,
	})
}

// List handles GET /queue/list
func (c *QueueController) List(ctx *fiber.Ctx) error {
	entries, err := c.queueService.List()
	if err != nil {
		return queueServerError(ctx, "Failed to list queue", err)
	}

	return ctx.JSON(fiber.Map{
		"status": "success",
		"count":  len(entries),
		"data":   entries,
	})
}

// Stats handles GET /queue/stats
func (c *QueueController) Stats(ctx *fiber.Ctx) error {
	stats, err := c.queueService.Stats()
	if err != nil {
		return queueServerError(ctx, "Failed to get queue stats", err)
	}

	return ctx.JSON(fiber.Map{
		"status": "success",
		"data":   stats,
	})
}

// GetMatch handles GET /queue/match/:matchId
func (c *QueueController) GetMatch(ctx *fiber.Ctx) error {
	match, err := c.queueService.GetMatch(ctx.Params("matchId"))
	if err != nil {
		if errors.Is(err, models.ErrMatchNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"status":  "error",
				"message": "Match not found",
			})
		}
		return queueServerError(ctx, "Failed to get match", err)
	}

	return ctx.JSON(fiber.Map{
		"status": "success",
		"data":   match,
	})
}

// Process handles POST /queue/process, the operational hook that runs
// one matchmaking pass outside the scheduled cadence.
func (c *QueueController) Process(ctx *fiber.Ctx) error {
	matchCount, err := c.matchmakingService.ProcessMatchmaking()
	if err != nil {
		return queueServerError(ctx, "Matchmaking pass failed", err)
	}

	return ctx.JSON(fiber.Map{
		"status":          "success",
		"matches_created": matchCount,
	})
}

func queueServerError(ctx *fiber.Ctx, message string, err error) error {
	log.Printf("❌ %s: %v", message, err)
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}
