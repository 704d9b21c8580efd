package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/StoryWeaveHQ/StoryWeave/app/repository"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/generation"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/ledger"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/usercontext"
)

var (
	batchOrchestrator *generation.Orchestrator
	batchTracker      *generation.StatusTracker
)

// SetBatchOrchestrator injects the cover generation pipeline. Called
// once from main; handlers answer 503 until it is set.
func SetBatchOrchestrator(o *generation.Orchestrator, t *generation.StatusTracker) {
	batchOrchestrator = o
	batchTracker = t
}

type generateCoversRequest struct {
	Prompt string `json:"prompt"`
	Count  int    `json:"count"`
	Style  string `json:"style"`
}

// HandleGenerateCovers runs a metered cover generation batch for one of
// the caller's projects.
func HandleGenerateCovers(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}
	if batchOrchestrator == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "generation_unavailable", "Cover generation is not configured")
	}

	project, err := loadOwnedProject(c, userCtx.UserID)
	if err != nil {
		return err
	}

	var req generateCoversRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.Prompt == "" {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", "Prompt is required")
	}

	result, err := batchOrchestrator.RunBatch(c.Context(), generation.BatchInput{
		UserID:    userCtx.UserID,
		ProjectID: project.ID,
		Prompt:    req.Prompt,
		Count:     req.Count,
		Style:     req.Style,
	})
	if err != nil {
		switch {
		case errors.Is(err, generation.ErrInvalidCount):
			return jsonError(c, fiber.StatusBadRequest, "invalid_count", err.Error())
		case errors.Is(err, ledger.ErrInsufficientCredits):
			return jsonError(c, fiber.StatusPaymentRequired, "insufficient_credits", err.Error())
		case errors.Is(err, generation.ErrForbidden):
			return jsonError(c, fiber.StatusForbidden, "forbidden", "Project does not belong to user")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return jsonError(c, fiber.StatusNotFound, "not_found", "Project not found")
		case errors.Is(err, generation.ErrGenerationFailed):
			return jsonError(c, fiber.StatusBadGateway, "generation_failed", "All generation attempts failed, nothing was charged")
		default:
			log.Errorf("generate covers: %v", err)
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Cover generation failed")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// HandleListCovers returns the generated covers of one of the caller's
// projects.
func HandleListCovers(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	project, err := loadOwnedProject(c, userCtx.UserID)
	if err != nil {
		return err
	}

	covers, err := repository.GetGlobalFactory().GetCoverRepository().GetByProjectID(project.ID)
	if err != nil {
		log.Errorf("list covers: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to list covers")
	}

	return c.JSON(fiber.Map{"covers": covers})
}

// HandleDeleteCover removes a single generated cover from one of the
// caller's projects. Credits are never refunded on deletion.
func HandleDeleteCover(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	project, err := loadOwnedProject(c, userCtx.UserID)
	if err != nil {
		return err
	}

	coverRepo := repository.GetGlobalFactory().GetCoverRepository()
	cover, err := coverRepo.GetByUUID(c.Params("uuid"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Cover not found")
		}
		log.Errorf("delete cover: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete cover")
	}
	if cover.ProjectID != project.ID {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Cover not found")
	}

	if err := coverRepo.Delete(cover.ID); err != nil {
		log.Errorf("delete cover %s: %v", cover.UUID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete cover")
	}

	return c.JSON(fiber.Map{"message": "Cover deleted"})
}

// HandleGetBatchStatus returns the cached progress record of a batch.
func HandleGetBatchStatus(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}
	if batchTracker == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "generation_unavailable", "Cover generation is not configured")
	}

	batchID := c.Params("batchID")
	if batchID == "" {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Missing batch id")
	}

	status, err := batchTracker.Get(batchID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Unknown batch")
		}
		log.Errorf("batch status %s: %v", batchID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load batch status")
	}

	return c.JSON(status)
}
