package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/StoryWeaveHQ/StoryWeave/app/models"
	"github.com/StoryWeaveHQ/StoryWeave/app/repository"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/database"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/entitlements"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/usercontext"
)

type exportRequest struct {
	Format string `json:"format"`
}

// HandleExportProject checks the caller's monthly export quota and
// format capability, then records the export. Free tier exports carry a
// watermark.
func HandleExportProject(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	project, err := loadOwnedProject(c, userCtx.UserID)
	if err != nil {
		return err
	}

	var req exportRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if !models.IsValidExportFormat(format) {
		return jsonError(c, fiber.StatusBadRequest, "invalid_format", "Unknown export format")
	}

	svc := entitlements.NewService(entitlements.NewRepository(database.GetDB()))
	if err := svc.CheckExportFormat(c.Context(), userCtx.UserID, format); err != nil {
		if errors.Is(err, entitlements.ErrCapabilityDenied) {
			return jsonError(c, fiber.StatusForbidden, "capability_denied", err.Error())
		}
		log.Errorf("export project: format check failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to check plan")
	}
	if err := svc.CheckExportQuota(c.Context(), userCtx.UserID); err != nil {
		if errors.Is(err, entitlements.ErrQuotaExceeded) {
			return jsonError(c, fiber.StatusForbidden, "quota_exceeded", err.Error())
		}
		log.Errorf("export project: quota check failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to check quota")
	}

	limits, err := svc.ResolveLimits(c.Context(), userCtx.UserID)
	if err != nil {
		log.Errorf("export project: resolve limits: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to resolve plan")
	}

	record := &models.ExportRecord{
		UserID:    userCtx.UserID,
		ProjectID: project.ID,
		Format:    format,
		Watermark: limits.Watermark,
	}
	if err := repository.GetGlobalFactory().GetExportRepository().Create(record); err != nil {
		log.Errorf("export project: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to record export")
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

// HandleListExports returns the caller's export history.
func HandleListExports(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	records, err := repository.GetGlobalFactory().GetExportRepository().GetByUserID(userCtx.UserID, 0, 100)
	if err != nil {
		log.Errorf("list exports: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to list exports")
	}

	return c.JSON(fiber.Map{"exports": records})
}
