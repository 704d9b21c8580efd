package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/StoryWeaveHQ/StoryWeave/app/models"
	"github.com/StoryWeaveHQ/StoryWeave/app/repository"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/database"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/entitlements"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/usercontext"
)

type createProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Genre       string `json:"genre"`
}

// HandleCreateProject creates a project after the tier's project quota
// check passes.
func HandleCreateProject(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	var req createProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	svc := entitlements.NewService(entitlements.NewRepository(database.GetDB()))
	if err := svc.CheckProjectQuota(c.Context(), userCtx.UserID); err != nil {
		if errors.Is(err, entitlements.ErrQuotaExceeded) {
			return jsonError(c, fiber.StatusForbidden, "quota_exceeded", err.Error())
		}
		log.Errorf("create project: quota check failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to check quota")
	}

	project := &models.Project{
		UserID:      userCtx.UserID,
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
	}
	if err := project.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}

	repo := repository.GetGlobalFactory().GetProjectRepository()
	if err := repo.Create(project); err != nil {
		log.Errorf("create project: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create project")
	}

	return c.Status(fiber.StatusCreated).JSON(project)
}

// HandleListProjects returns the caller's projects.
func HandleListProjects(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	repo := repository.GetGlobalFactory().GetProjectRepository()
	projects, err := repo.GetByUserID(userCtx.UserID, 0, 100)
	if err != nil {
		log.Errorf("list projects: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to list projects")
	}

	return c.JSON(fiber.Map{"projects": projects})
}

// loadOwnedProject loads a project and enforces ownership. Shared by
// the chapter, generation and export handlers.
func loadOwnedProject(c *fiber.Ctx, userID uint) (*models.Project, error) {
	projectID, err := parseUintParam(c, "id")
	if err != nil {
		return nil, jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid project id")
	}

	repo := repository.GetGlobalFactory().GetProjectRepository()
	project, err := repo.GetByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jsonError(c, fiber.StatusNotFound, "not_found", "Project not found")
		}
		log.Errorf("load project %d: %v", projectID, err)
		return nil, jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load project")
	}
	if !project.IsOwnedBy(userID) {
		return nil, jsonError(c, fiber.StatusForbidden, "forbidden", "Project does not belong to user")
	}
	return project, nil
}
