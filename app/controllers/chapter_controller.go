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

type createChapterRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Position int    `json:"position"`
}

type updateChapterContentRequest struct {
	Content string `json:"content"`
}

// HandleCreateChapter adds a chapter to one of the caller's projects,
// subject to the tier's per-project chapter quota.
func HandleCreateChapter(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	project, err := loadOwnedProject(c, userCtx.UserID)
	if err != nil {
		return err
	}

	var req createChapterRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.Title == "" {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", "Title is required")
	}

	svc := entitlements.NewService(entitlements.NewRepository(database.GetDB()))
	if err := svc.CheckChapterQuota(c.Context(), userCtx.UserID, project.ID); err != nil {
		if errors.Is(err, entitlements.ErrQuotaExceeded) {
			return jsonError(c, fiber.StatusForbidden, "quota_exceeded", err.Error())
		}
		log.Errorf("create chapter: quota check failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to check quota")
	}

	chapter := &models.Chapter{
		ProjectID: project.ID,
		Title:     req.Title,
		Content:   req.Content,
		Position:  req.Position,
		WordCount: models.CountWords(req.Content),
	}
	if err := repository.GetGlobalFactory().GetChapterRepository().Create(chapter); err != nil {
		log.Errorf("create chapter: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create chapter")
	}

	return c.Status(fiber.StatusCreated).JSON(chapter)
}

// HandleListChapters returns the chapters of one of the caller's projects.
func HandleListChapters(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	project, err := loadOwnedProject(c, userCtx.UserID)
	if err != nil {
		return err
	}

	chapters, err := repository.GetGlobalFactory().GetChapterRepository().GetByProjectID(project.ID)
	if err != nil {
		log.Errorf("list chapters: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to list chapters")
	}

	return c.JSON(fiber.Map{"chapters": chapters})
}

// HandleUpdateChapterContent replaces a chapter's content. This is the
// endpoint the editor's autosave scheduler posts to, so it stays cheap:
// one ownership check and a single update statement.
func HandleUpdateChapterContent(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	project, err := loadOwnedProject(c, userCtx.UserID)
	if err != nil {
		return err
	}

	chapterID, err := parseUintParam(c, "chapterID")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid chapter id")
	}

	var req updateChapterContentRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	chapterRepo := repository.GetGlobalFactory().GetChapterRepository()
	chapter, err := chapterRepo.GetByID(chapterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Chapter not found")
		}
		log.Errorf("update chapter %d: %v", chapterID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load chapter")
	}
	if chapter.ProjectID != project.ID {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Chapter not found")
	}

	wordCount := models.CountWords(req.Content)
	if err := chapterRepo.UpdateContent(chapterID, req.Content, wordCount); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Chapter not found")
		}
		log.Errorf("update chapter %d content: %v", chapterID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to save chapter")
	}

	return c.JSON(fiber.Map{
		"chapter_id": chapterID,
		"word_count": wordCount,
	})
}
