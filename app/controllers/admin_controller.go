package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/StoryWeaveHQ/StoryWeave/app/repository"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/statistics"
)

// HandleAdminStats returns cached platform aggregates.
func HandleAdminStats(c *fiber.Ctx) error {
	return c.JSON(statistics.GetPlatformStats())
}

// HandleAdminListUsers returns a page of user accounts, newest first.
func HandleAdminListUsers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 25)
	if limit < 1 || limit > 100 {
		limit = 25
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	users, err := userRepo.List((page-1)*limit, limit)
	if err != nil {
		log.Errorf("admin list users: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to list users")
	}
	total, err := userRepo.Count()
	if err != nil {
		log.Errorf("admin count users: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to list users")
	}

	return c.JSON(fiber.Map{
		"users": users,
		"page":  page,
		"limit": limit,
		"total": total,
	})
}
