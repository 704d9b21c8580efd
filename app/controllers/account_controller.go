package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/StoryWeaveHQ/StoryWeave/app/repository"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/database"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/entitlements"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/usercontext"
)

// HandleGetAccount returns account information for the authenticated user.
func HandleGetAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	account, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "User not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	tier := entitlements.EffectiveTier(account.SubscriptionTier, account.SubscriptionExpiresAt, time.Now())

	return c.JSON(fiber.Map{
		"id":                      account.ID,
		"username":                account.Name,
		"email":                   account.Email,
		"status":                  account.Status,
		"subscription_tier":       account.SubscriptionTier,
		"effective_tier":          string(tier),
		"subscription_expires_at": formatTimePtr(account.SubscriptionExpiresAt),
		"ai_credits":              account.AICredits,
		"lifetime_credits":        account.LifetimeCredits,
		"created_at":              account.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at":           formatTimePtr(account.LastLoginAt),
	})
}

// HandleGetEntitlements returns the resolved limit profile for the
// authenticated user's effective tier.
func HandleGetEntitlements(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	svc := entitlements.NewService(entitlements.NewRepository(database.GetDB()))
	limits, err := svc.ResolveLimits(c.Context(), userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "User not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to resolve entitlements")
	}

	return c.JSON(fiber.Map{
		"tier":                     userCtx.Tier,
		"max_projects":             limits.MaxProjects,
		"max_exports_per_month":    limits.MaxExportsPerMonth,
		"max_chapters_per_project": limits.MaxChaptersPerProject,
		"monthly_credits":          limits.MonthlyCredits,
		"export_formats":           limits.ExportFormats,
		"watermark":                limits.Watermark,
		"template_marketplace":     limits.TemplateMarketplace,
		"max_versions":             limits.MaxVersions,
	})
}
