package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/StoryWeaveHQ/StoryWeave/app/models"
	"github.com/StoryWeaveHQ/StoryWeave/app/repository"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/database"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/entitlements"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/ledger"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/security"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new account and grants the free tier's
// initial monthly credits.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	user, err := models.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByEmail(user.Email); err == nil {
		return jsonError(c, fiber.StatusConflict, "conflict", "Email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("register: email lookup failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Registration failed")
	}

	if err := repo.Create(user); err != nil {
		log.Errorf("register: create user failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Registration failed")
	}

	// Signup grant: the free tier's monthly credit allowance.
	creditLedger := ledger.NewService(ledger.NewRepository(database.GetDB()))
	initial := entitlements.LimitsFor(entitlements.TierFree).MonthlyCredits
	if _, err := creditLedger.Grant(c.Context(), user.ID, initial, "signup grant"); err != nil {
		log.Errorf("register: signup grant for user %d failed: %v", user.ID, err)
	}
	now := time.Now()
	if err := repo.MarkCreditsRenewed(user.ID, now); err != nil {
		log.Warnf("register: marking user %d renewed failed: %v", user.ID, err)
	}

	token, err := security.GenerateToken(user.ID)
	if err != nil {
		log.Errorf("register: token generation failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Registration failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"token": token,
	})
}

// HandleLogin verifies credentials and issues a bearer token.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Invalid credentials")
		}
		log.Errorf("login: user lookup failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Login failed")
	}

	if !user.CheckPassword(req.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Invalid credentials")
	}
	if user.Status != models.STATUS_ACTIVE {
		return jsonError(c, fiber.StatusForbidden, "forbidden", "User inactive")
	}

	token, err := security.GenerateToken(user.ID)
	if err != nil {
		log.Errorf("login: token generation failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Login failed")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repo.Update(user); err != nil {
		log.Warnf("login: updating last login for user %d failed: %v", user.ID, err)
	}

	return c.JSON(fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"token": token,
	})
}
