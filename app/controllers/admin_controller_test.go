package controllers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/middleware"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/usercontext"
)

func newAdminTestApp(isAdmin bool) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(usercontext.KeyIsAdmin, isAdmin)
		return c.Next()
	})
	admin := app.Group("/admin", middleware.RequireAdmin)
	admin.Get("/users", HandleAdminListUsers)
	return app
}

func TestAdminListUsersForbiddenForNonAdmins(t *testing.T) {
	app := newAdminTestApp(false)

	req := httptest.NewRequest("GET", "/admin/users", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
