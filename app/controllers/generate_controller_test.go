package controllers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/usercontext"
)

func newTestApp(loggedIn bool) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if loggedIn {
			c.Locals("USER_CONTEXT", usercontext.UserContext{UserID: 1, IsLoggedIn: true})
		}
		return c.Next()
	})
	app.Post("/projects/:id/covers/generate", HandleGenerateCovers)
	app.Delete("/projects/:id/covers/:uuid", HandleDeleteCover)
	app.Get("/covers/batches/:batchID", HandleGetBatchStatus)
	return app
}

func TestHandleGenerateCoversRequiresAuth(t *testing.T) {
	app := newTestApp(false)

	req := httptest.NewRequest("POST", "/projects/1/covers/generate", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHandleGenerateCoversWithoutPipeline(t *testing.T) {
	SetBatchOrchestrator(nil, nil)
	app := newTestApp(true)

	req := httptest.NewRequest("POST", "/projects/1/covers/generate", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestHandleDeleteCoverRequiresAuth(t *testing.T) {
	app := newTestApp(false)

	req := httptest.NewRequest("DELETE", "/projects/1/covers/some-uuid", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHandleGetBatchStatusWithoutPipeline(t *testing.T) {
	SetBatchOrchestrator(nil, nil)
	app := newTestApp(true)

	req := httptest.NewRequest("GET", "/covers/batches/abc", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
