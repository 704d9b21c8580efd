package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/StoryWeaveHQ/StoryWeave/app/controllers"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "StoryWeave API",
		})
	})

	v1 := api.Group("/v1")

	// Public endpoints
	auth := v1.Group("/auth")
	auth.Post("/register", controllers.HandleRegister)
	auth.Post("/login", controllers.HandleLogin)

	// Everything below requires a valid bearer token
	protected := v1.Group("", middleware.JWTAuthMiddleware())

	protected.Get("/account", controllers.HandleGetAccount)
	protected.Get("/account/entitlements", controllers.HandleGetEntitlements)

	protected.Post("/projects", controllers.HandleCreateProject)
	protected.Get("/projects", controllers.HandleListProjects)

	protected.Post("/projects/:id/chapters", controllers.HandleCreateChapter)
	protected.Get("/projects/:id/chapters", controllers.HandleListChapters)
	protected.Put("/projects/:id/chapters/:chapterID/content", controllers.HandleUpdateChapterContent)

	protected.Post("/projects/:id/covers/generate", controllers.HandleGenerateCovers)
	protected.Get("/projects/:id/covers", controllers.HandleListCovers)
	protected.Delete("/projects/:id/covers/:uuid", controllers.HandleDeleteCover)
	protected.Get("/covers/batches/:batchID", controllers.HandleGetBatchStatus)

	protected.Post("/projects/:id/exports", controllers.HandleExportProject)
	protected.Get("/exports", controllers.HandleListExports)

	admin := protected.Group("/admin", middleware.RequireAdmin)
	admin.Get("/stats", controllers.HandleAdminStats)
	admin.Get("/users", controllers.HandleAdminListUsers)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
