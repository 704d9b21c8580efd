package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/StoryWeaveHQ/StoryWeave/app/controllers"
	"github.com/StoryWeaveHQ/StoryWeave/app/repository"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/artifactstore"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/cache"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/database"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/env"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/generation"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/ledger"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/router"
	"github.com/StoryWeaveHQ/StoryWeave/internal/pkg/worker"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	setupGeneration()

	ledgerSvc := ledger.NewService(ledger.NewRepository(database.GetDB()))
	renewal := worker.NewRenewalWorker(
		repository.GetGlobalFactory().GetUserRepository(),
		ledgerSvc,
		time.Hour,
	)
	renewal.Start()

	app := fiber.New(fiber.Config{
		AppName:   "StoryWeave",
		BodyLimit: 4 * 1024 * 1024,
	})

	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	router.InstallRouter(app)

	app.Hooks().OnShutdown(func() error {
		renewal.Stop()
		return nil
	})

	return app
}

// setupGeneration wires the cover generation pipeline when both the
// Gemini API key and the artifact store are configured. Without them the
// generation endpoints answer 503 and the rest of the API works.
func setupGeneration() {
	apiKey := env.GetEnv("GEMINI_API_KEY", "")
	if apiKey == "" {
		log.Println("GEMINI_API_KEY not set, cover generation disabled")
		return
	}

	storeCfg, err := artifactstore.LoadConfig()
	if err != nil {
		log.Printf("artifact store config invalid, cover generation disabled: %v", err)
		return
	}
	if !storeCfg.IsEnabled() {
		log.Println("artifact store disabled, cover generation disabled")
		return
	}
	store, err := artifactstore.NewClient(storeCfg)
	if err != nil {
		log.Printf("artifact store unavailable, cover generation disabled: %v", err)
		return
	}

	generator, err := generation.NewGeminiGenerator(
		context.Background(),
		apiKey,
		env.GetEnv("GEMINI_MODEL", ""),
		store,
	)
	if err != nil {
		log.Printf("gemini client unavailable, cover generation disabled: %v", err)
		return
	}

	tracker := generation.NewStatusTracker()
	orchestrator := generation.NewOrchestrator(
		generator,
		ledger.NewService(ledger.NewRepository(database.GetDB())),
		generation.NewRepository(database.GetDB()),
		tracker,
	)
	controllers.SetBatchOrchestrator(orchestrator, tracker)
	log.Println("cover generation enabled")
}
