package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"

	"github.com/quotefox/quotefox/app/controllers"
	"github.com/quotefox/quotefox/app/models"
	"github.com/quotefox/quotefox/app/repository"
	"github.com/quotefox/quotefox/internal/pkg/cache"
	"github.com/quotefox/quotefox/internal/pkg/database"
	"github.com/quotefox/quotefox/internal/pkg/env"
	"github.com/quotefox/quotefox/internal/pkg/inference"
	"github.com/quotefox/quotefox/internal/pkg/quotegen"
	"github.com/quotefox/quotefox/internal/pkg/quotenumber"
	"github.com/quotefox/quotefox/internal/pkg/ratecache"
	"github.com/quotefox/quotefox/internal/pkg/router"
	"github.com/quotefox/quotefox/internal/pkg/storage"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4100")))
	log.Fatal(err)
}

// NewApplication wires the collaborators once and returns the ready app.
// Everything downstream receives them injected; nothing below this layer
// reads the environment or picks a backend.
func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	backend, err := storage.Select()
	if err != nil {
		log.Fatalf("storage backend setup failed: %v", err)
	}

	infCfg, err := inference.LoadConfig()
	if err != nil {
		log.Fatalf("inference setup failed: %v", err)
	}
	svc := inference.NewClient(infCfg)

	store := ratecache.NewStore(backend)
	engine := ratecache.NewEngine(store, backend, svc)
	generator := quotegen.NewGenerator(svc, engine)
	numbers := quotenumber.NewAllocator(repository.GetGlobalRepositories().Counter, func() int64 {
		return models.GetAppSettings().QuoteNumberStart
	})
	controllers.Setup(backend, svc, engine, generator, numbers)

	// Self-heal a lost mapping index without waiting for the next
	// generation request to pay the rebuild cost.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 30m", func() {
		engine.Reconcile(context.Background())
	}); err != nil {
		log.Fatalf("failed to schedule rate-cache reconcile: %v", err)
	}
	scheduler.Start()

	app := fiber.New(fiber.Config{
		BodyLimit: 52428800, // 50 MiB, batches carry base64 attachments
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	router.InstallRouter(app)

	return app
}
