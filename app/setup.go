package app

import (
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/Franc-dev/galaxy-chat/api"
	"github.com/Franc-dev/galaxy-chat/config"
	"github.com/Franc-dev/galaxy-chat/database"
	"github.com/Franc-dev/galaxy-chat/router"
	"github.com/Franc-dev/galaxy-chat/services/cron"
	"github.com/Franc-dev/galaxy-chat/services/openrouter"
	"github.com/Franc-dev/galaxy-chat/utils/cache"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the database is running or not\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		return err
	}

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return fmt.Errorf("failed to get GORM DB instance")
	}

	// Seed the super admin and default agents once, at boot
	if err := database.NewSeeder(db).SeedAll(); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	// Redis is optional: without it the model cache falls back to live
	// fetches and brute force protection stays off
	var redisCache *cache.RedisCache
	if getEnv.REDIS_URL != "" {
		redisCache, err = cache.NewRedisCache(getEnv.REDIS_URL)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis: %v. Caching and brute force protection disabled.", err)
			redisCache = nil
		}
	} else {
		log.Println("Warning: REDIS_URL not set. Caching and brute force protection disabled.")
	}

	// OpenRouter gateway client and model selector
	var orClient *openrouter.Client
	var selector *openrouter.ModelSelector
	if getEnv.OPENROUTER_API_KEY != "" {
		orClient = openrouter.NewClient(openrouter.Config{
			APIKey:  getEnv.OPENROUTER_API_KEY,
			BaseURL: getEnv.OPENROUTER_BASE_URL,
		})
		selector = openrouter.NewModelSelector(orClient, redisCache)
	} else {
		log.Println("Warning: OPENROUTER_API_KEY not set. Chat requests will fail until configured.")
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" { // Default to enabled
		cronManager = cron.NewCronManager(db, selector)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			log.Printf("Warning: Failed to start cron jobs: %v", err)
		}
	}

	// Defer Closing DB and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		if redisCache != nil {
			redisCache.Close()
		}
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Setup Routes (security middleware is applied inside)
	router.SetupRoutes(app, store, router.Deps{
		OpenRouter: orClient,
		Selector:   selector,
		Cache:      redisCache,
	})

	// Get the PORT & Start the Server
	return server.Run()
}
