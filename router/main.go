package router

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sentinelai/counsel-api/database"
	"github.com/sentinelai/counsel-api/handlers"
	counsellor_handlers "github.com/sentinelai/counsel-api/handlers/counsellor"
	onboarding_handlers "github.com/sentinelai/counsel-api/handlers/onboarding"
	university_handlers "github.com/sentinelai/counsel-api/handlers/university"
	user_handlers "github.com/sentinelai/counsel-api/handlers/user"
	"github.com/sentinelai/counsel-api/services"
	"github.com/sentinelai/counsel-api/services/directory"
	"github.com/sentinelai/counsel-api/services/llm"
	"github.com/sentinelai/counsel-api/utils/auth"
	"github.com/sentinelai/counsel-api/utils/cache"
	"github.com/sentinelai/counsel-api/utils/keylock"
	"github.com/sentinelai/counsel-api/utils/middleware"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "counsel-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: jwtSecret,
		Issuer: jwtIssuer,
	})

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis is optional: classification simply runs uncached without it.
	var redisCache *cache.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		var err error
		redisCache, err = cache.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis: %v. Classification caching disabled.", err)
			redisCache = nil
		}
	}

	directoryClient := directory.NewClient(directory.Config{
		BaseURL: os.Getenv("UNIVERSITY_API_URL"),
	})

	inferenceClient := llm.NewClient(llm.Config{
		APIKey: os.Getenv("INFERENCE_API_KEY"),
		Model:  os.Getenv("INFERENCE_MODEL"),
	})

	// One lock registry shared by every per-user mutation path.
	locks := keylock.New()

	onboardingService := services.NewOnboardingService(db, locks)
	stageService := services.NewStageService(db, onboardingService)
	shortlistService := services.NewShortlistService(db, directoryClient, locks)

	classifierOpts := []services.ClassifierOption{services.WithCache(redisCache)}
	if raw := os.Getenv("CLASSIFY_CONCURRENCY"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			classifierOpts = append(classifierOpts, services.WithConcurrency(n))
		}
	}
	classifierService := services.NewClassifierService(inferenceClient, classifierOpts...)
	recommendationService := services.NewRecommendationService(directoryClient, classifierService, onboardingService)
	counsellorService := services.NewCounsellorService(inferenceClient, onboardingService, stageService)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	onboardingHandler := onboarding_handlers.NewOnboardingHandler(onboardingService)
	universityHandler := university_handlers.NewUniversityHandler(directoryClient, recommendationService, shortlistService)
	userHandler := user_handlers.NewUserHandler(db, onboardingService, stageService)
	counsellorHandler := counsellor_handlers.NewCounsellorHandler(counsellorService)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", func(c *fiber.Ctx) error {
		return handlers.HandleCheckHealth(c, store)
	})

	// API v1 group, everything behind auth
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return handlers.HandleCheckHealth(c, store)
	})

	onboarding := api.Group("/onboarding", authMiddleware.Required())
	onboarding.Post("/", onboardingHandler.SubmitProfile)
	onboarding.Patch("/", onboardingHandler.UpdateProfile)
	onboarding.Get("/status", onboardingHandler.GetStatus)

	universities := api.Group("/universities", authMiddleware.Required())
	universities.Get("/search", universityHandler.Search)
	universities.Get("/recommendations", universityHandler.Recommendations)
	universities.Get("/shortlist", universityHandler.ListShortlist)
	universities.Post("/shortlist", universityHandler.AddToShortlist)
	universities.Delete("/shortlist/:id", universityHandler.RemoveFromShortlist)
	universities.Post("/lock", universityHandler.Lock)
	universities.Post("/unlock", universityHandler.Unlock)

	user := api.Group("/user", authMiddleware.Required())
	user.Get("/profile", userHandler.GetProfile)
	user.Get("/stage", userHandler.GetStage)

	counsellor := api.Group("/counsellor", authMiddleware.Required())
	counsellor.Post("/chat", counsellorHandler.Chat)
	counsellor.Post("/stream", counsellorHandler.Stream)
	counsellor.Get("/status", counsellorHandler.Status)
}
