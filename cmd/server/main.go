package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/nomadland/nomadland/internal/config"
	"github.com/nomadland/nomadland/internal/database"
	"github.com/nomadland/nomadland/internal/handlers"
	"github.com/nomadland/nomadland/internal/middleware"
	"github.com/nomadland/nomadland/internal/services"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create admin user if it doesn't exist
	if err := database.EnsureAdminUser(db, cfg); err != nil {
		log.Printf("Warning: Could not ensure admin user: %v", err)
	}

	// Initialize S3 storage for uploaded images (optional)
	var storage *services.StorageService
	if cfg.S3Endpoint != "" && cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		storage, err = services.NewStorageService(
			cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL,
		)
		if err != nil {
			log.Printf("Warning: Failed to initialize storage service: %v", err)
			storage = nil
		} else if err := storage.EnsureBucket(context.Background()); err != nil {
			log.Printf("Warning: Failed to ensure S3 bucket exists: %v", err)
		}
	} else {
		log.Println("S3 not configured, image uploads disabled")
	}

	// Initialize Redis-backed event query cache (optional)
	var eventCache *services.EventCache
	if cfg.RedisAddr != "" {
		eventCache, err = services.NewEventCache(
			cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.EventCacheTTL,
		)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis, event caching disabled: %v", err)
			eventCache = nil
		} else {
			defer eventCache.Close()
		}
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Create handler with dependencies
	h := handlers.New(db, cfg, storage, eventCache)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API routes
	api := app.Group("/api")

	// Email verification middleware for write operations
	emailVerified := middleware.EmailVerifiedRequiredFunc(h.CreateEmailVerificationChecker())

	// Auth routes (public)
	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Post("/logout", h.Logout)
	auth.Get("/me", middleware.AuthRequired(cfg), h.GetCurrentUser)
	auth.Post("/refresh", middleware.AuthRequired(cfg), h.RefreshToken)
	auth.Get("/verify-email", h.VerifyEmail)
	auth.Post("/resend-verification", middleware.AuthRequired(cfg), h.ResendVerification)

	// User routes
	users := api.Group("/users")
	users.Get("/:id", h.GetUserProfile)
	users.Put("/me", middleware.AuthRequired(cfg), h.UpdateCurrentUser)
	users.Post("/me/change-password", middleware.AuthRequired(cfg), h.ChangePassword)

	// Region routes (public read, admin write)
	regions := api.Group("/regions")
	regions.Get("/", h.ListRegions)
	regions.Get("/locate", h.LocateRegion)
	regions.Get("/:id", h.GetRegion)
	regions.Get("/:id/contains", h.RegionContains)
	regions.Get("/:id/events.ics", h.RegionEventsICS)

	// Point routes (public read, authenticated write)
	points := api.Group("/points")
	points.Get("/", middleware.AuthOptional(cfg), h.ListPoints)
	points.Get("/:id", middleware.AuthOptional(cfg), h.GetPoint)
	points.Get("/:id/reviews", h.ListPointReviews)
	points.Post("/", middleware.AuthRequired(cfg), emailVerified, h.CreatePoint)
	points.Put("/:id", middleware.AuthRequired(cfg), emailVerified, h.UpdatePoint)
	points.Delete("/:id", middleware.AuthRequired(cfg), emailVerified, h.DeletePoint)
	points.Post("/:id/reviews", middleware.AuthRequired(cfg), emailVerified, h.SubmitReview)
	points.Post("/:id/moderate", middleware.AuthRequired(cfg), middleware.ModeratorRequired(), h.ModeratePoint)

	// Review routes (delete only; reviews are created through their point)
	api.Delete("/reviews/:id", middleware.AuthRequired(cfg), h.DeleteReview)

	// Event routes (public read, authenticated write)
	events := api.Group("/events")
	events.Get("/", h.ListEventInstances)
	events.Get("/:id", middleware.AuthOptional(cfg), h.GetEvent)
	events.Post("/", middleware.AuthRequired(cfg), emailVerified, h.CreateEvent)
	events.Put("/:id", middleware.AuthRequired(cfg), emailVerified, h.UpdateEvent)
	events.Delete("/:id", middleware.AuthRequired(cfg), emailVerified, h.DeleteEvent)
	events.Put("/:id/overrides/:date", middleware.AuthRequired(cfg), emailVerified, h.UpsertEventOverride)
	events.Delete("/:id/overrides/:date", middleware.AuthRequired(cfg), emailVerified, h.DeleteEventOverride)
	events.Post("/:id/rsvp", middleware.AuthRequired(cfg), emailVerified, h.RSVPEvent)
	events.Delete("/:id/rsvp", middleware.AuthRequired(cfg), h.UnRSVPEvent)

	// Personal map routes (authenticated)
	maps := api.Group("/maps", middleware.AuthRequired(cfg))
	maps.Get("/", h.ListMyMaps)
	maps.Post("/", h.CreateMap)
	maps.Get("/:id", h.GetMap)
	maps.Get("/:id/by-region", h.GetMapByRegion)
	maps.Put("/:id", h.UpdateMap)
	maps.Delete("/:id", h.DeleteMap)
	maps.Post("/:id/points", h.AddMapPoint)
	maps.Delete("/:id/points/:pointId", h.RemoveMapPoint)
	maps.Post("/:id/share", h.ShareMap)
	maps.Delete("/:id/share", h.UnshareMap)

	// Public shared map route (no auth required)
	api.Get("/shared/:token", h.GetSharedMap)

	// Image upload (authenticated)
	api.Post("/uploads", middleware.AuthRequired(cfg), emailVerified, h.UploadImage)

	// Admin routes (admin only)
	admin := api.Group("/admin", middleware.AuthRequired(cfg), middleware.AdminRequired())
	admin.Get("/users", h.AdminListUsers)
	admin.Post("/users", h.AdminCreateUser)
	admin.Put("/users/:id", h.AdminUpdateUser)
	admin.Delete("/users/:id", h.AdminDeleteUser)
	admin.Get("/stats", h.AdminStats)

	// Admin region routes
	admin.Post("/regions", h.CreateRegion)
	admin.Put("/regions/:id", h.UpdateRegion)
	admin.Delete("/regions/:id", h.DeleteRegion)

	// Moderation queue (moderator or admin)
	api.Get("/moderation/queue",
		middleware.AuthRequired(cfg), middleware.ModeratorRequired(), h.ModerationQueue)

	log.Printf("Server starting on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
