package router

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/ustbian/backend/internal/cache"
	"github.com/ustbian/backend/internal/handlers"
	"github.com/ustbian/backend/internal/middleware"
	"github.com/ustbian/backend/internal/models"
	"github.com/ustbian/backend/internal/notify"
	"github.com/ustbian/backend/internal/realtime"
	"github.com/ustbian/backend/internal/repositories"
	"github.com/ustbian/backend/pkg/config"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Logger())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
}

// SetupRoutes migrates the schema, wires repositories, the notifier and
// handlers, and registers all application routes.
func SetupRoutes(e *echo.Echo, db *gorm.DB, rcache *cache.Cache, broadcaster realtime.Broadcaster, cfg *config.Config) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Like{},
		&models.Comment{},
		&models.Follow{},
		&models.SavedPost{},
		&models.Notification{},
	)
	if err != nil {
		return err
	}
	slog.Info("auto-migrations completed for all models")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	userRepo := repositories.NewPostgresUserRepository(db)
	postRepo := repositories.NewPostgresPostRepository(db)
	likeRepo := repositories.NewPostgresLikeRepository(db)
	commentRepo := repositories.NewPostgresCommentRepository(db)
	followRepo := repositories.NewPostgresFollowRepository(db)
	savedPostRepo := repositories.NewPostgresSavedPostRepository(db)
	notificationRepo := repositories.NewPostgresNotificationRepository(db)

	notifier := notify.New(notificationRepo, userRepo, rcache, broadcaster)

	// Public routes need no token; auth routes go through the JWT
	// middleware.
	public := e.Group("/api/v1")
	auth := e.Group("/api/v1")
	auth.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.JWTExpiryHours)
	authHandler.RegisterAuthRoutes(public, auth)

	userHandler := handlers.NewUserHandler(userRepo, followRepo)
	userHandler.RegisterUserRoutes(public, auth)

	postHandler := handlers.NewPostHandler(postRepo, userRepo, notifier)
	postHandler.RegisterPostRoutes(public, auth)

	likeHandler := handlers.NewLikeHandler(likeRepo, postRepo, userRepo, notifier, broadcaster)
	likeHandler.RegisterLikeRoutes(public, auth)

	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, userRepo, notifier, broadcaster)
	commentHandler.RegisterCommentRoutes(public, auth)

	followHandler := handlers.NewFollowHandler(followRepo, userRepo, notifier)
	followHandler.RegisterFollowRoutes(public, auth)

	savedPostHandler := handlers.NewSavedPostHandler(savedPostRepo, postRepo)
	savedPostHandler.RegisterSavedPostRoutes(auth)

	notificationHandler := handlers.NewNotificationHandler(notifier)
	notificationHandler.RegisterNotificationRoutes(auth)

	slog.Info("all routes configured")
	return nil
}
