package main

import (
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/ustbian/backend/internal/cache"
	"github.com/ustbian/backend/internal/realtime"
	"github.com/ustbian/backend/internal/router"
	"github.com/ustbian/backend/pkg/config"
	"github.com/ustbian/backend/validators"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	db, err := config.InitDB(cfg.PostgresConnStr)
	if err != nil {
		slog.Error("failed to initialize database", "err", err)
		os.Exit(1)
	}
	defer config.CloseDB(db)

	rcache := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	e := echo.New()
	e.Validator = validators.NewValidator()
	router.SetupMiddleware(e)

	hub := realtime.NewHub(cfg.JWTSecret)
	e.GET("/ws", hub.HandleWS)

	if err := router.SetupRoutes(e, db, rcache, hub, cfg); err != nil {
		slog.Error("failed to set up routes", "err", err)
		os.Exit(1)
	}

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
