package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/benbeisheim/tapchess-backend/internal/config"
	"github.com/benbeisheim/tapchess-backend/internal/controller"
	"github.com/benbeisheim/tapchess-backend/internal/middleware"
	"github.com/benbeisheim/tapchess-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := fiber.New(fiber.Config{DisableStartupMessage: !cfg.Dev})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ", "),
		AllowHeaders:     "Origin, Content-Type, Accept, " + middleware.PlayerIDHeader,
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: !slices.Contains(cfg.AllowedOrigins, "*"),
	}))
	app.Use(middleware.RequestLogger(logger))

	gameManager := service.NewGameManager(logger)
	defer gameManager.Close()
	gameService := service.NewGameService(gameManager)

	gameController := controller.NewGameController(gameService, logger)
	wsController := controller.NewWebSocketController(gameService, logger)
	controller.Routes(app, gameController, wsController, cfg.AllowedOrigins)

	go gameManager.RunMatchmaking(ctx, cfg.MatchmakingInterval)
	go gameManager.RunReaper(ctx, cfg.ReapInterval, service.ExpiryPolicy{
		GameIdle:    cfg.GameIdleTimeout,
		MatchPickup: cfg.MatchPickupTimeout,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- app.Listen(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(5 * time.Second)
	}
}
