package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andressep95/focus-service/internal/config"
	"github.com/andressep95/focus-service/internal/handler"
	"github.com/andressep95/focus-service/internal/handler/middleware"
	"github.com/andressep95/focus-service/internal/service"
	"github.com/andressep95/focus-service/pkg/blacklist"
	"github.com/andressep95/focus-service/pkg/cache"
	"github.com/andressep95/focus-service/pkg/clock"
	"github.com/andressep95/focus-service/pkg/hash"
	"github.com/andressep95/focus-service/pkg/jwt"
	"github.com/andressep95/focus-service/pkg/logger"
	"github.com/andressep95/focus-service/pkg/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply the PostgreSQL schema before serving")
}

func serve(parent context.Context, cfg *config.Config) error {
	log := logger.New(cfg.Server.Environment, cfg.Log.Level)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log, serveMigrate)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("error closing database", "error", err)
		}
	}()

	redisClient, err := initRedis(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("error closing Redis", "error", err)
			}
		}()
		log.Info("redis ready", "addr", cfg.Redis.Addr())
	} else {
		log.Warn("redis disabled, tokens cannot be revoked and the leaderboard is not cached")
	}

	privateKey, publicKey, err := loadRSAKeys(cfg)
	if err != nil {
		return err
	}

	clk := clock.SystemClock{}
	tokenService, err := jwt.NewTokenService(
		privateKey,
		publicKey,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
		cfg.JWT.Issuer,
		clk,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	// typed nils must not reach the services
	var leaderboardCache service.LeaderboardCache
	var revoker service.TokenRevoker
	checks := map[string]handler.Pinger{"database": store}
	if redisClient != nil {
		leaderboardCache = cache.NewLeaderboardCache(redisClient, cfg.Focus.LeaderboardCacheTTL)
		revoker = blacklist.NewTokenBlacklist(redisClient, clk)
		checks["cache"] = redisPinger{client: redisClient}
	}

	validate := validator.NewValidator()
	sessionService := service.NewSessionService(store, leaderboardCache, clk, cfg.Focus, log)
	authService := service.NewAuthService(store, tokenService, revoker, hash.NewHasher(hash.DefaultParams), sessionService, clk, log)

	app := fiber.New(fiber.Config{
		AppName:               "Focus Service " + version,
		DisableStartupMessage: true,
		ErrorHandler:          handler.ErrorHandler(log),
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
	})

	app.Use(middleware.LoggerMiddleware(log))
	app.Use(middleware.RecoveryMiddleware(log))
	app.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))

	handler.SetupRoutes(
		app,
		handler.NewAuthHandler(authService, validate),
		handler.NewSessionHandler(sessionService, validate),
		handler.NewHealthHandler(checks),
		middleware.AuthMiddleware(authService),
	)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Server.Port
		log.Info("server starting", "addr", addr, "environment", cfg.Server.Environment, "version", version)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
	return nil
}
