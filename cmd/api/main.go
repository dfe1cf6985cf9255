package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/whisper-api/docs" // Swagger docs
	"github.com/redmonkez12/whisper-api/internal/auth"
	"github.com/redmonkez12/whisper-api/internal/config"
	"github.com/redmonkez12/whisper-api/internal/docstore"
	httpServer "github.com/redmonkez12/whisper-api/internal/http"
	"github.com/redmonkez12/whisper-api/internal/logging"
	"github.com/redmonkez12/whisper-api/internal/message"
	"github.com/redmonkez12/whisper-api/internal/ratelimit"
	"github.com/redmonkez12/whisper-api/internal/reporting"
	"github.com/redmonkez12/whisper-api/internal/user"
)

// @title           Whisper API
// @version         1.0
// @description     Anonymous and identified messaging between users.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:3000
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
		"store", cfg.Store.Driver,
		"token_strategy", cfg.Auth.TokenStrategy,
	)

	reporter := reporting.NewSentryService(cfg.Sentry, logger)
	defer reporter.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := docstore.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error("failed to close store", "error", err.Error())
		}
	}()

	if err := store.EnsureIndexes(ctx, append(user.Indexes(), message.Indexes()...)...); err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		redisClient, err := initRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()

		limiter, err = ratelimit.NewLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		if err != nil {
			return fmt.Errorf("failed to initialize rate limiter: %w", err)
		}
	} else {
		logger.Warn("rate limiting disabled")
	}

	tokens, err := auth.NewTokenService(cfg.Auth.TokenStrategy, cfg.Auth.JWTSecret, cfg.Auth.PasetoKey)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	hasher, err := auth.NewHasher(cfg.Auth.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	userRepo := user.NewRepository(store)
	userService := user.NewService(userRepo, hasher, tokens)
	messageService := message.NewService(message.NewRepository(store), userRepo)

	router := httpServer.NewRouter(cfg, httpServer.Handlers{
		Users:     user.NewHandler(userService, limiter, reporter),
		Messages:  message.NewHandler(messageService, reporter),
		Auth:      auth.NewMiddleware(tokens),
		Recoverer: reporter.Recoverer,
	}, logger)

	server := httpServer.NewServer(
		cfg.Server.Addr(),
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
