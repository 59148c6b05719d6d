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

	"github.com/redmonkez12/go-user-api/docs" // Swagger docs (generated)
	"github.com/redmonkez12/go-user-api/internal/auth"
	"github.com/redmonkez12/go-user-api/internal/config"
	"github.com/redmonkez12/go-user-api/internal/database"
	httpServer "github.com/redmonkez12/go-user-api/internal/http"
	"github.com/redmonkez12/go-user-api/internal/logging"
	"github.com/redmonkez12/go-user-api/internal/password"
	"github.com/redmonkez12/go-user-api/internal/ratelimit"
	"github.com/redmonkez12/go-user-api/internal/user"
)

// @title           User Management API
// @version         1.0
// @description     CRUD user management with login over a SQL store.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8000
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(os.Stdout, logging.ParseLevel(cfg.Log.Level), !cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	docs.SwaggerInfo.Title = cfg.App.Name
	docs.SwaggerInfo.Version = cfg.App.Version

	ctx := context.Background()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		applied, err := database.Migrate(ctx, db)
		if err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("database migrated", "applied", applied)
	}

	hasher, err := password.New(cfg.Auth.PasswordHashScheme)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}
	if cfg.Auth.PasswordHashScheme == config.HashSchemeSHA256 {
		logger.Warn("passwords are stored as unsalted SHA-256; set PASSWORD_HASH_SCHEME=argon2id for new hashes")
	}

	pasetoService, err := auth.NewPasetoService(cfg.Auth.TokenKey)
	if err != nil {
		return fmt.Errorf("failed to initialize PASETO service: %w", err)
	}
	if len(cfg.Auth.TokenKey) == 0 {
		logger.Warn("SECRET_KEY not set; using a random token key, tokens will not survive a restart")
	}

	var limiter *ratelimit.Limiter
	if cfg.Redis.Enabled() {
		redisClient, err := initRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()

		limiter = ratelimit.NewLimiter(ratelimit.NewRedisStore(redisClient), cfg.RateLimit.PerMinute, time.Minute)
		logger.Info("rate limiting enabled", "per_minute", cfg.RateLimit.PerMinute)
	} else {
		logger.Info("rate limiting disabled (REDIS_URL not set)")
	}

	userService := user.NewService(user.NewRepository(db), hasher, logger)

	router := httpServer.NewRouter(cfg, httpServer.Dependencies{
		DB:             db,
		Users:          user.NewHandler(userService),
		Auth:           auth.NewHandler(userService, pasetoService, cfg.Auth.AccessTokenDuration),
		AuthMiddleware: auth.NewMiddleware(pasetoService),
		Limiter:        limiter,
	}, logger)

	server := httpServer.NewServer(cfg.Server, router, logger)

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
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initRedis connects to the Redis instance named by cfg.URL
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
