package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/go-auth-flow/docs" // Swagger docs
	"github.com/redmonkez12/go-auth-flow/internal/auth"
	"github.com/redmonkez12/go-auth-flow/internal/config"
	"github.com/redmonkez12/go-auth-flow/internal/database"
	"github.com/redmonkez12/go-auth-flow/internal/email"
	httpServer "github.com/redmonkez12/go-auth-flow/internal/http"
	"github.com/redmonkez12/go-auth-flow/internal/logging"
	"github.com/redmonkez12/go-auth-flow/internal/ratelimit"
	"github.com/redmonkez12/go-auth-flow/internal/user"
)

// @title           Go Auth Flow API
// @version         1.0
// @description     Registration with email verification, cookie based sessions and role checks.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name token

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

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"token_format", cfg.Auth.TokenFormat,
	)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(context.Background(), db.DB, cfg.Database.Driver, logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Rate limiting is optional; Redis is only needed when it is enabled
	var rateLimiter auth.RateLimiter
	if cfg.RateLimit.Enabled {
		redisClient, err := initRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()

		rateLimiter = ratelimit.NewLimiter(redisClient, cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}

	codec, err := auth.NewTokenCodec(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}

	userRepo := user.NewRepository(db, user.WithPasswordHasher(user.PasswordHasher{
		Time:    cfg.Auth.Argon2Time,
		Memory:  cfg.Auth.Argon2Memory,
		Threads: cfg.Auth.Argon2Threads,
		KeyLen:  user.DefaultPasswordHasher.KeyLen,
	}))

	var notifier auth.Notifier
	if cfg.Email.SMTPHost != "" {
		notifier = email.NewService(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
			logger,
		)
	} else {
		logger.Warn("SMTP_HOST not set, verification emails will only be logged")
		notifier = email.NewLogSender(logger)
	}

	authService := auth.NewService(userRepo, notifier, logger, auth.ServiceConfig{
		FrontendURL:            cfg.Email.FrontendURL,
		DispatchTimeout:        cfg.Email.DispatchTimeout,
		ConcealUnknownAccounts: cfg.Auth.ConcealUnknownAccounts,
	})

	sessions := auth.NewSessionTransport(
		codec,
		cfg.Auth.CookieSecret,
		cfg.Auth.CookieName,
		cfg.Auth.SessionTTL,
		cfg.Server.IsProduction(),
	)

	authHandler := auth.NewHandler(authService, sessions, rateLimiter, cfg.Auth.ExposeVerificationToken)
	authMiddleware := auth.NewMiddleware(sessions)

	router := httpServer.NewRouter(cfg, authHandler, authMiddleware, db, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
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

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
