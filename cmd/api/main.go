package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/pageza/pantrypal/backend/config"
	"github.com/pageza/pantrypal/backend/internal/api"
	"github.com/pageza/pantrypal/backend/internal/database"
	"github.com/pageza/pantrypal/backend/internal/logger"
	"github.com/pageza/pantrypal/backend/internal/repository"
	"github.com/pageza/pantrypal/backend/internal/server"
	"github.com/pageza/pantrypal/backend/internal/service"
	"github.com/pageza/pantrypal/backend/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.Env.IsDevelopment())

	ctx := context.Background()

	stores, err := repository.Open(ctx, cfg, true)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to open database")
	}
	defer stores.Close(ctx)

	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Rate limiting is skipped when Redis is not reachable.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, rate limiting disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTTTL, cfg.ResetTokenTTL)
	email := service.NewEmailService(cfg)
	recipes := service.NewRecipeService(stores.Recipes, stores.Users, store)
	users := service.NewUserService(stores.Users, stores.Recipes, tokens, email, store, cfg.FrontendURL)

	srv := server.New(cfg, api.Services{
		Users:   users,
		Recipes: recipes,
		Contact: service.NewContactService(email),
		Tokens:  tokens,
		Storage: store,
	}, redisClient)

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("env", string(cfg.Env)).Msg("starting server")
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("received signal")
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server stopped")
}
