package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quibble/internal/api"
	"quibble/internal/app/service"
	"quibble/internal/common/security"
	"quibble/internal/domain/repository"
	"quibble/internal/platform/cache"
	"quibble/internal/platform/config"
	"quibble/internal/platform/database"

	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// 1. Load Configuration
	config.Load()
	log.Info().Msg("configuration loaded")

	// 2. Initialize Database
	database.Connect()
	defer database.Close()
	log.Info().Msg("database connected")

	// 3. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	log.Info().Msg("redis connected")

	// 4. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	discussionRepo := repository.NewPgDiscussionRepository(database.DB)
	quibbleRepo := repository.NewPgQuibbleRepository(database.DB)

	// 5. Initialize Services
	codec := security.NewTokenCodec(
		config.AppConfig.JWTSecret,
		config.AppConfig.AccessTokenTTL,
		config.AppConfig.RefreshTokenTTL,
	)
	authService := service.NewAuthService(userRepo, codec)
	userService := service.NewUserService(userRepo)
	discussionService := service.NewDiscussionService(discussionRepo, cache.RDB)
	quibbleService := service.NewQuibbleService(quibbleRepo)

	// 6. Initialize Router & HTTP Server
	router := api.NewRouter(log, authService, userService, discussionService, quibbleService)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", config.AppConfig.APIPort).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-stop // Wait for interrupt signal

	log.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("server stopped gracefully")
}
