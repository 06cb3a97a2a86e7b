package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/proveloce/connect/internal/api"
	"github.com/proveloce/connect/internal/api/handler"
	"github.com/proveloce/connect/internal/core/service"
	"github.com/proveloce/connect/internal/infrastructure/config"
	mongodb "github.com/proveloce/connect/internal/infrastructure/db/mongo"
	redisdb "github.com/proveloce/connect/internal/infrastructure/db/redis"
	"github.com/proveloce/connect/internal/infrastructure/oauth"
	"github.com/proveloce/connect/internal/infrastructure/queue"
	"github.com/proveloce/connect/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load(slog.Default())

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Backing stores ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	redisClient, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisClient.Close()

	// --- Repositories ---
	userRepo := mongodb.NewUserRepository(db)
	refreshRepo := mongodb.NewRefreshTokenRepository(db)
	appRepo := mongodb.NewApplicationRepository(db)
	ticketRepo := mongodb.NewTicketRepository(db)
	taskRepo := mongodb.NewTaskRepository(db)
	expertTaskRepo := mongodb.NewExpertTaskRepository(db)
	configRepo := mongodb.NewConfigRepository(db)
	notificationRepo := mongodb.NewNotificationRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)
	configCache := redisdb.NewConfigCache(redisClient)

	type indexed interface {
		EnsureIndexes(ctx context.Context) error
	}
	for _, repo := range []indexed{
		userRepo, refreshRepo, appRepo, ticketRepo,
		taskRepo, expertTaskRepo, notificationRepo, auditRepo,
	} {
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("index creation failed")
		}
	}

	// --- Async notification delivery ---
	notifier := queue.NewNotifier(0, notificationRepo, log)
	notifier.Start(ctx)

	// --- Services ---
	googleOAuth := oauth.NewGoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)
	authService := service.NewAuthService(
		userRepo, refreshRepo, appRepo, auditRepo, googleOAuth,
		cfg.JWTSecret,
		time.Duration(cfg.Tokens.AccessTTLHours)*time.Hour,
		time.Duration(cfg.Tokens.RefreshTTLHours)*time.Hour,
		log,
	)
	applicationService := service.NewApplicationService(appRepo, userRepo, auditRepo, notifier, log)
	ticketService := service.NewTicketService(ticketRepo, auditRepo, notifier, log)
	taskService := service.NewTaskService(taskRepo, expertTaskRepo, auditRepo, notifier, log)
	adminUserService := service.NewAdminUserService(userRepo, auditRepo, log)
	configService := service.NewConfigService(configRepo, configCache, auditRepo, log)

	if err := configService.Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("config seed failed")
	}

	// --- HTTP layer ---
	handlers := api.Handlers{
		Auth:          handler.NewAuthHandler(authService, cfg.FrontendURL),
		Applications:  handler.NewApplicationHandler(applicationService),
		Tickets:       handler.NewTicketHandler(ticketService),
		Tasks:         handler.NewTaskHandler(taskService),
		AdminUsers:    handler.NewAdminUserHandler(adminUserService),
		Config:        handler.NewConfigHandler(configService),
		Notifications: handler.NewNotificationHandler(notificationRepo),
		Health:        handler.NewHealthHandler(mongoClient, redisClient),
	}
	e := api.NewRouter(handlers, api.RouterConfig{
		JWTSecret:   cfg.JWTSecret,
		FrontendURL: cfg.FrontendURL,
		Logger:      log,
	})

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
