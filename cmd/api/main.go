package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/coreadability/coreadability-api/internal/config"
	"github.com/coreadability/coreadability-api/internal/handler"
	"github.com/coreadability/coreadability-api/internal/middleware"
	pgRepo "github.com/coreadability/coreadability-api/internal/repository/postgres"
	redisRepo "github.com/coreadability/coreadability-api/internal/repository/redis"
	"github.com/coreadability/coreadability-api/internal/service"
	"github.com/coreadability/coreadability-api/internal/service/recommend"
	"github.com/coreadability/coreadability-api/pkg/auth"
	"github.com/coreadability/coreadability-api/pkg/database"
	"github.com/coreadability/coreadability-api/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to read .env")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	isProduction := os.Getenv("GIN_MODE") == gin.ReleaseMode
	if isProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// appCtx is cancelled on shutdown and stops the websocket watchers
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.MigrateDB(db, cfg.Database.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	redisClient, err := database.NewUniversalRedisClient(appCtx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	log.Info().Str("mode", cfg.Redis.Mode).Msg("connected to Redis")

	// Repositories
	accountRepo := pgRepo.NewUserAccountRepo(db)
	relRepo := pgRepo.NewParentChildRepo(db)
	usageRepo := pgRepo.NewScreenUsageRepo(db)
	genreRepo := pgRepo.NewGenreRepo(db)
	blockedRepo := pgRepo.NewBlockedGenreRepo(db)
	detailsRepo := pgRepo.NewChildDetailsRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize cache repository")
	}
	markerRepo := redisRepo.NewDayMarkerRepo(redisClient)
	sessionRepo := redisRepo.NewTrackedSessionRepo(redisClient)
	sentLog := redisRepo.NewNotificationLogRepo(redisClient)
	stateRepo := redisRepo.NewSessionStateRepo(cacheRepo)

	// Services
	var emailService service.EmailService = service.NewNoopEmailService()
	if cfg.Email.ResendAPIKey != "" {
		resendService, err := service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize email service")
		}
		emailService = resendService
	} else {
		log.Warn().Msg("RESEND_API_KEY is not set, parent notifications are logged only")
	}

	var alerter service.LimitAlerter
	if cfg.ScreenTime.NotifyParent {
		alerter = service.NewParentAlertService(relRepo, accountRepo, sentLog, emailService)
	}

	screenService := service.NewScreenTimeService(relRepo, usageRepo, markerRepo, sessionRepo, alerter)

	rollover, err := service.NewRolloverJob(cfg.ScreenTime.RolloverSpec, screenService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to schedule rollover job")
	}
	rollover.Start()

	recommender := recommend.NewService(genreRepo, blockedRepo, detailsRepo, relRepo, cacheRepo, recommend.Options{
		UncertaintyThreshold: cfg.Recommend.UncertaintyThreshold,
		RandomGenreCount:     cfg.Recommend.RandomGenreCount,
		CatalogCacheTTL:      cfg.Recommend.CatalogCacheTTL,
	})

	var chatBackend service.ChatBackend = service.UnavailableChatBackend{}
	if cfg.Chat.BaseURL != "" {
		httpBackend, err := service.NewHTTPChatBackend(service.ChatBackendOptions{
			BaseURL:         cfg.Chat.BaseURL,
			Timeout:         cfg.Chat.Timeout,
			BreakerFailures: cfg.Chat.BreakerFailures,
			BreakerTimeout:  cfg.Chat.BreakerTimeout,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize chat backend")
		}
		chatBackend = httpBackend
	} else {
		log.Warn().Msg("chat.base_url is not set, /api/chat will answer 503 unless genres are suggested")
	}
	chatService := service.NewChatService(recommender, stateRepo, chatBackend, cfg.Chat.MaxQuestionChars)

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token verifier")
	}

	router := setupRouter(routerDeps{
		cfg:           cfg,
		isProduction:  isProduction,
		authMW:        middleware.NewAuthMiddleware(verifier, accountRepo),
		rateLimiter:   middleware.NewRateLimiter(redisClient),
		screenHandler: handler.NewScreenTimeHandler(screenService),
		parentHandler: handler.NewParentHandler(screenService, recommender),
		genreHandler:  handler.NewGenreHandler(recommender, chatService),
		chatHandler:   handler.NewChatHandler(chatService),
		wsHandler:     handler.NewWSHandler(appCtx, screenService, cfg.ScreenTime.PollInterval, cfg.Server.AllowedOrigins),
		ready: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				return err
			}
			return redisClient.Ping(ctx).Err()
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	// watchers flush their tracked sessions on cancel
	cancel()
	rollover.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := redisClient.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close Redis client")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info().Msg("server exited properly")
}
