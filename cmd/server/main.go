package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"familyspace/internal/auth"
	"familyspace/internal/config"
	"familyspace/internal/database"
	"familyspace/internal/handlers"
	"familyspace/internal/logger"
	"familyspace/internal/notify"
	"familyspace/internal/repository"
	"familyspace/internal/security"
	"familyspace/internal/service"
	"familyspace/migrations"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.LogLevel, cfg.LogFormat, "familyspace")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logr.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	handlers.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		logr.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	handlers.CompleteStep(handlers.StepDatabase)
	logr.Info("database connection established", zap.String("type", cfg.DatabaseType))

	handlers.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		logr.Fatal("failed to run migrations", zap.Error(err))
	}
	handlers.CompleteStep(handlers.StepMigrations)

	handlers.SetCurrentStep(handlers.StepServices)
	notifier := buildNotifier(ctx, cfg, db, logr)

	calendar := service.NewCalendar(cfg.Location(), nil)
	tokens := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry())
	kakao := auth.NewKakaoClient(cfg.KakaoUserInfoURL)

	registry := service.NewInvitationRegistry(db, tokens, cfg.FamilyRejoinPolicy, calendar, logr)
	authService := service.NewAuthService(db, kakao, tokens, calendar, logr)
	familyService := service.NewFamilyService(db, registry, tokens, cfg.FamilyRejoinPolicy, calendar, logr)
	activityService := service.NewActivityService(db, calendar, notifier, logr)

	limiter := security.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow())
	go limiter.Run(ctx, time.Hour)

	router := handlers.NewRouter(handlers.RouterConfig{
		Logger:         logr,
		Tokens:         tokens,
		DB:             db,
		Auth:           authService,
		Families:       familyService,
		Invitations:    registry,
		Activities:     activityService,
		RateLimiter:    limiter,
		AllowedOrigins: cfg.CORSOrigins,
	})
	handlers.CompleteStep(handlers.StepServices)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()
	handlers.MarkReady()

	<-ctx.Done()
	logr.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}

// buildNotifier assembles the activity fan-out from whatever sinks are
// configured
func buildNotifier(ctx context.Context, cfg *config.Config, db *database.DB, logr *zap.Logger) notify.Gateway {
	var sinks []notify.Sink

	if cfg.RedisAddr != "" {
		client := notify.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
		if err := client.Ping(ctx).Err(); err != nil {
			logr.Warn("redis unavailable, skipping pub/sub notifications", zap.Error(err))
		} else {
			sinks = append(sinks, notify.NewRedisSink(client, cfg.NotifyChannelPrefix))
		}
	}

	email, err := notify.NewEmailSink(ctx, cfg.SESRegion, cfg.SESFromEmail, cfg.SESFromName, logr)
	if err != nil {
		logr.Warn("email notifications disabled", zap.Error(err))
	} else if email.IsEnabled() {
		sinks = append(sinks, email)
	}

	logr.Info("notification sinks configured", zap.Int("count", len(sinks)))
	return notify.NewDispatcher(repository.NewMemberRepository(db), logr, sinks...)
}
