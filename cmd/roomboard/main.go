package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/javiortega/roomboard/internal/api"
	"github.com/javiortega/roomboard/internal/auth"
	"github.com/javiortega/roomboard/internal/config"
	"github.com/javiortega/roomboard/internal/metrics"
	"github.com/javiortega/roomboard/internal/notify"
	"github.com/javiortega/roomboard/internal/realtime"
	"github.com/javiortega/roomboard/internal/repository/postgres"
	"github.com/javiortega/roomboard/internal/service"
	"github.com/javiortega/roomboard/pkg/logger"
)

const tokenDuration = 24 * time.Hour

func main() {
	// A missing .env file is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting roomboard...")

	// Database
	db, err := config.NewDatabase(cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate("migrations"); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	roomRepo := postgres.NewRoomRepository(db.DB)
	reminderRepo := postgres.NewReminderRepository(db.DB)
	personRepo := postgres.NewPersonRepository(db.DB)
	tagRepo := postgres.NewTagRepository(db.DB)
	commentRepo := postgres.NewCommentRepository(db.DB)
	membershipRepo := postgres.NewMembershipRepository(db.DB)
	userRepo := postgres.NewUserRepository(db.DB)

	// Service layer
	svc := service.New(l,
		roomRepo, reminderRepo, personRepo, tagRepo,
		commentRepo, membershipRepo, userRepo,
	)

	// Realtime change feed
	feed, err := realtime.New(cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to start realtime feed: %v", err)
	}
	defer feed.Close()

	authMgr := auth.NewManager(userRepo, cfg.JWTSecret, tokenDuration)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Optional Telegram due-reminder notifier
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		notifier, err := notify.New(cfg.TelegramToken, cfg.TelegramChatID, svc, l)
		if err != nil {
			l.Fatalf("Failed to create notifier: %v", err)
		}
		go notifier.Run(ctx)
	}

	// Metrics endpoint on its own port
	go func() {
		if err := metrics.Serve(cfg.MetricsPort, l); err != nil {
			l.Errorf("Metrics server error: %v", err)
		}
	}()

	// HTTP API
	apiServer := api.NewServer(svc, authMgr, feed, cfg.StateDir, l)
	defer apiServer.Close()

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: apiServer.Handler(),
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	l.Info("roomboard started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Errorf("HTTP shutdown error: %v", err)
	}

	l.Info("roomboard stopped")
}
