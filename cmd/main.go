package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/laurierboom/tournament-engine/config"
	"github.com/laurierboom/tournament-engine/db"
	"github.com/laurierboom/tournament-engine/handlers"
	"github.com/laurierboom/tournament-engine/live"
	"github.com/laurierboom/tournament-engine/repositories"
	api "github.com/laurierboom/tournament-engine/routes"
	"github.com/laurierboom/tournament-engine/services"
	"github.com/laurierboom/tournament-engine/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	var publisher *services.ReportPublisher
	if cfg.ReportPublishingEnabled() {
		uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		publisher = services.NewReportPublisher(uploader)
		logger.Info("report publishing enabled")
	} else {
		logger.Info("report publishing disabled: R2 credentials not configured")
	}

	wsHub := live.NewHub(logger)
	go wsHub.Run()

	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)
	historyRepo := repositories.NewPostgresRatingHistoryRepository(dbConn)

	playerService := services.NewPlayerService(playerRepo, historyRepo)
	matchService := services.NewMatchService(dbConn, tournamentRepo, roundRepo, matchRepo, standingRepo, wsHub, logger)
	tournamentService := services.NewTournamentService(
		dbConn,
		tournamentRepo,
		playerRepo,
		roundRepo,
		matchRepo,
		standingRepo,
		historyRepo,
		wsHub,
		publisher,
		logger,
	)

	router := api.InitRoutes(
		handlers.NewPlayerHandler(playerService),
		handlers.NewTournamentHandler(tournamentService),
		handlers.NewMatchHandler(matchService),
		handlers.NewWebSocketHandler(wsHub, tournamentService, logger),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
