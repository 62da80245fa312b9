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

	"github.com/go-chi/chi/v5"

	"github.com/skillforge/tournament-engine/config"
	"github.com/skillforge/tournament-engine/db"
	"github.com/skillforge/tournament-engine/handlers"
	"github.com/skillforge/tournament-engine/repositories"
	api "github.com/skillforge/tournament-engine/routes"
	"github.com/skillforge/tournament-engine/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

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
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	txManager := repositories.NewTxManager(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	sessionRepo := repositories.NewPostgresSessionRepository(dbConn)
	enrollmentRepo := repositories.NewPostgresEnrollmentRepository(dbConn)
	transactionRepo := repositories.NewPostgresTransactionRepository(dbConn)
	skillProfileRepo := repositories.NewPostgresSkillProfileRepository(dbConn)
	logger.Info("repositories initialized")

	ledgerService := services.NewLedgerService(transactionRepo)
	rankingService := services.NewRankingService(tournamentRepo, sessionRepo)
	sessionService := services.NewSessionService(txManager, tournamentRepo, sessionRepo, logger)
	rewardService := services.NewRewardService(tournamentRepo, skillProfileRepo, rankingService, ledgerService, logger)
	tournamentService := services.NewTournamentService(
		txManager,
		tournamentRepo,
		enrollmentRepo,
		sessionRepo,
		sessionService,
		rankingService,
		rewardService,
		ledgerService,
		cfg.LargeTournamentThreshold,
		logger,
	)
	logger.Info("services initialized")

	schedulerService, err := services.NewSchedulerService(tournamentService, logger)
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	if err := schedulerService.Start(cfg.SchedulerInterval); err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := schedulerService.Stop(); err != nil {
			logger.Error("failed to stop scheduler", slog.Any("error", err))
		}
	}()

	tournamentHandler := handlers.NewTournamentHandler(tournamentService, rankingService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	rewardHandler := handlers.NewRewardHandler(rewardService)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(router, tournamentHandler, sessionHandler, rewardHandler)
	logger.Info("routes configured")

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
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server stopped gracefully")
		}
	}
}
