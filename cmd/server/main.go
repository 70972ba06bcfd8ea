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

	"github.com/Dosada05/club-scheduler/config"
	"github.com/Dosada05/club-scheduler/db"
	"github.com/Dosada05/club-scheduler/handlers"
	"github.com/Dosada05/club-scheduler/live"
	"github.com/Dosada05/club-scheduler/metrics"
	"github.com/Dosada05/club-scheduler/repositories"
	api "github.com/Dosada05/club-scheduler/routes"
	"github.com/Dosada05/club-scheduler/services"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("database_driver", cfg.DatabaseDriver),
		slog.Int("default_courts", cfg.DefaultCourts),
	)
	if cfg.OrganizerPasswordHash == "" {
		logger.Warn("ORGANIZER_PASSWORD_HASH is empty, organizer login is disabled")
	}

	// Подключение к базе данных
	dialect, err := db.ParseDialect(cfg.DatabaseDriver)
	if err != nil {
		logger.Error("invalid database driver", slog.Any("error", err))
		os.Exit(1)
	}
	dbConn, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, 5*time.Second)
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

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx, dbConn, dialect)
	cancelMigrate()
	if err != nil {
		logger.Error("failed to apply schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("schema up to date")

	catalog, err := config.LoadSports(cfg.SportsFile, cfg.DefaultCourts, cfg.AllowSinglesSlot)
	if err != nil {
		logger.Error("failed to load sport catalog", slog.Any("error", err), slog.String("file", cfg.SportsFile))
		os.Exit(1)
	}
	logger.Info("sport catalog loaded", slog.Int("sports", len(catalog.All())))

	// Инициализация WebSocket Hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	wsHub := live.NewHub(logger)
	go wsHub.Run(hubCtx)
	logger.Info("WebSocket Hub started")

	var events services.EventPublisher = wsHub
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		metrics.Register(wsHub.TotalClients)
		events = metrics.InstrumentPublisher(wsHub)
		metricsHandler = metrics.Handler()
		logger.Info("metrics enabled", slog.String("path", "/metrics"))
	}

	// Инициализация репозиториев
	playerRepo := repositories.NewPlayerRepository(dbConn, dialect)
	sessionRepo := repositories.NewSessionRepository(dbConn, dialect)
	attendanceRepo := repositories.NewAttendanceRepository(dbConn, dialect)
	roundRepo := repositories.NewRoundRepository(dbConn, dialect)
	roundMatchRepo := repositories.NewRoundMatchRepository(dbConn, dialect)
	historyRepo := repositories.NewMatchHistoryRepository(dbConn, dialect)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	sportService := services.NewSportService(catalog)
	authService := services.NewAuthService(cfg.OrganizerPasswordHash)
	playerService := services.NewPlayerService(playerRepo, logger)
	sessionService := services.NewSessionService(sessionRepo, sportService, logger)
	attendanceService := services.NewAttendanceService(dbConn, sessionRepo, roundRepo, attendanceRepo, logger)
	fairnessService := services.NewFairnessService(sessionRepo, attendanceRepo, roundMatchRepo, historyRepo)
	roundService := services.NewRoundService(
		dbConn,
		sessionRepo,
		attendanceRepo,
		roundRepo,
		roundMatchRepo,
		historyRepo,
		sportService,
		events,
		logger,
	)
	matchService := services.NewMatchService(
		dbConn,
		sessionRepo,
		playerRepo,
		roundRepo,
		roundMatchRepo,
		historyRepo,
		events,
		logger,
	)
	boardService := services.NewBoardService(sessionRepo, attendanceRepo, roundRepo, roundMatchRepo, historyRepo, sportService, fairnessService)
	logger.Info("Services initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:      handlers.NewAuthHandler(authService, cfg.JWTSecretKey, cfg.TokenTTL),
		Sport:     handlers.NewSportHandler(sportService),
		Player:    handlers.NewPlayerHandler(playerService),
		Session:   handlers.NewSessionHandler(sessionService, attendanceService),
		Round:     handlers.NewRoundHandler(roundService),
		Match:     handlers.NewMatchHandler(matchService),
		Board:     handlers.NewBoardHandler(boardService, fairnessService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, sessionService, cfg.CORSAllowedOrigins),
		Health:    handlers.NewHealthHandler(dbConn),
	}, api.Options{
		JWTSecret:          []byte(cfg.JWTSecretKey),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             logger,
		Metrics:            metricsHandler,
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
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
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		// сначала закрываем websocket-клиентов, Shutdown не ждёт hijacked соединения
		stopHub()
		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
