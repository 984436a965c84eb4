package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"navi-route-go/internal/backend"
	"navi-route-go/internal/cache"
	"navi-route-go/internal/client"
	"navi-route-go/internal/config"
	"navi-route-go/internal/database"
	"navi-route-go/internal/geo"
	"navi-route-go/internal/handler"
	"navi-route-go/internal/health"
	"navi-route-go/internal/metrics"
	"navi-route-go/internal/ratelimit"
	"navi-route-go/internal/repository"
	"navi-route-go/internal/service"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

func main() {
	// Инициализируем логгер
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.LoadConfig()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logger.Warnf("Неизвестный уровень логирования %q, используем info", cfg.Logging.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.Info("Запуск Navigation Route API Server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Выбираем бэкенд поиска пути один раз при старте
	native, closeBackend := selectBackend(ctx, cfg, logger)

	registry := metrics.NewRegistry()
	m := metrics.New(registry)
	calc := geo.NewCalculator()

	navigationService := service.NewNavigationService(
		native,
		backend.NewFallback(calc, cfg.Backend.FallbackSteps),
		cache.New(cfg.Cache.Size),
		m,
		logger,
		cfg.Backend.Timeout,
	)

	// История маршрутов доступна только с базой данных
	var (
		db             *gorm.DB
		historyService *service.HistoryService
	)
	if cfg.Database.Enabled {
		db, err = openDatabase(cfg, logger)
		if err != nil {
			logger.Fatalf("Ошибка инициализации базы данных: %v", err)
		}
		historyService = service.NewHistoryService(repository.NewRouteHistoryRepository(db), calc, logger)
	}

	limiter := ratelimit.New(
		cfg.RateLimit.RequestsPerMinute,
		ratelimit.DefaultWindow,
		ratelimit.WithLogger(logger),
		ratelimit.WithSweepInterval(cfg.RateLimit.SweepInterval),
	)
	if limiter.Enabled() {
		limiter.Start(ctx)
	} else {
		logger.Warn("Ограничение частоты запросов отключено")
	}

	router := handler.NewRouter(handler.RouterOptions{
		Logger:      logger,
		Navigation:  handler.NewNavigationHandler(navigationService, historyService, logger),
		Limiter:     limiter,
		Metrics:     m,
		Gatherer:    registry,
		APIKey:      cfg.Auth.APIKey,
		CORSOrigins: cfg.CORS.Origins,
		Environment: cfg.Server.Environment,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Сервер запущен на %s", srv.Addr)
		logger.Infof("API доступно по адресу: http://localhost:%d/api/v1", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	var healthServer *health.Server
	if cfg.Server.GRPCPort > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
		if err != nil {
			logger.Fatalf("Ошибка запуска gRPC health сервера: %v", err)
		}
		healthServer = health.NewServer(navigationService.BackendAvailable(), logger)
		go func() {
			if err := healthServer.Serve(lis); err != nil {
				logger.Errorf("gRPC health сервер завершился с ошибкой: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Остановка сервера...")

	if healthServer != nil {
		healthServer.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	var shutdownErr error
	shutdownErr = multierr.Append(shutdownErr, srv.Shutdown(shutdownCtx))

	limiter.Stop()
	cancel()

	shutdownErr = multierr.Append(shutdownErr, closeBackend(shutdownCtx))
	shutdownErr = multierr.Append(shutdownErr, database.Close(db))

	for _, err := range multierr.Errors(shutdownErr) {
		logger.Errorf("Ошибка при остановке: %v", err)
	}

	logger.Info("Сервер остановлен")
}

// selectBackend загружает нативный бэкенд согласно конфигурации.
// Возвращает nil, если бэкенд отключен или недоступен: маршруты строит резервный алгоритм.
func selectBackend(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (backend.Backend, func(context.Context) error) {
	noop := func(context.Context) error { return nil }

	if !cfg.Backend.Enabled {
		logger.Info("Нативный бэкенд отключен, используем резервный алгоритм")
		return nil, noop
	}

	switch cfg.Backend.Kind {
	case config.BackendHTTP:
		routingClient := client.NewRoutingAPIClient(cfg.Backend.URL, cfg.Backend.Timeout, logger)

		checkCtx, cancel := context.WithTimeout(ctx, cfg.Backend.Timeout)
		defer cancel()
		if _, err := routingClient.CheckHealth(checkCtx); err != nil {
			logger.Warnf("Сервис поиска пути %s недоступен, запросы будут переходить на резервный алгоритм: %v", cfg.Backend.URL, err)
		} else {
			logger.Infof("Используем сервис поиска пути %s", cfg.Backend.URL)
		}
		return routingClient, noop

	case config.BackendWasm:
		wasm, err := backend.LoadWasm(ctx, cfg.Backend.ArtifactPath, logger)
		switch {
		case errors.Is(err, backend.ErrArtifactNotFound):
			logger.Warnf("WASM модуль не найден (%s), используем резервный алгоритм", cfg.Backend.ArtifactPath)
			return nil, noop
		case err != nil:
			logger.Errorf("Ошибка загрузки WASM модуля, используем резервный алгоритм: %v", err)
			return nil, noop
		}
		logger.Infof("WASM модуль загружен: %s", cfg.Backend.ArtifactPath)
		return wasm, wasm.Close

	default:
		logger.Warnf("Неизвестный тип бэкенда %q, используем резервный алгоритм", cfg.Backend.Kind)
		return nil, noop
	}
}

// openDatabase подключается к PostgreSQL и выполняет миграции
func openDatabase(cfg *config.Config, logger *logrus.Logger) (*gorm.DB, error) {
	logger.Info("Подключение к базе данных...")
	db, err := database.Connect(database.DSN(*cfg), logger)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	if err := database.HealthCheck(db); err != nil {
		return nil, fmt.Errorf("database is unavailable: %w", err)
	}

	logger.Info("База данных успешно подключена и готова к работе")
	return db, nil
}
