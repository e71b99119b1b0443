package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/gated-shortener/internal/config"
	"github.com/SergeiKhy/gated-shortener/internal/handler"
	"github.com/SergeiKhy/gated-shortener/internal/migrations"
	"github.com/SergeiKhy/gated-shortener/internal/repository"
	"github.com/SergeiKhy/gated-shortener/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Загрузка конфига
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.UsesDefaultAdminPassword() {
		logger.Warn("ADMIN_PASSWORD is not set, using the default password")
	}

	// Хранилище ссылок
	linkRepo, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open link store", zap.Error(err))
	}
	defer closeStore()

	// Проверка человека (Turnstile)
	var verifier service.HumanVerifier = service.NoopVerifier{}
	if cfg.Turnstile.Enabled() {
		verifier = service.NewTurnstileVerifier(cfg.Turnstile.Secret, "", cfg.App.RequestTimeout, logger)
		logger.Info("Turnstile verification enabled")
	}

	serviceCfg := service.LinkServiceConfig{
		RequestTimeout: cfg.App.RequestTimeout,
		SlugRetries:    cfg.App.SlugRetries,
	}
	linkService := service.NewLinkService(linkRepo, verifier, serviceCfg, logger)
	accessGate := service.NewAccessGate(linkRepo, verifier, serviceCfg, logger)

	adminAuth, err := service.NewAdminAuth(cfg.Admin, nil)
	if err != nil {
		logger.Fatal("Failed to init admin auth", zap.Error(err))
	}
	if cfg.Admin.TokenSecret == "" {
		logger.Warn("ADMIN_TOKEN_SECRET is not set, admin sessions will not survive a restart")
	}

	// Фоновая очистка (по умолчанию выключена)
	if cfg.App.SweepInterval > 0 {
		sweeper := service.NewSweeper(linkService, cfg.App.SweepInterval, time.Minute, logger)
		sweeper.Start()
		defer sweeper.Stop()
	}

	router := handler.NewRouter(linkService, accessGate, adminAuth, handler.RouterConfig{
		BaseURL:          cfg.App.BaseURL,
		TurnstileSiteKey: cfg.Turnstile.SiteKey,
	}, logger)

	// Запуск сервера
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск в горутине
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openStore подключает хранилище, выбранное STORAGE_DRIVER
func openStore(cfg *config.Config, logger *zap.Logger) (repository.LinkRepository, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageRedis:
		redis, err := repository.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connected to Redis")
		return repository.NewKVRepository(redis), func() { redis.Close() }, nil

	case config.StoragePostgres:
		db, err := repository.NewPostgresDB(cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connected to PostgreSQL")

		if err := migrations.NewMigrator(db.SQLDB(), logger).RunUp(); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repository.NewLinkRepository(db), db.Close, nil

	default:
		logger.Info("Using in-memory storage")
		return repository.NewMemoryRepository(), func() {}, nil
	}
}
