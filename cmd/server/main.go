package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/hmweb77/macaroness/internal/catalog"
	"github.com/hmweb77/macaroness/internal/config"
	"github.com/hmweb77/macaroness/internal/database"
	"github.com/hmweb77/macaroness/internal/feed"
	"github.com/hmweb77/macaroness/internal/handler"
	"github.com/hmweb77/macaroness/internal/middleware"
	"github.com/hmweb77/macaroness/internal/queue"
	"github.com/hmweb77/macaroness/internal/repository"
	"github.com/hmweb77/macaroness/internal/router"
	"github.com/hmweb77/macaroness/internal/service"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unreachable; cache and rate limit disabled, feed is process-local")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	var broadcaster feed.Broadcaster
	if cfg.FeedDriver == "redis" && rdb != nil {
		rb := feed.NewRedisBroadcaster(rdb, logger)
		defer func() { _ = rb.Close() }()
		broadcaster = rb
	} else {
		broadcaster = feed.NewHub()
	}
	capacityFeed := feed.New(broadcaster, store, cfg.DailyCapacity, logger)

	var notifier service.Notifier
	if cfg.RabbitURL != "" {
		amqpNotifier := service.NewAMQPNotifier(cfg.RabbitURL, logger)
		defer func() { _ = amqpNotifier.Close() }()
		notifier = amqpNotifier

		consumer := queue.NewConsumer(queue.ConsumerConfig{
			URL:      cfg.RabbitURL,
			LogDir:   cfg.OrderLogDir,
			Telegram: queue.NewTelegramClient(cfg.TelegramToken, cfg.TelegramChatID, cfg.TelegramAPI),
			Location: cfg.Location,
		}, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("order consumer stopped", zap.Error(err))
			}
		}()
	} else {
		notifier = service.NewLogNotifier(logger)
	}

	svc := service.NewReservationService(store, capacityFeed, notifier, logger, service.ReservationOptions{
		TotalCapacity: cfg.DailyCapacity,
		MaxRetries:    cfg.ReservationMaxRetries,
		RetryBackoff:  cfg.ReservationBackoff,
		NotifyTimeout: cfg.NotifyTimeout,
	})
	ledger := service.NewLedger(store, cfg.DailyCapacity, cfg.MinAvailableForOrder, logger)
	cat := catalog.New(cfg.OpeningDate, cfg.Location)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))

	capacityHandler := handler.NewCapacityHandler(ledger, capacityFeed, logger)
	e.Server.RegisterOnShutdown(capacityHandler.Close)

	router.Register(e, router.Deps{
		Store:     store,
		Catalog:   handler.NewCatalogHandler(cat),
		Capacity:  capacityHandler,
		Orders:    handler.NewOrderHandler(cat, svc, logger),
		Operator:  handler.NewOperatorHandler(svc, ledger, store, logger),
		JWTSecret: cfg.JWTSecret,
		Cache:     middleware.NewResponseCache(config.LoadCacheConfig(), rdb, logger),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
	})

	go func() {
		addr := ":" + cfg.Port
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	svc.Wait()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProd() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// openStore returns the configured store and its cleanup function.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repository.Store, func()) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), func() {}
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("db migrate failed", zap.Error(err))
	}
	return repository.NewMySQLStore(db), func() { _ = db.Close() }
}
