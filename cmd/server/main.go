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

	"github.com/Freeeeeet/artist_scheduler/internal/app"
	"github.com/Freeeeeet/artist_scheduler/internal/config"
	"github.com/Freeeeeet/artist_scheduler/internal/controller/api"
	"github.com/Freeeeeet/artist_scheduler/internal/events"
	"github.com/Freeeeeet/artist_scheduler/internal/interval"
	"github.com/Freeeeeet/artist_scheduler/internal/lock"
	"github.com/Freeeeeet/artist_scheduler/internal/notify"
	"github.com/Freeeeeet/artist_scheduler/internal/pricing"
	"github.com/Freeeeeet/artist_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/artist_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting artist scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("timezone", cfg.LocalTimezone),
		zap.Bool("memory_store", cfg.UseMemoryStore()))

	checks := make(map[string]api.Pinger)

	var stores service.Stores
	if cfg.UseMemoryStore() {
		store := memory.New()
		stores = app.MemoryStores(store)
		checks["store"] = store
	} else {
		pool, err := app.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			return err
		}
		defer pool.Close()

		migrator, err := app.NewMigrator(pool, cfg.MigrationsDir, logger)
		if err != nil {
			return err
		}
		if err := migrator.Run(ctx); err != nil {
			migrator.Close()
			return err
		}
		migrator.Close()

		stores = app.PostgresStores(pool, logger)
		checks["postgres"] = pool
	}

	holidays, err := pricing.ParseHolidays(cfg.Holidays)
	if err != nil {
		return err
	}

	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		redisLocker := lock.NewRedisLocker(rdb, cfg.LockTTL, "artist-scheduler")
		locker = redisLocker
		checks["redis"] = redisLocker
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafka.Close()
		publisher = kafka
		checks["kafka"] = kafka
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, logger)
		if err != nil {
			return err
		}
		notifier = tg
	}

	loc := cfg.Location()
	svc := service.New(service.Dependencies{
		Stores:    stores,
		Pricing:   pricing.NewCalculator(holidays),
		Locker:    locker,
		Publisher: publisher,
		Notifier:  notifier,
		Now:       func() time.Time { return interval.WallClock(time.Now(), loc) },
		Logger:    logger,
	})

	scheduler := app.NewScheduler(svc.Patterns, cfg.MaterializeWeeks, cfg.MaterializeInterval, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewHandler(svc, checks, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
