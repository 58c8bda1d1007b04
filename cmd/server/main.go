package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"casefile/internal/changefeed"
	"casefile/internal/platform/config"
	"casefile/internal/platform/httpserver"
	"casefile/internal/platform/kafka"
	"casefile/internal/platform/kafka/consumer"
	"casefile/internal/platform/logger"
	"casefile/internal/platform/metrics"
	"casefile/internal/platform/postgres"
	"casefile/internal/platform/redis"
	"casefile/internal/profile/cache"
	"casefile/internal/profile/service"
	"casefile/internal/profile/store"
	"casefile/internal/rms"
)

const shutdownTimeout = 10 * time.Second

// main wires config, storage, cache, changefeed, and the ops listener.
// Business logic lives in the internal packages; everything here is
// lifecycle.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	db, err := postgres.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DB.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
	}

	reader, err := rms.NewPgxReader(ctx, cfg.RMS)
	if err != nil {
		return err
	}
	if reader != nil {
		defer reader.Close()
	} else {
		log.Warn("rms mirror not configured, profiles read as unlinked")
	}

	cacheStore, redisClient, err := buildCache(cfg, m, log)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	kafkaClient, err := kafka.New(cfg.Kafka)
	if err != nil {
		return err
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithSnapshots(service.NewSQLSnapshots(db)),
	}
	if reader != nil {
		opts = append(opts, service.WithRMSReader(reader))
	}
	if kafkaClient != nil {
		opts = append(opts, service.WithPublisher(
			changefeed.NewKafkaPublisher(kafkaClient, cfg.Kafka.Topic, log, m)))
	}
	svc := service.New(
		store.NewPostgresProfileStore(db),
		store.NewPostgresTimelineStore(db),
		cacheStore,
		service.Settings{
			ReviewPeriodMonths: cfg.Review.PeriodMonths,
			DefaultImageURL:    cfg.DefaultImageURL,
		},
		opts...,
	)

	g, ctx := errgroup.WithContext(ctx)

	if kafkaClient != nil {
		defer kafkaClient.Close()
		if err := kafkaClient.EnsureTopic(ctx, cfg.Kafka.Topic, 3); err != nil {
			return err
		}
		invalidator := changefeed.NewInvalidator(cacheStore, log, m)
		worker, err := consumer.New(cfg.Kafka.Brokers, cfg.Kafka.Group, []string{cfg.Kafka.Topic}, invalidator, log)
		if err != nil {
			return err
		}
		g.Go(func() error {
			defer worker.Close()
			return worker.Run(ctx)
		})
	} else {
		log.Warn("changefeed not configured, cache invalidation is local only")
	}

	srv := httpserver.New(cfg.Ops.Addr, opsRouter(svc, db, redisClient, kafkaClient))
	g.Go(func() error {
		log.Info("ops listener starting", "addr", cfg.Ops.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func buildCache(cfg config.Config, m *metrics.Metrics, log *slog.Logger) (cache.Store, *redis.Client, error) {
	client, err := redis.New(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Warn("redis not configured, derived values cached in process memory only")
		return cache.NewMemory(m), nil, nil
	}
	return cache.NewRedis(client, cfg.Redis.TTL, m), client, nil
}
