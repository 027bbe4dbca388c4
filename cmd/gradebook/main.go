package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mmynk/gradebook/internal/cli"
	"github.com/mmynk/gradebook/internal/config"
	"github.com/mmynk/gradebook/internal/metrics"
	"github.com/mmynk/gradebook/internal/service"
	"github.com/mmynk/gradebook/internal/storage"
	"github.com/mmynk/gradebook/internal/storage/jsonfile"
	"github.com/mmynk/gradebook/internal/storage/redis"
	"github.com/mmynk/gradebook/internal/storage/sqlite"
	"github.com/mmynk/gradebook/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
		os.Exit(1)
	}

	logger := logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel)).With("session_id", uuid.NewString())
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Gradebook stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Storage initialized", "driver", cfg.Storage.Driver)

	opts := []service.Option{service.WithLogger(logger)}
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, service.WithMetrics(metrics.New(reg)))

		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, reg); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	svc := service.NewGradebookService(store, cfg.Grading.Thresholds(), opts...)
	if err := svc.Open(ctx); err != nil {
		return err
	}

	return cli.New(svc, os.Stdin, os.Stdout, cfg.TopN, cfg.ExportDir).Run(ctx)
}

func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.New(cfg.Path)
	case config.DriverRedis:
		return redis.New(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})
	default:
		return jsonfile.New(cfg.Path)
	}
}
