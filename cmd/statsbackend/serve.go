package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/arc-self/dds-statsbackend/internal/api"
	"github.com/arc-self/dds-statsbackend/internal/graph"
	"github.com/arc-self/dds-statsbackend/internal/ingest"
	"github.com/arc-self/dds-statsbackend/internal/persist"
	"github.com/arc-self/dds-statsbackend/internal/platform/config"
	"github.com/arc-self/dds-statsbackend/internal/platform/natsbridge"
	"github.com/arc-self/dds-statsbackend/internal/platform/telemetry"
	"github.com/arc-self/dds-statsbackend/internal/queue"
	"github.com/arc-self/dds-statsbackend/internal/resolve"
	"github.com/arc-self/dds-statsbackend/internal/scheduler"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ingest/resolve pipeline and operational HTTP surface",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()
	cfg, err := cfg.LoadSecrets()
	if err != nil {
		logger.Warn("vault secret loading failed, continuing with env defaults", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.OtelEndpoint != "" {
		tp, err := telemetry.InitTracer(ctx, cfg.ServiceName, cfg.OtelEndpoint)
		if err != nil {
			logger.Error("failed to init OTel tracer", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}

		mp, err := telemetry.InitMeterProvider(ctx, cfg.ServiceName, cfg.OtelEndpoint)
		if err != nil {
			logger.Error("failed to init OTel meter provider", zap.Error(err))
		} else {
			defer mp.Shutdown(context.Background())
		}
	}

	g := graph.New()
	q := queue.New(cfg.QueueCapacity, logger)
	if err := q.RegisterMetrics(otel.Meter(cfg.ServiceName)); err != nil {
		logger.Warn("failed to register queue metrics", zap.Error(err))
	}
	resolver := resolve.New(g, logger)
	go resolver.Run(ctx, q)

	natsClient, err := natsbridge.NewClient(cfg.NatsURL, logger)
	if err != nil {
		logger.Fatal("NATS initialization failed", zap.Error(err))
	}
	defer natsClient.Close()

	if err := natsClient.ProvisionStreams(); err != nil {
		logger.Fatal("NATS stream provisioning failed", zap.Error(err))
	}

	consumer := ingest.New(natsClient, q, logger, cfg.PushTimeout)
	if err := consumer.Start(ctx); err != nil {
		logger.Fatal("ingest consumer failed to start", zap.Error(err))
	}

	fileStore, err := persist.NewFileStore(cfg.SnapshotDir)
	if err != nil {
		logger.Fatal("failed to initialise snapshot directory", zap.Error(err))
	}

	snapScheduler := scheduler.NewSnapshotScheduler(g, func(g *graph.Graph) error {
		return fileStore.Save("auto", g)
	}, logger)
	if err := snapScheduler.Start(cfg.SnapshotCron); err != nil {
		logger.Fatal("snapshot scheduler failed to start", zap.Error(err))
	}
	defer snapScheduler.Stop()

	server := api.New(g, logger, cfg.ServiceName)
	go func() {
		logger.Info("statsbackend HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.Start(cfg.HTTPAddr); err != nil {
			logger.Error("HTTP server failure", zap.Error(err))
		}
	}()

	logger.Info("statsbackend started", zap.String("http", cfg.HTTPAddr))

	<-ctx.Done()
	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	logger.Info("statsbackend shut down cleanly")
	return nil
}
