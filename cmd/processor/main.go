package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/adapters/influx"
	natsadapter "github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/adapters/nats"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/adapters/postgres"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/adapters/valkey"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/ports"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/usecases"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/config"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/logging"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/retry"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/telemetry"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/workflows"
)

func main() {
	cfg, err := config.Load("agrovetor-processor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	db, err := retry.Value(ctx, "postgres", retry.Startup, func() (*postgres.DB, error) {
		return postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var (
		cacheSvc  ports.CacheService
		publisher ports.EventPublisher
		recorder  ports.CoverageRecorder
	)
	if cache, err := valkey.New(cfg.Valkey.Addr, valkey.Options{
		BreakerFailures: cfg.Valkey.BreakerFailures,
		BreakerTimeout:  time.Duration(cfg.Valkey.BreakerTimeout) * time.Second,
	}); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, coverage events disabled", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}
	if cfg.Influx.Enabled {
		rec := influx.NewRecorder(cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket)
		defer rec.Close()
		recorder = rec
	}

	applications := usecases.NewApplicationService(usecases.ApplicationDeps{
		Applications: postgres.NewApplicationRepo(db),
		WorkOrders:   postgres.NewWorkOrderRepo(db),
		Fields:       postgres.NewFieldRepo(db),
		Aircraft:     postgres.NewAircraftRepo(db),
		Cache:        cacheSvc,
		Publisher:    publisher,
		Recorder:     recorder,
	})

	c, err := retry.Value(ctx, "temporal", retry.Startup, func() (client.Client, error) {
		return client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
			Logger:    slog.Default(),
		})
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: cfg.Processing.Concurrency,
	})
	w.RegisterWorkflow(workflows.FlightLogWorkflow)
	w.RegisterActivity(&workflows.ProcessingActivities{Applications: applications})

	slog.Info("processor worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
