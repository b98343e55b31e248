package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/adapters/http"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/adapters/influx"
	natsadapter "github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/adapters/nats"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/adapters/postgres"
	temporaladapter "github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/adapters/temporal"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/adapters/valkey"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/ports"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/usecases"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/config"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/logging"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/metrics"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/retry"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("agrovetor-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Database
	db, err := retry.Value(ctx, "postgres", retry.Startup, func() (*postgres.DB, error) {
		return postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go reportPoolStats(ctx, db)

	// Optional collaborators stay nil interfaces when unavailable.
	var (
		cacheSvc  ports.CacheService
		publisher ports.EventPublisher
		recorder  ports.CoverageRecorder
	)

	cache, err := valkey.New(cfg.Valkey.Addr, valkey.Options{
		BreakerFailures: cfg.Valkey.BreakerFailures,
		BreakerTimeout:  time.Duration(cfg.Valkey.BreakerTimeout) * time.Second,
	})
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	pub, err := retry.Value(ctx, "nats", retry.Startup, func() (*natsadapter.Publisher, error) {
		return natsadapter.NewPublisher(cfg.NATS.URL)
	})
	if err != nil {
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

	// Repos
	farmRepo := postgres.NewFarmRepo(db)
	fieldRepo := postgres.NewFieldRepo(db)
	productRepo := postgres.NewProductRepo(db)
	aircraftRepo := postgres.NewAircraftRepo(db)
	workOrderRepo := postgres.NewWorkOrderRepo(db)
	applicationRepo := postgres.NewApplicationRepo(db)

	// Use cases
	applications := usecases.NewApplicationService(usecases.ApplicationDeps{
		Applications: applicationRepo,
		WorkOrders:   workOrderRepo,
		Fields:       fieldRepo,
		Aircraft:     aircraftRepo,
		Cache:        cacheSvc,
		Publisher:    publisher,
		Recorder:     recorder,
	})
	if closeDispatcher := setupDispatcher(cfg, applications); closeDispatcher != nil {
		defer closeDispatcher()
	}

	// Coverage events drop stale cache entries, whichever process produced them.
	if cacheSvc != nil {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "agrovetor-api-cache")
		if err != nil {
			slog.Warn("nats subscriber unavailable, cache relies on TTLs", "error", err)
		} else {
			defer sub.Close()
			err := sub.SubscribeCoverageEvents(ctx, func(ctx context.Context, event *domain.CoverageEvent) error {
				applications.Forget(ctx, event)
				return nil
			})
			if err != nil {
				slog.Warn("subscribe coverage events", "error", err)
			}
		}
	}

	// Raw NATS connection for the WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	deps := &http.Dependencies{
		Farms:        usecases.NewFarmService(farmRepo),
		Fields:       usecases.NewFieldService(fieldRepo, farmRepo, cacheSvc),
		Catalog:      usecases.NewCatalogService(productRepo, aircraftRepo),
		WorkOrders:   usecases.NewWorkOrderService(workOrderRepo, fieldRepo, productRepo, aircraftRepo, cacheSvc),
		Applications: applications,
		NATS:         natsConn,
		DB:           db,
		Cache:        cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024, // flight logs can be large
		AppName:      "AgroVetor API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "dispatcher", cfg.Processing.Dispatcher)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// setupDispatcher wires how submitted flight logs get processed and returns
// a cleanup function, if any. Temporal falls back to inline processing when
// the frontend cannot be reached.
func setupDispatcher(cfg *config.Config, applications *usecases.ApplicationService) func() {
	if cfg.Processing.Dispatcher == "temporal" {
		c, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
			Logger:    slog.Default(),
		})
		if err == nil {
			applications.SetDispatcher(temporaladapter.NewDispatcher(c, cfg.Temporal.TaskQueue))
			return c.Close
		}
		slog.Warn("temporal unavailable, processing inline", "error", err)
	}

	applications.SetDispatcher(usecases.NewInlineDispatcher(usecases.ProcessorFunc(applications.ProcessOrRelease),
		cfg.Processing.Concurrency, time.Duration(cfg.Processing.Timeout)*time.Second))
	return nil
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		case <-ctx.Done():
			return
		}
	}
}
