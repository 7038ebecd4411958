// Package app assembles the standings engine: config, observability,
// storage, messaging, and the standings module.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"

	"github.com/pickem-club/standings-engine/app/eventbus"
	"github.com/pickem-club/standings-engine/app/modules/standings"
	"github.com/pickem-club/standings-engine/app/shared/observability/logging"
	"github.com/pickem-club/standings-engine/app/shared/observability/standingsmetrics"
	"github.com/pickem-club/standings-engine/app/shared/observability/tracing"
	"github.com/pickem-club/standings-engine/config"
	"github.com/pickem-club/standings-engine/db/bundb"
)

// App owns every long-lived component of the engine process.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	db              *bun.DB
	bus             eventbus.EventBus
	router          *message.Router
	standingsModule *standings.Module
	opsServer       *http.Server
	registry        *prometheus.Registry
	tracer          trace.Tracer
	tracerShutdown  func(context.Context) error
}

// NewApp builds the engine from configuration. Components are created
// in dependency order; any failure tears down what came before it.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewLogger(cfg.Observability.Environment)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := standingsmetrics.NewPrometheusMetrics(registry)

	tracer, tracerShutdown := tracing.Init("standings-engine", cfg.Observability.TraceSampleRate)

	db, err := bundb.NewBunDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("app.NewApp: database: %w", err)
	}

	bus, err := eventbus.NewEventBus(ctx, cfg.NATS.URL, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("app.NewApp: event bus: %w", err)
	}

	watermillLogger := watermill.NewSlogLogger(logger)
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		bus.Close()
		db.Close()
		return nil, fmt.Errorf("app.NewApp: message router: %w", err)
	}

	standingsModule, err := standings.NewModule(ctx, cfg, db, bus, router, logger, metrics, tracer, registry)
	if err != nil {
		router.Close()
		bus.Close()
		db.Close()
		return nil, fmt.Errorf("app.NewApp: standings module: %w", err)
	}

	a := &App{
		Config:          cfg,
		Logger:          logger,
		db:              db,
		bus:             bus,
		router:          router,
		standingsModule: standingsModule,
		registry:        registry,
		tracer:          tracer,
		tracerShutdown:  tracerShutdown,
	}
	a.opsServer = a.newOpsServer()

	return a, nil
}

// newOpsServer builds the operational HTTP endpoint: Prometheus scrape
// target plus liveness/readiness probes.
func (a *App) newOpsServer() *http.Server {
	mux := chi.NewRouter()
	mux.Use(chimiddleware.Recoverer)

	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	return &http.Server{
		Addr:              a.Config.Observability.MetricsAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Run starts the router, the standings module, and the ops server, then
// blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.router.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.Logger.Error("Message router stopped", "error", err)
		}
	}()

	// The router must be running before the module's handlers see traffic.
	select {
	case <-a.router.Running():
	case <-ctx.Done():
		wg.Wait()
		return ctx.Err()
	}

	wg.Add(1)
	go a.standingsModule.Run(ctx, &wg)

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.Logger.Info("Ops server listening", "address", a.opsServer.Addr)
		if err := a.opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("Ops server stopped", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.opsServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("Ops server shutdown failed", "error", err)
	}

	wg.Wait()
	return nil
}

// Close releases every component in reverse dependency order.
func (a *App) Close() error {
	var firstErr error

	if err := a.standingsModule.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.router.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.bus.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
