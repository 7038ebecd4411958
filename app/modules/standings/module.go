// Package standings assembles the standings engine module: repository,
// service, recompute scheduler, and message router.
package standings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"

	"github.com/pickem-club/standings-engine/app/eventbus"
	standingsservice "github.com/pickem-club/standings-engine/app/modules/standings/application"
	standingsdb "github.com/pickem-club/standings-engine/app/modules/standings/infrastructure/repositories"
	standingshandlers "github.com/pickem-club/standings-engine/app/modules/standings/infrastructure/handlers"
	standingsqueue "github.com/pickem-club/standings-engine/app/modules/standings/infrastructure/queue"
	standingsrouter "github.com/pickem-club/standings-engine/app/modules/standings/infrastructure/router"
	"github.com/pickem-club/standings-engine/app/shared/observability/standingsmetrics"
	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
	"github.com/pickem-club/standings-engine/config"
)

const (
	lockBucket     = "standings_locks"
	debounceBucket = "standings_debounce"
)

// Module is the standings engine module.
type Module struct {
	Service      standingsservice.Service
	QueueService *standingsqueue.Service
	Router       *standingsrouter.StandingsRouter

	logger     *slog.Logger
	cancelFunc context.CancelFunc
}

// NewModule wires the standings module together.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	db *bun.DB,
	bus eventbus.EventBus,
	router *message.Router,
	logger *slog.Logger,
	metrics standingsmetrics.StandingsMetrics,
	tracer trace.Tracer,
	registry *prometheus.Registry,
) (*Module, error) {
	repo := standingsdb.New(db)

	locks, err := bus.KeyValue(ctx, lockBucket, cfg.Standings.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("standings.NewModule: lock bucket: %w", err)
	}
	debounce, err := bus.KeyValue(ctx, debounceBucket, cfg.Standings.ThrottleInterval)
	if err != nil {
		return nil, fmt.Errorf("standings.NewModule: debounce bucket: %w", err)
	}

	guard := standingsservice.NewGuard(locks, debounce, cfg.Standings.ThrottleInterval, logger)
	chronology := standingsservice.NewChronologyIndex(repo, cfg.Standings.ChronologyTTL)

	service := standingsservice.NewStandingsService(
		repo,
		bus,
		chronology,
		guard,
		standingsservice.ScoringRule{PropBonusWeek: sharedtypes.Week(cfg.Standings.PropBonusWeek)},
		standingsservice.RosterConfig{
			Enabled: cfg.Standings.GlobalRosterEnabled(),
			Cohort:  cfg.Standings.CohortFilter(),
		},
		logger,
		metrics,
		tracer,
		db,
	)

	queueService, err := standingsqueue.NewService(ctx, cfg.Postgres.DSN, cfg.Standings.RecomputeDelay, service, logger)
	if err != nil {
		return nil, fmt.Errorf("standings.NewModule: queue service: %w", err)
	}

	handlers := standingshandlers.NewStandingsHandlers(service, queueService, logger)

	standingsRouter := standingsrouter.NewStandingsRouter(logger, router, bus, registry)
	if err := standingsRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("standings.NewModule: configure router: %w", err)
	}

	return &Module{
		Service:      service,
		QueueService: queueService,
		Router:       standingsRouter,
		logger:       logger,
	}, nil
}

// Run starts the job worker and blocks until the context is canceled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	if wg != nil {
		defer wg.Done()
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if err := m.QueueService.Start(ctx); err != nil {
		m.logger.Error("Failed to start standings queue service", "error", err)
		return
	}

	m.logger.Info("Standings module running")
	<-ctx.Done()

	if err := m.QueueService.Stop(context.Background()); err != nil {
		m.logger.Error("Failed to stop standings queue service", "error", err)
	}
	m.logger.Info("Standings module stopped")
}

// Close cancels the module's work.
func (m *Module) Close() error {
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
