// Package standingsqueue schedules recompute jobs on River. Outcome
// finalizations do not recompute inline; they enqueue a short-delay job
// so a burst of finalizations for one slate runs once.
package standingsqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	standingsservice "github.com/pickem-club/standings-engine/app/modules/standings/application"
	standingshandlers "github.com/pickem-club/standings-engine/app/modules/standings/infrastructure/handlers"
	"github.com/pickem-club/standings-engine/app/shared/attr"
	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

const recomputeQueue = "standings"

// Service schedules and works recompute jobs over River.
type Service struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	logger *slog.Logger
	delay  time.Duration
}

var _ standingshandlers.Scheduler = (*Service)(nil)

// NewService creates the River client over its own pgx pool (River
// requires pgx, not database/sql). delay is how long a scheduled
// recompute waits, giving trailing finalizations time to coalesce.
func NewService(
	ctx context.Context,
	dsn string,
	delay time.Duration,
	service standingsservice.Service,
	logger *slog.Logger,
) (*Service, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("standingsqueue.NewService: parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("standingsqueue.NewService: create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("standingsqueue.NewService: ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, newRecomputeWorker(service, logger))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			recomputeQueue: {MaxWorkers: 4},
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("standingsqueue.NewService: create river client: %w", err)
	}

	return &Service{
		client: client,
		pool:   pool,
		logger: logger,
		delay:  delay,
	}, nil
}

// ScheduleRecompute enqueues a recompute for the slate, delayed by the
// configured coalescing window. Duplicate pending jobs for the same
// slate are suppressed by River's uniqueness on args.
func (s *Service) ScheduleRecompute(ctx context.Context, slateID sharedtypes.SlateID) error {
	job := RecomputeJob{SlateID: slateID.String()}

	result, err := s.client.Insert(ctx, job, &river.InsertOpts{
		Queue:       recomputeQueue,
		ScheduledAt: time.Now().Add(s.delay),
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		return fmt.Errorf("standingsqueue.ScheduleRecompute: %w", err)
	}

	if result.UniqueSkippedAsDuplicate {
		s.logger.DebugContext(ctx, "Recompute already pending for slate",
			attr.SlateID("slate_id", slateID),
		)
		return nil
	}

	s.logger.InfoContext(ctx, "Recompute scheduled",
		attr.SlateID("slate_id", slateID),
		attr.Int("job_id", int(result.Job.ID)),
		attr.ExtractCorrelationID(ctx),
	)
	return nil
}

// Start begins working jobs.
func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("standingsqueue.Start: %w", err)
	}
	return nil
}

// Stop drains and stops the worker, then closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	err := s.client.Stop(ctx)
	s.pool.Close()
	if err != nil {
		return fmt.Errorf("standingsqueue.Stop: %w", err)
	}
	return nil
}
