package standingsservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pickem-club/standings-engine/app/eventbus"
	standingsdb "github.com/pickem-club/standings-engine/app/modules/standings/infrastructure/repositories"
	"github.com/pickem-club/standings-engine/app/shared/attr"
	"github.com/pickem-club/standings-engine/app/shared/observability/standingsmetrics"
	"github.com/pickem-club/standings-engine/app/shared/results"
	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// StandingsService implements the Service interface.
type StandingsService struct {
	repo       standingsdb.Repository
	eventBus   eventbus.EventBus
	chronology *ChronologyIndex
	guard      *Guard
	scoring    ScoringRule
	roster     RosterConfig
	logger     *slog.Logger
	metrics    standingsmetrics.StandingsMetrics
	tracer     trace.Tracer
	db         *bun.DB
}

// NewStandingsService creates a new StandingsService.
func NewStandingsService(
	repo standingsdb.Repository,
	eventBus eventbus.EventBus,
	chronology *ChronologyIndex,
	guard *Guard,
	scoring ScoringRule,
	roster RosterConfig,
	logger *slog.Logger,
	metrics standingsmetrics.StandingsMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *StandingsService {
	return &StandingsService{
		repo:       repo,
		eventBus:   eventBus,
		chronology: chronology,
		guard:      guard,
		scoring:    scoring,
		roster:     roster,
		logger:     logger,
		metrics:    metrics,
		tracer:     tracer,
		db:         db,
	}
}

var _ Service = (*StandingsService)(nil)

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and
// panic recovery.
func withTelemetry[S any, F any](
	s *StandingsService,
	ctx context.Context,
	operationName string,
	slateID sharedtypes.SlateID,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {

	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("slate_id", slateID.String()),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, slateID)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.SlateID("slate_id", slateID),
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, slateID)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.SlateID("slate_id", slateID),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, slateID)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.SlateID("slate_id", slateID),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.metrics.RecordOperationSuccess(ctx, operationName, slateID)
	}

	return result, nil
}

// runInTx runs the operation inside one transaction. An error from fn
// rolls back every write of the recompute pass.
func runInTx[S any, F any](
	s *StandingsService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var fnErr error
		result, fnErr = fn(ctx, tx)
		return fnErr
	})
	if err != nil {
		return results.OperationResult[S, F]{}, err
	}
	return result, nil
}
