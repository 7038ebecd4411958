// Package standingshandlers wires inbound messages to the standings
// service and the recompute scheduler.
package standingshandlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	standingsservice "github.com/pickem-club/standings-engine/app/modules/standings/application"
	standingsevents "github.com/pickem-club/standings-engine/app/modules/standings/domain/events"
	"github.com/pickem-club/standings-engine/app/shared/attr"
	"github.com/pickem-club/standings-engine/app/shared/handlerwrapper"
)

// StandingsHandlers handles standings-related events.
type StandingsHandlers struct {
	service   standingsservice.Service
	scheduler Scheduler
	logger    *slog.Logger
}

// NewStandingsHandlers creates a new StandingsHandlers.
func NewStandingsHandlers(service standingsservice.Service, scheduler Scheduler, logger *slog.Logger) Handlers {
	return &StandingsHandlers{
		service:   service,
		scheduler: scheduler,
		logger:    logger,
	}
}

var _ Handlers = (*StandingsHandlers)(nil)

// HandleGameOutcomeFinalized schedules a recompute for the slate whose
// game outcome was written or corrected. The write itself already
// happened upstream; this is purely the trigger path.
func (h *StandingsHandlers) HandleGameOutcomeFinalized(msg *message.Message) ([]*message.Message, error) {
	return handlerwrapper.Wrap(
		"HandleGameOutcomeFinalized",
		h.logger,
		func(ctx context.Context, payload *standingsevents.GameOutcomeFinalizedPayloadV1) ([]handlerwrapper.Result, error) {
			h.logger.InfoContext(ctx, "Game outcome finalized, scheduling recompute",
				attr.SlateID("slate_id", payload.SlateID),
				attr.String("game_id", payload.GameID.String()),
				attr.ExtractCorrelationID(ctx),
			)
			if err := h.scheduler.ScheduleRecompute(ctx, payload.SlateID); err != nil {
				return nil, err
			}
			return nil, nil
		},
	)(msg)
}

// HandlePropOutcomeFinalized schedules a recompute for a prop answer
// finalization, same path as game outcomes.
func (h *StandingsHandlers) HandlePropOutcomeFinalized(msg *message.Message) ([]*message.Message, error) {
	return handlerwrapper.Wrap(
		"HandlePropOutcomeFinalized",
		h.logger,
		func(ctx context.Context, payload *standingsevents.PropOutcomeFinalizedPayloadV1) ([]handlerwrapper.Result, error) {
			h.logger.InfoContext(ctx, "Prop outcome finalized, scheduling recompute",
				attr.SlateID("slate_id", payload.SlateID),
				attr.String("prop_bet_id", payload.PropBetID.String()),
				attr.ExtractCorrelationID(ctx),
			)
			if err := h.scheduler.ScheduleRecompute(ctx, payload.SlateID); err != nil {
				return nil, err
			}
			return nil, nil
		},
	)(msg)
}

// HandleRecomputeRequested runs a recompute on behalf of the requesting
// actor and reports the outcome.
func (h *StandingsHandlers) HandleRecomputeRequested(msg *message.Message) ([]*message.Message, error) {
	return handlerwrapper.Wrap(
		"HandleRecomputeRequested",
		h.logger,
		func(ctx context.Context, payload *standingsevents.RecomputeRequestedPayloadV1) ([]handlerwrapper.Result, error) {
			result, err := h.service.RecomputeSlate(ctx, payload.SlateID, payload.Actor.Actor())
			if err != nil {
				// Authorization and contention are terminal outcomes for this
				// request, not retryable infrastructure failures.
				if errors.Is(err, standingsservice.ErrUnauthorized) || errors.Is(err, standingsservice.ErrRecomputeInProgress) {
					return []handlerwrapper.Result{{
						Topic: standingsevents.RecomputeFailedV1,
						Payload: standingsevents.RecomputeFailedPayloadV1{
							SlateID: payload.SlateID,
							Reason:  err.Error(),
						},
					}}, nil
				}
				return nil, err
			}

			if result.IsFailure() {
				return []handlerwrapper.Result{{
					Topic:   standingsevents.RecomputeFailedV1,
					Payload: *result.Failure,
				}}, nil
			}
			return []handlerwrapper.Result{{
				Topic:   standingsevents.RecomputeCompletedV1,
				Payload: *result.Success,
			}}, nil
		},
	)(msg)
}

// HandleBulkRecomputeRequested runs a multi-slate recompute and reports
// the per-slate outcome map.
func (h *StandingsHandlers) HandleBulkRecomputeRequested(msg *message.Message) ([]*message.Message, error) {
	return handlerwrapper.Wrap(
		"HandleBulkRecomputeRequested",
		h.logger,
		func(ctx context.Context, payload *standingsevents.BulkRecomputeRequestedPayloadV1) ([]handlerwrapper.Result, error) {
			outcomes, err := h.service.BulkRecomputeSlates(ctx, payload.SlateIDs, payload.Actor.Actor())
			if err != nil {
				if errors.Is(err, standingsservice.ErrUnauthorized) {
					h.logger.WarnContext(ctx, "Bulk recompute rejected",
						attr.ExtractCorrelationID(ctx),
						attr.Error(err),
					)
					return nil, nil
				}
				return nil, err
			}

			results := make(map[string]bool, len(outcomes))
			for slateID, ok := range outcomes {
				results[slateID.String()] = ok
			}
			return []handlerwrapper.Result{{
				Topic:   standingsevents.BulkRecomputeCompletedV1,
				Payload: standingsevents.BulkRecomputeCompletedPayloadV1{Results: results},
			}}, nil
		},
	)(msg)
}

// HandleValidationRequested produces a read-only drift report.
func (h *StandingsHandlers) HandleValidationRequested(msg *message.Message) ([]*message.Message, error) {
	return handlerwrapper.Wrap(
		"HandleValidationRequested",
		h.logger,
		func(ctx context.Context, payload *standingsevents.ValidationRequestedPayloadV1) ([]handlerwrapper.Result, error) {
			result, err := h.service.ValidateSlate(ctx, payload.SlateID)
			if err != nil {
				return nil, err
			}
			if result.IsFailure() {
				return []handlerwrapper.Result{{
					Topic:   standingsevents.RecomputeFailedV1,
					Payload: *result.Failure,
				}}, nil
			}
			return []handlerwrapper.Result{{
				Topic:   standingsevents.ValidationReportV1,
				Payload: *result.Success,
			}}, nil
		},
	)(msg)
}
