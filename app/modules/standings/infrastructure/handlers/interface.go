package standingshandlers

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// Handlers is the standings module's message handler surface.
type Handlers interface {
	HandleGameOutcomeFinalized(msg *message.Message) ([]*message.Message, error)
	HandlePropOutcomeFinalized(msg *message.Message) ([]*message.Message, error)
	HandleRecomputeRequested(msg *message.Message) ([]*message.Message, error)
	HandleBulkRecomputeRequested(msg *message.Message) ([]*message.Message, error)
	HandleValidationRequested(msg *message.Message) ([]*message.Message, error)
}

// Scheduler decouples outcome ingestion from recompute execution: an
// outcome finalization enqueues a delayed job instead of recomputing
// inline, so bursts of finalizations collapse into one run.
type Scheduler interface {
	ScheduleRecompute(ctx context.Context, slateID sharedtypes.SlateID) error
}
