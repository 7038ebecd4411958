package standingsqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	standingsservice "github.com/pickem-club/standings-engine/app/modules/standings/application"
	"github.com/pickem-club/standings-engine/app/shared/attr"
	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// recomputeWorker executes scheduled recompute jobs. It runs as the
// system principal (nil actor): authorization happened at the trigger.
type recomputeWorker struct {
	river.WorkerDefaults[RecomputeJob]

	service standingsservice.Service
	logger  *slog.Logger
}

func newRecomputeWorker(service standingsservice.Service, logger *slog.Logger) *recomputeWorker {
	return &recomputeWorker{service: service, logger: logger}
}

func (w *recomputeWorker) Work(ctx context.Context, job *river.Job[RecomputeJob]) error {
	parsed, err := uuid.Parse(job.Args.SlateID)
	if err != nil {
		// Unparseable ids never become valid; cancel instead of retrying.
		return river.JobCancel(fmt.Errorf("invalid slate id %q: %w", job.Args.SlateID, err))
	}
	slateID := sharedtypes.SlateID(parsed)

	result, err := w.service.RecomputeSlate(ctx, slateID, nil)
	if err != nil {
		// Includes lease contention: river retries with backoff, which is
		// exactly the desired behavior for a briefly held lease.
		return err
	}

	if result.IsSuccess() && result.Success.Skipped {
		w.logger.InfoContext(ctx, "Scheduled recompute absorbed by debounce",
			attr.SlateID("slate_id", slateID),
		)
	}
	return nil
}
