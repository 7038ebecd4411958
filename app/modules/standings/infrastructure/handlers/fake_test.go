package standingshandlers

import (
	"context"

	standingsservice "github.com/pickem-club/standings-engine/app/modules/standings/application"
	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// ------------------------
// Fake Standings Service
// ------------------------

// FakeService provides a programmable stub for the standingsservice
// interface. Inject behavior per method via the Func fields and track
// calls via Trace.
type FakeService struct {
	trace []string

	RecomputeSlateFunc       func(ctx context.Context, slateID sharedtypes.SlateID, actor *sharedtypes.Actor) (standingsservice.RecomputeResult, error)
	BulkRecomputeSlatesFunc  func(ctx context.Context, slateIDs []sharedtypes.SlateID, actor *sharedtypes.Actor) (map[sharedtypes.SlateID]bool, error)
	RebuildSeasonFunc        func(ctx context.Context, seasonID sharedtypes.SeasonID, actor *sharedtypes.Actor) (map[sharedtypes.SlateID]bool, error)
	ValidateSlateFunc        func(ctx context.Context, slateID sharedtypes.SlateID) (standingsservice.ValidationResult, error)
	RenderRankTrendFunc      func(ctx context.Context, seasonID sharedtypes.SeasonID, userID sharedtypes.UserID) ([]byte, error)
	ExportSlateStandingsFunc func(ctx context.Context, slateID sharedtypes.SlateID) ([]byte, error)
}

func NewFakeService() *FakeService {
	return &FakeService{trace: []string{}}
}

func (f *FakeService) record(step string) {
	f.trace = append(f.trace, step)
}

// Trace returns the sequence of service methods called.
func (f *FakeService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeService) RecomputeSlate(ctx context.Context, slateID sharedtypes.SlateID, actor *sharedtypes.Actor) (standingsservice.RecomputeResult, error) {
	f.record("RecomputeSlate")
	if f.RecomputeSlateFunc != nil {
		return f.RecomputeSlateFunc(ctx, slateID, actor)
	}
	return standingsservice.RecomputeResult{}, nil
}

func (f *FakeService) BulkRecomputeSlates(ctx context.Context, slateIDs []sharedtypes.SlateID, actor *sharedtypes.Actor) (map[sharedtypes.SlateID]bool, error) {
	f.record("BulkRecomputeSlates")
	if f.BulkRecomputeSlatesFunc != nil {
		return f.BulkRecomputeSlatesFunc(ctx, slateIDs, actor)
	}
	return nil, nil
}

func (f *FakeService) RebuildSeason(ctx context.Context, seasonID sharedtypes.SeasonID, actor *sharedtypes.Actor) (map[sharedtypes.SlateID]bool, error) {
	f.record("RebuildSeason")
	if f.RebuildSeasonFunc != nil {
		return f.RebuildSeasonFunc(ctx, seasonID, actor)
	}
	return nil, nil
}

func (f *FakeService) ValidateSlate(ctx context.Context, slateID sharedtypes.SlateID) (standingsservice.ValidationResult, error) {
	f.record("ValidateSlate")
	if f.ValidateSlateFunc != nil {
		return f.ValidateSlateFunc(ctx, slateID)
	}
	return standingsservice.ValidationResult{}, nil
}

func (f *FakeService) RenderRankTrend(ctx context.Context, seasonID sharedtypes.SeasonID, userID sharedtypes.UserID) ([]byte, error) {
	f.record("RenderRankTrend")
	if f.RenderRankTrendFunc != nil {
		return f.RenderRankTrendFunc(ctx, seasonID, userID)
	}
	return nil, nil
}

func (f *FakeService) ExportSlateStandings(ctx context.Context, slateID sharedtypes.SlateID) ([]byte, error) {
	f.record("ExportSlateStandings")
	if f.ExportSlateStandingsFunc != nil {
		return f.ExportSlateStandingsFunc(ctx, slateID)
	}
	return nil, nil
}

// Ensure the fake satisfies the Service interface
var _ standingsservice.Service = (*FakeService)(nil)

// ------------------------
// Fake Scheduler
// ------------------------

// FakeScheduler records scheduled slates and optionally fails.
type FakeScheduler struct {
	Scheduled []sharedtypes.SlateID

	ScheduleRecomputeFunc func(ctx context.Context, slateID sharedtypes.SlateID) error
}

func (f *FakeScheduler) ScheduleRecompute(ctx context.Context, slateID sharedtypes.SlateID) error {
	f.Scheduled = append(f.Scheduled, slateID)
	if f.ScheduleRecomputeFunc != nil {
		return f.ScheduleRecomputeFunc(ctx, slateID)
	}
	return nil
}

var _ Scheduler = (*FakeScheduler)(nil)
