package standingsservice

import (
	"context"

	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// Service is the standings engine's operation surface.
type Service interface {
	// RecomputeSlate recomputes one slate's standings: per-slate points,
	// season cumulative totals (with forward propagation to later
	// slates), dense rank, rank change, and slate completeness.
	RecomputeSlate(ctx context.Context, slateID sharedtypes.SlateID, actor *sharedtypes.Actor) (RecomputeResult, error)

	// BulkRecomputeSlates recomputes several slates in chronological
	// order per season, one transaction each, and reports per-slate
	// success.
	BulkRecomputeSlates(ctx context.Context, slateIDs []sharedtypes.SlateID, actor *sharedtypes.Actor) (map[sharedtypes.SlateID]bool, error)

	// RebuildSeason recomputes every slate of a season in chronological
	// order. Admin only.
	RebuildSeason(ctx context.Context, seasonID sharedtypes.SeasonID, actor *sharedtypes.Actor) (map[sharedtypes.SlateID]bool, error)

	// ValidateSlate produces a read-only drift report for a slate.
	ValidateSlate(ctx context.Context, slateID sharedtypes.SlateID) (ValidationResult, error)

	// RenderRankTrend renders a PNG chart of the user's rank across the
	// season's slates.
	RenderRankTrend(ctx context.Context, seasonID sharedtypes.SeasonID, userID sharedtypes.UserID) ([]byte, error)

	// ExportSlateStandings renders a slate's standings as an xlsx sheet.
	ExportSlateStandings(ctx context.Context, slateID sharedtypes.SlateID) ([]byte, error)
}
