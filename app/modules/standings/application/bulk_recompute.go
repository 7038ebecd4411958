package standingsservice

import (
	"context"
	"slices"

	standingsdb "github.com/pickem-club/standings-engine/app/modules/standings/infrastructure/repositories"
	"github.com/pickem-club/standings-engine/app/shared/attr"
	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// BulkRecomputeSlates recomputes several slates, each in its own
// transaction. Slates are sorted chronologically within their season
// first: processing a later slate before an edited earlier one would
// chain its cumulative totals off stale numbers. One slate failing does
// not stop the rest; the caller gets a per-slate success map.
func (s *StandingsService) BulkRecomputeSlates(ctx context.Context, slateIDs []sharedtypes.SlateID, actor *sharedtypes.Actor) (map[sharedtypes.SlateID]bool, error) {
	if err := s.guard.Authorize(actor); err != nil {
		return nil, err
	}

	ordered, err := s.sortChronologically(ctx, slateIDs)
	if err != nil {
		return nil, err
	}

	outcomes := make(map[sharedtypes.SlateID]bool, len(ordered))
	for _, slateID := range ordered {
		// Actor already authorized above; pass nil so one permission
		// check covers the whole batch.
		result, err := s.RecomputeSlate(ctx, slateID, nil)
		if err != nil {
			s.logger.ErrorContext(ctx, "Bulk recompute: slate failed",
				attr.SlateID("slate_id", slateID),
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			outcomes[slateID] = false
			continue
		}
		outcomes[slateID] = result.IsSuccess()
	}
	return outcomes, nil
}

// RebuildSeason recomputes every slate of the season in order. This is
// the explicit full-rebuild path; admin only.
func (s *StandingsService) RebuildSeason(ctx context.Context, seasonID sharedtypes.SeasonID, actor *sharedtypes.Actor) (map[sharedtypes.SlateID]bool, error) {
	if actor == nil || !actor.IsAdmin {
		return nil, ErrUnauthorized
	}

	s.chronology.Invalidate(seasonID)
	chronology, err := s.chronology.ForSeason(ctx, nil, seasonID)
	if err != nil {
		return nil, err
	}

	slateIDs := make([]sharedtypes.SlateID, 0, chronology.Len())
	for _, slate := range chronology.Slates() {
		slateIDs = append(slateIDs, slate.ID)
	}

	s.logger.InfoContext(ctx, "Rebuilding season standings",
		attr.SeasonID("season_id", seasonID),
		attr.Int("slates", len(slateIDs)),
		attr.UserID("actor", actor.UserID),
	)
	return s.BulkRecomputeSlates(ctx, slateIDs, actor)
}

// sortChronologically orders the requested slates by (season, position).
// Slates from different seasons keep a stable season grouping; unknown
// ids are kept and left to fail inside their own recompute.
func (s *StandingsService) sortChronologically(ctx context.Context, slateIDs []sharedtypes.SlateID) ([]sharedtypes.SlateID, error) {
	type keyed struct {
		id       sharedtypes.SlateID
		seasonID sharedtypes.SeasonID
		position int
		known    bool
	}

	keyedIDs := make([]keyed, 0, len(slateIDs))
	for _, slateID := range slateIDs {
		slate, err := s.repo.GetSlate(ctx, nil, slateID)
		if err != nil {
			if err == standingsdb.ErrSlateNotFound {
				keyedIDs = append(keyedIDs, keyed{id: slateID})
				continue
			}
			return nil, err
		}

		chronology, err := s.chronology.ForSeason(ctx, nil, slate.SeasonID)
		if err != nil {
			return nil, err
		}
		position, ok := chronology.Position(slateID)
		keyedIDs = append(keyedIDs, keyed{
			id:       slateID,
			seasonID: slate.SeasonID,
			position: position,
			known:    ok,
		})
	}

	slices.SortStableFunc(keyedIDs, func(a, b keyed) int {
		if a.seasonID != b.seasonID {
			if a.seasonID < b.seasonID {
				return -1
			}
			return 1
		}
		return a.position - b.position
	})

	ordered := make([]sharedtypes.SlateID, len(keyedIDs))
	for i, k := range keyedIDs {
		ordered[i] = k.id
	}
	return ordered, nil
}
