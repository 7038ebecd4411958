package standingsservice

import (
	"context"
	"slices"

	standingsevents "github.com/pickem-club/standings-engine/app/modules/standings/domain/events"
	"github.com/pickem-club/standings-engine/app/shared/results"
	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// ValidateSlate produces a read-only drift report for a slate: outcome
// resolution counts plus the users who should hold a stat row but
// don't. It never writes, so it skips the lease and the debounce.
func (s *StandingsService) ValidateSlate(ctx context.Context, slateID sharedtypes.SlateID) (ValidationResult, error) {
	return withTelemetry(s, ctx, "ValidateSlate", slateID, func(ctx context.Context) (ValidationResult, error) {
		counts, err := s.repo.CountOutcomes(ctx, nil, slateID)
		if err != nil {
			return ValidationResult{}, err
		}

		stats, err := s.repo.GetStatsForSlate(ctx, nil, slateID)
		if err != nil {
			return ValidationResult{}, err
		}
		haveRow := make(map[sharedtypes.UserID]struct{}, len(stats))
		for _, stat := range stats {
			haveRow[stat.UserID] = struct{}{}
		}

		predictorIDs, err := s.repo.PredictorIDs(ctx, nil, slateID)
		if err != nil {
			return ValidationResult{}, err
		}

		report := standingsevents.ValidationReportPayloadV1{
			SlateID:           slateID,
			Games:             counts.Games,
			ResolvedGames:     counts.ResolvedGames,
			PropBets:          counts.PropBets,
			ResolvedProps:     counts.ResolvedProps,
			StatRows:          len(stats),
			PickersWithoutRow: missingFrom(predictorIDs, haveRow),
		}

		if s.roster.Enabled {
			rosterIDs, err := s.repo.EligibleUserIDs(ctx, nil, s.roster.Cohort)
			if err != nil {
				return ValidationResult{}, err
			}
			report.RosterWithoutRow = missingFrom(rosterIDs, haveRow)
		}

		return results.Success[standingsevents.ValidationReportPayloadV1, standingsevents.RecomputeFailedPayloadV1](&report), nil
	})
}

// missingFrom returns the ids not present in the row set, sorted for a
// stable report.
func missingFrom(ids []sharedtypes.UserID, haveRow map[sharedtypes.UserID]struct{}) []sharedtypes.UserID {
	var missing []sharedtypes.UserID
	for _, id := range ids {
		if _, ok := haveRow[id]; !ok {
			missing = append(missing, id)
		}
	}
	slices.Sort(missing)
	return missing
}
