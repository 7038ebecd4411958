package standingsservice

import (
	"context"

	"github.com/uptrace/bun"

	standingsdb "github.com/pickem-club/standings-engine/app/modules/standings/infrastructure/repositories"
	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// resolveRelevantUsers computes the set of users who must hold a stat
// row in the slate: the union of the global roster (when configured),
// everyone who picked inside the slate, everyone with a row in the
// chronologically previous slate, and everyone with a row anywhere else
// in the season.
//
// The previous-slate set is computed even when the roster subsumes it:
// organic deployments have no roster, and a user who skips a slate must
// still carry forward.
func (s *StandingsService) resolveRelevantUsers(
	ctx context.Context,
	db bun.IDB,
	slate *standingsdb.Slate,
	chronology *SeasonChronology,
	position int,
) (map[sharedtypes.UserID]struct{}, error) {
	relevant := make(map[sharedtypes.UserID]struct{})

	if s.roster.Enabled {
		rosterIDs, err := s.repo.EligibleUserIDs(ctx, db, s.roster.Cohort)
		if err != nil {
			return nil, err
		}
		for _, id := range rosterIDs {
			relevant[id] = struct{}{}
		}
	}

	predictorIDs, err := s.repo.PredictorIDs(ctx, db, slate.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range predictorIDs {
		relevant[id] = struct{}{}
	}

	if previous := chronology.Previous(position); previous != nil {
		previousIDs, err := s.repo.ParticipantIDsForSlate(ctx, db, previous.ID)
		if err != nil {
			return nil, err
		}
		for _, id := range previousIDs {
			relevant[id] = struct{}{}
		}
	}

	seasonIDs, err := s.repo.SeasonParticipantIDs(ctx, db, slate.SeasonID, slate.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range seasonIDs {
		relevant[id] = struct{}{}
	}

	return relevant, nil
}
