package standingsservice

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/uptrace/bun"

	standingsevents "github.com/pickem-club/standings-engine/app/modules/standings/domain/events"
	standingsdb "github.com/pickem-club/standings-engine/app/modules/standings/infrastructure/repositories"
	"github.com/pickem-club/standings-engine/app/shared/attr"
	"github.com/pickem-club/standings-engine/app/shared/results"
	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// RecomputeSlate recomputes one slate's standings end to end.
//
// Outside the transaction: authorization, debounce, lease acquisition.
// Inside one transaction: chronology validation, relevant-set
// resolution, per-user delta computation, bulk upsert, forward
// propagation of cumulative deltas to later slates, dense rank and rank
// change, and the completeness re-check under a slate row lock. Any
// error rolls the whole pass back; the lease is released on every path.
func (s *StandingsService) RecomputeSlate(ctx context.Context, slateID sharedtypes.SlateID, actor *sharedtypes.Actor) (RecomputeResult, error) {
	if err := s.guard.Authorize(actor); err != nil {
		s.logger.WarnContext(ctx, "Recompute rejected: unauthorized actor",
			attr.SlateID("slate_id", slateID),
			attr.ExtractCorrelationID(ctx),
		)
		return RecomputeResult{}, err
	}

	if s.guard.ShouldThrottle(ctx, slateID) {
		s.logger.InfoContext(ctx, "Recompute skipped by debounce window",
			attr.SlateID("slate_id", slateID),
			attr.ExtractCorrelationID(ctx),
		)
		s.metrics.RecordRecomputeThrottled(ctx, slateID)
		return results.Success[standingsevents.RecomputeCompletedPayloadV1, standingsevents.RecomputeFailedPayloadV1](
			&standingsevents.RecomputeCompletedPayloadV1{SlateID: slateID, Skipped: true},
		), nil
	}

	release, err := s.guard.TryAcquire(ctx, slateID)
	if err != nil {
		if errors.Is(err, ErrRecomputeInProgress) {
			s.metrics.RecordLockContention(ctx, slateID)
		}
		return RecomputeResult{}, err
	}
	defer release()

	var outcome recomputeOutcome
	result, err := withTelemetry(s, ctx, "RecomputeSlate", slateID, func(ctx context.Context) (RecomputeResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (RecomputeResult, error) {
			var txErr error
			outcome, txErr = s.recomputeInTx(ctx, db, slateID)
			if txErr != nil {
				return RecomputeResult{}, txErr
			}
			return results.Success[standingsevents.RecomputeCompletedPayloadV1, standingsevents.RecomputeFailedPayloadV1](
				&standingsevents.RecomputeCompletedPayloadV1{
					SlateID:       slateID,
					UsersRanked:   outcome.UsersRanked,
					UsersShifted:  outcome.UsersShifted,
					SlateComplete: outcome.SlateComplete,
				},
			), nil
		})
	})
	if err != nil {
		return result, err
	}

	if outcome.CompletedNow {
		if pubErr := s.eventBus.Publish(ctx, standingsevents.SlateCompletedV1, standingsevents.SlateCompletedPayloadV1{SlateID: slateID}); pubErr != nil {
			// Standings are committed; a lost completion announcement is
			// recoverable on the next recompute.
			s.logger.WarnContext(ctx, "Failed to publish slate completion",
				attr.SlateID("slate_id", slateID),
				attr.Error(pubErr),
			)
		}
	}

	return result, nil
}

// recomputeInTx is the transactional body of a recompute pass.
func (s *StandingsService) recomputeInTx(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (recomputeOutcome, error) {
	slate, err := s.repo.GetSlate(ctx, db, slateID)
	if err != nil {
		return recomputeOutcome{}, err
	}

	chronology, err := s.chronology.ForSeason(ctx, db, slate.SeasonID)
	if err != nil {
		return recomputeOutcome{}, err
	}
	position, ok := chronology.Position(slateID)
	if !ok {
		return recomputeOutcome{}, ErrSlateNotInSeason
	}

	week, err := s.repo.GetSlateWeek(ctx, db, slateID)
	if err != nil {
		return recomputeOutcome{}, err
	}

	relevant, err := s.resolveRelevantUsers(ctx, db, slate, chronology, position)
	if err != nil {
		return recomputeOutcome{}, err
	}

	queryStart := time.Now()
	correctCounts, err := s.repo.CorrectCounts(ctx, db, slateID)
	if err != nil {
		return recomputeOutcome{}, err
	}
	s.metrics.RecordDBQueryDuration(ctx, time.Since(queryStart))

	previousCume, previousRanks, err := s.previousSnapshots(ctx, db, chronology, position)
	if err != nil {
		return recomputeOutcome{}, err
	}

	current, err := s.currentSnapshots(ctx, db, slateID)
	if err != nil {
		return recomputeOutcome{}, err
	}

	// Deterministic user order keeps upsert batches stable under replay.
	userIDs := make([]sharedtypes.UserID, 0, len(relevant))
	for userID := range relevant {
		userIDs = append(userIDs, userID)
	}
	slices.Sort(userIDs)

	stats := make([]*standingsdb.UserSlateStat, 0, len(userIDs))
	deltas := make(map[sharedtypes.UserID]sharedtypes.Points, len(userIDs))
	for _, userID := range userIDs {
		counts := correctCounts[userID]
		slatePoints := s.scoring.SlatePoints(counts.Moneyline, counts.Prop, week)
		newCume := previousCume[userID] + slatePoints

		snapshot, hasRow := current[userID]
		delta := newCume
		if hasRow {
			delta = newCume - snapshot.SeasonPoints
		}
		deltas[userID] = delta

		// Skip unchanged rows so an unchanged slate replays as a no-op.
		if hasRow &&
			snapshot.MoneylineCorrect == counts.Moneyline &&
			snapshot.PropCorrect == counts.Prop &&
			snapshot.SlatePoints == slatePoints &&
			snapshot.SeasonPoints == newCume {
			continue
		}

		stats = append(stats, &standingsdb.UserSlateStat{
			UserID:           userID,
			SlateID:          slateID,
			SeasonID:         slate.SeasonID,
			MoneylineCorrect: counts.Moneyline,
			PropCorrect:      counts.Prop,
			SlatePoints:      slatePoints,
			SeasonPoints:     newCume,
		})
	}

	if err := s.repo.UpsertStats(ctx, db, stats); err != nil {
		return recomputeOutcome{}, err
	}

	usersShifted, err := s.propagateForward(ctx, db, chronology, position, userIDs, deltas)
	if err != nil {
		return recomputeOutcome{}, err
	}
	s.metrics.RecordForwardPropagation(ctx, slateID, usersShifted)

	usersRanked, err := s.rankSlate(ctx, db, slateID, previousRanks)
	if err != nil {
		return recomputeOutcome{}, err
	}

	complete, completedNow, err := s.refreshCompleteness(ctx, db, slateID)
	if err != nil {
		return recomputeOutcome{}, err
	}

	return recomputeOutcome{
		UsersRanked:   usersRanked,
		UsersShifted:  usersShifted,
		SlateComplete: complete,
		CompletedNow:  completedNow,
	}, nil
}

// previousSnapshots loads cumulative points and ranks from the
// chronologically previous slate, or empty maps for the season opener.
func (s *StandingsService) previousSnapshots(
	ctx context.Context,
	db bun.IDB,
	chronology *SeasonChronology,
	position int,
) (map[sharedtypes.UserID]sharedtypes.Points, map[sharedtypes.UserID]int, error) {
	cume := make(map[sharedtypes.UserID]sharedtypes.Points)
	ranks := make(map[sharedtypes.UserID]int)

	previous := chronology.Previous(position)
	if previous == nil {
		return cume, ranks, nil
	}

	stats, err := s.repo.GetStatsForSlate(ctx, db, previous.ID)
	if err != nil {
		return nil, nil, err
	}
	for _, stat := range stats {
		cume[stat.UserID] = stat.SeasonPoints
		ranks[stat.UserID] = stat.Rank
	}
	return cume, ranks, nil
}

// currentSnapshots loads what is currently stored for the slate, keyed
// by user, so deltas can be computed against it.
func (s *StandingsService) currentSnapshots(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (map[sharedtypes.UserID]statSnapshot, error) {
	stats, err := s.repo.GetStatsForSlate(ctx, db, slateID)
	if err != nil {
		return nil, err
	}
	snapshots := make(map[sharedtypes.UserID]statSnapshot, len(stats))
	for _, stat := range stats {
		snapshots[stat.UserID] = statSnapshot{
			MoneylineCorrect: stat.MoneylineCorrect,
			PropCorrect:      stat.PropCorrect,
			SlatePoints:      stat.SlatePoints,
			SeasonPoints:     stat.SeasonPoints,
			Rank:             stat.Rank,
			HasRow:           true,
		}
	}
	return snapshots, nil
}

// propagateForward adds each user's non-zero cumulative delta to their
// rows in every later slate. Additive only: later slates' own per-slate
// correctness is never re-derived here.
func (s *StandingsService) propagateForward(
	ctx context.Context,
	db bun.IDB,
	chronology *SeasonChronology,
	position int,
	userIDs []sharedtypes.UserID,
	deltas map[sharedtypes.UserID]sharedtypes.Points,
) (int, error) {
	laterIDs := chronology.LaterSlateIDs(position)
	if len(laterIDs) == 0 {
		return 0, nil
	}

	usersShifted := 0
	for _, userID := range userIDs {
		delta := deltas[userID]
		if delta == 0 {
			continue
		}
		if err := s.repo.ApplyForwardDelta(ctx, db, userID, delta, laterIDs); err != nil {
			return 0, err
		}
		usersShifted++
	}
	return usersShifted, nil
}

// rankSlate recomputes dense rank for the slate and the signed rank
// change against the previous slate. Rank change is positive when the
// user moved up and NULL for users with no previous-slate row.
func (s *StandingsService) rankSlate(
	ctx context.Context,
	db bun.IDB,
	slateID sharedtypes.SlateID,
	previousRanks map[sharedtypes.UserID]int,
) (int, error) {
	stats, err := s.repo.GetStatsForSlate(ctx, db, slateID)
	if err != nil {
		return 0, err
	}
	if len(stats) == 0 {
		return 0, nil
	}

	// Repository ordering is season_points DESC, user_id ASC; dense rank
	// increments once per distinct points value.
	ranked := make([]*standingsdb.UserSlateStat, len(stats))
	rank := 0
	var lastPoints sharedtypes.Points
	for i := range stats {
		stat := &stats[i]
		if i == 0 || stat.SeasonPoints != lastPoints {
			rank++
			lastPoints = stat.SeasonPoints
		}
		stat.Rank = rank

		if previousRank, ok := previousRanks[stat.UserID]; ok {
			change := previousRank - rank
			stat.RankChange = &change
		} else {
			stat.RankChange = nil
		}
		ranked[i] = stat
	}

	if err := s.repo.UpdateRanks(ctx, db, ranked); err != nil {
		return 0, err
	}
	return len(ranked), nil
}

// refreshCompleteness re-derives the slate's completeness under a row
// lock. Re-evaluated on every pass so an un-finalized correction flips
// a completed slate back to open.
func (s *StandingsService) refreshCompleteness(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (complete bool, completedNow bool, err error) {
	locked, err := s.repo.LockSlate(ctx, db, slateID)
	if err != nil {
		return false, false, err
	}

	counts, err := s.repo.CountOutcomes(ctx, db, slateID)
	if err != nil {
		return false, false, err
	}

	// A slate with no games is never complete.
	complete = counts.Games > 0 && counts.AllResolved()

	switch {
	case complete && !locked.IsComplete:
		now := time.Now().UTC()
		if err := s.repo.SetSlateCompleteness(ctx, db, slateID, true, &now); err != nil {
			return false, false, err
		}
		return true, true, nil
	case !complete && locked.IsComplete:
		if err := s.repo.SetSlateCompleteness(ctx, db, slateID, false, nil); err != nil {
			return false, false, err
		}
		return false, false, nil
	default:
		// Unchanged either way; keep the original completed_at.
		return complete, false, nil
	}
}
