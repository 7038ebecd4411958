package standingsdb

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// GetStatsForSlate returns every stat row of the slate, ordered for
// ranking: season points descending, user id ascending.
func (r *Impl) GetStatsForSlate(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) ([]UserSlateStat, error) {
	db = r.idb(db)
	var stats []UserSlateStat
	err := db.NewSelect().
		Model(&stats).
		Where("uss.slate_id = ?", slateID).
		Order("season_points DESC").
		Order("user_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("standingsdb.GetStatsForSlate: %w", err)
	}
	return stats, nil
}

// ParticipantIDsForSlate returns users holding a stat row in the slate.
func (r *Impl) ParticipantIDsForSlate(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) ([]sharedtypes.UserID, error) {
	db = r.idb(db)
	var userIDs []sharedtypes.UserID
	err := db.NewSelect().
		Model((*UserSlateStat)(nil)).
		Column("uss.user_id").
		Where("uss.slate_id = ?", slateID).
		Scan(ctx, &userIDs)
	if err != nil {
		return nil, fmt.Errorf("standingsdb.ParticipantIDsForSlate: %w", err)
	}
	return userIDs, nil
}

// SeasonParticipantIDs returns users holding a stat row anywhere in the
// season outside the given slate. Backfill safety net: a user scored in
// any other slate must keep a row here too.
func (r *Impl) SeasonParticipantIDs(ctx context.Context, db bun.IDB, seasonID sharedtypes.SeasonID, excludeSlateID sharedtypes.SlateID) ([]sharedtypes.UserID, error) {
	db = r.idb(db)
	var userIDs []sharedtypes.UserID
	err := db.NewSelect().
		Model((*UserSlateStat)(nil)).
		ColumnExpr("DISTINCT uss.user_id").
		Where("uss.season_id = ?", seasonID).
		Where("uss.slate_id != ?", excludeSlateID).
		Scan(ctx, &userIDs)
	if err != nil {
		return nil, fmt.Errorf("standingsdb.SeasonParticipantIDs: %w", err)
	}
	return userIDs, nil
}

// UpsertStats writes the slate's stat rows in one bulk statement keyed
// by (user_id, slate_id). Rank fields are left untouched here; ranking
// runs as its own pass after forward propagation.
func (r *Impl) UpsertStats(ctx context.Context, db bun.IDB, stats []*UserSlateStat) error {
	if len(stats) == 0 {
		return nil
	}
	db = r.idb(db)

	now := time.Now().UTC()
	for _, s := range stats {
		s.UpdatedAt = now
	}

	_, err := db.NewInsert().
		Model(&stats).
		On("CONFLICT (user_id, slate_id) DO UPDATE").
		Set("moneyline_correct = EXCLUDED.moneyline_correct").
		Set("prop_correct = EXCLUDED.prop_correct").
		Set("slate_points = EXCLUDED.slate_points").
		Set("season_points = EXCLUDED.season_points").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("standingsdb.UpsertStats: %w", err)
	}
	return nil
}

// ApplyForwardDelta adds the delta to the user's stored cumulative total
// on each of the given later slates. Additive by design: later slates'
// own per-slate numbers are untouched.
func (r *Impl) ApplyForwardDelta(ctx context.Context, db bun.IDB, userID sharedtypes.UserID, delta sharedtypes.Points, slateIDs []sharedtypes.SlateID) error {
	if delta == 0 || len(slateIDs) == 0 {
		return nil
	}
	db = r.idb(db)

	_, err := db.NewUpdate().
		Model((*UserSlateStat)(nil)).
		Set("season_points = season_points + ?", delta).
		Set("updated_at = ?", time.Now().UTC()).
		Where("user_id = ?", userID).
		Where("slate_id IN (?)", bun.In(slateIDs)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("standingsdb.ApplyForwardDelta: %w", err)
	}
	return nil
}

// UpdateRanks bulk-writes rank and rank_change for the given rows.
func (r *Impl) UpdateRanks(ctx context.Context, db bun.IDB, stats []*UserSlateStat) error {
	if len(stats) == 0 {
		return nil
	}
	db = r.idb(db)

	_, err := db.NewUpdate().
		Model(&stats).
		Column("rank", "rank_change").
		Bulk().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("standingsdb.UpdateRanks: %w", err)
	}
	return nil
}

// GetUserRankHistory returns the user's stored rank across the season's
// slates in chronological order, for trend rendering.
func (r *Impl) GetUserRankHistory(ctx context.Context, db bun.IDB, seasonID sharedtypes.SeasonID, userID sharedtypes.UserID) ([]RankHistoryEntry, error) {
	db = r.idb(db)
	var history []RankHistoryEntry
	err := db.NewSelect().
		Model((*UserSlateStat)(nil)).
		ColumnExpr("uss.slate_id AS slate_id").
		ColumnExpr("sl.date AS date").
		ColumnExpr("uss.rank AS rank").
		Join("JOIN slates AS sl ON sl.id = uss.slate_id").
		Where("uss.season_id = ?", seasonID).
		Where("uss.user_id = ?", userID).
		OrderExpr("sl.date ASC").
		OrderExpr("CASE sl.slot WHEN 'early' THEN 0 WHEN 'afternoon' THEN 1 WHEN 'night' THEN 2 ELSE 3 END ASC").
		OrderExpr("sl.id ASC").
		Scan(ctx, &history)
	if err != nil {
		return nil, fmt.Errorf("standingsdb.GetUserRankHistory: %w", err)
	}
	return history, nil
}
