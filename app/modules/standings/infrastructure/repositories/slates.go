package standingsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// GetSlate fetches a slate by id.
func (r *Impl) GetSlate(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (*Slate, error) {
	db = r.idb(db)
	slate := new(Slate)
	err := db.NewSelect().
		Model(slate).
		Where("sl.id = ?", slateID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlateNotFound
		}
		return nil, fmt.Errorf("standingsdb.GetSlate: %w", err)
	}
	return slate, nil
}

// ListSeasonSlates returns every slate of the season in chronological
// order: date, then intra-day slot rank, then id as the final tie-break.
func (r *Impl) ListSeasonSlates(ctx context.Context, db bun.IDB, seasonID sharedtypes.SeasonID) ([]Slate, error) {
	db = r.idb(db)
	var slates []Slate
	err := db.NewSelect().
		Model(&slates).
		Where("sl.season_id = ?", seasonID).
		OrderExpr("sl.date ASC").
		OrderExpr("CASE sl.slot WHEN 'early' THEN 0 WHEN 'afternoon' THEN 1 WHEN 'night' THEN 2 ELSE 3 END ASC").
		OrderExpr("sl.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("standingsdb.ListSeasonSlates: %w", err)
	}
	return slates, nil
}

// LockSlate fetches the slate under a row-level lock. Must run inside a
// transaction; the lock serializes concurrent completeness updates.
func (r *Impl) LockSlate(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (*Slate, error) {
	db = r.idb(db)
	slate := new(Slate)
	err := db.NewSelect().
		Model(slate).
		Where("sl.id = ?", slateID).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlateNotFound
		}
		return nil, fmt.Errorf("standingsdb.LockSlate: %w", err)
	}
	return slate, nil
}

// SetSlateCompleteness writes the derived completeness flags.
func (r *Impl) SetSlateCompleteness(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID, complete bool, completedAt *time.Time) error {
	db = r.idb(db)
	res, err := db.NewUpdate().
		Model((*Slate)(nil)).
		Set("is_complete = ?", complete).
		Set("completed_at = ?", completedAt).
		Where("id = ?", slateID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("standingsdb.SetSlateCompleteness: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// CountOutcomes reports finalization progress for every game and prop
// bet inside the slate.
func (r *Impl) CountOutcomes(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (OutcomeCounts, error) {
	db = r.idb(db)
	var counts OutcomeCounts

	err := db.NewSelect().
		Model((*Game)(nil)).
		ColumnExpr("count(*) AS games").
		ColumnExpr("count(g.winner) AS resolved_games").
		Where("g.slate_id = ?", slateID).
		Scan(ctx, &counts.Games, &counts.ResolvedGames)
	if err != nil {
		return OutcomeCounts{}, fmt.Errorf("standingsdb.CountOutcomes: games: %w", err)
	}

	err = db.NewSelect().
		Model((*PropBet)(nil)).
		ColumnExpr("count(*) AS prop_bets").
		ColumnExpr("count(pb.correct_answer) AS resolved_props").
		Join("JOIN games AS g ON g.id = pb.game_id").
		Where("g.slate_id = ?", slateID).
		Scan(ctx, &counts.PropBets, &counts.ResolvedProps)
	if err != nil {
		return OutcomeCounts{}, fmt.Errorf("standingsdb.CountOutcomes: props: %w", err)
	}

	return counts, nil
}

// GetSlateWeek returns the competition week of the slate's games. Games
// in one slate share a week; the minimum guards against bad data.
func (r *Impl) GetSlateWeek(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (sharedtypes.Week, error) {
	db = r.idb(db)
	var week sharedtypes.Week
	err := db.NewSelect().
		Model((*Game)(nil)).
		ColumnExpr("coalesce(min(g.week), 0)").
		Where("g.slate_id = ?", slateID).
		Scan(ctx, &week)
	if err != nil {
		return 0, fmt.Errorf("standingsdb.GetSlateWeek: %w", err)
	}
	return week, nil
}
