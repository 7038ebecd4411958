package standingsdb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// CorrectCounts aggregates graded-correct moneyline and prop picks per
// user for everything inside the slate. Users whose picks are all
// ungraded or wrong still appear with zero counts, so the caller can
// distinguish "picked and scored nothing" from "never picked".
func (r *Impl) CorrectCounts(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (map[sharedtypes.UserID]CorrectCounts, error) {
	db = r.idb(db)

	var moneyline []CorrectCounts
	err := db.NewSelect().
		Model((*Pick)(nil)).
		ColumnExpr("p.user_id AS user_id").
		ColumnExpr("count(*) FILTER (WHERE p.is_correct) AS moneyline").
		Join("JOIN games AS g ON g.id = p.game_id").
		Where("g.slate_id = ?", slateID).
		GroupExpr("p.user_id").
		Scan(ctx, &moneyline)
	if err != nil {
		return nil, fmt.Errorf("standingsdb.CorrectCounts: moneyline: %w", err)
	}

	var props []CorrectCounts
	err = db.NewSelect().
		Model((*PropPick)(nil)).
		ColumnExpr("pp.user_id AS user_id").
		ColumnExpr("count(*) FILTER (WHERE pp.is_correct) AS prop").
		Join("JOIN prop_bets AS pb ON pb.id = pp.prop_bet_id").
		Join("JOIN games AS g ON g.id = pb.game_id").
		Where("g.slate_id = ?", slateID).
		GroupExpr("pp.user_id").
		Scan(ctx, &props)
	if err != nil {
		return nil, fmt.Errorf("standingsdb.CorrectCounts: props: %w", err)
	}

	counts := make(map[sharedtypes.UserID]CorrectCounts, len(moneyline)+len(props))
	for _, row := range moneyline {
		c := counts[row.UserID]
		c.UserID = row.UserID
		c.Moneyline = row.Moneyline
		counts[row.UserID] = c
	}
	for _, row := range props {
		c := counts[row.UserID]
		c.UserID = row.UserID
		c.Prop = row.Prop
		counts[row.UserID] = c
	}
	return counts, nil
}

// PredictorIDs returns every user who made at least one pick (moneyline
// or prop) on anything inside the slate.
func (r *Impl) PredictorIDs(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) ([]sharedtypes.UserID, error) {
	db = r.idb(db)

	var userIDs []sharedtypes.UserID
	err := db.NewSelect().
		ColumnExpr("DISTINCT user_id").
		TableExpr("(?) AS predictors", db.NewSelect().
			Model((*Pick)(nil)).
			ColumnExpr("p.user_id").
			Join("JOIN games AS g ON g.id = p.game_id").
			Where("g.slate_id = ?", slateID).
			UnionAll(db.NewSelect().
				Model((*PropPick)(nil)).
				ColumnExpr("pp.user_id").
				Join("JOIN prop_bets AS pb ON pb.id = pp.prop_bet_id").
				Join("JOIN games AS g ON g.id = pb.game_id").
				Where("g.slate_id = ?", slateID))).
		Scan(ctx, &userIDs)
	if err != nil {
		return nil, fmt.Errorf("standingsdb.PredictorIDs: %w", err)
	}
	return userIDs, nil
}
