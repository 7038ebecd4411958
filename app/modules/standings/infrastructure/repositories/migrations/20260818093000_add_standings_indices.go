package standingsmigrations

import (
	"context"

	"github.com/uptrace/bun"

	standingsdb "github.com/pickem-club/standings-engine/app/modules/standings/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		indices := []struct {
			name  string
			model any
			cols  string
		}{
			{"slates_season_date_idx", (*standingsdb.Slate)(nil), "season_id, date"},
			{"games_slate_idx", (*standingsdb.Game)(nil), "slate_id"},
			{"prop_bets_game_idx", (*standingsdb.PropBet)(nil), "game_id"},
			{"picks_game_idx", (*standingsdb.Pick)(nil), "game_id"},
			{"prop_picks_prop_idx", (*standingsdb.PropPick)(nil), "prop_bet_id"},
			{"user_slate_stats_slate_idx", (*standingsdb.UserSlateStat)(nil), "slate_id"},
			{"user_slate_stats_season_user_idx", (*standingsdb.UserSlateStat)(nil), "season_id, user_id"},
			{"roster_members_cohort_idx", (*standingsdb.RosterMember)(nil), "cohort"},
		}
		for _, idx := range indices {
			if _, err := db.NewCreateIndex().
				Model(idx.model).
				Index(idx.name).
				ColumnExpr(idx.cols).
				IfNotExists().
				Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		names := []string{
			"slates_season_date_idx",
			"games_slate_idx",
			"prop_bets_game_idx",
			"picks_game_idx",
			"prop_picks_prop_idx",
			"user_slate_stats_slate_idx",
			"user_slate_stats_season_user_idx",
			"roster_members_cohort_idx",
		}
		for _, name := range names {
			if _, err := db.NewDropIndex().Index(name).IfExists().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
