package standingsmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	standingsdb "github.com/pickem-club/standings-engine/app/modules/standings/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating standings tables...")

		models := []any{
			(*standingsdb.Season)(nil),
			(*standingsdb.Slate)(nil),
			(*standingsdb.Game)(nil),
			(*standingsdb.PropBet)(nil),
			(*standingsdb.Pick)(nil),
			(*standingsdb.PropPick)(nil),
			(*standingsdb.RosterMember)(nil),
			(*standingsdb.UserSlateStat)(nil),
		}
		for _, model := range models {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}

		// One pick per (user, game), one answer per (user, prop), one
		// stat row per (user, slate). rank_change is nullable on purpose:
		// NULL = no previous-slate row, 0 = rank unchanged.
		uniques := []struct {
			name  string
			model any
			cols  string
		}{
			{"picks_user_game_uq", (*standingsdb.Pick)(nil), "user_id, game_id"},
			{"prop_picks_user_prop_uq", (*standingsdb.PropPick)(nil), "user_id, prop_bet_id"},
			{"user_slate_stats_user_slate_uq", (*standingsdb.UserSlateStat)(nil), "user_id, slate_id"},
		}
		for _, u := range uniques {
			if _, err := db.NewCreateIndex().
				Model(u.model).
				Index(u.name).
				ColumnExpr(u.cols).
				Unique().
				IfNotExists().
				Exec(ctx); err != nil {
				return err
			}
		}

		fmt.Println("Standings tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping standings tables...")

		models := []any{
			(*standingsdb.UserSlateStat)(nil),
			(*standingsdb.RosterMember)(nil),
			(*standingsdb.PropPick)(nil),
			(*standingsdb.Pick)(nil),
			(*standingsdb.PropBet)(nil),
			(*standingsdb.Game)(nil),
			(*standingsdb.Slate)(nil),
			(*standingsdb.Season)(nil),
		}
		for _, model := range models {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}

		fmt.Println("Standings tables dropped successfully!")
		return nil
	})
}
