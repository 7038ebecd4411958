// Package bundb opens the engine's Postgres connection through bun.
package bundb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	standingsdb "github.com/pickem-club/standings-engine/app/modules/standings/infrastructure/repositories"
)

// NewBunDB connects to Postgres and registers the engine's models.
func NewBunDB(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("bundb.NewBunDB: ping: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	db.RegisterModel(
		(*standingsdb.Season)(nil),
		(*standingsdb.Slate)(nil),
		(*standingsdb.Game)(nil),
		(*standingsdb.PropBet)(nil),
		(*standingsdb.Pick)(nil),
		(*standingsdb.PropPick)(nil),
		(*standingsdb.RosterMember)(nil),
		(*standingsdb.UserSlateStat)(nil),
	)

	return db, nil
}
