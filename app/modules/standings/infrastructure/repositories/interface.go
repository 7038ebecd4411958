package standingsdb

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// Repository is the persistence surface of the standings engine. Every
// method accepts a bun.IDB so callers can run inside a transaction; a
// nil db falls back to the pooled connection.
type Repository interface {
	// Slates
	GetSlate(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (*Slate, error)
	ListSeasonSlates(ctx context.Context, db bun.IDB, seasonID sharedtypes.SeasonID) ([]Slate, error)
	LockSlate(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (*Slate, error)
	SetSlateCompleteness(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID, complete bool, completedAt *time.Time) error
	CountOutcomes(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (OutcomeCounts, error)
	GetSlateWeek(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (sharedtypes.Week, error)

	// Picks
	CorrectCounts(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (map[sharedtypes.UserID]CorrectCounts, error)
	PredictorIDs(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) ([]sharedtypes.UserID, error)

	// Roster
	EligibleUserIDs(ctx context.Context, db bun.IDB, cohort *string) ([]sharedtypes.UserID, error)

	// Stats
	GetStatsForSlate(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) ([]UserSlateStat, error)
	ParticipantIDsForSlate(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) ([]sharedtypes.UserID, error)
	SeasonParticipantIDs(ctx context.Context, db bun.IDB, seasonID sharedtypes.SeasonID, excludeSlateID sharedtypes.SlateID) ([]sharedtypes.UserID, error)
	UpsertStats(ctx context.Context, db bun.IDB, stats []*UserSlateStat) error
	ApplyForwardDelta(ctx context.Context, db bun.IDB, userID sharedtypes.UserID, delta sharedtypes.Points, slateIDs []sharedtypes.SlateID) error
	UpdateRanks(ctx context.Context, db bun.IDB, stats []*UserSlateStat) error
	GetUserRankHistory(ctx context.Context, db bun.IDB, seasonID sharedtypes.SeasonID, userID sharedtypes.UserID) ([]RankHistoryEntry, error)
}

// Impl implements Repository over bun/Postgres.
type Impl struct {
	db *bun.DB
}

// New creates the repository.
func New(db *bun.DB) *Impl {
	return &Impl{db: db}
}

var _ Repository = (*Impl)(nil)

func (r *Impl) idb(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}
