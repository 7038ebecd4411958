package standingsdb

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// Season is a named competition period.
type Season struct {
	bun.BaseModel `bun:"table:seasons,alias:sn"`

	ID        sharedtypes.SeasonID `bun:"id,pk"`
	Name      string               `bun:"name,notnull"`
	IsActive  bool                 `bun:"is_active,notnull,default:false"`
	CreatedAt time.Time            `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Slate groups the games of one date + day slot for scoring. Completeness
// is derived: the engine flips it based on whether every game and prop
// inside the slate has a finalized outcome.
type Slate struct {
	bun.BaseModel `bun:"table:slates,alias:sl"`

	ID          sharedtypes.SlateID  `bun:"id,pk,type:uuid"`
	SeasonID    sharedtypes.SeasonID `bun:"season_id,notnull"`
	Date        time.Time            `bun:"date,notnull"`
	Slot        sharedtypes.Slot     `bun:"slot,notnull,default:'unknown'"`
	IsComplete  bool                 `bun:"is_complete,notnull,default:false"`
	CompletedAt *time.Time           `bun:"completed_at,nullzero"`
	CreatedAt   time.Time            `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Game is a single matchup inside a slate. Winner stays NULL until the
// outcome is finalized.
type Game struct {
	bun.BaseModel `bun:"table:games,alias:g"`

	ID       sharedtypes.GameID  `bun:"id,pk,type:uuid"`
	SlateID  sharedtypes.SlateID `bun:"slate_id,type:uuid,notnull"`
	Week     sharedtypes.Week    `bun:"week,notnull"`
	HomeTeam string              `bun:"home_team,notnull"`
	AwayTeam string              `bun:"away_team,notnull"`
	Winner   *string             `bun:"winner,nullzero"`
}

// PropBet is a finer-grained question attached to a game. CorrectAnswer
// stays NULL until finalized.
type PropBet struct {
	bun.BaseModel `bun:"table:prop_bets,alias:pb"`

	ID            sharedtypes.PropBetID `bun:"id,pk,type:uuid"`
	GameID        sharedtypes.GameID    `bun:"game_id,type:uuid,notnull"`
	Question      string                `bun:"question,notnull"`
	CorrectAnswer *string               `bun:"correct_answer,nullzero"`
}

// Pick is a user's moneyline prediction on a game. IsCorrect is graded
// once the game's winner is finalized. At most one pick per (user, game).
type Pick struct {
	bun.BaseModel `bun:"table:picks,alias:p"`

	ID        int64              `bun:"id,pk,autoincrement"`
	UserID    sharedtypes.UserID `bun:"user_id,notnull"`
	GameID    sharedtypes.GameID `bun:"game_id,type:uuid,notnull"`
	Choice    string             `bun:"choice,notnull"`
	IsCorrect *bool              `bun:"is_correct,nullzero"`
	CreatedAt time.Time          `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// PropPick is a user's answer to a prop bet. At most one per (user, prop).
type PropPick struct {
	bun.BaseModel `bun:"table:prop_picks,alias:pp"`

	ID        int64                 `bun:"id,pk,autoincrement"`
	UserID    sharedtypes.UserID    `bun:"user_id,notnull"`
	PropBetID sharedtypes.PropBetID `bun:"prop_bet_id,type:uuid,notnull"`
	Answer    string                `bun:"answer,notnull"`
	IsCorrect *bool                 `bun:"is_correct,nullzero"`
	CreatedAt time.Time             `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// RosterMember is an eligible competitor. Eligible members get a stat
// row in every slate even when they never pick.
type RosterMember struct {
	bun.BaseModel `bun:"table:roster_members,alias:rm"`

	UserID     sharedtypes.UserID `bun:"user_id,pk"`
	Cohort     string             `bun:"cohort"`
	IsEligible bool               `bun:"is_eligible,notnull,default:true"`
	JoinedAt   time.Time          `bun:"joined_at,nullzero,notnull,default:current_timestamp"`
}

// UserSlateStat is the per-user-per-slate scoring record: the only
// entity the recompute engine mutates. SeasonPoints is the running total
// through this slate inclusive. RankChange is NULL for a user with no
// row in the chronologically previous slate and 0 when the rank held.
type UserSlateStat struct {
	bun.BaseModel `bun:"table:user_slate_stats,alias:uss"`

	ID               int64                `bun:"id,pk,autoincrement"`
	UserID           sharedtypes.UserID   `bun:"user_id,notnull"`
	SlateID          sharedtypes.SlateID  `bun:"slate_id,type:uuid,notnull"`
	SeasonID         sharedtypes.SeasonID `bun:"season_id,notnull"`
	MoneylineCorrect int                  `bun:"moneyline_correct,notnull,default:0"`
	PropCorrect      int                  `bun:"prop_correct,notnull,default:0"`
	SlatePoints      sharedtypes.Points   `bun:"slate_points,notnull,default:0"`
	SeasonPoints     sharedtypes.Points   `bun:"season_points,notnull,default:0"`
	Rank             int                  `bun:"rank,notnull,default:0"`
	RankChange       *int                 `bun:"rank_change,nullzero"`
	UpdatedAt        time.Time            `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// CorrectCounts aggregates a user's graded-correct picks inside a slate.
type CorrectCounts struct {
	UserID    sharedtypes.UserID `bun:"user_id"`
	Moneyline int                `bun:"moneyline"`
	Prop      int                `bun:"prop"`
}

// OutcomeCounts summarizes finalization progress inside a slate.
type OutcomeCounts struct {
	Games         int
	ResolvedGames int
	PropBets      int
	ResolvedProps int
}

// AllResolved reports whether every game and prop has an outcome.
func (c OutcomeCounts) AllResolved() bool {
	return c.ResolvedGames == c.Games && c.ResolvedProps == c.PropBets
}

// RankHistoryEntry is one point on a user's season rank trend.
type RankHistoryEntry struct {
	SlateID sharedtypes.SlateID `bun:"slate_id"`
	Date    time.Time           `bun:"date"`
	Rank    int                 `bun:"rank"`
}
