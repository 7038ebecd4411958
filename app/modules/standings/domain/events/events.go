// Package standingsevents defines the message contracts of the
// standings engine: inbound triggers and outbound results.
package standingsevents

import (
	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// Topics. Outcome topics are produced by the grading pipeline; the
// engine only consumes them. Standings topics are owned here.
const (
	GameOutcomeFinalizedV1 = "outcome.game.finalized.v1"
	PropOutcomeFinalizedV1 = "outcome.prop.finalized.v1"

	RecomputeRequestedV1     = "standings.recompute.requested.v1"
	RecomputeCompletedV1     = "standings.recompute.completed.v1"
	RecomputeFailedV1        = "standings.recompute.failed.v1"
	BulkRecomputeRequestedV1 = "standings.bulk.recompute.requested.v1"
	BulkRecomputeCompletedV1 = "standings.bulk.recompute.completed.v1"
	SlateCompletedV1         = "standings.slate.completed.v1"
	ValidationRequestedV1    = "standings.slate.validation.requested.v1"
	ValidationReportV1       = "standings.slate.validation.report.v1"
)

// GameOutcomeFinalizedPayloadV1 signals that a game's winner was written
// (or corrected, including back to NULL).
type GameOutcomeFinalizedPayloadV1 struct {
	SlateID sharedtypes.SlateID `json:"slate_id"`
	GameID  sharedtypes.GameID  `json:"game_id"`
}

// PropOutcomeFinalizedPayloadV1 signals a prop bet answer finalization.
type PropOutcomeFinalizedPayloadV1 struct {
	SlateID   sharedtypes.SlateID   `json:"slate_id"`
	PropBetID sharedtypes.PropBetID `json:"prop_bet_id"`
}

// ActorPayloadV1 carries the requesting principal on admin-triggered
// messages. Absent actor means an internal trigger.
type ActorPayloadV1 struct {
	UserID      sharedtypes.UserID `json:"user_id"`
	IsAdmin     bool               `json:"is_admin"`
	Permissions []string           `json:"permissions,omitempty"`
}

// Actor converts the payload to the domain actor type.
func (a *ActorPayloadV1) Actor() *sharedtypes.Actor {
	if a == nil {
		return nil
	}
	return &sharedtypes.Actor{
		UserID:      a.UserID,
		IsAdmin:     a.IsAdmin,
		Permissions: a.Permissions,
	}
}

// RecomputeRequestedPayloadV1 asks for a single-slate recompute.
type RecomputeRequestedPayloadV1 struct {
	SlateID sharedtypes.SlateID `json:"slate_id"`
	Actor   *ActorPayloadV1     `json:"actor,omitempty"`
}

// RecomputeCompletedPayloadV1 reports a finished recompute. Skipped is
// set when the debounce window absorbed the request without running.
type RecomputeCompletedPayloadV1 struct {
	SlateID       sharedtypes.SlateID `json:"slate_id"`
	Skipped       bool                `json:"skipped,omitempty"`
	UsersRanked   int                 `json:"users_ranked"`
	UsersShifted  int                 `json:"users_shifted"`
	SlateComplete bool                `json:"slate_complete"`
}

// RecomputeFailedPayloadV1 reports a failed or rejected recompute.
type RecomputeFailedPayloadV1 struct {
	SlateID sharedtypes.SlateID `json:"slate_id"`
	Reason  string              `json:"reason"`
}

// BulkRecomputeRequestedPayloadV1 asks for a multi-slate recompute.
type BulkRecomputeRequestedPayloadV1 struct {
	SlateIDs []sharedtypes.SlateID `json:"slate_ids"`
	Actor    *ActorPayloadV1       `json:"actor,omitempty"`
}

// BulkRecomputeCompletedPayloadV1 maps each requested slate to whether
// its recompute succeeded.
type BulkRecomputeCompletedPayloadV1 struct {
	Results map[string]bool `json:"results"`
}

// SlateCompletedPayloadV1 announces that a slate's completeness flag
// flipped on. Downstream reporting listens for this.
type SlateCompletedPayloadV1 struct {
	SlateID sharedtypes.SlateID `json:"slate_id"`
}

// ValidationRequestedPayloadV1 asks for a read-only drift report.
type ValidationRequestedPayloadV1 struct {
	SlateID sharedtypes.SlateID `json:"slate_id"`
}

// ValidationReportPayloadV1 is the diagnostic validator's output.
// StatRows gives the drift lists their denominator: rows without picks
// are expected (roster members, carried-forward participants), so only
// the set differences below indicate drift.
type ValidationReportPayloadV1 struct {
	SlateID           sharedtypes.SlateID  `json:"slate_id"`
	Games             int                  `json:"games"`
	ResolvedGames     int                  `json:"resolved_games"`
	PropBets          int                  `json:"prop_bets"`
	ResolvedProps     int                  `json:"resolved_props"`
	StatRows          int                  `json:"stat_rows"`
	PickersWithoutRow []sharedtypes.UserID `json:"pickers_without_row,omitempty"`
	RosterWithoutRow  []sharedtypes.UserID `json:"roster_without_row,omitempty"`
}
