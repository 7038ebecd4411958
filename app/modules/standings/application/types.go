package standingsservice

import (
	standingsevents "github.com/pickem-club/standings-engine/app/modules/standings/domain/events"
	"github.com/pickem-club/standings-engine/app/shared/results"
	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// PermissionRecompute is the explicit permission a non-admin actor needs
// to trigger recomputes.
const PermissionRecompute = "standings:recompute"

// RecomputeResult is the envelope returned by recompute operations.
type RecomputeResult = results.OperationResult[standingsevents.RecomputeCompletedPayloadV1, standingsevents.RecomputeFailedPayloadV1]

// ValidationResult is the envelope returned by the diagnostic validator.
type ValidationResult = results.OperationResult[standingsevents.ValidationReportPayloadV1, standingsevents.RecomputeFailedPayloadV1]

// RosterConfig controls the global-roster membership rule, resolved once
// per recompute call.
type RosterConfig struct {
	// Enabled gates the global roster set. Disabled means organic mode:
	// only predictors and carried-forward participants get rows.
	Enabled bool
	// Cohort optionally restricts the roster to one cohort.
	Cohort *string
}

// recomputeOutcome is the in-transaction summary handed back to the
// service wrapper.
type recomputeOutcome struct {
	UsersRanked   int
	UsersShifted  int
	SlateComplete bool
	CompletedNow  bool
}

// statSnapshot captures a user's stored standing before the upsert.
type statSnapshot struct {
	MoneylineCorrect int
	PropCorrect      int
	SlatePoints      sharedtypes.Points
	SeasonPoints     sharedtypes.Points
	Rank             int
	HasRow           bool
}
