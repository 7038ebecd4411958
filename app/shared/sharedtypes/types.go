package sharedtypes

import (
	"database/sql/driver"

	"github.com/google/uuid"
)

// UserID identifies a competitor. IDs come from the upstream identity
// provider and are opaque to the engine.
type UserID string

// SeasonID identifies a season, e.g. "2026".
type SeasonID string

// SlateID identifies a scoring slate (one date + day slot).
// Defined types over uuid.UUID do not inherit its methods, so the
// text and SQL codecs are restated here for JSON payloads and bun.
type SlateID uuid.UUID

func (id SlateID) String() string {
	return uuid.UUID(id).String()
}

func (id SlateID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *SlateID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(data)
}

func (id SlateID) Value() (driver.Value, error) {
	return uuid.UUID(id).Value()
}

func (id *SlateID) Scan(src any) error {
	return (*uuid.UUID)(id).Scan(src)
}

// GameID identifies a game within a slate.
type GameID uuid.UUID

func (id GameID) String() string {
	return uuid.UUID(id).String()
}

func (id GameID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *GameID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(data)
}

func (id GameID) Value() (driver.Value, error) {
	return uuid.UUID(id).Value()
}

func (id *GameID) Scan(src any) error {
	return (*uuid.UUID)(id).Scan(src)
}

// PropBetID identifies a prop bet within a game.
type PropBetID uuid.UUID

func (id PropBetID) String() string {
	return uuid.UUID(id).String()
}

func (id PropBetID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *PropBetID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(data)
}

func (id PropBetID) Value() (driver.Value, error) {
	return uuid.UUID(id).Value()
}

func (id *PropBetID) Scan(src any) error {
	return (*uuid.UUID)(id).Scan(src)
}

// Week is the competition week a game belongs to. Scoring rules key off
// the week of the slate being scored, never the current calendar week.
type Week int

// Points is an integer point amount (per-slate or season cumulative).
type Points int

// Slot is the intra-day position of a slate.
type Slot string

const (
	SlotEarly     Slot = "early"
	SlotAfternoon Slot = "afternoon"
	SlotNight     Slot = "night"
	SlotUnknown   Slot = "unknown"
)

// Rank returns the sort rank of the slot inside a calendar day. Unknown
// slots order last so administratively sparse data stays stable.
func (s Slot) Rank() int {
	switch s {
	case SlotEarly:
		return 0
	case SlotAfternoon:
		return 1
	case SlotNight:
		return 2
	default:
		return 3
	}
}

// PickKind distinguishes the two scorable prediction kinds.
type PickKind string

const (
	PickKindMoneyline PickKind = "moneyline"
	PickKindProp      PickKind = "prop"
)

// Actor is the authenticated principal requesting an operation. A nil
// *Actor means the request originated from an internal trigger.
type Actor struct {
	UserID      UserID
	IsAdmin     bool
	Permissions []string
}

// HasPermission reports whether the actor carries the named permission.
func (a *Actor) HasPermission(perm string) bool {
	if a == nil {
		return false
	}
	for _, p := range a.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
