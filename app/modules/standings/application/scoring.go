package standingsservice

import (
	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// ScoringRule maps (pick kind, week) to points per correct pick.
// Moneyline picks score a fixed point; prop picks double from the bonus
// week onward. Pure: callers must pass the week of the slate being
// scored so historical backfills use the rule in effect for that week.
type ScoringRule struct {
	PropBonusWeek sharedtypes.Week
}

const (
	moneylinePoints sharedtypes.Points = 1
	propBasePoints  sharedtypes.Points = 1
	propBonusPoints sharedtypes.Points = 2
)

// PointsFor returns the points one correct pick of the given kind earns
// in the given week.
func (r ScoringRule) PointsFor(kind sharedtypes.PickKind, week sharedtypes.Week) sharedtypes.Points {
	switch kind {
	case sharedtypes.PickKindMoneyline:
		return moneylinePoints
	case sharedtypes.PickKindProp:
		if week >= r.PropBonusWeek {
			return propBonusPoints
		}
		return propBasePoints
	default:
		return 0
	}
}

// SlatePoints totals a user's points for a slate from their graded
// correct counts.
func (r ScoringRule) SlatePoints(moneylineCorrect, propCorrect int, week sharedtypes.Week) sharedtypes.Points {
	points := sharedtypes.Points(moneylineCorrect) * r.PointsFor(sharedtypes.PickKindMoneyline, week)
	points += sharedtypes.Points(propCorrect) * r.PointsFor(sharedtypes.PickKindProp, week)
	return points
}
