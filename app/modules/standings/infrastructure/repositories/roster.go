package standingsdb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// EligibleUserIDs returns the current roster, optionally restricted to
// one cohort.
func (r *Impl) EligibleUserIDs(ctx context.Context, db bun.IDB, cohort *string) ([]sharedtypes.UserID, error) {
	db = r.idb(db)

	q := db.NewSelect().
		Model((*RosterMember)(nil)).
		Column("rm.user_id").
		Where("rm.is_eligible = ?", true)
	if cohort != nil {
		q = q.Where("rm.cohort = ?", *cohort)
	}

	var userIDs []sharedtypes.UserID
	if err := q.Scan(ctx, &userIDs); err != nil {
		return nil, fmt.Errorf("standingsdb.EligibleUserIDs: %w", err)
	}
	return userIDs, nil
}
