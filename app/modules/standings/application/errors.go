package standingsservice

import "errors"

var (
	// ErrUnauthorized means the supplied actor is neither an admin nor a
	// holder of the recompute permission.
	ErrUnauthorized = errors.New("actor not authorized to recompute standings")

	// ErrRecomputeInProgress means another worker holds the slate's
	// recompute lease. Callers may retry after a backoff.
	ErrRecomputeInProgress = errors.New("recompute already in progress for slate")

	// ErrSlateNotInSeason means the slate exists but is absent from its
	// season's chronology index. Misconfiguration; always fatal.
	ErrSlateNotInSeason = errors.New("slate missing from season chronology index")
)
