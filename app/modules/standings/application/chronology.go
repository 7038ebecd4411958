package standingsservice

import (
	"context"
	"sync"
	"time"

	"github.com/uptrace/bun"

	standingsdb "github.com/pickem-club/standings-engine/app/modules/standings/infrastructure/repositories"
	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// SeasonChronology is the total order of a season's slates: date
// ascending, intra-day slot rank ascending, slate id ascending.
type SeasonChronology struct {
	slates    []standingsdb.Slate
	positions map[sharedtypes.SlateID]int
}

// Position returns the slate's zero-based chronological position.
func (c *SeasonChronology) Position(slateID sharedtypes.SlateID) (int, bool) {
	pos, ok := c.positions[slateID]
	return pos, ok
}

// Previous returns the slate immediately before the given position, or
// nil for the season opener.
func (c *SeasonChronology) Previous(position int) *standingsdb.Slate {
	if position <= 0 || position > len(c.slates)-1 {
		return nil
	}
	return &c.slates[position-1]
}

// LaterSlateIDs returns the ids of every slate after the given position.
func (c *SeasonChronology) LaterSlateIDs(position int) []sharedtypes.SlateID {
	if position < 0 || position >= len(c.slates)-1 {
		return nil
	}
	ids := make([]sharedtypes.SlateID, 0, len(c.slates)-position-1)
	for _, slate := range c.slates[position+1:] {
		ids = append(ids, slate.ID)
	}
	return ids
}

// Slates returns the ordered slates.
func (c *SeasonChronology) Slates() []standingsdb.Slate {
	return c.slates
}

// Len returns the number of slates in the season.
func (c *SeasonChronology) Len() int {
	return len(c.slates)
}

type chronologyCacheEntry struct {
	chronology *SeasonChronology
	fetchedAt  time.Time
}

// ChronologyIndex orders a season's slates and caches the result with a
// short TTL. The cache handle is injected and explicitly invalidatable;
// no package-level state.
type ChronologyIndex struct {
	repo standingsdb.Repository
	ttl  time.Duration

	mu    sync.Mutex
	cache map[sharedtypes.SeasonID]chronologyCacheEntry

	// now is swappable in tests.
	now func() time.Time
}

// NewChronologyIndex creates the index with the given cache TTL.
func NewChronologyIndex(repo standingsdb.Repository, ttl time.Duration) *ChronologyIndex {
	return &ChronologyIndex{
		repo:  repo,
		ttl:   ttl,
		cache: make(map[sharedtypes.SeasonID]chronologyCacheEntry),
		now:   time.Now,
	}
}

// ForSeason returns the season's chronology, served from cache when
// fresh. The db handle is used only on a cache miss.
func (ci *ChronologyIndex) ForSeason(ctx context.Context, db bun.IDB, seasonID sharedtypes.SeasonID) (*SeasonChronology, error) {
	ci.mu.Lock()
	if entry, ok := ci.cache[seasonID]; ok && ci.now().Sub(entry.fetchedAt) < ci.ttl {
		ci.mu.Unlock()
		return entry.chronology, nil
	}
	ci.mu.Unlock()

	slates, err := ci.repo.ListSeasonSlates(ctx, db, seasonID)
	if err != nil {
		return nil, err
	}

	positions := make(map[sharedtypes.SlateID]int, len(slates))
	for i, slate := range slates {
		positions[slate.ID] = i
	}
	chronology := &SeasonChronology{slates: slates, positions: positions}

	ci.mu.Lock()
	ci.cache[seasonID] = chronologyCacheEntry{chronology: chronology, fetchedAt: ci.now()}
	ci.mu.Unlock()

	return chronology, nil
}

// Invalidate drops the cached chronology for a season. Called when
// slates are created or rescheduled.
func (ci *ChronologyIndex) Invalidate(seasonID sharedtypes.SeasonID) {
	ci.mu.Lock()
	delete(ci.cache, seasonID)
	ci.mu.Unlock()
}
