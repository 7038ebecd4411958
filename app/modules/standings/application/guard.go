package standingsservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/time/rate"

	"github.com/pickem-club/standings-engine/app/shared/attr"
	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// KeyValueStore is the subset of jetstream.KeyValue the guard needs.
// Create is the atomic create-if-absent primitive the lease rides on.
type KeyValueStore interface {
	Create(ctx context.Context, key string, value []byte) (uint64, error)
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
}

// Guard serializes recomputes per slate and absorbs trigger bursts.
//
// The mutex is a lease: a key in a TTL bucket created atomically, so a
// worker that dies mid-recompute frees the slate when the TTL lapses.
// Debounce is two layers: an in-process keyed rate limiter (cheap, no
// network) backed by a TTL key in a second bucket so bursts arriving at
// different processes are still absorbed.
type Guard struct {
	locks    KeyValueStore
	debounce KeyValueStore
	interval time.Duration
	logger   *slog.Logger

	// owner tags this process's lease keys so release never deletes a
	// lease acquired by someone else after our TTL expired.
	owner string

	mu       sync.Mutex
	limiters map[sharedtypes.SlateID]*slateLimiter
}

type slateLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewGuard creates the guard over the two KV buckets. Bucket TTLs are
// configured at creation time (lock TTL and throttle interval).
func NewGuard(locks, debounce KeyValueStore, interval time.Duration, logger *slog.Logger) *Guard {
	return &Guard{
		locks:    locks,
		debounce: debounce,
		interval: interval,
		logger:   logger,
		owner:    uuid.NewString(),
		limiters: make(map[sharedtypes.SlateID]*slateLimiter),
	}
}

// Authorize checks the actor against the recompute privilege. A nil
// actor is an internal trigger and passes.
func (g *Guard) Authorize(actor *sharedtypes.Actor) error {
	if actor == nil {
		return nil
	}
	if actor.IsAdmin || actor.HasPermission(PermissionRecompute) {
		return nil
	}
	return ErrUnauthorized
}

// ShouldThrottle reports whether this slate was recomputed too recently.
// Best-effort and non-blocking: a throttled request is skipped, never
// queued. KV errors fail open so coordination loss cannot stop scoring.
func (g *Guard) ShouldThrottle(ctx context.Context, slateID sharedtypes.SlateID) bool {
	if !g.localAllow(slateID) {
		return true
	}

	if g.debounce == nil {
		return false
	}
	_, err := g.debounce.Create(ctx, debounceKey(slateID), []byte("1"))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return true
		}
		g.logger.WarnContext(ctx, "Debounce store unavailable, failing open",
			attr.SlateID("slate_id", slateID),
			attr.Error(err),
		)
	}
	return false
}

// localAllow consults the in-process limiter for the slate, pruning
// stale entries as it goes.
func (g *Guard) localAllow(slateID sharedtypes.SlateID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	for id, entry := range g.limiters {
		if now.Sub(entry.lastSeen) > 10*g.interval {
			delete(g.limiters, id)
		}
	}

	entry, ok := g.limiters[slateID]
	if !ok {
		entry = &slateLimiter{limiter: rate.NewLimiter(rate.Every(g.interval), 1)}
		g.limiters[slateID] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

// TryAcquire takes the slate's recompute lease. The returned release
// func is safe to call on every exit path; it only deletes a lease this
// process still owns.
func (g *Guard) TryAcquire(ctx context.Context, slateID sharedtypes.SlateID) (func(), error) {
	key := lockKey(slateID)
	_, err := g.locks.Create(ctx, key, []byte(g.owner))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return nil, ErrRecomputeInProgress
		}
		return nil, fmt.Errorf("guard.TryAcquire: %w", err)
	}

	release := func() {
		entry, err := g.locks.Get(context.Background(), key)
		if err != nil {
			return
		}
		if string(entry.Value()) != g.owner {
			// Our TTL lapsed and someone else re-acquired; leave it.
			return
		}
		if err := g.locks.Delete(context.Background(), key); err != nil {
			g.logger.Warn("Failed to release recompute lease",
				attr.SlateID("slate_id", slateID),
				attr.Error(err),
			)
		}
	}
	return release, nil
}

func lockKey(slateID sharedtypes.SlateID) string {
	return "recompute." + slateID.String()
}

func debounceKey(slateID sharedtypes.SlateID) string {
	return "debounce." + slateID.String()
}
