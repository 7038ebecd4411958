package standingsservice

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/uptrace/bun"

	"github.com/pickem-club/standings-engine/app/eventbus"
	standingsdb "github.com/pickem-club/standings-engine/app/modules/standings/infrastructure/repositories"
	"github.com/pickem-club/standings-engine/app/shared/sharedtypes"
)

// ------------------------
// Fake Standings Repo
// ------------------------

// FakeRepository provides a programmable stub for the standingsdb.Repository
// interface. Default behavior runs against the in-memory tables so a full
// recompute pass works without Postgres; any method can be overridden via
// its Func field.
type FakeRepository struct {
	trace []string

	Slates    map[sharedtypes.SlateID]*standingsdb.Slate
	Games     map[sharedtypes.GameID]*standingsdb.Game
	PropBets  map[sharedtypes.PropBetID]*standingsdb.PropBet
	Picks     []*standingsdb.Pick
	PropPicks []*standingsdb.PropPick
	Roster    []*standingsdb.RosterMember
	Stats     map[sharedtypes.SlateID]map[sharedtypes.UserID]*standingsdb.UserSlateStat

	GetSlateFunc             func(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (*standingsdb.Slate, error)
	ListSeasonSlatesFunc     func(ctx context.Context, db bun.IDB, seasonID sharedtypes.SeasonID) ([]standingsdb.Slate, error)
	LockSlateFunc            func(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (*standingsdb.Slate, error)
	SetSlateCompletenessFunc func(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID, complete bool, completedAt *time.Time) error
	CountOutcomesFunc        func(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (standingsdb.OutcomeCounts, error)
	GetSlateWeekFunc         func(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (sharedtypes.Week, error)
	CorrectCountsFunc        func(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (map[sharedtypes.UserID]standingsdb.CorrectCounts, error)
	PredictorIDsFunc         func(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) ([]sharedtypes.UserID, error)
	EligibleUserIDsFunc      func(ctx context.Context, db bun.IDB, cohort *string) ([]sharedtypes.UserID, error)
	GetStatsForSlateFunc     func(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) ([]standingsdb.UserSlateStat, error)
	UpsertStatsFunc          func(ctx context.Context, db bun.IDB, stats []*standingsdb.UserSlateStat) error
	ApplyForwardDeltaFunc    func(ctx context.Context, db bun.IDB, userID sharedtypes.UserID, delta sharedtypes.Points, slateIDs []sharedtypes.SlateID) error
	UpdateRanksFunc          func(ctx context.Context, db bun.IDB, stats []*standingsdb.UserSlateStat) error
	GetUserRankHistoryFunc   func(ctx context.Context, db bun.IDB, seasonID sharedtypes.SeasonID, userID sharedtypes.UserID) ([]standingsdb.RankHistoryEntry, error)

	UpsertedRows      int
	ForwardDeltaCalls int
}

// NewFakeRepository initializes a new FakeRepository with empty tables.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		trace:    []string{},
		Slates:   make(map[sharedtypes.SlateID]*standingsdb.Slate),
		Games:    make(map[sharedtypes.GameID]*standingsdb.Game),
		PropBets: make(map[sharedtypes.PropBetID]*standingsdb.PropBet),
		Stats:    make(map[sharedtypes.SlateID]map[sharedtypes.UserID]*standingsdb.UserSlateStat),
	}
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// TraceCount returns how many times the named method was called.
func (f *FakeRepository) TraceCount(method string) int {
	n := 0
	for _, step := range f.trace {
		if step == method {
			n++
		}
	}
	return n
}

func (f *FakeRepository) record(step string) {
	f.trace = append(f.trace, step)
}

// --- Repository Interface Implementation ---

func (f *FakeRepository) GetSlate(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (*standingsdb.Slate, error) {
	f.record("GetSlate")
	if f.GetSlateFunc != nil {
		return f.GetSlateFunc(ctx, db, slateID)
	}
	slate, ok := f.Slates[slateID]
	if !ok {
		return nil, standingsdb.ErrSlateNotFound
	}
	copied := *slate
	return &copied, nil
}

func (f *FakeRepository) ListSeasonSlates(ctx context.Context, db bun.IDB, seasonID sharedtypes.SeasonID) ([]standingsdb.Slate, error) {
	f.record("ListSeasonSlates")
	if f.ListSeasonSlatesFunc != nil {
		return f.ListSeasonSlatesFunc(ctx, db, seasonID)
	}
	var slates []standingsdb.Slate
	for _, slate := range f.Slates {
		if slate.SeasonID == seasonID {
			slates = append(slates, *slate)
		}
	}
	slices.SortFunc(slates, func(a, b standingsdb.Slate) int {
		if !a.Date.Equal(b.Date) {
			if a.Date.Before(b.Date) {
				return -1
			}
			return 1
		}
		if a.Slot.Rank() != b.Slot.Rank() {
			return a.Slot.Rank() - b.Slot.Rank()
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return slates, nil
}

func (f *FakeRepository) LockSlate(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (*standingsdb.Slate, error) {
	f.record("LockSlate")
	if f.LockSlateFunc != nil {
		return f.LockSlateFunc(ctx, db, slateID)
	}
	return f.GetSlate(ctx, db, slateID)
}

func (f *FakeRepository) SetSlateCompleteness(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID, complete bool, completedAt *time.Time) error {
	f.record("SetSlateCompleteness")
	if f.SetSlateCompletenessFunc != nil {
		return f.SetSlateCompletenessFunc(ctx, db, slateID, complete, completedAt)
	}
	slate, ok := f.Slates[slateID]
	if !ok {
		return standingsdb.ErrSlateNotFound
	}
	slate.IsComplete = complete
	slate.CompletedAt = completedAt
	return nil
}

func (f *FakeRepository) CountOutcomes(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (standingsdb.OutcomeCounts, error) {
	f.record("CountOutcomes")
	if f.CountOutcomesFunc != nil {
		return f.CountOutcomesFunc(ctx, db, slateID)
	}
	var counts standingsdb.OutcomeCounts
	for _, game := range f.Games {
		if game.SlateID != slateID {
			continue
		}
		counts.Games++
		if game.Winner != nil {
			counts.ResolvedGames++
		}
	}
	for _, prop := range f.PropBets {
		game, ok := f.Games[prop.GameID]
		if !ok || game.SlateID != slateID {
			continue
		}
		counts.PropBets++
		if prop.CorrectAnswer != nil {
			counts.ResolvedProps++
		}
	}
	return counts, nil
}

func (f *FakeRepository) GetSlateWeek(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (sharedtypes.Week, error) {
	f.record("GetSlateWeek")
	if f.GetSlateWeekFunc != nil {
		return f.GetSlateWeekFunc(ctx, db, slateID)
	}
	var week sharedtypes.Week
	for _, game := range f.Games {
		if game.SlateID == slateID && (week == 0 || game.Week < week) {
			week = game.Week
		}
	}
	return week, nil
}

func (f *FakeRepository) CorrectCounts(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) (map[sharedtypes.UserID]standingsdb.CorrectCounts, error) {
	f.record("CorrectCounts")
	if f.CorrectCountsFunc != nil {
		return f.CorrectCountsFunc(ctx, db, slateID)
	}
	counts := make(map[sharedtypes.UserID]standingsdb.CorrectCounts)
	for _, pick := range f.Picks {
		game, ok := f.Games[pick.GameID]
		if !ok || game.SlateID != slateID {
			continue
		}
		entry := counts[pick.UserID]
		entry.UserID = pick.UserID
		if pick.IsCorrect != nil && *pick.IsCorrect {
			entry.Moneyline++
		}
		counts[pick.UserID] = entry
	}
	for _, pick := range f.PropPicks {
		prop, ok := f.PropBets[pick.PropBetID]
		if !ok {
			continue
		}
		game, ok := f.Games[prop.GameID]
		if !ok || game.SlateID != slateID {
			continue
		}
		entry := counts[pick.UserID]
		entry.UserID = pick.UserID
		if pick.IsCorrect != nil && *pick.IsCorrect {
			entry.Prop++
		}
		counts[pick.UserID] = entry
	}
	return counts, nil
}

func (f *FakeRepository) PredictorIDs(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) ([]sharedtypes.UserID, error) {
	f.record("PredictorIDs")
	if f.PredictorIDsFunc != nil {
		return f.PredictorIDsFunc(ctx, db, slateID)
	}
	seen := make(map[sharedtypes.UserID]struct{})
	for _, pick := range f.Picks {
		if game, ok := f.Games[pick.GameID]; ok && game.SlateID == slateID {
			seen[pick.UserID] = struct{}{}
		}
	}
	for _, pick := range f.PropPicks {
		prop, ok := f.PropBets[pick.PropBetID]
		if !ok {
			continue
		}
		if game, ok := f.Games[prop.GameID]; ok && game.SlateID == slateID {
			seen[pick.UserID] = struct{}{}
		}
	}
	return sortedUserIDs(seen), nil
}

func (f *FakeRepository) EligibleUserIDs(ctx context.Context, db bun.IDB, cohort *string) ([]sharedtypes.UserID, error) {
	f.record("EligibleUserIDs")
	if f.EligibleUserIDsFunc != nil {
		return f.EligibleUserIDsFunc(ctx, db, cohort)
	}
	var ids []sharedtypes.UserID
	for _, member := range f.Roster {
		if !member.IsEligible {
			continue
		}
		if cohort != nil && member.Cohort != *cohort {
			continue
		}
		ids = append(ids, member.UserID)
	}
	slices.Sort(ids)
	return ids, nil
}

func (f *FakeRepository) GetStatsForSlate(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) ([]standingsdb.UserSlateStat, error) {
	f.record("GetStatsForSlate")
	if f.GetStatsForSlateFunc != nil {
		return f.GetStatsForSlateFunc(ctx, db, slateID)
	}
	var stats []standingsdb.UserSlateStat
	for _, stat := range f.Stats[slateID] {
		stats = append(stats, *stat)
	}
	slices.SortFunc(stats, func(a, b standingsdb.UserSlateStat) int {
		if a.SeasonPoints != b.SeasonPoints {
			return int(b.SeasonPoints - a.SeasonPoints)
		}
		return strings.Compare(string(a.UserID), string(b.UserID))
	})
	return stats, nil
}

func (f *FakeRepository) ParticipantIDsForSlate(ctx context.Context, db bun.IDB, slateID sharedtypes.SlateID) ([]sharedtypes.UserID, error) {
	f.record("ParticipantIDsForSlate")
	seen := make(map[sharedtypes.UserID]struct{})
	for userID := range f.Stats[slateID] {
		seen[userID] = struct{}{}
	}
	return sortedUserIDs(seen), nil
}

func (f *FakeRepository) SeasonParticipantIDs(ctx context.Context, db bun.IDB, seasonID sharedtypes.SeasonID, excludeSlateID sharedtypes.SlateID) ([]sharedtypes.UserID, error) {
	f.record("SeasonParticipantIDs")
	seen := make(map[sharedtypes.UserID]struct{})
	for slateID, users := range f.Stats {
		if slateID == excludeSlateID {
			continue
		}
		slate, ok := f.Slates[slateID]
		if !ok || slate.SeasonID != seasonID {
			continue
		}
		for userID := range users {
			seen[userID] = struct{}{}
		}
	}
	return sortedUserIDs(seen), nil
}

func (f *FakeRepository) UpsertStats(ctx context.Context, db bun.IDB, stats []*standingsdb.UserSlateStat) error {
	f.record("UpsertStats")
	f.UpsertedRows += len(stats)
	if f.UpsertStatsFunc != nil {
		return f.UpsertStatsFunc(ctx, db, stats)
	}
	for _, stat := range stats {
		rows, ok := f.Stats[stat.SlateID]
		if !ok {
			rows = make(map[sharedtypes.UserID]*standingsdb.UserSlateStat)
			f.Stats[stat.SlateID] = rows
		}
		existing, ok := rows[stat.UserID]
		if !ok {
			copied := *stat
			copied.UpdatedAt = time.Now()
			rows[stat.UserID] = &copied
			continue
		}
		existing.MoneylineCorrect = stat.MoneylineCorrect
		existing.PropCorrect = stat.PropCorrect
		existing.SlatePoints = stat.SlatePoints
		existing.SeasonPoints = stat.SeasonPoints
		existing.UpdatedAt = time.Now()
	}
	return nil
}

func (f *FakeRepository) ApplyForwardDelta(ctx context.Context, db bun.IDB, userID sharedtypes.UserID, delta sharedtypes.Points, slateIDs []sharedtypes.SlateID) error {
	f.record("ApplyForwardDelta")
	f.ForwardDeltaCalls++
	if f.ApplyForwardDeltaFunc != nil {
		return f.ApplyForwardDeltaFunc(ctx, db, userID, delta, slateIDs)
	}
	for _, slateID := range slateIDs {
		if stat, ok := f.Stats[slateID][userID]; ok {
			stat.SeasonPoints += delta
		}
	}
	return nil
}

func (f *FakeRepository) UpdateRanks(ctx context.Context, db bun.IDB, stats []*standingsdb.UserSlateStat) error {
	f.record("UpdateRanks")
	if f.UpdateRanksFunc != nil {
		return f.UpdateRanksFunc(ctx, db, stats)
	}
	for _, stat := range stats {
		if existing, ok := f.Stats[stat.SlateID][stat.UserID]; ok {
			existing.Rank = stat.Rank
			existing.RankChange = stat.RankChange
		}
	}
	return nil
}

func (f *FakeRepository) GetUserRankHistory(ctx context.Context, db bun.IDB, seasonID sharedtypes.SeasonID, userID sharedtypes.UserID) ([]standingsdb.RankHistoryEntry, error) {
	f.record("GetUserRankHistory")
	if f.GetUserRankHistoryFunc != nil {
		return f.GetUserRankHistoryFunc(ctx, db, seasonID, userID)
	}
	slates, err := f.ListSeasonSlates(ctx, db, seasonID)
	if err != nil {
		return nil, err
	}
	var history []standingsdb.RankHistoryEntry
	for _, slate := range slates {
		if stat, ok := f.Stats[slate.ID][userID]; ok {
			history = append(history, standingsdb.RankHistoryEntry{
				SlateID: slate.ID,
				Date:    slate.Date,
				Rank:    stat.Rank,
			})
		}
	}
	return history, nil
}

func sortedUserIDs(seen map[sharedtypes.UserID]struct{}) []sharedtypes.UserID {
	ids := make([]sharedtypes.UserID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Ensure the fake actually satisfies the interface
var _ standingsdb.Repository = (*FakeRepository)(nil)

// ------------------------
// Fake Event Bus
// ------------------------

type publishedMessage struct {
	Topic   string
	Payload any
}

// FakeEventBus records published messages.
type FakeEventBus struct {
	mu        sync.Mutex
	Published []publishedMessage

	PublishFunc func(ctx context.Context, topic string, payload any) error
}

func (f *FakeEventBus) Publish(ctx context.Context, topic string, payload any) error {
	if f.PublishFunc != nil {
		return f.PublishFunc(ctx, topic, payload)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Published = append(f.Published, publishedMessage{Topic: topic, Payload: payload})
	return nil
}

func (f *FakeEventBus) PublishedTopics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	topics := make([]string, len(f.Published))
	for i, msg := range f.Published {
		topics[i] = msg.Topic
	}
	return topics
}

func (f *FakeEventBus) Subscriber() message.Subscriber { return nil }

func (f *FakeEventBus) Publisher() message.Publisher { return nil }

func (f *FakeEventBus) KeyValue(ctx context.Context, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	return nil, jetstream.ErrBucketNotFound
}

func (f *FakeEventBus) Close() error { return nil }

var _ eventbus.EventBus = (*FakeEventBus)(nil)

// ------------------------
// Fake Key-Value Store
// ------------------------

// FakeKeyValueStore is an in-memory KeyValueStore. No TTL expiry: keys
// stay until deleted, which is what guard tests need to see contention.
type FakeKeyValueStore struct {
	mu       sync.Mutex
	values   map[string][]byte
	revision uint64

	CreateFunc func(ctx context.Context, key string, value []byte) (uint64, error)
}

func NewFakeKeyValueStore() *FakeKeyValueStore {
	return &FakeKeyValueStore{values: make(map[string][]byte)}
}

func (f *FakeKeyValueStore) Create(ctx context.Context, key string, value []byte) (uint64, error) {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, key, value)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; ok {
		return 0, jetstream.ErrKeyExists
	}
	f.values[key] = value
	f.revision++
	return f.revision, nil
}

func (f *FakeKeyValueStore) Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.values[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	return &fakeKVEntry{key: key, value: value, revision: f.revision}, nil
}

func (f *FakeKeyValueStore) Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

// Put is a test helper for seeding a lease held by another owner.
func (f *FakeKeyValueStore) Put(key string, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}

var _ KeyValueStore = (*FakeKeyValueStore)(nil)

type fakeKVEntry struct {
	key      string
	value    []byte
	revision uint64
}

func (e *fakeKVEntry) Bucket() string                  { return "fake" }
func (e *fakeKVEntry) Key() string                     { return e.key }
func (e *fakeKVEntry) Value() []byte                   { return e.value }
func (e *fakeKVEntry) Revision() uint64                { return e.revision }
func (e *fakeKVEntry) Created() time.Time              { return time.Time{} }
func (e *fakeKVEntry) Delta() uint64                   { return 0 }
func (e *fakeKVEntry) Operation() jetstream.KeyValueOp { return jetstream.KeyValuePut }

var _ jetstream.KeyValueEntry = (*fakeKVEntry)(nil)
