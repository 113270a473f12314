package collection

import (
	"context"
	"encoding/json/v2"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/errors"
	"github.com/gameshelf/gameshelf-server/internal/sse"
	"github.com/gameshelf/gameshelf-server/internal/storage"
)

var testNow = time.Date(2026, 10, 18, 9, 30, 15, 123_000_000, time.UTC)

// countingAdapter wraps a memory adapter, counts writes and can be told to fail them.
type countingAdapter struct {
	*storage.Memory
	writes  atomic.Int32
	failSet atomic.Bool
}

func newCountingAdapter() *countingAdapter {
	return &countingAdapter{Memory: storage.NewMemory()}
}

func (a *countingAdapter) Set(ctx context.Context, key string, value []byte) error {
	if a.failSet.Load() {
		return stderrors.New("quota exceeded")
	}
	a.writes.Add(1)
	return a.Memory.Set(ctx, key, value)
}

// recordingEmitter keeps every emitted event.
type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(event sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEmitter) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, adapter storage.Adapter, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{
		WithLogger(discardLogger()),
		WithClock(func() time.Time { return testNow }),
	}, opts...)
	s, err := New(context.Background(), adapter, opts...)
	require.NoError(t, err)
	return s
}

func gameA() domain.Game {
	return domain.Game{ID: 5, Name: "Game A", Playtime: 3}
}

func TestAdd_EmptyStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemory())

	entry, added, err := s.Add(ctx, gameA())
	require.NoError(t, err)
	assert.True(t, added)

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, entry, list[0])
	assert.Equal(t, 5, list[0].ID)
	assert.Equal(t, "Game A", list[0].Name)
	assert.Equal(t, domain.StatusToPlay, list[0].Status)
	assert.Equal(t, 3, list[0].Playtime)
	assert.Equal(t, testNow, list[0].AddedAt)
}

func TestAdd_PlaytimeDefaultsToZero(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())

	entry, _, err := s.Add(context.Background(), domain.Game{ID: 1, Name: "No Playtime"})
	require.NoError(t, err)
	assert.Equal(t, 0, entry.Playtime)
}

func TestAdd_DuplicateIsNoop(t *testing.T) {
	ctx := context.Background()
	adapter := newCountingAdapter()
	s := newTestStore(t, adapter)

	first, added, err := s.Add(ctx, gameA())
	require.NoError(t, err)
	require.True(t, added)

	refreshed := gameA()
	refreshed.Name = "Game A (Remastered)"
	second, added, err := s.Add(ctx, refreshed)
	require.NoError(t, err)

	assert.False(t, added)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "Game A", s.List()[0].Name)
	assert.Equal(t, int32(1), adapter.writes.Load())
}

func TestAdd_RejectsInvalidID(t *testing.T) {
	adapter := newCountingAdapter()
	s := newTestStore(t, adapter)

	for _, id := range []int{0, -1} {
		_, _, err := s.Add(context.Background(), domain.Game{ID: id, Name: "Bad"})
		assert.ErrorIs(t, err, errors.ErrValidation)
	}
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, int32(0), adapter.writes.Load())
}

func TestRemove_PreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemory())

	for _, id := range []int{5, 7, 9} {
		_, _, err := s.Add(ctx, domain.Game{ID: id, Name: fmt.Sprintf("Game %d", id)})
		require.NoError(t, err)
	}

	removed, err := s.Remove(ctx, 5)
	require.NoError(t, err)
	assert.True(t, removed)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, 7, list[0].ID)
	assert.Equal(t, 9, list[1].ID)
	assert.False(t, s.Contains(5))

	// Positions are rebuilt after removal.
	e, ok := s.Get(9)
	require.True(t, ok)
	assert.Equal(t, 9, e.ID)
}

func TestRemove_AbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	adapter := newCountingAdapter()
	s := newTestStore(t, adapter)
	_, _, err := s.Add(ctx, gameA())
	require.NoError(t, err)
	before := s.List()

	removed, err := s.Remove(ctx, 42)
	require.NoError(t, err)

	assert.False(t, removed)
	assert.Equal(t, before, s.List())
	assert.Equal(t, int32(1), adapter.writes.Load())
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemory())
	_, _, err := s.Add(ctx, gameA())
	require.NoError(t, err)

	for _, status := range domain.AllStatuses() {
		t.Run(string(status), func(t *testing.T) {
			entry, err := s.UpdateStatus(ctx, 5, status)
			require.NoError(t, err)
			assert.Equal(t, status, entry.Status)

			got, ok := s.Get(5)
			require.True(t, ok)
			assert.Equal(t, status, got.Status)
		})
	}
}

func TestUpdateStatus_InvalidLeavesEntry(t *testing.T) {
	ctx := context.Background()
	adapter := newCountingAdapter()
	s := newTestStore(t, adapter)
	_, _, err := s.Add(ctx, gameA())
	require.NoError(t, err)

	_, err = s.UpdateStatus(ctx, 5, domain.Status("wishlist"))
	assert.ErrorIs(t, err, errors.ErrValidation)

	got, _ := s.Get(5)
	assert.Equal(t, domain.StatusToPlay, got.Status)
	assert.Equal(t, int32(1), adapter.writes.Load())
}

func TestUpdateStatus_AbsentID(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())

	_, err := s.UpdateStatus(context.Background(), 5, domain.StatusCompleted)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestUpdateStatus_SameStatusSkipsWrite(t *testing.T) {
	ctx := context.Background()
	adapter := newCountingAdapter()
	s := newTestStore(t, adapter)
	_, _, err := s.Add(ctx, gameA())
	require.NoError(t, err)

	entry, err := s.UpdateStatus(ctx, 5, domain.StatusToPlay)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusToPlay, entry.Status)
	assert.Equal(t, int32(1), adapter.writes.Load())
}

func TestUpdatePlaytime(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemory())
	_, _, err := s.Add(ctx, gameA())
	require.NoError(t, err)

	entry, err := s.UpdatePlaytime(ctx, 5, 25)
	require.NoError(t, err)
	assert.Equal(t, 25, entry.Playtime)

	_, err = s.UpdatePlaytime(ctx, 5, -1)
	assert.ErrorIs(t, err, errors.ErrValidation)

	got, _ := s.Get(5)
	assert.Equal(t, 25, got.Playtime)

	_, err = s.UpdatePlaytime(ctx, 99, 1)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestAddedAt_ImmutableAcrossUpdates(t *testing.T) {
	ctx := context.Background()
	clock := testNow
	s := newTestStore(t, storage.NewMemory(), WithClock(func() time.Time { return clock }))

	added, _, err := s.Add(ctx, gameA())
	require.NoError(t, err)

	clock = clock.Add(72 * time.Hour)
	_, err = s.UpdateStatus(ctx, 5, domain.StatusPlaying)
	require.NoError(t, err)
	_, err = s.UpdatePlaytime(ctx, 5, 12)
	require.NoError(t, err)

	got, _ := s.Get(5)
	assert.Equal(t, added.AddedAt, got.AddedAt)
}

func TestAddedAt_MillisecondPrecisionUTC(t *testing.T) {
	local := time.Date(2026, 10, 18, 11, 30, 15, 123_456_789, time.FixedZone("CEST", 2*3600))
	s := newTestStore(t, storage.NewMemory(), WithClock(func() time.Time { return local }))

	entry, _, err := s.Add(context.Background(), gameA())
	require.NoError(t, err)

	assert.Equal(t, time.UTC, entry.AddedAt.Location())
	assert.Equal(t, 123_000_000, entry.AddedAt.Nanosecond())
	assert.True(t, entry.AddedAt.Equal(local.Truncate(time.Millisecond)))
}

func TestRoundTrip_FreshStoreSeesSameList(t *testing.T) {
	ctx := context.Background()
	adapter := storage.NewMemory()
	s := newTestStore(t, adapter)

	games := []domain.Game{
		{
			ID: 3498, Name: "Grand Theft Auto V", Slug: "grand-theft-auto-v",
			BackgroundImage: "https://media.rawg.io/media/games/gtav.jpg",
			Rating:          4.47, Metacritic: 92, Released: "2013-09-17", Playtime: 74,
			Genres:     []domain.Ref{{ID: 4, Name: "Action", Slug: "action"}},
			Platforms:  []domain.Ref{{ID: 4, Name: "PC", Slug: "pc"}},
			Developers: []domain.Ref{{ID: 3524, Name: "Rockstar North"}},
		},
		{ID: 5, Name: "Game A", Playtime: 3},
		{ID: 7, Name: "Game B"},
	}
	for _, g := range games {
		_, _, err := s.Add(ctx, g)
		require.NoError(t, err)
	}
	_, err := s.UpdateStatus(ctx, 5, domain.StatusAbandoned)
	require.NoError(t, err)

	fresh := newTestStore(t, adapter)
	assert.Equal(t, s.List(), fresh.List())
}

func TestSnapshot_FieldNames(t *testing.T) {
	ctx := context.Background()
	adapter := storage.NewMemory()
	s := newTestStore(t, adapter)

	_, _, err := s.Add(ctx, domain.Game{
		ID: 5, Name: "Game A", BackgroundImage: "https://example.com/a.jpg", Playtime: 3,
		Genres: []domain.Ref{{ID: 1, Name: "Indie"}},
	})
	require.NoError(t, err)

	raw, err := adapter.Get(ctx, DefaultKey)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)

	assert.Equal(t, float64(5), decoded[0]["id"])
	assert.Equal(t, "https://example.com/a.jpg", decoded[0]["backgroundImage"])
	assert.Equal(t, "to_play", decoded[0]["status"])
	assert.Equal(t, "2026-10-18T09:30:15.123Z", decoded[0]["addedAt"])
	assert.Equal(t, float64(3), decoded[0]["playtime"])
	assert.NotContains(t, decoded[0], "metacritic")
}

func TestHydrate_Fallbacks(t *testing.T) {
	tests := []struct {
		name     string
		snapshot string
	}{
		{"object instead of array", `{"id":5}`},
		{"string", `"hello"`},
		{"truncated", `[{"id":5,"name":"Game A"`},
		{"not json", `not json at all`},
		{"empty value", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := storage.NewMemory()
			require.NoError(t, adapter.Set(context.Background(), DefaultKey, []byte(tt.snapshot)))

			s, err := New(context.Background(), adapter, WithLogger(discardLogger()))
			require.NoError(t, err)
			assert.Empty(t, s.List())
		})
	}
}

func TestHydrate_MissingKey(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())
	assert.Empty(t, s.List())
	assert.NotNil(t, s.List())
}

func TestHydrate_RepairsDamagedEntries(t *testing.T) {
	ctx := context.Background()
	adapter := storage.NewMemory()
	snapshot := `[
		{"id":5,"name":"Game A","status":"to_play","addedAt":"2024-01-02T03:04:05.000Z","playtime":3},
		{"id":0,"name":"No id","status":"playing","addedAt":"2024-01-02T03:04:05.000Z","playtime":1},
		{"id":5,"name":"Duplicate","status":"completed","addedAt":"2024-01-02T03:04:05.000Z","playtime":9},
		{"id":7,"name":"Bad status","status":"wishlist","addedAt":"2024-01-02T03:04:05.000Z","playtime":-4},
		{"id":"eight","name":"Wrong type"},
		42,
		{"id":9,"name":"Game C","status":"completed","addedAt":"2024-01-02T03:04:05.000Z","playtime":10,"extra":"ignored"},
		{"id":10,"name":"Fractional","status":"playing","addedAt":"2024-01-02T03:04:05.000Z","playtime":2.5},
		{"id":11,"name":"Date only","status":"playing","addedAt":"2024-01-01","playtime":4},
		{"id":12,"name":"No addedAt","status":"playing","playtime":6}
	]`
	require.NoError(t, adapter.Set(ctx, DefaultKey, []byte(snapshot)))

	s := newTestStore(t, adapter)
	list := s.List()

	ids := make([]int, 0, len(list))
	for _, e := range list {
		ids = append(ids, e.ID)
	}
	require.Equal(t, []int{5, 7, 9, 10, 11, 12}, ids)
	assert.Equal(t, "Game A", list[0].Name)
	assert.Equal(t, domain.StatusToPlay, list[1].Status)
	assert.Equal(t, 0, list[1].Playtime)
	assert.Equal(t, domain.StatusCompleted, list[2].Status)
	assert.Equal(t, 2, list[3].Playtime)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), list[4].AddedAt)
	assert.Equal(t, testNow.UTC().Truncate(time.Millisecond), list[5].AddedAt)

	// The repaired entries are what the next write persists.
	_, err := s.UpdateStatus(ctx, 5, domain.StatusPlaying)
	require.NoError(t, err)
	reopened := newTestStore(t, adapter, WithClock(func() time.Time { return testNow.Add(time.Hour) }))
	require.Len(t, reopened.List(), 6)
	got, ok := reopened.Get(12)
	require.True(t, ok)
	assert.Equal(t, testNow.UTC().Truncate(time.Millisecond), got.AddedAt)
	got, ok = reopened.Get(10)
	require.True(t, ok)
	assert.Equal(t, 2, got.Playtime)
}

func TestHydrate_AdapterFailure(t *testing.T) {
	_, err := New(context.Background(), failingGetAdapter{Memory: storage.NewMemory()}, WithLogger(discardLogger()))
	assert.Error(t, err)
}

type failingGetAdapter struct{ *storage.Memory }

func (failingGetAdapter) Get(context.Context, string) ([]byte, error) {
	return nil, stderrors.New("disk on fire")
}

func TestPersistFailure_RollsBack(t *testing.T) {
	ctx := context.Background()
	adapter := newCountingAdapter()
	emitter := &recordingEmitter{}
	s := newTestStore(t, adapter, WithEmitter(emitter))

	_, _, err := s.Add(ctx, gameA())
	require.NoError(t, err)
	before := s.List()
	adapter.failSet.Store(true)

	_, _, err = s.Add(ctx, domain.Game{ID: 7, Name: "Game B"})
	assert.ErrorIs(t, err, errors.ErrPersistence)

	_, err = s.UpdateStatus(ctx, 5, domain.StatusCompleted)
	assert.ErrorIs(t, err, errors.ErrPersistence)

	_, err = s.UpdatePlaytime(ctx, 5, 100)
	assert.ErrorIs(t, err, errors.ErrPersistence)

	removed, err := s.Remove(ctx, 5)
	assert.ErrorIs(t, err, errors.ErrPersistence)
	assert.False(t, removed)

	assert.Equal(t, before, s.List())
	assert.False(t, s.Contains(7))

	// Memory and storage still agree.
	adapter.failSet.Store(false)
	fresh := newTestStore(t, adapter)
	assert.Equal(t, before, fresh.List())

	// Only the successful add was announced.
	assert.Equal(t, []sse.EventType{sse.EventEntryAdded}, emitter.types())
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	emitter := &recordingEmitter{}
	s := newTestStore(t, storage.NewMemory(), WithEmitter(emitter))

	_, _, err := s.Add(ctx, gameA())
	require.NoError(t, err)
	_, _, err = s.Add(ctx, gameA())
	require.NoError(t, err)
	_, err = s.UpdateStatus(ctx, 5, domain.StatusPlaying)
	require.NoError(t, err)
	_, err = s.UpdatePlaytime(ctx, 5, 4)
	require.NoError(t, err)
	_, err = s.Remove(ctx, 5)
	require.NoError(t, err)

	assert.Equal(t, []sse.EventType{
		sse.EventEntryAdded,
		sse.EventEntryUpdated,
		sse.EventEntryUpdated,
		sse.EventEntryRemoved,
	}, emitter.types())

	data, ok := emitter.events[1].Data.(sse.EntryEventData)
	require.True(t, ok)
	assert.Equal(t, "status", data.Field)
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	adapter := storage.NewMemory()
	emitter := &recordingEmitter{}
	s := newTestStore(t, adapter, WithEmitter(emitter))

	_, _, err := s.Add(ctx, gameA())
	require.NoError(t, err)

	t.Run("unchanged bytes do nothing", func(t *testing.T) {
		changed, err := s.Reload(ctx)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("external edit replaces the collection", func(t *testing.T) {
		edited := `[{"id":7,"name":"Game B","status":"playing","addedAt":"2025-05-05T05:05:05.000Z","playtime":2}]`
		require.NoError(t, adapter.Set(ctx, DefaultKey, []byte(edited)))

		changed, err := s.Reload(ctx)
		require.NoError(t, err)
		assert.True(t, changed)

		list := s.List()
		require.Len(t, list, 1)
		assert.Equal(t, 7, list[0].ID)
		assert.Equal(t, domain.StatusPlaying, list[0].Status)
		assert.Contains(t, emitter.types(), sse.EventCollectionReloaded)
	})

	t.Run("corrupt snapshot keeps memory", func(t *testing.T) {
		require.NoError(t, adapter.Set(ctx, DefaultKey, []byte(`{broken`)))

		changed, err := s.Reload(ctx)
		assert.ErrorIs(t, err, ErrCorruptSnapshot)
		assert.False(t, changed)
		assert.True(t, s.Contains(7))
	})
}

func TestListByStatusAndStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemory())

	for _, g := range []domain.Game{
		{ID: 1, Name: "A", Playtime: 10},
		{ID: 2, Name: "B", Playtime: 5},
		{ID: 3, Name: "C"},
	} {
		_, _, err := s.Add(ctx, g)
		require.NoError(t, err)
	}
	_, err := s.UpdateStatus(ctx, 1, domain.StatusCompleted)
	require.NoError(t, err)
	_, err = s.UpdateStatus(ctx, 3, domain.StatusCompleted)
	require.NoError(t, err)

	completed := s.ListByStatus(domain.StatusCompleted)
	require.Len(t, completed, 2)
	assert.Equal(t, 1, completed[0].ID)
	assert.Equal(t, 3, completed[1].ID)
	assert.Empty(t, s.ListByStatus(domain.StatusAbandoned))

	stats := s.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 15, stats.TotalPlaytime)
	assert.Equal(t, 2, stats.ByStatus[domain.StatusCompleted])
	assert.Equal(t, 1, stats.ByStatus[domain.StatusToPlay])
}

func TestQueries_ReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemory())
	_, _, err := s.Add(ctx, domain.Game{ID: 1, Name: "A", Genres: []domain.Ref{{ID: 4, Name: "Action"}}})
	require.NoError(t, err)

	list := s.List()
	list[0].Name = "mutated"
	list[0].Genres[0].Name = "mutated"

	got, _ := s.Get(1)
	assert.Equal(t, "A", got.Name)
	assert.Equal(t, "Action", got.Genres[0].Name)
}

func TestConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	adapter := storage.NewMemory()
	s := newTestStore(t, adapter)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			_, _, _ = s.Add(ctx, domain.Game{ID: id, Name: fmt.Sprintf("Game %d", id)})
		}(i)
		go func() {
			defer wg.Done()
			_ = s.List()
			_ = s.Stats()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())

	fresh := newTestStore(t, adapter)
	assert.Equal(t, s.List(), fresh.List())
}

func TestWithKey(t *testing.T) {
	ctx := context.Background()
	adapter := storage.NewMemory()
	s := newTestStore(t, adapter, WithKey("otherKey"))

	_, _, err := s.Add(ctx, gameA())
	require.NoError(t, err)

	_, err = adapter.Get(ctx, "otherKey")
	require.NoError(t, err)
	_, err = adapter.Get(ctx, DefaultKey)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
	assert.Equal(t, "otherKey", s.Key())
}
