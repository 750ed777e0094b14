package usage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperdrift-io/whats-that-again/internal/logger"
	"github.com/hyperdrift-io/whats-that-again/internal/usage"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 16, 9, 30, 0, 0, time.Local)}
}

func newTracker(store usage.Store, limit int, clock *fakeClock) *usage.Tracker {
	return usage.NewTracker(store, limit, usage.WithClock(clock.Now), usage.WithLogger(logger.Nop()))
}

func TestTrackerReachesLimitOnCallAfterQuota(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := usage.NewMemoryStore()
	tracker := newTracker(store, usage.DefaultDailyLimit, newClock())

	for i := 1; i <= usage.DefaultDailyLimit; i++ {
		decision, err := tracker.CheckAndConsume(ctx)
		require.NoError(t, err)
		require.False(t, decision.LimitReached, "call %d should be allowed", i)
		require.Equal(t, i, decision.Count)
	}

	decision, err := tracker.CheckAndConsume(ctx)
	require.NoError(t, err)
	assert.True(t, decision.LimitReached)
	assert.Equal(t, "Queries today: 100/100", decision.Info())
	assert.Equal(t, usage.DefaultDailyLimit, store.Saves(), "limited call must not persist")

	decision, err = tracker.CheckAndConsume(ctx)
	require.NoError(t, err)
	assert.True(t, decision.LimitReached)
}

func TestTrackerInfoReflectsNewCount(t *testing.T) {
	t.Parallel()
	tracker := newTracker(usage.NewMemoryStore(), 100, newClock())

	decision, err := tracker.CheckAndConsume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Queries today: 1/100", decision.Info())
}

func TestTrackerResetsOnNewDay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := newClock()
	store := usage.NewMemoryStoreWith(usage.Record{Date: "2026-10-16", Count: 100})
	tracker := newTracker(store, 100, clock)

	decision, err := tracker.CheckAndConsume(ctx)
	require.NoError(t, err)
	require.True(t, decision.LimitReached)

	clock.now = clock.now.Add(24 * time.Hour)
	decision, err = tracker.CheckAndConsume(ctx)
	require.NoError(t, err)
	assert.False(t, decision.LimitReached)
	assert.Equal(t, 1, decision.Count)

	record, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, usage.Record{Date: "2026-10-17", Count: 1}, record)
}

func TestTrackerPeekDoesNotConsume(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := usage.NewMemoryStoreWith(usage.Record{Date: "2026-10-16", Count: 4})
	tracker := newTracker(store, 5, newClock())

	decision := tracker.Peek(ctx)
	assert.Equal(t, 4, decision.Count)
	assert.False(t, decision.LimitReached)
	assert.Zero(t, store.Saves())

	_, err := tracker.CheckAndConsume(ctx)
	require.NoError(t, err)
	assert.True(t, tracker.Peek(ctx).LimitReached)
}

func TestTrackerPeekOnStaleRecord(t *testing.T) {
	t.Parallel()
	store := usage.NewMemoryStoreWith(usage.Record{Date: "2026-10-01", Count: 99})
	tracker := newTracker(store, 100, newClock())

	assert.Equal(t, 0, tracker.Peek(context.Background()).Count)
}

func TestTrackerZeroLimitRejectsEverything(t *testing.T) {
	t.Parallel()
	store := usage.NewMemoryStore()
	tracker := newTracker(store, 0, newClock())

	decision, err := tracker.CheckAndConsume(context.Background())
	require.NoError(t, err)
	assert.True(t, decision.LimitReached)
	assert.Equal(t, "Queries today: 0/0", decision.Info())
	assert.Zero(t, store.Saves())
}

func TestTrackerTreatsCorruptFileAsFresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "usage_count.txt")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	tracker := newTracker(usage.NewFileStore(path), 100, newClock())
	decision, err := tracker.CheckAndConsume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, decision.Count)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-16:1", string(raw))
}

func TestTrackerSurfacesSaveFailure(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "missing-dir", "usage_count.txt")
	tracker := newTracker(usage.NewFileStore(path), 100, newClock())

	_, err := tracker.CheckAndConsume(context.Background())
	assert.Error(t, err)
}

func TestTrackerResetReopensQuota(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := usage.NewMemoryStoreWith(usage.Record{Date: "2026-10-16", Count: 100})
	tracker := newTracker(store, 100, newClock())
	require.True(t, tracker.Peek(ctx).LimitReached)

	decision, err := tracker.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Queries today: 0/100", decision.Info())

	record, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, usage.Record{Date: "2026-10-16", Count: 0}, record)

	next, err := tracker.CheckAndConsume(ctx)
	require.NoError(t, err)
	assert.False(t, next.LimitReached)
	assert.Equal(t, 1, next.Count)
}
