package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const DefaultDailyLimit = 100

// Decision is the outcome of a quota check.
type Decision struct {
	LimitReached bool
	Count        int
	Limit        int
}

// Info is the client-facing usage line, e.g. "Queries today: 3/100".
func (d Decision) Info() string {
	return fmt.Sprintf("Queries today: %d/%d", d.Count, d.Limit)
}

type TrackerOption func(*Tracker)

// WithClock overrides time.Now, mainly for tests crossing midnight.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		t.now = now
	}
}

func WithLogger(log *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		t.log = log
	}
}

// Tracker enforces the per-day limit on top of a Store. Calls are serialized
// within the process; separate processes sharing a store still race.
type Tracker struct {
	mu    sync.Mutex
	store Store
	limit int
	now   func() time.Time
	log   *slog.Logger
}

func NewTracker(store Store, limit int, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store: store,
		limit: limit,
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CheckAndConsume counts one query against today's quota. When the quota is
// already exhausted nothing is persisted.
func (t *Tracker) CheckAndConsume(ctx context.Context) (Decision, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := t.today()
	record := t.current(ctx, today)
	if record.Count >= t.limit {
		return Decision{LimitReached: true, Count: record.Count, Limit: t.limit}, nil
	}

	record.Count++
	if err := t.store.Save(ctx, record); err != nil {
		return Decision{}, fmt.Errorf("persist usage: %w", err)
	}
	return Decision{Count: record.Count, Limit: t.limit}, nil
}

// Peek reports today's state without consuming a query.
func (t *Tracker) Peek(ctx context.Context) Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	record := t.current(ctx, t.today())
	return Decision{
		LimitReached: record.Count >= t.limit,
		Count:        record.Count,
		Limit:        t.limit,
	}
}

// Reset zeroes today's count.
func (t *Tracker) Reset(ctx context.Context) (Decision, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record := Record{Date: t.today()}
	if err := t.store.Save(ctx, record); err != nil {
		return Decision{}, fmt.Errorf("reset usage: %w", err)
	}
	return Decision{Count: 0, Limit: t.limit}, nil
}

func (t *Tracker) today() string {
	return t.now().Format(dateLayout)
}

// current loads the stored record, falling back to a fresh one for today
// when it is missing, unreadable, or from another day.
func (t *Tracker) current(ctx context.Context, today string) Record {
	record, err := t.store.Load(ctx)
	switch {
	case errors.Is(err, ErrNoRecord):
		return Record{Date: today}
	case err != nil:
		t.log.Warn("usage record unreadable, starting fresh", "err", err)
		return Record{Date: today}
	case record.Date != today:
		return Record{Date: today}
	}
	return record
}
