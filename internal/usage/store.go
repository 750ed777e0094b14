// Package usage tracks the flat daily query quota.
//
// A single Record (date, count) is kept by a Store. The Tracker loads it,
// resets it when the day changes, and either consumes one query or reports
// that the quota is exhausted.
package usage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const dateLayout = "2006-01-02"

var (
	// ErrNoRecord is returned by a Store that holds no record yet.
	ErrNoRecord = errors.New("usage record not found")
	// ErrCorruptRecord is returned when the stored record cannot be parsed.
	ErrCorruptRecord = errors.New("usage record is corrupt")
)

// Record is the persisted quota state.
type Record struct {
	Date  string
	Count int
}

// String renders the single-line file format "YYYY-MM-DD:count".
func (r Record) String() string {
	return r.Date + ":" + strconv.Itoa(r.Count)
}

// ParseRecord parses the single-line file format.
func ParseRecord(line string) (Record, error) {
	date, rawCount, ok := strings.Cut(strings.TrimSpace(line), ":")
	if !ok || strings.Contains(rawCount, ":") {
		return Record{}, fmt.Errorf("%w: %q", ErrCorruptRecord, line)
	}
	count, err := strconv.Atoi(strings.TrimSpace(rawCount))
	if err != nil || count < 0 {
		return Record{}, fmt.Errorf("%w: bad count %q", ErrCorruptRecord, rawCount)
	}
	return Record{Date: strings.TrimSpace(date), Count: count}, nil
}

// Store persists the one usage Record.
type Store interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, record Record) error
}
