// Package source provides the usage-event data plane: a JSONL event
// log recorded by the platform collector, and a live foreground query
// for the watchdog.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"flowday/internal/usage"
)

// ErrUnavailable means usage data cannot be read at all (no collector
// has ever written, or the log is unreadable). Callers must treat this
// differently from an empty result: "no data" is not "zero usage".
var ErrUnavailable = errors.New("usage data unavailable")

// EventLog is an append-only JSONL file of raw lifecycle events,
// one JSON object per line.
type EventLog struct {
	path string
	mu   sync.Mutex
}

// NewEventLog creates an event log rooted in the state directory.
func NewEventLog(statePath string) *EventLog {
	return &EventLog{path: filepath.Join(statePath, "events.jsonl")}
}

// Append writes one event to the log.
func (l *EventLog) Append(ev usage.RawEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// Query returns events with timestamps in [start, end], ordered by
// timestamp ascending. A log that has never been written returns
// ErrUnavailable, not an empty slice.
func (l *EventLog) Query(_ context.Context, start, end time.Time) ([]usage.RawEvent, error) {
	all, err := l.readAll()
	if err != nil {
		return nil, err
	}

	var out []usage.RawEvent
	for _, ev := range all {
		if ev.Timestamp.Before(start) || ev.Timestamp.After(end) {
			continue
		}
		out = append(out, ev)
	}
	// Collectors append in arrival order, which is already ascending,
	// but a restored or merged log may not be. Stable to preserve the
	// given order of equal timestamps.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Latest returns the newest event satisfying keep within the lookback
// window ending at now, or false if there is none.
func (l *EventLog) Latest(ctx context.Context, now time.Time, lookback time.Duration, keep func(usage.RawEvent) bool) (usage.RawEvent, bool, error) {
	events, err := l.Query(ctx, now.Add(-lookback), now)
	if err != nil {
		return usage.RawEvent{}, false, err
	}
	for i := len(events) - 1; i >= 0; i-- {
		if keep(events[i]) {
			return events[i], true, nil
		}
	}
	return usage.RawEvent{}, false, nil
}

func (l *EventLog) readAll() ([]usage.RawEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s has never been written", ErrUnavailable, l.path)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var events []usage.RawEvent
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var ev usage.RawEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue // skip malformed entries
		}
		events = append(events, ev)
	}
	return events, nil
}
