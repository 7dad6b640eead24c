// Package timeline reconstructs a gap-free, non-overlapping sequence of
// time segments for a day from the raw lifecycle event stream.
//
// The sweep keeps a cursor and the current foreground app, closes one
// interval per event, clamps each interval to the requested window, and
// classifies it at emission time. Sessions that began before the window
// (for example before midnight) are attributed from the window start via
// clamping, which is why queries look back beyond the window.
package timeline

import (
	"context"
	"fmt"
	"time"

	"flowday/internal/usage"
)

const (
	// Lookback is how far before the window events are queried, so a
	// session still open at the window start is seen by the sweep.
	Lookback = 2 * time.Hour

	// ghostCap is the longest a single uninterrupted foreground
	// interval is trusted. Anything longer means the event source
	// failed to emit a closing event; the interval is downgraded to
	// Rest instead of charging the user for a measurement artifact.
	ghostCap = 180 * time.Minute
)

// EventSource supplies raw lifecycle events ordered by timestamp
// ascending within [start, end].
type EventSource interface {
	Query(ctx context.Context, start, end time.Time) ([]usage.RawEvent, error)
}

// ClassificationStore supplies the current per-app user categories.
type ClassificationStore interface {
	GetAll(ctx context.Context) (map[string]usage.AppCategory, error)
}

// Builder reconstructs day timelines from an event source and the
// current classification map. It holds no mutable state and is safe for
// concurrent use; each call re-reads classifications so user changes are
// picked up immediately.
type Builder struct {
	source EventSource
	store  ClassificationStore
	now    func() time.Time
}

// NewBuilder creates a timeline builder.
func NewBuilder(source EventSource, store ClassificationStore) *Builder {
	return &Builder{source: source, store: store, now: time.Now}
}

// SetClock overrides the builder's clock. Tests use this to pin "now".
func (b *Builder) SetClock(now func() time.Time) {
	b.now = now
}

// Day reconstructs the timeline for the calendar day containing date.
// Today's window is truncated at the current time, not at midnight.
func (b *Builder) Day(ctx context.Context, date time.Time) ([]usage.TimeSegment, error) {
	y, m, d := date.Date()
	windowStart := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	windowEnd := windowStart.AddDate(0, 0, 1)
	if now := b.now(); windowEnd.After(now) {
		windowEnd = now
	}
	if !windowEnd.After(windowStart) {
		return nil, fmt.Errorf("window for %s is empty", windowStart.Format("2006-01-02"))
	}

	events, err := b.source.Query(ctx, windowStart.Add(-Lookback), windowEnd)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	configs, err := b.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read classifications: %w", err)
	}
	return BuildTimeline(windowStart, windowEnd, events, configs), nil
}

// AppUsage sums precise per-app foreground time for the calendar day
// containing date. Unlike the segment sweep it applies no ghost cap and
// no minute rounding; Rest time is simply absent from the map.
func (b *Builder) AppUsage(ctx context.Context, date time.Time) (map[string]time.Duration, error) {
	y, m, d := date.Date()
	windowStart := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	windowEnd := windowStart.AddDate(0, 0, 1)
	if now := b.now(); windowEnd.After(now) {
		windowEnd = now
	}

	events, err := b.source.Query(ctx, windowStart.Add(-Lookback), windowEnd)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return SumAppUsage(windowStart, windowEnd, events), nil
}

// BuildTimeline runs the interval sweep over events and returns the
// ordered segments covering exactly [windowStart, windowEnd). The event
// slice should begin at or before windowStart (callers query with
// Lookback) and be ordered by timestamp; an event behind the cursor
// contributes nothing and never produces a negative interval.
func BuildTimeline(windowStart, windowEnd time.Time, events []usage.RawEvent, configs map[string]usage.AppCategory) []usage.TimeSegment {
	var segments []usage.TimeSegment
	var nextID int64 = 1

	cursor := windowStart.Add(-Lookback)
	currentApp := ""

	emit := func(intervalEnd time.Time) {
		start := maxTime(cursor, windowStart)
		end := minTime(intervalEnd, windowEnd)
		if !end.After(start) {
			return
		}
		if seg, ok := makeSegment(start, end, currentApp, configs); ok {
			seg.ID = nextID
			nextID++
			segments = append(segments, seg)
		}
	}

	for _, ev := range events {
		emit(ev.Timestamp)

		switch ev.Kind {
		case usage.EventForeground:
			currentApp = ev.AppID
		case usage.EventBackground, usage.EventLock, usage.EventShutdown:
			currentApp = ""
		case usage.EventUnlock:
			// Unlocking alone implies no foreground app; only a
			// subsequent foreground event leaves Rest.
		}

		if ev.Timestamp.After(cursor) {
			cursor = ev.Timestamp
		}
	}

	// Tail: whatever state held from the last event to the window end.
	emit(windowEnd)

	return segments
}

// SumAppUsage aggregates per-app foreground time over the window using
// the same event sweep, without segmentation or classification.
func SumAppUsage(windowStart, windowEnd time.Time, events []usage.RawEvent) map[string]time.Duration {
	total := make(map[string]time.Duration)

	cursor := windowStart.Add(-Lookback)
	currentApp := ""

	add := func(intervalEnd time.Time) {
		if currentApp == "" {
			return
		}
		start := maxTime(cursor, windowStart)
		end := minTime(intervalEnd, windowEnd)
		if end.After(start) {
			total[currentApp] += end.Sub(start)
		}
	}

	for _, ev := range events {
		add(ev.Timestamp)

		switch ev.Kind {
		case usage.EventForeground:
			currentApp = ev.AppID
		case usage.EventBackground, usage.EventLock, usage.EventShutdown:
			currentApp = ""
		}

		if ev.Timestamp.After(cursor) {
			cursor = ev.Timestamp
		}
	}
	add(windowEnd)

	return total
}

// makeSegment builds one clamped segment. Intervals under one second
// are dropped as sub-second noise; anything at least one second long
// gets a one-minute floor so short true sessions are not lost.
func makeSegment(start, end time.Time, app string, configs map[string]usage.AppCategory) (usage.TimeSegment, bool) {
	raw := end.Sub(start)
	minutes := int64(raw / time.Minute)
	if minutes == 0 {
		if raw < time.Second {
			return usage.TimeSegment{}, false
		}
		minutes = 1
	}

	seg := usage.TimeSegment{
		Start:           start,
		End:             end,
		AppID:           app,
		DurationMinutes: minutes,
	}

	switch {
	case app == "":
		seg.Category = usage.TimeRest
	case raw > ghostCap:
		// Ghost session: keep the app and true duration but score it
		// as Rest. The whole interval is downgraded, not just the
		// excess.
		seg.Category = usage.TimeRest
	default:
		seg.Category = usage.Classify(app, configs[app])
	}
	return seg, true
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
