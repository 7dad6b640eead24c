package timeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"flowday/internal/usage"
)

var day = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func fg(t time.Time, app string) usage.RawEvent {
	return usage.RawEvent{Timestamp: t, Kind: usage.EventForeground, AppID: app}
}

func bg(t time.Time) usage.RawEvent {
	return usage.RawEvent{Timestamp: t, Kind: usage.EventBackground}
}

// checkCoverage verifies the core invariant: segments are ordered,
// non-overlapping, and their union is exactly [start, end).
func checkCoverage(t *testing.T, segments []usage.TimeSegment, start, end time.Time) {
	t.Helper()
	if len(segments) == 0 {
		t.Fatal("no segments returned")
	}
	if !segments[0].Start.Equal(start) {
		t.Errorf("first segment starts at %v, want %v", segments[0].Start, start)
	}
	if !segments[len(segments)-1].End.Equal(end) {
		t.Errorf("last segment ends at %v, want %v", segments[len(segments)-1].End, end)
	}
	for i, s := range segments {
		if !s.End.After(s.Start) {
			t.Errorf("segment %d has non-positive length: %v to %v", i, s.Start, s.End)
		}
		if i > 0 && !segments[i-1].End.Equal(s.Start) {
			t.Errorf("gap or overlap between segment %d (ends %v) and %d (starts %v)",
				i-1, segments[i-1].End, i, s.Start)
		}
	}
}

func TestEmptyDayIsAllRest(t *testing.T) {
	end := day.AddDate(0, 0, 1)
	segments := BuildTimeline(day, end, nil, nil)

	checkCoverage(t, segments, day, end)
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	s := segments[0]
	if s.Category != usage.TimeRest || s.AppID != "" {
		t.Errorf("empty day segment = %s app=%q, want rest with no app", s.Category, s.AppID)
	}
	if s.DurationMinutes != 24*60 {
		t.Errorf("empty day duration = %d minutes, want %d", s.DurationMinutes, 24*60)
	}
}

func TestConcreteScenario(t *testing.T) {
	// One distracting session 09:00-09:20 on an otherwise idle day.
	end := day.AddDate(0, 0, 1)
	configs := map[string]usage.AppCategory{"app.a": usage.CategoryDistracting}
	events := []usage.RawEvent{
		fg(at(9, 0), "app.a"),
		bg(at(9, 20)),
	}

	segments := BuildTimeline(day, end, events, configs)
	checkCoverage(t, segments, day, end)

	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d: %+v", len(segments), segments)
	}

	want := []struct {
		category usage.TimeCategory
		app      string
		minutes  int64
	}{
		{usage.TimeRest, "", 540},
		{usage.TimeFragmented, "app.a", 20},
		{usage.TimeRest, "", 880},
	}
	for i, w := range want {
		s := segments[i]
		if s.Category != w.category || s.AppID != w.app || s.DurationMinutes != w.minutes {
			t.Errorf("segment %d = %s/%q/%dm, want %s/%q/%dm",
				i, s.Category, s.AppID, s.DurationMinutes, w.category, w.app, w.minutes)
		}
	}
}

func TestSessionOpenAcrossWindowStart(t *testing.T) {
	// Session began at 23:30 the previous day and closed at 00:45.
	// The first segment must start at the window start, not at the
	// true session start.
	end := day.AddDate(0, 0, 1)
	configs := map[string]usage.AppCategory{"app.night": usage.CategoryDistracting}
	events := []usage.RawEvent{
		fg(day.Add(-30*time.Minute), "app.night"),
		bg(at(0, 45)),
	}

	segments := BuildTimeline(day, end, events, configs)
	checkCoverage(t, segments, day, end)

	first := segments[0]
	if !first.Start.Equal(day) {
		t.Errorf("first segment starts %v, want window start", first.Start)
	}
	if first.Category != usage.TimeFragmented || first.DurationMinutes != 45 {
		t.Errorf("first segment = %s %dm, want fragmented 45m", first.Category, first.DurationMinutes)
	}
}

func TestGhostSessionDowngradedToRest(t *testing.T) {
	// A four-hour uninterrupted foreground interval is a ghost: the
	// source missed a closing event. It scores as Rest even though the
	// app is flagged distracting, and the appID is kept.
	end := day.AddDate(0, 0, 1)
	configs := map[string]usage.AppCategory{"app.ghost": usage.CategoryDistracting}
	events := []usage.RawEvent{
		fg(at(8, 0), "app.ghost"),
		bg(at(12, 0)),
	}

	segments := BuildTimeline(day, end, events, configs)
	checkCoverage(t, segments, day, end)

	ghost := segments[1]
	if ghost.Category != usage.TimeRest {
		t.Errorf("ghost session category = %s, want rest", ghost.Category)
	}
	if ghost.AppID != "app.ghost" || ghost.DurationMinutes != 240 {
		t.Errorf("ghost session kept app=%q %dm, want app.ghost 240m", ghost.AppID, ghost.DurationMinutes)
	}
}

func TestExactlyCapNotDowngraded(t *testing.T) {
	// 180 minutes exactly is still trusted; only longer is a ghost.
	end := day.AddDate(0, 0, 1)
	configs := map[string]usage.AppCategory{"app.a": usage.CategoryNecessary}
	events := []usage.RawEvent{
		fg(at(8, 0), "app.a"),
		bg(at(11, 0)),
	}

	segments := BuildTimeline(day, end, events, configs)
	if segments[1].Category != usage.TimeNecessary {
		t.Errorf("180-minute session = %s, want necessary", segments[1].Category)
	}
}

func TestShortSessionFloorsToOneMinute(t *testing.T) {
	end := day.AddDate(0, 0, 1)
	events := []usage.RawEvent{
		fg(at(10, 0), "app.a"),
		bg(at(10, 0).Add(5 * time.Second)),
	}

	segments := BuildTimeline(day, end, events, nil)
	checkCoverage(t, segments, day, end)

	short := segments[1]
	if short.DurationMinutes != 1 {
		t.Errorf("5-second session = %d minutes, want floor of 1", short.DurationMinutes)
	}
	if short.Category != usage.TimeLife {
		t.Errorf("unclassified session = %s, want life", short.Category)
	}
}

func TestSubSecondNoiseDropped(t *testing.T) {
	end := day.AddDate(0, 0, 1)
	events := []usage.RawEvent{
		fg(at(10, 0), "app.a"),
		bg(at(10, 0).Add(200 * time.Millisecond)),
	}

	segments := BuildTimeline(day, end, events, nil)
	for _, s := range segments {
		if s.AppID == "app.a" {
			t.Errorf("sub-second interval should not produce a segment: %+v", s)
		}
	}
}

func TestLockEndsSessionUnlockDoesNot(t *testing.T) {
	end := day.AddDate(0, 0, 1)
	events := []usage.RawEvent{
		fg(at(9, 0), "app.a"),
		{Timestamp: at(9, 30), Kind: usage.EventLock},
		{Timestamp: at(10, 0), Kind: usage.EventUnlock},
		fg(at(10, 15), "app.a"),
		bg(at(10, 30)),
	}

	segments := BuildTimeline(day, end, events, nil)
	checkCoverage(t, segments, day, end)

	// Between lock and the next foreground event everything is Rest,
	// including the stretch after the unlock.
	for _, s := range segments {
		if s.Start.Equal(at(9, 30)) || s.Start.Equal(at(10, 0)) {
			if s.Category != usage.TimeRest {
				t.Errorf("segment starting %v = %s, want rest", s.Start, s.Category)
			}
		}
	}
}

func TestOutOfOrderEventSkipped(t *testing.T) {
	// An event behind the cursor contributes a zero-length interval
	// and must not break coverage or produce negative durations.
	end := day.AddDate(0, 0, 1)
	events := []usage.RawEvent{
		fg(at(9, 0), "app.a"),
		bg(at(9, 20)),
		fg(at(9, 10), "app.b"), // stale, behind cursor
		bg(at(9, 40)),
	}

	segments := BuildTimeline(day, end, events, nil)
	checkCoverage(t, segments, day, end)
}

func TestShutdownEndsSession(t *testing.T) {
	end := day.AddDate(0, 0, 1)
	events := []usage.RawEvent{
		fg(at(21, 0), "app.a"),
		{Timestamp: at(21, 30), Kind: usage.EventShutdown},
	}

	segments := BuildTimeline(day, end, events, nil)
	checkCoverage(t, segments, day, end)

	last := segments[len(segments)-1]
	if last.Category != usage.TimeRest || !last.Start.Equal(at(21, 30)) {
		t.Errorf("post-shutdown tail = %s starting %v, want rest from 21:30", last.Category, last.Start)
	}
}

func TestSumAppUsage(t *testing.T) {
	end := day.AddDate(0, 0, 1)
	events := []usage.RawEvent{
		fg(at(9, 0), "app.a"),
		fg(at(9, 20), "app.b"), // direct switch, no background event
		bg(at(9, 50)),
		fg(at(14, 0), "app.a"),
		bg(at(14, 10)),
	}

	total := SumAppUsage(day, end, events)
	if got := total["app.a"]; got != 30*time.Minute {
		t.Errorf("app.a usage = %v, want 30m", got)
	}
	if got := total["app.b"]; got != 30*time.Minute {
		t.Errorf("app.b usage = %v, want 30m", got)
	}
}

type fakeSource struct {
	events []usage.RawEvent
	err    error

	gotStart, gotEnd time.Time
}

func (f *fakeSource) Query(_ context.Context, start, end time.Time) ([]usage.RawEvent, error) {
	f.gotStart, f.gotEnd = start, end
	return f.events, f.err
}

type fakeStore struct {
	configs map[string]usage.AppCategory
	err     error
}

func (f *fakeStore) GetAll(context.Context) (map[string]usage.AppCategory, error) {
	return f.configs, f.err
}

func TestDayClampsToNowAndLooksBack(t *testing.T) {
	source := &fakeSource{}
	b := NewBuilder(source, &fakeStore{})
	now := at(13, 0)
	b.SetClock(func() time.Time { return now })

	segments, err := b.Day(context.Background(), day)
	if err != nil {
		t.Fatal(err)
	}

	checkCoverage(t, segments, day, now)
	if !source.gotStart.Equal(day.Add(-Lookback)) {
		t.Errorf("query start = %v, want %v", source.gotStart, day.Add(-Lookback))
	}
	if !source.gotEnd.Equal(now) {
		t.Errorf("query end = %v, want now", source.gotEnd)
	}
}

func TestDaySurfacesSourceError(t *testing.T) {
	wantErr := errors.New("usage access denied")
	b := NewBuilder(&fakeSource{err: wantErr}, &fakeStore{})

	_, err := b.Day(context.Background(), day)
	if !errors.Is(err, wantErr) {
		t.Errorf("Day error = %v, want wrapped source error", err)
	}
}
