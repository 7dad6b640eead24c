package export

import (
	"strings"
	"testing"
	"time"

	"flowday/internal/scoring"
	"flowday/internal/usage"
)

func TestWriteCSV(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	segments := []usage.TimeSegment{
		{Start: start, End: start.Add(30 * time.Minute), AppID: "app.mail", Category: usage.TimeNecessary, DurationMinutes: 30},
		{Start: start.Add(30 * time.Minute), End: start.Add(45 * time.Minute), Category: usage.TimeRest, DurationMinutes: 15},
	}

	var b strings.Builder
	if err := WriteCSV(&b, segments); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	want := []string{
		"StartTime,EndTime,Package,Duration(m),Category",
		"2026-03-14 09:00:00,2026-03-14 09:30:00,app.mail,30,necessary",
		"2026-03-14 09:30:00,2026-03-14 09:45:00,,15,rest",
	}
	if len(lines) != len(want) {
		t.Fatalf("csv has %d lines, want %d:\n%s", len(lines), len(want), b.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestWriteCSVEmptyDay(t *testing.T) {
	var b strings.Builder
	if err := WriteCSV(&b, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(b.String()) != "StartTime,EndTime,Package,Duration(m),Category" {
		t.Errorf("empty export = %q, want header only", b.String())
	}
}

func TestShareText(t *testing.T) {
	r := scoring.Report{
		Score:  92,
		Totals: scoring.Totals{Necessary: 150, Fragmented: 20, Life: 60},
	}

	text := ShareText(r)
	for _, want := range []string{
		"92/100",
		"Better than 90%",
		"Focused: 2h 30m",
		"Fragmented: 20m",
		"Life: 1h",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("share text missing %q:\n%s", want, text)
		}
	}
}

func TestBeatPercentBands(t *testing.T) {
	cases := []struct {
		score, want int
	}{
		{100, 90}, {81, 90}, {80, 60}, {61, 60}, {60, 30}, {0, 30},
	}
	for _, c := range cases {
		if got := beatPercent(c.score); got != c.want {
			t.Errorf("beatPercent(%d) = %d, want %d", c.score, got, c.want)
		}
	}
}
