// Package scoring derives the daily focus score and the per-app
// aggregations shown on the home screen from a day's segment list.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"time"

	"flowday/internal/usage"
)

// Score formula weights. Distraction is penalized linearly without cap,
// life/utility use is penalized mildly with a ceiling on the total
// deduction, and focus time is rewarded linearly without cap.
const (
	distractionCostPerMinute = 0.075
	lifeCostPerMinute        = 0.01
	lifeCostCap              = 15.0
	focusBonusPerMinute      = 0.025
)

// Totals holds the per-category minute sums for one day.
type Totals struct {
	Necessary  int64
	Fragmented int64
	Life       int64
	Rest       int64
}

// Sum accumulates per-category minutes over a day's segments.
func Sum(segments []usage.TimeSegment) Totals {
	var t Totals
	for _, s := range segments {
		switch s.Category {
		case usage.TimeNecessary:
			t.Necessary += s.DurationMinutes
		case usage.TimeFragmented:
			t.Fragmented += s.DurationMinutes
		case usage.TimeLife:
			t.Life += s.DurationMinutes
		case usage.TimeRest:
			t.Rest += s.DurationMinutes
		}
	}
	return t
}

// Score computes the 0-100 focus score for a day's segments. Rest
// minutes do not enter the formula at all, so an idle day scores near
// perfect.
func Score(segments []usage.TimeSegment) int {
	return scoreTotals(Sum(segments))
}

func scoreTotals(t Totals) int {
	distractionCost := float64(t.Fragmented) * distractionCostPerMinute
	lifeCost := float64(t.Life) * lifeCostPerMinute
	if lifeCost > lifeCostCap {
		lifeCost = lifeCostCap
	}
	focusBonus := float64(t.Necessary) * focusBonusPerMinute

	score := 100.0 - distractionCost - lifeCost + focusBonus
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}

// AppStats aggregates one app's appearances across a day.
type AppStats struct {
	AppID   string
	Name    string
	Minutes int64
	Opens   int
	// FragmentationIndex is minutes per open: low values mean many
	// short visits, the signature of compulsive checking.
	FragmentationIndex float64
	Dominant           usage.TimeCategory

	necessaryMinutes  int64
	lifeMinutes       int64
	fragmentedMinutes int64
}

// DayScore pairs a day label with its computed score, for the weekly
// trend display.
type DayScore struct {
	Day   string `json:"day"`
	Score int    `json:"score"`
}

// Analysis is the informational summary of a day: the heaviest
// distractions, the best focus runs, and one line of advice.
type Analysis struct {
	TimeWasters []string
	FocusWins   []string
	Advice      string
}

// Report is everything the presentation layer needs for one day.
type Report struct {
	Segments    []usage.TimeSegment
	Totals      Totals
	Score       int
	ScoreChange int // today minus yesterday
	TopApps     []AppStats
	Weekly      []DayScore
	Analysis    Analysis
}

// NameFunc resolves an app identifier to a display label.
type NameFunc func(appID string) string

// BuildReport assembles the daily report from the reconstructed
// segments, the precise per-app usage sums, yesterday's score, and the
// weekly score history. names may be nil, in which case raw identifiers
// are shown.
func BuildReport(segments []usage.TimeSegment, appUsage map[string]time.Duration, yesterdayScore int, weekly []DayScore, names NameFunc) Report {
	if names == nil {
		names = func(appID string) string { return appID }
	}

	stats := collectAppStats(segments)
	score := Score(segments)

	report := Report{
		Segments:    segments,
		Totals:      Sum(segments),
		Score:       score,
		ScoreChange: score - yesterdayScore,
		TopApps:     topApps(stats, appUsage, names),
		Weekly:      weekly,
	}
	report.Analysis = analyze(stats, names)
	return report
}

func collectAppStats(segments []usage.TimeSegment) map[string]*AppStats {
	stats := make(map[string]*AppStats)
	for _, s := range segments {
		if s.AppID == "" {
			continue
		}
		st, ok := stats[s.AppID]
		if !ok {
			st = &AppStats{AppID: s.AppID}
			stats[s.AppID] = st
		}
		st.Minutes += s.DurationMinutes
		st.Opens++
		switch s.Category {
		case usage.TimeNecessary:
			st.necessaryMinutes += s.DurationMinutes
		case usage.TimeLife:
			st.lifeMinutes += s.DurationMinutes
		case usage.TimeFragmented:
			st.fragmentedMinutes += s.DurationMinutes
		}
	}
	return stats
}

// dominant picks the category with the most minutes for an app, breaking
// ties toward Fragmented, then Life, then Necessary.
func (s *AppStats) dominant() usage.TimeCategory {
	switch {
	case s.fragmentedMinutes > 0 &&
		s.fragmentedMinutes >= s.lifeMinutes &&
		s.fragmentedMinutes >= s.necessaryMinutes:
		return usage.TimeFragmented
	case s.lifeMinutes >= s.necessaryMinutes:
		return usage.TimeLife
	default:
		return usage.TimeNecessary
	}
}

// topApps ranks apps by precise usage, taking the top ten. Open counts
// and dominant categories come from the segment stats; an app present in
// the precise sums but absent from the segments (for example one whose
// only session was downgraded as a ghost) defaults to Fragmented, the
// conservative display choice.
func topApps(stats map[string]*AppStats, appUsage map[string]time.Duration, names NameFunc) []AppStats {
	type entry struct {
		appID string
		used  time.Duration
	}
	var entries []entry
	for appID, used := range appUsage {
		if used > 0 {
			entries = append(entries, entry{appID, used})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].used != entries[j].used {
			return entries[i].used > entries[j].used
		}
		return entries[i].appID < entries[j].appID
	})
	if len(entries) > 10 {
		entries = entries[:10]
	}

	var top []AppStats
	for _, e := range entries {
		minutes := int64(e.used / time.Minute)
		display := AppStats{
			AppID:    e.appID,
			Name:     names(e.appID),
			Minutes:  minutes,
			Dominant: usage.TimeFragmented,
		}
		if st := stats[e.appID]; st != nil {
			display.Opens = st.Opens
			display.Dominant = st.dominant()
			if st.Opens > 0 {
				display.FragmentationIndex = float64(minutes) / float64(st.Opens)
			}
		}
		top = append(top, display)
	}
	return top
}

// analysisThreshold is the minute floor for an app to count as a time
// waster or a focus win.
const analysisThreshold = 30

func analyze(stats map[string]*AppStats, names NameFunc) Analysis {
	byFragmented := sortedBy(stats, func(s *AppStats) int64 { return s.fragmentedMinutes })
	byNecessary := sortedBy(stats, func(s *AppStats) int64 { return s.necessaryMinutes })

	var a Analysis
	for _, s := range byFragmented {
		if s.fragmentedMinutes > analysisThreshold && len(a.TimeWasters) < 3 {
			a.TimeWasters = append(a.TimeWasters, names(s.AppID))
		}
	}
	for _, s := range byNecessary {
		if s.necessaryMinutes > analysisThreshold && len(a.FocusWins) < 3 {
			a.FocusWins = append(a.FocusWins, names(s.AppID))
		}
	}

	switch {
	case len(a.TimeWasters) > 0:
		a.Advice = fmt.Sprintf("You spent a lot of time in %s today. Try trimming 30 minutes tomorrow.", a.TimeWasters[0])
	case len(a.FocusWins) > 0:
		a.Advice = fmt.Sprintf("Great focus in %s today. Keep it up!", a.FocusWins[0])
	default:
		a.Advice = "A balanced day. Tomorrow is a fresh start."
	}
	return a
}

func sortedBy(stats map[string]*AppStats, key func(*AppStats) int64) []*AppStats {
	out := make([]*AppStats, 0, len(stats))
	for _, s := range stats {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := key(out[i]), key(out[j])
		if ki != kj {
			return ki > kj
		}
		return out[i].AppID < out[j].AppID
	})
	return out
}

// RecentDistraction reports whether the day's timeline ends in a long
// distraction: a Fragmented segment of at least threshold minutes that
// ended within the last five minutes. The break reminder arms on this.
func RecentDistraction(segments []usage.TimeSegment, threshold int64, now time.Time) bool {
	if threshold <= 0 {
		return false
	}
	for i := len(segments) - 1; i >= 0; i-- {
		s := segments[i]
		if s.Category != usage.TimeFragmented {
			continue
		}
		return s.End.After(now.Add(-5*time.Minute)) && s.DurationMinutes >= threshold
	}
	return false
}
