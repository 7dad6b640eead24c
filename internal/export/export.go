// Package export renders a day's timeline for consumption outside the
// daemon: a CSV dump of the segments and a short shareable summary.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"flowday/internal/scoring"
	"flowday/internal/usage"
)

const timeFormat = "2006-01-02 15:04:05"

// WriteCSV writes the segments as CSV, one row per segment. Rest
// segments carry an empty package column.
func WriteCSV(w io.Writer, segments []usage.TimeSegment) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"StartTime", "EndTime", "Package", "Duration(m)", "Category"}); err != nil {
		return err
	}
	for _, s := range segments {
		row := []string{
			s.Start.Format(timeFormat),
			s.End.Format(timeFormat),
			s.AppID,
			strconv.FormatInt(s.DurationMinutes, 10),
			string(s.Category),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ShareText renders a short brag-friendly summary of a day's report.
func ShareText(r scoring.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "My focus score today: %d/100\n", r.Score)
	fmt.Fprintf(&b, "Better than %d%% of my days\n\n", beatPercent(r.Score))
	fmt.Fprintf(&b, "Focused: %s\n", formatMinutes(r.Totals.Necessary))
	fmt.Fprintf(&b, "Fragmented: %s\n", formatMinutes(r.Totals.Fragmented))
	fmt.Fprintf(&b, "Life: %s\n", formatMinutes(r.Totals.Life))
	return b.String()
}

// beatPercent maps a score to a coarse "better than N% of days" claim.
func beatPercent(score int) int {
	switch {
	case score > 80:
		return 90
	case score > 60:
		return 60
	default:
		return 30
	}
}

func formatMinutes(m int64) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	if m%60 == 0 {
		return fmt.Sprintf("%dh", m/60)
	}
	return fmt.Sprintf("%dh %dm", m/60, m%60)
}
