// flowday-report prints a day's wellbeing report to the terminal, or
// dumps the timeline as CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"flowday/internal/configstore"
	"flowday/internal/export"
	"flowday/internal/scoring"
	"flowday/internal/source"
	"flowday/internal/timeline"
	"flowday/internal/usage"
)

func main() {
	stateDir := flag.String("state", "", "Path to state directory (default $FLOWDAY_STATE or ./state)")
	dateFlag := flag.String("date", "", "Day to report on, YYYY-MM-DD (default today)")
	csvOut := flag.Bool("csv", false, "Print the timeline as CSV instead of the report")
	days := flag.Int("days", 7, "Days of score history to show")
	flag.Parse()

	_ = godotenv.Load()

	statePath := *stateDir
	if statePath == "" {
		statePath = os.Getenv("FLOWDAY_STATE")
	}
	if statePath == "" {
		statePath = "state"
	}

	date := time.Now()
	if *dateFlag != "" {
		var err error
		date, err = time.ParseInLocation("2006-01-02", *dateFlag, time.Local)
		if err != nil {
			log.Fatalf("Invalid -date %q: want YYYY-MM-DD", *dateFlag)
		}
	}

	store, err := configstore.Open(statePath)
	if err != nil {
		log.Fatalf("Failed to open config store: %v", err)
	}
	defer store.Close()

	builder := timeline.NewBuilder(source.NewEventLog(statePath), store)
	ctx := context.Background()

	segments, err := builder.Day(ctx, date)
	if err != nil {
		log.Fatalf("Failed to build timeline: %v", err)
	}

	if *csvOut {
		if err := export.WriteCSV(os.Stdout, segments); err != nil {
			log.Fatalf("Failed to write CSV: %v", err)
		}
		return
	}

	appUsage, err := builder.AppUsage(ctx, date)
	if err != nil {
		log.Fatalf("Failed to sum app usage: %v", err)
	}

	yesterday := 0
	if score, ok, err := store.DailyScore(ctx, date.AddDate(0, 0, -1)); err == nil && ok {
		yesterday = score
	}
	weekly, err := store.RecentScores(ctx, date, *days)
	if err != nil {
		log.Fatalf("Failed to load score history: %v", err)
	}
	names, err := store.Names(ctx)
	if err != nil {
		log.Fatalf("Failed to load app names: %v", err)
	}

	report := scoring.BuildReport(segments, appUsage, yesterday, weekly, func(appID string) string {
		return usage.DisplayName(appID, names)
	})
	printReport(date, report)
}

func printReport(date time.Time, r scoring.Report) {
	fmt.Printf("flowday report for %s\n", date.Format("2006-01-02"))
	fmt.Printf("Score: %d/100 (%+d vs yesterday)\n\n", r.Score, r.ScoreChange)

	fmt.Printf("Focused:    %4dm\n", r.Totals.Necessary)
	fmt.Printf("Fragmented: %4dm\n", r.Totals.Fragmented)
	fmt.Printf("Life:       %4dm\n", r.Totals.Life)
	fmt.Printf("Rest:       %4dm\n\n", r.Totals.Rest)

	if len(r.TopApps) > 0 {
		fmt.Println("Top apps:")
		for _, app := range r.TopApps {
			fmt.Printf("  %-30s %4dm  %3d opens  %5.1f m/open  %s\n",
				app.Name, app.Minutes, app.Opens, app.FragmentationIndex, app.Dominant)
		}
		fmt.Println()
	}

	if len(r.Analysis.TimeWasters) > 0 {
		fmt.Printf("Time wasters: %s\n", strings.Join(r.Analysis.TimeWasters, ", "))
	}
	if len(r.Analysis.FocusWins) > 0 {
		fmt.Printf("Focus wins:   %s\n", strings.Join(r.Analysis.FocusWins, ", "))
	}
	if r.Analysis.Advice != "" {
		fmt.Printf("\n%s\n", r.Analysis.Advice)
	}

	if len(r.Weekly) > 0 {
		fmt.Println("\nRecent scores:")
		for _, d := range r.Weekly {
			fmt.Printf("  %s  %3d  %s\n", d.Day, d.Score, strings.Repeat("#", d.Score/5))
		}
	}

	fmt.Printf("\n%s", export.ShareText(r))
}
