// flowday-mcp exposes the wellbeing tracker over MCP so an assistant
// can read timelines and reports and manage app classifications.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"flowday/internal/configstore"
	"flowday/internal/export"
	"flowday/internal/scoring"
	"flowday/internal/source"
	"flowday/internal/timeline"
	"flowday/internal/usage"
)

var (
	store   *configstore.Store
	builder *timeline.Builder
)

func main() {
	// Log to stderr so stdout is clean for JSON-RPC
	log.SetOutput(os.Stderr)
	log.SetPrefix("[flowday-mcp] ")

	// Load .env file if present (don't error if missing)
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}

	statePath := os.Getenv("FLOWDAY_STATE")
	if statePath == "" {
		statePath = "state"
	}

	var err error
	store, err = configstore.Open(statePath)
	if err != nil {
		log.Fatalf("Failed to open config store: %v", err)
	}
	defer store.Close()

	builder = timeline.NewBuilder(source.NewEventLog(statePath), store)

	s := server.NewMCPServer(
		"flowday-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.AddTool(timelineTool(), handleTimeline)
	s.AddTool(scoreTool(), handleScore)
	s.AddTool(reportTool(), handleReport)
	s.AddTool(classifyTool(), handleClassify)
	s.AddTool(listTool(), handleList)
	s.AddTool(exportTool(), handleExport)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// parseDate resolves the optional date argument, defaulting to today.
func parseDate(args map[string]any) (time.Time, error) {
	raw, _ := args["date"].(string)
	if raw == "" {
		return time.Now(), nil
	}
	date, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", raw)
	}
	return date, nil
}

func timelineTool() mcp.Tool {
	return mcp.NewTool("get_timeline",
		mcp.WithDescription("Get the reconstructed usage timeline for one day: ordered segments with app, category (necessary/fragmented/life/rest), and duration in minutes."),
		mcp.WithString("date",
			mcp.Description("Day to reconstruct, YYYY-MM-DD. Default: today."),
		),
	)
}

func handleTimeline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	date, err := parseDate(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	segments, err := builder.Day(ctx, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("build timeline: %v", err)), nil
	}

	data, err := json.MarshalIndent(segments, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func scoreTool() mcp.Tool {
	return mcp.NewTool("get_score",
		mcp.WithDescription("Get the 0-100 focus score for one day, plus per-category minute totals."),
		mcp.WithString("date",
			mcp.Description("Day to score, YYYY-MM-DD. Default: today."),
		),
	)
}

func handleScore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	date, err := parseDate(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	segments, err := builder.Day(ctx, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("build timeline: %v", err)), nil
	}

	out := struct {
		Date   string         `json:"date"`
		Score  int            `json:"score"`
		Totals scoring.Totals `json:"totals"`
	}{
		Date:   date.Format("2006-01-02"),
		Score:  scoring.Score(segments),
		Totals: scoring.Sum(segments),
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func reportTool() mcp.Tool {
	return mcp.NewTool("get_report",
		mcp.WithDescription("Get the full daily report: score with change vs yesterday, top apps with fragmentation index, weekly score trend, and the time-waster/focus-win analysis."),
		mcp.WithString("date",
			mcp.Description("Day to report on, YYYY-MM-DD. Default: today."),
		),
	)
}

func handleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	date, err := parseDate(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := buildReport(ctx, date)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func buildReport(ctx context.Context, date time.Time) (scoring.Report, error) {
	segments, err := builder.Day(ctx, date)
	if err != nil {
		return scoring.Report{}, fmt.Errorf("build timeline: %w", err)
	}
	appUsage, err := builder.AppUsage(ctx, date)
	if err != nil {
		return scoring.Report{}, fmt.Errorf("sum app usage: %w", err)
	}

	yesterday := 0
	if score, ok, err := store.DailyScore(ctx, date.AddDate(0, 0, -1)); err == nil && ok {
		yesterday = score
	}
	weekly, err := store.RecentScores(ctx, date, 7)
	if err != nil {
		return scoring.Report{}, fmt.Errorf("load weekly scores: %w", err)
	}

	names, err := store.Names(ctx)
	if err != nil {
		return scoring.Report{}, fmt.Errorf("load app names: %w", err)
	}
	nameFor := func(appID string) string {
		return usage.DisplayName(appID, names)
	}

	return scoring.BuildReport(segments, appUsage, yesterday, weekly, nameFor), nil
}

func classifyTool() mcp.Tool {
	return mcp.NewTool("classify_app",
		mcp.WithDescription("Classify an app as necessary or distracting, or remove its classification with 'unlisted'. Classifications apply retroactively to the whole timeline."),
		mcp.WithString("app_id",
			mcp.Required(),
			mcp.Description("App/package identifier, e.g. com.example.feed"),
		),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("One of: necessary, distracting, unlisted"),
		),
		mcp.WithString("name",
			mcp.Description("Optional display name for the app"),
		),
	)
}

func handleClassify(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	appID, _ := args["app_id"].(string)
	category, _ := args["category"].(string)
	name, _ := args["name"].(string)

	if appID == "" {
		return mcp.NewToolResultError("app_id is required"), nil
	}

	switch usage.AppCategory(category) {
	case usage.CategoryNecessary, usage.CategoryDistracting:
		err := store.Set(ctx, configstore.AppConfig{
			AppID:    appID,
			Name:     name,
			Category: usage.AppCategory(category),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("save classification: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Classified %s as %s", appID, category)), nil
	case usage.CategoryUnlisted:
		if err := store.Delete(ctx, appID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("remove classification: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Removed classification for %s", appID)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown category %q: want necessary, distracting, or unlisted", category)), nil
	}
}

func listTool() mcp.Tool {
	return mcp.NewTool("list_classifications",
		mcp.WithDescription("List every stored app classification."),
	)
}

func handleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configs, err := store.Configs(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load classifications: %v", err)), nil
	}

	data, err := json.MarshalIndent(configs, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func exportTool() mcp.Tool {
	return mcp.NewTool("export_csv",
		mcp.WithDescription("Export one day's timeline as CSV (StartTime, EndTime, Package, Duration(m), Category)."),
		mcp.WithString("date",
			mcp.Description("Day to export, YYYY-MM-DD. Default: today."),
		),
	)
}

func handleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	date, err := parseDate(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	segments, err := builder.Day(ctx, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("build timeline: %v", err)), nil
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, segments); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("write csv: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}
