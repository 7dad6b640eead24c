package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"flowday/internal/config"
	"flowday/internal/configstore"
	"flowday/internal/interventions"
	"flowday/internal/scoring"
	"flowday/internal/source"
	"flowday/internal/timeline"
	"flowday/internal/watchdog"
)

// scoreInterval is how often the daemon recomputes and persists
// today's score.
const scoreInterval = 5 * time.Minute

func main() {
	log.Println("flowday - digital wellbeing daemon")

	// Load .env file (optional - won't error if missing)
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, using environment variables")
	} else {
		log.Println("[config] Loaded .env file")
	}

	statePath := os.Getenv("FLOWDAY_STATE")
	if statePath == "" {
		statePath = "state"
	}
	os.MkdirAll(statePath, 0755)

	cfg, err := config.Load(statePath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := configstore.Open(statePath)
	if err != nil {
		log.Fatalf("Failed to open config store: %v", err)
	}
	defer store.Close()

	events := source.NewEventLog(statePath)
	foreground := source.NewForeground(events, nil)
	builder := timeline.NewBuilder(events, store)

	// The break reminder goes to Discord when a bot token is present,
	// otherwise to the log.
	notify := func(message string) error {
		log.Printf("[reminder] %s", message)
		return nil
	}
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		notifier, err := interventions.NewDiscordNotifier(token, os.Getenv("DISCORD_CHANNEL_ID"))
		if err != nil {
			log.Fatalf("Failed to connect Discord notifier: %v", err)
		}
		defer notifier.Close()
		notify = notifier.Send
	}

	dimmer := interventions.NewDimmer()
	marquee := interventions.NewMarquee(cfg.Marquee.Threshold())
	reminder := interventions.NewReminder(notify)

	ctx := context.Background()

	// Settings stored in the database override the YAML file, so the
	// control tools can flip interventions without a daemon restart.
	enabled := func(key string, fallback bool) func() bool {
		return func() bool {
			on, err := store.SettingBool(ctx, key, fallback)
			if err != nil {
				return fallback
			}
			return on
		}
	}
	thresholdMinutes := func(key string, fallback int) int {
		n, err := store.SettingInt(ctx, key, fallback)
		if err != nil {
			return fallback
		}
		return n
	}

	night := &watchdog.NightWindow{Hour: cfg.Dimmer.TriggerHour, Minute: cfg.Dimmer.TriggerMinute}
	if h, err := store.SettingInt(ctx, configstore.SettingDimmerTriggerHour, cfg.Dimmer.TriggerHour); err == nil {
		night.Hour = h
	}
	if m, err := store.SettingInt(ctx, configstore.SettingDimmerTriggerMin, cfg.Dimmer.TriggerMinute); err == nil {
		night.Minute = m
	}

	watchers := []*watchdog.Watcher{
		watchdog.New(watchdog.Config{
			Name:      "dimmer",
			Threshold: cfg.Dimmer.Threshold(),
			Interval:  cfg.CheckInterval(),
			Night:     night,
			Enabled:   enabled(configstore.SettingDimmerEnabled, cfg.Dimmer.On()),
		}, foreground, store, dimmer),
		watchdog.New(watchdog.Config{
			Name:      "marquee",
			Threshold: time.Duration(thresholdMinutes(configstore.SettingMarqueeTriggerMins, cfg.Marquee.ThresholdMinutes)) * time.Minute,
			Interval:  cfg.CheckInterval(),
			Enabled:   enabled(configstore.SettingMarqueeEnabled, cfg.Marquee.On()),
		}, foreground, store, marquee),
		watchdog.New(watchdog.Config{
			Name:      "reminder",
			Threshold: time.Duration(thresholdMinutes(configstore.SettingZenTriggerMinutes, cfg.Reminder.ThresholdMinutes)) * time.Minute,
			Interval:  cfg.CheckInterval(),
			Enabled:   enabled(configstore.SettingZenEnabled, cfg.Reminder.On()),
		}, foreground, store, reminder),
	}
	for _, w := range watchers {
		w.Start()
	}

	// Periodically recompute and persist today's score so the weekly
	// trend survives restarts.
	reminderThreshold := int64(thresholdMinutes(configstore.SettingZenTriggerMinutes, cfg.Reminder.ThresholdMinutes))
	scoreStop := make(chan struct{})
	scoreDone := make(chan struct{})
	go func() {
		defer close(scoreDone)
		for {
			recordScore(ctx, builder, store, reminderThreshold)
			select {
			case <-scoreStop:
				return
			case <-time.After(scoreInterval):
			}
		}
	}()

	log.Printf("[main] All watchers started (interval=%v). Press Ctrl+C to stop.", cfg.CheckInterval())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("[main] Shutting down...")
	close(scoreStop)
	<-scoreDone
	for _, w := range watchers {
		w.Stop()
	}
	dimmer.Close()
	marquee.Close()
	reminder.Close()
	log.Println("[main] Goodbye")
}

func recordScore(ctx context.Context, builder *timeline.Builder, store *configstore.Store, reminderThreshold int64) {
	today := time.Now()
	segments, err := builder.Day(ctx, today)
	if err != nil {
		log.Printf("[score] recompute failed: %v", err)
		return
	}
	score := scoring.Score(segments)
	if err := store.SetDailyScore(ctx, today, score); err != nil {
		log.Printf("[score] persist failed: %v", err)
		return
	}
	log.Printf("[score] today=%s score=%d", today.Format("2006-01-02"), score)

	// The reconstructed timeline catches long streaks the live watcher
	// missed, e.g. across a daemon restart.
	if scoring.RecentDistraction(segments, reminderThreshold, today) {
		log.Printf("[score] timeline ends in a %d+ minute distraction streak", reminderThreshold)
	}
}
