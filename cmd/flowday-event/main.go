// flowday-event appends one lifecycle event to the usage log. It is
// the hook point for platform collectors (window-manager scripts,
// lock-screen hooks, shutdown units) that observe app transitions.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"flowday/internal/source"
	"flowday/internal/usage"
)

func main() {
	stateDir := flag.String("state", "", "Path to state directory (default $FLOWDAY_STATE or ./state)")
	kind := flag.String("kind", "", "Event kind: foreground, background, lock, unlock, shutdown")
	app := flag.String("app", "", "App identifier (required for foreground)")
	at := flag.String("at", "", "Event time, RFC 3339 (default now)")
	flag.Parse()

	_ = godotenv.Load()

	statePath := *stateDir
	if statePath == "" {
		statePath = os.Getenv("FLOWDAY_STATE")
	}
	if statePath == "" {
		statePath = "state"
	}
	os.MkdirAll(statePath, 0755)

	ev := usage.RawEvent{Kind: usage.EventKind(*kind), AppID: *app}
	switch ev.Kind {
	case usage.EventForeground:
		if ev.AppID == "" {
			log.Fatal("-app is required for foreground events")
		}
	case usage.EventBackground, usage.EventLock, usage.EventUnlock, usage.EventShutdown:
	default:
		log.Fatalf("Unknown -kind %q", *kind)
	}

	if *at != "" {
		ts, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			log.Fatalf("Invalid -at %q: %v", *at, err)
		}
		ev.Timestamp = ts
	}

	if err := source.NewEventLog(statePath).Append(ev); err != nil {
		log.Fatalf("Failed to append event: %v", err)
	}
}
