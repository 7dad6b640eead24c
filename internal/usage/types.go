// Package usage defines the domain types shared by the timeline,
// scoring, and watchdog subsystems: raw lifecycle events as reported by
// the platform collector, user-assigned app categories, and the derived
// time categories that segments are tagged with.
package usage

import (
	"strings"
	"time"
)

// EventKind identifies what a raw lifecycle event reports
type EventKind string

const (
	EventForeground EventKind = "foreground" // app became visible/interactive
	EventBackground EventKind = "background" // app left the foreground
	EventLock       EventKind = "lock"       // screen locked / non-interactive
	EventUnlock     EventKind = "unlock"     // screen unlocked (no app implied)
	EventShutdown   EventKind = "shutdown"   // device powered off
)

// RawEvent is a single lifecycle event from the event source.
// AppID is set only for foreground/background transitions.
type RawEvent struct {
	Timestamp time.Time `json:"ts"`
	Kind      EventKind `json:"kind"`
	AppID     string    `json:"app_id,omitempty"`
}

// AppCategory is the user's explicit decision about an app.
// Apps the user never touched have no stored category at all.
type AppCategory string

const (
	CategoryNecessary   AppCategory = "necessary"   // whitelisted / essential
	CategoryDistracting AppCategory = "distracting" // blacklisted / distraction
	CategoryUnlisted    AppCategory = "unlisted"    // explicitly "no decision"
)

// TimeCategory describes what a reconstructed interval meant behaviorally.
type TimeCategory string

const (
	TimeNecessary  TimeCategory = "necessary"  // focused use of an essential app
	TimeFragmented TimeCategory = "fragmented" // distraction
	TimeLife       TimeCategory = "life"       // neutral/utility use
	TimeRest       TimeCategory = "rest"       // locked, screen off, no foreground app
)

// TimeSegment is one reconstructed interval of the day. Segments for a
// day are ordered, non-overlapping, and cover the whole requested
// window. End is exclusive. AppID is empty only for Rest.
type TimeSegment struct {
	ID              int64        `json:"id"`
	Start           time.Time    `json:"start"`
	End             time.Time    `json:"end"`
	AppID           string       `json:"app_id,omitempty"`
	Category        TimeCategory `json:"category"`
	DurationMinutes int64        `json:"duration_minutes"`
}

// Duration returns the true interval length (End - Start), which may be
// finer-grained than DurationMinutes.
func (s TimeSegment) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Classify maps a foreground app and its user-assigned category to a
// time category. An empty appID means no foreground app (locked or
// screen off) and is always Rest.
//
// Only an explicit Distracting assignment ever yields Fragmented: apps
// the user has not flagged default to Life, so interventions can never
// fire on an unclassified app.
func Classify(appID string, category AppCategory) TimeCategory {
	if appID == "" {
		return TimeRest
	}
	switch category {
	case CategoryNecessary:
		return TimeNecessary
	case CategoryDistracting:
		return TimeFragmented
	}
	return TimeLife
}

// DisplayName resolves an app identifier to a human-readable label using
// the installed-app map. Identifiers with no installed entry (the app
// was uninstalled but still appears in history or config) fall back to
// the last dot-separated component with an "(uninstalled)" marker.
func DisplayName(appID string, installed map[string]string) string {
	if name, ok := installed[appID]; ok {
		return name
	}
	short := appID
	if i := strings.LastIndex(appID, "."); i >= 0 && i+1 < len(appID) {
		short = appID[i+1:]
	}
	return short + " (uninstalled)"
}
