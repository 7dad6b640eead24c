// Package watchdog tracks how long the user has been in a flagged
// distracting app and drives the interventions. One Watcher is run per
// intervention (dimmer, marquee, break reminder); they share nothing
// but the read-only classification store and the event source.
package watchdog

import (
	"context"
	"time"

	"flowday/internal/logging"
	"flowday/internal/usage"
)

// State is the watcher's position in the streak machine.
type State string

const (
	StateIdle      State = "idle"      // no distraction streak
	StateCounting  State = "counting"  // streak active, below threshold
	StateTriggered State = "triggered" // threshold crossed, intervention active
)

// ForegroundSource answers "what is on screen right now". An empty
// app ID with a nil error means no determinable foreground app.
type ForegroundSource interface {
	CurrentApp(ctx context.Context) (string, error)
}

// ClassificationStore supplies the current per-app user categories.
type ClassificationStore interface {
	GetAll(ctx context.Context) (map[string]usage.AppCategory, error)
}

// Sink receives the watcher's decisions. Triggered is called every tick
// the intervention should be active, with the total streak elapsed so
// sinks can ramp intensity; Cleared is called every tick it should not.
type Sink interface {
	Triggered(appID string, elapsed time.Duration)
	Cleared()
}

// Config parameterizes one watcher instance.
type Config struct {
	// Name tags log lines, e.g. "dimmer", "marquee", "reminder".
	Name string
	// Threshold is the continuous distraction duration that trips the
	// intervention.
	Threshold time.Duration
	// Interval is the fixed delay between ticks. Each tick is
	// scheduled only after the previous one finishes, so a slow event
	// source cannot pile ticks up.
	Interval time.Duration
	// Night, when set, confines the intervention to a time-of-day
	// window; outside it the watcher is forced to Idle.
	Night *NightWindow
	// Enabled is consulted at the start of every tick, so the user
	// turning the intervention off takes effect within one interval.
	// nil means always enabled.
	Enabled func() bool
}

// Status is the outcome of one tick.
type Status struct {
	State     State
	AppID     string
	Elapsed   time.Duration
	Remaining time.Duration // time left until trigger while counting
}

// Watcher owns one distraction streak. All streak state is private to
// the instance; concurrent watchers never share mutable state.
type Watcher struct {
	cfg    Config
	source ForegroundSource
	store  ClassificationStore
	sink   Sink
	now    func() time.Time

	streakStart time.Time // zero when no streak
	streakApp   string
	lastState   State

	stopChan chan struct{}
	doneChan chan struct{}
	running  bool
}

// New creates a watcher. It does not start ticking until Start.
func New(cfg Config, source ForegroundSource, store ClassificationStore, sink Sink) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	return &Watcher{
		cfg:       cfg,
		source:    source,
		store:     store,
		sink:      sink,
		now:       time.Now,
		lastState: StateIdle,
	}
}

// SetClock overrides the watcher's clock for deterministic tests.
func (w *Watcher) SetClock(now func() time.Time) {
	w.now = now
}

// Start begins the fixed-delay tick loop.
func (w *Watcher) Start() {
	if w.running {
		return
	}
	w.running = true
	w.stopChan = make(chan struct{})
	w.doneChan = make(chan struct{})
	go w.loop()
	logging.Info(w.cfg.Name, "watcher started (threshold=%v, interval=%v)", w.cfg.Threshold, w.cfg.Interval)
}

// Stop halts the loop and clears the sink so any held overlay resource
// is released even on teardown.
func (w *Watcher) Stop() {
	if !w.running {
		return
	}
	close(w.stopChan)
	<-w.doneChan
	w.running = false
	w.sink.Cleared()
	logging.Info(w.cfg.Name, "watcher stopped")
}

func (w *Watcher) loop() {
	defer close(w.doneChan)
	for {
		select {
		case <-w.stopChan:
			return
		case <-time.After(w.cfg.Interval):
			w.Tick(context.Background())
		}
	}
}

// Tick runs one check. Exported so tests can drive the machine without
// real time passing. Any failure is contained to this tick: the streak
// is preserved and the loop keeps going.
func (w *Watcher) Tick(ctx context.Context) Status {
	now := w.now()

	if w.cfg.Enabled != nil && !w.cfg.Enabled() {
		return w.reset("disabled")
	}
	if w.cfg.Night != nil && !w.cfg.Night.Contains(now) {
		return w.reset("outside night window")
	}

	appID, err := w.source.CurrentApp(ctx)
	if err != nil {
		// No data this tick. Keep the streak; a transient query
		// failure must not grant a free streak reset.
		logging.Warn(w.cfg.Name, "foreground query failed: %v", err)
		return w.status(now)
	}

	configs, err := w.store.GetAll(ctx)
	if err != nil {
		logging.Warn(w.cfg.Name, "classification read failed: %v", err)
		return w.status(now)
	}

	if usage.Classify(appID, configs[appID]) != usage.TimeFragmented {
		return w.reset("")
	}

	if w.streakStart.IsZero() {
		w.streakStart = now
		logging.Debug(w.cfg.Name, "streak started on %s", appID)
	}
	w.streakApp = appID

	st := w.status(now)
	if st.State == StateTriggered {
		w.sink.Triggered(appID, st.Elapsed)
	} else {
		w.sink.Cleared()
	}
	w.logTransition(st.State, appID)
	return st
}

func (w *Watcher) reset(reason string) Status {
	if !w.streakStart.IsZero() && reason != "" {
		logging.Debug(w.cfg.Name, "streak cleared: %s", reason)
	}
	w.streakStart = time.Time{}
	w.streakApp = ""
	w.sink.Cleared()
	w.logTransition(StateIdle, "")
	return Status{State: StateIdle}
}

func (w *Watcher) status(now time.Time) Status {
	if w.streakStart.IsZero() {
		return Status{State: StateIdle}
	}
	elapsed := now.Sub(w.streakStart)
	if elapsed >= w.cfg.Threshold {
		return Status{State: StateTriggered, AppID: w.streakApp, Elapsed: elapsed}
	}
	return Status{
		State:     StateCounting,
		AppID:     w.streakApp,
		Elapsed:   elapsed,
		Remaining: w.cfg.Threshold - elapsed,
	}
}

func (w *Watcher) logTransition(state State, appID string) {
	if state == w.lastState {
		return
	}
	logging.Info(w.cfg.Name, "%s -> %s (app=%s)", w.lastState, state, appID)
	w.lastState = state
}

// NightWindow confines an intervention to the stretch from the trigger
// time until 06:00. An evening trigger (hour >= 12) wraps past
// midnight; an early-morning trigger runs the same morning.
type NightWindow struct {
	Hour   int
	Minute int
}

const nightWindowEndHour = 6

// Contains reports whether t falls inside the window.
func (n NightWindow) Contains(t time.Time) bool {
	hour, minute := t.Hour(), t.Minute()
	afterTrigger := hour > n.Hour || (hour == n.Hour && minute >= n.Minute)
	if n.Hour >= 12 {
		return afterTrigger || hour < nightWindowEndHour
	}
	return afterTrigger && hour < nightWindowEndHour
}
