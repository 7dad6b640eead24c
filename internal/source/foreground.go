package source

import (
	"context"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"flowday/internal/logging"
	"flowday/internal/usage"
)

// liveLookback is how far back the foreground query scans the event
// log before falling back to process inspection.
const liveLookback = 10 * time.Minute

// systemApps are shell/launcher/system identifiers that never count as
// the user's foreground app.
var systemApps = map[string]struct{}{
	"com.android.systemui":                  {},
	"android":                               {},
	"com.android.settings":                  {},
	"com.miui.home":                         {},
	"com.huawei.android.launcher":           {},
	"com.oppo.launcher":                     {},
	"com.vivo.launcher":                     {},
	"com.sec.android.app.launcher":          {},
	"com.google.android.apps.nexuslauncher": {},
	"com.miui.securitycenter":               {},
	"com.huawei.systemmanager":              {},
	"com.coloros.safecenter":                {},
	"com.vivo.permissionmanager":            {},
}

// systemAppPrefixes match launcher families by prefix.
var systemAppPrefixes = []string{"com.android.launcher"}

// isSystemApp reports whether an identifier belongs to the platform
// shell rather than a user app.
func isSystemApp(appID string) bool {
	if _, ok := systemApps[appID]; ok {
		return true
	}
	for _, p := range systemAppPrefixes {
		if strings.HasPrefix(appID, p) {
			return true
		}
	}
	return false
}

// Foreground answers "what app is on screen right now" for the
// watchdog. It prefers the newest foreground event in a short lookback
// over the event log; when the log shows nothing it falls back to the
// most recently started user process, the desktop analogue of the
// most-recently-used aggregate stat.
type Foreground struct {
	log *EventLog
	now func() time.Time
	// extraSystem extends the built-in system filter, e.g. from
	// config.
	extraSystem map[string]struct{}
	// fallback is swappable so tests do not scan real processes.
	fallback func() (string, error)
}

// NewForeground creates a live foreground query over the event log.
func NewForeground(log *EventLog, extraSystem []string) *Foreground {
	extra := make(map[string]struct{}, len(extraSystem))
	for _, id := range extraSystem {
		extra[id] = struct{}{}
	}
	f := &Foreground{log: log, now: time.Now, extraSystem: extra}
	f.fallback = f.processFallback
	return f
}

// SetClock overrides the query's clock for tests.
func (f *Foreground) SetClock(now func() time.Time) {
	f.now = now
}

func (f *Foreground) excluded(appID string) bool {
	if _, ok := f.extraSystem[appID]; ok {
		return true
	}
	return isSystemApp(appID)
}

// CurrentApp returns the current foreground app identifier, or "" when
// none can be determined. An error means the event source itself is
// unreadable; callers preserve their state rather than resetting.
func (f *Foreground) CurrentApp(ctx context.Context) (string, error) {
	now := f.now()
	ev, ok, err := f.log.Latest(ctx, now, liveLookback, func(ev usage.RawEvent) bool {
		return ev.Kind == usage.EventForeground && ev.AppID != "" && !f.excluded(ev.AppID)
	})
	if err != nil {
		return "", err
	}
	if ok {
		logging.Debug("foreground", "from event log: %s (%v ago)", ev.AppID, now.Sub(ev.Timestamp))
		return ev.AppID, nil
	}

	// Also check whether the log says the screen went dark after the
	// last foreground event; the process fallback cannot see locks.
	if locked, err := f.recentlyLocked(ctx, now); err == nil && locked {
		return "", nil
	}

	return f.fallback()
}

// recentlyLocked reports whether the newest lifecycle event in the
// lookback is a lock or shutdown (i.e. the device is resting).
func (f *Foreground) recentlyLocked(ctx context.Context, now time.Time) (bool, error) {
	ev, ok, err := f.log.Latest(ctx, now, liveLookback, func(usage.RawEvent) bool { return true })
	if err != nil || !ok {
		return false, err
	}
	return ev.Kind == usage.EventLock || ev.Kind == usage.EventShutdown, nil
}

// processFallback picks the most recently started non-system process.
// Failures here are ambiguity, not errors: the watchdog treats "" as
// no foreground app.
func (f *Foreground) processFallback() (string, error) {
	procs, err := process.Processes()
	if err != nil {
		logging.Debug("foreground", "process scan failed: %v", err)
		return "", nil
	}

	var newest string
	var newestStart int64
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || name == "" || f.excluded(name) {
			continue
		}
		created, err := p.CreateTime()
		if err != nil {
			continue
		}
		if created > newestStart {
			newestStart = created
			newest = name
		}
	}
	if newest != "" {
		logging.Debug("foreground", "from process fallback: %s", newest)
	}
	return newest, nil
}
