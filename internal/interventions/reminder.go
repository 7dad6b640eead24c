package interventions

import (
	"fmt"
	"sync"
	"time"

	"flowday/internal/logging"
)

// NotifyFunc delivers a reminder message to the user. The daemon wires
// this to whatever surface is available (log line, Discord channel).
type NotifyFunc func(message string) error

// Reminder emits one break suggestion per distraction streak. Staying
// in the distraction does not repeat the message; leaving and coming
// back re-arms it.
type Reminder struct {
	notify NotifyFunc

	mu   sync.Mutex
	sent bool
}

// NewReminder creates a reminder sink delivering through notify.
func NewReminder(notify NotifyFunc) *Reminder {
	return &Reminder{notify: notify}
}

// Triggered sends the reminder once per streak.
func (r *Reminder) Triggered(appID string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent {
		return
	}
	r.sent = true

	minutes := int(elapsed.Round(time.Minute) / time.Minute)
	msg := fmt.Sprintf("You've been in %s for %d minutes straight. Time for a break?", appID, minutes)
	if err := r.notify(msg); err != nil {
		logging.Warn("reminder", "delivery failed: %v", err)
		// Leave sent=true: a broken notifier should not retry every
		// tick for the same streak.
		return
	}
	logging.Info("reminder", "sent for %s after %d minutes", appID, minutes)
}

// Cleared re-arms the reminder for the next streak.
func (r *Reminder) Cleared() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = false
}

// Close is a no-op; the reminder holds no visual resource.
func (r *Reminder) Close() {}
