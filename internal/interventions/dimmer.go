// Package interventions holds the sinks the watchdog drives: the
// screen dimmer, the scrolling-text marquee, and the break reminder.
// Sinks manage intensity and lifecycle; actual rendering is the
// platform shell's job and stays outside this module.
package interventions

import (
	"sync"
	"time"

	"flowday/internal/logging"
)

// Dimmer ramp parameters, per tick: the overlay darkens slowly while
// triggered and recovers quickly once the distraction ends.
const (
	dimStep    = 0.005
	dimMax     = 0.85
	dimRecover = 0.02
)

// Dimmer tracks the darkness of the night-time screen overlay. Alpha is
// 0 (overlay absent) to dimMax.
type Dimmer struct {
	mu    sync.Mutex
	alpha float64
	shown bool
}

// NewDimmer creates a dimmer sink with the overlay absent.
func NewDimmer() *Dimmer {
	return &Dimmer{}
}

// Triggered darkens one step. The overlay is acquired on the first
// step.
func (d *Dimmer) Triggered(appID string, elapsed time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.shown {
		d.shown = true
		logging.Info("dimmer", "overlay acquired for %s", appID)
	}
	if d.alpha < dimMax {
		d.alpha += dimStep
		if d.alpha > dimMax {
			d.alpha = dimMax
		}
	}
}

// Cleared lightens one recovery step and releases the overlay once
// fully transparent.
func (d *Dimmer) Cleared() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.shown {
		return
	}
	d.alpha -= dimRecover
	if d.alpha <= 0 {
		d.alpha = 0
		d.shown = false
		logging.Info("dimmer", "overlay released")
	}
}

// Alpha returns the current overlay darkness.
func (d *Dimmer) Alpha() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.alpha
}

// Active reports whether the overlay resource is currently held.
func (d *Dimmer) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shown
}

// Close force-releases the overlay, for daemon teardown.
func (d *Dimmer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.shown {
		d.alpha = 0
		d.shown = false
		logging.Info("dimmer", "overlay released on shutdown")
	}
}
