package interventions

import (
	"math/rand"
	"sync"
	"time"

	"flowday/internal/logging"
)

// Marquee spawn cadence: the base delay between messages tightens as
// the streak runs past the threshold, down to a floor.
const (
	marqueeBaseDelay  = 2 * time.Second
	marqueeDelayStep  = 200 * time.Millisecond
	marqueeStepEvery  = 5 * time.Minute
	marqueeFloorDelay = 300 * time.Millisecond
)

// marqueeMessages is the pool of lines scrolled across the screen.
var marqueeMessages = []string{
	"It is watching you...",
	"The abyss gazes back",
	"Your time is draining into the void",
	"Ancient whispers echo in your ear...",
	"The line between real and unreal is blurring",
	"Did you hear that voice?",
	"Ph'nglui... put the phone down",
	"Your sanity meter is dropping",
	"Something nameless is calling you...",
	"This is not a dream, but you should wake up",
	"In an endless universe, you are looking at a screen",
	"Your soul longs for freedom",
	"Look up at the real sky once in a while",
	"The ink on the parchment is fading...",
	"Despair is endless, just like this feed",
	"The dreamlands call you to rest",
	"Raise your head and gaze into the void",
	"Ancient wisdom: take a break",
}

// Marquee produces scrolling warning messages while a distraction
// streak is past its threshold. The rendering surface pulls Next for
// text and cadence; the sink only decides when and how fast.
type Marquee struct {
	threshold time.Duration
	rand      *rand.Rand

	mu      sync.Mutex
	active  bool
	elapsed time.Duration
}

// NewMarquee creates a marquee sink for the given trigger threshold.
func NewMarquee(threshold time.Duration) *Marquee {
	return &Marquee{
		threshold: threshold,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Triggered activates the marquee and records the streak length, which
// controls message density.
func (m *Marquee) Triggered(appID string, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		m.active = true
		logging.Info("marquee", "overlay acquired for %s", appID)
	}
	m.elapsed = elapsed
}

// Cleared deactivates the marquee.
func (m *Marquee) Cleared() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active {
		m.active = false
		logging.Info("marquee", "overlay released")
	}
}

// Active reports whether messages should be spawning.
func (m *Marquee) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Next returns a message and the delay before the following one. The
// second return is false when the marquee is inactive.
func (m *Marquee) Next() (string, time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return "", 0, false
	}
	msg := marqueeMessages[m.rand.Intn(len(marqueeMessages))]
	return msg, spawnDelay(m.elapsed, m.threshold), true
}

// Close deactivates the marquee, for daemon teardown.
func (m *Marquee) Close() {
	m.Cleared()
}

// spawnDelay shrinks the gap between messages by one step for every
// five minutes the streak has run beyond the threshold.
func spawnDelay(elapsed, threshold time.Duration) time.Duration {
	over := elapsed - threshold
	if over < 0 {
		over = 0
	}
	delay := marqueeBaseDelay - time.Duration(over/marqueeStepEvery)*marqueeDelayStep
	if delay < marqueeFloorDelay {
		delay = marqueeFloorDelay
	}
	return delay
}
