// Package detect turns a stream of hotkey press events into trigger
// decisions. A Detector is confined to the goroutine that feeds it events
// and needs no locking.
package detect

import "time"

// Clock supplies timestamps, injected so tests can simulate time.
type Clock func() time.Time

// Detector fires when RequiredCount presses land inside a rolling window.
// After firing it returns to idle and needs a fresh window to fire again.
// Fires closer together than the minimum retrigger interval are discarded.
type Detector struct {
	window       time.Duration
	minRetrigger time.Duration
	required     int
	clock        Clock

	presses  []time.Time
	lastFire time.Time
	fired    bool
}

// New creates a detector. required is clamped to at least 1; a zero clock
// defaults to time.Now.
func New(window, minRetrigger time.Duration, required int, clock Clock) *Detector {
	if required < 1 {
		required = 1
	}
	if clock == nil {
		clock = time.Now
	}
	return &Detector{
		window:       window,
		minRetrigger: minRetrigger,
		required:     required,
		clock:        clock,
	}
}

// Press records a press at the given time and reports whether it completes a
// trigger sequence. A zero time uses the detector clock. Presses exactly on
// the window boundary count as inside the window.
func (d *Detector) Press(at time.Time) bool {
	if at.IsZero() {
		at = d.clock()
	}

	kept := d.presses[:0]
	for _, t := range d.presses {
		if at.Sub(t) <= d.window {
			kept = append(kept, t)
		}
	}
	d.presses = append(kept, at)

	if len(d.presses) < d.required {
		return false
	}
	d.presses = d.presses[:0]

	if d.fired && at.Sub(d.lastFire) < d.minRetrigger {
		return false
	}
	d.lastFire = at
	d.fired = true
	return true
}

// Reset clears all recorded presses so future events restart the sequence.
func (d *Detector) Reset() {
	d.presses = d.presses[:0]
}

// LastFire returns the time of the most recent trigger, zero if none.
func (d *Detector) LastFire() time.Time {
	if !d.fired {
		return time.Time{}
	}
	return d.lastFire
}
