// Package blink turns a stream of eye aspect ratios into discrete blinks and
// a trailing blink rate.
package blink

import (
	"math"
	"time"
)

// Config holds blink detection thresholds.
type Config struct {
	CloseThreshold float64       // EAR below this counts as closed
	MinDuration    time.Duration // Shorter closures are noise
	MaxDuration    time.Duration // Longer closures are a drowsy episode, not a blink
	Window         time.Duration // Sliding window for Rate
}

// DefaultConfig returns the standard blink thresholds.
func DefaultConfig() Config {
	return Config{
		CloseThreshold: 0.25,
		MinDuration:    100 * time.Millisecond,
		MaxDuration:    500 * time.Millisecond,
		Window:         60 * time.Second,
	}
}

// Tracker is a hysteresis blink detector. It is owned by a single
// goroutine for the lifetime of one detection session and is not safe for
// concurrent use.
type Tracker struct {
	config Config

	closed         bool
	lastTransition time.Time
	timestamps     []time.Time
}

// NewTracker creates a tracker with the given config.
func NewTracker(config Config) *Tracker {
	return &Tracker{config: config}
}

// Update feeds one EAR sample observed at now. It returns true when the
// sample completes a valid blink.
func (t *Tracker) Update(ear float64, now time.Time) bool {
	ear = sanitize(ear)

	if ear < t.config.CloseThreshold {
		if !t.closed {
			t.closed = true
			t.lastTransition = now
		}
		return false
	}

	if !t.closed {
		return false
	}

	t.closed = false
	duration := now.Sub(t.lastTransition)
	t.lastTransition = now
	if duration < t.config.MinDuration || duration > t.config.MaxDuration {
		return false
	}
	t.record(now)
	return true
}

// record appends a blink, keeping the log sorted.
func (t *Tracker) record(at time.Time) {
	n := len(t.timestamps)
	if n > 0 && at.Before(t.timestamps[n-1]) {
		at = t.timestamps[n-1]
	}
	t.timestamps = append(t.timestamps, at)
}

// Rate prunes blinks older than the window and returns how many remain.
func (t *Tracker) Rate(now time.Time) int {
	t.prune(now)
	return len(t.timestamps)
}

func (t *Tracker) prune(now time.Time) {
	cutoff := now.Add(-t.config.Window)
	i := 0
	for i < len(t.timestamps) && !t.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		t.timestamps = append(t.timestamps[:0], t.timestamps[i:]...)
	}
}

// Closed reports whether the eyes are currently considered closed.
func (t *Tracker) Closed() bool {
	return t.closed
}

// Timestamps returns a copy of the recorded blink times.
func (t *Tracker) Timestamps() []time.Time {
	out := make([]time.Time, len(t.timestamps))
	copy(out, t.timestamps)
	return out
}

// Reset clears all state. Called when detection stops.
func (t *Tracker) Reset() {
	t.closed = false
	t.lastTransition = time.Time{}
	t.timestamps = t.timestamps[:0]
}

// sanitize clamps EAR into [0,1]. NaN maps to the open-eye fallback so bad
// input can never start a closure.
func sanitize(ear float64) float64 {
	switch {
	case math.IsNaN(ear):
		return 0.25
	case ear < 0:
		return 0
	case ear > 1:
		return 1
	}
	return ear
}
