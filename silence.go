package main

import "time"

// silenceFloor is the normalized level below which a block counts as
// silent.
const silenceFloor = 0.02

// silenceDetector auto-stops a recording after a continuous quiet run.
// Enabled state and span are fixed when the recording starts; toggling
// the setting mid-recording has no effect on the running take.
type silenceDetector struct {
	enabled    bool
	span       time.Duration
	quietSince time.Time // zero while the level is above the floor
	fired      bool
}

func newSilenceDetector(enabled bool, seconds int) *silenceDetector {
	return &silenceDetector{
		enabled: enabled,
		span:    time.Duration(seconds) * time.Second,
	}
}

// Sample feeds one level reading. Returns true exactly once per
// recording, when the level has stayed below the floor for the full
// span. Leading silence counts: the quiet clock can start at the very
// first sample.
func (d *silenceDetector) Sample(level float64, now time.Time) bool {
	if !d.enabled || d.fired {
		return false
	}
	if level >= silenceFloor {
		d.quietSince = time.Time{}
		return false
	}
	if d.quietSince.IsZero() {
		d.quietSince = now
		return false
	}
	if now.Sub(d.quietSince) >= d.span {
		d.fired = true
		return true
	}
	return false
}
