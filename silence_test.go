package main

import (
	"testing"
	"time"
)

func TestSilenceFiresAfterSpan(t *testing.T) {
	d := newSilenceDetector(true, 3)
	base := time.Now()

	for ms := 0; ms < 3000; ms += 100 {
		if d.Sample(0.001, base.Add(time.Duration(ms)*time.Millisecond)) {
			t.Fatalf("fired early at %dms", ms)
		}
	}
	if !d.Sample(0.001, base.Add(3*time.Second)) {
		t.Fatal("expected fire after 3s of silence")
	}
}

func TestSilenceFiresOnlyOnce(t *testing.T) {
	d := newSilenceDetector(true, 3)
	base := time.Now()

	d.Sample(0.001, base)
	if !d.Sample(0.001, base.Add(3*time.Second)) {
		t.Fatal("expected fire")
	}
	for ms := 3100; ms < 10000; ms += 100 {
		if d.Sample(0.001, base.Add(time.Duration(ms)*time.Millisecond)) {
			t.Fatalf("fired a second time at %dms", ms)
		}
	}
}

func TestSilenceResetOnSound(t *testing.T) {
	d := newSilenceDetector(true, 3)
	base := time.Now()

	d.Sample(0.001, base)
	d.Sample(0.001, base.Add(2*time.Second))
	// Loud sample resets the quiet clock.
	d.Sample(0.5, base.Add(2500*time.Millisecond))

	if d.Sample(0.001, base.Add(3*time.Second)) {
		t.Fatal("fired despite recent sound")
	}
	if d.Sample(0.001, base.Add(5900*time.Millisecond)) {
		t.Fatal("fired before span elapsed after reset")
	}
	if !d.Sample(0.001, base.Add(6*time.Second)) {
		t.Fatal("expected fire 3s after the quiet run restarted")
	}
}

func TestSilenceDisabledInert(t *testing.T) {
	d := newSilenceDetector(false, 2)
	base := time.Now()
	for ms := 0; ms <= 60000; ms += 500 {
		if d.Sample(0, base.Add(time.Duration(ms)*time.Millisecond)) {
			t.Fatal("disabled detector fired")
		}
	}
}

func TestSilenceFloorBoundary(t *testing.T) {
	// A level exactly at the floor counts as sound.
	d := newSilenceDetector(true, 2)
	base := time.Now()
	d.Sample(silenceFloor, base)
	d.Sample(silenceFloor, base.Add(time.Second))
	if d.Sample(silenceFloor, base.Add(5*time.Second)) {
		t.Fatal("level at the floor must not count as silence")
	}

	d2 := newSilenceDetector(true, 2)
	d2.Sample(silenceFloor-0.001, base)
	if !d2.Sample(silenceFloor-0.001, base.Add(2*time.Second)) {
		t.Fatal("level just under the floor must count as silence")
	}
}

func TestSilenceLeadingQuietCounts(t *testing.T) {
	// Never speaking at all still auto-stops.
	d := newSilenceDetector(true, 3)
	base := time.Now()
	d.Sample(0, base)
	if !d.Sample(0, base.Add(3*time.Second)) {
		t.Fatal("expected fire on an entirely silent recording")
	}
}
