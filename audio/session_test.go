package audio

import (
	"math"
	"testing"
	"time"
)

func TestSessionBufferIntegrity(t *testing.T) {
	ctx := NewFakeContext()
	s, err := StartSession(ctx, nil, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	blocks := [][]int16{
		{1, 2, 3, 4},
		{-5, 6, -7, 8, 9},
		{1000, -1000, 32767, -32768},
	}
	var want []int16
	dev := ctx.Last()
	for _, b := range blocks {
		dev.Feed(b)
		want = append(want, b...)
	}

	got, _ := s.Stop()
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
	if !dev.Closed() {
		t.Error("device not closed after Stop")
	}
}

func TestSessionStopIgnoresLateBlocks(t *testing.T) {
	ctx := NewFakeContext()
	s, err := StartSession(ctx, nil, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	dev := ctx.Last()
	dev.Feed([]int16{1, 2, 3})
	got, _ := s.Stop()

	// A straggler block from the audio thread must not corrupt anything.
	dev.Feed([]int16{9, 9, 9})

	if len(got) != 3 {
		t.Fatalf("got %d samples, want 3", len(got))
	}
}

func TestSessionEmptyStop(t *testing.T) {
	ctx := NewFakeContext()
	s, err := StartSession(ctx, nil, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	got, dur := s.Stop()
	if len(got) != 0 {
		t.Fatalf("got %d samples, want 0", len(got))
	}
	if dur != 0 {
		t.Fatalf("got duration %v, want 0", dur)
	}
}

func TestSessionDuration(t *testing.T) {
	ctx := NewFakeContext()
	s, err := StartSession(ctx, nil, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	ctx.Last().FeedSilence(SampleRate) // one second of audio
	_, dur := s.Stop()
	if dur != time.Second {
		t.Fatalf("got duration %v, want 1s", dur)
	}
}

func TestSessionLevelCallback(t *testing.T) {
	ctx := NewFakeContext()
	var levels []float64
	s, err := StartSession(ctx, nil, DefaultConfig(), func(level float64, _ time.Time) {
		levels = append(levels, level)
	})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	dev := ctx.Last()
	dev.FeedSilence(BlockSize)
	dev.FeedTone(BlockSize)
	s.Stop()

	if len(levels) != 2 {
		t.Fatalf("got %d level samples, want 2", len(levels))
	}
	if levels[0] != 0 {
		t.Errorf("silence level = %v, want 0", levels[0])
	}
	if levels[1] <= 0.1 {
		t.Errorf("tone level = %v, want > 0.1", levels[1])
	}
}

func TestLevel(t *testing.T) {
	if got := Level(nil); got != 0 {
		t.Errorf("Level(nil) = %v, want 0", got)
	}

	// Full-scale signal clamps to 1.
	loud := make([]byte, 512)
	for i := 0; i < len(loud); i += 2 {
		loud[i] = 0xff
		loud[i+1] = 0x7f
	}
	if got := Level(loud); got != 1 {
		t.Errorf("Level(full scale) = %v, want 1", got)
	}

	// Known amplitude: constant 3277 ≈ 0.1 of full scale, gain 10 → ~1.
	mid := make([]byte, 512)
	for i := 0; i < len(mid); i += 2 {
		mid[i] = byte(3277 & 0xff)
		mid[i+1] = byte(3277 >> 8)
	}
	got := Level(mid)
	if math.Abs(got-1) > 0.01 {
		t.Errorf("Level(0.1 scale) = %v, want ~1", got)
	}
}

func TestDeviceByIndex(t *testing.T) {
	ctx := NewFakeContext(
		DeviceInfo{Index: 0, Name: "Internal Mic"},
		DeviceInfo{Index: 1, Name: "USB Mic"},
	)

	if d := DeviceByIndex(ctx, -1); d != nil {
		t.Errorf("negative index should mean default device, got %q", d.Name)
	}
	if d := DeviceByIndex(ctx, 1); d == nil || d.Name != "USB Mic" {
		t.Errorf("DeviceByIndex(1) = %+v, want USB Mic", d)
	}
	// Stale index from an unplugged device falls back to the default.
	if d := DeviceByIndex(ctx, 7); d != nil {
		t.Errorf("out-of-range index should fall back to default, got %q", d.Name)
	}
}
