package main

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"v2t/audio"
	"v2t/encoder"
	"v2t/history"
	"v2t/notify"
	"v2t/settings"
	"v2t/transcriber"
)

type ctlFixture struct {
	t       *testing.T
	ctx     *audio.FakeContext
	store   *settings.Store
	online  *transcriber.FakeBackend
	offline *transcriber.FakeBackend
	notif   *notify.Fake
	ctrl    *Controller

	mu     sync.Mutex
	copied []string
	pasted int
	clip   string
}

func newFixture(t *testing.T) *ctlFixture {
	t.Helper()
	f := &ctlFixture{t: t}
	f.ctx = audio.NewFakeContext(
		audio.DeviceInfo{Index: 0, Name: "USB Mic"},
		audio.DeviceInfo{Index: 1, Name: "Webcam Mic"},
	)

	store, err := settings.Open(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("opening settings: %v", err)
	}
	t.Cleanup(store.Close)
	f.store = store

	f.online = transcriber.NewFakeBackend("fake-online", true, "hello world from mars", nil)
	f.offline = transcriber.NewFakeBackend("fake-offline", false, "offline text", nil)
	f.notif = notify.NewFake()

	disp := transcriber.NewDispatcher(f.online, f.offline)
	disp.TempDir = t.TempDir()

	f.ctrl = NewController(ControllerConfig{
		Audio:      f.ctx,
		Settings:   store,
		Dispatcher: disp,
		Notifier:   f.notif,
		ReadClip: func() (string, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.clip, nil
		},
		CopyText: func(s string) error {
			f.mu.Lock()
			f.copied = append(f.copied, s)
			f.clip = s
			f.mu.Unlock()
			return nil
		},
		SendPaste: func() error {
			f.mu.Lock()
			f.pasted++
			f.mu.Unlock()
			return nil
		},
		PlayStart: func() {},
		PlayEnd:   func() {},
		PlayError: func() {},
	})
	return f
}

func (f *ctlFixture) waitResult() transcriber.Result {
	f.t.Helper()
	select {
	case res := <-f.ctrl.Results():
		return res
	case <-time.After(2 * time.Second):
		f.t.Fatal("timed out waiting for transcription result")
		return transcriber.Result{}
	}
}

func (f *ctlFixture) copiedTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.copied))
	copy(out, f.copied)
	return out
}

func (f *ctlFixture) notified(substr string) bool {
	for _, m := range f.notif.Messages() {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func TestToggleCycle(t *testing.T) {
	f := newFixture(t)
	f.store.Update(func(s *settings.Settings) { s.AutoPaste = false })

	f.ctrl.Toggle()
	if got := f.ctrl.State(); got != stateRecording {
		t.Fatalf("state after first toggle = %v, want recording", got)
	}
	dev := f.ctx.Last()
	if dev == nil || !dev.Running() {
		t.Fatal("capture device not running")
	}
	dev.FeedTone(audio.SampleRate) // one second of signal

	f.ctrl.Toggle()
	if got := f.ctrl.State(); got != stateTranscribing {
		t.Fatalf("state after second toggle = %v, want transcribing", got)
	}
	if !dev.Closed() {
		t.Fatal("capture device not released after stop")
	}

	res := f.waitResult()
	if !res.Success {
		t.Fatalf("result not successful: %s", res.ErrDetail)
	}
	if res.Text != "hello world from mars" {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Duration != time.Second {
		t.Fatalf("duration = %v, want 1s", res.Duration)
	}

	f.ctrl.Finish(res)
	if got := f.ctrl.State(); got != stateIdle {
		t.Fatalf("state after finish = %v, want idle", got)
	}
	if got := f.copiedTexts(); len(got) != 1 || got[0] != "hello world from mars" {
		t.Fatalf("copied = %v", got)
	}
	if f.ctrl.LastText() != "hello world from mars" {
		t.Fatalf("last text = %q", f.ctrl.LastText())
	}
	if f.online.Calls() != 1 || f.offline.Calls() != 0 {
		t.Fatalf("backend calls online=%d offline=%d", f.online.Calls(), f.offline.Calls())
	}
}

func TestTogglePairDispatchesOneTake(t *testing.T) {
	f := newFixture(t)
	f.store.Update(func(s *settings.Settings) { s.AutoPaste = false })

	for i := 1; i <= 3; i++ {
		f.ctrl.Toggle()
		f.ctx.Last().FeedTone(audio.SampleRate / 2)
		f.ctrl.Toggle()
		f.ctrl.Finish(f.waitResult())

		if got := f.online.Calls(); got != i {
			t.Fatalf("after %d pairs: %d dispatches", i, got)
		}
		if got := f.ctx.OpenCount(); got != i {
			t.Fatalf("after %d pairs: %d device opens", i, got)
		}
	}
}

// gateBackend blocks in Transcribe until released.
type gateBackend struct {
	release chan struct{}
}

func (g *gateBackend) Name() string           { return "gate" }
func (g *gateBackend) Online() bool           { return true }
func (g *gateBackend) Available() error       { return nil }
func (g *gateBackend) Format() encoder.Format { return encoder.FormatWAV }

func (g *gateBackend) Transcribe(context.Context, string, string) (string, error) {
	<-g.release
	return "gated", nil
}

func TestToggleWhileTranscribingIgnored(t *testing.T) {
	f := newFixture(t)
	f.store.Update(func(s *settings.Settings) { s.AutoPaste = false })

	gate := &gateBackend{release: make(chan struct{})}
	disp := transcriber.NewDispatcher(gate, f.offline)
	disp.TempDir = t.TempDir()
	f.ctrl.disp = disp

	f.ctrl.Toggle()
	f.ctx.Last().FeedTone(audio.SampleRate)
	f.ctrl.Toggle()

	// Press during transcription: no new recording, no state change.
	f.ctrl.Toggle()
	if got := f.ctrl.State(); got != stateTranscribing {
		t.Fatalf("state = %v, want transcribing", got)
	}
	if got := f.ctx.OpenCount(); got != 1 {
		t.Fatalf("device opens = %d, want 1", got)
	}

	close(gate.release)
	res := f.waitResult()
	f.ctrl.Finish(res)
	if got := f.ctrl.State(); got != stateIdle {
		t.Fatalf("state = %v, want idle", got)
	}
}

func TestEmptyRecordingSkipsTranscription(t *testing.T) {
	f := newFixture(t)

	f.ctrl.Toggle()
	f.ctx.Last().FeedTone(100) // well under the 100ms minimum
	f.ctrl.Toggle()

	if got := f.ctrl.State(); got != stateIdle {
		t.Fatalf("state = %v, want idle", got)
	}
	select {
	case res := <-f.ctrl.Results():
		t.Fatalf("unexpected result %+v", res)
	case <-time.After(100 * time.Millisecond):
	}
	if f.online.Calls() != 0 || f.offline.Calls() != 0 {
		t.Fatal("backend called for an empty take")
	}
	if !f.notified("Nothing recorded") {
		t.Fatalf("missing notice, got %v", f.notif.Messages())
	}
}

func TestSelectedDeviceFallsBackToDefault(t *testing.T) {
	f := newFixture(t)
	f.store.Update(func(s *settings.Settings) {
		idx := 0
		s.MicIndex = &idx
		s.AutoPaste = false
	})
	f.ctx.FailSelected(true)

	f.ctrl.Toggle()
	if got := f.ctrl.State(); got != stateRecording {
		t.Fatalf("state = %v, want recording", got)
	}
	if got := f.ctx.Last().DeviceName(); got != "system default" {
		t.Fatalf("recording on %q, want system default", got)
	}

	f.ctx.Last().FeedTone(audio.SampleRate)
	f.ctrl.Toggle()
	f.ctrl.Finish(f.waitResult())
	if f.online.Calls() != 1 {
		t.Fatalf("dispatches = %d, want 1", f.online.Calls())
	}
}

func TestOpenFailureReturnsToIdle(t *testing.T) {
	f := newFixture(t)
	f.ctx.FailNext(1)

	f.ctrl.Toggle()
	if got := f.ctrl.State(); got != stateIdle {
		t.Fatalf("state = %v, want idle", got)
	}
	if !f.notified("Recording failed") {
		t.Fatalf("missing failure notice, got %v", f.notif.Messages())
	}

	// The controller recovers: the next toggle records normally.
	f.ctrl.Toggle()
	if got := f.ctrl.State(); got != stateRecording {
		t.Fatalf("state after retry = %v, want recording", got)
	}
	f.ctrl.Shutdown()
}

func TestAutoPasteRestoresClipboard(t *testing.T) {
	old := clipRestoreDelay
	clipRestoreDelay = 10 * time.Millisecond
	defer func() { clipRestoreDelay = old }()

	f := newFixture(t)
	f.mu.Lock()
	f.clip = "previous content"
	f.mu.Unlock()

	f.ctrl.Toggle()
	f.ctx.Last().FeedTone(audio.SampleRate)
	f.ctrl.Toggle()
	f.ctrl.Finish(f.waitResult())

	f.mu.Lock()
	pasted := f.pasted
	f.mu.Unlock()
	if pasted != 1 {
		t.Fatalf("pasted %d times, want 1", pasted)
	}

	deadline := time.Now().Add(time.Second)
	for {
		got := f.copiedTexts()
		if len(got) >= 2 && got[len(got)-1] == "previous content" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("clipboard never restored, copies: %v", got)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFailedResultNotifies(t *testing.T) {
	f := newFixture(t)

	f.ctrl.Finish(transcriber.Result{
		Success:   false,
		Backend:   "fake-online",
		ErrDetail: "upstream exploded",
	})

	if got := f.ctrl.State(); got != stateIdle {
		t.Fatalf("state = %v, want idle", got)
	}
	if !f.notified("upstream exploded") {
		t.Fatalf("missing failure notice, got %v", f.notif.Messages())
	}
	if len(f.copiedTexts()) != 0 {
		t.Fatal("clipboard touched on failure")
	}
}

func TestShutdownReleasesCapture(t *testing.T) {
	f := newFixture(t)

	f.ctrl.Toggle()
	dev := f.ctx.Last()
	dev.FeedTone(audio.SampleRate)

	f.ctrl.Shutdown()
	if got := f.ctrl.State(); got != stateIdle {
		t.Fatalf("state = %v, want idle", got)
	}
	if !dev.Closed() {
		t.Fatal("capture device not released on shutdown")
	}
	if f.online.Calls() != 0 {
		t.Fatal("aborted take was transcribed")
	}
}

func TestAutoStopDispatchesTake(t *testing.T) {
	f := newFixture(t)
	f.store.Update(func(s *settings.Settings) {
		s.AutoPaste = false
		s.SilenceEnabled = true
	})

	f.ctrl.Toggle()
	f.ctx.Last().FeedTone(audio.SampleRate)

	f.ctrl.mu.Lock()
	sess := f.ctrl.session
	f.ctrl.mu.Unlock()

	f.ctrl.autoStop(sess)
	if got := f.ctrl.State(); got != stateTranscribing {
		t.Fatalf("state = %v, want transcribing", got)
	}
	res := f.waitResult()
	if !res.Success {
		t.Fatalf("result not successful: %s", res.ErrDetail)
	}

	// A stale auto-stop for the finished session must not fire again.
	f.ctrl.Finish(res)
	f.ctrl.autoStop(sess)
	if got := f.ctrl.State(); got != stateIdle {
		t.Fatalf("state = %v, want idle", got)
	}
}

func TestOfflineRouting(t *testing.T) {
	f := newFixture(t)
	f.store.Update(func(s *settings.Settings) {
		s.UseOnline = false
		s.AutoPaste = false
	})

	f.ctrl.Toggle()
	f.ctx.Last().FeedTone(audio.SampleRate)
	f.ctrl.Toggle()
	res := f.waitResult()
	f.ctrl.Finish(res)

	if f.offline.Calls() != 1 || f.online.Calls() != 0 {
		t.Fatalf("backend calls online=%d offline=%d", f.online.Calls(), f.offline.Calls())
	}
	if res.Online {
		t.Fatal("result marked online for an offline take")
	}
}

func TestHistorySaved(t *testing.T) {
	f := newFixture(t)
	f.store.Update(func(s *settings.Settings) { s.AutoPaste = false })

	hist, err := history.Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("opening history: %v", err)
	}
	t.Cleanup(func() { hist.Close() })
	f.ctrl.hist = hist

	f.ctrl.Toggle()
	f.ctx.Last().FeedTone(audio.SampleRate)
	f.ctrl.Toggle()
	f.ctrl.Finish(f.waitResult())

	entries, err := hist.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("listing history: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(entries))
	}
	if entries[0].Text != "hello world from mars" {
		t.Fatalf("saved text = %q", entries[0].Text)
	}
}
