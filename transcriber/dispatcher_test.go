package transcriber

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func newTestDispatcher(t *testing.T, online, offline Backend) *Dispatcher {
	t.Helper()
	d := NewDispatcher(online, offline)
	d.TempDir = t.TempDir()
	return d
}

func TestDispatcherSuccess(t *testing.T) {
	offline := NewFakeBackend("whisper-local", false, "  hello world  ", nil)
	d := newTestDispatcher(t, nil, offline)

	samples := make([]int16, 16000)
	res := d.Transcribe(context.Background(), samples, "en", false)

	if !res.Success {
		t.Fatalf("Success = false, detail: %s", res.ErrDetail)
	}
	if res.Text != "hello world" {
		t.Errorf("Text = %q, want trimmed %q", res.Text, "hello world")
	}
	if res.Backend != "whisper-local" || res.Online {
		t.Errorf("backend attribution = %q online=%v", res.Backend, res.Online)
	}
	if res.Duration != time.Second {
		t.Errorf("Duration = %v, want 1s", res.Duration)
	}
}

func TestDispatcherBackendError(t *testing.T) {
	offline := NewFakeBackend("whisper-local", false, "", errors.New("model exploded"))
	d := newTestDispatcher(t, nil, offline)

	res := d.Transcribe(context.Background(), make([]int16, 100), "en", false)
	if res.Success {
		t.Fatal("Success = true for failing backend")
	}
	if res.ErrDetail == "" {
		t.Fatal("ErrDetail empty for failing backend")
	}
}

func TestDispatcherRecoversPanic(t *testing.T) {
	offline := NewFakeBackend("whisper-local", false, "", nil)
	offline.SetPanics(true)
	d := newTestDispatcher(t, nil, offline)

	res := d.Transcribe(context.Background(), make([]int16, 100), "en", false)
	if res.Success {
		t.Fatal("Success = true after backend panic")
	}
	if res.ErrDetail == "" {
		t.Fatal("ErrDetail empty after backend panic")
	}
}

func TestDispatcherPrefersOnlineWhenAvailable(t *testing.T) {
	online := NewFakeBackend("groq", true, "online text", nil)
	offline := NewFakeBackend("whisper-local", false, "offline text", nil)
	d := newTestDispatcher(t, online, offline)

	res := d.Transcribe(context.Background(), make([]int16, 100), "en", true)
	if res.Text != "online text" || !res.Online {
		t.Errorf("got %q online=%v, want the online backend", res.Text, res.Online)
	}
}

func TestDispatcherFallsBackWhenOnlineUnavailable(t *testing.T) {
	online := NewFakeBackend("groq", true, "online text", nil)
	online.SetUnavailable(ErrNoAPIKey)
	offline := NewFakeBackend("whisper-local", false, "offline text", nil)
	d := newTestDispatcher(t, online, offline)

	res := d.Transcribe(context.Background(), make([]int16, 100), "en", true)
	if res.Text != "offline text" || res.Online {
		t.Errorf("got %q online=%v, want offline fallback", res.Text, res.Online)
	}
	if online.Calls() != 0 {
		t.Errorf("unavailable online backend was called %d times", online.Calls())
	}
}

func TestDispatcherIgnoresOnlinePreferenceWhenOffline(t *testing.T) {
	online := NewFakeBackend("groq", true, "online text", nil)
	offline := NewFakeBackend("whisper-local", false, "offline text", nil)
	d := newTestDispatcher(t, online, offline)

	res := d.Transcribe(context.Background(), make([]int16, 100), "en", false)
	if res.Text != "offline text" {
		t.Errorf("got %q, want offline backend when online not preferred", res.Text)
	}
}

func TestDispatcherEmptyTranscription(t *testing.T) {
	offline := NewFakeBackend("whisper-local", false, "   ", nil)
	d := newTestDispatcher(t, nil, offline)

	res := d.Transcribe(context.Background(), make([]int16, 100), "en", false)
	if !res.Success {
		t.Fatalf("Success = false: %s", res.ErrDetail)
	}
	if res.Text != "" {
		t.Errorf("Text = %q, want empty", res.Text)
	}
}

func TestDispatcherCleansTempFiles(t *testing.T) {
	offline := NewFakeBackend("whisper-local", false, "text", nil)
	d := newTestDispatcher(t, nil, offline)

	d.Transcribe(context.Background(), make([]int16, 100), "en", false)

	if offline.LastPath() == "" {
		t.Fatal("backend never saw a take file")
	}
	entries, err := os.ReadDir(d.TempDir)
	if err != nil {
		t.Fatalf("reading temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("%d files left in temp dir", len(entries))
	}
}

func TestDispatcherNoBackend(t *testing.T) {
	d := newTestDispatcher(t, nil, nil)
	res := d.Transcribe(context.Background(), make([]int16, 100), "en", true)
	if res.Success || res.ErrDetail == "" {
		t.Fatalf("expected failure result, got %+v", res)
	}
}
