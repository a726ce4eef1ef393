package transcriber

import (
	"context"
	"sync"

	"v2t/encoder"
)

// FakeBackend is an in-memory Backend for tests.
type FakeBackend struct {
	name      string
	online    bool
	text      string
	err       error
	available error
	panics    bool

	mu    sync.Mutex
	calls int
	last  string // path of the last take received
}

func NewFakeBackend(name string, online bool, text string, err error) *FakeBackend {
	return &FakeBackend{name: name, online: online, text: text, err: err}
}

// SetUnavailable makes Available return err.
func (f *FakeBackend) SetUnavailable(err error) { f.available = err }

// SetPanics makes Transcribe panic instead of returning.
func (f *FakeBackend) SetPanics(on bool) { f.panics = on }

func (f *FakeBackend) Name() string           { return f.name }
func (f *FakeBackend) Online() bool           { return f.online }
func (f *FakeBackend) Available() error       { return f.available }
func (f *FakeBackend) Format() encoder.Format { return encoder.FormatWAV }

func (f *FakeBackend) Transcribe(_ context.Context, path string, _ string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.last = path
	f.mu.Unlock()
	if f.panics {
		panic("fake backend panic")
	}
	return f.text, f.err
}

// Calls reports how many takes Transcribe received.
func (f *FakeBackend) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// LastPath returns the take path of the most recent call.
func (f *FakeBackend) LastPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}
