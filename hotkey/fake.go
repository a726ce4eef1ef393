package hotkey

import (
	"sync"
	"time"
)

// FakeListener is an in-memory Listener for tests.
type FakeListener struct {
	toggled chan struct{}

	mu           sync.Mutex
	binding      string
	unregistered bool
	captureDesc  string
	captureErr   error
}

func NewFake() *FakeListener {
	return &FakeListener{
		toggled: make(chan struct{}, 4),
		binding: DefaultBinding,
	}
}

func (f *FakeListener) Register() error { return nil }

func (f *FakeListener) Unregister() {
	f.mu.Lock()
	f.unregistered = true
	f.mu.Unlock()
}

func (f *FakeListener) Toggled() <-chan struct{} { return f.toggled }

func (f *FakeListener) Rebind(descriptor string) error {
	chord, err := ParseChord(descriptor)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.binding = chord.String()
	f.mu.Unlock()
	return nil
}

func (f *FakeListener) Binding() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.binding
}

func (f *FakeListener) Capture(time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.captureDesc, f.captureErr
}

// ScriptCapture sets what the next Capture call returns.
func (f *FakeListener) ScriptCapture(descriptor string, err error) {
	f.mu.Lock()
	f.captureDesc = descriptor
	f.captureErr = err
	f.mu.Unlock()
}

// SimToggle simulates one chord press.
func (f *FakeListener) SimToggle() { f.toggled <- struct{}{} }

// Unregistered reports whether Unregister was called.
func (f *FakeListener) Unregistered() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unregistered
}
