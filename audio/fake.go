package audio

import (
	"encoding/binary"
	"errors"
	"sync"
)

// ErrFakeOpen is returned by FakeContext when scripted to refuse opens.
var ErrFakeOpen = errors.New("fake device open refused")

// FakeContext is an in-memory Context for tests. Capture devices it hands
// out are driven by feeding blocks directly into the callback.
type FakeContext struct {
	mu           sync.Mutex
	devices      []DeviceInfo
	failNext     int
	failSelected bool
	captures     []*FakeCapture
}

func NewFakeContext(devices ...DeviceInfo) *FakeContext {
	return &FakeContext{devices: devices}
}

// FailNext makes the next n NewCapture calls fail regardless of device.
func (f *FakeContext) FailNext(n int) {
	f.mu.Lock()
	f.failNext = n
	f.mu.Unlock()
}

// FailSelected makes opens of a specific (non-default) device fail while
// opens of the system default still succeed. Models a busy or unplugged
// preferred microphone.
func (f *FakeContext) FailSelected(on bool) {
	f.mu.Lock()
	f.failSelected = on
	f.mu.Unlock()
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]DeviceInfo, len(f.devices))
	copy(out, f.devices)
	return out, nil
}

func (f *FakeContext) NewCapture(device *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext > 0 {
		f.failNext--
		return nil, ErrFakeOpen
	}
	if f.failSelected && device != nil {
		return nil, ErrFakeOpen
	}
	name := "system default"
	if device != nil {
		name = device.Name
	}
	c := &FakeCapture{name: name}
	f.captures = append(f.captures, c)
	return c, nil
}

func (f *FakeContext) Close() {}

// Last returns the most recently opened capture, or nil.
func (f *FakeContext) Last() *FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.captures) == 0 {
		return nil
	}
	return f.captures[len(f.captures)-1]
}

// OpenCount reports how many captures were handed out.
func (f *FakeContext) OpenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.captures)
}

type FakeCapture struct {
	mu      sync.Mutex
	cb      DataCallback
	name    string
	started bool
	closed  bool
}

func (c *FakeCapture) Start() error {
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
	return nil
}

func (c *FakeCapture) Stop() {
	c.mu.Lock()
	c.started = false
	c.mu.Unlock()
}

func (c *FakeCapture) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *FakeCapture) SetCallback(cb DataCallback) {
	c.mu.Lock()
	c.cb = cb
	c.mu.Unlock()
}

func (c *FakeCapture) ClearCallback() {
	c.mu.Lock()
	c.cb = nil
	c.mu.Unlock()
}

func (c *FakeCapture) DeviceName() string { return c.name }

// Feed delivers one block of samples through the data callback, the way
// the real audio thread would.
func (c *FakeCapture) Feed(samples []int16) {
	c.mu.Lock()
	cb := c.cb
	c.mu.Unlock()
	if cb == nil {
		return
	}
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	cb(data, uint32(len(samples)))
}

// FeedSilence delivers n frames of zero samples.
func (c *FakeCapture) FeedSilence(n int) {
	c.Feed(make([]int16, n))
}

// FeedTone delivers n frames of a constant-amplitude square-ish signal,
// loud enough to register above any silence threshold.
func (c *FakeCapture) FeedTone(n int) {
	samples := make([]int16, n)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 16000
		} else {
			samples[i] = -16000
		}
	}
	c.Feed(samples)
}

// Running reports whether the device is started and not closed.
func (c *FakeCapture) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started && !c.closed
}

// Closed reports whether Close was called.
func (c *FakeCapture) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
