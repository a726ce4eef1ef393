package audio

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"
)

// LevelFunc receives one normalized level sample per captured block,
// stamped with the capture time. Called from the audio thread; must not
// block.
type LevelFunc func(level float64, at time.Time)

// Session owns one capture stream from open to drain. Exactly one session
// may own the input device at a time; the controller enforces that, the
// session enforces the single-open/single-close lifecycle.
type Session struct {
	dev     CaptureDevice
	onLevel LevelFunc

	mu        sync.Mutex
	recording bool
	pcm       []byte
	frames    uint64
	startedAt time.Time
}

// StartSession opens a mono 16-bit capture stream on the given device
// (nil = system default) and begins accumulating blocks. On error the
// device is fully released before returning.
func StartSession(ctx Context, device *DeviceInfo, cfg CaptureConfig, onLevel LevelFunc) (*Session, error) {
	dev, err := ctx.NewCapture(device, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening capture device: %w", err)
	}

	s := &Session{
		dev:       dev,
		onLevel:   onLevel,
		recording: true,
		startedAt: time.Now(),
	}
	dev.SetCallback(s.onData)

	if err := dev.Start(); err != nil {
		dev.ClearCallback()
		dev.Close()
		return nil, fmt.Errorf("starting capture: %w", err)
	}
	return s, nil
}

// onData is the capture callback. Single writer: only this function
// appends to the buffer, and only while the session is recording.
func (s *Session) onData(data []byte, frameCount uint32) {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return
	}
	s.pcm = append(s.pcm, data...)
	s.frames += uint64(frameCount)
	s.mu.Unlock()

	if s.onLevel != nil {
		s.onLevel(Level(data), time.Now())
	}
}

// Stop closes the stream, waits for the device to release, and moves the
// accumulated buffer out as samples. A zero-length result means nothing
// was recorded; that is an ordinary outcome, not an error.
func (s *Session) Stop() ([]int16, time.Duration) {
	s.mu.Lock()
	s.recording = false
	s.mu.Unlock()

	s.dev.Stop()
	s.dev.ClearCallback()
	s.dev.Close()

	s.mu.Lock()
	pcm := s.pcm
	frames := s.frames
	s.pcm = nil
	s.frames = 0
	s.mu.Unlock()

	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	dur := time.Duration(float64(frames) / float64(SampleRate) * float64(time.Second))
	return samples, dur
}

// Abort stops capture and discards the buffer. Used on fatal errors and
// shutdown paths where the recording will never be transcribed.
func (s *Session) Abort() {
	s.Stop()
}

func (s *Session) StartedAt() time.Time { return s.startedAt }

func (s *Session) DeviceName() string { return s.dev.DeviceName() }

// Frames reports how many frames have been captured so far.
func (s *Session) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
