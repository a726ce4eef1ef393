//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	evKey      = 1
	keyRelease = 0
	keyPress   = 1

	keyLCtrl  = 29
	keyRCtrl  = 97
	keyLShift = 42
	keyRShift = 54
	keyLAlt   = 56
	keyRAlt   = 100
	keyLMeta  = 125
	keyRMeta  = 126
)

// input_event is 24 bytes on 64-bit Linux:
// timeval (16 bytes) + type (2) + code (2) + value (4)
const inputEventSize = 24

// evdev KEY_* codes for every key a chord may terminate in.
var evdevKeys = map[string]uint16{
	"esc": 1, "tab": 15, "enter": 28, "space": 57,
	"1": 2, "2": 3, "3": 4, "4": 5, "5": 6, "6": 7, "7": 8, "8": 9, "9": 10, "0": 11,
	"q": 16, "w": 17, "e": 18, "r": 19, "t": 20, "y": 21, "u": 22, "i": 23, "o": 24, "p": 25,
	"a": 30, "s": 31, "d": 32, "f": 33, "g": 34, "h": 35, "j": 36, "k": 37, "l": 38,
	"z": 44, "x": 45, "c": 46, "v": 47, "b": 48, "n": 49, "m": 50,
	"f1": 59, "f2": 60, "f3": 61, "f4": 62, "f5": 63, "f6": 64, "f7": 65, "f8": 66,
	"f9": 67, "f10": 68, "f11": 87, "f12": 88,
}

var evdevNames = func() map[uint16]string {
	names := make(map[uint16]string, len(evdevKeys))
	for name, code := range evdevKeys {
		names[code] = name
	}
	return names
}()

type evdevListener struct {
	toggled chan struct{}
	files   []*os.File
	stop    chan struct{}
	once    sync.Once

	mu      sync.Mutex
	chord   Chord
	capture chan Chord // non-nil while a capture is pending
}

// NewListener creates a listener that reads /dev/input directly.
// Requires the user to be in the 'input' group.
func NewListener(binding string) (Listener, error) {
	chord, err := ParseChord(binding)
	if err != nil {
		return nil, err
	}
	return &evdevListener{
		toggled: make(chan struct{}, 1),
		chord:   chord,
	}, nil
}

func (l *evdevListener) Register() error {
	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	l.stop = make(chan struct{})

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		l.files = append(l.files, f)
		go l.readEvents(f)
	}

	if len(l.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	return nil
}

// keyState tracks held keys per physical keyboard.
type keyState struct {
	ctrl, shift, alt, super bool
	chordHeld               bool
}

func (l *evdevListener) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	var st keyState

	for {
		select {
		case <-l.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey {
				continue
			}
			l.handleKey(&st, evCode, evValue)
		}
	}
}

// handleKey processes one key event. Autorepeat (value 2) is ignored, so
// holding the chord fires exactly once.
func (l *evdevListener) handleKey(st *keyState, code uint16, value int32) {
	pressed := value == keyPress
	released := value == keyRelease
	if !pressed && !released {
		return
	}

	switch code {
	case keyLCtrl, keyRCtrl:
		st.ctrl = pressed
		return
	case keyLShift, keyRShift:
		st.shift = pressed
		return
	case keyLAlt, keyRAlt:
		st.alt = pressed
		return
	case keyLMeta, keyRMeta:
		st.super = pressed
		return
	}

	name, known := evdevNames[code]
	if !known {
		return
	}

	l.mu.Lock()
	capture := l.capture
	chord := l.chord
	l.mu.Unlock()

	if capture != nil {
		if pressed {
			select {
			case capture <- Chord{
				Ctrl:  st.ctrl,
				Shift: st.shift,
				Alt:   st.alt,
				Super: st.super,
				Key:   name,
			}:
			default:
			}
		}
		return
	}

	if name != chord.Key {
		return
	}
	if pressed && !st.chordHeld &&
		st.ctrl == chord.Ctrl && st.shift == chord.Shift &&
		st.alt == chord.Alt && st.super == chord.Super {
		st.chordHeld = true
		select {
		case l.toggled <- struct{}{}:
		default:
		}
	} else if released {
		st.chordHeld = false
	}
}

func (l *evdevListener) Unregister() {
	l.once.Do(func() {
		if l.stop != nil {
			close(l.stop)
		}
		for _, f := range l.files {
			f.Close()
		}
	})
}

func (l *evdevListener) Toggled() <-chan struct{} {
	return l.toggled
}

func (l *evdevListener) Rebind(descriptor string) error {
	chord, err := ParseChord(descriptor)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.chord = chord
	l.mu.Unlock()
	return nil
}

func (l *evdevListener) Binding() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.chord.String()
}

func (l *evdevListener) Capture(timeout time.Duration) (string, error) {
	ch := make(chan Chord, 1)
	l.mu.Lock()
	if l.capture != nil {
		l.mu.Unlock()
		return "", fmt.Errorf("capture already in progress")
	}
	l.capture = ch
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.capture = nil
		l.mu.Unlock()
	}()

	select {
	case chord := <-ch:
		return chord.String(), nil
	case <-time.After(timeout):
		return "", ErrCaptureTimeout
	}
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, filepath.Join("/dev/input", e.Name()))
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	// Real keyboards have long key capability bitmaps
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

// Diagnose checks evdev access and returns a status message.
func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}

	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}
