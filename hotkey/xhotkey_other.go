//go:build !linux

package hotkey

import (
	"fmt"
	"sync"
	"time"

	"golang.design/x/hotkey"
)

var xKeys = map[string]hotkey.Key{
	"space": hotkey.KeySpace, "enter": hotkey.KeyReturn,
	"tab": hotkey.KeyTab, "esc": hotkey.KeyEscape,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3,
	"f4": hotkey.KeyF4, "f5": hotkey.KeyF5, "f6": hotkey.KeyF6,
	"f7": hotkey.KeyF7, "f8": hotkey.KeyF8, "f9": hotkey.KeyF9,
	"f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
}

type xListener struct {
	toggled chan struct{}

	mu         sync.Mutex
	chord      Chord
	hk         *hotkey.Hotkey
	stop       chan struct{}
	registered bool
}

// NewListener creates a listener using golang.design/x/hotkey (Cocoa/Win32).
func NewListener(binding string) (Listener, error) {
	chord, err := ParseChord(binding)
	if err != nil {
		return nil, err
	}
	if _, ok := xKeys[chord.Key]; !ok {
		return nil, fmt.Errorf("key %q not available on this platform", chord.Key)
	}
	return &xListener{
		toggled: make(chan struct{}, 1),
		chord:   chord,
	}, nil
}

func (l *xListener) Register() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.registerLocked(); err != nil {
		return err
	}
	l.registered = true
	return nil
}

func (l *xListener) registerLocked() error {
	key, ok := xKeys[l.chord.Key]
	if !ok {
		return fmt.Errorf("key %q not available on this platform", l.chord.Key)
	}
	hk := hotkey.New(modifiersFor(l.chord), key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("registering %s: %w", l.chord, err)
	}

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-hk.Keydown():
				select {
				case l.toggled <- struct{}{}:
				default:
				}
			}
		}
	}()

	l.hk = hk
	l.stop = stop
	return nil
}

func (l *xListener) unregisterLocked() {
	if l.hk != nil {
		l.hk.Unregister()
		l.hk = nil
	}
	if l.stop != nil {
		close(l.stop)
		l.stop = nil
	}
}

func (l *xListener) Unregister() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unregisterLocked()
	l.registered = false
}

func (l *xListener) Toggled() <-chan struct{} {
	return l.toggled
}

func (l *xListener) Rebind(descriptor string) error {
	chord, err := ParseChord(descriptor)
	if err != nil {
		return err
	}
	if _, ok := xKeys[chord.Key]; !ok {
		return fmt.Errorf("key %q not available on this platform", chord.Key)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	old := l.chord
	l.chord = chord
	if !l.registered {
		return nil
	}
	l.unregisterLocked()
	if err := l.registerLocked(); err != nil {
		// Fall back to the previous chord so the app keeps a hotkey.
		l.chord = old
		if rerr := l.registerLocked(); rerr != nil {
			return fmt.Errorf("rebinding to %s failed (%w) and restoring %s failed: %v", chord, err, old, rerr)
		}
		return err
	}
	return nil
}

func (l *xListener) Binding() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.chord.String()
}

func (l *xListener) Capture(time.Duration) (string, error) {
	return "", ErrCaptureUnsupported
}

func Diagnose() (string, error) {
	return "hotkey support available", nil
}
