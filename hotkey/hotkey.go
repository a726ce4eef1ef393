package hotkey

import (
	"errors"
	"time"
)

// DefaultBinding is used when settings carry no hotkey.
const DefaultBinding = "f8"

var (
	// ErrCaptureUnsupported is returned by Capture on platforms where raw
	// key events are not observable.
	ErrCaptureUnsupported = errors.New("hotkey capture not supported on this platform")

	// ErrCaptureTimeout is returned when no key arrives before the
	// capture deadline.
	ErrCaptureTimeout = errors.New("hotkey capture timed out")
)

// Listener watches for a global key chord and reports each press as one
// toggle event. Presses are edge-triggered: holding the chord emits a
// single event and the release emits nothing.
type Listener interface {
	Register() error
	Unregister()

	// Toggled delivers one value per chord press.
	Toggled() <-chan struct{}

	// Rebind swaps the watched chord without re-registering.
	Rebind(descriptor string) error

	// Binding returns the current chord descriptor.
	Binding() string

	// Capture waits for the next key press and returns its descriptor.
	// While a capture is pending the action binding is suspended, so
	// pressing the bound chord records a new binding instead of toggling.
	Capture(timeout time.Duration) (string, error)
}
