package transcriber

import (
	"context"
	"errors"
	"time"

	"v2t/encoder"
)

// ErrNoAPIKey is returned by an online backend's Available check when no
// credential could be found.
var ErrNoAPIKey = errors.New("no API key configured")

// Backend turns one recorded audio file into text.
type Backend interface {
	Name() string
	Online() bool

	// Available reports whether the backend can run right now. A non-nil
	// error explains what is missing (credential, binary, model).
	Available() error

	// Format is the container the backend wants its input encoded in.
	Format() encoder.Format

	Transcribe(ctx context.Context, path string, language string) (string, error)
}

// Result is the outcome of one transcription attempt. It is always a
// plain value: failures are carried in Success and ErrDetail, never as a
// panic or error crossing the dispatch boundary.
type Result struct {
	Text      string
	Language  string
	Duration  time.Duration
	Backend   string
	Online    bool
	Success   bool
	ErrDetail string
}
