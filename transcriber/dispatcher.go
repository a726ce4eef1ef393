package transcriber

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"v2t/encoder"
	"v2t/log"
)

// Dispatcher routes a finished take to the online or offline backend.
// Transcribe never panics and never returns an error: every failure mode
// is folded into the Result.
type Dispatcher struct {
	online  Backend
	offline Backend

	// TempDir receives the encoded take while a backend runs. Defaults
	// to the system temp directory.
	TempDir string
}

func NewDispatcher(online, offline Backend) *Dispatcher {
	return &Dispatcher{online: online, offline: offline, TempDir: os.TempDir()}
}

// Pick returns the backend a request with the given preference would use.
// Online is used only when it is configured and available; everything
// else falls back to the offline backend.
func (d *Dispatcher) Pick(preferOnline bool) Backend {
	if preferOnline && d.online != nil && d.online.Available() == nil {
		return d.online
	}
	return d.offline
}

// Transcribe encodes samples to a temp file, runs the chosen backend and
// folds the outcome into a Result.
func (d *Dispatcher) Transcribe(ctx context.Context, samples []int16, language string, preferOnline bool) (result Result) {
	duration := time.Duration(len(samples)) * time.Second / encoder.SampleRate
	result = Result{Language: language, Duration: duration}

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("transcription panic: %v", r)
			result.Success = false
			result.ErrDetail = fmt.Sprintf("internal error: %v", r)
		}
	}()

	backend := d.Pick(preferOnline)
	if backend == nil {
		result.ErrDetail = "no transcription backend configured"
		return result
	}
	result.Backend = backend.Name()
	result.Online = backend.Online()

	if err := backend.Available(); err != nil {
		result.ErrDetail = fmt.Sprintf("%s unavailable: %v", backend.Name(), err)
		return result
	}

	path := filepath.Join(d.TempDir, fmt.Sprintf("v2t-take-%d%s", time.Now().UnixNano(), backend.Format().Ext()))
	if err := encoder.WriteFile(path, backend.Format(), samples); err != nil {
		result.ErrDetail = fmt.Sprintf("encoding take: %v", err)
		return result
	}
	defer os.Remove(path)

	start := time.Now()
	text, err := backend.Transcribe(ctx, path, language)
	if err != nil {
		log.Errorf("%s transcription error: %v", backend.Name(), err)
		result.ErrDetail = err.Error()
		return result
	}

	log.TranscriptionMetrics(log.Metrics{
		AudioLengthS: duration.Seconds(),
		RawSizeKB:    float64(len(samples)*2) / 1024,
		TotalTimeMs:  float64(time.Since(start).Milliseconds()),
	}, backend.Name(), backend.Format().String())

	result.Text = strings.TrimSpace(text)
	result.Success = true
	return result
}
