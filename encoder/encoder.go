package encoder

import (
	"fmt"
	"io"
	"os"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Format selects the container a take is written in. Online backends
// want FLAC for the smaller upload, the local whisper CLI wants WAV.
type Format int

const (
	FormatWAV Format = iota
	FormatFLAC
)

func (f Format) Ext() string {
	if f == FormatFLAC {
		return ".flac"
	}
	return ".wav"
}

func (f Format) String() string {
	if f == FormatFLAC {
		return "flac"
	}
	return "wav"
}

// Encode writes samples to w in the given format.
func Encode(w io.Writer, format Format, samples []int16) error {
	switch format {
	case FormatFLAC:
		return EncodeFLAC(w, samples)
	case FormatWAV:
		return EncodeWAV(w, samples)
	}
	return fmt.Errorf("unknown format %d", format)
}

// WriteFile encodes samples into path, replacing any existing file.
func WriteFile(path string, format Format, samples []int16) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Encode(f, format, samples); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
