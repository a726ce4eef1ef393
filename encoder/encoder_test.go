package encoder

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func testSamples(n int) []int16 {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16((i * 37) % 8000)
	}
	return samples
}

func TestEncodeFLAC(t *testing.T) {
	samples := testSamples(BlockSize*3 + BlockSize/4) // forces a partial final block

	var buf bytes.Buffer
	if err := EncodeFLAC(&buf, samples); err != nil {
		t.Fatalf("EncodeFLAC: %v", err)
	}

	data := buf.Bytes()
	if len(data) < 4 || string(data[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}

	rawSize := len(samples) * 2
	t.Logf("Raw: %d bytes, FLAC: %d bytes (%.1f%% compression)",
		rawSize, len(data), (1-float64(len(data))/float64(rawSize))*100)
}

func TestEncodeFLACEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeFLAC(&buf, nil); err != nil {
		t.Fatalf("EncodeFLAC on empty input: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected non-empty FLAC output (at least header)")
	}
}

func TestEncodeWAV(t *testing.T) {
	samples := []int16{0, 100, -100, 32767, -32768}

	var buf bytes.Buffer
	if err := EncodeWAV(&buf, samples); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}

	data := buf.Bytes()
	if len(data) != 44+len(samples)*2 {
		t.Fatalf("output size = %d, want %d", len(data), 44+len(samples)*2)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatal("bad RIFF header")
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != SampleRate {
		t.Errorf("sample rate = %d, want %d", rate, SampleRate)
	}
	if size := binary.LittleEndian.Uint32(data[40:44]); size != uint32(len(samples)*2) {
		t.Errorf("data size = %d, want %d", size, len(samples)*2)
	}
	for i, want := range samples {
		got := int16(binary.LittleEndian.Uint16(data[44+i*2:]))
		if got != want {
			t.Errorf("sample %d = %d, want %d", i, got, want)
		}
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	samples := testSamples(1000)

	for _, format := range []Format{FormatWAV, FormatFLAC} {
		path := filepath.Join(dir, "take"+format.Ext())
		if err := WriteFile(path, format, samples); err != nil {
			t.Fatalf("WriteFile %s: %v", format, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", path, err)
		}
		if info.Size() == 0 {
			t.Errorf("%s: empty file", format)
		}
	}
}
