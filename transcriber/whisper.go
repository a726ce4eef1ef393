package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"v2t/encoder"
	"v2t/log"
)

const whisperModelURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.bin"

// whisper-cli is the Homebrew name; main is what a source build produces.
var whisperBinaryNames = []string{"whisper-cli", "whisper-cpp", "whisper", "main"}

// WhisperLocal transcribes with a local whisper.cpp CLI. The ggml model
// is downloaded on first use.
type WhisperLocal struct {
	modelPath string
	binPath   string

	// guards the one-time model download
	downloadMu sync.Mutex
}

// NewWhisperLocal sets up the offline backend with models stored under
// modelDir.
func NewWhisperLocal(modelDir string) *WhisperLocal {
	return &WhisperLocal{
		modelPath: filepath.Join(modelDir, "ggml-base.bin"),
		binPath:   findWhisperBinary(),
	}
}

func (w *WhisperLocal) Name() string           { return "whisper-local" }
func (w *WhisperLocal) Online() bool           { return false }
func (w *WhisperLocal) Format() encoder.Format { return encoder.FormatWAV }

func (w *WhisperLocal) Available() error {
	if w.binPath == "" {
		w.binPath = findWhisperBinary()
	}
	if w.binPath == "" {
		return fmt.Errorf("whisper.cpp binary not found (install whisper-cpp or put whisper-cli on PATH)")
	}
	return nil
}

func (w *WhisperLocal) Transcribe(ctx context.Context, path string, language string) (string, error) {
	if err := w.Available(); err != nil {
		return "", err
	}
	if err := w.ensureModel(ctx); err != nil {
		return "", err
	}

	outPrefix := strings.TrimSuffix(path, filepath.Ext(path))
	args := []string{
		"-m", w.modelPath,
		"-f", path,
		"-oj",
		"-of", outPrefix,
		"--no-prints",
	}
	if language != "" {
		args = append(args, "-l", language)
	}

	cmd := exec.CommandContext(ctx, w.binPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("whisper.cpp failed: %w, stderr: %s", err, stderr.String())
	}

	jsonPath := outPrefix + ".json"
	defer os.Remove(jsonPath)

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", fmt.Errorf("reading whisper output: %w", err)
	}

	var out whisperCppOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("parsing whisper output: %w", err)
	}

	var text strings.Builder
	for _, seg := range out.Transcription {
		text.WriteString(seg.Text)
	}
	return text.String(), nil
}

type whisperCppOutput struct {
	Transcription []struct {
		Text string `json:"text"`
	} `json:"transcription"`
}

// ensureModel downloads the ggml model on first use. Concurrent callers
// serialize on the mutex so only one download runs.
func (w *WhisperLocal) ensureModel(ctx context.Context) error {
	w.downloadMu.Lock()
	defer w.downloadMu.Unlock()

	if _, err := os.Stat(w.modelPath); err == nil {
		return nil
	}

	log.Info("downloading whisper model: " + whisperModelURL)

	if err := os.MkdirAll(filepath.Dir(w.modelPath), 0755); err != nil {
		return fmt.Errorf("creating model dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", whisperModelURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model download failed: status %d", resp.StatusCode)
	}

	// Download to a temp name so a partial file never passes the Stat
	// check above.
	tmpPath := w.modelPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating model file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing model: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing model file: %w", err)
	}
	if err := os.Rename(tmpPath, w.modelPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("installing model: %w", err)
	}

	log.Info("whisper model ready: " + w.modelPath)
	return nil
}

func findWhisperBinary() string {
	for _, name := range whisperBinaryNames {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}
