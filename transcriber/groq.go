package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"v2t/encoder"
	"v2t/log"
)

const groqModel = "whisper-large-v3"

// Groq transcribes via the Groq-hosted whisper API. Takes are uploaded
// as FLAC to keep the request body small.
type Groq struct {
	client *TracedClient
	apiURL string
	apiKey string
}

func NewGroq(apiKey string) *Groq {
	apiURL := "https://api.groq.com/openai/v1/audio/transcriptions"
	return &Groq{
		client: NewTracedClient(apiURL),
		apiURL: apiURL,
		apiKey: apiKey,
	}
}

func (g *Groq) Name() string           { return "groq" }
func (g *Groq) Online() bool           { return true }
func (g *Groq) Format() encoder.Format { return encoder.FormatFLAC }

func (g *Groq) Available() error {
	if g.apiKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

// WarmConnection pre-opens the TLS connection in the background so the
// first upload after a recording starts is not paying the handshake.
func (g *Groq) WarmConnection() {
	go g.client.Warm()
}

type groqResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (g *Groq) Transcribe(ctx context.Context, path string, language string) (string, error) {
	audioData, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading take: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audioData); err != nil {
		return "", err
	}

	writer.WriteField("model", groqModel)
	writer.WriteField("response_format", "json")
	writer.WriteField("temperature", "0")
	if language != "" {
		writer.WriteField("language", language)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", g.apiURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("groq API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var gResp groqResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return "", fmt.Errorf("groq response parse error: %w", err)
	}

	log.NetworkTiming("groq", resp.Metrics.DNS, resp.Metrics.TLS, resp.Metrics.TTFB, resp.Metrics.ConnReused)
	return gResp.Text, nil
}
