package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OutputFormat selects the audio encoding ElevenLabs returns.
// ulaw 8kHz matches the telephony media stream, so synthesized replies can
// be pushed straight back to the caller.
const (
	FormatULaw8000 = "ulaw_8000"
	FormatMP3      = "mp3_44100_128"
)

// ElevenLabsClient performs synchronous text-to-speech requests.
type ElevenLabsClient struct {
	HTTPClient   *http.Client
	BaseURL      string
	APIKey       string
	VoiceID      string
	ModelID      string
	OutputFormat string
}

// NewElevenLabsClient builds a client for the given voice and model.
func NewElevenLabsClient(apiKey, voiceID, modelID string) (*ElevenLabsClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("elevenlabs api key is required")
	}
	if voiceID == "" {
		return nil, fmt.Errorf("elevenlabs voice id is required")
	}
	return &ElevenLabsClient{
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		BaseURL:      "https://api.elevenlabs.io",
		APIKey:       apiKey,
		VoiceID:      voiceID,
		ModelID:      modelID,
		OutputFormat: FormatULaw8000,
	}, nil
}

// Synthesize requests speech for the given text and returns the raw audio bytes.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("elevenlabs: empty text")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs base url: %w", err)
	}
	u.Path = "/v1/text-to-speech/" + c.VoiceID
	q := u.Query()
	q.Set("output_format", c.OutputFormat)
	u.RawQuery = q.Encode()

	payload := map[string]any{
		"text":     text,
		"model_id": c.ModelID,
		"voice_settings": map[string]float64{
			"stability":        0.75,
			"similarity_boost": 0.7,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs build request: %w", err)
	}
	req.Header.Set("xi-api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("elevenlabs status=%d body=%s", resp.StatusCode, string(preview))
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs read body: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("elevenlabs: empty audio response")
	}
	return audio, nil
}

// FileExt returns the filename extension matching the configured output format.
func (c *ElevenLabsClient) FileExt() string {
	switch {
	case strings.HasPrefix(c.OutputFormat, "ulaw"):
		return ".ulaw"
	case strings.HasPrefix(c.OutputFormat, "pcm"):
		return ".pcm"
	default:
		return ".mp3"
	}
}

// SaveSpeech writes audio bytes under dir with a freshly generated unique
// name, creating dir if needed. It returns the file path.
func (c *ElevenLabsClient) SaveSpeech(dir string, audio []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create audio dir: %w", err)
	}
	name := uuid.NewString() + c.FileExt()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("write audio file: %w", err)
	}
	return path, nil
}
