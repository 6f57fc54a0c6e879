package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds process configuration, loaded once at startup.
type Config struct {
	HTTPAddress string

	DeepgramAPIKey string
	OpenAIAPIKey   string
	OpenAIModel    string

	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
	ElevenLabsModelID string

	AudioOutputDir string

	// StrictDecode aborts the inbound forwarding loop on the first malformed
	// frame instead of skipping it.
	StrictDecode bool
	// MaxReplies caps concurrent in-flight reply tasks per session.
	MaxReplies int

	// Outbound calling (optional; /call and /twiml return errors without these).
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	BaseURL          string
	BaseWSURL        string
}

// Load reads the environment (after a best-effort .env load) and returns Config.
// It fails when a credential required for the relay itself is missing.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to environment variables")
	}

	cfg := Config{
		HTTPAddress:       getenvDefault("HTTP_ADDRESS", ":3000"),
		DeepgramAPIKey:    os.Getenv("DEEPGRAM_API_KEY"),
		OpenAIAPIKey:      os.Getenv("OPEN_AI_API_KEY"),
		OpenAIModel:       getenvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		ElevenLabsAPIKey:  os.Getenv("ELEVEN_LABS_API_KEY"),
		ElevenLabsVoiceID: getenvDefault("ELEVENLABS_VOICE_ID", "JBFqnCBsd6RMkjVDRZzb"),
		ElevenLabsModelID: getenvDefault("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2"),
		AudioOutputDir:    getenvDefault("AUDIO_OUTPUT_DIR", "./audio"),
		StrictDecode:      getenvBool("RELAY_STRICT_DECODE", false),
		MaxReplies:        getenvInt("RELAY_MAX_REPLIES", 8),
		TwilioAccountSID:  os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber:  os.Getenv("TWILIO_FROM_NUMBER"),
		BaseURL:           os.Getenv("BASE_URL"),
		BaseWSURL:         os.Getenv("BASE_WS_URL"),
	}

	if cfg.DeepgramAPIKey == "" {
		return Config{}, fmt.Errorf("DEEPGRAM_API_KEY must be set")
	}
	if cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("OPEN_AI_API_KEY must be set")
	}
	if cfg.ElevenLabsAPIKey == "" {
		log.Println("Warning: ELEVEN_LABS_API_KEY not set - speech synthesis will fail")
	}
	if cfg.MaxReplies <= 0 {
		cfg.MaxReplies = 8
	}
	return cfg, nil
}

// CanDial reports whether outbound calling via Twilio is configured.
func (c Config) CanDial() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" &&
		c.TwilioFromNumber != "" && c.BaseURL != "" && c.BaseWSURL != ""
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %v", key, v, def)
		return def
	}
	return b
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}
