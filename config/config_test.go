package config

import (
	"testing"
)

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "")
	t.Setenv("OPEN_AI_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when DEEPGRAM_API_KEY missing")
	}

	t.Setenv("DEEPGRAM_API_KEY", "dg-key")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when OPEN_AI_API_KEY missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "dg-key")
	t.Setenv("OPEN_AI_API_KEY", "oa-key")
	t.Setenv("HTTP_ADDRESS", "")
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("RELAY_STRICT_DECODE", "")
	t.Setenv("RELAY_MAX_REPLIES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddress != ":3000" {
		t.Errorf("expected default http address, got %q", cfg.HTTPAddress)
	}
	if cfg.OpenAIModel == "" {
		t.Errorf("expected default openai model")
	}
	if cfg.StrictDecode {
		t.Errorf("expected lenient decode policy by default")
	}
	if cfg.MaxReplies <= 0 {
		t.Errorf("expected positive reply cap, got %d", cfg.MaxReplies)
	}
	if cfg.CanDial() {
		t.Errorf("expected CanDial false without Twilio credentials")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "dg-key")
	t.Setenv("OPEN_AI_API_KEY", "oa-key")
	t.Setenv("RELAY_STRICT_DECODE", "true")
	t.Setenv("RELAY_MAX_REPLIES", "2")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_FROM_NUMBER", "+15550100")
	t.Setenv("BASE_URL", "https://example.com/")
	t.Setenv("BASE_WS_URL", "wss://example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.StrictDecode {
		t.Errorf("expected strict decode policy")
	}
	if cfg.MaxReplies != 2 {
		t.Errorf("expected reply cap 2, got %d", cfg.MaxReplies)
	}
	if !cfg.CanDial() {
		t.Errorf("expected CanDial true with full Twilio config")
	}
}

func TestGetenvBool_Invalid(t *testing.T) {
	t.Setenv("RELAY_STRICT_DECODE", "not-a-bool")
	if getenvBool("RELAY_STRICT_DECODE", false) {
		t.Fatalf("expected fallback to default on invalid bool")
	}
}
