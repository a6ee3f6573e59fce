package dispatch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
listen: ":9000"
public_host: dispatch.example.com
variant: ai
gemini:
  api_key: gk-test
  model: gemini-live-test
twilio:
  account_sid: AC123
  auth_token: tok
  from: "+15550100"
recording:
  backend: dir
  dir: /tmp/recordings
log:
  level: debug
  format: json
`

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("listen = %q", cfg.Listen)
	}
	if cfg.Variant != VariantAI {
		t.Errorf("variant = %q", cfg.Variant)
	}
	if cfg.Gemini.Model != "gemini-live-test" {
		t.Errorf("model = %q", cfg.Gemini.Model)
	}
	if cfg.Recording.Backend != "dir" || cfg.Recording.Dir != "/tmp/recordings" {
		t.Errorf("recording = %+v", cfg.Recording)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
public_host: dispatch.example.com
gemini:
  api_key: gk
  model: m
twilio:
  account_sid: AC1
  auth_token: tok
  from: "+15550100"
`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Listen != ":8000" {
		t.Errorf("listen = %q, want :8000", cfg.Listen)
	}
	if cfg.Variant != VariantAI {
		t.Errorf("variant = %q, want ai", cfg.Variant)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gk-env")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok-env")
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Gemini.APIKey != "gk-env" {
		t.Errorf("api key = %q, want env value", cfg.Gemini.APIKey)
	}
	if cfg.Twilio.AuthToken != "tok-env" {
		t.Errorf("auth token = %q, want env value", cfg.Twilio.AuthToken)
	}
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			PublicHost: "h",
			Variant:    VariantAI,
			Gemini:     GeminiConfig{APIKey: "k", Model: "m"},
			Twilio:     TwilioConfig{AccountSID: "AC", AuthToken: "t", From: "+1"},
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"keypad needs no model", func(c *Config) { c.Variant = VariantKeypad; c.Gemini = GeminiConfig{} }, ""},
		{"missing host", func(c *Config) { c.PublicHost = "" }, "public_host"},
		{"unknown variant", func(c *Config) { c.Variant = "morse" }, "variant"},
		{"missing model", func(c *Config) { c.Gemini.Model = "" }, "gemini.model"},
		{"missing twilio", func(c *Config) { c.Twilio.AuthToken = "" }, "twilio"},
		{"bad recording backend", func(c *Config) { c.Recording.Backend = "ftp" }, "recording"},
		{"s3 needs bucket", func(c *Config) { c.Recording.Backend = "s3" }, "bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
