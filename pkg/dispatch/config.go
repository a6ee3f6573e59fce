package dispatch

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Call handling variants.
const (
	// VariantAI bridges each call onto a live model conversation.
	VariantAI = "ai"
	// VariantKeypad plays a spoken menu and reads a single digit.
	VariantKeypad = "keypad"
)

// Config is the service configuration, loaded from YAML with secrets
// overridable from the environment.
type Config struct {
	// Listen is the HTTP bind address, e.g. ":8000".
	Listen string `yaml:"listen"`

	// PublicHost is the externally reachable host (no scheme) the
	// telephony vendor uses for webhooks and media streams.
	PublicHost string `yaml:"public_host"`

	// Variant selects how answered calls are handled: "ai" or "keypad".
	Variant string `yaml:"variant"`

	Gemini    GeminiConfig    `yaml:"gemini"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	Recording RecordingConfig `yaml:"recording"`
	Log       LogConfig       `yaml:"log"`
}

// GeminiConfig configures the live model transport.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// TwilioConfig configures outbound calling.
type TwilioConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	From       string `yaml:"from"`

	// APIBase overrides the vendor endpoint, for tests.
	APIBase string `yaml:"api_base,omitempty"`
}

// RecordingConfig configures the optional call audio archive.
type RecordingConfig struct {
	// Backend is "", "dir", or "s3". Empty disables recording.
	Backend string `yaml:"backend,omitempty"`

	// Dir is the local archive root for the dir backend.
	Dir string `yaml:"dir,omitempty"`

	// Bucket and Prefix locate recordings for the s3 backend.
	Bucket string `yaml:"bucket,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`

	// Region, Endpoint, and static credentials configure the s3 client.
	// Endpoint is optional and supports S3-compatible stores.
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is "debug", "info", "warn", or "error". Defaults to info.
	Level string `yaml:"level,omitempty"`

	// Format is "text" or "json". Defaults to text.
	Format string `yaml:"format,omitempty"`
}

// LoadConfig reads and validates a configuration file. The GEMINI_API_KEY
// and TWILIO_AUTH_TOKEN environment variables override their file
// counterparts so secrets can stay out of the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{
		Listen:  ":8000",
		Variant: VariantAI,
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		cfg.Twilio.AuthToken = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for the selected variant.
func (c *Config) Validate() error {
	if c.PublicHost == "" {
		return fmt.Errorf("config: public_host is required")
	}
	switch c.Variant {
	case VariantAI:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("config: gemini.api_key is required for the ai variant")
		}
		if c.Gemini.Model == "" {
			return fmt.Errorf("config: gemini.model is required for the ai variant")
		}
	case VariantKeypad:
	default:
		return fmt.Errorf("config: unknown variant %q", c.Variant)
	}
	if c.Twilio.AccountSID == "" || c.Twilio.AuthToken == "" {
		return fmt.Errorf("config: twilio credentials are required")
	}
	if c.Twilio.From == "" {
		return fmt.Errorf("config: twilio.from is required")
	}
	switch c.Recording.Backend {
	case "", "dir", "s3":
	default:
		return fmt.Errorf("config: unknown recording backend %q", c.Recording.Backend)
	}
	if c.Recording.Backend == "dir" && c.Recording.Dir == "" {
		return fmt.Errorf("config: recording.dir is required for the dir backend")
	}
	if c.Recording.Backend == "s3" {
		if c.Recording.Bucket == "" {
			return fmt.Errorf("config: recording.bucket is required for the s3 backend")
		}
		if c.Recording.Region == "" {
			return fmt.Errorf("config: recording.region is required for the s3 backend")
		}
	}
	return nil
}
