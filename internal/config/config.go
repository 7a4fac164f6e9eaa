package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

var (
	// ErrMissingCredential is returned when the selected provider has no API key.
	ErrMissingCredential = errors.New("missing provider credential")
	ErrUnknownProvider   = errors.New("unknown provider")
)

// credentialEnv lists the environment variables consulted for each provider key.
var credentialEnv = map[string][]string{
	"gemini.api_key": {"API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"openai.api_key": {"OPENAI_API_KEY"},
}

// ConfigurationError reports a configuration problem that prevents the
// provider client from being constructed.
type ConfigurationError struct {
	Key string
	Env []string
	Err error
}

func (e *ConfigurationError) Error() string {
	if len(e.Env) == 0 {
		return fmt.Sprintf("configuration error: %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %v (set one of %s)",
		e.Key, e.Err, strings.Join(e.Env, ", "))
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

type Config struct {
	Provider   string
	Gemini     GeminiConfig
	OpenAI     OpenAIConfig
	Generation GenerationConfig
	TTS        TTSConfig
	Export     ExportConfig
	LogLevel   string
}

type GeminiConfig struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
}

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
}

type GenerationConfig struct {
	Timeout time.Duration
}

type TTSConfig struct {
	Type     string
	Voice    string
	Speed    float64
	Volume   float64
	Language string
	Autoplay bool
}

type ExportConfig struct {
	Dir string
}

// SetDefaults registers the default values on the global viper instance.
func SetDefaults() {
	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderGemini)

	v.SetDefault("gemini.base_url", "")
	v.SetDefault("gemini.text_model", "gemini-2.5-flash")
	v.SetDefault("gemini.image_model", "imagen-4.0-generate-001")

	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.text_model", "gpt-4o-mini")
	v.SetDefault("openai.image_model", "dall-e-3")

	v.SetDefault("generation.timeout", 2*time.Minute)

	v.SetDefault("tts.type", "auto") // Auto-select best engine
	v.SetDefault("tts.voice", "default")
	v.SetDefault("tts.speed", 1.0)
	v.SetDefault("tts.volume", 1.0)
	v.SetDefault("tts.language", "en-US")
	v.SetDefault("tts.autoplay", true)

	v.SetDefault("export.dir", ".")

	v.SetDefault("log.level", "warn")
}

// BindEnv wires the environment variables the app reads onto v.
func BindEnv(v *viper.Viper) error {
	for key, env := range credentialEnv {
		args := append([]string{key}, env...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return v.BindEnv("provider", "STORYTELLER_PROVIDER")
}

// Load builds a Config from v. Defaults are applied for any key v has not set.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	if err := BindEnv(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Provider: strings.ToLower(strings.TrimSpace(v.GetString("provider"))),
		Gemini: GeminiConfig{
			APIKey:     strings.TrimSpace(v.GetString("gemini.api_key")),
			BaseURL:    v.GetString("gemini.base_url"),
			TextModel:  v.GetString("gemini.text_model"),
			ImageModel: v.GetString("gemini.image_model"),
		},
		OpenAI: OpenAIConfig{
			APIKey:     strings.TrimSpace(v.GetString("openai.api_key")),
			BaseURL:    v.GetString("openai.base_url"),
			TextModel:  v.GetString("openai.text_model"),
			ImageModel: v.GetString("openai.image_model"),
		},
		Generation: GenerationConfig{
			Timeout: v.GetDuration("generation.timeout"),
		},
		TTS: TTSConfig{
			Type:     v.GetString("tts.type"),
			Voice:    v.GetString("tts.voice"),
			Speed:    v.GetFloat64("tts.speed"),
			Volume:   v.GetFloat64("tts.volume"),
			Language: v.GetString("tts.language"),
			Autoplay: v.GetBool("tts.autoplay"),
		},
		Export: ExportConfig{
			Dir: v.GetString("export.dir"),
		},
		LogLevel: v.GetString("log.level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected provider can be constructed.
func (c *Config) Validate() error {
	var key, value string
	switch c.Provider {
	case ProviderGemini:
		key, value = "gemini.api_key", c.Gemini.APIKey
	case ProviderOpenAI:
		key, value = "openai.api_key", c.OpenAI.APIKey
	default:
		return &ConfigurationError{
			Key: "provider",
			Err: fmt.Errorf("%w %q (want %s or %s)", ErrUnknownProvider, c.Provider, ProviderGemini, ProviderOpenAI),
		}
	}

	if value == "" {
		return &ConfigurationError{Key: key, Env: credentialEnv[key], Err: ErrMissingCredential}
	}
	return nil
}
