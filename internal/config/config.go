package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the namespace prefix for all EduSense environment variables.
const EnvPrefix = "EDUSENSE_"

// Config holds all application configuration. Secrets (API keys) are loaded
// exclusively from environment variables and never appear in the config file.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DBPath     string `yaml:"db_path"`
	UploadsDir string `yaml:"uploads_dir"`
	ReportsDir string `yaml:"reports_dir"`

	DeepgramModel    string  `yaml:"deepgram_model"`
	Language         string  `yaml:"language"`
	TurnGapSec       float64 `yaml:"turn_gap_sec"`
	LLMModel         string  `yaml:"llm_model"`
	WastedPenalty    float64 `yaml:"wasted_penalty"`
	DecodeTimeout    string  `yaml:"decode_timeout"`
	TranscribeTimeout string  `yaml:"transcribe_timeout"`
	SummarizeTimeout string  `yaml:"summarize_timeout"`

	GDriveFolderID        string `yaml:"gdrive_folder_id"`
	GoogleCredentialsFile string `yaml:"google_credentials_file"`

	// Secrets come from env vars only and are never serialized to YAML.
	DeepgramAPIKey  string `yaml:"-"`
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
	GeminiAPIKey    string `yaml:"-"`
}

func defaults() Config {
	return Config{
		ListenAddr:       ":8080",
		DBPath:           "data/edusense.db",
		UploadsDir:       "data/uploads",
		ReportsDir:       "data/reports",
		DeepgramModel:    "nova-2",
		Language:         "en-US",
		TurnGapSec:       1.5,
		LLMModel:         "openai/gpt-4o-mini",
		WastedPenalty:    0.25,
		DecodeTimeout:    "2m",
		TranscribeTimeout: "5m",
		SummarizeTimeout: "2m",
	}
}

// Load reads configuration from a YAML file (if it exists), applies
// environment variable overrides, loads secrets, and validates the result.
// It returns the config, any validation warnings, and an error if the file
// exists but cannot be read or parsed.
func Load(path string) (Config, []string, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, nil, fmt.Errorf("read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	loadSecrets(&cfg)

	warnings := validate(&cfg)
	return cfg, warnings, nil
}

// LLMAPIKey returns the secret matching the configured LLM provider.
func (c *Config) LLMAPIKey(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "gemini":
		return c.GeminiAPIKey
	default:
		return ""
	}
}

// ParsedDecodeTimeout returns DecodeTimeout as a time.Duration, falling back
// to 2m if the value is invalid.
func (c *Config) ParsedDecodeTimeout() time.Duration {
	return parseDurationOr(c.DecodeTimeout, 2*time.Minute)
}

func (c *Config) ParsedTranscribeTimeout() time.Duration {
	return parseDurationOr(c.TranscribeTimeout, 5*time.Minute)
}

func (c *Config) ParsedSummarizeTimeout() time.Duration {
	return parseDurationOr(c.SummarizeTimeout, 2*time.Minute)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(EnvPrefix + "DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvPrefix + "UPLOADS_DIR"); v != "" {
		cfg.UploadsDir = v
	}
	if v := os.Getenv(EnvPrefix + "REPORTS_DIR"); v != "" {
		cfg.ReportsDir = v
	}
	if v := os.Getenv(EnvPrefix + "DEEPGRAM_MODEL"); v != "" {
		cfg.DeepgramModel = v
	}
	if v := os.Getenv(EnvPrefix + "LANGUAGE"); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv(EnvPrefix + "TURN_GAP_SEC"); v != "" {
		if gap, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && gap > 0 {
			cfg.TurnGapSec = gap
		}
	}
	if v := os.Getenv(EnvPrefix + "LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	if v := os.Getenv(EnvPrefix + "WASTED_PENALTY"); v != "" {
		if penalty, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && penalty >= 0 {
			cfg.WastedPenalty = penalty
		}
	}
	if v := os.Getenv(EnvPrefix + "DECODE_TIMEOUT"); v != "" {
		cfg.DecodeTimeout = v
	}
	if v := os.Getenv(EnvPrefix + "TRANSCRIBE_TIMEOUT"); v != "" {
		cfg.TranscribeTimeout = v
	}
	if v := os.Getenv(EnvPrefix + "SUMMARIZE_TIMEOUT"); v != "" {
		cfg.SummarizeTimeout = v
	}
	if v := os.Getenv(EnvPrefix + "GDRIVE_FOLDER_ID"); v != "" {
		cfg.GDriveFolderID = v
	}
	if v := os.Getenv(EnvPrefix + "GOOGLE_CREDENTIALS_FILE"); v != "" {
		cfg.GoogleCredentialsFile = v
	}
}

func loadSecrets(cfg *Config) {
	cfg.DeepgramAPIKey = os.Getenv(EnvPrefix + "DEEPGRAM_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv(EnvPrefix + "OPENAI_API_KEY")
	cfg.AnthropicAPIKey = os.Getenv(EnvPrefix + "ANTHROPIC_API_KEY")
	cfg.GeminiAPIKey = os.Getenv(EnvPrefix + "GEMINI_API_KEY")
}

func validate(cfg *Config) []string {
	var warnings []string

	if cfg.DeepgramAPIKey == "" {
		warnings = append(warnings, "Deepgram API key not configured, transcription is disabled. Set "+EnvPrefix+"DEEPGRAM_API_KEY.")
	}

	if provider, _, err := parseProvider(cfg.LLMModel); err != nil {
		warnings = append(warnings, fmt.Sprintf("Invalid llm_model %q, topics and summaries are disabled.", cfg.LLMModel))
	} else if cfg.LLMAPIKey(provider) == "" {
		warnings = append(warnings, fmt.Sprintf("No API key for LLM provider %q, topics and summaries are disabled.", provider))
	}

	for name, raw := range map[string]string{
		"decode_timeout":     cfg.DecodeTimeout,
		"transcribe_timeout": cfg.TranscribeTimeout,
		"summarize_timeout":  cfg.SummarizeTimeout,
	} {
		if _, err := time.ParseDuration(raw); err != nil {
			warnings = append(warnings, fmt.Sprintf("Invalid %s %q, using default.", name, raw))
		}
	}

	return warnings
}

func parseProvider(model string) (string, string, error) {
	parts := strings.SplitN(model, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid model %q", model)
	}
	return parts[0], parts[1], nil
}
