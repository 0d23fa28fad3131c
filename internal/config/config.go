// Package config loads agent configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvFiles are loaded, in order, before the environment is read.
// Variables already present in the process environment are never overridden.
var EnvFiles = []string{".env.local", ".env"}

// Config holds everything the CLI needs to build stores and sessions.
type Config struct {
	DataDir    string
	FAQPath    string
	LeadsPath  string
	OrdersPath string
	CasesDB    string

	AskTimeout time.Duration
	ListenAddr string
	LogLevel   string
	LogFormat  string

	Voice Voice
}

// Voice holds provider credentials and model settings for the telephony server.
type Voice struct {
	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
	ElevenLabsModel   string
	DeepgramAPIKey    string
	DeepgramModel     string
	TwilioAccountSID  string
	TwilioAuthToken   string
}

// LoadEnvFiles loads the dotenv files that exist; missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load env file %q: %w", p, err)
		}
	}
	return nil
}

// Load reads the configuration from environment variables.
func Load() (Config, error) {
	askTimeout, err := getDuration("AGENT_ASK_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	if askTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid AGENT_ASK_TIMEOUT=%s: must be positive", askTimeout)
	}

	dataDir := get("AGENT_DATA_DIR", "./data")
	cfg := Config{
		DataDir:    dataDir,
		FAQPath:    os.Getenv("AGENT_FAQ_PATH"),
		LeadsPath:  get("AGENT_LEADS_PATH", filepath.Join(dataDir, "leads.json")),
		OrdersPath: get("AGENT_ORDERS_PATH", filepath.Join(dataDir, "orders.json")),
		CasesDB:    get("AGENT_CASES_DB", filepath.Join(dataDir, "fraud_cases.db")),
		AskTimeout: askTimeout,
		ListenAddr: get("AGENT_LISTEN_ADDR", ":8080"),
		LogLevel:   get("AGENT_LOG_LEVEL", "info"),
		LogFormat:  get("AGENT_LOG_FORMAT", "text"),
		Voice: Voice{
			ElevenLabsAPIKey:  os.Getenv("ELEVENLABS_API_KEY"),
			ElevenLabsVoiceID: get("ELEVENLABS_VOICE_ID", "Rachel"),
			ElevenLabsModel:   get("ELEVENLABS_MODEL", "eleven_turbo_v2_5"),
			DeepgramAPIKey:    os.Getenv("DEEPGRAM_API_KEY"),
			DeepgramModel:     get("DEEPGRAM_MODEL", "nova-2"),
			TwilioAccountSID:  os.Getenv("TWILIO_ACCOUNT_SID"),
			TwilioAuthToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
		},
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("invalid AGENT_LOG_FORMAT=%q: want text or json", cfg.LogFormat)
	}
	return cfg, nil
}

// RequireVoice reports the provider credentials that the telephony server cannot run without.
func (c Config) RequireVoice() error {
	var missing []string
	if c.Voice.ElevenLabsAPIKey == "" {
		missing = append(missing, "ELEVENLABS_API_KEY")
	}
	if c.Voice.DeepgramAPIKey == "" {
		missing = append(missing, "DEEPGRAM_API_KEY")
	}
	if c.Voice.TwilioAccountSID == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if c.Voice.TwilioAuthToken == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("environment variables required: %s", strings.Join(missing, ", "))
	}
	return nil
}

func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", k, v, err)
	}
	return d, nil
}
