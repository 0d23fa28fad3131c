package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AGENT_DATA_DIR", "AGENT_FAQ_PATH", "AGENT_LEADS_PATH", "AGENT_ORDERS_PATH",
		"AGENT_CASES_DB", "AGENT_ASK_TIMEOUT", "AGENT_LISTEN_ADDR", "AGENT_LOG_LEVEL",
		"AGENT_LOG_FORMAT", "ELEVENLABS_API_KEY", "DEEPGRAM_API_KEY",
		"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "./data" {
		t.Errorf("DataDir = %q, want ./data", cfg.DataDir)
	}
	if want := filepath.Join("./data", "leads.json"); cfg.LeadsPath != want {
		t.Errorf("LeadsPath = %q, want %q", cfg.LeadsPath, want)
	}
	if want := filepath.Join("./data", "fraud_cases.db"); cfg.CasesDB != want {
		t.Errorf("CasesDB = %q, want %q", cfg.CasesDB, want)
	}
	if cfg.AskTimeout != 30*time.Second {
		t.Errorf("AskTimeout = %v, want 30s", cfg.AskTimeout)
	}
	if cfg.Voice.ElevenLabsVoiceID != "Rachel" || cfg.Voice.DeepgramModel != "nova-2" {
		t.Errorf("voice defaults = %+v", cfg.Voice)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AGENT_DATA_DIR", "/var/lib/agents")
	t.Setenv("AGENT_ASK_TIMEOUT", "5s")
	t.Setenv("AGENT_LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OrdersPath != "/var/lib/agents/orders.json" {
		t.Errorf("OrdersPath = %q", cfg.OrdersPath)
	}
	if cfg.AskTimeout != 5*time.Second {
		t.Errorf("AskTimeout = %v, want 5s", cfg.AskTimeout)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, val string
	}{
		{"AGENT_ASK_TIMEOUT", "soon"},
		{"AGENT_ASK_TIMEOUT", "-1s"},
		{"AGENT_LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.val, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.val)
			}
		})
	}
}

func TestRequireVoice(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEEPGRAM_API_KEY", "dg")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	err = cfg.RequireVoice()
	if err == nil {
		t.Fatal("expected missing credentials error")
	}
	if strings.Contains(err.Error(), "DEEPGRAM_API_KEY") {
		t.Errorf("DEEPGRAM_API_KEY is set but reported missing: %v", err)
	}
	if !strings.Contains(err.Error(), "TWILIO_AUTH_TOKEN") {
		t.Errorf("expected TWILIO_AUTH_TOKEN in error: %v", err)
	}
}

func TestLoadEnvFiles_PreservesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env.local")
	content := "AGENT_LISTEN_ADDR=:9090\nAGENT_LOG_LEVEL=debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("AGENT_LOG_LEVEL", "warn")
	t.Setenv("AGENT_LISTEN_ADDR", "")
	os.Unsetenv("AGENT_LISTEN_ADDR")

	if err := LoadEnvFiles(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnvFiles: %v", err)
	}
	if got := os.Getenv("AGENT_LISTEN_ADDR"); got != ":9090" {
		t.Errorf("AGENT_LISTEN_ADDR = %q, want :9090", got)
	}
	if got := os.Getenv("AGENT_LOG_LEVEL"); got != "warn" {
		t.Errorf("AGENT_LOG_LEVEL = %q, want existing value preserved", got)
	}
}
