package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, want nil", err)
	}
	if cfg.Game.Engine().CastSize != 8 || cfg.Storage.Driver != "sqlite" {
		t.Errorf("Default() = %+v", cfg)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "castaway.yaml")
	body := `
game:
  seed: 99
  cast_size: 6
  day_interval: 2s
llm:
  provider: anthropic
  api_key: ${TEST_CASTAWAY_KEY}
storage:
  slot: season-two
api:
  cors_origins: ["https://show.example"]
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEST_CASTAWAY_KEY", "sk-test-1234567890")
	t.Setenv("CASTAWAY_GAME_CAST_SIZE", "5")
	t.Setenv("CASTAWAY_API_PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Game.Seed != 99 {
		t.Errorf("seed = %d, want 99 from file", cfg.Game.Seed)
	}
	if cfg.Game.CastSize != 5 {
		t.Errorf("cast_size = %d, want 5 from env", cfg.Game.CastSize)
	}
	if cfg.Game.DayInterval != 2*time.Second {
		t.Errorf("day_interval = %v, want 2s", cfg.Game.DayInterval)
	}
	if cfg.LLM.APIKey != "sk-test-1234567890" {
		t.Errorf("api_key = %q, want expanded value", cfg.LLM.APIKey)
	}
	if cfg.API.Port != 9090 || cfg.Storage.Slot != "season-two" {
		t.Errorf("port/slot = %d/%q", cfg.API.Port, cfg.Storage.Slot)
	}
	if len(cfg.API.Origins) != 1 || cfg.API.Origins[0] != "https://show.example" {
		t.Errorf("origins = %v", cfg.API.Origins)
	}
	// Untouched sections keep their defaults.
	if cfg.Game.EliminationInterval != 7 || cfg.LLM.RequestsPerMinute != 20 {
		t.Errorf("defaults lost: %+v", cfg.Game)
	}
}

func TestLoad_ProviderKeyFallback(t *testing.T) {
	t.Setenv("CASTAWAY_LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "gm-key")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.APIKey != "gm-key" {
		t.Errorf("api_key = %q, want GEMINI_API_KEY fallback", cfg.LLM.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load(missing) error = nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"small cast", func(c *Config) { c.Game.CastSize = 2 }, "cast_size"},
		{"zero interval", func(c *Config) { c.Game.EliminationInterval = 0 }, "elimination_interval_days"},
		{"chance", func(c *Config) { c.Game.EmergentChance = 1.5 }, "emergent_chance"},
		{"provider", func(c *Config) { c.LLM.Provider = "oracle" }, "llm provider"},
		{"driver", func(c *Config) { c.Storage.Driver = "postgres" }, "storage driver"},
		{"mongo uri", func(c *Config) { c.Storage.Driver = "mongo" }, "mongo_uri"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
		{"autopilot interval", func(c *Config) { c.Autopilot.Interval = 0 }, "autopilot interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestLLMConfig_String(t *testing.T) {
	c := LLMConfig{Provider: "anthropic", APIKey: "sk-ant-abcdefghijklmnop"}
	s := c.String()
	if strings.Contains(s, "abcdefghijkl") {
		t.Errorf("String() leaks the key: %s", s)
	}
	if !strings.Contains(s, "sk-a...mnop") {
		t.Errorf("String() = %s, want redacted key", s)
	}
	if got := (LLMConfig{APIKey: "short"}).RedactedAPIKey(); got != "(set)" {
		t.Errorf("RedactedAPIKey(short) = %q, want (set)", got)
	}
	st := StorageConfig{Driver: "mongo", MongoURI: "mongodb://user:pw@host"}
	if strings.Contains(st.String(), "pw") {
		t.Errorf("StorageConfig.String() leaks the URI: %s", st)
	}
}
