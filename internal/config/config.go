// Package config loads castaway settings from defaults, an optional YAML
// file, a .env file, and CASTAWAY_* environment variables, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/talgya/castaway/internal/engine"
	"github.com/talgya/castaway/internal/llm"
	"github.com/talgya/castaway/internal/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CASTAWAY_"

// Config is the full castaway configuration.
type Config struct {
	Game      GameConfig      `yaml:"game" envPrefix:"GAME_"`
	Logging   LoggingConfig   `yaml:"logging" envPrefix:"LOG_"`
	LLM       LLMConfig       `yaml:"llm" envPrefix:"LLM_"`
	Storage   StorageConfig   `yaml:"storage" envPrefix:"STORAGE_"`
	API       APIConfig       `yaml:"api" envPrefix:"API_"`
	Entropy   EntropyConfig   `yaml:"entropy" envPrefix:"ENTROPY_"`
	Autopilot AutopilotConfig `yaml:"autopilot" envPrefix:"AUTOPILOT_"`
}

// GameConfig shapes a season.
type GameConfig struct {
	Seed                int64   `yaml:"seed" env:"SEED"`
	CastSize            int     `yaml:"cast_size" env:"CAST_SIZE"`
	PlayerName          string  `yaml:"player_name" env:"PLAYER_NAME"`
	EliminationInterval int     `yaml:"elimination_interval_days" env:"ELIMINATION_INTERVAL"`
	EmergentChance      float64 `yaml:"emergent_chance" env:"EMERGENT_CHANCE"`

	// DayInterval is the wall-clock time per day when autoplay is on.
	DayInterval time.Duration `yaml:"day_interval" env:"DAY_INTERVAL"`
}

// Engine converts the section to the simulation's config.
func (g GameConfig) Engine() engine.Config {
	return engine.Config{
		Seed:                g.Seed,
		CastSize:            g.CastSize,
		PlayerName:          g.PlayerName,
		EliminationInterval: g.EliminationInterval,
		EmergentChance:      g.EmergentChance,
	}
}

// LoggingConfig sets log verbosity: "trace", "debug", "info", "warn", or "error".
type LoggingConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// LLMConfig selects the dialogue and recap generator.
type LLMConfig struct {
	// Provider is "anthropic", "gemini", "mock", or "none".
	Provider string `yaml:"provider" env:"PROVIDER"`

	// APIKey supports ${VAR} syntax in the YAML file.
	APIKey string `yaml:"api_key,omitempty" env:"API_KEY"`

	Model             string        `yaml:"model,omitempty" env:"MODEL"`
	Timeout           time.Duration `yaml:"timeout,omitempty" env:"TIMEOUT"`
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"REQUESTS_PER_MINUTE"`
}

// RedactedAPIKey returns the API key with most characters masked.
func (c LLMConfig) RedactedAPIKey() string {
	if c.APIKey == "" {
		return ""
	}
	if len(c.APIKey) < 12 {
		return "(set)"
	}
	return c.APIKey[:4] + "..." + c.APIKey[len(c.APIKey)-4:]
}

// String implements fmt.Stringer so the key never reaches a log line.
func (c LLMConfig) String() string {
	return fmt.Sprintf("LLMConfig{Provider:%s, Model:%s, APIKey:%s, RPM:%d}",
		c.Provider, c.Model, c.RedactedAPIKey(), c.RequestsPerMinute)
}

// Options converts the section to generator options.
func (c LLMConfig) Options() llm.Options {
	return llm.Options{
		Provider:          c.Provider,
		APIKey:            c.APIKey,
		Model:             c.Model,
		Timeout:           c.Timeout,
		RequestsPerMinute: c.RequestsPerMinute,
	}
}

// StorageConfig selects where saves go.
type StorageConfig struct {
	Driver        string `yaml:"driver" env:"DRIVER"` // sqlite or mongo
	Path          string `yaml:"path" env:"PATH"`
	MongoURI      string `yaml:"mongo_uri,omitempty" env:"MONGO_URI"`
	MongoDatabase string `yaml:"mongo_database,omitempty" env:"MONGO_DATABASE"`
	Slot          string `yaml:"slot" env:"SLOT"`
}

// String redacts the mongo URI, which may carry credentials.
func (c StorageConfig) String() string {
	uri := ""
	if c.MongoURI != "" {
		uri = "(set)"
	}
	return fmt.Sprintf("StorageConfig{Driver:%s, Path:%s, MongoURI:%s, Slot:%s}", c.Driver, c.Path, uri, c.Slot)
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Port              int      `yaml:"port" env:"PORT"`
	AdminKey          string   `yaml:"admin_key,omitempty" env:"ADMIN_KEY"`
	RelayKey          string   `yaml:"relay_key,omitempty" env:"RELAY_KEY"`
	Origins           []string `yaml:"cors_origins,omitempty" env:"CORS_ORIGINS" envSeparator:","`
	InteractPerMinute int      `yaml:"interact_per_minute" env:"INTERACT_PER_MINUTE"`
}

// EntropyConfig enables random.org draws for presentation flavor.
type EntropyConfig struct {
	RandomOrgKey string `yaml:"random_org_key,omitempty" env:"RANDOM_ORG_KEY"`
}

// AutopilotConfig points the headless player at a server.
type AutopilotConfig struct {
	ServerURL string        `yaml:"server_url" env:"SERVER_URL"`
	Interval  time.Duration `yaml:"interval" env:"INTERVAL"`
	DryRun    bool          `yaml:"dry_run" env:"DRY_RUN"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	g := engine.DefaultConfig()
	return &Config{
		Game: GameConfig{
			Seed:                g.Seed,
			CastSize:            g.CastSize,
			PlayerName:          g.PlayerName,
			EliminationInterval: g.EliminationInterval,
			EmergentChance:      g.EmergentChance,
			DayInterval:         10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
		LLM: LLMConfig{
			Provider:          "none",
			Timeout:           30 * time.Second,
			RequestsPerMinute: 20,
		},
		Storage: StorageConfig{
			Driver:        "sqlite",
			Path:          "data/castaway.db",
			MongoDatabase: "castaway",
			Slot:          "main",
		},
		API: APIConfig{
			Port:              8080,
			InteractPerMinute: 30,
		},
		Autopilot: AutopilotConfig{
			ServerURL: "http://localhost:8080",
			Interval:  30 * time.Second,
		},
	}
}

// Load builds the configuration. path may be empty; a missing .env file is
// not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}

	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	cfg.applyProviderKeys()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// applyProviderKeys falls back to the provider's conventional key variable.
func (c *Config) applyProviderKeys() {
	if c.LLM.APIKey != "" {
		return
	}
	switch c.LLM.Provider {
	case "anthropic":
		c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "gemini":
		c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Game.CastSize < 3 {
		errs = append(errs, fmt.Errorf("cast_size must be at least 3, got %d", c.Game.CastSize))
	}
	if c.Game.EliminationInterval < 1 {
		errs = append(errs, fmt.Errorf("elimination_interval_days must be positive, got %d", c.Game.EliminationInterval))
	}
	if c.Game.EmergentChance < 0 || c.Game.EmergentChance > 1 {
		errs = append(errs, fmt.Errorf("emergent_chance must be between 0 and 1, got %v", c.Game.EmergentChance))
	}
	if c.LLM.Timeout < 0 {
		errs = append(errs, fmt.Errorf("llm timeout must be non-negative, got %v", c.LLM.Timeout))
	}

	validProviders := map[string]bool{"": true, "none": true, "anthropic": true, "gemini": true, "mock": true}
	if !validProviders[c.LLM.Provider] {
		errs = append(errs, fmt.Errorf("invalid llm provider: %s (valid: anthropic, gemini, mock, none)", c.LLM.Provider))
	}

	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage path is required for sqlite"))
		}
	case "mongo":
		if c.Storage.MongoURI == "" {
			errs = append(errs, errors.New("storage mongo_uri is required for mongo"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid storage driver: %s (valid: sqlite, mongo)", c.Storage.Driver))
	}

	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api port out of range: %d", c.API.Port))
	}
	if c.Autopilot.Interval <= 0 {
		errs = append(errs, fmt.Errorf("autopilot interval must be positive, got %v", c.Autopilot.Interval))
	}
	if !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("invalid log level: %s", c.Logging.Level))
	}
	return errors.Join(errs...)
}
