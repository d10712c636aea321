package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/shotclock/go/internal/panel"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Environment variables that override the file.
const (
	EnvConfigPath = "SHOTCLOCK_CONFIG"
	EnvPanels     = "SHOTCLOCK_PANELS"
	EnvPort       = "PORT"
	EnvNATSURL    = "NATS_URL"
	EnvLogLevel   = "LOG_LEVEL"
)

type Config struct {
	Panels []string     `yaml:"panels"`
	Server ServerConfig `yaml:"server"`
	NATS   NATSConfig   `yaml:"nats"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Panels: []string{"left", "right"},
		Server: ServerConfig{Port: "8080"},
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			SubjectPrefix: "shotclock",
		},
		Log: LogConfig{Level: "info", Console: true},
	}
}

// LoadDotEnv loads a .env file from the working directory if there is one.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}
}

// Load builds the configuration from defaults, the YAML file at path (or
// $SHOTCLOCK_CONFIG when path is empty) and environment overrides, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvPanels); v != "" {
		var panels []string
		for _, id := range strings.Split(v, ",") {
			panels = append(panels, strings.TrimSpace(id))
		}
		c.Panels = panels
	}
	c.Server.Port = getEnv(EnvPort, c.Server.Port)
	c.Log.Level = getEnv(EnvLogLevel, c.Log.Level)
	if v := os.Getenv(EnvNATSURL); v != "" {
		c.NATS.URL = v
		c.NATS.Enabled = true
	}
}

// Validate reports the first problem found, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	if len(c.Panels) == 0 {
		return fmt.Errorf("%w: at least one panel is required", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Panels))
	for _, id := range c.Panels {
		if err := panel.ValidateID(id); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate panel id %q", ErrInvalidConfig, id)
		}
		seen[id] = true
	}

	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: server.port %q is not a valid port", ErrInvalidConfig, c.Server.Port)
	}

	if _, err := c.Log.ZerologLevel(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.NATS.Enabled {
		if c.NATS.URL == "" {
			return fmt.Errorf("%w: nats.url is required when nats is enabled", ErrInvalidConfig)
		}
		if c.NATS.SubjectPrefix == "" || strings.ContainsAny(c.NATS.SubjectPrefix, " *>") {
			return fmt.Errorf("%w: nats.subject_prefix %q is not a valid subject", ErrInvalidConfig, c.NATS.SubjectPrefix)
		}
	}
	return nil
}

// ZerologLevel parses the configured level.
func (l LogConfig) ZerologLevel() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log.level %q: %w", l.Level, err)
	}
	if level == zerolog.NoLevel {
		return zerolog.InfoLevel, nil
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
