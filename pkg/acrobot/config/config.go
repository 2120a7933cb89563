package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/internalerr"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Bot holds the bot's identity and reply footer settings.
type Bot struct {
	Username          string  `yaml:"username"`
	FeedbackCommunity string  `yaml:"feedback_community"`
	SuggestURL        string  `yaml:"suggest_url"`
	SponsorName       string  `yaml:"sponsor_name"`
	SponsorURL        string  `yaml:"sponsor_url"`
	SponsorChance     float64 `yaml:"sponsor_chance"`
}

// Retry holds the backoff knobs for catalog calls.
type Retry struct {
	MaxAttempts int      `yaml:"max_attempts"`
	BaseDelay   Duration `yaml:"base_delay"`
	MaxDelay    Duration `yaml:"max_delay"`
}

// Ingestion holds the catalog sync settings.
type Ingestion struct {
	PageSize      int      `yaml:"page_size"`
	RatePerSecond float64  `yaml:"rate_per_second"`
	Retry         Retry    `yaml:"retry"`
	Targets       []Target `yaml:"targets"`
}

// Target maps a catalog artist to the scope its acronyms pool into.
// An empty scope lets title length decide between global and rejection.
type Target struct {
	ArtistID string `yaml:"artist_id"`
	ScopeID  string `yaml:"scope_id"`
}

// Config represents the bot configuration
type Config struct {
	Bot          Bot       `yaml:"bot"`
	StorePath    string    `yaml:"store_path"`
	DenylistPath string    `yaml:"denylist_path"`
	Ingestion    Ingestion `yaml:"ingestion"`
	Workers      int       `yaml:"workers"`
	MaxNodes     int       `yaml:"max_nodes"`
}

// LoadConfig loads the bot configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Bot.Username == "" {
		return nil, fmt.Errorf("%w: bot.username is required", internalerr.ErrInvalidConfig)
	}
	for i, t := range cfg.Ingestion.Targets {
		if t.ArtistID == "" {
			return nil, fmt.Errorf("%w: ingestion.targets[%d].artist_id is required", internalerr.ErrInvalidConfig, i)
		}
	}

	return &cfg, nil
}

// Denylist represents the excluded-acronym list configuration
type Denylist struct {
	Terms []string `yaml:"terms"`
}

// LoadDenylist loads excluded acronyms from a YAML file
func LoadDenylist(path string) (*Denylist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var dl Denylist
	if err := yaml.Unmarshal(data, &dl); err != nil {
		return nil, err
	}

	return &dl, nil
}
