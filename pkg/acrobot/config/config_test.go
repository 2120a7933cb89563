package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/internalerr"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	content := `bot:
  username: songacronymbot
  feedback_community: songacronymbot
  suggest_url: https://example.com/suggest
  sponsor_chance: 0.01

store_path: bot.db
denylist_path: denylist.yaml

ingestion:
  page_size: 50
  rate_per_second: 2.5
  retry:
    max_attempts: 5
    base_delay: 1s
    max_delay: 60s
  targets:
    - artist_id: 06HL4z0CvFAxyc27GXpf02
      scope_id: 2rlwe
    - artist_id: 7jy3rLJdDQY21OgRLCZ9sD

workers: 4
max_nodes: 2000
`
	path := writeFile(t, "config.yaml", content)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Bot.Username != "songacronymbot" {
		t.Errorf("Username mismatch: got %q", cfg.Bot.Username)
	}
	if cfg.Ingestion.Retry.BaseDelay.Std() != time.Second {
		t.Errorf("BaseDelay mismatch: got %v", cfg.Ingestion.Retry.BaseDelay.Std())
	}
	if len(cfg.Ingestion.Targets) != 2 {
		t.Fatalf("Expected 2 targets, got %d", len(cfg.Ingestion.Targets))
	}
	if cfg.Ingestion.Targets[1].ScopeID != "" {
		t.Errorf("Second target should have no explicit scope, got %q", cfg.Ingestion.Targets[1].ScopeID)
	}
	if cfg.Workers != 4 || cfg.MaxNodes != 2000 {
		t.Errorf("Worker knobs mismatch: %d %d", cfg.Workers, cfg.MaxNodes)
	}
}

func TestLoadConfigMissingUsername(t *testing.T) {
	path := writeFile(t, "config.yaml", "store_path: bot.db\n")

	_, err := LoadConfig(path)
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	content := `bot:
  username: songacronymbot
ingestion:
  retry:
    base_delay: soon
`
	path := writeFile(t, "config.yaml", content)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Unparseable duration should fail the load")
	}
}

func TestLoadDenylist(t *testing.T) {
	content := `terms:
  - WAP
  - IWD
`
	path := writeFile(t, "denylist.yaml", content)

	dl, err := LoadDenylist(path)
	if err != nil {
		t.Fatalf("Failed to load denylist: %v", err)
	}
	if len(dl.Terms) != 2 {
		t.Errorf("Expected 2 terms, got %d", len(dl.Terms))
	}
}
