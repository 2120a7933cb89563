package config

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/denylist"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/ingest"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/retry"
)

// Loader loads all configuration files and constructs components
type Loader struct {
	ConfigPath string
}

// Components holds all loaded configuration components
type Components struct {
	Config   *Config
	Denylist *denylist.Manager
	Retry    retry.Policy
	Pace     *rate.Limiter
	Targets  []ingest.Target
}

// Load reads all configuration files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	cfg, err := LoadConfig(l.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	comp := &Components{Config: cfg}

	if cfg.DenylistPath != "" {
		dl, err := LoadDenylist(cfg.DenylistPath)
		if err != nil {
			return nil, fmt.Errorf("load denylist: %w", err)
		}
		comp.Denylist = denylist.NewManager(dl.Terms)
	} else {
		comp.Denylist = denylist.NewManager(nil)
	}

	comp.Retry = retry.DefaultPolicy()
	if r := cfg.Ingestion.Retry; r.MaxAttempts > 0 {
		comp.Retry = retry.Policy{
			MaxAttempts: r.MaxAttempts,
			BaseDelay:   r.BaseDelay.Std(),
			MaxDelay:    r.MaxDelay.Std(),
		}
	}

	if cfg.Ingestion.RatePerSecond > 0 {
		comp.Pace = rate.NewLimiter(rate.Limit(cfg.Ingestion.RatePerSecond), 1)
	}

	for _, t := range cfg.Ingestion.Targets {
		comp.Targets = append(comp.Targets, ingest.Target{ArtistID: t.ArtistID, ScopeID: t.ScopeID})
	}

	return comp, nil
}
