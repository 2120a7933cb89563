// Command ingest-catalog syncs the configured artists' discographies
// from the Spotify catalog into the acronym store. Credentials come from
// SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/everettsouthwick/songacronymbot/internal/spotify"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/config"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/ingest"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/scope"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "Path to bot config YAML")
	dbPath := flag.String("db", "", "SQLite acronym database (overrides store_path)")
	flag.Parse()

	if *configPath == "" {
		log.Fatal("--config required")
	}

	comp, err := (&config.Loader{ConfigPath: *configPath}).Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := comp.Config

	if len(comp.Targets) == 0 {
		log.Fatal("no ingestion targets configured")
	}

	clientID := os.Getenv("SPOTIFY_CLIENT_ID")
	clientSecret := os.Getenv("SPOTIFY_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		log.Fatal("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET required")
	}

	path := cfg.StorePath
	if *dbPath != "" {
		path = *dbPath
	}
	if path == "" {
		log.Fatal("store_path or --db required")
	}

	ctx := context.Background()
	st, err := sqlite.Open(ctx, path)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	policy := ingest.New(ingest.Options{
		Catalog:  &spotify.Client{ClientID: clientID, ClientSecret: clientSecret},
		Store:    st,
		Router:   scope.NewRouter(comp.Denylist, scope.StoreExists(st)),
		Retry:    comp.Retry,
		Pace:     comp.Pace,
		PageSize: cfg.Ingestion.PageSize,
	})

	admitted, err := policy.Run(ctx, comp.Targets)
	if err != nil {
		log.Fatalf("ingest: %v", err)
	}
	log.Printf("ingest complete: %d acronyms admitted across %d artists", admitted, len(comp.Targets))
}
