// Command acrobot replays a recorded discussion thread through the bot
// engine and prints the replies it would post. It runs fully offline
// against a JSONL snapshot, which makes reply behavior reviewable before
// the bot touches a live platform.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/everettsouthwick/songacronymbot/internal/feed"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/config"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/discussion"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/reply"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/store"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/store/memstore"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "Path to bot config YAML")
	threadPath := flag.String("thread", "", "Path to recorded thread JSONL (required)")
	dbPath := flag.String("db", "", "SQLite acronym database (overrides store_path; empty store runs in memory)")
	flag.Parse()

	if *configPath == "" {
		log.Fatal("--config required")
	}
	if *threadPath == "" {
		log.Fatal("--thread required")
	}

	comp, err := (&config.Loader{ConfigPath: *configPath}).Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := comp.Config

	ctx := context.Background()

	path := cfg.StorePath
	if *dbPath != "" {
		path = *dbPath
	}
	var st store.Store
	if path != "" {
		st, err = sqlite.Open(ctx, path)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
	} else {
		st = memstore.New()
	}

	records, err := feed.LoadFromJSONL(*threadPath)
	if err != nil {
		log.Fatalf("load thread: %v", err)
	}
	tree, nodes := feed.Build(records)

	bot := acrobot.New(acrobot.Options{
		Store:    st,
		Platform: tree,
		Composer: reply.NewComposer(reply.Options{
			FeedbackCommunity: cfg.Bot.FeedbackCommunity,
			SuggestURL:        cfg.Bot.SuggestURL,
			SponsorName:       cfg.Bot.SponsorName,
			SponsorURL:        cfg.Bot.SponsorURL,
			SponsorChance:     cfg.Bot.SponsorChance,
		}),
		SelfUser: cfg.Bot.Username,
		Workers:  cfg.Workers,
		MaxNodes: cfg.MaxNodes,
	})
	defer bot.Close()

	if err := bot.RefreshDisabled(ctx); err != nil {
		log.Fatalf("load opted-out authors: %v", err)
	}

	updates := make(chan discussion.Node, len(nodes))
	for _, n := range nodes {
		updates <- n
	}
	close(updates)

	if err := bot.Run(ctx, updates); err != nil {
		log.Fatalf("run: %v", err)
	}

	replies := tree.Replies()
	fmt.Printf("Processed %d comments, posted %d replies\n\n", len(nodes), len(replies))
	for _, r := range replies {
		fmt.Printf("--- reply under %s ---\n%s\n\n", r.ParentID, r.Body)
	}
}
