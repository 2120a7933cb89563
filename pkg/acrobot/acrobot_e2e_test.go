package acrobot

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/discussion"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/discussion/memtree"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/reply"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/store"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/store/memstore"
)

// TestEndToEnd demonstrates the complete comment workflow:
// 1. Store seeding (global and scoped acronyms)
// 2. Body scanning
// 3. Thread deduplication
// 4. Reply composition and posting
func TestEndToEnd(t *testing.T) {
	ctx := context.Background()

	st := memstore.New()
	seed := []store.Acronym{
		{
			ID: "01", Name: "TMB", Kind: store.KindTrack,
			ArtistName: "Ariana Grande", AlbumName: "Sweetener",
			TrackName: "The Middle", YearReleased: "2018",
			ScopeID: store.GlobalScopeID, Enabled: true,
		},
		{
			ID: "02", Name: "HDIMYLM", Kind: store.KindTrack,
			ArtistName: "ODESZA", AlbumName: "The Last Goodbye",
			TrackName: "How Do I Make You Love Me", YearReleased: "2022",
			ScopeID: "2rlwe", Enabled: true,
		},
		{
			ID: "03", Name: "WOAW", Kind: store.KindSingle,
			ArtistName: "Foo Fighters", TrackName: "Waiting On A War",
			YearReleased: "2021", ScopeID: "2qt6r", Enabled: true,
		},
	}
	for _, a := range seed {
		if err := st.InsertAcronym(ctx, a); err != nil {
			t.Fatalf("Seed insert: %v", err)
		}
	}

	tree := memtree.New(0)
	tree.AddRoot(discussion.Root{ID: "t1", Title: "What are you all listening to this week?"})

	b := New(Options{
		Store:    st,
		Platform: tree,
		Composer: reply.NewComposer(reply.Options{
			FeedbackCommunity: "/r/songacronymbot",
			SuggestURL:        "https://example.com/suggest",
			Rand:              rand.New(rand.NewSource(1)),
		}),
		SelfUser: botUser,
	})
	defer b.Close()

	// A comment in the ODESZA community uses one global and one scoped
	// acronym; the Foo Fighters scope must stay invisible here.
	n := discussion.Node{
		ID:      "c1",
		Author:  "alice",
		Body:    "no one knows what tmb or hdimylm means, or woaw for that matter",
		ScopeID: "2rlwe",
		RootID:  "t1",
	}
	tree.AddNode("t1", n)

	if err := b.ProcessComment(ctx, n); err != nil {
		t.Fatalf("ProcessComment: %v", err)
	}

	replies := tree.Replies()
	if len(replies) != 1 {
		t.Fatalf("Expected 1 reply, got %d", len(replies))
	}
	if replies[0].ParentID != "c1" {
		t.Errorf("Reply should land under the comment, got %q", replies[0].ParentID)
	}

	body := replies[0].Body
	tmbLine := `- TMB could mean "The Middle", a track from *Sweetener* (2018) by Ariana Grande.`
	odeszaLine := `- HDIMYLM could mean "How Do I Make You Love Me", a track from *The Last Goodbye* (2022) by ODESZA.`
	if !strings.Contains(body, tmbLine) {
		t.Errorf("Missing global definition line in %q", body)
	}
	if !strings.Contains(body, odeszaLine) {
		t.Errorf("Missing scoped definition line in %q", body)
	}
	if strings.Contains(body, "WOAW") {
		t.Errorf("Out-of-scope acronym should not be defined: %q", body)
	}
	if strings.Index(body, "TMB") > strings.Index(body, "HDIMYLM") {
		t.Error("Lines should follow order of first occurrence")
	}
	if !strings.Contains(body, "\n---\n\n") || !strings.Contains(body, "/u/alice") {
		t.Errorf("Footer should credit the author, got %q", body)
	}

	// Posting again is suppressed: the bot's reply now names the acronyms.
	tree.AddNode("c1", discussion.Node{ID: "b1", Author: botUser, Body: body, RootID: "t1"})
	again := discussion.Node{
		ID:      "c2",
		Author:  "bob",
		Body:    "seriously, tmb?",
		ScopeID: "2rlwe",
		RootID:  "t1",
	}
	tree.AddNode("t1", again)
	if err := b.ProcessComment(ctx, again); err != nil {
		t.Fatalf("Second ProcessComment: %v", err)
	}
	if len(tree.Replies()) != 1 {
		t.Error("An already-defined acronym should not be replied to again")
	}
}

// TestEndToEndRootTitleSuppression covers the case where the thread
// title itself is the definition.
func TestEndToEndRootTitleSuppression(t *testing.T) {
	ctx := context.Background()

	st := memstore.New()
	if err := st.InsertAcronym(ctx, store.Acronym{
		ID: "01", Name: "TMB", Kind: store.KindTrack,
		ArtistName: "Ariana Grande", AlbumName: "Sweetener",
		TrackName: "The Middle", YearReleased: "2018",
		ScopeID: store.GlobalScopeID, Enabled: true,
	}); err != nil {
		t.Fatal(err)
	}

	tree := memtree.New(0)
	tree.AddRoot(discussion.Root{ID: "t1", Title: `"The Middle" appreciation thread`})

	b := New(Options{Store: st, Platform: tree, SelfUser: botUser})
	defer b.Close()

	n := discussion.Node{ID: "c1", Author: "alice", Body: "tmb is so good", RootID: "t1"}
	tree.AddNode("t1", n)

	if err := b.ProcessComment(ctx, n); err != nil {
		t.Fatalf("ProcessComment: %v", err)
	}
	if len(tree.Replies()) != 0 {
		t.Error("A title that spells out the track needs no definition reply")
	}
}
