// Package acrobot is the discussion-bot engine facade. It wires the
// store, the match scanner, the reply guard, and the composer into the
// per-comment and per-mention processing flows.
package acrobot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/acronym"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/catalog"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/discussion"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/guard"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/match"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/reply"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/store"
)

// DefaultWorkers bounds concurrent comment processing.
const DefaultWorkers = 4

// mentionTokenLimit caps how many tokens of a direct mention are looked
// up; the rest of the message is ignored.
const mentionTokenLimit = 10

// lowScoreThreshold is the karma floor below which "bad bot" feedback
// deletes the bot's comment.
const lowScoreThreshold = 5

// mentionSubject is the inbox subject a comment mention carries.
const mentionSubject = "username mention"

// Bot is the main engine facade
type Bot struct {
	store    store.Store
	platform discussion.Adapter
	catalog  catalog.Client
	guard    *guard.Guard
	composer *reply.Composer
	self     string
	workers  int
	logger   *log.Logger

	// disabled is a read-mostly snapshot of opted-out usernames,
	// lowercased; swapped whole on refresh.
	disabled atomic.Pointer[map[string]struct{}]
}

// Options configures a Bot instance
type Options struct {
	Store    store.Store
	Platform discussion.Adapter
	// Catalog is optional; without it mention lookups skip the search
	// fallback.
	Catalog  catalog.Client
	Composer *reply.Composer
	SelfUser string
	Workers  int
	MaxNodes int
	Logger   *log.Logger
}

// New creates a Bot with the given dependencies
func New(opts Options) *Bot {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	composer := opts.Composer
	if composer == nil {
		composer = reply.NewComposer(reply.Options{})
	}

	b := &Bot{
		store:    opts.Store,
		platform: opts.Platform,
		catalog:  opts.Catalog,
		guard:    guard.New(opts.Platform, opts.SelfUser, opts.MaxNodes),
		composer: composer,
		self:     opts.SelfUser,
		workers:  workers,
		logger:   logger,
	}
	empty := make(map[string]struct{})
	b.disabled.Store(&empty)
	return b
}

// Close cleanly shuts down the Bot instance
func (b *Bot) Close() error {
	return b.store.Close()
}

// Run consumes the comment stream until it closes or the context is
// canceled. Per-comment failures are logged and never stop the stream.
func (b *Bot) Run(ctx context.Context, updates <-chan discussion.Node) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for n := range updates {
		if ctx.Err() != nil {
			break
		}
		n := n
		g.Go(func() error {
			if err := b.ProcessComment(ctx, n); err != nil {
				b.logger.Printf("process comment %s: %v", n.ID, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// ProcessComment runs one comment through the opt-out keywords and the
// acronym flow. Replying into a locked or archived thread is not an
// error; the comment is skipped.
func (b *Bot) ProcessComment(ctx context.Context, n discussion.Node) error {
	if strings.EqualFold(n.Author, b.self) {
		return nil
	}
	if b.isDisabled(n.Author) {
		return nil
	}

	text := discussion.Text(n.Body)

	switch strings.ToLower(strings.TrimSpace(text)) {
	case "optout":
		return b.OptOut(ctx, n)
	case "optin":
		return b.OptIn(ctx, n)
	}

	candidates, err := b.candidates(ctx, n.ScopeID)
	if err != nil {
		return err
	}

	var replied []match.Match
	for _, m := range match.Scan(text, candidates) {
		if b.guard.ShouldReply(ctx, n, m.Acronym) {
			replied = append(replied, m)
		}
	}
	if len(replied) == 0 {
		return nil
	}

	body := b.composer.Compose(replied, n.Author)
	if err := b.platform.Reply(ctx, n.ID, body); err != nil {
		if errors.Is(err, discussion.ErrForbidden) {
			b.logger.Printf("reply forbidden under %s", n.ID)
			return nil
		}
		return err
	}
	return nil
}

// candidates pools the global acronyms with the comment's scope.
func (b *Bot) candidates(ctx context.Context, scopeID string) ([]store.Acronym, error) {
	global, err := b.store.GetGlobalAcronyms(ctx)
	if err != nil {
		return nil, err
	}
	if scopeID == "" || scopeID == store.GlobalScopeID {
		return global, nil
	}
	scoped, err := b.store.GetAcronymsByScope(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	return append(global, scoped...), nil
}

// ProcessMention answers a direct mention by defining every acronym
// token in the message, falling back to a catalog search for names the
// store does not know. Inbox items that are not comment mentions, such
// as private messages or post replies, are ignored.
func (b *Bot) ProcessMention(ctx context.Context, msg discussion.Message) error {
	if !msg.WasComment || !strings.EqualFold(msg.Subject, mentionSubject) {
		return nil
	}
	if strings.EqualFold(msg.Author, b.self) {
		return nil
	}

	names := b.mentionTokens(discussion.Text(msg.Body))
	if len(names) == 0 {
		return nil
	}

	var body strings.Builder
	for _, name := range names {
		lines, err := b.defineName(ctx, name)
		if err != nil {
			return err
		}
		body.WriteString(lines)
	}

	final := b.composer.Finalize(body.String(), msg.Author)
	if err := b.platform.Reply(ctx, msg.ID, final); err != nil {
		if errors.Is(err, discussion.ErrForbidden) {
			b.logger.Printf("mention reply forbidden for %s", msg.ID)
			return nil
		}
		return err
	}
	return nil
}

// mentionTokens extracts the acronym candidates from a mention body:
// the bot's own handle is dropped, punctuation is stripped, and tokens
// are uppercased and deduplicated in order of first appearance.
func (b *Bot) mentionTokens(text string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, field := range strings.Fields(text) {
		trimmed := strings.TrimPrefix(strings.TrimPrefix(field, "/"), "u/")
		if strings.EqualFold(trimmed, b.self) {
			continue
		}
		name := strings.ToUpper(stripToken(field))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
		if len(names) == mentionTokenLimit {
			break
		}
	}
	return names
}

func stripToken(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '&' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// defineName renders the definition lines for one mention token. Known
// names render one line per distinct artist; unknown names fall back to
// a catalog search, and failing that, the not-recognized line.
func (b *Bot) defineName(ctx context.Context, name string) (string, error) {
	known, err := b.store.GetAcronymsByName(ctx, name)
	if err != nil {
		return "", err
	}
	if len(known) > 0 {
		var lines strings.Builder
		seen := make(map[string]struct{})
		for _, a := range known {
			if _, dup := seen[a.ArtistName]; dup {
				continue
			}
			seen[a.ArtistName] = struct{}{}
			lines.WriteString(reply.RenderLine(a))
		}
		return lines.String(), nil
	}

	if b.catalog != nil {
		if line, ok := b.searchFallback(ctx, name); ok {
			return line, nil
		}
	}
	return b.composer.NotRecognizedLine(name), nil
}

// searchFallback queries the catalog for a title the name could stand
// for, trying tracks, then albums, then artists. A hit only counts when
// the name actually derives from the result's title.
func (b *Bot) searchFallback(ctx context.Context, name string) (string, bool) {
	for _, kind := range []catalog.SearchKind{catalog.SearchTrack, catalog.SearchAlbum, catalog.SearchArtist} {
		results, err := b.catalog.Search(ctx, name, kind, 5)
		if err != nil {
			b.logger.Printf("catalog search %q: %v", name, err)
			return "", false
		}
		for _, r := range results {
			if !derives(name, r.Name) {
				continue
			}
			return reply.RenderLine(searchAcronym(name, kind, r)), true
		}
	}
	return "", false
}

// derives reports whether the acronym is one of the title's variants.
func derives(name, title string) bool {
	for _, v := range acronym.Expand(title) {
		if v == name {
			return true
		}
	}
	return false
}

func searchAcronym(name string, kind catalog.SearchKind, r catalog.SearchResult) store.Acronym {
	a := store.Acronym{
		Name:         name,
		ArtistName:   r.Artists(),
		YearReleased: r.Year(),
	}
	switch kind {
	case catalog.SearchAlbum:
		a.Kind = store.KindAlbum
		a.AlbumName = r.Name
	case catalog.SearchArtist:
		a.Kind = store.KindArtist
		a.ArtistName = r.Name
	default:
		a.Kind = store.KindTrack
		a.TrackName = r.Name
		a.AlbumName = r.AlbumName
		if r.AlbumType == "single" {
			a.Kind = store.KindSingle
		}
	}
	return a
}

// CheckReplies inspects the direct replies to one of the bot's own
// comments and honors feedback: "bad bot" always opts the critic out
// and additionally deletes the comment when it scored poorly, and the
// credited author can ask for deletion outright, which also opts them
// out.
func (b *Bot) CheckReplies(ctx context.Context, own discussion.Node) error {
	cursor := ""
	for {
		children, next, err := b.platform.Children(ctx, own.ID, cursor)
		if err != nil {
			return err
		}
		for _, child := range children {
			lower := strings.ToLower(discussion.Text(child.Body))

			if strings.Contains(lower, "bad bot") {
				if err := b.disableAuthor(ctx, child.Author); err != nil {
					return err
				}
				if own.Score < lowScoreThreshold {
					return b.deleteOwn(ctx, own.ID)
				}
				continue
			}

			// Only the credited author may delete the comment.
			if strings.Contains(lower, "delete") && containsFold(own.Body, "/u/"+child.Author) {
				if err := b.deleteOwn(ctx, own.ID); err != nil {
					return err
				}
				return b.disableAuthor(ctx, child.Author)
			}
		}
		if next == "" {
			return nil
		}
		cursor = next
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// CleanOwnComments deletes the bot's own comments at or below zero
// score and returns how many went.
func (b *Bot) CleanOwnComments(ctx context.Context, own []discussion.Node) (int, error) {
	deleted := 0
	for _, n := range own {
		if n.Score > 0 {
			continue
		}
		if err := b.deleteOwn(ctx, n.ID); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (b *Bot) deleteOwn(ctx context.Context, id string) error {
	if err := b.platform.Delete(ctx, id); err != nil {
		if errors.Is(err, discussion.ErrForbidden) {
			b.logger.Printf("delete forbidden for %s", id)
			return nil
		}
		return err
	}
	return nil
}

// OptOut disables automatic replies for the comment's author and
// confirms it.
func (b *Bot) OptOut(ctx context.Context, n discussion.Node) error {
	if err := b.disableAuthor(ctx, n.Author); err != nil {
		return err
	}
	confirm := fmt.Sprintf("/u/%s has been opted out of automatic replies. Reply \"optin\" to opt back in.", n.Author)
	return b.confirm(ctx, n.ID, confirm)
}

// OptIn re-enables automatic replies for the comment's author.
func (b *Bot) OptIn(ctx context.Context, n discussion.Node) error {
	a, found, err := b.store.GetAuthorByName(ctx, n.Author)
	if err != nil {
		return err
	}
	if !found {
		a = store.Author{Username: n.Author}
	}
	a.Enabled = true
	if err := b.store.UpsertAuthor(ctx, a); err != nil {
		return err
	}
	if err := b.RefreshDisabled(ctx); err != nil {
		return err
	}
	confirm := fmt.Sprintf("/u/%s has been opted back in to automatic replies.", n.Author)
	return b.confirm(ctx, n.ID, confirm)
}

func (b *Bot) confirm(ctx context.Context, parentID, body string) error {
	if err := b.platform.Reply(ctx, parentID, body); err != nil {
		if errors.Is(err, discussion.ErrForbidden) {
			return nil
		}
		return err
	}
	return nil
}

func (b *Bot) disableAuthor(ctx context.Context, username string) error {
	a, found, err := b.store.GetAuthorByName(ctx, username)
	if err != nil {
		return err
	}
	if !found {
		a = store.Author{Username: username}
	}
	a.Enabled = false
	if err := b.store.UpsertAuthor(ctx, a); err != nil {
		return err
	}
	return b.RefreshDisabled(ctx)
}

// RefreshDisabled reloads the opted-out author snapshot from the store.
func (b *Bot) RefreshDisabled(ctx context.Context) error {
	authors, err := b.store.GetDisabledAuthors(ctx)
	if err != nil {
		return err
	}
	set := make(map[string]struct{}, len(authors))
	for _, a := range authors {
		set[strings.ToLower(a.Username)] = struct{}{}
	}
	b.disabled.Store(&set)
	return nil
}

func (b *Bot) isDisabled(username string) bool {
	set := b.disabled.Load()
	_, ok := (*set)[strings.ToLower(username)]
	return ok
}
