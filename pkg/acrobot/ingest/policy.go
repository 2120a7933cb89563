// Package ingest turns catalog discographies into acronym candidates.
//
// One artist is one unit of work: the discography is paged in full,
// junk releases are filtered out, and every retained track title runs
// through generation and scope routing. Catalog calls sit behind a retry
// policy and a shared rate limiter; a failure that survives the retry
// ceiling abandons only the current artist.
package ingest

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"
	xrate "golang.org/x/time/rate"

	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/acronym"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/catalog"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/internalerr"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/retry"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/scope"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/store"
)

// DefaultPageSize is the discography page size requested per call.
const DefaultPageSize = 50

// Album-name filter terms. Blacklist always wins; the whitelist overrides
// only the graylist (see DESIGN.md for the precedence decision).
var (
	albumBlacklist = []string{"karaoke", "live", "playlist", "anniversary", "remix", "disney+"}
	albumGraylist  = []string{"-", "(", ":"}
	albumWhitelist = []string{"deluxe", "taylor's version"}
)

// Target names one artist to ingest and the community its short acronyms
// should land in.
type Target struct {
	ArtistID string
	ScopeID  string
}

// Policy ingests catalog titles into the acronym store.
type Policy struct {
	catalog  catalog.Client
	store    store.Store
	router   *scope.Router
	retry    retry.Policy
	pace     *xrate.Limiter
	pageSize int
	logger   *log.Logger
	entropy  *ulid.MonotonicEntropy
}

// Options configures a Policy. Catalog, Store and Router are required.
type Options struct {
	Catalog  catalog.Client
	Store    store.Store
	Router   *scope.Router
	Retry    retry.Policy
	Pace     *xrate.Limiter
	PageSize int
	Logger   *log.Logger
}

// New creates an ingestion policy.
func New(opts Options) *Policy {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pol := opts.Retry
	if pol.MaxAttempts == 0 {
		pol = retry.DefaultPolicy()
	}
	pace := opts.Pace
	if pace == nil {
		pace = xrate.NewLimiter(xrate.Inf, 1)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Policy{
		catalog:  opts.Catalog,
		store:    opts.Store,
		router:   opts.Router,
		retry:    pol,
		pace:     pace,
		pageSize: pageSize,
		logger:   logger,
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
}

// Run ingests every target in order. Targets are processed serially to
// respect the catalog's rate limits; a failed artist is logged and the
// run continues with the next one. Returns the total number of admitted
// acronyms.
func (p *Policy) Run(ctx context.Context, targets []Target) (int, error) {
	admitted := 0
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return admitted, err
		}
		acronyms, err := p.IngestArtist(ctx, t.ArtistID, t.ScopeID)
		if err != nil {
			p.logger.Printf("ingest: artist %s abandoned: %v", t.ArtistID, err)
			continue
		}
		admitted += len(acronyms)
	}
	return admitted, nil
}

// IngestArtist pages the artist's albums and singles, filters them, and
// admits acronym candidates for every retained track. The returned slice
// holds what was inserted; an error means the artist was abandoned
// mid-way (already inserted candidates stay).
func (p *Policy) IngestArtist(ctx context.Context, artistID, scopeID string) ([]store.Acronym, error) {
	albums, err := p.discography(ctx, artistID, catalog.GroupAlbum)
	if err != nil {
		return nil, err
	}
	singles, err := p.discography(ctx, artistID, catalog.GroupSingle)
	if err != nil {
		return nil, err
	}

	kept := dedupeByName(filterAlbums(append(albums, singles...)))

	var admitted []store.Acronym
	seen := make(map[string]struct{})
	for _, a := range kept {
		detail, err := p.album(ctx, a.ID)
		if err != nil {
			return admitted, err
		}
		mapped, err := p.mapAlbum(ctx, detail, scopeID, seen)
		if err != nil {
			return admitted, err
		}
		admitted = append(admitted, mapped...)
	}
	return admitted, nil
}

// discography accumulates offset pages until the collected count reaches
// the server-reported total.
func (p *Policy) discography(ctx context.Context, artistID string, group catalog.Group) ([]catalog.Album, error) {
	var items []catalog.Album
	offset := 0
	for {
		var page catalog.Page
		err := p.call(ctx, func(ctx context.Context) error {
			var err error
			page, err = p.catalog.Discography(ctx, artistID, group, offset, p.pageSize)
			return err
		})
		if err != nil {
			return nil, err
		}

		items = append(items, page.Items...)
		if len(page.Items) == 0 || len(items) >= page.Total {
			return items, nil
		}
		offset += p.pageSize
	}
}

func (p *Policy) album(ctx context.Context, id string) (catalog.AlbumDetail, error) {
	var detail catalog.AlbumDetail
	err := p.call(ctx, func(ctx context.Context) error {
		var err error
		detail, err = p.catalog.Album(ctx, id)
		return err
	})
	return detail, err
}

func (p *Policy) call(ctx context.Context, fn func(context.Context) error) error {
	return retry.Do(ctx, p.retry, func(ctx context.Context) error {
		if err := p.pace.Wait(ctx); err != nil {
			return err
		}
		return fn(ctx)
	})
}

// mapAlbum admits candidates for every track on the album. seen carries
// acronym names already admitted earlier in the same run.
func (p *Policy) mapAlbum(ctx context.Context, detail catalog.AlbumDetail, scopeID string, seen map[string]struct{}) ([]store.Acronym, error) {
	kind := store.KindTrack
	if detail.IsSingle() {
		kind = store.KindSingle
	}

	var admitted []store.Acronym
	for _, track := range detail.Tracks {
		// Title tracks of non-singles shadow the album itself.
		if !detail.IsSingle() && track.Name == detail.Name {
			continue
		}

		for _, name := range acronym.Expand(track.Name) {
			if _, dup := seen[name]; dup {
				continue
			}

			effective, err := p.router.Route(ctx, name, scopeID)
			if errors.Is(err, scope.ErrDenylisted) {
				break // abandons the remaining variants of this title
			}
			if errors.Is(err, scope.ErrTooShort) || errors.Is(err, scope.ErrScopeRequired) || errors.Is(err, scope.ErrDuplicate) {
				continue
			}
			if err != nil {
				return admitted, err
			}

			a := store.Acronym{
				ID:           ulid.MustNew(ulid.Now(), p.entropy).String(),
				Name:         name,
				Kind:         kind,
				ArtistName:   detail.Artists(),
				AlbumName:    detail.Name,
				TrackName:    track.Name,
				YearReleased: detail.Year(),
				ScopeID:      effective,
				Enabled:      true,
			}
			if err := p.store.InsertAcronym(ctx, a); err != nil {
				if errors.Is(err, internalerr.ErrDuplicate) {
					continue
				}
				return admitted, err
			}
			seen[name] = struct{}{}
			admitted = append(admitted, a)
		}
	}
	return admitted, nil
}

// filterAlbums drops junk releases by name. Blacklisted names always go;
// whitelisted names survive the graylist's subtitle and qualifier
// punctuation.
func filterAlbums(albums []catalog.Album) []catalog.Album {
	var kept []catalog.Album
	for _, a := range albums {
		name := strings.ToLower(a.Name)

		if containsAny(name, albumBlacklist) {
			continue
		}
		if !containsAny(name, albumWhitelist) && containsAny(name, albumGraylist) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// dedupeByName keeps the earliest release per album name.
func dedupeByName(albums []catalog.Album) []catalog.Album {
	sorted := make([]catalog.Album, len(albums))
	copy(sorted, albums)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ReleaseDate < sorted[j].ReleaseDate
	})

	seen := make(map[string]struct{}, len(sorted))
	var unique []catalog.Album
	for _, a := range sorted {
		if _, ok := seen[a.Name]; ok {
			continue
		}
		seen[a.Name] = struct{}{}
		unique = append(unique, a)
	}
	return unique
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
