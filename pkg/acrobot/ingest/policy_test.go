package ingest

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/catalog"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/denylist"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/retry"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/scope"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/store"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/store/memstore"
)

// fakeCatalog serves canned discographies and can fail the first N calls
// with a rate-limit error.
type fakeCatalog struct {
	albums    map[catalog.Group][]catalog.Album
	details   map[string]catalog.AlbumDetail
	failFirst int
	hint      time.Duration
	calls     int
}

func (f *fakeCatalog) throttle() error {
	f.calls++
	if f.calls <= f.failFirst {
		return &retry.RateLimited{Hint: f.hint}
	}
	return nil
}

func (f *fakeCatalog) Discography(ctx context.Context, artistID string, group catalog.Group, offset, limit int) (catalog.Page, error) {
	if err := f.throttle(); err != nil {
		return catalog.Page{}, err
	}
	all := f.albums[group]
	if offset >= len(all) {
		return catalog.Page{Total: len(all)}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return catalog.Page{Items: all[offset:end], Total: len(all)}, nil
}

func (f *fakeCatalog) Album(ctx context.Context, id string) (catalog.AlbumDetail, error) {
	if err := f.throttle(); err != nil {
		return catalog.AlbumDetail{}, err
	}
	d, ok := f.details[id]
	if !ok {
		return catalog.AlbumDetail{}, errors.New("unknown album " + id)
	}
	return d, nil
}

func (f *fakeCatalog) Search(ctx context.Context, query string, kind catalog.SearchKind, limit int) ([]catalog.SearchResult, error) {
	return nil, nil
}

func album(id, name, date, precision string) catalog.Album {
	return catalog.Album{ID: id, Name: name, Type: "album", ReleaseDate: date, ReleaseDatePrecision: precision, ArtistNames: []string{"Test Artist"}}
}

func single(id, name, date string) catalog.Album {
	a := album(id, name, date, "day")
	a.Type = "single"
	return a
}

func detail(a catalog.Album, tracks ...string) catalog.AlbumDetail {
	d := catalog.AlbumDetail{Album: a}
	for i, name := range tracks {
		d.Tracks = append(d.Tracks, catalog.Track{ID: a.ID + "-t" + string(rune('0'+i)), Name: name})
	}
	return d
}

func newPolicy(t *testing.T, cat catalog.Client, deny *denylist.Manager) (*Policy, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	if deny == nil {
		deny = denylist.NewManager(nil)
	}
	router := scope.NewRouter(deny, scope.StoreExists(st))
	p := New(Options{
		Catalog:  cat,
		Store:    st,
		Router:   router,
		Retry:    retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		Logger:   log.New(io.Discard, "", 0),
		PageSize: 2,
	})
	return p, st
}

func TestIngestPagesUntilTotal(t *testing.T) {
	a1 := album("a1", "First Record", "2001-01-01", "day")
	a2 := album("a2", "Second Record", "2002-01-01", "day")
	a3 := album("a3", "Third Record", "2003-01-01", "day")

	cat := &fakeCatalog{
		albums: map[catalog.Group][]catalog.Album{catalog.GroupAlbum: {a1, a2, a3}},
		details: map[string]catalog.AlbumDetail{
			"a1": detail(a1, "Waiting On A War"),
			"a2": detail(a2, "How Do I Make You Love Me"),
			"a3": detail(a3, "No One Knows What It Means"),
		},
	}

	p, st := newPolicy(t, cat, nil)
	admitted, err := p.IngestArtist(context.Background(), "artist-1", "2qt6r")
	if err != nil {
		t.Fatalf("IngestArtist: %v", err)
	}
	if len(admitted) != 3 {
		t.Fatalf("Expected 3 admitted acronyms across 2 pages, got %d", len(admitted))
	}

	// WOAW is 4 chars with an explicit scope; the others pool globally.
	if _, found, _ := st.GetAcronym(context.Background(), "WOAW", "2qt6r"); !found {
		t.Error("WOAW should be admitted in the explicit scope")
	}
	if _, found, _ := st.GetAcronym(context.Background(), "HDIMYLM", store.GlobalScopeID); !found {
		t.Error("HDIMYLM should be pooled globally")
	}
	if _, found, _ := st.GetAcronym(context.Background(), "NOKWIM", store.GlobalScopeID); !found {
		t.Error("NOKWIM should be pooled globally")
	}
}

func TestBlacklistAlwaysWins(t *testing.T) {
	junk := album("a1", "Greatest Hits Karaoke (Deluxe)", "2001-01-01", "day")
	cat := &fakeCatalog{
		albums:  map[catalog.Group][]catalog.Album{catalog.GroupAlbum: {junk}},
		details: map[string]catalog.AlbumDetail{"a1": detail(junk, "Some Song Here")},
	}

	p, _ := newPolicy(t, cat, nil)
	admitted, err := p.IngestArtist(context.Background(), "artist-1", "2qt6r")
	if err != nil {
		t.Fatalf("IngestArtist: %v", err)
	}
	if len(admitted) != 0 {
		t.Errorf("A blacklisted album stays excluded even with a whitelist hit, got %d acronyms", len(admitted))
	}
}

func TestWhitelistOverridesGraylist(t *testing.T) {
	tv := album("a1", "Red (Taylor's Version)", "2021-11-12", "day")
	plain := album("a2", "Untitled: A Story", "2010-01-01", "day")
	cat := &fakeCatalog{
		albums: map[catalog.Group][]catalog.Album{catalog.GroupAlbum: {tv, plain}},
		details: map[string]catalog.AlbumDetail{
			"a1": detail(tv, "All Too Well Ten Minute Version"),
			"a2": detail(plain, "Whatever Song That Is"),
		},
	}

	p, _ := newPolicy(t, cat, nil)
	admitted, err := p.IngestArtist(context.Background(), "artist-1", "2rlwe")
	if err != nil {
		t.Fatalf("IngestArtist: %v", err)
	}

	for _, a := range admitted {
		if a.AlbumName == "Untitled: A Story" {
			t.Error("Graylisted album without a whitelist hit should be excluded")
		}
	}
	found := false
	for _, a := range admitted {
		if a.AlbumName == "Red (Taylor's Version)" {
			found = true
		}
	}
	if !found {
		t.Error("Whitelisted album should survive the graylist")
	}
}

func TestDedupeKeepsEarliestRelease(t *testing.T) {
	early := album("a1", "Hometown Glory", "2008-01-01", "day")
	late := album("a2", "Hometown Glory", "2015-06-01", "day")
	cat := &fakeCatalog{
		albums: map[catalog.Group][]catalog.Album{catalog.GroupAlbum: {late, early}},
		details: map[string]catalog.AlbumDetail{
			"a1": detail(early, "Early Cut Of This Song"),
			"a2": detail(late, "Late Cut Of That Song"),
		},
	}

	p, _ := newPolicy(t, cat, nil)
	admitted, err := p.IngestArtist(context.Background(), "artist-1", "")
	if err != nil {
		t.Fatalf("IngestArtist: %v", err)
	}
	for _, a := range admitted {
		if a.TrackName == "Late Cut Of That Song" {
			t.Error("Only the earliest release of a duplicated name should be ingested")
		}
	}
}

func TestTitleTrackSuppression(t *testing.T) {
	title := "Nothing New Under Electric Skies"
	lp := album("a1", title, "2015-01-01", "day")
	cat := &fakeCatalog{
		albums: map[catalog.Group][]catalog.Album{catalog.GroupAlbum: {lp}},
		details: map[string]catalog.AlbumDetail{
			"a1": detail(lp, title, "Absolutely Unrelated Song Title Two"),
		},
	}

	p, _ := newPolicy(t, cat, nil)
	admitted, err := p.IngestArtist(context.Background(), "artist-1", "")
	if err != nil {
		t.Fatalf("IngestArtist: %v", err)
	}

	// The title track shadows the album itself and must not be admitted.
	for _, a := range admitted {
		if a.TrackName == title {
			t.Errorf("Title track of a non-single should be suppressed, got %q", a.Name)
		}
	}
	if len(admitted) != 1 || admitted[0].Name != "AUSTT" || admitted[0].Kind != store.KindTrack {
		t.Errorf("Sibling track should be admitted as a Track, got %+v", admitted)
	}
}

func TestSingleMapsAsSingle(t *testing.T) {
	sg := single("s1", "Waiting On A War", "2021-02-04")
	cat := &fakeCatalog{
		albums:  map[catalog.Group][]catalog.Album{catalog.GroupSingle: {sg}},
		details: map[string]catalog.AlbumDetail{"s1": detail(sg, "Waiting On A War")},
	}

	p, _ := newPolicy(t, cat, nil)
	admitted, err := p.IngestArtist(context.Background(), "artist-1", "2qt6r")
	if err != nil {
		t.Fatalf("IngestArtist: %v", err)
	}
	if len(admitted) != 1 || admitted[0].Name != "WOAW" || admitted[0].Kind != store.KindSingle {
		t.Errorf("A single's title track should be admitted as a Single, got %+v", admitted)
	}
}

func TestDenylistAbortsTitleVariants(t *testing.T) {
	lp := album("a1", "Record", "2011-01-01", "day")
	cat := &fakeCatalog{
		albums:  map[catalog.Group][]catalog.Album{catalog.GroupAlbum: {lp}},
		details: map[string]catalog.AlbumDetail{"a1": detail(lp, "Vices & Virtues Forever")},
	}

	// The title expands to V&VF, VAVF, VVF; denying the primary variant
	// must abandon the spelled-out variants too.
	p, st := newPolicy(t, cat, denylist.NewManager([]string{"V&VF"}))
	admitted, err := p.IngestArtist(context.Background(), "artist-1", "2qt6r")
	if err != nil {
		t.Fatalf("IngestArtist: %v", err)
	}
	if len(admitted) != 0 {
		t.Fatalf("Denylisted primary should abort all variants, got %d", len(admitted))
	}
	if _, found, _ := st.GetAcronym(context.Background(), "VAVF", "2qt6r"); found {
		t.Error("VAVF should not be admitted after the denylist hit")
	}
}

func TestRateLimitRetriedThenSucceeds(t *testing.T) {
	lp := album("a1", "Record", "2011-01-01", "day")
	cat := &fakeCatalog{
		albums:    map[catalog.Group][]catalog.Album{catalog.GroupAlbum: {lp}},
		details:   map[string]catalog.AlbumDetail{"a1": detail(lp, "Waiting On A War Again")},
		failFirst: 2,
		hint:      time.Millisecond,
	}

	p, _ := newPolicy(t, cat, nil)
	admitted, err := p.IngestArtist(context.Background(), "artist-1", "")
	if err != nil {
		t.Fatalf("Rate-limited calls should be retried: %v", err)
	}
	if len(admitted) != 1 {
		t.Errorf("Expected 1 acronym after retries, got %d", len(admitted))
	}
}

func TestRunContinuesPastFailedArtist(t *testing.T) {
	lp := album("a1", "Record", "2011-01-01", "day")
	good := &fakeCatalog{
		albums:  map[catalog.Group][]catalog.Album{catalog.GroupAlbum: {lp}},
		details: map[string]catalog.AlbumDetail{"a1": detail(lp, "Waiting On A War Again")},
	}
	// The first artist rate-limits forever and exhausts the ceiling; the
	// second succeeds.
	bad := &fakeCatalog{failFirst: 1 << 30, hint: time.Millisecond}

	st := memstore.New()
	router := scope.NewRouter(denylist.NewManager(nil), scope.StoreExists(st))
	pol := retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

	failing := New(Options{Catalog: bad, Store: st, Router: router, Retry: pol, Logger: log.New(io.Discard, "", 0)})
	if _, err := failing.IngestArtist(context.Background(), "artist-bad", ""); err == nil {
		t.Fatal("Exhausted retries should abandon the artist")
	}

	working := New(Options{Catalog: good, Store: st, Router: router, Retry: pol, Logger: log.New(io.Discard, "", 0)})
	total, err := working.Run(context.Background(), []Target{{ArtistID: "artist-good"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 1 {
		t.Errorf("Expected 1 admitted acronym from the healthy artist, got %d", total)
	}
}
