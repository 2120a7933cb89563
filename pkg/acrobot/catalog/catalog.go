// Package catalog defines the title-catalog surface ingestion and lookup
// consume. The HTTP implementation lives in internal/spotify; everything
// here is transport-agnostic.
package catalog

import (
	"context"
	"strings"
)

// Group selects which part of a discography to page through.
type Group string

const (
	GroupAlbum  Group = "album"
	GroupSingle Group = "single"
)

// SearchKind selects a search index.
type SearchKind string

const (
	SearchTrack  SearchKind = "track"
	SearchAlbum  SearchKind = "album"
	SearchArtist SearchKind = "artist"
)

// Album is one discography entry.
type Album struct {
	ID                   string
	Name                 string
	Type                 string // "album" or "single"
	ReleaseDate          string
	ReleaseDatePrecision string // "year", "month" or "day"
	ArtistNames          []string
}

// Year reduces the release date to its year component, honoring the
// reported precision.
func (a Album) Year() string {
	if a.ReleaseDatePrecision == "year" {
		return a.ReleaseDate
	}
	if i := strings.IndexByte(a.ReleaseDate, '-'); i > 0 {
		return a.ReleaseDate[:i]
	}
	return a.ReleaseDate
}

// Artists joins the credited artist names for display.
func (a Album) Artists() string {
	return strings.Join(a.ArtistNames, ", ")
}

// IsSingle reports whether the album is a single release.
func (a Album) IsSingle() bool {
	return a.Type == "single"
}

// Page is one offset-paged slice of a discography, with the total the
// server reports across all pages.
type Page struct {
	Items []Album
	Total int
}

// Track is one track on an album.
type Track struct {
	ID   string
	Name string
}

// AlbumDetail is a full album with its track listing.
type AlbumDetail struct {
	Album
	Tracks []Track
}

// SearchResult is one ranked hit from the search index. Fields irrelevant
// to the hit's kind stay empty.
type SearchResult struct {
	Kind                 SearchKind
	Name                 string
	ArtistNames          []string
	AlbumName            string
	AlbumType            string
	ReleaseDate          string
	ReleaseDatePrecision string
	Popularity           int
}

// Artists joins the credited artist names for display.
func (r SearchResult) Artists() string {
	return strings.Join(r.ArtistNames, ", ")
}

// Year reduces the release date to its year component.
func (r SearchResult) Year() string {
	return Album{ReleaseDate: r.ReleaseDate, ReleaseDatePrecision: r.ReleaseDatePrecision}.Year()
}

// Client is the catalog adapter.
type Client interface {
	// Discography returns one page of an artist's releases in the given
	// group.
	Discography(ctx context.Context, artistID string, group Group, offset, limit int) (Page, error)
	// Album returns a full album with its track listing.
	Album(ctx context.Context, id string) (AlbumDetail, error)
	// Search returns up to limit hits for the query, most popular first.
	Search(ctx context.Context, query string, kind SearchKind, limit int) ([]SearchResult, error)
}
