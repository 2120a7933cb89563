package store

import (
	"context"
	"strings"
)

// GlobalScopeID is the reserved scope visible in every community.
const GlobalScopeID = "global"

// Store is the main interface for persisting and querying bot data
type Store interface {
	Close() error

	// Acronyms
	InsertAcronym(ctx context.Context, a Acronym) error
	GetAcronym(ctx context.Context, name, scopeID string) (Acronym, bool, error)
	GetAcronymsByName(ctx context.Context, name string) ([]Acronym, error)
	GetAcronymsByScope(ctx context.Context, scopeID string) ([]Acronym, error)
	GetGlobalAcronyms(ctx context.Context) ([]Acronym, error)
	DisableAcronym(ctx context.Context, id string) error

	// Scopes
	UpsertScope(ctx context.Context, s Scope) error
	GetScope(ctx context.Context, id string) (Scope, bool, error)
	GetScopeByName(ctx context.Context, name string) (Scope, bool, error)
	GetEnabledScopes(ctx context.Context) ([]Scope, error)

	// Authors
	UpsertAuthor(ctx context.Context, a Author) error
	GetAuthorByName(ctx context.Context, username string) (Author, bool, error)
	GetDisabledAuthors(ctx context.Context) ([]Author, error)
}

// Kind tags what catalog item an acronym stands for.
type Kind int

const (
	KindAlbum Kind = iota
	KindArtist
	KindSingle
	KindTrack
)

// String returns the storage name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAlbum:
		return "album"
	case KindArtist:
		return "artist"
	case KindSingle:
		return "single"
	default:
		return "track"
	}
}

// KindFromString parses a storage name back into a Kind.
// Unknown names fall back to KindTrack, matching Definition's fallback.
func KindFromString(s string) Kind {
	switch s {
	case "album":
		return KindAlbum
	case "artist":
		return KindArtist
	case "single":
		return KindSingle
	default:
		return KindTrack
	}
}

// Acronym is a generated acronym plus the catalog metadata it stands for.
// Acronyms are created during ingestion and never mutated afterwards
// except for the Enabled flag.
type Acronym struct {
	ID           string
	Name         string
	Kind         Kind
	ArtistName   string
	AlbumName    string
	TrackName    string
	YearReleased string
	ScopeID      string
	Enabled      bool
}

// Definition returns the lowercased text that, if already present in a
// thread, means the acronym is explained. Empty when the backing field
// is missing.
func (a Acronym) Definition() string {
	var def string
	switch a.Kind {
	case KindAlbum:
		def = a.AlbumName
	case KindArtist:
		def = a.ArtistName
	case KindSingle:
		def = a.TrackName
	default:
		def = a.TrackName
	}
	return strings.ToLower(def)
}

// Scope is a community an acronym is visible in.
type Scope struct {
	ID      string
	Name    string
	Enabled bool
}

// Author is a discussion-platform account; Enabled false means the
// account opted out of automatic replies.
type Author struct {
	ID       string
	Username string
	Enabled  bool
}
