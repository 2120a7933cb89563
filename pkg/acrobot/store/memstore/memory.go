// Package memstore is an in-memory implementation of store.Store for
// tests and the offline replay harness. List queries come back in the
// same order the SQLite store would return them.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/internalerr"
	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/store"
)

// Store keeps everything in mutex-guarded maps.
type Store struct {
	mu       sync.RWMutex
	acronyms map[string]store.Acronym // keyed by ID
	scopes   map[string]store.Scope
	authors  map[string]store.Author // keyed by lowercased username
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		acronyms: make(map[string]store.Acronym),
		scopes:   make(map[string]store.Scope),
		authors:  make(map[string]store.Author),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// InsertAcronym admits an acronym unless an enabled one with the same
// name already holds the scope; the earliest insert wins.
func (s *Store) InsertAcronym(ctx context.Context, a store.Acronym) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" || a.Name == "" {
		return internalerr.ErrInvalidInput
	}
	for _, existing := range s.acronyms {
		if existing.Enabled && existing.Name == a.Name && existing.ScopeID == a.ScopeID {
			return internalerr.ErrDuplicate
		}
	}
	s.acronyms[a.ID] = a
	return nil
}

// GetAcronym returns the enabled acronym with the given name in the scope.
func (s *Store) GetAcronym(ctx context.Context, name, scopeID string) (store.Acronym, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.acronyms {
		if a.Enabled && a.Name == name && a.ScopeID == scopeID {
			return a, true, nil
		}
	}
	return store.Acronym{}, false, nil
}

// GetAcronymsByName returns every enabled acronym with the name, across
// all scopes, ordered by id.
func (s *Store) GetAcronymsByName(ctx context.Context, name string) ([]store.Acronym, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Acronym
	for _, a := range s.acronyms {
		if a.Enabled && a.Name == name {
			out = append(out, a)
		}
	}
	sortAcronyms(out)
	return out, nil
}

// GetAcronymsByScope returns the enabled acronyms of one scope, ordered
// by id.
func (s *Store) GetAcronymsByScope(ctx context.Context, scopeID string) ([]store.Acronym, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Acronym
	for _, a := range s.acronyms {
		if a.Enabled && a.ScopeID == scopeID {
			out = append(out, a)
		}
	}
	sortAcronyms(out)
	return out, nil
}

func sortAcronyms(acronyms []store.Acronym) {
	sort.Slice(acronyms, func(i, j int) bool { return acronyms[i].ID < acronyms[j].ID })
}

// GetGlobalAcronyms returns the enabled acronyms of the global scope.
func (s *Store) GetGlobalAcronyms(ctx context.Context) ([]store.Acronym, error) {
	return s.GetAcronymsByScope(ctx, store.GlobalScopeID)
}

// DisableAcronym soft-deletes an acronym by id.
func (s *Store) DisableAcronym(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.acronyms[id]
	if !ok {
		return internalerr.ErrNotFound
	}
	a.Enabled = false
	s.acronyms[id] = a
	return nil
}

// UpsertScope inserts or replaces a scope.
func (s *Store) UpsertScope(ctx context.Context, sc store.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sc.ID == "" {
		return internalerr.ErrInvalidInput
	}
	s.scopes[sc.ID] = sc
	return nil
}

// GetScope returns a scope by id.
func (s *Store) GetScope(ctx context.Context, id string) (store.Scope, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, ok := s.scopes[id]
	return sc, ok, nil
}

// GetScopeByName returns a scope by its community name.
func (s *Store) GetScopeByName(ctx context.Context, name string) (store.Scope, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sc := range s.scopes {
		if strings.EqualFold(sc.Name, name) {
			return sc, true, nil
		}
	}
	return store.Scope{}, false, nil
}

// GetEnabledScopes returns every enabled scope, ordered by id.
func (s *Store) GetEnabledScopes(ctx context.Context) ([]store.Scope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Scope
	for _, sc := range s.scopes {
		if sc.Enabled {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpsertAuthor inserts or replaces an author, keyed by username.
func (s *Store) UpsertAuthor(ctx context.Context, a store.Author) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.Username == "" {
		return internalerr.ErrInvalidInput
	}
	s.authors[strings.ToLower(a.Username)] = a
	return nil
}

// GetAuthorByName returns an author by username, case-insensitively.
func (s *Store) GetAuthorByName(ctx context.Context, username string) (store.Author, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.authors[strings.ToLower(username)]
	return a, ok, nil
}

// GetDisabledAuthors returns every author who opted out, ordered by
// username.
func (s *Store) GetDisabledAuthors(ctx context.Context) ([]store.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Author
	for _, a := range s.authors {
		if !a.Enabled {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
