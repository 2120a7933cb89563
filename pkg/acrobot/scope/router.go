// Package scope decides whether a generated acronym candidate is admitted
// into the knowledge base, and under which scope.
//
// Short strings are common enough to collide in large venues, so 3-4
// character acronyms are only admitted into an explicitly named community.
// Strings of 5+ characters are distinctive and pooled into the "global"
// scope so every community can reuse them.
package scope

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/store"
)

// Admission rejections. ErrDenylisted aborts every remaining variant of
// the same title; the others skip only the single candidate.
var (
	ErrDenylisted    = errors.New("acronym denylisted")
	ErrTooShort      = errors.New("acronym below minimum length")
	ErrScopeRequired = errors.New("short acronym requires an explicit scope")
	ErrDuplicate     = errors.New("acronym already admitted in scope")
)

// Denylist answers membership checks for excluded acronyms.
type Denylist interface {
	Contains(acronym string) bool
}

// ExistsFunc reports whether an enabled acronym with the given name is
// already admitted in the given scope.
type ExistsFunc func(ctx context.Context, name, scopeID string) (bool, error)

// StoreExists adapts a store.Store lookup into an ExistsFunc.
func StoreExists(st store.Store) ExistsFunc {
	return func(ctx context.Context, name, scopeID string) (bool, error) {
		_, found, err := st.GetAcronym(ctx, name, scopeID)
		return found, err
	}
}

// Router applies the admission rules.
type Router struct {
	deny   Denylist
	exists ExistsFunc
}

// NewRouter creates a router over the given denylist and uniqueness lookup.
func NewRouter(deny Denylist, exists ExistsFunc) *Router {
	return &Router{deny: deny, exists: exists}
}

// Route resolves the effective scope for a candidate name, or rejects it.
// scopeID is the caller-supplied target community; empty (or "global")
// means no explicit community was named.
//
// Rules, in order: denylisted names are rejected; names shorter than 3
// characters are rejected; 3-4 character names without an explicit scope
// are rejected; 5+ character names are forced to the global scope; the
// survivor keeps the caller's scope. Finally, an enabled acronym already
// present under the effective scope wins (first writer), rejecting this
// one.
func (r *Router) Route(ctx context.Context, name, scopeID string) (string, error) {
	if r.deny != nil && r.deny.Contains(name) {
		return "", ErrDenylisted
	}

	length := utf8.RuneCountInString(name)
	explicit := scopeID != "" && scopeID != store.GlobalScopeID

	if length < 3 {
		return "", ErrTooShort
	}
	if length < 5 && !explicit {
		return "", ErrScopeRequired
	}

	effective := scopeID
	if length >= 5 {
		effective = store.GlobalScopeID
	}

	if r.exists != nil {
		taken, err := r.exists(ctx, name, effective)
		if err != nil {
			return "", err
		}
		if taken {
			return "", ErrDuplicate
		}
	}

	return effective, nil
}
