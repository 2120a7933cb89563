// Package match scans discussion bodies for acronym occurrences.
//
// Matching is a deliberate approximation of word-boundary matching: a
// one-character slack window on each side of the first occurrence is
// stripped of non-alphanumerics and compared to the stripped candidate.
// Adjacent punctuation is tolerated; a candidate embedded in a longer
// token is not, because the surviving neighbor characters keep the window
// from reducing to the bare candidate. The window-and-strip rule is the
// binding behavior, not a tokenizer.
package match

import (
	"strings"
	"unicode"

	"github.com/everettsouthwick/songacronymbot/pkg/acrobot/store"
)

// Match is one acronym occurrence inside a body. Position is the index of
// the first occurrence and is used only for output ordering.
type Match struct {
	Acronym  store.Acronym
	Position int
}

// Scan returns every candidate that occurs standalone in the body, tagged
// with its found index. Candidates with empty names are skipped. A body
// may yield zero or many matches.
func Scan(body string, acronyms []store.Acronym) []Match {
	lowered := strings.ToLower(body)

	var matches []Match
	for _, a := range acronyms {
		if a.Name == "" {
			continue
		}
		if pos, ok := scanOne(lowered, strings.ToLower(a.Name)); ok {
			matches = append(matches, Match{Acronym: a, Position: pos})
		}
	}
	return matches
}

func scanOne(body, name string) (int, bool) {
	index := strings.Index(body, name)
	if index < 0 {
		return 0, false
	}

	start := index - 1
	if start < 0 {
		start = 0
	}
	end := start + len(name) + 2
	if end > len(body) {
		end = len(body)
	}

	if stripNonAlnum(body[start:end]) != stripNonAlnum(name) {
		return 0, false
	}
	return index, true
}

func stripNonAlnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
