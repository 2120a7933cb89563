// Package acronym derives candidate acronym strings from catalog titles.
//
// Generation is deterministic and pure: the same title always yields the
// same ordered candidate set, with no I/O and no side effects.
package acronym

import "strings"

// strippedRunes are punctuation characters irrelevant to acronym
// formation; they are removed before tokenizing.
var strippedRunes = []string{".", "‘", "’", "'", "[", "]", "…", "\""}

// Expand turns a title into its ordered candidate acronym set.
//
// The title is truncated at the first "(" and the first "-" (dropping
// parenthetical qualifiers and subtitle suffixes), cleaned of stray
// punctuation, uppercased, and reduced to the first rune of every
// space-separated token. Titles containing "&" or "/" additionally emit
// the spelled-out and collapsed variants. A title with no letters yields
// a single empty-string candidate, which scope routing rejects by length.
func Expand(title string) []string {
	name := title

	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, '-'); i >= 0 {
		name = name[:i]
	}

	for _, r := range strippedRunes {
		name = strings.ReplaceAll(name, r, "")
	}
	name = strings.ToUpper(strings.TrimSpace(name))

	var b strings.Builder
	for _, word := range strings.Split(name, " ") {
		if word == "" {
			continue
		}
		for _, r := range word {
			b.WriteRune(r)
			break
		}
	}
	primary := b.String()

	candidates := []string{primary}

	if strings.Contains(primary, "&") {
		candidates = append(candidates,
			strings.ReplaceAll(primary, "&", "A"),
			strings.ReplaceAll(primary, "&", ""),
		)
	}
	if strings.Contains(primary, "/") {
		candidates = append(candidates, strings.ReplaceAll(primary, "/", ""))
	}

	return candidates
}
