// Package denylist holds acronym strings that must never be admitted to
// the knowledge base, typically common words that would flood threads
// with false-positive replies.
package denylist

// Manager answers membership checks against the excluded-acronym set.
// Lookups are case-sensitive against the generated candidate string.
type Manager struct {
	excluded map[string]struct{}
}

// NewManager creates a manager seeded with the given terms.
func NewManager(terms []string) *Manager {
	excluded := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		excluded[t] = struct{}{}
	}
	return &Manager{excluded: excluded}
}

// Contains reports whether the acronym is denylisted.
func (m *Manager) Contains(acronym string) bool {
	_, ok := m.excluded[acronym]
	return ok
}

// Add inserts a term into the denylist.
func (m *Manager) Add(term string) {
	if term == "" {
		return
	}
	m.excluded[term] = struct{}{}
}

// Remove deletes a term from the denylist.
func (m *Manager) Remove(term string) {
	delete(m.excluded, term)
}

// All returns every denylisted term.
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.excluded))
	for t := range m.excluded {
		result = append(result, t)
	}
	return result
}
