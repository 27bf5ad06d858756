// Package matcher resolves a classification against the pockets a user has
// created. It prefers an exact name match and falls back to a small scoring
// scheme.
package matcher

import (
	"strings"
	"unicode"

	"pocketbot/internal/catalog"
	"pocketbot/internal/core"
)

// separators are removed, together with whitespace, before comparing names.
const separators = `/\-_.,·&+|()[]{}:;'"!?`

const (
	scoreDescription = 3
	scoreGuessName   = 2
	scoreSynonym     = 1
)

type Matcher struct {
	cat *catalog.Catalog
}

func New(cat *catalog.Catalog) *Matcher {
	return &Matcher{cat: cat}
}

// Normalize lower-cases s and strips whitespace and separator characters.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) || strings.ContainsRune(separators, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type candidate struct {
	cat   core.UserCategory
	name  string
	score int
}

// Match returns the user category that best fits the classification. The
// second result is false when nothing scores.
func (m *Matcher) Match(cl core.Classification, description string, categories []core.UserCategory) (core.UserCategory, bool) {
	guess := Normalize(cl.CategoryName)
	desc := Normalize(description)

	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = Normalize(c.Name)
	}

	if guess != "" {
		for i, c := range categories {
			if names[i] == guess && c.Type == cl.Type {
				return c, true
			}
		}
	}

	var synonyms []string
	if d, ok := m.cat.Lookup(cl.CategoryID); ok {
		for _, s := range d.Synonyms {
			if s = Normalize(s); s != "" {
				synonyms = append(synonyms, s)
			}
		}
	}

	score := func(name string) int {
		total := 0
		if strings.Contains(desc, name) {
			total += scoreDescription
		}
		if guess != "" && strings.Contains(name, guess) {
			total += scoreGuessName
		}
		for _, s := range synonyms {
			if strings.Contains(name, s) {
				total += scoreSynonym
				break
			}
		}
		return total
	}

	rank := func(sameType bool) (candidate, bool) {
		var best candidate
		found := false
		for i, c := range categories {
			if names[i] == "" || (sameType && c.Type != cl.Type) {
				continue
			}
			s := score(names[i])
			if s == 0 {
				continue
			}
			next := candidate{cat: c, name: names[i], score: s}
			if !found || better(next, best) {
				best, found = next, true
			}
		}
		return best, found
	}

	if best, ok := rank(true); ok {
		return best.cat, true
	}
	if best, ok := rank(false); ok {
		return best.cat, true
	}
	return core.UserCategory{}, false
}

// better reports whether a outranks b. Ties on score go to the longer name;
// the earlier candidate keeps its place otherwise.
func better(a, b candidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return len([]rune(a.name)) > len([]rune(b.name))
}
