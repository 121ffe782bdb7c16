package game

import (
	"maps"
	"slices"
	"strings"

	"github.com/hazyhaar/energle/pkg/energy"
)

// DefaultAliases maps common alternate names to the names used by the
// published datasets. Aliases resolve in both directions.
func DefaultAliases() map[string]string {
	return map[string]string{
		"us":          "united states",
		"u.s.":        "united states",
		"usa":         "united states",
		"viet nam":    "vietnam",
		"uae":         "united arab emirates",
		"south korea": "republic of korea",
	}
}

// Suggestion is one selectable answer.
type Suggestion struct {
	Name    string `json:"name"`
	Economy string `json:"economy"`
}

// Lookup resolves free-text guesses to profiles of one dataset.
type Lookup struct {
	byKey       map[string]*energy.Profile
	suggestions []suggestionEntry
}

type suggestionEntry struct {
	key string
	Suggestion
}

// NewLookup indexes d by sanitized name, economy code and bare code
// (01_AUS also answers to "aus"), then applies aliases.
func NewLookup(d *energy.Dataset, aliases map[string]string) *Lookup {
	l := &Lookup{byKey: make(map[string]*energy.Profile, len(d.Profiles)*3)}
	seen := map[string]bool{}
	for i := range d.Profiles {
		p := &d.Profiles[i]
		nameKey := energy.SanitizeName(p.Name)
		l.add(nameKey, p)
		l.add(energy.SanitizeName(p.Economy), p)
		l.add(energy.SanitizeName(bareCode(p.Economy)), p)

		if nameKey != "" && !seen[nameKey] {
			seen[nameKey] = true
			l.suggestions = append(l.suggestions, suggestionEntry{
				key:        nameKey,
				Suggestion: Suggestion{Name: p.Name, Economy: p.Economy},
			})
		}
	}
	l.applyAliases(aliases)
	slices.SortFunc(l.suggestions, func(a, b suggestionEntry) int {
		return strings.Compare(a.key, b.key)
	})
	return l
}

// applyAliases links each alias pair until no new key resolves, so chains
// like "us" -> "united states" <- "usa" reach a profile named "USA".
func (l *Lookup) applyAliases(aliases map[string]string) {
	names := slices.Sorted(maps.Keys(aliases))
	for changed := true; changed; {
		changed = false
		for _, alias := range names {
			a, c := energy.SanitizeName(alias), energy.SanitizeName(aliases[alias])
			pa, okA := l.byKey[a]
			pc, okC := l.byKey[c]
			switch {
			case okC && !okA && a != "":
				l.byKey[a] = pc
				changed = true
			case okA && !okC && c != "":
				l.byKey[c] = pa
				changed = true
			}
		}
	}
}

// add keeps the first profile registered under key.
func (l *Lookup) add(key string, p *energy.Profile) {
	if key == "" {
		return
	}
	if _, ok := l.byKey[key]; !ok {
		l.byKey[key] = p
	}
}

// Find returns the profile input names, if any.
func (l *Lookup) Find(input string) (*energy.Profile, bool) {
	p, ok := l.byKey[energy.SanitizeName(input)]
	return p, ok
}

// Suggestions lists answers whose sanitized name starts with the sanitized
// query, ordered by name and without duplicates. limit <= 0 means no limit.
func (l *Lookup) Suggestions(query string, limit int) []Suggestion {
	q := energy.SanitizeName(query)
	out := []Suggestion{}
	for _, e := range l.suggestions {
		if !strings.HasPrefix(e.key, q) {
			continue
		}
		out = append(out, e.Suggestion)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// bareCode strips a numeric ordering prefix: "01_AUS" becomes "AUS".
func bareCode(code string) string {
	prefix, rest, ok := strings.Cut(code, "_")
	if !ok || prefix == "" || strings.Trim(prefix, "0123456789") != "" {
		return code
	}
	return rest
}
