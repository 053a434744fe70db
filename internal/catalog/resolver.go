package catalog

import (
	"strings"
	"unicode"
)

// normalizeName trims the input and collapses any internal whitespace
// runs, so "开尔文  亥姆霍兹波 " compares like "开尔文亥姆霍兹波".
func normalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Resolve maps a free-form Chinese cloud name onto a card id. Lookup
// tiers run from exact to increasingly fuzzy and the first hit wins:
//
//  1. alias exact match
//  2. canonical name exact match
//  3. canonical name containment, either direction
//  4. containment with the trailing 云 stripped from both sides
//  5. alias containment, either direction
//
// Returns "" when nothing matches. Candidate names are tried longest
// first so generic names never shadow more specific ones.
func (c *Catalog) Resolve(name string) string {
	name = normalizeName(name)
	if name == "" {
		return ""
	}

	if id, ok := c.aliases[name]; ok {
		return id
	}
	if e, ok := c.byName[name]; ok {
		return e.ID
	}

	for _, known := range c.names {
		if c.aliases[known] != "" {
			continue
		}
		if strings.Contains(name, known) || strings.Contains(known, name) {
			return c.byName[known].ID
		}
	}

	stripped := strings.TrimSuffix(name, "云")
	if stripped != "" && stripped != name {
		for _, known := range c.names {
			if c.aliases[known] != "" {
				continue
			}
			knownStripped := strings.TrimSuffix(known, "云")
			if knownStripped == "" {
				continue
			}
			if strings.Contains(stripped, knownStripped) || strings.Contains(knownStripped, stripped) {
				return c.byName[known].ID
			}
		}
	}

	for _, alias := range c.names {
		id := c.aliases[alias]
		if id == "" {
			continue
		}
		if strings.Contains(name, alias) || strings.Contains(alias, name) {
			return id
		}
	}

	return ""
}
