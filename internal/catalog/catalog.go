// Package catalog holds the cloud field guide: the embedded card
// dataset, rarity tiers derived from base scores, and the name
// resolver that maps free-form Chinese cloud names onto card ids.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.yaml
var rawCatalog []byte

// Entry is a single collectible card definition.
type Entry struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Latin       string   `yaml:"latin"`
	Category    string   `yaml:"category"`
	Score       int      `yaml:"score"`
	Description string   `yaml:"description"`
	Features    []string `yaml:"features"`
	Hint        string   `yaml:"hint"`
}

// Rarity returns the tier derived from the entry's base score.
func (e *Entry) Rarity() Rarity {
	return TierForScore(e.Score)
}

type catalogFile struct {
	Entries []Entry           `yaml:"entries"`
	Aliases map[string]string `yaml:"aliases"`
}

// Catalog is the immutable in-memory card index. Safe for concurrent
// reads after Load.
type Catalog struct {
	entries []Entry
	byID    map[string]*Entry
	byName  map[string]*Entry
	aliases map[string]string
	names   []string
}

// Load parses and validates the embedded dataset. Duplicate ids or
// names, negative scores and aliases pointing at unknown ids are all
// load-time errors rather than silent lookup misses.
func Load() (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(rawCatalog, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	c := &Catalog{
		entries: f.Entries,
		byID:    make(map[string]*Entry, len(f.Entries)),
		byName:  make(map[string]*Entry, len(f.Entries)),
		aliases: f.Aliases,
	}
	for i := range c.entries {
		e := &c.entries[i]
		if e.ID == "" || e.Name == "" {
			return nil, fmt.Errorf("catalog entry %d: missing id or name", i)
		}
		if e.Score < 0 {
			return nil, fmt.Errorf("catalog entry %q: negative score", e.ID)
		}
		if _, ok := c.byID[e.ID]; ok {
			return nil, fmt.Errorf("catalog entry %q: duplicate id", e.ID)
		}
		if _, ok := c.byName[e.Name]; ok {
			return nil, fmt.Errorf("catalog entry %q: duplicate name %q", e.ID, e.Name)
		}
		c.byID[e.ID] = e
		c.byName[e.Name] = e
	}
	for alias, id := range c.aliases {
		if _, ok := c.byID[id]; !ok {
			return nil, fmt.Errorf("catalog alias %q: unknown id %q", alias, id)
		}
		if _, ok := c.byName[alias]; ok {
			return nil, fmt.Errorf("catalog alias %q: shadows a canonical name", alias)
		}
	}
	c.names = make([]string, 0, len(c.byName)+len(c.aliases))
	for name := range c.byName {
		c.names = append(c.names, name)
	}
	for alias := range c.aliases {
		c.names = append(c.names, alias)
	}
	// Longest first so substring matching prefers the most specific
	// name; ties break alphabetically to keep the order stable.
	sort.Slice(c.names, func(i, j int) bool {
		li, lj := len([]rune(c.names[i])), len([]rune(c.names[j]))
		if li != lj {
			return li > lj
		}
		return c.names[i] < c.names[j]
	})
	return c, nil
}

// MustLoad is Load for package-level initialization paths where a
// broken embedded dataset is unrecoverable.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the entry with the given card id, or nil.
func (c *Catalog) Get(id string) *Entry {
	return c.byID[id]
}

// GetByName returns the entry with the given canonical Chinese name,
// or nil. Aliases are not consulted here; use Resolve for fuzzy
// lookups.
func (c *Catalog) GetByName(name string) *Entry {
	return c.byName[name]
}

// All returns the entries in dataset order. The caller must not
// mutate the returned slice.
func (c *Catalog) All() []Entry {
	return c.entries
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// KnownNames returns every canonical name and alias, sorted by
// descending rune length. The caller must not mutate the returned
// slice.
func (c *Catalog) KnownNames() []string {
	return c.names
}
