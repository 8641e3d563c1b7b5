package matcher

import (
	"github.com/DevSymphony/sysop/internal/catalogue"
	"github.com/DevSymphony/sysop/internal/lemma"
	"github.com/DevSymphony/sysop/pkg/schema"
)

// Entry maps one normalized phrase to an intent
type Entry struct {
	Phrase   string // normalized
	Original string // as written in the catalogue
	Intent   string
}

// Index is the ordered phrase table of one catalogue snapshot.
// The first intent to claim a normalized phrase keeps it.
type Index struct {
	entries []Entry
	byKey   map[string]int
}

// BuildIndex normalizes every phrase of every intent in catalogue order.
// Phrases claimed by an earlier intent are dropped and reported.
func BuildIndex(defs []*schema.IntentDefinition, lem lemma.Lemmatizer) (*Index, []catalogue.Warning) {
	idx := &Index{byKey: make(map[string]int)}
	var warnings []catalogue.Warning

	for _, def := range defs {
		for _, phrase := range def.Phrases {
			key := lem.Normalize(phrase)
			if key == "" {
				continue
			}
			if pos, taken := idx.byKey[key]; taken {
				kept := idx.entries[pos].Intent
				if kept != def.ID {
					warnings = append(warnings, catalogue.Warning{Phrase: key, Kept: kept, Dropped: def.ID})
				}
				continue
			}
			idx.byKey[key] = len(idx.entries)
			idx.entries = append(idx.entries, Entry{Phrase: key, Original: phrase, Intent: def.ID})
		}
	}
	return idx, warnings
}

// Len returns the number of indexed phrases
func (idx *Index) Len() int { return len(idx.entries) }

// Entries returns the indexed phrases in build order
func (idx *Index) Entries() []Entry {
	out := make([]Entry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// Lookup returns the intent that owns a normalized phrase
func (idx *Index) Lookup(phrase string) (string, bool) {
	pos, ok := idx.byKey[phrase]
	if !ok {
		return "", false
	}
	return idx.entries[pos].Intent, true
}
