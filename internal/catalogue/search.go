package catalogue

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/sahilm/fuzzy"

	"github.com/DevSymphony/sysop/pkg/schema"
)

// Search filters defs by query. Substring hits on the id or description come
// first in catalogue order, followed by fuzzy subsequence hits on the id,
// best first. An empty query returns defs unchanged.
func Search(defs []*schema.IntentDefinition, query string) []*schema.IntentDefinition {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return defs
	}

	var out []*schema.IntentDefinition
	taken := make(map[string]bool)
	for _, def := range defs {
		if strings.Contains(strings.ToLower(def.ID), query) ||
			strings.Contains(strings.ToLower(def.Description), query) {
			out = append(out, def)
			taken[def.ID] = true
		}
	}

	ids := make([]string, len(defs))
	for i, def := range defs {
		ids[i] = def.ID
	}
	for _, m := range fuzzy.Find(query, ids) {
		if !taken[m.Str] {
			out = append(out, defs[m.Index])
			taken[m.Str] = true
		}
	}
	return out
}

// Closest returns the intent id nearest to id by edit distance, if any is
// close enough to be a plausible typo.
func Closest(defs []*schema.IntentDefinition, id string) (string, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return "", false
	}
	limit := max(2, len([]rune(id))/3)
	best, bestDist := "", limit+1
	for _, def := range defs {
		if d := levenshtein.ComputeDistance(id, strings.ToLower(def.ID)); d < bestDist {
			best, bestDist = def.ID, d
		}
	}
	return best, best != ""
}
