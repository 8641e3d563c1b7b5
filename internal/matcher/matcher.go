// Package matcher resolves normalized text to the best intent of a phrase index.
package matcher

import (
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/DevSymphony/sysop/internal/catalogue"
	"github.com/DevSymphony/sysop/internal/lemma"
	"github.com/DevSymphony/sysop/pkg/schema"
)

// Threshold is the minimum fuzzy score accepted as a match
const Threshold = 88.0

const (
	NameFuzzy       = "fuzzy"
	NameContainment = "containment"
)

// Match is the phrase a strategy selected
type Match struct {
	Intent   string
	Phrase   string
	Score    float64
	Position int // index position of the phrase
}

// Strategy picks at most one indexed phrase for a normalized input
type Strategy interface {
	Name() string
	Match(input string, idx *Index) (Match, bool)
}

// Fuzzy scores every phrase and accepts the best one at or above Threshold.
// Equal scores keep the earlier phrase.
type Fuzzy struct {
	Scorer    Scorer
	Threshold float64
}

// NewFuzzy returns the WRatio strategy with the standard threshold
func NewFuzzy() *Fuzzy {
	return &Fuzzy{Scorer: WRatio, Threshold: Threshold}
}

func (f *Fuzzy) Name() string { return NameFuzzy }

func (f *Fuzzy) Match(input string, idx *Index) (Match, bool) {
	scorer := f.Scorer
	if scorer == nil {
		scorer = WRatio
	}
	best := Match{Position: -1}
	for i, e := range idx.entries {
		score := scorer(input, e.Phrase)
		if best.Position < 0 || score > best.Score {
			best = Match{Intent: e.Intent, Phrase: e.Phrase, Score: score, Position: i}
		}
	}
	if best.Position < 0 || best.Score < f.Threshold {
		return Match{}, false
	}
	return best, true
}

// Containment accepts the first phrase whose every word occurs as a
// substring of the input.
type Containment struct{}

func (Containment) Name() string { return NameContainment }

func (Containment) Match(input string, idx *Index) (Match, bool) {
	for i, e := range idx.entries {
		words := strings.Fields(e.Phrase)
		if len(words) == 0 {
			continue
		}
		all := true
		for _, w := range words {
			if !strings.Contains(input, w) {
				all = false
				break
			}
		}
		if all {
			return Match{Intent: e.Intent, Phrase: e.Phrase, Score: 100, Position: i}, true
		}
	}
	return Match{}, false
}

// NewStrategy selects a strategy by configuration name. Unknown names use Fuzzy.
func NewStrategy(name string) Strategy {
	if strings.EqualFold(strings.TrimSpace(name), NameContainment) {
		return Containment{}
	}
	return NewFuzzy()
}

// Matcher owns the phrase index of the current catalogue snapshot
type Matcher struct {
	lem      lemma.Lemmatizer
	strategy Strategy
	scorer   Scorer
	idx      atomic.Pointer[Index]
	logger   *zap.Logger
}

// New creates a matcher with an empty index
func New(lem lemma.Lemmatizer, strategy Strategy, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Matcher{lem: lem, strategy: strategy, scorer: WRatio, logger: logger}
	if f, ok := strategy.(*Fuzzy); ok && f.Scorer != nil {
		m.scorer = f.Scorer
	}
	m.idx.Store(&Index{byKey: map[string]int{}})
	return m
}

// Rebuild replaces the index from defs and logs phrase collisions
func (m *Matcher) Rebuild(defs []*schema.IntentDefinition) []catalogue.Warning {
	idx, warnings := BuildIndex(defs, m.lem)
	for _, w := range warnings {
		m.logger.Warn("duplicate phrase ignored",
			zap.String("phrase", w.Phrase),
			zap.String("kept", w.Kept),
			zap.String("dropped", w.Dropped))
	}
	m.idx.Store(idx)
	m.logger.Debug("phrase index built", zap.Int("phrases", idx.Len()), zap.String("strategy", m.strategy.Name()))
	return warnings
}

// Index returns the current phrase index
func (m *Matcher) Index() *Index {
	return m.idx.Load()
}

// Lemmatizer returns the normalizer used for phrases and input
func (m *Matcher) Lemmatizer() lemma.Lemmatizer { return m.lem }

// Strategy returns the configured strategy
func (m *Matcher) Strategy() Strategy { return m.strategy }

// Resolve normalizes raw text and returns the best intent, if any
func (m *Matcher) Resolve(raw string) (string, bool) {
	match, ok := m.Explain(raw)
	if !ok {
		return "", false
	}
	return match.Intent, true
}

// Explain is Resolve but returns the selected phrase and its score
func (m *Matcher) Explain(raw string) (Match, bool) {
	input := m.lem.Normalize(raw)
	if strings.TrimSpace(input) == "" {
		return Match{}, false
	}
	match, ok := m.strategy.Match(input, m.idx.Load())
	if ok {
		m.logger.Debug("intent matched",
			zap.String("input", input),
			zap.String("phrase", match.Phrase),
			zap.String("intent", match.Intent),
			zap.Float64("score", match.Score))
	} else {
		m.logger.Debug("no intent matched", zap.String("input", input))
	}
	return match, ok
}

// Candidates returns up to n best scoring intents for raw text, one entry
// per intent, regardless of the threshold. Used for suggestions.
func (m *Matcher) Candidates(raw string, n int) []Match {
	if n <= 0 {
		return nil
	}
	input := m.lem.Normalize(raw)
	idx := m.idx.Load()

	all := make([]Match, 0, idx.Len())
	for i, e := range idx.entries {
		all = append(all, Match{Intent: e.Intent, Phrase: e.Phrase, Score: m.scorer(input, e.Phrase), Position: i})
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})

	out := make([]Match, 0, n)
	seen := make(map[string]bool)
	for _, c := range all {
		if len(out) >= n {
			break
		}
		if seen[c.Intent] {
			continue
		}
		seen[c.Intent] = true
		out = append(out, c)
	}
	return out
}
