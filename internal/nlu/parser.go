// Package nlu turns raw operator text into an intent and its parameters.
package nlu

import (
	"go.uber.org/zap"

	"github.com/DevSymphony/sysop/internal/catalogue"
	"github.com/DevSymphony/sysop/internal/extract"
	"github.com/DevSymphony/sysop/internal/matcher"
	"github.com/DevSymphony/sysop/pkg/schema"
)

// Result is the outcome of parsing one line
type Result struct {
	Intent  string            `json:"intent"`
	Params  map[string]string `json:"params"`
	Matched bool              `json:"matched"`
	Phrase  string            `json:"phrase,omitempty"`
	Score   float64           `json:"score,omitempty"`
}

// Parser resolves text against the current catalogue snapshot
type Parser struct {
	cat     *catalogue.Catalogue
	matcher *matcher.Matcher
	logger  *zap.Logger
}

// New creates a parser and builds the phrase index from the catalogue
func New(cat *catalogue.Catalogue, m *matcher.Matcher, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Parser{cat: cat, matcher: m, logger: logger}
	p.Rebuild()
	return p
}

// Rebuild re-indexes phrases after a catalogue reload
func (p *Parser) Rebuild() []catalogue.Warning {
	return p.matcher.Rebuild(p.cat.Intents())
}

// Matcher returns the underlying matcher
func (p *Parser) Matcher() *matcher.Matcher { return p.matcher }

// Parse resolves raw to an intent and extracts its parameters. A choice
// parameter that extraction left empty is looked up once more in the full
// text, so "включи фаервол" yields state=on even when the word was consumed.
func (p *Parser) Parse(raw string) Result {
	match, ok := p.matcher.Explain(raw)
	if !ok {
		return Result{Params: map[string]string{}}
	}

	def, ok := p.cat.Get(match.Intent)
	if !ok {
		// catalogue reloaded between index build and lookup
		p.logger.Debug("matched intent vanished", zap.String("intent", match.Intent))
		return Result{Params: map[string]string{}}
	}

	params := extract.Extract(raw, def)
	fillChoices(raw, def, params)

	p.logger.Debug("parsed",
		zap.String("intent", def.ID),
		zap.Int("params", len(params)))
	return Result{
		Intent:  def.ID,
		Params:  params,
		Matched: true,
		Phrase:  match.Phrase,
		Score:   match.Score,
	}
}

func fillChoices(raw string, def *schema.IntentDefinition, params map[string]string) {
	for _, prm := range def.Params {
		if prm.Kind != schema.KindChoice {
			continue
		}
		if _, found := params[prm.Name]; found {
			continue
		}
		if v, ok := extract.FindChoice(raw, prm.ParameterSpec); ok {
			params[prm.Name] = v
		}
	}
}

// Missing returns the required parameters of intent that have neither a
// value in params nor a default, in declaration order.
func Missing(def *schema.IntentDefinition, params map[string]string) []schema.Param {
	var out []schema.Param
	for _, prm := range def.Params {
		if !prm.Required {
			continue
		}
		if _, ok := params[prm.Name]; ok {
			continue
		}
		out = append(out, prm)
	}
	return out
}
