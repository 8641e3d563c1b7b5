// Package catalogue loads intent definitions and renders them into
// OS-specific command lines.
package catalogue

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/DevSymphony/sysop/pkg/schema"
)

// Snapshot is an immutable view of one successfully loaded source
type Snapshot struct {
	source  string
	order   []*schema.IntentDefinition
	byID    map[string]*schema.IntentDefinition
	version uint64
}

// Source returns the name of the source this snapshot was loaded from
func (s *Snapshot) Source() string { return s.source }

// Version increases by one on every successful load
func (s *Snapshot) Version() uint64 { return s.version }

// Get returns a definition by id
func (s *Snapshot) Get(id string) (*schema.IntentDefinition, bool) {
	def, ok := s.byID[id]
	return def, ok
}

// Intents returns all definitions in document order
func (s *Snapshot) Intents() []*schema.IntentDefinition {
	out := make([]*schema.IntentDefinition, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of intents
func (s *Snapshot) Len() int { return len(s.order) }

// Catalogue holds the current snapshot. Readers never block; Load swaps the
// snapshot only when the new source is fully valid.
type Catalogue struct {
	snap   atomic.Pointer[Snapshot]
	logger *zap.Logger
}

// New creates an empty catalogue
func New(logger *zap.Logger) *Catalogue {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalogue{logger: logger}
	c.snap.Store(&Snapshot{byID: map[string]*schema.IntentDefinition{}})
	return c
}

// Open creates a catalogue and loads src into it
func Open(src Source, logger *zap.Logger) (*Catalogue, error) {
	c := New(logger)
	if err := c.Load(src); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse validates a source without installing it
func Parse(src Source) ([]*schema.IntentDefinition, error) {
	data, err := src.Read()
	if err != nil {
		if isNotExist(err) {
			return nil, &LoadError{Kind: SourceNotFound, Source: src.Name(), Err: err}
		}
		return nil, &LoadError{Kind: Malformed, Source: src.Name(), Err: fmt.Errorf("failed to read: %w", err)}
	}

	root, err := parseDocument(data, src.Format())
	if err != nil {
		return nil, &LoadError{Kind: Malformed, Source: src.Name(), Err: err}
	}

	defs, ferr := buildIntents(root)
	if ferr != nil {
		return nil, &LoadError{Kind: ferr.kind, Source: src.Name(), Path: ferr.path, Err: ferr.err}
	}
	return defs, nil
}

// Load parses src and atomically replaces the current snapshot. On error
// the previous snapshot stays in effect.
func (c *Catalogue) Load(src Source) error {
	defs, err := Parse(src)
	if err != nil {
		c.logger.Warn("catalogue load rejected", zap.String("source", src.Name()), zap.Error(err))
		return err
	}

	prev := c.snap.Load()
	next := &Snapshot{
		source:  src.Name(),
		order:   defs,
		byID:    make(map[string]*schema.IntentDefinition, len(defs)),
		version: prev.version + 1,
	}
	for _, def := range defs {
		next.byID[def.ID] = def
	}
	c.snap.Store(next)

	c.logger.Info("catalogue loaded",
		zap.String("source", src.Name()),
		zap.Int("intents", len(defs)),
		zap.Uint64("version", next.version))
	return nil
}

// Snapshot returns the current snapshot
func (c *Catalogue) Snapshot() *Snapshot {
	return c.snap.Load()
}

// Get returns a definition by id from the current snapshot
func (c *Catalogue) Get(id string) (*schema.IntentDefinition, bool) {
	return c.snap.Load().Get(id)
}

// Intents returns all definitions of the current snapshot in document order
func (c *Catalogue) Intents() []*schema.IntentDefinition {
	return c.snap.Load().Intents()
}

// Source returns the name of the source currently in effect
func (c *Catalogue) Source() string {
	return c.snap.Load().source
}

// Render produces the literal command line for an intent on osTag.
//
// Each declared parameter takes the caller's value verbatim if present,
// otherwise its default, otherwise fails when required, otherwise "".
// Caller values for undeclared names are ignored.
func (c *Catalogue) Render(id, osTag string, params map[string]string) (string, error) {
	def, ok := c.Get(id)
	if !ok {
		return "", fmt.Errorf("%w '%s'", ErrUnknownIntent, id)
	}
	return RenderDefinition(def, osTag, params)
}

// Resolve renders and returns the full ResolvedCommand including the
// effective parameter values.
func (c *Catalogue) Resolve(id, osTag string, params map[string]string) (*schema.ResolvedCommand, error) {
	def, ok := c.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownIntent, id)
	}
	values, err := EffectiveParams(def, params)
	if err != nil {
		return nil, err
	}
	cmd, err := renderTemplate(def, osTag, values)
	if err != nil {
		return nil, err
	}
	return &schema.ResolvedCommand{IntentID: id, OSTag: osTag, Params: values, Command: cmd}, nil
}

// RenderDefinition renders a definition that is not necessarily installed
func RenderDefinition(def *schema.IntentDefinition, osTag string, params map[string]string) (string, error) {
	values, err := EffectiveParams(def, params)
	if err != nil {
		return "", err
	}
	return renderTemplate(def, osTag, values)
}

// EffectiveParams applies the per-parameter value policy
func EffectiveParams(def *schema.IntentDefinition, params map[string]string) (map[string]string, error) {
	values := make(map[string]string, len(def.Params))
	for _, p := range def.Params {
		if v, ok := params[p.Name]; ok {
			values[p.Name] = v
			continue
		}
		if p.Default != nil {
			values[p.Name] = *p.Default
			continue
		}
		if p.Required {
			return nil, &MissingParameterError{Intent: def.ID, Name: p.Name}
		}
		values[p.Name] = ""
	}
	return values, nil
}

func renderTemplate(def *schema.IntentDefinition, osTag string, values map[string]string) (string, error) {
	tmpl, ok := def.Template(osTag)
	if !ok || strings.TrimSpace(tmpl) == "" {
		return "", fmt.Errorf("%w '%s' (intent '%s')", ErrUnknownOSTemplate, osTag, def.ID)
	}
	out, missingName := substitute(tmpl, values)
	if missingName != "" {
		return "", &UnresolvedPlaceholderError{Intent: def.ID, OSTag: osTag, Name: missingName}
	}
	return out, nil
}
