package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevSymphony/sysop/internal/catalogue"
	"github.com/DevSymphony/sysop/internal/lemma"
	"github.com/DevSymphony/sysop/internal/matcher"
)

func newParser(t *testing.T) (*Parser, *catalogue.Catalogue) {
	t.Helper()
	cat := catalogue.New(nil)
	require.NoError(t, cat.Load(catalogue.Embedded()))
	m := matcher.New(lemma.NewSnowball(), matcher.NewFuzzy(), nil)
	return New(cat, m, nil), cat
}

func TestParse_Embedded(t *testing.T) {
	p, _ := newParser(t)

	tests := []struct {
		input  string
		intent string
		params map[string]string
	}{
		{"ping 8.8.8.8", "network.ping", map[string]string{"host": "8.8.8.8"}},
		{"turn firewall on", "network.toggle_firewall", map[string]string{"state": "on"}},
		{"list processes", "process.list", map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			res := p.Parse(tt.input)
			require.True(t, res.Matched)
			assert.Equal(t, tt.intent, res.Intent)
			assert.Equal(t, tt.params, res.Params)
			assert.GreaterOrEqual(t, res.Score, matcher.Threshold)
		})
	}
}

func TestParse_NoMatch(t *testing.T) {
	p, _ := newParser(t)
	res := p.Parse("qqqq zzzz wwww")
	assert.False(t, res.Matched)
	assert.Empty(t, res.Intent)
	assert.NotNil(t, res.Params)
}

func TestParse_ChoiceFallbackOnFullText(t *testing.T) {
	cat := catalogue.New(nil)
	require.NoError(t, cat.Load(catalogue.BytesSource("t", catalogue.FormatJSON, []byte(`{
  "network.toggle_firewall": {
    "phrases": ["firewall"],
    "params": {
      "label": {"type": "quoted_string"},
      "state": {"type": "choice", "choices": ["on", "off"], "synonyms": {"on": ["включи"]}}
    },
    "templates": {"linux": "ufw {state} {label}"}
  }
}`))))
	p := New(cat, matcher.New(lemma.Lowercase{}, matcher.Containment{}, nil), nil)

	// the quoted label consumes the only "on", extraction leaves state empty,
	// the fallback finds it in the original text
	res := p.Parse("firewall 'on'")
	require.True(t, res.Matched)
	assert.Equal(t, "on", res.Params["label"])
	assert.Equal(t, "on", res.Params["state"])
}

func TestRebuild_AfterReload(t *testing.T) {
	p, cat := newParser(t)

	require.NoError(t, cat.Load(catalogue.BytesSource("small", catalogue.FormatJSON, []byte(`{
  "custom.hello": {"phrases": ["say hello"], "templates": {"linux": "echo hello"}}
}`))))
	warnings := p.Rebuild()
	assert.Empty(t, warnings)

	res := p.Parse("say hello")
	require.True(t, res.Matched)
	assert.Equal(t, "custom.hello", res.Intent)

	assert.False(t, p.Parse("list processes").Matched)
}

func TestMissing(t *testing.T) {
	_, cat := newParser(t)
	def, ok := cat.Get("users.add")
	require.True(t, ok)

	missing := Missing(def, map[string]string{"username": "alice"})
	require.Len(t, missing, 1)
	assert.Equal(t, "password", missing[0].Name)
}
