package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevSymphony/sysop/internal/catalogue"
	"github.com/DevSymphony/sysop/internal/lemma"
	"github.com/DevSymphony/sysop/pkg/schema"
)

func defs(pairs ...[]string) []*schema.IntentDefinition {
	var out []*schema.IntentDefinition
	for _, p := range pairs {
		out = append(out, &schema.IntentDefinition{ID: p[0], Phrases: p[1:]})
	}
	return out
}

func TestWRatio(t *testing.T) {
	assert.Equal(t, 100.0, WRatio("ping host", "ping host"))
	assert.Equal(t, 100.0, WRatio("Ping, HOST!", "ping host"))
	assert.InDelta(t, 95.0, WRatio("host ping", "ping host"), 0.001)
	assert.InDelta(t, 90.0, WRatio("ping 8 8 8 8", "ping"), 0.001)
	assert.Equal(t, 0.0, WRatio("", "ping"))
	assert.Less(t, WRatio("abc", "xyz"), Threshold)
	// one transposition costs two indel edits
	assert.InDelta(t, 88.89, WRatio("pign host", "ping host"), 0.01)
	assert.InDelta(t, 92.31, WRatio("show processes", "show process"), 0.01)
	assert.InDelta(t, 77.78, WRatio("pgni host", "ping host"), 0.01)
}

func TestBuildIndex_Collisions(t *testing.T) {
	idx, warnings := BuildIndex(defs(
		[]string{"a.first", "show disks", "Show Disks"},
		[]string{"b.second", "SHOW DISKS", "other"},
	), lemma.Lowercase{})

	// repeated phrases of one intent are not collisions
	require.Len(t, warnings, 1)
	assert.Equal(t, catalogue.Warning{Phrase: "show disks", Kept: "a.first", Dropped: "b.second"}, warnings[0])

	intent, ok := idx.Lookup("show disks")
	require.True(t, ok)
	assert.Equal(t, "a.first", intent)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, "other", idx.Entries()[1].Phrase)
}

func TestBuildIndex_SnowballCollision(t *testing.T) {
	idx, warnings := BuildIndex(defs(
		[]string{"process.list", "list processes"},
		[]string{"process.other", "list process"},
	), lemma.NewSnowball())

	require.Len(t, warnings, 1)
	assert.Equal(t, "process.list", warnings[0].Kept)
	assert.Equal(t, "process.other", warnings[0].Dropped)
	assert.Equal(t, 1, idx.Len())
}

func TestFuzzy_ThresholdIsInclusive(t *testing.T) {
	idx, _ := BuildIndex(defs([]string{"a.b", "phrase"}), lemma.Lowercase{})

	f := &Fuzzy{Scorer: func(string, string) float64 { return 88 }, Threshold: Threshold}
	m, ok := f.Match("anything", idx)
	require.True(t, ok)
	assert.Equal(t, "a.b", m.Intent)

	f.Scorer = func(string, string) float64 { return 87.99 }
	_, ok = f.Match("anything", idx)
	assert.False(t, ok)
}

func TestFuzzy_ThresholdWithWRatio(t *testing.T) {
	idx, _ := BuildIndex(defs([]string{"network.ping", "ping host"}), lemma.Lowercase{})
	f := NewFuzzy()

	m, ok := f.Match("pign host", idx)
	require.True(t, ok)
	assert.Equal(t, "network.ping", m.Intent)
	assert.InDelta(t, 88.89, m.Score, 0.01)

	_, ok = f.Match("pgni host", idx)
	assert.False(t, ok)

	f.Threshold = m.Score
	_, ok = f.Match("pign host", idx)
	assert.True(t, ok)
	f.Threshold = m.Score + 0.01
	_, ok = f.Match("pign host", idx)
	assert.False(t, ok)
}

func TestFuzzy_TieKeepsIndexOrder(t *testing.T) {
	idx, _ := BuildIndex(defs(
		[]string{"x.first", "alpha"},
		[]string{"x.second", "beta"},
		[]string{"x.third", "gamma"},
	), lemma.Lowercase{})

	scores := map[string]float64{"alpha": 90, "beta": 95, "gamma": 95}
	f := &Fuzzy{Scorer: func(_, p string) float64 { return scores[p] }, Threshold: Threshold}

	for i := 0; i < 10; i++ {
		m, ok := f.Match("input", idx)
		require.True(t, ok)
		assert.Equal(t, "x.second", m.Intent)
		assert.Equal(t, 1, m.Position)
	}
}

func TestFuzzy_EmptyIndex(t *testing.T) {
	idx, _ := BuildIndex(nil, lemma.Lowercase{})
	_, ok := NewFuzzy().Match("ping", idx)
	assert.False(t, ok)
}

func TestContainment(t *testing.T) {
	idx, _ := BuildIndex(defs(
		[]string{"disk.usage", "disk usage"},
		[]string{"disk.list", "disk"},
	), lemma.Lowercase{})

	m, ok := Containment{}.Match("show me disk usage please", idx)
	require.True(t, ok)
	assert.Equal(t, "disk.usage", m.Intent)

	m, ok = Containment{}.Match("list disks", idx)
	require.True(t, ok)
	assert.Equal(t, "disk.list", m.Intent)

	_, ok = Containment{}.Match("uptime", idx)
	assert.False(t, ok)
}

func TestNewStrategy(t *testing.T) {
	assert.Equal(t, NameContainment, NewStrategy("Containment").Name())
	assert.Equal(t, NameFuzzy, NewStrategy("fuzzy").Name())
	assert.Equal(t, NameFuzzy, NewStrategy("unknown").Name())
}

func embeddedMatcher(t *testing.T, strategy Strategy) *Matcher {
	t.Helper()
	c := catalogue.New(nil)
	require.NoError(t, c.Load(catalogue.Embedded()))
	m := New(lemma.NewSnowball(), strategy, nil)
	m.Rebuild(c.Intents())
	return m
}

func TestMatcher_ResolveEmbedded(t *testing.T) {
	m := embeddedMatcher(t, NewFuzzy())

	tests := []struct {
		input string
		want  string
	}{
		{"ping 8.8.8.8", "network.ping"},
		{"List processes", "process.list"},
		{"turn firewall on", "network.toggle_firewall"},
		{"disk usage", "disk.usage"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := m.Resolve(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := m.Resolve("   ")
	assert.False(t, ok)
	_, ok = m.Resolve("zzzz qqqq xxxx")
	assert.False(t, ok)
}

func TestMatcher_Candidates(t *testing.T) {
	m := embeddedMatcher(t, NewFuzzy())

	cands := m.Candidates("ping", 3)
	require.Len(t, cands, 3)
	assert.Equal(t, "network.ping", cands[0].Intent)

	seen := map[string]bool{}
	for _, c := range cands {
		assert.False(t, seen[c.Intent])
		seen[c.Intent] = true
	}

	assert.Nil(t, m.Candidates("ping", 0))
}
