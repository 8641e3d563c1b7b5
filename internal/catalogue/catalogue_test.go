package catalogue

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevSymphony/sysop/pkg/schema"
)

const pingDoc = `{
  "network.ping": {
    "description": "Ping a host",
    "phrases": ["ping", "пингани"],
    "params": {
      "host": {"type": "hostname_or_ip", "required": true},
      "count": {"type": "number", "default": "4"}
    },
    "templates": {
      "linux": "ping -c {count} {host}",
      "win": "ping -n {count} {host}"
    }
  },
  "system.uptime": {
    "phrases": ["uptime"],
    "templates": {"linux": "uptime -p"}
  }
}`

func loadDoc(t *testing.T, format Format, doc string) *Catalogue {
	t.Helper()
	c := New(nil)
	require.NoError(t, c.Load(BytesSource("test", format, []byte(doc))))
	return c
}

func TestLoad_PreservesOrder(t *testing.T) {
	c := loadDoc(t, FormatJSON, pingDoc)

	intents := c.Intents()
	require.Len(t, intents, 2)
	assert.Equal(t, "network.ping", intents[0].ID)
	assert.Equal(t, "system.uptime", intents[1].ID)

	def, ok := c.Get("network.ping")
	require.True(t, ok)
	assert.Equal(t, "network", def.Namespace())
	assert.Equal(t, []string{"host"}, def.RequiredParams())
	assert.Equal(t, "host", def.Params[0].Name)
	assert.Equal(t, "count", def.Params[1].Name)
	assert.Equal(t, []string{"linux", "win"}, def.OSTags())
	assert.Equal(t, "linux", def.Templates[0].OSTag)
}

func TestLoad_Formats(t *testing.T) {
	yamlDoc := `
network.ping:
  phrases: [ping]
  params:
    host:
      type: hostname_or_ip
      required: true
    count:
      type: number
      default: 4
  templates:
    linux: "ping -c {count} {host}"
`
	jsoncDoc := `{
  // comment
  "network.ping": {
    "phrases": ["ping"],
    "params": {
      "host": {"type": "hostname_or_ip", "required": true},
      "count": {"type": "number", "default": "4"}, /* trailing comma below */
    },
    "templates": {"linux": "ping -c {count} {host}"},
  },
}`

	for _, tc := range []struct {
		name   string
		format Format
		doc    string
	}{
		{"yaml", FormatYAML, yamlDoc},
		{"jsonc", FormatJSONC, jsoncDoc},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := loadDoc(t, tc.format, tc.doc)
			cmd, err := c.Render("network.ping", "linux", map[string]string{"host": "8.8.8.8"})
			require.NoError(t, err)
			assert.Equal(t, "ping -c 4 8.8.8.8", cmd)

			def, _ := c.Get("network.ping")
			assert.Equal(t, []string{"host", "count"}, []string{def.Params[0].Name, def.Params[1].Name})
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		sentinel error
		path     string
	}{
		{"not json", `{"a.b": `, ErrMalformed, ""},
		{"top level list", `[]`, ErrMalformed, ""},
		{"bad id", `{"ping": {"templates": {"linux": "ping"}}}`, ErrMalformed, "ping"},
		{"empty namespace", `{".ping": {"templates": {"linux": "ping"}}}`, ErrMalformed, ".ping"},
		{"duplicate intent", `{"a.b": {"templates": {"linux": "x"}}, "a.b": {"templates": {"linux": "y"}}}`, ErrMalformed, ""},
		{"unknown key", `{"a.b": {"templates": {"linux": "x"}, "extra": 1}}`, ErrMalformed, "a.b.extra"},
		{"missing templates", `{"a.b": {"phrases": ["x"]}}`, ErrMissingField, "a.b.templates"},
		{"empty templates", `{"a.b": {"templates": {}}}`, ErrMissingField, "a.b.templates"},
		{"empty template", `{"a.b": {"templates": {"linux": "  "}}}`, ErrMalformed, "a.b.templates.linux"},
		{"template not string", `{"a.b": {"templates": {"linux": 5}}}`, ErrMalformed, "a.b.templates.linux"},
		{"phrases not list", `{"a.b": {"phrases": "x", "templates": {"linux": "x"}}}`, ErrMalformed, "a.b.phrases"},
		{"missing param type", `{"a.b": {"params": {"p": {"required": true}}, "templates": {"linux": "{p}"}}}`, ErrMissingField, "a.b.params.p.type"},
		{"unknown param type", `{"a.b": {"params": {"p": {"type": "blob"}}, "templates": {"linux": "{p}"}}}`, ErrMalformed, "a.b.params.p.type"},
		{"required with default", `{"a.b": {"params": {"p": {"type": "number", "required": true, "default": "1"}}, "templates": {"linux": "{p}"}}}`, ErrMalformed, "a.b.params.p.default"},
		{"required not bool", `{"a.b": {"params": {"p": {"type": "number", "required": "yes"}}, "templates": {"linux": "{p}"}}}`, ErrMalformed, "a.b.params.p.required"},
		{"choice without choices", `{"a.b": {"params": {"p": {"type": "choice"}}, "templates": {"linux": "{p}"}}}`, ErrMissingField, "a.b.params.p.choices"},
		{"choice default outside", `{"a.b": {"params": {"p": {"type": "choice", "choices": ["on"], "default": "off"}}, "templates": {"linux": "{p}"}}}`, ErrMalformed, "a.b.params.p.default"},
		{"choices on non-choice", `{"a.b": {"params": {"p": {"type": "number", "choices": ["1"]}}, "templates": {"linux": "{p}"}}}`, ErrMalformed, "a.b.params.p"},
		{"bad role", `{"a.b": {"role": "root", "templates": {"linux": "x"}}}`, ErrMalformed, "a.b.role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(nil)
			err := c.Load(BytesSource("doc.json", FormatJSON, []byte(tt.doc)))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.Contains(t, err.Error(), "catalogue:")

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, "doc.json", le.Source)
			if tt.path != "" {
				assert.Equal(t, tt.path, le.Path)
			}
		})
	}
}

func TestLoad_SourceNotFound(t *testing.T) {
	c := New(nil)
	err := c.Load(FileSource(filepath.Join(t.TempDir(), "missing.json")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestLoad_FailureKeepsPreviousSnapshot(t *testing.T) {
	c := loadDoc(t, FormatJSON, pingDoc)
	before := c.Snapshot()

	err := c.Load(BytesSource("broken", FormatJSON, []byte(`{"a.b": {}}`)))
	require.Error(t, err)

	assert.Same(t, before, c.Snapshot())
	_, ok := c.Get("network.ping")
	assert.True(t, ok)
}

func TestLoad_FileSourceByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commands.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a.b:\n  templates:\n    linux: echo hi\n"), 0o644))

	c := New(nil)
	require.NoError(t, c.Load(FileSource(path)))
	assert.Equal(t, path, c.Source())
	assert.Equal(t, uint64(1), c.Snapshot().Version())
}

func TestRender_ValuePolicy(t *testing.T) {
	c := loadDoc(t, FormatJSON, `{
  "a.b": {
    "params": {
      "req": {"type": "quoted_string", "required": true},
      "def": {"type": "number", "default": "7"},
      "opt": {"type": "number"}
    },
    "templates": {"linux": "cmd {req} {def} [{opt}]"}
  }
}`)

	t.Run("caller value verbatim", func(t *testing.T) {
		got, err := c.Render("a.b", "linux", map[string]string{"req": "x y", "def": "9", "opt": "1"})
		require.NoError(t, err)
		assert.Equal(t, "cmd x y 9 [1]", got)
	})

	t.Run("default and empty optional", func(t *testing.T) {
		got, err := c.Render("a.b", "linux", map[string]string{"req": "r"})
		require.NoError(t, err)
		assert.Equal(t, "cmd r 7 []", got)
	})

	t.Run("empty supplied value is a value", func(t *testing.T) {
		got, err := c.Render("a.b", "linux", map[string]string{"req": ""})
		require.NoError(t, err)
		assert.Equal(t, "cmd  7 []", got)
	})

	t.Run("missing required", func(t *testing.T) {
		_, err := c.Render("a.b", "linux", map[string]string{"def": "1"})
		var mp *MissingParameterError
		require.True(t, errors.As(err, &mp))
		assert.Equal(t, "req", mp.Name)
		assert.Equal(t, "a.b", mp.Intent)
		assert.Equal(t, "render: missing required parameter 'req' for intent 'a.b'", err.Error())
	})

	t.Run("undeclared caller keys ignored", func(t *testing.T) {
		got, err := c.Render("a.b", "linux", map[string]string{"req": "r", "zzz": "ignored"})
		require.NoError(t, err)
		assert.Equal(t, "cmd r 7 []", got)
	})
}

func TestRender_Errors(t *testing.T) {
	c := loadDoc(t, FormatJSON, `{
  "a.b": {
    "params": {"p": {"type": "number"}},
    "templates": {"linux": "echo {p} {q}", "win": "echo {p}"}
  }
}`)

	_, err := c.Render("x.y", "linux", nil)
	assert.ErrorIs(t, err, ErrUnknownIntent)

	_, err = c.Render("a.b", "mac", nil)
	assert.ErrorIs(t, err, ErrUnknownOSTemplate)

	_, err = c.Render("a.b", "linux", map[string]string{"p": "1", "q": "2"})
	var up *UnresolvedPlaceholderError
	require.True(t, errors.As(err, &up))
	assert.Equal(t, "q", up.Name)
	assert.Equal(t, "linux", up.OSTag)

	blank := &schema.IntentDefinition{ID: "a.c", Templates: []schema.Template{{OSTag: "linux", Command: ""}}}
	_, err = RenderDefinition(blank, "linux", nil)
	assert.ErrorIs(t, err, ErrUnknownOSTemplate)

	got, err := c.Render("a.b", "win", map[string]string{"p": "1"})
	require.NoError(t, err)
	assert.Equal(t, "echo 1", got)

	for _, e := range []error{ErrUnknownIntent, ErrUnknownOSTemplate, up, &MissingParameterError{}} {
		assert.Regexp(t, "^render:", e.Error())
	}
}

func TestRender_BraceEscapes(t *testing.T) {
	def := &schema.IntentDefinition{
		ID:        "a.b",
		Params:    []schema.Param{{Name: "q", ParameterSpec: schema.ParameterSpec{Kind: schema.KindQuotedString}}},
		Templates: []schema.Template{{OSTag: "win", Command: "Where {{ $_ -like '*{q}*' }} {}"}},
	}
	got, err := RenderDefinition(def, "win", map[string]string{"q": "err"})
	require.NoError(t, err)
	assert.Equal(t, "Where { $_ -like '*err*' } {}", got)
}

func TestResolve_EffectiveParams(t *testing.T) {
	c := loadDoc(t, FormatJSON, pingDoc)
	rc, err := c.Resolve("network.ping", "win", map[string]string{"host": "ya.ru"})
	require.NoError(t, err)

	want := &schema.ResolvedCommand{
		IntentID: "network.ping",
		OSTag:    "win",
		Params:   map[string]string{"host": "ya.ru", "count": "4"},
		Command:  "ping -n 4 ya.ru",
	}
	if diff := cmp.Diff(want, rc); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Placeholders("{a} {b} {a} {{c}}"))
	assert.Empty(t, Placeholders("no placeholders { here"))
}

func TestLint(t *testing.T) {
	defs, err := Parse(BytesSource("lint", FormatJSON, []byte(`{
  "a.b": {
    "params": {"used": {"type": "number"}, "unused": {"type": "number"}},
    "templates": {"linux": "x {used} {ghost}"}
  }
}`)))
	require.NoError(t, err)

	issues := LintDefinitions(defs)
	require.Len(t, issues, 3)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "{ghost}")
	assert.Contains(t, issues[1].Message, "'unused'")
	assert.Contains(t, issues[2].Message, "no phrases")
}

func TestEmbedded_LoadsAndLintsClean(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Load(Embedded()))
	assert.Greater(t, len(c.Intents()), 40)

	for _, issue := range c.Lint() {
		t.Errorf("unexpected lint issue: %s", issue)
	}

	cmd, err := c.Render("network.toggle_firewall", "linux", map[string]string{"state": "off"})
	require.NoError(t, err)
	assert.Equal(t, "sudo ufw --force off", cmd)

	def, ok := c.Get("power.reboot")
	require.True(t, ok)
	assert.Equal(t, "admin", def.Role)
}

func TestConcurrentReadsDuringReload(t *testing.T) {
	c := loadDoc(t, FormatJSON, pingDoc)
	other := BytesSource("other", FormatJSON, []byte(`{"system.uptime": {"templates": {"linux": "uptime"}}}`))
	orig := BytesSource("orig", FormatJSON, []byte(pingDoc))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_, err := c.Render("network.ping", "linux", map[string]string{"host": "h"})
				if err != nil {
					assert.ErrorIs(t, err, ErrUnknownIntent)
				}
			}
		}()
	}
	for j := 0; j < 50; j++ {
		require.NoError(t, c.Load(other))
		require.NoError(t, c.Load(orig))
	}
	wg.Wait()
}
