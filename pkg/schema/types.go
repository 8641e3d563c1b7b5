package schema

import "sort"

// ParamKind identifies the shape of a parameter value
type ParamKind string

const (
	KindIP           ParamKind = "ip"
	KindIPOrMask     ParamKind = "ip_or_mask"
	KindHostname     ParamKind = "hostname"
	KindHostnameOrIP ParamKind = "hostname_or_ip"
	KindPort         ParamKind = "port"
	KindPIDOrName    ParamKind = "pid_or_name"
	KindUsername     ParamKind = "username"
	KindFilepath     ParamKind = "filepath"
	KindPassword     ParamKind = "password"
	KindNumber       ParamKind = "number"
	KindQuotedString ParamKind = "quoted_string"
	KindChoice       ParamKind = "choice"
)

// kindAliases maps legacy definition names to their canonical kind
var kindAliases = map[string]ParamKind{
	"ip_mask": KindIPOrMask,
	"string":  KindQuotedString,
}

var knownKinds = map[ParamKind]bool{
	KindIP: true, KindIPOrMask: true, KindHostname: true, KindHostnameOrIP: true,
	KindPort: true, KindPIDOrName: true, KindUsername: true, KindFilepath: true,
	KindPassword: true, KindNumber: true, KindQuotedString: true, KindChoice: true,
}

// ParseParamKind resolves a definition type name (including aliases) to a ParamKind
func ParseParamKind(name string) (ParamKind, bool) {
	if k, ok := kindAliases[name]; ok {
		return k, true
	}
	k := ParamKind(name)
	return k, knownKinds[k]
}

// ParameterSpec describes one named parameter of an intent
type ParameterSpec struct {
	Kind     ParamKind           `json:"type" yaml:"type"`
	Required bool                `json:"required,omitempty" yaml:"required,omitempty"`
	Default  *string             `json:"default,omitempty" yaml:"default,omitempty"`
	Choices  []string            `json:"choices,omitempty" yaml:"choices,omitempty"`
	Example  string              `json:"example,omitempty" yaml:"example,omitempty"`
	Synonyms map[string][]string `json:"synonyms,omitempty" yaml:"synonyms,omitempty"` // choice value -> extra trigger words
}

// HasDefault reports whether a default literal is declared
func (p ParameterSpec) HasDefault() bool {
	return p.Default != nil
}

// Param is a named ParameterSpec; intents keep them in declaration order
type Param struct {
	Name string
	ParameterSpec
}

// Template is a raw command template for one OS tag
type Template struct {
	OSTag   string
	Command string
}

// IntentDefinition is an immutable catalogue entry
type IntentDefinition struct {
	ID          string
	Description string
	Phrases     []string
	Params      []Param    // declaration order = display/extraction order
	Templates   []Template // document order
	Role        string     // minimum role required to execute
}

// Namespace returns the part of the intent id before the dot
func (d *IntentDefinition) Namespace() string {
	for i := 0; i < len(d.ID); i++ {
		if d.ID[i] == '.' {
			return d.ID[:i]
		}
	}
	return d.ID
}

// Param looks up a parameter by name
func (d *IntentDefinition) Param(name string) (ParameterSpec, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p.ParameterSpec, true
		}
	}
	return ParameterSpec{}, false
}

// Template returns the raw command template for an OS tag
func (d *IntentDefinition) Template(osTag string) (string, bool) {
	for _, t := range d.Templates {
		if t.OSTag == osTag {
			return t.Command, true
		}
	}
	return "", false
}

// OSTags lists the OS tags with a registered template, sorted
func (d *IntentDefinition) OSTags() []string {
	tags := make([]string, 0, len(d.Templates))
	for _, t := range d.Templates {
		tags = append(tags, t.OSTag)
	}
	sort.Strings(tags)
	return tags
}

// RequiredParams returns the names of required parameters in declaration order
func (d *IntentDefinition) RequiredParams() []string {
	var names []string
	for _, p := range d.Params {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// ResolvedCommand is the transient result of rendering an intent
type ResolvedCommand struct {
	IntentID string            `json:"intent"`
	OSTag    string            `json:"os"`
	Params   map[string]string `json:"params"`
	Command  string            `json:"command"`
}

// MacroEntry is one recorded (intent, params) execution
type MacroEntry struct {
	Timestamp float64           `json:"timestamp" yaml:"timestamp"` // unix seconds
	Intent    string            `json:"intent" yaml:"intent"`
	Params    map[string]string `json:"params" yaml:"params"`
}

// Macro is an ordered sequence of entries
type Macro []MacroEntry
