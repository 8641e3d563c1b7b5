package catalogue

import (
	"fmt"

	"github.com/DevSymphony/sysop/pkg/schema"
)

// IssueSeverity ranks lint findings
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a catalogue authoring problem that does not prevent loading
type Issue struct {
	Severity IssueSeverity
	Intent   string
	OSTag    string
	Message  string
}

func (i Issue) String() string {
	if i.OSTag != "" {
		return fmt.Sprintf("%s: %s [%s]: %s", i.Severity, i.Intent, i.OSTag, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Intent, i.Message)
}

// Warning reports a phrase claimed by more than one intent. The first
// registered intent keeps the phrase.
type Warning struct {
	Phrase  string
	Kept    string
	Dropped string
}

func (w Warning) String() string {
	return fmt.Sprintf("phrase %q of '%s' already belongs to '%s'", w.Phrase, w.Dropped, w.Kept)
}

// Lint checks every intent of the current snapshot
func (c *Catalogue) Lint() []Issue {
	return LintDefinitions(c.Intents())
}

// LintDefinitions reports undeclared placeholders (render will fail),
// declared parameters no template uses, and intents without phrases.
func LintDefinitions(defs []*schema.IntentDefinition) []Issue {
	var issues []Issue
	for _, def := range defs {
		used := make(map[string]bool)
		for _, t := range def.Templates {
			for _, name := range Placeholders(t.Command) {
				used[name] = true
				if _, ok := def.Param(name); !ok {
					issues = append(issues, Issue{
						Severity: SeverityError,
						Intent:   def.ID,
						OSTag:    t.OSTag,
						Message:  fmt.Sprintf("placeholder {%s} is not a declared parameter", name),
					})
				}
			}
		}
		for _, p := range def.Params {
			if !used[p.Name] {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Intent:   def.ID,
					Message:  fmt.Sprintf("parameter '%s' is not used by any template", p.Name),
				})
			}
		}
		if len(def.Phrases) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Intent:   def.ID,
				Message:  "no phrases; the intent is reachable only by id",
			})
		}
	}
	return issues
}
