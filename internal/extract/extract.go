// Package extract pulls typed parameter values out of free text.
//
// Parameters are processed in declaration order. Each one takes the first
// match of its kind's pattern in the text that is still unconsumed, and the
// matched span is cut out before the next parameter is looked up, so one
// substring never fills two parameters. Declaration order therefore decides
// priority when the text is ambiguous.
package extract

import (
	"github.com/DevSymphony/sysop/pkg/schema"
)

// Extract returns the values found in raw for def's parameters. Parameters
// without a match are absent; required-ness is enforced at render time.
func Extract(raw string, def *schema.IntentDefinition) map[string]string {
	params := make(map[string]string)
	if def == nil {
		return params
	}

	text := raw
	for _, p := range def.Params {
		value, start, end, ok := find(text, p.ParameterSpec)
		if !ok {
			continue
		}
		params[p.Name] = value
		text = text[:start] + text[end:]
	}
	return params
}

// FindChoice looks for a choice value or one of its synonyms anywhere in text
func FindChoice(text string, spec schema.ParameterSpec) (string, bool) {
	if spec.Kind != schema.KindChoice {
		return "", false
	}
	cp := newChoicePattern(spec)
	if cp == nil {
		return "", false
	}
	value, _, _, ok := cp.find(text)
	return value, ok
}

// find returns the value and the span to remove
func find(text string, spec schema.ParameterSpec) (string, int, int, bool) {
	if spec.Kind == schema.KindChoice {
		cp := newChoicePattern(spec)
		if cp == nil {
			return "", 0, 0, false
		}
		return cp.find(text)
	}

	re, ok := Patterns[spec.Kind]
	if !ok {
		return "", 0, 0, false
	}
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", 0, 0, false
	}
	value := text[loc[0]:loc[1]]
	if len(loc) > 2 && loc[2] >= 0 {
		value = text[loc[2]:loc[3]]
	}
	return value, loc[0], loc[1], true
}
