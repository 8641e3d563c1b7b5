package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/DevSymphony/sysop/pkg/schema"
)

// Patterns is the fixed shape library, one case-insensitive expression per
// kind. A capturing group, when present, holds the value.
var Patterns = map[schema.ParamKind]*regexp.Regexp{
	schema.KindIP:           regexp.MustCompile(`(?i)\b\d{1,3}(?:\.\d{1,3}){3}\b`),
	schema.KindIPOrMask:     regexp.MustCompile(`(?i)(?:\b\d{1,3}(?:\.\d{1,3}){3}(?:/\d{1,2})?\b|/\d{1,2}\b)`),
	schema.KindHostname:     regexp.MustCompile(`(?i)\b(?:[a-z0-9-]+\.)+[a-z]{2,63}\b`),
	schema.KindHostnameOrIP: regexp.MustCompile(`(?i)\b(?:\d{1,3}(?:\.\d{1,3}){3}|(?:[a-z0-9-]+\.)+[a-z]{2,63})\b`),
	schema.KindPort:         regexp.MustCompile(`(?i)\b\d{1,5}\b`),
	schema.KindPIDOrName:    regexp.MustCompile(`(?i)\b(?:[a-z.-][a-z0-9.-]*|\d+)\b`),
	schema.KindUsername:     regexp.MustCompile(`(?i)(?:user|пользовател[ья])\s+([a-z0-9_.-]+)`),
	schema.KindFilepath:     regexp.MustCompile(`(?i)([a-z]:(?:\\[^\\/:*?"<>|\s]+)+\\?|/(?:[^/\s]+/)*[^/\s]+)`),
	schema.KindPassword:     regexp.MustCompile(`(?i)(?:пароль|password)\s*[:=]?\s*['"]?([^\s'"]+)['"]?`),
	schema.KindNumber:       regexp.MustCompile(`(?i)\b\d+\b`),
	schema.KindQuotedString: regexp.MustCompile(`(?i)['"]([^'"]+)['"]`),
}

// choicePattern matches any choice value or synonym as a whole word. RE2 has
// no lookaround, so the word boundary characters are matched explicitly and
// the word itself is group 1.
type choicePattern struct {
	re     *regexp.Regexp
	values map[string]string // lowercased word -> choice value
}

func newChoicePattern(spec schema.ParameterSpec) *choicePattern {
	values := make(map[string]string)
	for _, c := range spec.Choices {
		values[strings.ToLower(c)] = c
	}
	for choice, words := range spec.Synonyms {
		for _, w := range words {
			if _, taken := values[strings.ToLower(w)]; !taken {
				values[strings.ToLower(w)] = choice
			}
		}
	}
	if len(values) == 0 {
		return nil
	}

	words := make([]string, 0, len(values))
	for w := range values {
		words = append(words, regexp.QuoteMeta(w))
	}
	// longest first so "включить" wins over "включи"
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})

	re := regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])(` + strings.Join(words, "|") + `)(?:$|[^\p{L}\p{N}_])`)
	return &choicePattern{re: re, values: values}
}

// find returns the choice value and the span of the matched word
func (p *choicePattern) find(text string) (string, int, int, bool) {
	loc := p.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", 0, 0, false
	}
	start, end := loc[2], loc[3]
	return p.values[strings.ToLower(text[start:end])], start, end, true
}
