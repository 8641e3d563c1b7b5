package catalogue

import "strings"

// placeholderToken is one piece of a parsed template
type placeholderToken struct {
	literal string
	name    string
	isName  bool
}

// scanTemplate splits a template into literals and {name} placeholders.
// "{{" and "}}" are literal braces. An unmatched "{" or "}" is kept as a
// literal.
func scanTemplate(tmpl string) []placeholderToken {
	var (
		tokens []placeholderToken
		lit    strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, placeholderToken{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(tmpl); i++ {
		ch := tmpl[i]
		switch ch {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexAny(tmpl[i+1:], "{}")
			if end < 0 || tmpl[i+1+end] != '}' || end == 0 {
				lit.WriteByte(ch)
				continue
			}
			flush()
			tokens = append(tokens, placeholderToken{name: tmpl[i+1 : i+1+end], isName: true})
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				i++
			}
			lit.WriteByte('}')
		default:
			lit.WriteByte(ch)
		}
	}
	flush()
	return tokens
}

// Placeholders returns the distinct placeholder names of a template in order
// of first appearance.
func Placeholders(tmpl string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, tok := range scanTemplate(tmpl) {
		if tok.isName && !seen[tok.name] {
			seen[tok.name] = true
			names = append(names, tok.name)
		}
	}
	return names
}

// substitute fills placeholders from values. It returns the first name that
// has no value.
func substitute(tmpl string, values map[string]string) (string, string) {
	var b strings.Builder
	for _, tok := range scanTemplate(tmpl) {
		if !tok.isName {
			b.WriteString(tok.literal)
			continue
		}
		v, ok := values[tok.name]
		if !ok {
			return "", tok.name
		}
		b.WriteString(v)
	}
	return b.String(), ""
}
