package audit

import (
	"regexp"
	"strings"
)

// Mask replaces secrets before anything reaches a log sink.
const Mask = "******"

var secretPatterns = []*regexp.Regexp{
	// password=foo, "password": "foo", passwd: foo
	regexp.MustCompile(`(?i)((?:password|passwd|pwd)["']?\s*[:=]\s*["']?)([^\s"',}]+)`),
	// --password foo, -p foo
	regexp.MustCompile(`(?i)((?:--password|--passwd)\s+["']?)([^\s"']+)`),
}

// IsSecretParam reports whether a parameter name must never be logged.
func IsSecretParam(name string) bool {
	return strings.Contains(strings.ToLower(name), "password")
}

// MaskParams returns a copy of params with secret values replaced.
func MaskParams(params map[string]string) map[string]string {
	if params == nil {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		if IsSecretParam(k) {
			out[k] = Mask
			continue
		}
		out[k] = v
	}
	return out
}

// MaskText hides password-like substrings and any literal secret param value.
func MaskText(text string, params map[string]string) string {
	for k, v := range params {
		if IsSecretParam(k) && v != "" {
			text = strings.ReplaceAll(text, v, Mask)
		}
	}
	for _, re := range secretPatterns {
		text = re.ReplaceAllString(text, "${1}"+Mask)
	}
	return text
}
