package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/DevSymphony/sysop/pkg/schema"
)

// valuePatterns check a whole value typed by the user, as opposed to
// Patterns which find a value inside a sentence.
var valuePatterns = map[schema.ParamKind]*regexp.Regexp{
	schema.KindIP:           regexp.MustCompile(`^\d{1,3}(?:\.\d{1,3}){3}$`),
	schema.KindIPOrMask:     regexp.MustCompile(`^(?:\d{1,3}(?:\.\d{1,3}){3}(?:/\d{1,2})?|/\d{1,2})$`),
	schema.KindHostname:     regexp.MustCompile(`(?i)^(?:[a-z0-9-]+\.)*[a-z0-9-]+$`),
	schema.KindHostnameOrIP: regexp.MustCompile(`(?i)^(?:[a-z0-9-]+\.)*[a-z0-9-]+$`),
	schema.KindPIDOrName:    regexp.MustCompile(`(?i)^[a-z0-9._-]+$`),
	schema.KindUsername:     regexp.MustCompile(`(?i)^[a-z0-9_.-]+$`),
	schema.KindNumber:       regexp.MustCompile(`^\d+$`),
}

// ValidateValue reports whether value has the shape its kind expects.
func ValidateValue(spec schema.ParameterSpec, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("value must not be empty")
	}

	switch spec.Kind {
	case schema.KindPort:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("port must be a number between 1 and 65535")
		}
		return nil
	case schema.KindChoice:
		if _, ok := FindChoice(value, spec); !ok {
			return fmt.Errorf("must be one of: %s", strings.Join(spec.Choices, ", "))
		}
		return nil
	}

	re, ok := valuePatterns[spec.Kind]
	if !ok {
		return nil
	}
	if !re.MatchString(value) {
		return fmt.Errorf("%q is not a valid %s", value, spec.Kind)
	}
	return nil
}
