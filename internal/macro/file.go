package macro

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/DevSymphony/sysop/pkg/schema"
)

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Marshal encodes a macro as indented JSON with non-ASCII text kept as is
func Marshal(m schema.Macro) ([]byte, error) {
	if m == nil {
		m = schema.Macro{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile saves m as JSON, or YAML for .yaml/.yml paths
func WriteFile(path string, m schema.Macro) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		if m == nil {
			m = schema.Macro{}
		}
		data, err = yaml.Marshal(m)
	} else {
		data, err = Marshal(m)
	}
	if err != nil {
		return fmt.Errorf("failed to encode macro: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create macro directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write macro: %w", err)
	}
	return nil
}

// Load reads a macro file. Every entry must name an intent.
func Load(path string) (schema.Macro, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read macro: %w", err)
	}

	var m schema.Macro
	if isYAML(path) {
		err = yaml.Unmarshal(data, &m)
	} else {
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMacro, path, err)
	}

	for i := range m {
		if strings.TrimSpace(m[i].Intent) == "" {
			return nil, fmt.Errorf("%w: %s: entry %d has no intent", ErrInvalidMacro, path, i+1)
		}
		if m[i].Params == nil {
			m[i].Params = map[string]string{}
		}
	}
	return m, nil
}
