package env

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Prefix is prepended to every sysop environment key
const Prefix = "SYSOP_"

// DefaultEnvFile is the project-local env file
var DefaultEnvFile = filepath.Join(".sysop", ".env")

// Lookup retrieves a setting from the environment or .sysop/.env.
// The process environment wins over the file.
func Lookup(keyName string) string {
	// 1. Check system environment variable first
	if v := os.Getenv(keyName); v != "" {
		return v
	}

	// 2. Check .sysop/.env file
	return LoadKeyFromEnvFile(DefaultEnvFile, keyName)
}

// LookupSetting reads SYSOP_<NAME>
func LookupSetting(name string) string {
	return Lookup(Prefix + strings.ToUpper(name))
}

// LoadKeyFromEnvFile reads a specific key from .env file
func LoadKeyFromEnvFile(envPath, key string) string {
	file, err := os.Open(envPath)
	if err != nil {
		return ""
	}
	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	prefix := key + "="

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// Skip comments and empty lines
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		if strings.HasPrefix(line, prefix) {
			return unquote(strings.TrimSpace(line[len(prefix):]))
		}
	}

	return ""
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// SaveKeyToEnvFile saves a key-value pair to .env file
// It preserves existing lines, comments, and blank lines
func SaveKeyToEnvFile(envPath, key, value string) error {
	dir := filepath.Dir(envPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var lines []string
	keyFound := false
	existingFile, err := os.Open(envPath)
	if err == nil {
		scanner := bufio.NewScanner(existingFile)
		for scanner.Scan() {
			line := scanner.Text()
			trimmed := strings.TrimSpace(line)

			if trimmed != "" && !strings.HasPrefix(trimmed, "#") && strings.HasPrefix(trimmed, key+"=") {
				lines = append(lines, key+"="+value)
				keyFound = true
			} else {
				lines = append(lines, line)
			}
		}
		_ = existingFile.Close()
	} else if !os.IsNotExist(err) {
		return err
	}

	if !keyFound {
		if len(lines) > 0 && lines[len(lines)-1] != "" {
			lines = append(lines, "")
		}
		lines = append(lines, key+"="+value)
	}

	content := strings.Join(lines, "\n") + "\n"
	return os.WriteFile(envPath, []byte(content), 0600)
}
