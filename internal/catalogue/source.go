package catalogue

import (
	"embed"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed definitions/*.json
var definitionFiles embed.FS

const embeddedDefinitions = "definitions/commands.json"

// Source supplies a definitions document
type Source interface {
	Name() string
	Format() Format
	Read() ([]byte, error) // fs.ErrNotExist when the document is absent
}

type fileSource struct {
	path string
}

// FileSource reads definitions from disk; the format follows the extension
func FileSource(path string) Source {
	return fileSource{path: path}
}

func (s fileSource) Name() string { return s.path }

func (s fileSource) Format() Format {
	return FormatFromPath(s.path)
}

func (s fileSource) Read() ([]byte, error) {
	return os.ReadFile(s.path)
}

type bytesSource struct {
	name   string
	format Format
	data   []byte
}

// BytesSource wraps an in-memory document
func BytesSource(name string, format Format, data []byte) Source {
	return bytesSource{name: name, format: format, data: data}
}

func (s bytesSource) Name() string          { return s.name }
func (s bytesSource) Format() Format        { return s.format }
func (s bytesSource) Read() ([]byte, error) { return s.data, nil }

type embeddedSource struct{}

// Embedded returns the default catalogue compiled into the binary
func Embedded() Source {
	return embeddedSource{}
}

func (embeddedSource) Name() string   { return "builtin:" + filepath.Base(embeddedDefinitions) }
func (embeddedSource) Format() Format { return FormatJSON }

func (embeddedSource) Read() ([]byte, error) {
	return definitionFiles.ReadFile(embeddedDefinitions)
}

// EmbeddedBytes returns the raw default catalogue, used by `sysop init`
func EmbeddedBytes() ([]byte, error) {
	return definitionFiles.ReadFile(embeddedDefinitions)
}

// FormatFromPath infers the document format from a file extension
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".jsonc":
		return FormatJSONC
	default:
		return FormatJSON
	}
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
