package catalogue

import (
	"errors"
	"fmt"
)

// LoadErrorKind distinguishes why a definitions source was rejected
type LoadErrorKind int

const (
	SourceNotFound LoadErrorKind = iota + 1
	Malformed
	MissingField
)

func (k LoadErrorKind) String() string {
	switch k {
	case SourceNotFound:
		return "source not found"
	case Malformed:
		return "malformed structure"
	case MissingField:
		return "missing required field"
	default:
		return "unknown"
	}
}

// Sentinels matched by LoadError.Is
var (
	ErrSourceNotFound = errors.New("catalogue: source not found")
	ErrMalformed      = errors.New("catalogue: malformed structure")
	ErrMissingField   = errors.New("catalogue: missing required field")
)

// LoadError reports a rejected definitions source. Path is the dotted
// field path of the offending element when known.
type LoadError struct {
	Kind   LoadErrorKind
	Source string
	Path   string
	Err    error
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case SourceNotFound:
		return fmt.Sprintf("catalogue: source not found: %s", e.Source)
	case MissingField:
		return fmt.Sprintf("catalogue: missing required field %q in %s", e.Path, e.Source)
	}
	if e.Path != "" {
		return fmt.Sprintf("catalogue: malformed structure in %s at %q: %v", e.Source, e.Path, e.Err)
	}
	return fmt.Sprintf("catalogue: malformed structure in %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool {
	switch target {
	case ErrSourceNotFound:
		return e.Kind == SourceNotFound
	case ErrMalformed:
		return e.Kind == Malformed
	case ErrMissingField:
		return e.Kind == MissingField
	}
	return false
}

// Render failures. Every message starts with "render:".
var (
	ErrUnknownIntent     = errors.New("render: unknown intent")
	ErrUnknownOSTemplate = errors.New("render: no command template for os")
)

// MissingParameterError is returned when a required parameter has neither
// a caller-supplied value nor a default.
type MissingParameterError struct {
	Intent string
	Name   string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("render: missing required parameter '%s' for intent '%s'", e.Name, e.Intent)
}

// UnresolvedPlaceholderError means a template references a name that is not
// a declared parameter. This is a catalogue authoring bug.
type UnresolvedPlaceholderError struct {
	Intent string
	OSTag  string
	Name   string
}

func (e *UnresolvedPlaceholderError) Error() string {
	return fmt.Sprintf("render: template for '%s' on '%s' references undeclared parameter '{%s}'", e.Intent, e.OSTag, e.Name)
}
