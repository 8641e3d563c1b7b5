package catalogue

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/DevSymphony/sysop/internal/roles"
	"github.com/DevSymphony/sysop/pkg/schema"
)

var intentIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`)

var (
	intentKeys = map[string]bool{"description": true, "phrases": true, "params": true, "templates": true, "role": true}
	paramKeys  = map[string]bool{"type": true, "required": true, "default": true, "choices": true, "example": true, "synonyms": true}
)

// fieldError is converted to a LoadError once the source name is known
type fieldError struct {
	kind LoadErrorKind
	path string
	err  error
}

func malformed(path, format string, args ...any) *fieldError {
	return &fieldError{kind: Malformed, path: path, err: fmt.Errorf(format, args...)}
}

func missing(path string) *fieldError {
	return &fieldError{kind: MissingField, path: path}
}

// buildIntents validates the document tree and produces definitions in document order
func buildIntents(root *node) ([]*schema.IntentDefinition, *fieldError) {
	if root.kind != nodeMap {
		return nil, malformed("", "top level must be a mapping of intent id to definition, got %s", root.describe())
	}
	defs := make([]*schema.IntentDefinition, 0, len(root.keys))
	for _, id := range root.keys {
		def, ferr := buildIntent(id, root.fields[id])
		if ferr != nil {
			return nil, ferr
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func buildIntent(id string, n *node) (*schema.IntentDefinition, *fieldError) {
	if !intentIDPattern.MatchString(id) {
		return nil, malformed(id, "intent id must have the form namespace.verb")
	}
	if n.kind != nodeMap {
		return nil, malformed(id, "intent definition must be a mapping, got %s", n.describe())
	}
	for _, k := range n.keys {
		if !intentKeys[k] {
			return nil, malformed(id+"."+k, "unknown field")
		}
	}

	def := &schema.IntentDefinition{ID: id}

	if d, ok := n.fields["description"]; ok {
		s, ferr := stringValue(d, id+".description")
		if ferr != nil {
			return nil, ferr
		}
		def.Description = s
	}

	if p, ok := n.fields["phrases"]; ok {
		phrases, ferr := stringList(p, id+".phrases")
		if ferr != nil {
			return nil, ferr
		}
		def.Phrases = phrases
	}

	if r, ok := n.fields["role"]; ok {
		s, ferr := stringValue(r, id+".role")
		if ferr != nil {
			return nil, ferr
		}
		role, err := roles.Parse(s)
		if err != nil {
			return nil, &fieldError{kind: Malformed, path: id + ".role", err: err}
		}
		def.Role = string(role)
	}

	if p, ok := n.fields["params"]; ok && p.kind != nodeNull {
		if p.kind != nodeMap {
			return nil, malformed(id+".params", "must be a mapping, got %s", p.describe())
		}
		for _, name := range p.keys {
			spec, ferr := buildParam(id+".params."+name, p.fields[name])
			if ferr != nil {
				return nil, ferr
			}
			def.Params = append(def.Params, schema.Param{Name: name, ParameterSpec: spec})
		}
	}

	t, ok := n.fields["templates"]
	if !ok || t.kind == nodeNull {
		return nil, missing(id + ".templates")
	}
	if t.kind != nodeMap {
		return nil, malformed(id+".templates", "must be a mapping of os tag to command, got %s", t.describe())
	}
	if len(t.keys) == 0 {
		return nil, missing(id + ".templates")
	}
	for _, tag := range t.keys {
		cmd, ferr := stringValue(t.fields[tag], id+".templates."+tag)
		if ferr != nil {
			return nil, ferr
		}
		if strings.TrimSpace(cmd) == "" {
			return nil, malformed(id+".templates."+tag, "command template must not be empty")
		}
		def.Templates = append(def.Templates, schema.Template{OSTag: tag, Command: cmd})
	}

	return def, nil
}

func buildParam(path string, n *node) (schema.ParameterSpec, *fieldError) {
	var spec schema.ParameterSpec
	if n.kind != nodeMap {
		return spec, malformed(path, "parameter spec must be a mapping, got %s", n.describe())
	}
	for _, k := range n.keys {
		if !paramKeys[k] {
			return spec, malformed(path+"."+k, "unknown field")
		}
	}

	t, ok := n.fields["type"]
	if !ok || t.kind == nodeNull {
		return spec, missing(path + ".type")
	}
	typeName, ferr := stringValue(t, path+".type")
	if ferr != nil {
		return spec, ferr
	}
	kind, known := schema.ParseParamKind(typeName)
	if !known {
		return spec, malformed(path+".type", "unknown parameter type %q", typeName)
	}
	spec.Kind = kind

	if r, ok := n.fields["required"]; ok && r.kind != nodeNull {
		if r.kind != nodeScalar || r.scalar != scalarBool {
			return spec, malformed(path+".required", "must be a boolean, got %s", r.describe())
		}
		spec.Required = r.value == "true"
	}

	if d, ok := n.fields["default"]; ok && d.kind != nodeNull {
		if d.kind != nodeScalar {
			return spec, malformed(path+".default", "must be a literal, got %s", d.describe())
		}
		v := d.value
		spec.Default = &v
	}

	if c, ok := n.fields["choices"]; ok && c.kind != nodeNull {
		choices, ferr := stringList(c, path+".choices")
		if ferr != nil {
			return spec, ferr
		}
		spec.Choices = choices
	}

	if e, ok := n.fields["example"]; ok && e.kind != nodeNull {
		if e.kind != nodeScalar {
			return spec, malformed(path+".example", "must be a literal, got %s", e.describe())
		}
		spec.Example = e.value
	}

	if s, ok := n.fields["synonyms"]; ok && s.kind != nodeNull {
		if s.kind != nodeMap {
			return spec, malformed(path+".synonyms", "must be a mapping of choice to words, got %s", s.describe())
		}
		spec.Synonyms = make(map[string][]string, len(s.keys))
		for _, choice := range s.keys {
			words, ferr := stringList(s.fields[choice], path+".synonyms."+choice)
			if ferr != nil {
				return spec, ferr
			}
			spec.Synonyms[choice] = words
		}
	}

	if spec.Required && spec.Default != nil {
		return spec, malformed(path+".default", "a required parameter cannot declare a default")
	}
	if spec.Kind == schema.KindChoice {
		if len(spec.Choices) == 0 {
			return spec, missing(path + ".choices")
		}
		if spec.Default != nil && !contains(spec.Choices, *spec.Default) {
			return spec, malformed(path+".default", "default %q is not one of the choices", *spec.Default)
		}
		for choice := range spec.Synonyms {
			if !contains(spec.Choices, choice) {
				return spec, malformed(path+".synonyms."+choice, "synonyms declared for an unknown choice")
			}
		}
	} else if len(spec.Choices) > 0 || len(spec.Synonyms) > 0 {
		return spec, malformed(path, "choices and synonyms are only valid for type %q", schema.KindChoice)
	}

	return spec, nil
}

func stringValue(n *node, path string) (string, *fieldError) {
	if n.kind != nodeScalar || n.scalar != scalarString {
		return "", malformed(path, "must be a string, got %s", n.describe())
	}
	return n.value, nil
}

func stringList(n *node, path string) ([]string, *fieldError) {
	if n.kind != nodeSeq {
		return nil, malformed(path, "must be a list of strings, got %s", n.describe())
	}
	out := make([]string, 0, len(n.items))
	for i, item := range n.items {
		s, ferr := stringValue(item, fmt.Sprintf("%s[%d]", path, i))
		if ferr != nil {
			return nil, ferr
		}
		out = append(out, s)
	}
	return out, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
