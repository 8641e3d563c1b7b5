package catalogue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format is the syntax of a definitions document
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
	FormatYAML  Format = "yaml"
)

type nodeKind int

const (
	nodeNull nodeKind = iota
	nodeScalar
	nodeMap
	nodeSeq
)

type scalarType int

const (
	scalarString scalarType = iota
	scalarBool
	scalarNumber
)

// node is a format-neutral document tree that keeps mapping order.
type node struct {
	kind   nodeKind
	scalar scalarType
	value  string
	keys   []string
	fields map[string]*node
	items  []*node
}

func (n *node) describe() string {
	switch n.kind {
	case nodeNull:
		return "null"
	case nodeMap:
		return "mapping"
	case nodeSeq:
		return "list"
	}
	switch n.scalar {
	case scalarBool:
		return "boolean"
	case scalarNumber:
		return "number"
	}
	return "string"
}

// parseDocument decodes raw bytes into an ordered tree
func parseDocument(data []byte, format Format) (*node, error) {
	switch format {
	case FormatJSONC:
		return parseJSON(jsonc.ToJSON(data))
	case FormatYAML:
		return parseYAML(data)
	default:
		return parseJSON(data)
	}
}

func parseJSON(data []byte) (*node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	root, err := readJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return root, nil
}

func readJSONValue(dec *json.Decoder) (*node, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document")
		}
		return nil, err
	}
	return jsonValueFromToken(dec, tok)
}

func jsonValueFromToken(dec *json.Decoder, tok json.Token) (*node, error) {
	switch v := tok.(type) {
	case nil:
		return &node{kind: nodeNull}, nil
	case bool:
		return &node{kind: nodeScalar, scalar: scalarBool, value: fmt.Sprintf("%t", v)}, nil
	case json.Number:
		return &node{kind: nodeScalar, scalar: scalarNumber, value: v.String()}, nil
	case string:
		return &node{kind: nodeScalar, scalar: scalarString, value: v}, nil
	case json.Delim:
		switch v {
		case '{':
			n := &node{kind: nodeMap, fields: make(map[string]*node)}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key must be a string")
				}
				if _, dup := n.fields[key]; dup {
					return nil, fmt.Errorf("duplicate key %q", key)
				}
				child, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				n.keys = append(n.keys, key)
				n.fields[key] = child
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		case '[':
			n := &node{kind: nodeSeq}
			for dec.More() {
				child, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				n.items = append(n.items, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func parseYAML(data []byte) (*node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	return fromYAML(doc.Content[0])
}

func fromYAML(y *yaml.Node) (*node, error) {
	switch y.Kind {
	case yaml.AliasNode:
		return fromYAML(y.Alias)
	case yaml.MappingNode:
		n := &node{kind: nodeMap, fields: make(map[string]*node)}
		for i := 0; i+1 < len(y.Content); i += 2 {
			k, v := y.Content[i], y.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key must be a scalar", k.Line)
			}
			if _, dup := n.fields[k.Value]; dup {
				return nil, fmt.Errorf("line %d: duplicate key %q", k.Line, k.Value)
			}
			child, err := fromYAML(v)
			if err != nil {
				return nil, err
			}
			n.keys = append(n.keys, k.Value)
			n.fields[k.Value] = child
		}
		return n, nil
	case yaml.SequenceNode:
		n := &node{kind: nodeSeq}
		for _, item := range y.Content {
			child, err := fromYAML(item)
			if err != nil {
				return nil, err
			}
			n.items = append(n.items, child)
		}
		return n, nil
	case yaml.ScalarNode:
		switch y.ShortTag() {
		case "!!null":
			return &node{kind: nodeNull}, nil
		case "!!bool":
			var b bool
			if err := y.Decode(&b); err != nil {
				return nil, err
			}
			return &node{kind: nodeScalar, scalar: scalarBool, value: fmt.Sprintf("%t", b)}, nil
		case "!!int", "!!float":
			return &node{kind: nodeScalar, scalar: scalarNumber, value: y.Value}, nil
		default:
			return &node{kind: nodeScalar, scalar: scalarString, value: y.Value}, nil
		}
	}
	return nil, fmt.Errorf("line %d: unsupported node", y.Line)
}
