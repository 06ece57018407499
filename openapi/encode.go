package openapi

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalJSON encodes the document as indented JSON.
func MarshalJSON(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// MarshalYAML encodes the document as YAML. The document is encoded to
// JSON first so YAML keys follow the json struct tags and the field order
// of the JSON output.
func MarshalYAML(doc *Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("re-reading JSON as YAML: %w", err)
	}
	resetStyle(&node)

	return yaml.Marshal(&node)
}

// resetStyle drops the flow and quoting styles inherited from the JSON
// source so the output reads as block YAML.
func resetStyle(node *yaml.Node) {
	node.Style = 0
	if node.Kind == yaml.ScalarNode && node.Tag == "!!str" {
		// Keep quoting only where the value would otherwise change type.
		var probe any
		if err := yaml.Unmarshal([]byte(node.Value), &probe); err != nil {
			node.Style = yaml.DoubleQuotedStyle
		} else if _, ok := probe.(string); !ok {
			node.Style = yaml.DoubleQuotedStyle
		}
	}
	for _, child := range node.Content {
		resetStyle(child)
	}
}

// decodeYAMLViaJSON decodes a YAML node into v using v's json struct tags.
func decodeYAMLViaJSON(node *yaml.Node, v any) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}

// UnmarshalYAML decodes a schema written with its JSON field names.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	type plain Schema
	return decodeYAMLViaJSON(node, (*plain)(s))
}

// UnmarshalYAML decodes a parameter written with its JSON field names.
func (p *Parameter) UnmarshalYAML(node *yaml.Node) error {
	type plain Parameter
	return decodeYAMLViaJSON(node, (*plain)(p))
}

// UnmarshalYAML decodes a header written with its JSON field names.
func (h *Header) UnmarshalYAML(node *yaml.Node) error {
	type plain Header
	return decodeYAMLViaJSON(node, (*plain)(h))
}

// UnmarshalYAML accepts either a bare tag name or a tag object.
func (t *Tag) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		t.Name = node.Value
		return nil
	}
	type plain Tag
	return decodeYAMLViaJSON(node, (*plain)(t))
}
