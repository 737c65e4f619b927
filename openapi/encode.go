package openapi

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// MarshalJSON renders the document as indented JSON.
//
// See: https://spec.openapis.org/oas/v3.1.0#openapi-document
func MarshalJSON(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize OpenAPI document as JSON: %w", err)
	}
	return data, nil
}

// MarshalYAML renders the document as YAML. The document is encoded as JSON
// first so field names and property order match the JSON output.
func MarshalYAML(doc *Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize OpenAPI document: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to convert OpenAPI document to YAML: %w", err)
	}
	blockStyle(&node)

	out, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize OpenAPI document as YAML: %w", err)
	}
	return out, nil
}

// blockStyle clears the flow and quoting styles inherited from the JSON
// source. The encoder still quotes strings that would otherwise change type.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// Encode writes the document to w in the given format ("json" or "yaml").
func Encode(w io.Writer, doc *Document, format string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case "json", "":
		data, err = MarshalJSON(doc)
	case "yaml", "yml":
		data, err = MarshalYAML(doc)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write OpenAPI document: %w", err)
	}
	return nil
}
