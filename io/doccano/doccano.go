// Package doccano reads and writes the JSONL files produced by the
// doccano annotation tool. Three task formats are supported: relation
// extraction, sequence labeling and text classification.
package doccano

import (
	"encoding/json"
	"fmt"
)

// Config selects the JSON keys holding the text and the labels. Doccano
// projects can rename both.
type Config struct {
	// ColumnText is the key of the document text. Defaults to "text".
	ColumnText string

	// ColumnLabel is the key of the labels in sequence-labeling and
	// text-classification files. Defaults to "label".
	ColumnLabel string
}

// withDefaults fills the zero fields of a config.
func (c Config) withDefaults() Config {
	if c.ColumnText == "" {
		c.ColumnText = "text"
	}
	if c.ColumnLabel == "" {
		c.ColumnLabel = "label"
	}
	return c
}

// entityLine is one doccano entity of a relation-extraction document.
type entityLine struct {
	ID          int    `json:"id"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	Label       string `json:"label"`
}

// relationLine is one doccano relation of a relation-extraction
// document.
type relationLine struct {
	ID     int    `json:"id"`
	FromID int    `json:"from_id"`
	ToID   int    `json:"to_id"`
	Type   string `json:"type"`
}

// relationExtractionLine is one line of a relation-extraction JSONL
// file, before text-column resolution.
type relationExtractionLine struct {
	ID        *int           `json:"id,omitempty"`
	Entities  []entityLine   `json:"entities"`
	Relations []relationLine `json:"relations"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// decodeLine unmarshals one JSONL line twice: once into the typed shape
// and once into a raw map to resolve the configurable columns.
func decodeLine(data []byte, v any) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// stringColumn extracts a string field from a raw line.
func stringColumn(raw map[string]json.RawMessage, key string) (string, error) {
	field, ok := raw[key]
	if !ok {
		return "", fmt.Errorf("missing %q field", key)
	}
	var s string
	if err := json.Unmarshal(field, &s); err != nil {
		return "", fmt.Errorf("field %q: %w", key, err)
	}
	return s, nil
}

// seqLabelTuple is one [start, end, label] triple of a
// sequence-labeling line.
type seqLabelTuple struct {
	Start int
	End   int
	Label string
}

func (t *seqLabelTuple) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 3 {
		return fmt.Errorf("expected [start, end, label], got %d elements", len(parts))
	}
	if err := json.Unmarshal(parts[0], &t.Start); err != nil {
		return err
	}
	if err := json.Unmarshal(parts[1], &t.End); err != nil {
		return err
	}
	return json.Unmarshal(parts[2], &t.Label)
}

func (t seqLabelTuple) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{t.Start, t.End, t.Label})
}
