package annot

import (
	"fmt"

	"github.com/c360studio/medtext/span"
)

// Readers for the generic map form. Dicts may come straight from ToDict or
// from a JSON round trip; both shapes must decode.

func dictString(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func dictMetadata(data map[string]any) map[string]any {
	m, ok := data["metadata"].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}

func dictAttrs(data map[string]any) ([]*Attribute, error) {
	raw, ok := data["attrs"].([]any)
	if !ok {
		return nil, nil
	}
	attrs := make([]*Attribute, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid attribute entry %v", entry)
		}
		attr, err := AttributeFromDict(m)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func dictSpans(data map[string]any) ([]span.AnySpan, error) {
	raw, ok := data["spans"].([]any)
	if !ok {
		return nil, fmt.Errorf("annotation dict has no spans")
	}
	spans := make([]span.AnySpan, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid span entry %v", entry)
		}
		sp, err := span.FromDict(m)
		if err != nil {
			return nil, err
		}
		spans = append(spans, sp)
	}
	return spans, nil
}

func dictOpts(data map[string]any) (*Opts, error) {
	attrs, err := dictAttrs(data)
	if err != nil {
		return nil, err
	}
	return &Opts{
		UID:      dictString(data, "uid"),
		Attrs:    attrs,
		Metadata: dictMetadata(data),
	}, nil
}
