// Package document aggregates a text, its annotation container and its
// metadata into the unit the pipeline operates on.
package document

import (
	"fmt"

	"github.com/c360studio/medtext/annot"
	"github.com/c360studio/medtext/ident"
	"github.com/c360studio/medtext/span"
)

// RawLabel is the label of the auto-generated segment holding the full
// unprocessed document text.
const RawLabel = "RAW_TEXT"

// ClassDocument is the class name embedded in serialized documents.
const ClassDocument = "Document"

// Document holds an immutable source text plus a growing set of
// annotations. The raw text lives in an auto-generated segment so that
// processing operations can consume it like any other segment.
//
// A document is mutated only by adding annotations; the raw segment is
// never edited or removed. Callers must serialize concurrent operations on
// the same document themselves; distinct documents share no state, so
// parallelizing across documents needs no locks.
type Document struct {
	uid      string
	metadata map[string]any

	// Anns indexes every annotation of the document, raw segment included.
	Anns *annot.Container

	rawSegment *annot.Segment
}

// Opts holds the optional construction fields of a document.
type Opts struct {
	// UID identifies the document. Generated when empty.
	UID string

	// Metadata is free-form document bookkeeping (source path, patient
	// pseudonym, ...).
	Metadata map[string]any

	// Anns are annotations to add at construction time.
	Anns []annot.Annotation
}

// New creates a document from its raw text. The raw segment's uid is
// derived deterministically from the document uid, so reloading a document
// with the same uid always yields the same raw segment identifier and
// provenance graphs keyed by annotation uid stay valid across reloads.
func New(text string, opts *Opts) (*Document, error) {
	if opts == nil {
		opts = &Opts{}
	}

	uid := opts.UID
	if uid == "" {
		uid = ident.New()
	}
	metadata := opts.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	raw, err := rawSegment(text, uid)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		uid:        uid,
		metadata:   metadata,
		rawSegment: raw,
		Anns:       annot.NewContainer(raw),
	}
	for _, ann := range opts.Anns {
		if err := doc.Anns.Add(ann); err != nil {
			return nil, fmt.Errorf("document %s: %w", uid, err)
		}
	}
	return doc, nil
}

func rawSegment(text, docUID string) (*annot.Segment, error) {
	spans := []span.AnySpan{span.Span{Start: 0, End: len(text)}}
	return annot.NewSegment(RawLabel, spans, text, &annot.Opts{
		UID: ident.Deterministic(docUID),
	})
}

// UID returns the document identifier.
func (d *Document) UID() string { return d.uid }

// Text returns the full original document text.
func (d *Document) Text() string { return d.rawSegment.Text() }

// Metadata returns the document metadata map.
func (d *Document) Metadata() map[string]any { return d.metadata }

// RawSegment returns the auto-generated segment covering the whole text.
func (d *Document) RawSegment() *annot.Segment { return d.rawSegment }

// ToDict returns the generic serialized form of the document. When withAnns
// is false a shallow form without annotations is produced.
func (d *Document) ToDict(withAnns bool) map[string]any {
	data := map[string]any{
		"class_name": ClassDocument,
		"uid":        d.uid,
		"text":       d.Text(),
		"metadata":   d.metadata,
	}
	if withAnns {
		var anns []any
		for _, ann := range d.Anns.All() {
			if ann.UID() == d.rawSegment.UID() {
				// The raw segment is rebuilt from the text at load time.
				continue
			}
			anns = append(anns, ann.ToDict())
		}
		data["anns"] = anns
	}
	return data
}

// FromDict reconstructs a document from its generic serialized form,
// dispatching each annotation to the right variant through the registry.
func FromDict(data map[string]any) (*Document, error) {
	uid, _ := data["uid"].(string)
	text, _ := data["text"].(string)
	metadata, _ := data["metadata"].(map[string]any)

	var anns []annot.Annotation
	if raw, ok := data["anns"].([]any); ok {
		for _, entry := range raw {
			m, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("invalid annotation entry %v", entry)
			}
			ann, err := annot.FromDict(m)
			if err != nil {
				return nil, err
			}
			anns = append(anns, ann)
		}
	}

	return New(text, &Opts{UID: uid, Metadata: metadata, Anns: anns})
}
