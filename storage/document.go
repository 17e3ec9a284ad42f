// Package storage persists annotated documents in NATS JetStream KV.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/medtext/document"
)

// BucketDocuments is the KV bucket holding serialized documents, keyed
// by document uid.
const BucketDocuments = "MEDTEXT_DOCUMENTS"

// Store provides document storage operations backed by NATS KV.
// Documents are stored as their dict serialization, annotations
// included, so any consumer able to read the dict format can use the
// bucket directly.
type Store struct {
	documents jetstream.KeyValue
	logger    *slog.Logger
}

// NewStore creates a Store with the given JetStream context. The
// documents bucket is created if it doesn't exist.
func NewStore(ctx context.Context, js jetstream.JetStream, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	documents, err := getOrCreateBucket(ctx, js, BucketDocuments)
	if err != nil {
		return nil, fmt.Errorf("create documents bucket: %w", err)
	}
	return &Store{documents: documents, logger: logger}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Medtext annotated document storage",
		History:     5, // Keep last 5 revisions
	})
}

// PutDocument stores a document under its uid, overwriting any previous
// revision.
func (s *Store) PutDocument(ctx context.Context, doc *document.Document) error {
	data, err := json.Marshal(doc.ToDict(true))
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.UID(), err)
	}
	if _, err := s.documents.Put(ctx, doc.UID(), data); err != nil {
		return fmt.Errorf("store document %s: %w", doc.UID(), err)
	}
	return nil
}

// GetDocument retrieves a document by uid.
func (s *Store) GetDocument(ctx context.Context, uid string) (*document.Document, error) {
	entry, err := s.documents.Get(ctx, uid)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document %s: %w", uid, err)
	}

	var dict map[string]any
	if err := json.Unmarshal(entry.Value(), &dict); err != nil {
		return nil, fmt.Errorf("unmarshal document %s: %w", uid, err)
	}
	doc, err := document.FromDict(dict)
	if err != nil {
		return nil, fmt.Errorf("decode document %s: %w", uid, err)
	}
	return doc, nil
}

// DeleteDocument removes a document. Deleting a missing uid is not an
// error.
func (s *Store) DeleteDocument(ctx context.Context, uid string) error {
	if err := s.documents.Delete(ctx, uid); err != nil && !isNotFound(err) {
		return fmt.Errorf("delete document %s: %w", uid, err)
	}
	return nil
}

// ListUIDs returns the uids of every stored document.
func (s *Store) ListUIDs(ctx context.Context) ([]string, error) {
	keys, err := s.documents.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list document keys: %w", err)
	}
	return keys, nil
}

// ListDocuments returns every stored document. Entries that fail to
// load or decode are skipped with a warning.
func (s *Store) ListDocuments(ctx context.Context) ([]*document.Document, error) {
	uids, err := s.ListUIDs(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]*document.Document, 0, len(uids))
	for _, uid := range uids {
		doc, err := s.GetDocument(ctx, uid)
		if err != nil {
			s.logger.Warn("skipping unreadable document", "uid", uid, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "key not found")
}
