package ingest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/c360studio/medtext/document"
)

// LoadTextFile builds a document from a plain text file. The file path
// and base name land in the document metadata.
func LoadTextFile(path string) (*document.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	return document.New(string(raw), &document.Opts{
		Metadata: map[string]any{
			"path_to_text": path,
			"name":         strings.TrimSuffix(name, filepath.Ext(name)),
		},
	})
}
