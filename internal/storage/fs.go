// Package storage persists the roadmap document as a single JSON file.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/raido/internal/models"
)

// DocumentFile is the fixed name of the roadmap document inside the data
// directory. The whole document always lives under this one key.
const DocumentFile = "roadmap.json"

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the data directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Path returns the absolute path of the document file.
func (f *FS) Path() string {
	return filepath.Join(f.root, DocumentFile)
}

// Load reads and parses the persisted document. A missing file yields
// (nil, nil). A corrupt blob is logged and also yields (nil, nil): parse
// failures are swallowed at this boundary, never propagated.
func (f *FS) Load() (*models.Roadmap, error) {
	data, err := os.ReadFile(f.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: read document: %w", err)
	}
	doc := Import(data)
	if doc == nil {
		slog.Error("storage: discarding unparseable document", slog.String("path", f.Path()))
	}
	return doc, nil
}

// Save serializes the document and writes it atomically:
// tmp file → fsync → rename. Content is not validated.
func (f *FS) Save(doc *models.Roadmap) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("storage: marshal document: %w", err)
	}

	tmp, err := os.CreateTemp(f.root, ".raido-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.Path()); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Export renders the document as pretty-printed JSON for manual copy.
func Export(doc *models.Roadmap) string {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		slog.Error("storage: export failed", slog.String("error", err.Error()))
		return ""
	}
	return string(data)
}

// Import parses JSON text into a document, returning nil on failure.
// There is no structural validation beyond "is valid JSON"; callers are
// expected to Normalize the result before use.
func Import(data []byte) *models.Roadmap {
	var doc models.Roadmap
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Error("storage: import failed", slog.String("error", err.Error()))
		return nil
	}
	return &doc
}
