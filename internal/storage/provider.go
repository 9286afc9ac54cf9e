package storage

import "github.com/starford/raido/internal/models"

// Provider abstracts the roadmap document store so services and tests can
// swap implementations.
type Provider interface {
	// Load returns the persisted document, or nil when none exists or the
	// stored blob cannot be parsed. Load never returns a parse error.
	Load() (*models.Roadmap, error)
	// Save persists the full document, overwriting any prior value.
	Save(doc *models.Roadmap) error
	// Path returns the absolute path of the document file.
	Path() string
}

var _ Provider = (*FS)(nil)
