package index

import "github.com/starford/raido/internal/models"

// ItemIndex defines the interface for roadmap search-index operations.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with mocks.
type ItemIndex interface {
	Reindex(doc *models.Roadmap, docChecksum string) error
	DocChecksum() (string, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies ItemIndex at compile time.
var _ ItemIndex = (*DB)(nil)
