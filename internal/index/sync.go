package index

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/raido/internal/models"
)

// DocumentSource provides the current document and its revision checksum
// as one consistent pair. *roadmapservice.Service satisfies this.
type DocumentSource interface {
	Snapshot(ctx context.Context) (*models.Roadmap, string)
}

// Syncer keeps the index in step with the document. Mutations kick it;
// it debounces bursts and rebuilds only when the revision changed.
type Syncer struct {
	db     *DB
	src    DocumentSource
	logger *slog.Logger
	kicks  chan struct{}
}

// NewSyncer creates a Syncer. Call Run to start it and Kick after each
// document mutation.
func NewSyncer(db *DB, src DocumentSource, logger *slog.Logger) *Syncer {
	return &Syncer{
		db:     db,
		src:    src,
		logger: logger,
		kicks:  make(chan struct{}, 1),
	}
}

// Kick schedules a sync. Never blocks; bursts coalesce.
func (s *Syncer) Kick() {
	select {
	case s.kicks <- struct{}{}:
	default:
	}
}

// Run performs an initial sync and then services kicks until ctx is
// cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	s.sync(ctx)

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil
		case <-s.kicks:
			if debounce == nil {
				debounce = time.NewTimer(100 * time.Millisecond)
				fire = debounce.C
			} else {
				debounce.Reset(100 * time.Millisecond)
			}
		case <-fire:
			s.sync(ctx)
		}
	}
}

// sync rebuilds the index when the document revision changed.
func (s *Syncer) sync(ctx context.Context) {
	doc, cs := s.src.Snapshot(ctx)
	stored, err := s.db.DocChecksum()
	if err != nil {
		s.logger.Warn("index sync: read checksum failed", slog.String("error", err.Error()))
		return
	}
	if cs == stored {
		return
	}
	if err := s.db.Reindex(doc, cs); err != nil {
		s.logger.Warn("index sync: reindex failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Debug("index sync: reindexed", slog.String("checksum", cs))
}
