// Package roadmapservice owns the roadmap document and every mutation
// rule: outcome and problem lifecycles, orphan handling, and the
// cross-entity timeline-consistency check. Persistence is invoked as an
// explicit side effect after each successful mutation.
package roadmapservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/migrate"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/storage"
)

// ChangeCallback is invoked after every persisted mutation.
// kind is an event name such as "outcome.created"; id is the entity id
// (empty for whole-document events).
type ChangeCallback func(kind, id string)

// Service coordinates document mutations and persistence.
type Service struct {
	mu    sync.Mutex
	store storage.Provider
	doc   *models.Roadmap

	now      func() time.Time
	onChange ChangeCallback
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source (used by tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithChangeCallback registers a callback fired after each persisted mutation.
func WithChangeCallback(cb ChangeCallback) Option {
	return func(s *Service) { s.onChange = cb }
}

// New loads the persisted document (or starts from the zero-state default)
// and runs the load-time ordering migration on any existing document.
// The migrated document is written straight back to the store.
func New(store storage.Provider, opts ...Option) (*Service, error) {
	s := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	doc, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("roadmapservice: load: %w", err)
	}
	if doc == nil {
		// Fresh document: no migration, nothing to write back yet.
		s.doc = models.DefaultRoadmap(s.now())
		return s, nil
	}

	doc.Normalize()
	if migrate.Reorder(doc) {
		slog.Info("roadmapservice: migrated problem ordering")
	}
	if err := store.Save(doc); err != nil {
		return nil, fmt.Errorf("roadmapservice: write back migrated document: %w", err)
	}
	s.doc = doc
	return s, nil
}

// Document returns a deep copy of the current document.
func (s *Service) Document(_ context.Context) *models.Roadmap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDoc(s.doc)
}

// Checksum returns the hex SHA-256 of the serialized document, used to
// detect document revisions cheaply.
func (s *Service) Checksum(_ context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return docChecksum(s.doc)
}

// Snapshot returns a deep copy of the document together with the checksum
// of that same revision. Callers that need the pair must use this instead
// of Document plus Checksum, which can straddle a mutation.
func (s *Service) Snapshot(_ context.Context) (*models.Roadmap, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDoc(s.doc), docChecksum(s.doc)
}

// Export renders the document as pretty-printed JSON for manual copy.
func (s *Service) Export(_ context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return storage.Export(s.doc)
}

// Import replaces the entire in-memory and persisted document. The payload
// is accepted with no structural validation beyond valid JSON; nil slices
// are repaired so the board layer cannot trip over missing lists.
func (s *Service) Import(_ context.Context, data []byte) (*models.Roadmap, error) {
	doc := storage.Import(data)
	if doc == nil {
		return nil, fmt.Errorf("roadmapservice: import: invalid JSON")
	}
	doc.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	if err := s.store.Save(s.doc); err != nil {
		return nil, err
	}
	s.emit("roadmap.imported", "")
	return cloneDoc(s.doc), nil
}

// Reload replaces the in-memory document with the persisted one, running
// the ordering migration. Used when the document file changes out of band;
// last write wins. It is a no-op when no document exists on disk.
func (s *Service) Reload(_ context.Context) error {
	doc, err := s.store.Load()
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	doc.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	if migrate.Reorder(doc) {
		if err := s.store.Save(doc); err != nil {
			return err
		}
	}
	// Skip the swap when the on-disk document matches the in-memory one;
	// our own saves also trip the file watcher.
	if docChecksum(doc) == docChecksum(s.doc) {
		return nil
	}
	s.doc = doc
	s.emit("roadmap.reloaded", "")
	return nil
}

func docChecksum(doc *models.Roadmap) string {
	data, _ := json.Marshal(doc)
	return checksum.Sum(data)
}

// CreateOutcome validates the form and appends a new outcome with a
// generated id, isExpanded set, and an empty problem list.
func (s *Service) CreateOutcome(_ context.Context, form OutcomeForm) (*models.Outcome, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o := models.Outcome{
		ID:          uuid.NewString(),
		Title:       form.Title,
		Description: form.Description,
		Timeline: models.OutcomeTimeline{
			Sections:   form.Sections,
			Iterations: form.Iterations,
		},
		IsExpanded: true,
		Problems:   []models.Problem{},
	}
	s.doc.Outcomes = append(s.doc.Outcomes, o)
	s.touch()
	if err := s.store.Save(s.doc); err != nil {
		return nil, err
	}
	s.emit("outcome.created", o.ID)
	out := o
	return &out, nil
}

// UpdateOutcome replaces an outcome's user-editable fields in place. It
// never touches the outcome's problems, and deliberately does not validate
// or repair their timeline consistency against the new sections.
func (s *Service) UpdateOutcome(_ context.Context, id string, form OutcomeForm) (*models.Outcome, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.doc.FindOutcome(id)
	if o == nil {
		return nil, apperr.ErrNotFound
	}
	o.Title = form.Title
	o.Description = form.Description
	o.Timeline.Sections = form.Sections
	o.Timeline.Iterations = form.Iterations
	s.touch()
	if err := s.store.Save(s.doc); err != nil {
		return nil, err
	}
	s.emit("outcome.updated", id)
	out := *o
	return &out, nil
}

// DeleteOutcome removes an outcome. Problems whose ids appear in
// deleteProblemIDs are deleted permanently; every other owned problem is
// moved to orphanedProblems with its id, data, and displayOrder intact.
func (s *Service) DeleteOutcome(_ context.Context, id string, deleteProblemIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.doc.Outcomes {
		if s.doc.Outcomes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperr.ErrNotFound
	}

	doomed := make(map[string]struct{}, len(deleteProblemIDs))
	for _, pid := range deleteProblemIDs {
		doomed[pid] = struct{}{}
	}
	for _, p := range s.doc.Outcomes[idx].Problems {
		if _, ok := doomed[p.ID]; ok {
			continue
		}
		s.doc.OrphanedProblems = append(s.doc.OrphanedProblems, p)
	}

	s.doc.Outcomes = append(s.doc.Outcomes[:idx], s.doc.Outcomes[idx+1:]...)
	if err := s.store.Save(s.doc); err != nil {
		return err
	}
	s.emit("outcome.deleted", id)
	return nil
}

// ToggleOutcomeExpanded flips and persists the outcome's display flag.
func (s *Service) ToggleOutcomeExpanded(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.doc.FindOutcome(id)
	if o == nil {
		return false, apperr.ErrNotFound
	}
	o.IsExpanded = !o.IsExpanded
	if err := s.store.Save(s.doc); err != nil {
		return false, err
	}
	s.emit("outcome.updated", id)
	return o.IsExpanded, nil
}

// CreateProblem validates the form and appends a new problem to the chosen
// outcome. The icon is derived from the type; displayOrder appends after
// existing problems in the same (outcome, timeline bucket) group.
func (s *Service) CreateProblem(_ context.Context, form ProblemForm) (*models.Problem, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.doc.FindOutcome(form.OutcomeID)
	if o == nil {
		return nil, apperr.ErrNotFound
	}

	p := problemFromForm(uuid.NewString(), form)
	p.DisplayOrder = nextDisplayOrder(o.Problems, p.Timeline)
	o.Problems = append(o.Problems, p)
	s.touch()
	if err := s.store.Save(s.doc); err != nil {
		return nil, err
	}
	s.emit("problem.created", p.ID)
	out := p
	return &out, nil
}

// UpdateProblem replaces the mutable fields of a problem already attached
// to the form's outcome, preserving its identity and displayOrder. No
// timeline-consistency check runs here; only orphan reattachment performs
// that check.
func (s *Service) UpdateProblem(_ context.Context, id string, form ProblemForm) (*models.Problem, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o := s.doc.FindOutcome(form.OutcomeID)
	if o == nil {
		return nil, apperr.ErrNotFound
	}
	for i := range o.Problems {
		if o.Problems[i].ID != id {
			continue
		}
		updated := problemFromForm(id, form)
		updated.DisplayOrder = o.Problems[i].DisplayOrder
		o.Problems[i] = updated
		s.touch()
		if err := s.store.Save(s.doc); err != nil {
			return nil, err
		}
		s.emit("problem.updated", id)
		out := updated
		return &out, nil
	}
	return nil, apperr.ErrNotFound
}

// ReattachProblem applies edits to an orphaned problem and moves it into
// the form's outcome. When the problem's timeline bucket is not among the
// outcome's sections the save is deferred: a TimelineMismatchError is
// returned carrying the suggested fix (the outcome's first section), and
// the caller may retry with autoFix to adopt it.
func (s *Service) ReattachProblem(_ context.Context, id string, form ProblemForm, autoFix bool) (*models.Problem, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orphanIdx := -1
	for i := range s.doc.OrphanedProblems {
		if s.doc.OrphanedProblems[i].ID == id {
			orphanIdx = i
			break
		}
	}
	if orphanIdx < 0 {
		return nil, apperr.ErrNotFound
	}
	o := s.doc.FindOutcome(form.OutcomeID)
	if o == nil {
		return nil, apperr.ErrNotFound
	}

	p := problemFromForm(id, form)
	if !o.Timeline.HasSection(p.Timeline) {
		mismatch := &TimelineMismatchError{
			ProblemTimeline: p.Timeline,
			OutcomeSections: o.Timeline.Sections,
		}
		if len(o.Timeline.Sections) > 0 {
			mismatch.Suggested = o.Timeline.Sections[0]
		}
		// An imported outcome can have no sections at all. There is
		// nothing to adopt then, so autoFix cannot resolve the mismatch.
		if !autoFix || mismatch.Suggested == "" {
			return nil, mismatch
		}
		p.Timeline = mismatch.Suggested
	}

	p.DisplayOrder = nextDisplayOrder(o.Problems, p.Timeline)
	s.doc.OrphanedProblems = append(s.doc.OrphanedProblems[:orphanIdx], s.doc.OrphanedProblems[orphanIdx+1:]...)
	o.Problems = append(o.Problems, p)
	s.touch()
	if err := s.store.Save(s.doc); err != nil {
		return nil, err
	}
	s.emit("problem.reattached", id)
	out := p
	return &out, nil
}

// DeleteProblem removes a problem permanently from whichever container
// holds it: an outcome's problem list or the root orphan list.
func (s *Service) DeleteProblem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Outcomes {
		o := &s.doc.Outcomes[i]
		for j := range o.Problems {
			if o.Problems[j].ID != id {
				continue
			}
			o.Problems = append(o.Problems[:j], o.Problems[j+1:]...)
			if err := s.store.Save(s.doc); err != nil {
				return err
			}
			s.emit("problem.deleted", id)
			return nil
		}
	}
	for i := range s.doc.OrphanedProblems {
		if s.doc.OrphanedProblems[i].ID != id {
			continue
		}
		s.doc.OrphanedProblems = append(s.doc.OrphanedProblems[:i], s.doc.OrphanedProblems[i+1:]...)
		if err := s.store.Save(s.doc); err != nil {
			return err
		}
		s.emit("problem.deleted", id)
		return nil
	}
	return apperr.ErrNotFound
}

// SetBrandingLogo records an uploaded logo reference in the metadata.
// productLogo selects the product logo list instead of the main logo slot.
func (s *Service) SetBrandingLogo(_ context.Context, url string, productLogo bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if productLogo {
		s.doc.Metadata.Branding.ProductLogos = append(s.doc.Metadata.Branding.ProductLogos, url)
	} else {
		s.doc.Metadata.Branding.Logo = &url
	}
	s.touch()
	if err := s.store.Save(s.doc); err != nil {
		return err
	}
	s.emit("roadmap.updated", "")
	return nil
}

// touch refreshes metadata.lastUpdated to the current date. Callers hold mu.
func (s *Service) touch() {
	s.doc.Metadata.LastUpdated = s.now().Format(models.DateFormat)
}

func (s *Service) emit(kind, id string) {
	if s.onChange != nil {
		s.onChange(kind, id)
	}
}

// nextDisplayOrder returns 1 + the max displayOrder among problems sharing
// the timeline bucket, or 0 when the group is empty.
func nextDisplayOrder(problems []models.Problem, section models.TimelineSection) int {
	next := 0
	for _, p := range problems {
		if p.Timeline == section && p.DisplayOrder+1 > next {
			next = p.DisplayOrder + 1
		}
	}
	return next
}

// problemFromForm builds a problem value from validated form fields.
// The icon is always re-derived from the type, and priority defaults to
// must-have when unset.
func problemFromForm(id string, form ProblemForm) models.Problem {
	priority := form.Priority
	if priority == "" {
		priority = models.PriorityMustHave
	}
	return models.Problem{
		ID:              id,
		Title:           form.Title,
		Description:     form.Description,
		SuccessCriteria: form.SuccessCriteria,
		Type:            form.Type,
		Icon:            models.IconForType(form.Type),
		Timeline:        form.Timeline,
		Priority:        priority,
		Validation:      form.Validation,

		EngineeringReview: form.EngineeringReview,

		Scope:                 form.Scope,
		DetailedTimeline:      form.DetailedTimeline,
		TechnicalRequirements: form.TechnicalRequirements,
		Dependencies:          form.Dependencies,
		Resources:             form.Resources,
		Notes:                 form.Notes,
	}
}

// cloneDoc deep-copies a document so callers cannot mutate service state.
func cloneDoc(doc *models.Roadmap) *models.Roadmap {
	data, _ := json.Marshal(doc)
	var out models.Roadmap
	_ = json.Unmarshal(data, &out)
	out.Normalize()
	return &out
}
