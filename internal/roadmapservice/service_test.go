package roadmapservice

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/testutil"
)

var testClock = func() time.Time {
	return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	_, store := testutil.TestStore(t)
	opts = append([]Option{WithClock(testClock)}, opts...)
	svc, err := New(store, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

func validOutcomeForm() OutcomeForm {
	return OutcomeForm{
		Title:       "Reduce build times",
		Description: "Engineers wait too long for CI",
		Sections:    []models.TimelineSection{models.SectionNow, models.SectionNext},
	}
}

func validProblemForm(outcomeID string) ProblemForm {
	return ProblemForm{
		OutcomeID:       outcomeID,
		Title:           "Cache dependencies",
		Description:     "Cold builds redownload everything",
		SuccessCriteria: "P95 build under five minutes",
		Type:            models.TypeTooling,
		Timeline:        models.SectionNow,
	}
}

func TestNewStartsFromDefault(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	doc := svc.Document(ctx)
	if doc.Metadata.Title != "Roadmap" {
		t.Errorf("title = %q", doc.Metadata.Title)
	}
	if doc.Metadata.LastUpdated != "2026-03-10" {
		t.Errorf("lastUpdated = %q", doc.Metadata.LastUpdated)
	}
	if len(doc.Outcomes) != 0 {
		t.Errorf("outcomes = %d", len(doc.Outcomes))
	}
}

func TestNewMigratesExistingDocument(t *testing.T) {
	_, store := testutil.TestStore(t)
	doc := models.DefaultRoadmap(testClock())
	doc.Outcomes = append(doc.Outcomes, models.Outcome{
		ID: "o1",
		Timeline: models.OutcomeTimeline{
			Sections: []models.TimelineSection{models.SectionNow},
		},
		Problems: []models.Problem{
			{ID: "infra", Type: models.TypeInfrastructure, Timeline: models.SectionNow, DisplayOrder: 0},
			{ID: "user", Type: models.TypeUserFacing, Timeline: models.SectionNow, DisplayOrder: 1},
		},
	})
	if err := store.Save(doc); err != nil {
		t.Fatal(err)
	}

	svc, err := New(store, WithClock(testClock))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := svc.Document(context.Background()).Outcomes[0].Problems
	for _, p := range got {
		switch p.ID {
		case "user":
			if p.DisplayOrder != 0 {
				t.Errorf("user displayOrder = %d, want 0", p.DisplayOrder)
			}
		case "infra":
			if p.DisplayOrder != 1 {
				t.Errorf("infra displayOrder = %d, want 1", p.DisplayOrder)
			}
		}
	}

	// The migrated ordering is persisted, not just in memory.
	reloaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range reloaded.Outcomes[0].Problems {
		if p.ID == "user" && p.DisplayOrder != 0 {
			t.Error("migration was not written back")
		}
	}
}

func TestCreateOutcome(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	o, err := svc.CreateOutcome(ctx, validOutcomeForm())
	if err != nil {
		t.Fatalf("CreateOutcome: %v", err)
	}
	if o.ID == "" {
		t.Error("id not generated")
	}
	if !o.IsExpanded {
		t.Error("new outcomes start expanded")
	}
	if o.Problems == nil || len(o.Problems) != 0 {
		t.Error("new outcomes start with an empty problem list")
	}

	doc := svc.Document(ctx)
	if len(doc.Outcomes) != 1 {
		t.Fatalf("outcomes = %d", len(doc.Outcomes))
	}
	if doc.Metadata.LastUpdated != "2026-03-10" {
		t.Errorf("lastUpdated = %q", doc.Metadata.LastUpdated)
	}
}

func TestCreateOutcomeValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateOutcome(context.Background(), OutcomeForm{})
	if err == nil {
		t.Fatal("empty form should fail")
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("error type = %T", err)
	}
	// All violations are collected, not just the first.
	for _, field := range []string{"title", "description", "sections"} {
		if _, ok := fieldErrs[field]; !ok {
			t.Errorf("missing error for field %q: %v", field, fieldErrs)
		}
	}
}

func TestUpdateOutcomeLeavesProblemsAlone(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	o, _ := svc.CreateOutcome(ctx, validOutcomeForm())
	p, _ := svc.CreateProblem(ctx, validProblemForm(o.ID))

	form := validOutcomeForm()
	form.Sections = []models.TimelineSection{models.SectionLater}
	updated, err := svc.UpdateOutcome(ctx, o.ID, form)
	if err != nil {
		t.Fatalf("UpdateOutcome: %v", err)
	}
	if len(updated.Timeline.Sections) != 1 || updated.Timeline.Sections[0] != models.SectionLater {
		t.Errorf("sections = %v", updated.Timeline.Sections)
	}

	// The owned problem keeps its "now" bucket even though the outcome no
	// longer spans it. Consistency is only enforced on orphan reattach.
	doc := svc.Document(ctx)
	got := doc.FindOutcome(o.ID).Problems[0]
	if got.ID != p.ID || got.Timeline != models.SectionNow {
		t.Errorf("problem = %+v", got)
	}
}

func TestUpdateOutcomeNotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.UpdateOutcome(context.Background(), "missing", validOutcomeForm())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestCreateProblemDerivesFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	o, _ := svc.CreateOutcome(ctx, validOutcomeForm())
	p, err := svc.CreateProblem(ctx, validProblemForm(o.ID))
	if err != nil {
		t.Fatalf("CreateProblem: %v", err)
	}
	if p.Icon != "🔧" {
		t.Errorf("icon = %q", p.Icon)
	}
	if p.Priority != models.PriorityMustHave {
		t.Errorf("priority should default to must-have, got %q", p.Priority)
	}
	if p.DisplayOrder != 0 {
		t.Errorf("first problem in bucket should get displayOrder 0, got %d", p.DisplayOrder)
	}
}

func TestCreateProblemDisplayOrderAppends(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	o, _ := svc.CreateOutcome(ctx, validOutcomeForm())

	p1, _ := svc.CreateProblem(ctx, validProblemForm(o.ID))
	p2, _ := svc.CreateProblem(ctx, validProblemForm(o.ID))
	if p1.DisplayOrder != 0 || p2.DisplayOrder != 1 {
		t.Errorf("orders = %d, %d, want 0, 1", p1.DisplayOrder, p2.DisplayOrder)
	}

	// A different bucket starts its own numbering.
	form := validProblemForm(o.ID)
	form.Timeline = models.SectionNext
	p3, _ := svc.CreateProblem(ctx, form)
	if p3.DisplayOrder != 0 {
		t.Errorf("next-bucket order = %d, want 0", p3.DisplayOrder)
	}
}

func TestCreateProblemUnknownOutcome(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateProblem(context.Background(), validProblemForm("missing"))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestUpdateProblemPreservesIdentity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	o, _ := svc.CreateOutcome(ctx, validOutcomeForm())
	svc.CreateProblem(ctx, validProblemForm(o.ID))
	p, _ := svc.CreateProblem(ctx, validProblemForm(o.ID))

	form := validProblemForm(o.ID)
	form.Title = "Renamed"
	form.Type = models.TypeUserFacing
	updated, err := svc.UpdateProblem(ctx, p.ID, form)
	if err != nil {
		t.Fatalf("UpdateProblem: %v", err)
	}
	if updated.ID != p.ID {
		t.Error("id changed")
	}
	if updated.DisplayOrder != p.DisplayOrder {
		t.Errorf("displayOrder = %d, want %d", updated.DisplayOrder, p.DisplayOrder)
	}
	if updated.Icon != "👥" {
		t.Errorf("icon should follow the new type, got %q", updated.Icon)
	}
}

func TestDeleteOutcomePartialProblemCleanup(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	o, _ := svc.CreateOutcome(ctx, validOutcomeForm())
	keep, _ := svc.CreateProblem(ctx, validProblemForm(o.ID))
	doomed, _ := svc.CreateProblem(ctx, validProblemForm(o.ID))

	before := svc.Document(ctx).Metadata.LastUpdated

	if err := svc.DeleteOutcome(ctx, o.ID, []string{doomed.ID}); err != nil {
		t.Fatalf("DeleteOutcome: %v", err)
	}

	doc := svc.Document(ctx)
	if len(doc.Outcomes) != 0 {
		t.Errorf("outcomes = %d", len(doc.Outcomes))
	}
	if len(doc.OrphanedProblems) != 1 {
		t.Fatalf("orphans = %d, want 1", len(doc.OrphanedProblems))
	}
	orphan := doc.OrphanedProblems[0]
	if orphan.ID != keep.ID {
		t.Errorf("orphan id = %s, want %s", orphan.ID, keep.ID)
	}
	if orphan.DisplayOrder != keep.DisplayOrder {
		t.Error("orphan should keep its displayOrder")
	}
	// Deletes do not refresh lastUpdated.
	if doc.Metadata.LastUpdated != before {
		t.Errorf("lastUpdated changed on delete: %q", doc.Metadata.LastUpdated)
	}
}

func TestToggleOutcomeExpanded(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	o, _ := svc.CreateOutcome(ctx, validOutcomeForm())

	expanded, err := svc.ToggleOutcomeExpanded(ctx, o.ID)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if expanded {
		t.Error("first toggle should collapse")
	}
	expanded, _ = svc.ToggleOutcomeExpanded(ctx, o.ID)
	if !expanded {
		t.Error("second toggle should expand")
	}
}

func TestReattachProblemMismatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	src, _ := svc.CreateOutcome(ctx, validOutcomeForm())
	p, _ := svc.CreateProblem(ctx, validProblemForm(src.ID))
	if err := svc.DeleteOutcome(ctx, src.ID, nil); err != nil {
		t.Fatal(err)
	}

	laterForm := validOutcomeForm()
	laterForm.Sections = []models.TimelineSection{models.SectionLater}
	dst, _ := svc.CreateOutcome(ctx, laterForm)

	form := validProblemForm(dst.ID) // timeline "now", outcome only spans "later"
	_, err := svc.ReattachProblem(ctx, p.ID, form, false)
	var mismatch *TimelineMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err = %v, want TimelineMismatchError", err)
	}
	if mismatch.Suggested != models.SectionLater {
		t.Errorf("suggested = %q", mismatch.Suggested)
	}

	// The save was deferred: the problem is still an orphan.
	if len(svc.Document(ctx).OrphanedProblems) != 1 {
		t.Fatal("mismatch must not move the problem")
	}

	// Retry accepting the suggestion.
	got, err := svc.ReattachProblem(ctx, p.ID, form, true)
	if err != nil {
		t.Fatalf("ReattachProblem autoFix: %v", err)
	}
	if got.Timeline != models.SectionLater {
		t.Errorf("timeline = %q, want later", got.Timeline)
	}
	if got.DisplayOrder != 0 {
		t.Errorf("displayOrder = %d, want 0", got.DisplayOrder)
	}

	doc := svc.Document(ctx)
	if len(doc.OrphanedProblems) != 0 {
		t.Error("orphan list should be empty after reattach")
	}
	if len(doc.FindOutcome(dst.ID).Problems) != 1 {
		t.Error("problem should be attached to the outcome")
	}
}

func TestReattachProblemOutcomeWithoutSections(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// A permissive import can produce an outcome with no sections; the
	// outcome form never allows one.
	doc := models.DefaultRoadmap(time.Now())
	doc.Outcomes = []models.Outcome{{
		ID:       "bare",
		Title:    "Imported without sections",
		Problems: []models.Problem{},
	}}
	doc.OrphanedProblems = []models.Problem{{
		ID:       "p-orphan",
		Title:    "Stranded",
		Timeline: models.SectionNow,
	}}
	data, _ := json.Marshal(doc)
	if _, err := svc.Import(ctx, data); err != nil {
		t.Fatal(err)
	}

	form := validProblemForm("bare")
	_, err := svc.ReattachProblem(ctx, "p-orphan", form, false)
	var mismatch *TimelineMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err = %v, want TimelineMismatchError", err)
	}
	if mismatch.Suggested != "" {
		t.Errorf("suggested = %q, want none", mismatch.Suggested)
	}

	// autoFix has nothing to adopt, so the mismatch stands.
	if _, err := svc.ReattachProblem(ctx, "p-orphan", form, true); !errors.As(err, &mismatch) {
		t.Fatalf("autoFix err = %v, want TimelineMismatchError", err)
	}
	if len(svc.Document(ctx).OrphanedProblems) != 1 {
		t.Error("orphan must stay put")
	}
}

func TestReattachProblemMatchingBucket(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	src, _ := svc.CreateOutcome(ctx, validOutcomeForm())
	p, _ := svc.CreateProblem(ctx, validProblemForm(src.ID))
	svc.DeleteOutcome(ctx, src.ID, nil)

	dst, _ := svc.CreateOutcome(ctx, validOutcomeForm())
	got, err := svc.ReattachProblem(ctx, p.ID, validProblemForm(dst.ID), false)
	if err != nil {
		t.Fatalf("ReattachProblem: %v", err)
	}
	if got.Timeline != models.SectionNow {
		t.Errorf("timeline = %q", got.Timeline)
	}
}

func TestDeleteProblem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	o, _ := svc.CreateOutcome(ctx, validOutcomeForm())
	p, _ := svc.CreateProblem(ctx, validProblemForm(o.ID))

	if err := svc.DeleteProblem(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProblem: %v", err)
	}
	if len(svc.Document(ctx).FindOutcome(o.ID).Problems) != 0 {
		t.Error("problem not removed")
	}
	if err := svc.DeleteProblem(ctx, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestDeleteOrphanedProblem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	o, _ := svc.CreateOutcome(ctx, validOutcomeForm())
	p, _ := svc.CreateProblem(ctx, validProblemForm(o.ID))
	svc.DeleteOutcome(ctx, o.ID, nil)

	if err := svc.DeleteProblem(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProblem: %v", err)
	}
	if len(svc.Document(ctx).OrphanedProblems) != 0 {
		t.Error("orphan not removed")
	}
}

func TestImport(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Import(ctx, []byte(`{"metadata":{"title":"Imported"}}`))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if doc.Metadata.Title != "Imported" {
		t.Errorf("title = %q", doc.Metadata.Title)
	}
	if doc.Outcomes == nil {
		t.Error("imported document should be normalized")
	}

	if _, err := svc.Import(ctx, []byte("{bad")); err == nil {
		t.Error("invalid JSON should fail")
	}
	// A failed import leaves the previous document in place.
	if svc.Document(ctx).Metadata.Title != "Imported" {
		t.Error("failed import must not clobber the document")
	}
}

func TestChecksumTracksMutations(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	before := svc.Checksum(ctx)
	svc.CreateOutcome(ctx, validOutcomeForm())
	after := svc.Checksum(ctx)
	if before == after {
		t.Error("checksum should change after a mutation")
	}
	if after != svc.Checksum(ctx) {
		t.Error("checksum should be stable without mutations")
	}
}

func TestSnapshotPairsDocumentWithChecksum(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	svc.CreateOutcome(ctx, validOutcomeForm())
	doc, sum := svc.Snapshot(ctx)

	data, _ := json.Marshal(doc)
	if checksum.Sum(data) != sum {
		t.Error("checksum must describe the returned document")
	}
	if sum != svc.Checksum(ctx) {
		t.Error("snapshot checksum should match the current revision")
	}
}

func TestChangeCallbacks(t *testing.T) {
	var events []string
	svc := newTestService(t, WithChangeCallback(func(kind, id string) {
		events = append(events, kind)
	}))
	ctx := context.Background()

	o, _ := svc.CreateOutcome(ctx, validOutcomeForm())
	p, _ := svc.CreateProblem(ctx, validProblemForm(o.ID))
	svc.DeleteProblem(ctx, p.ID)
	svc.DeleteOutcome(ctx, o.ID, nil)

	want := []string{"outcome.created", "problem.created", "problem.deleted", "outcome.deleted"}
	if len(events) != len(want) {
		t.Fatalf("events = %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestDocumentReturnsCopy(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	svc.CreateOutcome(ctx, validOutcomeForm())
	doc := svc.Document(ctx)
	doc.Outcomes[0].Title = "mutated by caller"

	if svc.Document(ctx).Outcomes[0].Title == "mutated by caller" {
		t.Error("Document must return a deep copy")
	}
}

func TestPhases(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.CanEnter(ctx, PhaseOutcomes); err != nil {
		t.Errorf("outcomes phase should always be enterable: %v", err)
	}
	if err := svc.CanEnter(ctx, PhaseProblems); err == nil {
		t.Error("problems phase requires an outcome")
	}
	if got := svc.AllowedPhases(ctx); len(got) != 1 || got[0] != PhaseOutcomes {
		t.Errorf("allowed = %v", got)
	}

	svc.CreateOutcome(ctx, validOutcomeForm())
	if err := svc.CanEnter(ctx, PhaseComplete); err != nil {
		t.Errorf("complete phase should open up: %v", err)
	}
	if got := svc.AllowedPhases(ctx); len(got) != 3 {
		t.Errorf("allowed = %v", got)
	}

	if err := svc.CanEnter(ctx, Phase("review")); err == nil {
		t.Error("unknown phase should error")
	}
}
