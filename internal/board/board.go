// Package board derives filtered, sorted views of the roadmap document
// for the timeline board. Everything here is a pure function of the
// document and the in-memory filter selections; nothing is persisted.
package board

import (
	"sort"

	"github.com/starford/raido/internal/models"
)

// Filters holds the in-memory board filter selections. Empty sets mean
// "no filtering" on that dimension. HasValidation is a tri-state: nil
// means unset.
type Filters struct {
	Priorities    []models.Priority        `json:"priorities,omitempty"`
	Types         []models.ProblemType     `json:"types,omitempty"`
	Sections      []models.TimelineSection `json:"sections,omitempty"`
	HasValidation *bool                    `json:"hasValidation,omitempty"`
}

// Matches reports whether a problem passes every active filter dimension.
func (f Filters) Matches(p models.Problem) bool {
	if len(f.Priorities) > 0 && !containsPriority(f.Priorities, p.Priority) {
		return false
	}
	if len(f.Types) > 0 && !containsType(f.Types, p.Type) {
		return false
	}
	if len(f.Sections) > 0 && !containsSection(f.Sections, p.Timeline) {
		return false
	}
	if f.HasValidation != nil && p.Validation.HasAnyMethod() != *f.HasValidation {
		return false
	}
	return true
}

// Column is one timeline-bucket column within an outcome group.
type Column struct {
	Section  models.TimelineSection `json:"section"`
	Label    string                 `json:"label"`
	Problems []models.Problem       `json:"problems"`
}

// OutcomeGroup is one outcome with its per-bucket columns.
type OutcomeGroup struct {
	Outcome models.Outcome `json:"outcome"`
	Columns []Column       `json:"columns"`
}

// View is the rendered board: outcomes grouped by their start bucket,
// plus a trailing group for outcomes with no timeline at all.
type View struct {
	LastUpdated string         `json:"lastUpdated"`
	Groups      []OutcomeGroup `json:"groups"`
	NoTimeline  []OutcomeGroup `json:"noTimeline,omitempty"`
}

// Build derives the board view from the document and filter selections.
// Top-level ordering follows the outcome's first matching bucket in the
// fixed now < next < later order; outcomes without any bucket sort last.
// Within each column, problems follow the same type-priority sort as the
// load-time migration, with displayOrder as tiebreak.
func Build(doc *models.Roadmap, f Filters) View {
	view := View{
		LastUpdated: doc.Metadata.LastUpdated,
		Groups:      []OutcomeGroup{},
	}

	ordered := make([]models.Outcome, len(doc.Outcomes))
	copy(ordered, doc.Outcomes)
	sort.SliceStable(ordered, func(a, b int) bool {
		return startBucketRank(ordered[a]) < startBucketRank(ordered[b])
	})

	for _, o := range ordered {
		group := OutcomeGroup{Outcome: o, Columns: []Column{}}
		for _, section := range models.SectionOrder() {
			if !o.Timeline.HasSection(section) {
				continue
			}
			col := Column{
				Section:  section,
				Label:    doc.Timeline.Label(section),
				Problems: columnProblems(o, section, f),
			}
			group.Columns = append(group.Columns, col)
		}
		if startBucketRank(o) == len(models.SectionOrder()) {
			view.NoTimeline = append(view.NoTimeline, group)
			continue
		}
		view.Groups = append(view.Groups, group)
	}
	return view
}

// columnProblems selects the outcome's problems for one bucket, applies
// the filters, and sorts by type priority then displayOrder.
func columnProblems(o models.Outcome, section models.TimelineSection, f Filters) []models.Problem {
	out := []models.Problem{}
	for _, p := range o.Problems {
		if p.Timeline != section {
			continue
		}
		if !f.Matches(p) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(a, b int) bool {
		ra, rb := models.TypePriority(out[a].Type), models.TypePriority(out[b].Type)
		if ra != rb {
			return ra < rb
		}
		return out[a].DisplayOrder < out[b].DisplayOrder
	})
	return out
}

// startBucketRank returns the index of the outcome's first matching bucket
// in the fixed section order, or one past the end for "no timeline".
func startBucketRank(o models.Outcome) int {
	for i, section := range models.SectionOrder() {
		if o.Timeline.HasSection(section) {
			return i
		}
	}
	return len(models.SectionOrder())
}

func containsPriority(set []models.Priority, v models.Priority) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsType(set []models.ProblemType, v models.ProblemType) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsSection(set []models.TimelineSection, v models.TimelineSection) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
