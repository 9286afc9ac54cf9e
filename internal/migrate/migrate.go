// Package migrate re-derives stable problem ordering on document load.
package migrate

import (
	"sort"

	"github.com/starford/raido/internal/models"
)

// Reorder regroups every outcome's problems by timeline bucket and, within
// each bucket, stably sorts by type priority (user-facing < tooling <
// infrastructure < unknown) with the existing displayOrder as tiebreak.
// DisplayOrder is then reassigned as the 0-based position after sorting.
//
// It reports whether any displayOrder changed. Re-running on an already
// migrated document is a no-op: the sort is stable and the priority
// function fixed, so the operation is idempotent.
func Reorder(doc *models.Roadmap) bool {
	changed := false
	for i := range doc.Outcomes {
		if reorderOutcome(&doc.Outcomes[i]) {
			changed = true
		}
	}
	return changed
}

func reorderOutcome(o *models.Outcome) bool {
	bySection := make(map[models.TimelineSection][]int)
	for i, p := range o.Problems {
		bySection[p.Timeline] = append(bySection[p.Timeline], i)
	}

	changed := false
	for _, idxs := range bySection {
		sort.SliceStable(idxs, func(a, b int) bool {
			pa, pb := o.Problems[idxs[a]], o.Problems[idxs[b]]
			ra, rb := models.TypePriority(pa.Type), models.TypePriority(pb.Type)
			if ra != rb {
				return ra < rb
			}
			return pa.DisplayOrder < pb.DisplayOrder
		})
		for pos, i := range idxs {
			if o.Problems[i].DisplayOrder != pos {
				o.Problems[i].DisplayOrder = pos
				changed = true
			}
		}
	}
	return changed
}
