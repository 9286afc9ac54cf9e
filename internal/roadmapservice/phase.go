package roadmapservice

import (
	"context"
	"fmt"
)

// Phase is a UI building phase. Phases are freely selectable once their
// preconditions hold; there is no forced linear progression.
type Phase string

// Build phases.
const (
	PhaseOutcomes Phase = "outcomes"
	PhaseProblems Phase = "problems"
	PhaseComplete Phase = "complete"
)

// CanEnter reports whether the phase's precondition is met. The problems
// and complete phases require at least one outcome to exist.
func (s *Service) CanEnter(_ context.Context, phase Phase) error {
	switch phase {
	case PhaseOutcomes:
		return nil
	case PhaseProblems, PhaseComplete:
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(s.doc.Outcomes) == 0 {
			return fmt.Errorf("phase %q requires at least one outcome", phase)
		}
		return nil
	}
	return fmt.Errorf("unknown phase %q", phase)
}

// AllowedPhases lists the phases currently enterable.
func (s *Service) AllowedPhases(ctx context.Context) []Phase {
	out := []Phase{PhaseOutcomes}
	if s.CanEnter(ctx, PhaseProblems) == nil {
		out = append(out, PhaseProblems, PhaseComplete)
	}
	return out
}
