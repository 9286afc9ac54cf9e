package api

import (
	"net/url"
	"strconv"

	"github.com/starford/raido/internal/board"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/roadmapservice"
)

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type deleteOutcomeRequest struct {
	// DeleteProblemIDs lists the problems to delete permanently along with
	// the outcome. Every other owned problem is moved to orphanedProblems.
	DeleteProblemIDs []string `json:"deleteProblemIds"`
}

type roadmapResponse struct {
	Roadmap  *models.Roadmap `json:"roadmap"`
	Checksum string          `json:"checksum"`
}

type statusResponse struct {
	Title            string                 `json:"title"`
	LastUpdated      string                 `json:"lastUpdated"`
	Checksum         string                 `json:"checksum"`
	Outcomes         int                    `json:"outcomes"`
	OrphanedProblems int                    `json:"orphanedProblems"`
	AllowedPhases    []roadmapservice.Phase `json:"allowedPhases"`
}

type toggleResponse struct {
	IsExpanded bool `json:"isExpanded"`
}

type mismatchResponse struct {
	Error    string                                `json:"error"`
	Mismatch *roadmapservice.TimelineMismatchError `json:"mismatch"`
}

// filtersFromQuery decodes board filter selections from query parameters.
// Repeated parameters accumulate; absent dimensions stay unfiltered.
func filtersFromQuery(q url.Values) board.Filters {
	var f board.Filters
	for _, v := range q["priority"] {
		f.Priorities = append(f.Priorities, models.Priority(v))
	}
	for _, v := range q["type"] {
		f.Types = append(f.Types, models.ProblemType(v))
	}
	for _, v := range q["section"] {
		f.Sections = append(f.Sections, models.TimelineSection(v))
	}
	if raw := q.Get("hasValidation"); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			f.HasValidation = &b
		}
	}
	return f
}
