package roadmapservice

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/raido/internal/models"
)

// OutcomeForm carries the user-editable fields of an outcome. Validation
// collects one error per violated field rather than stopping at the first.
type OutcomeForm struct {
	Title       string                     `json:"title"`
	Description string                     `json:"description"`
	Sections    []models.TimelineSection   `json:"sections"`
	Iterations  []models.TimelineIteration `json:"iterations,omitempty"`
}

// Validate checks the outcome form fields.
func (f OutcomeForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required.Error("title is required")),
		validation.Field(&f.Description, validation.Required.Error("description is required")),
		validation.Field(&f.Sections,
			validation.Required.Error("select at least one timeline section"),
			validation.Each(validation.In(models.SectionNow, models.SectionNext, models.SectionLater)),
		),
	)
}

// ProblemForm carries the user-editable fields of a problem.
type ProblemForm struct {
	OutcomeID       string                   `json:"outcomeId"`
	Title           string                   `json:"title"`
	Description     string                   `json:"description"`
	SuccessCriteria string                   `json:"successCriteria"`
	Type            models.ProblemType       `json:"type"`
	Timeline        models.TimelineSection   `json:"timeline"`
	Priority        models.Priority          `json:"priority,omitempty"`
	Validation      models.Validation        `json:"validation"`

	EngineeringReview *models.EngineeringReview `json:"engineeringReview,omitempty"`

	// Internal roadmap fields, optional.
	Scope                 models.Scope             `json:"scope,omitempty"`
	DetailedTimeline      *models.DetailedTimeline `json:"detailedTimeline,omitempty"`
	TechnicalRequirements string                   `json:"technicalRequirements,omitempty"`
	Dependencies          []string                 `json:"dependencies,omitempty"`
	Resources             int                      `json:"resources,omitempty"`
	Notes                 string                   `json:"notes,omitempty"`
}

// Validate checks the problem form fields. All violated rules are reported
// together; a toggled-on validation block requires at least one method.
func (f ProblemForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.OutcomeID, validation.Required.Error("select an outcome")),
		validation.Field(&f.Title, validation.Required.Error("title is required")),
		validation.Field(&f.Description, validation.Required.Error("description is required")),
		validation.Field(&f.SuccessCriteria, validation.Required.Error("success criteria is required")),
		validation.Field(&f.Type,
			validation.Required.Error("type is required"),
			validation.In(models.TypeTooling, models.TypeUserFacing, models.TypeInfrastructure),
		),
		validation.Field(&f.Timeline,
			validation.Required.Error("timeline bucket is required"),
			validation.In(models.SectionNow, models.SectionNext, models.SectionLater),
		),
		validation.Field(&f.Priority, validation.In(models.PriorityMustHave, models.PriorityNiceToHave)),
		validation.Field(&f.Validation, validation.By(checkValidationBlocks)),
	)
}

// checkValidationBlocks enforces the "non-empty methods when present" rule
// for both validation blocks.
func checkValidationBlocks(value interface{}) error {
	v, ok := value.(models.Validation)
	if !ok {
		return nil
	}
	errs := validation.Errors{}
	if v.PreBuild != nil {
		if len(v.PreBuild.Methods) == 0 {
			errs["preBuild"] = fmt.Errorf("select at least one pre-build method")
		} else if err := checkMethods(v.PreBuild.Methods, models.MethodUserTesting, models.MethodInternalExperimentation); err != nil {
			errs["preBuild"] = err
		}
	}
	if v.PostBuild != nil {
		if len(v.PostBuild.Methods) == 0 {
			errs["postBuild"] = fmt.Errorf("select at least one post-build method")
		} else if err := checkMethods(v.PostBuild.Methods, models.MethodUserValidation, models.MethodSMEEvaluation); err != nil {
			errs["postBuild"] = err
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func checkMethods(methods []string, allowed ...string) error {
	for _, m := range methods {
		known := false
		for _, a := range allowed {
			if m == a {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown method %q", m)
		}
	}
	return nil
}

// TimelineMismatchError is returned when an orphaned problem is reattached
// to an outcome that does not span the problem's timeline bucket. It is a
// deferred-save prompt rather than a hard failure: callers may retry with
// autoFix to adopt the suggested section.
type TimelineMismatchError struct {
	ProblemTimeline models.TimelineSection   `json:"problemTimeline"`
	OutcomeSections []models.TimelineSection `json:"outcomeSections"`
	Suggested       models.TimelineSection   `json:"suggested"`
}

func (e *TimelineMismatchError) Error() string {
	if e.Suggested == "" {
		return fmt.Sprintf("problem timeline %q is not among the outcome sections %v",
			e.ProblemTimeline, e.OutcomeSections)
	}
	return fmt.Sprintf("problem timeline %q is not among the outcome sections %v (suggested fix: %q)",
		e.ProblemTimeline, e.OutcomeSections, e.Suggested)
}
