// Package models defines the domain types for Raido.
package models

// DateFormat is the layout used for metadata.lastUpdated.
const DateFormat = "2006-01-02"

// TimelineSection is one of the three fixed roadmap buckets.
type TimelineSection string

// Timeline buckets, in display order.
const (
	SectionNow   TimelineSection = "now"
	SectionNext  TimelineSection = "next"
	SectionLater TimelineSection = "later"
)

// SectionOrder returns the fixed bucket ordering used for board grouping.
func SectionOrder() []TimelineSection {
	return []TimelineSection{SectionNow, SectionNext, SectionLater}
}

// ProblemType classifies a problem.
type ProblemType string

// Problem types.
const (
	TypeTooling        ProblemType = "tooling"
	TypeUserFacing     ProblemType = "user-facing"
	TypeInfrastructure ProblemType = "infrastructure"
)

// Priority of a problem on the roadmap.
type Priority string

// Priorities.
const (
	PriorityMustHave   Priority = "must-have"
	PriorityNiceToHave Priority = "nice-to-have"
)

// RiskLevel is the engineering risk assessment.
type RiskLevel string

// Risk levels.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Scope is a t-shirt sizing bucket used on internal roadmaps.
type Scope string

// Scopes.
const (
	ScopeExtraSmall Scope = "extra-small"
	ScopeSmall      Scope = "small"
	ScopeMedium     Scope = "medium"
	ScopeLarge      Scope = "large"
	ScopeExtraLarge Scope = "extra-large"
)

// Pre-build validation methods.
const (
	MethodUserTesting             = "user-testing"
	MethodInternalExperimentation = "internal-experimentation"
)

// Post-build validation methods.
const (
	MethodUserValidation = "user-validation"
	MethodSMEEvaluation  = "sme-evaluation"
)

// PreBuildValidation describes how assumptions are tested before building.
// Methods must be non-empty when the block is present.
type PreBuildValidation struct {
	Methods                      []string `json:"methods"`
	UserTestingNotes             string   `json:"userTestingNotes,omitempty"`
	InternalExperimentationNotes string   `json:"internalExperimentationNotes,omitempty"`
}

// PostBuildValidation describes how results are validated after building.
type PostBuildValidation struct {
	Methods             []string `json:"methods"`
	UserValidationNotes string   `json:"userValidationNotes,omitempty"`
	SMEEvaluationNotes  string   `json:"smeEvaluationNotes,omitempty"`
}

// Validation groups the optional pre- and post-build blocks.
type Validation struct {
	PreBuild  *PreBuildValidation  `json:"preBuild,omitempty"`
	PostBuild *PostBuildValidation `json:"postBuild,omitempty"`
}

// HasAnyMethod reports whether any pre- or post-build method is recorded.
func (v Validation) HasAnyMethod() bool {
	if v.PreBuild != nil && len(v.PreBuild.Methods) > 0 {
		return true
	}
	return v.PostBuild != nil && len(v.PostBuild.Methods) > 0
}

// EngineeringReview captures engineering's assessment of a problem.
type EngineeringReview struct {
	Reviewed      bool      `json:"reviewed"`
	Notes         string    `json:"notes,omitempty"`
	RiskLevel     RiskLevel `json:"riskLevel,omitempty"`
	Certainty     string    `json:"certainty,omitempty"`
	TshirtSize    string    `json:"tshirtSize,omitempty"`
	ConfluenceURL string    `json:"confluenceUrl,omitempty"`
	JiraEpicURL   string    `json:"jiraEpicUrl,omitempty"`
}

// DetailedTimeline holds sprint-level planning data added by a dev lead.
type DetailedTimeline struct {
	Sprints  []string `json:"sprints,omitempty"`
	Months   []string `json:"months,omitempty"`
	Duration string   `json:"duration,omitempty"`
}

// Problem is a concrete unit of work under an outcome, assigned to exactly
// one timeline bucket. It is owned by exactly one container: either an
// outcome's problem list or the root orphanedProblems list.
type Problem struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	SuccessCriteria string          `json:"successCriteria"`
	Type            ProblemType     `json:"type"`
	Icon            string          `json:"icon"`
	Timeline        TimelineSection `json:"timeline"`
	Priority        Priority        `json:"priority"`
	Validation      Validation      `json:"validation"`

	EngineeringReview *EngineeringReview `json:"engineeringReview,omitempty"`

	// DisplayOrder keeps manual ordering stable within a
	// (outcome, timeline bucket) group.
	DisplayOrder int `json:"displayOrder"`

	// Internal roadmap fields, filled in later by a dev lead.
	Scope                 Scope             `json:"scope,omitempty"`
	DetailedTimeline      *DetailedTimeline `json:"detailedTimeline,omitempty"`
	TechnicalRequirements string            `json:"technicalRequirements,omitempty"`
	Dependencies          []string          `json:"dependencies,omitempty"`
	Resources             int               `json:"resources,omitempty"`
	Notes                 string            `json:"notes,omitempty"`
}

// IterationVersion labels a good/better/best iteration step.
type IterationVersion string

// Iteration versions.
const (
	VersionGood   IterationVersion = "good"
	VersionBetter IterationVersion = "better"
	VersionBest   IterationVersion = "best"
)

// TimelineIteration describes one good/better/best step of an outcome
// that spans multiple buckets.
type TimelineIteration struct {
	Section     TimelineSection  `json:"section"`
	Version     IterationVersion `json:"version"`
	Description string           `json:"description"`
}

// OutcomeTimeline is the set of buckets an outcome spans. Sections must be
// non-empty for every persisted outcome.
type OutcomeTimeline struct {
	Sections   []TimelineSection   `json:"sections"`
	Iterations []TimelineIteration `json:"iterations,omitempty"`
}

// HasSection reports whether s is among the outcome's sections.
func (t OutcomeTimeline) HasSection(s TimelineSection) bool {
	for _, sec := range t.Sections {
		if sec == s {
			return true
		}
	}
	return false
}

// Outcome is a top-level "north star" goal spanning one or more buckets.
type Outcome struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Timeline    OutcomeTimeline `json:"timeline"`
	IsExpanded  bool            `json:"isExpanded"`
	Problems    []Problem       `json:"problems"`
}

// Branding holds logo references recorded by upload endpoints. Logo is a
// pointer so a document without one round-trips as null, not "".
type Branding struct {
	Logo         *string  `json:"logo"`
	ProductLogos []string `json:"productLogos"`
}

// Metadata is the document header.
type Metadata struct {
	Title       string   `json:"title"`
	LastUpdated string   `json:"lastUpdated"`
	Version     string   `json:"version"`
	Branding    Branding `json:"branding"`
}

// Roadmap audience versions.
const (
	VersionExternal = "external"
	VersionInternal = "internal"
)

// BucketDescriptor is the seed/config data for one timeline bucket.
type BucketDescriptor struct {
	Label    string   `json:"label"`
	Period   string   `json:"period"`
	Quarters []string `json:"quarters"`
}

// Timeline holds the three fixed bucket descriptors.
type Timeline struct {
	Now   BucketDescriptor `json:"now"`
	Next  BucketDescriptor `json:"next"`
	Later BucketDescriptor `json:"later"`
}

// Label returns the configured display label for a section, falling back
// to the raw section name.
func (t Timeline) Label(s TimelineSection) string {
	switch s {
	case SectionNow:
		return t.Now.Label
	case SectionNext:
		return t.Next.Label
	case SectionLater:
		return t.Later.Label
	}
	return string(s)
}

// Roadmap is the root document, a singleton per data directory.
type Roadmap struct {
	Metadata         Metadata  `json:"metadata"`
	Timeline         Timeline  `json:"timeline"`
	Outcomes         []Outcome `json:"outcomes"`
	OrphanedProblems []Problem `json:"orphanedProblems"`
}

// FindOutcome returns a pointer into the outcomes list, or nil.
func (r *Roadmap) FindOutcome(id string) *Outcome {
	for i := range r.Outcomes {
		if r.Outcomes[i].ID == id {
			return &r.Outcomes[i]
		}
	}
	return nil
}

// Normalize repairs nil slices so that imported documents with missing
// lists cannot crash downstream consumers. Import is otherwise permissive.
func (r *Roadmap) Normalize() {
	if r.Outcomes == nil {
		r.Outcomes = []Outcome{}
	}
	if r.OrphanedProblems == nil {
		r.OrphanedProblems = []Problem{}
	}
	for i := range r.Outcomes {
		if r.Outcomes[i].Problems == nil {
			r.Outcomes[i].Problems = []Problem{}
		}
		if r.Outcomes[i].Timeline.Sections == nil {
			r.Outcomes[i].Timeline.Sections = []TimelineSection{}
		}
	}
}
