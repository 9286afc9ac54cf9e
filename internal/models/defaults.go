package models

import "time"

// DefaultRoadmap returns the zero-state document: empty outcomes and
// orphans, today's date, and the three fixed bucket descriptors.
func DefaultRoadmap(now time.Time) *Roadmap {
	return &Roadmap{
		Metadata: Metadata{
			Title:       "Roadmap",
			LastUpdated: now.Format(DateFormat),
			Version:     VersionExternal,
			Branding: Branding{
				ProductLogos: []string{},
			},
		},
		Timeline: Timeline{
			Now: BucketDescriptor{
				Label:    "NOW | Q3",
				Period:   "January - March 2026",
				Quarters: []string{"Q3"},
			},
			Next: BucketDescriptor{
				Label:    "NEXT | Q4",
				Period:   "April - June 2026",
				Quarters: []string{"Q4"},
			},
			Later: BucketDescriptor{
				Label:    "LATER | Q1",
				Period:   "July - September 2026",
				Quarters: []string{"Q1"},
			},
		},
		Outcomes:         []Outcome{},
		OrphanedProblems: []Problem{},
	}
}

// fallbackIcon is used for unrecognized problem types.
const fallbackIcon = "📋"

var typeIcons = map[ProblemType]string{
	TypeTooling:        "🔧",
	TypeUserFacing:     "👥",
	TypeInfrastructure: "⚙️",
}

// IconForType maps a problem type to its display icon. This mapping is the
// single source of truth for icon assignment; icons are never user-edited.
func IconForType(t ProblemType) string {
	if icon, ok := typeIcons[t]; ok {
		return icon
	}
	return fallbackIcon
}

// TypePriority returns the fixed sort rank for a problem type:
// user-facing < tooling < infrastructure < unknown.
func TypePriority(t ProblemType) int {
	switch t {
	case TypeUserFacing:
		return 1
	case TypeTooling:
		return 2
	case TypeInfrastructure:
		return 3
	}
	return 4
}
