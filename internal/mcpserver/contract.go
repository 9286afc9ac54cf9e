package mcpserver

// DocumentContract describes the canonical roadmap document layout that
// LLM consumers should follow when producing import payloads.
const DocumentContract = `# Raido Roadmap Document Contract

The whole roadmap is one JSON document with this shape:

` + "```" + `json
{
  "metadata": {
    "title": "Roadmap",
    "lastUpdated": "2026-01-15",
    "version": "external",
    "branding": { "logo": "", "productLogos": [] }
  },
  "timeline": {
    "now":   { "label": "NOW | Q3",   "period": "January - March 2026",  "quarters": ["Q3"] },
    "next":  { "label": "NEXT | Q4",  "period": "April - June 2026",     "quarters": ["Q4"] },
    "later": { "label": "LATER | Q1", "period": "July - September 2026", "quarters": ["Q1"] }
  },
  "outcomes": [],
  "orphanedProblems": []
}
` + "```" + `

## Rules

1. **Outcomes** carry "id", "title", "description", "timeline.sections"
   (non-empty subset of "now"/"next"/"later"), "isExpanded", and an owned
   "problems" list.
2. **Problems** carry "id", "title", "description", "successCriteria",
   "type" ("tooling" | "user-facing" | "infrastructure"), "icon" (derived
   from type, never hand-edited), "timeline" (exactly one bucket),
   "priority" ("must-have" | "nice-to-have"), "validation", and
   "displayOrder".
3. **Validation** blocks are optional. "preBuild.methods" is a non-empty
   subset of "user-testing"/"internal-experimentation"; "postBuild.methods"
   of "user-validation"/"sme-evaluation". Free-text notes accompany each
   method.
4. **Ownership** is exclusive: a problem lives in exactly one outcome's
   "problems" list or in the root "orphanedProblems" list, never both.
5. **Dates** use ISO YYYY-MM-DD.
6. Unknown problem types render with a fallback icon; prefer the three
   canonical types.
`
