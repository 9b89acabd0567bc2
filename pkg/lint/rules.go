package lint

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/skillet-cli/skillet/pkg/skilldoc"
)

// Rule is a document-level lint rule
type Rule struct {
	ID          string
	Severity    Severity
	Description string
	Check       func(doc *skilldoc.Document) []Finding
}

// workflowAliases are the H2 titles accepted as a workflow section.
// Libraries vary between Workflow, Process, Steps, Approach and similar.
var workflowAliases = []string{"workflow", "process", "steps", "approach", "methodology"}

// versionPattern accepts MAJOR.MINOR and MAJOR.MINOR.PATCH
var versionPattern = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)

// sectionRank maps recognized H2 titles to their conventional position:
// workflow, technologies, usage, examples, best practices, edge cases.
func sectionRank(title string) (int, bool) {
	lower := strings.ToLower(title)
	switch {
	case isWorkflowTitle(lower):
		return 0, true
	case strings.Contains(lower, "technolog") || strings.Contains(lower, "language"):
		return 1, true
	case strings.Contains(lower, "usage"):
		return 2, true
	case strings.Contains(lower, "example"):
		return 3, true
	case strings.Contains(lower, "best practice"):
		return 4, true
	case strings.Contains(lower, "edge case"):
		return 5, true
	}
	return 0, false
}

func isWorkflowTitle(lower string) bool {
	for _, alias := range workflowAliases {
		if lower == alias {
			return true
		}
	}
	return strings.Contains(lower, "workflow")
}

var documentRules = []Rule{
	{
		ID:          "body/workflow-section",
		Severity:    SeverityError,
		Description: "document has at least one workflow section",
		Check: func(doc *skilldoc.Document) []Finding {
			for _, section := range doc.SectionsAtLevel(2) {
				if isWorkflowTitle(strings.ToLower(section.Title)) {
					return nil
				}
			}
			return []Finding{{
				Rule:     "body/workflow-section",
				Severity: SeverityError,
				Message:  "document has no workflow section (expected an H2 such as Workflow, Process, or Steps)",
			}}
		},
	},
	{
		ID:          "body/example",
		Severity:    SeverityError,
		Description: "document has at least one example",
		Check: func(doc *skilldoc.Document) []Finding {
			if doc.HasFencedCode {
				return nil
			}
			for _, section := range doc.Sections {
				if section.Level <= 3 && strings.Contains(strings.ToLower(section.Title), "example") {
					return nil
				}
			}
			return []Finding{{
				Rule:     "body/example",
				Severity: SeverityError,
				Message:  "document has no example (expected an Examples heading or a fenced code block)",
			}}
		},
	},
	{
		ID:          "front-matter/name-format",
		Severity:    SeverityWarning,
		Description: "name is lowercase kebab-case and at most 64 characters",
		Check: func(doc *skilldoc.Document) []Finding {
			if skilldoc.ValidName(doc.Manifest.Name) {
				return nil
			}
			return []Finding{{
				Rule:     "front-matter/name-format",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("name %q is not lowercase kebab-case of at most %d characters", doc.Manifest.Name, skilldoc.MaxNameLength),
			}}
		},
	},
	{
		ID:          "front-matter/name-mismatch",
		Severity:    SeverityWarning,
		Description: "name matches the file or directory slug",
		Check: func(doc *skilldoc.Document) []Finding {
			if doc.Slug == "" || doc.Manifest.Name == doc.Slug {
				return nil
			}
			return []Finding{{
				Rule:     "front-matter/name-mismatch",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("name %q does not match slug %q", doc.Manifest.Name, doc.Slug),
			}}
		},
	},
	{
		ID:          "front-matter/description-length",
		Severity:    SeverityWarning,
		Description: "description fits within the length limit",
		Check: func(doc *skilldoc.Document) []Finding {
			if len(doc.Manifest.Description) <= skilldoc.MaxDescriptionLength {
				return nil
			}
			return []Finding{{
				Rule:     "front-matter/description-length",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("description is %d characters, limit is %d", len(doc.Manifest.Description), skilldoc.MaxDescriptionLength),
			}}
		},
	},
	{
		ID:          "front-matter/license",
		Severity:    SeverityWarning,
		Description: "license is declared",
		Check: func(doc *skilldoc.Document) []Finding {
			if strings.TrimSpace(doc.Manifest.License) != "" {
				return nil
			}
			return []Finding{{
				Rule:     "front-matter/license",
				Severity: SeverityWarning,
				Message:  "front matter declares no license",
			}}
		},
	},
	{
		ID:          "front-matter/author",
		Severity:    SeverityWarning,
		Description: "metadata declares an author",
		Check: func(doc *skilldoc.Document) []Finding {
			if strings.TrimSpace(doc.Manifest.Author()) != "" {
				return nil
			}
			return []Finding{{
				Rule:     "front-matter/author",
				Severity: SeverityWarning,
				Message:  "front matter metadata declares no author",
			}}
		},
	},
	{
		ID:          "front-matter/version",
		Severity:    SeverityWarning,
		Description: "metadata declares a MAJOR.MINOR or MAJOR.MINOR.PATCH version",
		Check: func(doc *skilldoc.Document) []Finding {
			version := strings.TrimSpace(doc.Manifest.Version())
			if version == "" {
				return []Finding{{
					Rule:     "front-matter/version",
					Severity: SeverityWarning,
					Message:  "front matter metadata declares no version",
				}}
			}
			if versionPattern.MatchString(version) {
				return nil
			}
			return []Finding{{
				Rule:     "front-matter/version",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("version %q is not MAJOR.MINOR or MAJOR.MINOR.PATCH", version),
			}}
		},
	},
	{
		ID:          "body/section-order",
		Severity:    SeverityWarning,
		Description: "recognized sections appear in the conventional order",
		Check: func(doc *skilldoc.Document) []Finding {
			var findings []Finding
			lastRank := -1
			lastTitle := ""
			for _, section := range doc.SectionsAtLevel(2) {
				rank, recognized := sectionRank(section.Title)
				if !recognized {
					continue
				}
				if rank < lastRank {
					findings = append(findings, Finding{
						Rule:     "body/section-order",
						Severity: SeverityWarning,
						Line:     section.Line,
						Message:  fmt.Sprintf("section %q appears after %q, out of the conventional order", section.Title, lastTitle),
					})
					continue
				}
				lastRank = rank
				lastTitle = section.Title
			}
			return findings
		},
	},
	{
		ID:          "body/empty-section",
		Severity:    SeverityWarning,
		Description: "sections have content below their headings",
		Check: func(doc *skilldoc.Document) []Finding {
			var findings []Finding
			for _, section := range doc.SectionsAtLevel(2) {
				if !section.IsEmpty() {
					continue
				}
				findings = append(findings, Finding{
					Rule:     "body/empty-section",
					Severity: SeverityWarning,
					Line:     section.Line,
					Message:  fmt.Sprintf("section %q has no content", section.Title),
				})
			}
			return findings
		},
	},
	{
		ID:          "corpus/uncategorized",
		Severity:    SeverityWarning,
		Description: "document lives under a category directory",
		Check: func(doc *skilldoc.Document) []Finding {
			if doc.Category != "" {
				return nil
			}
			return []Finding{{
				Rule:     "corpus/uncategorized",
				Severity: SeverityWarning,
				Message:  "document is not under a category directory",
			}}
		},
	},
}
