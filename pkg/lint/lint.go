// Package lint implements documentation-quality checks for skill libraries.
// Error-severity rules cover the structural contract every skill document
// must satisfy: parseable front matter with a name and description, at
// least one workflow section, at least one example, and unique names per
// category. Warning-severity rules cover authoring consistency such as
// naming conventions, version formats, and section order.
package lint

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/skillet-cli/skillet/pkg/corpus"
	"github.com/skillet-cli/skillet/pkg/logger"
	"github.com/skillet-cli/skillet/pkg/skilldoc"
)

// Severity is the weight of a finding
type Severity string

const (
	// SeverityError marks findings that make a document unusable
	SeverityError Severity = "error"
	// SeverityWarning marks authoring-consistency findings
	SeverityWarning Severity = "warning"
)

// Finding is a single lint result anchored to a document
type Finding struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Path     string   `json:"path"`
	Line     int      `json:"line,omitempty"`
	Message  string   `json:"message"`
}

// Report is the outcome of linting a library
type Report struct {
	Findings []Finding `json:"findings"`
	Checked  int       `json:"checked"`
}

// Errors returns the number of error-severity findings
func (r *Report) Errors() int {
	return r.count(SeverityError)
}

// Warnings returns the number of warning-severity findings
func (r *Report) Warnings() int {
	return r.count(SeverityWarning)
}

// Failed reports whether any error-severity finding was recorded
func (r *Report) Failed() bool {
	return r.Errors() > 0
}

func (r *Report) count(severity Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == severity {
			n++
		}
	}
	return n
}

func (r *Report) sort() {
	sort.SliceStable(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i], r.Findings[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Rule < b.Rule
	})
}

// Rule IDs assigned to parse failures, by failure kind
const (
	ruleParse              = "front-matter/parse"
	ruleMissingName        = "front-matter/name"
	ruleMissingDescription = "front-matter/description"
)

// Linter runs lint rules over documents and libraries
type Linter struct {
	disabled map[string]bool
}

// Option is a function that configures a Linter
type Option func(*Linter) error

// WithDisabledRules disables rules by id. Unknown ids are rejected.
func WithDisabledRules(ids ...string) Option {
	return func(l *Linter) error {
		known := make(map[string]bool)
		for _, id := range RuleIDs() {
			known[id] = true
		}

		var result *multierror.Error
		for _, id := range ids {
			if !known[id] {
				result = multierror.Append(result, errors.Errorf("unknown lint rule %q", id))
				continue
			}
			l.disabled[id] = true
		}
		return result.ErrorOrNil()
	}
}

// New creates a Linter
func New(opts ...Option) (*Linter, error) {
	l := &Linter{disabled: make(map[string]bool)}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// RuleIDs returns every known rule id, sorted
func RuleIDs() []string {
	ids := []string{ruleParse, ruleMissingName, ruleMissingDescription, ruleUniqueName}
	for _, rule := range documentRules {
		ids = append(ids, rule.ID)
	}
	sort.Strings(ids)
	return ids
}

// LintLibrary lints every file of a loaded library, including the ones
// that failed to parse.
func (l *Linter) LintLibrary(ctx context.Context, library *corpus.Library) *Report {
	report := &Report{Checked: len(library.Files)}

	for _, file := range library.Files {
		if file.Err != nil {
			l.add(report, classifyParseFailure(file))
			continue
		}
		for _, finding := range l.lintDocument(file.Doc) {
			finding.Path = file.RelPath
			l.add(report, finding)
		}
	}

	l.checkUniqueNames(report, library)

	report.sort()
	logger.G(ctx).WithFields(logrus.Fields{
		"checked":  report.Checked,
		"errors":   report.Errors(),
		"warnings": report.Warnings(),
	}).Debug("lint run completed")

	return report
}

// LintDocument lints a single parsed document. Corpus-level rules such as
// name uniqueness are not applied.
func (l *Linter) LintDocument(doc *skilldoc.Document) []Finding {
	findings := l.lintDocument(doc)
	for i := range findings {
		findings[i].Path = doc.Path
	}
	return findings
}

func (l *Linter) lintDocument(doc *skilldoc.Document) []Finding {
	var findings []Finding
	for _, rule := range documentRules {
		if l.disabled[rule.ID] {
			continue
		}
		findings = append(findings, rule.Check(doc)...)
	}
	return findings
}

func (l *Linter) add(report *Report, finding Finding) {
	if l.disabled[finding.Rule] {
		return
	}
	report.Findings = append(report.Findings, finding)
}

// classifyParseFailure maps a parse error to the rule that failed
func classifyParseFailure(file corpus.File) Finding {
	finding := Finding{
		Rule:     ruleParse,
		Severity: SeverityError,
		Path:     file.RelPath,
		Message:  file.Err.Error(),
	}

	switch {
	case errors.Is(file.Err, skilldoc.ErrMissingName):
		finding.Rule = ruleMissingName
		finding.Message = "front matter must declare a non-empty name"
	case errors.Is(file.Err, skilldoc.ErrMissingDescription):
		finding.Rule = ruleMissingDescription
		finding.Message = "front matter must declare a non-empty description"
	}

	return finding
}

const ruleUniqueName = "corpus/unique-name"

// checkUniqueNames flags documents in the same category directory that
// declare the same name.
func (l *Linter) checkUniqueNames(report *Report, library *corpus.Library) {
	if l.disabled[ruleUniqueName] {
		return
	}

	seen := make(map[string]string)

	for _, file := range library.Files {
		if file.Doc == nil {
			continue
		}
		category, _ := corpus.Locate(file.RelPath)
		key := category + "\x00" + file.Doc.Manifest.Name

		if first, exists := seen[key]; exists {
			report.Findings = append(report.Findings, Finding{
				Rule:     ruleUniqueName,
				Severity: SeverityError,
				Path:     file.RelPath,
				Message:  fmt.Sprintf("duplicate skill name %q also declared in %s", file.Doc.Manifest.Name, first),
			})
			continue
		}
		seen[key] = file.RelPath
	}
}
