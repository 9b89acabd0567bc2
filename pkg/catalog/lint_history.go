package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/skillet-cli/skillet/pkg/lint"
)

// RecordLintRun persists a lint report with its findings and returns the
// stored run. The run id is a generated UUID.
func (s *Store) RecordLintRun(ctx context.Context, report *lint.Report, startedAt time.Time) (LintRun, error) {
	run := LintRun{
		ID:          uuid.NewString(),
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
		Checked:     report.Checked,
		Errors:      report.Errors(),
		Warnings:    report.Warnings(),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return LintRun{}, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO lint_runs (id, started_at, completed_at, checked, errors, warnings)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.CompletedAt, run.Checked, run.Errors, run.Warnings)
	if err != nil {
		return LintRun{}, errors.Wrap(err, "failed to record lint run")
	}

	for _, finding := range report.Findings {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO lint_findings (run_id, rule, severity, path, line, message)
			VALUES (?, ?, ?, ?, ?, ?)
		`, run.ID, finding.Rule, string(finding.Severity), finding.Path, finding.Line, finding.Message)
		if err != nil {
			return LintRun{}, errors.Wrapf(err, "failed to record finding for %s", finding.Path)
		}
	}

	if err := tx.Commit(); err != nil {
		return LintRun{}, errors.Wrap(err, "failed to commit lint run")
	}

	return run, nil
}

// LintRuns returns recent lint runs, newest first. A limit of zero returns
// all runs.
func (s *Store) LintRuns(ctx context.Context, limit int) ([]LintRun, error) {
	query := "SELECT id, started_at, completed_at, checked, errors, warnings FROM lint_runs ORDER BY started_at DESC"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []dbLintRun
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list lint runs")
	}

	runs := make([]LintRun, len(rows))
	for i := range rows {
		runs[i] = rows[i].toLintRun()
	}
	return runs, nil
}

// LatestLintRun returns the most recent lint run, or nil when no run has
// been recorded yet.
func (s *Store) LatestLintRun(ctx context.Context) (*LintRun, error) {
	runs, err := s.LintRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// RunFindings returns the findings recorded for a lint run, in insertion
// order.
func (s *Store) RunFindings(ctx context.Context, runID string) ([]lint.Finding, error) {
	var rows []dbLintFinding
	query := "SELECT id, run_id, rule, severity, path, line, message FROM lint_findings WHERE run_id = ? ORDER BY id"
	if err := s.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, errors.Wrap(err, "failed to load lint findings")
	}

	findings := make([]lint.Finding, len(rows))
	for i := range rows {
		findings[i] = rows[i].toFinding()
	}
	return findings, nil
}
