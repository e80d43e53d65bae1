// Copyright (c) 2025, the forgeadm authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package journal persists provisioning run reports into a local SQLite
// database so operators can audit what forgeadm changed and when. The
// journal is advisory: a journal failure never fails a provisioning run.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/forgeadm/forgeadm/pkg/step"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id       TEXT PRIMARY KEY,
	component TEXT NOT NULL,
	state    TEXT NOT NULL,
	dry_run  INTEGER NOT NULL DEFAULT 0,
	started  TEXT NOT NULL,
	finished TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_steps (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	name        TEXT NOT NULL,
	kind        TEXT NOT NULL,
	status      TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started DESC);
`

// Journal records and queries provisioning runs.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	// The journal is only ever written by one sequential run.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record implements step.Recorder: it stores the report and its step
// outcomes in one transaction.
func (j *Journal) Record(ctx context.Context, report *step.Report) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin journal transaction: %w", err)
	}
	defer tx.Rollback()

	dryRun := 0
	if report.DryRun {
		dryRun = 1
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, component, state, dry_run, started, finished) VALUES (?, ?, ?, ?, ?, ?)`,
		report.RunID, report.Component, string(report.State), dryRun,
		report.Started.Format(time.RFC3339Nano),
		report.Finished.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, s := range report.Steps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_steps (run_id, position, name, kind, status, detail, error, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, i, s.Name, string(s.Kind), string(s.Status),
			s.Detail, s.Error, s.DurationMS,
		); err != nil {
			return fmt.Errorf("failed to insert run step: %w", err)
		}
	}

	return tx.Commit()
}

// RunSummary is one row of run history.
type RunSummary struct {
	RunID     string        `json:"runId" yaml:"runId"`
	Component string        `json:"component" yaml:"component"`
	State     step.RunState `json:"state" yaml:"state"`
	Started   time.Time     `json:"started" yaml:"started"`
	Finished  time.Time     `json:"finished" yaml:"finished"`
	Steps     int           `json:"steps" yaml:"steps"`
}

// Runs returns the most recent runs, newest first, up to limit.
func (j *Journal) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT r.id, r.component, r.state, r.started, r.finished,
		       (SELECT COUNT(*) FROM run_steps s WHERE s.run_id = r.id)
		FROM runs r
		ORDER BY r.started DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			s                 RunSummary
			state             string
			started, finished string
		)
		if err := rows.Scan(&s.RunID, &s.Component, &state, &started, &finished, &s.Steps); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		s.State = step.RunState(state)
		if s.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("failed to parse run start time: %w", err)
		}
		if s.Finished, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("failed to parse run finish time: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Run returns the full report for one recorded run.
func (j *Journal) Run(ctx context.Context, runID string) (*step.Report, error) {
	report := &step.Report{RunID: runID}

	var state, started, finished string
	var dryRun int
	err := j.db.QueryRowContext(ctx,
		`SELECT component, state, dry_run, started, finished FROM runs WHERE id = ?`, runID,
	).Scan(&report.Component, &state, &dryRun, &started, &finished)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %q not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	report.State = step.RunState(state)
	report.DryRun = dryRun != 0
	if report.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("failed to parse run start time: %w", err)
	}
	if report.Finished, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return nil, fmt.Errorf("failed to parse run finish time: %w", err)
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT name, kind, status, detail, error, duration_ms
		 FROM run_steps WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			o            step.Outcome
			kind, status string
		)
		if err := rows.Scan(&o.Name, &kind, &status, &o.Detail, &o.Error, &o.DurationMS); err != nil {
			return nil, fmt.Errorf("failed to scan run step: %w", err)
		}
		o.Kind = step.Kind(kind)
		o.Status = step.Status(status)
		report.Steps = append(report.Steps, o)
	}
	return report, rows.Err()
}
