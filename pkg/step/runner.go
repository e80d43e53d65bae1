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

package step

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/forgeadm/forgeadm/pkg/errors"
)

// RunState is the terminal state of a run: done or aborted.
type RunState string

const (
	// StateDone means every step in the sequence applied successfully.
	StateDone RunState = "done"
	// StateAborted means a precondition or step failed; later steps never ran.
	StateAborted RunState = "aborted"
)

// Outcome records one step's result within a run.
type Outcome struct {
	Name       string `json:"name" yaml:"name"`
	Kind       Kind   `json:"kind" yaml:"kind"`
	Status     Status `json:"status" yaml:"status"`
	Detail     string `json:"detail,omitempty" yaml:"detail,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMS int64  `json:"durationMs" yaml:"durationMs"`
}

// Report is the machine-readable result of a provisioning run.
type Report struct {
	RunID     string    `json:"runId" yaml:"runId"`
	Component string    `json:"component" yaml:"component"`
	DryRun    bool      `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`
	Started   time.Time `json:"started" yaml:"started"`
	Finished  time.Time `json:"finished" yaml:"finished"`
	State     RunState  `json:"state" yaml:"state"`
	Steps     []Outcome `json:"steps" yaml:"steps"`
}

// Recorder persists run reports, typically into the journal.
type Recorder interface {
	Record(ctx context.Context, report *Report) error
}

// Runner executes step sequences under strict-abort semantics.
type Runner struct {
	// LockPath is the exclusive lock taken around mutating runs.
	// Empty disables locking (tests).
	LockPath string
	// DryRun lists the sequence without applying anything.
	DryRun bool
	// Recorder, when set, receives the final report of every non-dry run.
	Recorder Recorder

	// euid overrides the effective-uid lookup in tests. Nil means os.Geteuid.
	euid func() int
}

// NewRunner returns a Runner with the given lock path.
func NewRunner(lockPath string, dryRun bool, recorder Recorder) *Runner {
	return &Runner{
		LockPath: lockPath,
		DryRun:   dryRun,
		Recorder: recorder,
	}
}

func (r *Runner) effectiveUID() int {
	if r.euid != nil {
		return r.euid()
	}
	return os.Geteuid()
}

// Run executes the sequence for the named component. The returned report is
// non-nil whenever execution began, including aborted runs. The error carries
// the failing step's cause.
//
// Ordering contract: steps execute in the given order; when step i fails,
// steps i+1..n never execute and no already-applied step is rolled back.
func (r *Runner) Run(ctx context.Context, component string, steps []Step) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Component: component,
		DryRun:    r.DryRun,
		Started:   time.Now().UTC(),
		Steps:     make([]Outcome, 0, len(steps)),
	}

	if r.DryRun {
		for _, s := range steps {
			report.Steps = append(report.Steps, Outcome{
				Name:   s.Name(),
				Kind:   s.Kind(),
				Status: StatusSkipped,
				Detail: "dry run",
			})
		}
		report.State = StateDone
		report.Finished = time.Now().UTC()
		slog.Info("dry run complete", "component", component, "steps", len(steps))
		return report, nil
	}

	// Precondition: root, checked before any mutation.
	if uid := r.effectiveUID(); uid != 0 {
		err := errors.NewWithContext(errors.ErrCodePrecondition,
			"must run as root", map[string]any{"euid": uid})
		report.State = StateAborted
		report.Finished = time.Now().UTC()
		return report, err
	}

	// Precondition: exclusive lock for the whole mutating sequence.
	if r.LockPath != "" {
		lock, err := AcquireLock(r.LockPath)
		if err != nil {
			report.State = StateAborted
			report.Finished = time.Now().UTC()
			return report, err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				slog.Warn("failed to release lock", "error", err)
			}
		}()
	}

	slog.Info("starting run",
		"runId", report.RunID,
		"component", component,
		"steps", len(steps))

	var runErr error
	for i, s := range steps {
		start := time.Now()
		res, err := s.Apply(ctx)
		outcome := Outcome{
			Name:       s.Name(),
			Kind:       s.Kind(),
			Status:     res.Status,
			Detail:     res.Detail,
			DurationMS: time.Since(start).Milliseconds(),
		}
		if err != nil {
			outcome.Error = err.Error()
			report.Steps = append(report.Steps, outcome)
			slog.Error("step failed, aborting remaining steps",
				"runId", report.RunID,
				"component", component,
				"step", s.Name(),
				"position", i+1,
				"of", len(steps),
				"error", err)
			runErr = err
			break
		}
		report.Steps = append(report.Steps, outcome)
		slog.Info("step applied",
			"runId", report.RunID,
			"step", s.Name(),
			"status", res.Status,
			"detail", res.Detail)
	}

	report.Finished = time.Now().UTC()
	if runErr != nil {
		report.State = StateAborted
	} else {
		report.State = StateDone
	}

	if r.Recorder != nil {
		if err := r.Recorder.Record(ctx, report); err != nil {
			// Journal failures must not mask the run result.
			slog.Warn("failed to record run", "runId", report.RunID, "error", err)
		}
	}

	slog.Info("run finished",
		"runId", report.RunID,
		"component", component,
		"state", report.State,
		"steps", len(report.Steps))
	return report, runErr
}
