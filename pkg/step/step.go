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
)

// Kind classifies a provisioning step.
type Kind string

const (
	// KindPackage ensures system packages are present.
	KindPackage Kind = "package"
	// KindFile converges a file to desired-state content.
	KindFile Kind = "file"
	// KindService controls a systemd unit.
	KindService Kind = "service"
	// KindCommand runs an external command.
	KindCommand Kind = "command"
	// KindCheck verifies a precondition without mutating anything.
	KindCheck Kind = "check"
)

// Status describes the outcome of a successfully applied step.
type Status string

const (
	// StatusChanged means the step mutated system state.
	StatusChanged Status = "changed"
	// StatusUnchanged means the desired state was already in place.
	StatusUnchanged Status = "unchanged"
	// StatusSkipped means the step did not run (dry run or guarded out).
	StatusSkipped Status = "skipped"
)

// Result is the outcome of a successful Apply.
type Result struct {
	Status Status `json:"status" yaml:"status"`
	// Detail is a short human-readable note, e.g. "wrote 1423 bytes" or
	// "valve not present, already hardened".
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Changed is shorthand for a changed Result.
func Changed(detail string) (Result, error) {
	return Result{Status: StatusChanged, Detail: detail}, nil
}

// Unchanged is shorthand for an unchanged Result.
func Unchanged(detail string) (Result, error) {
	return Result{Status: StatusUnchanged, Detail: detail}, nil
}

// Step is one unit of provisioning work.
type Step interface {
	// Name identifies the step in logs and reports.
	Name() string
	// Kind classifies the step.
	Kind() Kind
	// Apply performs the step. A returned error aborts the remaining
	// sequence.
	Apply(ctx context.Context) (Result, error)
}

// Func adapts a function into a Step.
type Func struct {
	StepName string
	StepKind Kind
	Fn       func(ctx context.Context) (Result, error)
}

// Name implements Step.
func (f Func) Name() string { return f.StepName }

// Kind implements Step.
func (f Func) Kind() Kind {
	if f.StepKind == "" {
		return KindCommand
	}
	return f.StepKind
}

// Apply implements Step.
func (f Func) Apply(ctx context.Context) (Result, error) { return f.Fn(ctx) }
