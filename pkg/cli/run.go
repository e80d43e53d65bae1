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

package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/forgeadm/forgeadm/pkg/config"
	"github.com/forgeadm/forgeadm/pkg/defaults"
	"github.com/forgeadm/forgeadm/pkg/execx"
	"github.com/forgeadm/forgeadm/pkg/journal"
	"github.com/forgeadm/forgeadm/pkg/provision"
	"github.com/forgeadm/forgeadm/pkg/serializer"
	"github.com/forgeadm/forgeadm/pkg/step"
	"github.com/forgeadm/forgeadm/pkg/systemd"
)

// stepsBuilder assembles a component's step sequence from resolved config
// and production dependencies.
type stepsBuilder func(cfg config.Config, d provision.Deps) []step.Step

// runComponent is the shared provisioning path: resolve config, build the
// sequence, run it under lock with strict abort, journal the outcome, and
// optionally print the report.
func runComponent(ctx context.Context, cmd *cli.Command, component string, build stepsBuilder) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	deps := provision.NewDeps(execx.NewSystemRunner(), &systemd.DBusManager{})
	steps := build(cfg, deps)

	dryRun := cmd.Bool("dry-run")
	runner := step.NewRunner(defaults.LockPath, dryRun, openRecorder(dryRun))

	report, runErr := runner.Run(ctx, component, steps)

	if report != nil && (dryRun || cmd.Bool("report")) {
		outFormat := serializer.Format(cmd.String("format"))
		if outFormat.IsUnknown() {
			return fmt.Errorf("unknown output format: %q", outFormat)
		}
		w := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
		defer w.Close()
		if err := w.Serialize(ctx, report); err != nil {
			return err
		}
	}
	return runErr
}

// openRecorder opens the run journal, degrading to no journaling when the
// database is unavailable. Dry runs are never journaled.
func openRecorder(dryRun bool) step.Recorder {
	if dryRun {
		return nil
	}
	j, err := journal.Open(defaults.JournalPath)
	if err != nil {
		slog.Warn("run journal unavailable", "path", defaults.JournalPath, "error", err)
		return nil
	}
	return j
}
