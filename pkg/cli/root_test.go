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
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/forgeadm/forgeadm/pkg/config"
	"github.com/forgeadm/forgeadm/pkg/execx"
	"github.com/forgeadm/forgeadm/pkg/status"
	"github.com/forgeadm/forgeadm/pkg/step"
)

func TestRootCommandTree(t *testing.T) {
	root := Root()

	if root.Name != "forgeadm" {
		t.Errorf("Name = %q, want forgeadm", root.Name)
	}
	if !root.EnableShellCompletion {
		t.Error("shell completion should be enabled")
	}

	want := []string{"tomcat", "node", "nginx", "mysql", "harden", "app", "status", "history"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands {
			if cmd.Name == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing command %q", name)
		}
	}
}

func TestTomcatSubcommands(t *testing.T) {
	root := Root()

	var tc *cli.Command
	for _, cmd := range root.Commands {
		if cmd.Name == "tomcat" {
			tc = cmd
			break
		}
	}
	if tc == nil {
		t.Fatal("tomcat command not found")
	}

	subs := make([]string, 0, len(tc.Commands))
	for _, sub := range tc.Commands {
		subs = append(subs, sub.Name)
	}
	for _, name := range []string{"install", "harden"} {
		found := false
		for _, s := range subs {
			if s == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("tomcat missing subcommand %q, have %v", name, subs)
		}
	}
}

func TestGlobalFlags(t *testing.T) {
	root := Root()

	for _, name := range []string{"log-level", "config", "dry-run"} {
		found := false
		for _, f := range root.Flags {
			for _, n := range f.Names() {
				if n == name {
					found = true
				}
			}
		}
		if !found {
			t.Errorf("missing global flag %q", name)
		}
	}
}

// desiredFiles must cover exactly the collectors the factory builds, or
// drift reporting silently skips a component.
func TestDesiredFilesCoversCollectors(t *testing.T) {
	cfg := config.Default()
	files := desiredFiles(cfg)

	factory := status.NewFactory(&execx.Fake{})
	collectors := factory.All(cfg, files)

	if len(files) != len(collectors) {
		t.Errorf("desiredFiles has %d entries, factory builds %d collectors",
			len(files), len(collectors))
	}
	for _, c := range collectors {
		if _, ok := files[c.Name()]; !ok {
			t.Errorf("no desired files entry for collector %q", c.Name())
		}
	}
}

func TestDryRunReportsSkippedSteps(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")

	root := Root()
	args := []string{"forgeadm", "--dry-run", "tomcat", "install", "--output", out}
	if err := root.Run(context.Background(), args); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}

	var report step.Report
	if err := json.Unmarshal(b, &report); err != nil {
		t.Fatalf("failed to parse report: %v", err)
	}
	if !report.DryRun {
		t.Error("report.DryRun = false, want true")
	}
	if report.Component != "tomcat" {
		t.Errorf("report.Component = %q, want tomcat", report.Component)
	}
	if report.State != step.StateDone {
		t.Errorf("report.State = %q, want %q", report.State, step.StateDone)
	}
	if len(report.Steps) == 0 {
		t.Fatal("report has no steps")
	}
	for _, s := range report.Steps {
		if s.Status != step.StatusSkipped {
			t.Errorf("step %q status = %q, want %q", s.Name, s.Status, step.StatusSkipped)
		}
	}
}

func TestUnknownFormatRejected(t *testing.T) {
	root := Root()
	args := []string{"forgeadm", "--dry-run", "nginx", "install", "--format", "bogus"}
	err := root.Run(context.Background(), args)
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("error = %v, want unknown output format", err)
	}
}
