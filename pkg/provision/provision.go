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

// Package provision holds the shared dependencies and helper steps used by
// the per-component provisioners under pkg/provision/.
package provision

import (
	"context"
	"net/http"

	"github.com/forgeadm/forgeadm/pkg/defaults"
	"github.com/forgeadm/forgeadm/pkg/execx"
	"github.com/forgeadm/forgeadm/pkg/pkgmgr"
	"github.com/forgeadm/forgeadm/pkg/step"
	"github.com/forgeadm/forgeadm/pkg/systemd"
)

// Deps bundles the host interfaces every provisioner needs.
type Deps struct {
	Runner  execx.Runner
	Apt     *pkgmgr.Apt
	Systemd systemd.Manager
	HTTP    *http.Client
}

// NewDeps returns production dependencies built on the given runner.
func NewDeps(runner execx.Runner, mgr systemd.Manager) Deps {
	return Deps{
		Runner:  runner,
		Apt:     pkgmgr.NewApt(runner),
		Systemd: mgr,
		HTTP:    &http.Client{Timeout: defaults.DownloadTimeout},
	}
}

// EnsureSystemUser returns a step that creates a locked system account with
// the given home and shell when it does not already exist.
func EnsureSystemUser(runner execx.Runner, name, home, shell string) step.Step {
	return step.Func{
		StepName: "user " + name,
		Fn: func(ctx context.Context) (step.Result, error) {
			if _, err := runner.Run(ctx, execx.Line("id", "-u", name)); err == nil {
				return step.Unchanged("account already exists")
			}
			_, err := runner.Run(ctx, execx.Line("useradd",
				"--system", "--no-create-home",
				"--home-dir", home, "--shell", shell, name))
			if err != nil {
				return step.Result{}, err
			}
			return step.Changed("created system account")
		},
	}
}

// RefreshIndex returns a step that refreshes the apt package index.
func RefreshIndex(apt *pkgmgr.Apt) step.Step {
	return step.Func{
		StepName: "apt-get update",
		StepKind: step.KindPackage,
		Fn: func(ctx context.Context) (step.Result, error) {
			if err := apt.Update(ctx); err != nil {
				return step.Result{}, err
			}
			return step.Changed("package index refreshed")
		},
	}
}
