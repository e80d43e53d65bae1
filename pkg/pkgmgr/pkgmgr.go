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

// Package pkgmgr ensures Debian packages are present via apt-get and
// dpkg-query. Error semantics are deferred to the package manager: any
// nonzero apt-get exit aborts the run.
package pkgmgr

import (
	"context"
	"log/slog"
	"strings"

	"github.com/forgeadm/forgeadm/pkg/defaults"
	"github.com/forgeadm/forgeadm/pkg/errors"
	"github.com/forgeadm/forgeadm/pkg/execx"
)

// Apt manages Debian packages on the host.
type Apt struct {
	runner execx.Runner
}

// NewApt returns an Apt using the given command runner.
func NewApt(runner execx.Runner) *Apt {
	return &Apt{runner: runner}
}

// Update refreshes the package index.
func (a *Apt) Update(ctx context.Context) error {
	_, err := a.runner.Run(ctx, execx.Command{
		Name:    "apt-get",
		Args:    []string{"update", "-q"},
		Timeout: defaults.PackageManagerTimeout,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeCommandFailed, "apt-get update failed", err)
	}
	return nil
}

// IsInstalled reports whether the named package is installed. dpkg-query
// exits nonzero for unknown packages; that is "not installed", not an error.
func (a *Apt) IsInstalled(ctx context.Context, pkg string) (bool, error) {
	res, err := a.runner.Run(ctx, execx.Command{
		Name: "dpkg-query",
		Args: []string{"-W", "-f", "${Status}", pkg},
	})
	if err != nil {
		if res.ExitCode > 0 {
			return false, nil
		}
		return false, err
	}
	return strings.Contains(res.Output, "install ok installed"), nil
}

// Install ensures the named packages are present, installing only the ones
// that are missing. It returns true when at least one package was installed.
func (a *Apt) Install(ctx context.Context, pkgs ...string) (bool, error) {
	missing := make([]string, 0, len(pkgs))
	for _, pkg := range pkgs {
		installed, err := a.IsInstalled(ctx, pkg)
		if err != nil {
			return false, err
		}
		if !installed {
			missing = append(missing, pkg)
		}
	}

	if len(missing) == 0 {
		slog.Debug("packages already installed", "packages", pkgs)
		return false, nil
	}

	slog.Info("installing packages", "packages", missing)
	args := append([]string{"install", "-y", "-q"}, missing...)
	if _, err := a.runner.Run(ctx, execx.Command{
		Name:    "apt-get",
		Args:    args,
		Timeout: defaults.PackageManagerTimeout,
	}); err != nil {
		return false, errors.WrapWithContext(errors.ErrCodeCommandFailed,
			"package installation failed", err, map[string]any{"packages": missing})
	}
	return true, nil
}
