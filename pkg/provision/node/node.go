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

// Package node installs the Node.js runtime from the NodeSource apt
// repository plus the global npm tooling (pm2, yarn, nodemon). The repository
// is configured through explicit keyring and source-list files; nothing is
// piped from the network into a shell.
package node

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/forgeadm/forgeadm/pkg/config"
	"github.com/forgeadm/forgeadm/pkg/defaults"
	"github.com/forgeadm/forgeadm/pkg/errors"
	"github.com/forgeadm/forgeadm/pkg/execx"
	"github.com/forgeadm/forgeadm/pkg/fsutil"
	"github.com/forgeadm/forgeadm/pkg/provision"
	"github.com/forgeadm/forgeadm/pkg/status"
	"github.com/forgeadm/forgeadm/pkg/step"
)

const keyURL = "https://deb.nodesource.com/gpgkey/nodesource-repo.gpg.key"

// RepoLine renders the apt source entry for the configured major version.
func RepoLine(cfg config.Node) string {
	return fmt.Sprintf("deb [signed-by=%s] https://deb.nodesource.com/node_%d.x nodistro main\n",
		defaults.NodesourceKeyring, cfg.MajorVersion)
}

// InstallSteps returns the Node.js installation sequence.
func InstallSteps(cfg config.Node, appUser string, d provision.Deps) []step.Step {
	return []step.Step{
		step.Package{Apt: d.Apt, Packages: []string{"ca-certificates", "curl", "gnupg"}},
		keyringStep(d.Runner, d.HTTP),
		step.File{Path: defaults.NodesourceRepoList, Content: []byte(RepoLine(cfg)), Mode: 0o644},
		provision.RefreshIndex(d.Apt),
		step.Package{Apt: d.Apt, Packages: []string{"nodejs"}},
		globalPackagesStep(cfg.GlobalPackages, d.Runner),
		step.Command{
			Runner: d.Runner,
			Command: execx.Line("pm2", "startup", "systemd",
				"-u", appUser, "--hp", "/home/"+appUser),
			Label: "pm2 startup hook",
		},
	}
}

// ManagedFiles lists the artifacts the status drift check compares.
func ManagedFiles(cfg config.Node) []status.ManagedFile {
	return []status.ManagedFile{
		{Path: defaults.NodesourceRepoList, Desired: []byte(RepoLine(cfg))},
		{Path: defaults.NodesourceKeyring},
	}
}

// keyringStep downloads the NodeSource signing key and dearmors it into the
// apt keyring directory. An existing keyring is left alone.
func keyringStep(runner execx.Runner, client *http.Client) step.Step {
	return step.Func{
		StepName: "nodesource keyring",
		StepKind: step.KindFile,
		Fn: func(ctx context.Context) (step.Result, error) {
			if _, err := os.Stat(defaults.NodesourceKeyring); err == nil {
				return step.Unchanged("keyring already present")
			}
			if _, err := fsutil.EnsureDir("/etc/apt/keyrings", 0o755); err != nil {
				return step.Result{}, errors.Wrap(errors.ErrCodeInternal,
					"failed to create keyring directory", err)
			}

			key, err := fetchKey(ctx, client)
			if err != nil {
				return step.Result{}, err
			}
			if _, err := runner.Run(ctx, execx.Command{
				Name:  "gpg",
				Args:  []string{"--dearmor", "--yes", "-o", defaults.NodesourceKeyring},
				Stdin: key,
			}); err != nil {
				return step.Result{}, err
			}
			return step.Changed("installed signing key")
		},
	}
}

func fetchKey(ctx context.Context, client *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, keyURL, nil)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to build key request", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", errors.WrapWithContext(errors.ErrCodeCommandFailed,
			"signing key download failed", err, map[string]any{"url": keyURL})
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errors.NewWithContext(errors.ErrCodeCommandFailed,
			"unexpected signing key status", map[string]any{"status": resp.Status})
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to read signing key", err)
	}
	return string(b), nil
}

// globalPackagesStep installs the missing global npm packages in one
// invocation. Presence is checked with npm list so reruns stay quiet.
func globalPackagesStep(pkgs []string, runner execx.Runner) step.Step {
	return step.Func{
		StepName: "npm globals " + strings.Join(pkgs, " "),
		StepKind: step.KindPackage,
		Fn: func(ctx context.Context) (step.Result, error) {
			var missing []string
			for _, pkg := range pkgs {
				_, err := runner.Run(ctx, execx.Line("npm", "list", "-g", "--depth", "0", pkg))
				if err != nil {
					missing = append(missing, pkg)
				}
			}
			if len(missing) == 0 {
				return step.Unchanged("all global packages already installed")
			}

			args := append([]string{"install", "-g"}, missing...)
			if _, err := runner.Run(ctx, execx.Command{
				Name:    "npm",
				Args:    args,
				Timeout: defaults.NpmInstallTimeout,
			}); err != nil {
				return step.Result{}, err
			}
			return step.Changed("installed " + strings.Join(missing, " "))
		},
	}
}
