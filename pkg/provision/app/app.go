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

// Package app deploys the sample Express application under PM2. The runtime
// (node, npm, pm2) must already be installed; missing dependencies abort the
// run before any file is written.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forgeadm/forgeadm/pkg/config"
	"github.com/forgeadm/forgeadm/pkg/defaults"
	"github.com/forgeadm/forgeadm/pkg/errors"
	"github.com/forgeadm/forgeadm/pkg/execx"
	"github.com/forgeadm/forgeadm/pkg/provision"
	"github.com/forgeadm/forgeadm/pkg/status"
	"github.com/forgeadm/forgeadm/pkg/step"
)

// DeploySteps returns the application deployment sequence.
func DeploySteps(cfg config.App, d provision.Deps) []step.Step {
	steps := []step.Step{
		dependencyCheck("node", d.Runner),
		dependencyCheck("npm", d.Runner),
		dependencyCheck("pm2", d.Runner),
		dirStep(cfg),
	}

	for _, f := range artifacts(cfg) {
		steps = append(steps, step.File{
			Path:    filepath.Join(cfg.Dir, f.name),
			Content: f.content,
			Mode:    f.mode,
			Owner:   cfg.User,
		})
	}

	steps = append(steps,
		step.Command{
			Runner: d.Runner,
			Command: execx.Command{
				Name:    "runuser",
				Args:    []string{"-u", cfg.User, "--", "npm", "install", "--omit=dev"},
				Dir:     cfg.Dir,
				Timeout: defaults.NpmInstallTimeout,
			},
			Label: "npm install",
		},
		step.Command{
			Runner: d.Runner,
			Command: execx.Command{
				Name: "runuser",
				Args: []string{"-u", cfg.User, "--", "pm2", "start", "ecosystem.config.js"},
				Dir:  cfg.Dir,
			},
			Label: "pm2 start",
		},
		step.Command{
			Runner: d.Runner,
			Command: execx.Command{
				Name: "runuser",
				Args: []string{"-u", cfg.User, "--", "pm2", "save"},
			},
			Label: "pm2 save",
		},
	)
	return steps
}

// ManagedFiles lists the artifacts the status drift check compares.
func ManagedFiles(cfg config.App) []status.ManagedFile {
	files := make([]status.ManagedFile, 0, 6)
	for _, f := range artifacts(cfg) {
		files = append(files, status.ManagedFile{
			Path:    filepath.Join(cfg.Dir, f.name),
			Desired: f.content,
		})
	}
	return files
}

// dependencyCheck verifies a runtime binary answers --version. A missing
// dependency is fatal; the deployment never proceeds partially.
func dependencyCheck(binary string, runner execx.Runner) step.Step {
	return step.Check{
		Label: binary + " available",
		Fn: func(ctx context.Context) error {
			if _, err := runner.Run(ctx, execx.Line(binary, "--version")); err != nil {
				return errors.WrapWithContext(errors.ErrCodeDependencyMissing,
					binary+" is not installed", err, map[string]any{"binary": binary})
			}
			return nil
		},
	}
}

func dirStep(cfg config.App) step.Step {
	return step.Func{
		StepName: "directory " + cfg.Dir,
		StepKind: step.KindFile,
		Fn: func(_ context.Context) (step.Result, error) {
			if _, err := os.Stat(cfg.Dir); err == nil {
				return step.Unchanged("directory already exists")
			}
			if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
				return step.Result{}, errors.Wrap(errors.ErrCodeInternal,
					"failed to create app directory", err)
			}
			return step.Changed("created " + cfg.Dir)
		},
	}
}

type artifact struct {
	name    string
	content []byte
	mode    os.FileMode
}

func artifacts(cfg config.App) []artifact {
	return []artifact{
		{name: "server.js", content: []byte(serverJS), mode: 0o644},
		{name: "package.json", content: []byte(packageJSON), mode: 0o644},
		{name: "ecosystem.config.js", content: renderEcosystem(cfg), mode: 0o644},
		{name: ".eslintrc.json", content: []byte(eslintrc), mode: 0o644},
		{name: ".prettierrc", content: []byte(prettierrc), mode: 0o644},
		{name: ".env", content: renderEnv(cfg), mode: 0o640},
	}
}

func renderEcosystem(cfg config.App) []byte {
	return []byte(fmt.Sprintf(`module.exports = {
  apps: [
    {
      name: 'webapp',
      script: 'server.js',
      cwd: '%s',
      instances: 'max',
      exec_mode: 'cluster',
      max_memory_restart: '300M',
      env: {
        NODE_ENV: 'production',
        PORT: %d,
      },
      error_file: '/var/log/pm2/webapp-error.log',
      out_file: '/var/log/pm2/webapp-out.log',
      merge_logs: true,
      time: true,
    },
  ],
};
`, cfg.Dir, cfg.Port))
}

func renderEnv(cfg config.App) []byte {
	return []byte(fmt.Sprintf(`NODE_ENV=production
PORT=%d
DB_HOST=127.0.0.1
DB_PORT=3306
DB_NAME=%s
DB_USER=%s
`, cfg.Port, cfg.DBName, cfg.DBUser))
}
