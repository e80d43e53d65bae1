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

package execx

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/forgeadm/forgeadm/pkg/defaults"
	"github.com/forgeadm/forgeadm/pkg/errors"
)

// Command describes a single external command invocation.
type Command struct {
	// Name is the executable to run, resolved via PATH.
	Name string
	// Args are the command arguments.
	Args []string
	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string
	// Stdin, when non-empty, is fed to the process standard input.
	Stdin string
	// Dir, when non-empty, is the working directory for the command.
	Dir string
	// Timeout bounds the command runtime. Zero means defaults.CommandTimeout.
	Timeout time.Duration
}

// String renders the command line for logs and error context.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result captures the outcome of a completed command.
type Result struct {
	// Output is the combined stdout and stderr of the process.
	Output string
	// ExitCode is the process exit status, 0 on success.
	ExitCode int
}

// Runner executes external commands. Implementations must be safe for
// sequential reuse; forgeadm never runs commands concurrently.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// System is the production Runner backed by os/exec.
type System struct{}

// NewSystemRunner returns a Runner that executes commands on the host.
func NewSystemRunner() Runner {
	return System{}
}

// Run executes the command, capturing combined output. A nonzero exit status
// is returned as an ErrCodeCommandFailed structured error; a context deadline
// is surfaced as ErrCodeTimeout.
func (System) Run(ctx context.Context, cmd Command) (Result, error) {
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = defaults.CommandTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := exec.CommandContext(runCtx, cmd.Name, cmd.Args...)
	c.Env = append(os.Environ(), "DEBIAN_FRONTEND=noninteractive")
	c.Env = append(c.Env, cmd.Env...)
	if cmd.Stdin != "" {
		c.Stdin = strings.NewReader(cmd.Stdin)
	}
	if cmd.Dir != "" {
		c.Dir = cmd.Dir
	}

	slog.Debug("running command", "command", cmd.String(), "timeout", timeout)
	start := time.Now()
	out, err := c.CombinedOutput()
	res := Result{Output: string(out)}

	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
		}
		if runCtx.Err() == context.DeadlineExceeded {
			return res, errors.WrapWithContext(errors.ErrCodeTimeout,
				"command timed out", err, map[string]any{
					"command": cmd.String(),
					"timeout": timeout.String(),
				})
		}
		return res, errors.WrapWithContext(errors.ErrCodeCommandFailed,
			"command failed", err, map[string]any{
				"command": cmd.String(),
				"exit":    res.ExitCode,
				"output":  tail(res.Output, 2048),
			})
	}

	slog.Debug("command completed",
		"command", cmd.String(),
		"duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

// Line is a convenience constructor for a Command with default settings.
func Line(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// tail returns at most the last n bytes of s, used to bound error context.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
