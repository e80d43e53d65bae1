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
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"

	"github.com/forgeadm/forgeadm/pkg/errors"
	"github.com/forgeadm/forgeadm/pkg/execx"
	"github.com/forgeadm/forgeadm/pkg/fsutil"
	"github.com/forgeadm/forgeadm/pkg/pkgmgr"
	"github.com/forgeadm/forgeadm/pkg/systemd"
)

// File converges a file to desired-state content.
type File struct {
	Path    string
	Content []byte
	Mode    os.FileMode
	// Owner is an optional "user" or "user:group" to chown the file to.
	Owner string
}

// Name implements Step.
func (s File) Name() string { return "file " + s.Path }

// Kind implements Step.
func (s File) Kind() Kind { return KindFile }

// Apply implements Step.
func (s File) Apply(_ context.Context) (Result, error) {
	mode := s.Mode
	if mode == 0 {
		mode = 0o644
	}
	changed, err := fsutil.EnsureFile(s.Path, s.Content, mode)
	if err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeInternal, "file step failed", err)
	}
	if s.Owner != "" {
		if err := chown(s.Path, s.Owner); err != nil {
			return Result{}, err
		}
	}
	if !changed {
		return Unchanged("content already matches desired state")
	}
	return Changed(fmt.Sprintf("wrote %d bytes", len(s.Content)))
}

// chown resolves a "user" or "user:group" spec and applies it to path.
func chown(path, owner string) error {
	name, group, _ := strings.Cut(owner, ":")
	u, err := user.Lookup(name)
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeNotFound,
			"owner lookup failed", err, map[string]any{"owner": name})
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "non-numeric uid", err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "non-numeric gid", err)
	}
	if group != "" {
		g, err := user.LookupGroup(group)
		if err != nil {
			return errors.WrapWithContext(errors.ErrCodeNotFound,
				"group lookup failed", err, map[string]any{"group": group})
		}
		if gid, err = strconv.Atoi(g.Gid); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, "non-numeric gid", err)
		}
	}
	if err := os.Chown(path, uid, gid); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "chown failed", err)
	}
	return nil
}

// Package ensures system packages are present.
type Package struct {
	Apt      *pkgmgr.Apt
	Packages []string
}

// Name implements Step.
func (s Package) Name() string { return "packages " + strings.Join(s.Packages, " ") }

// Kind implements Step.
func (s Package) Kind() Kind { return KindPackage }

// Apply implements Step.
func (s Package) Apply(ctx context.Context) (Result, error) {
	changed, err := s.Apt.Install(ctx, s.Packages...)
	if err != nil {
		return Result{}, err
	}
	if !changed {
		return Unchanged("all packages already installed")
	}
	return Changed("installed missing packages")
}

// ServiceAction names a systemd operation.
type ServiceAction string

const (
	ActionDaemonReload ServiceAction = "daemon-reload"
	ActionEnable       ServiceAction = "enable"
	ActionStart        ServiceAction = "start"
	ActionRestart      ServiceAction = "restart"
)

// Service controls a systemd unit.
type Service struct {
	Manager systemd.Manager
	Unit    string
	Action  ServiceAction
}

// Name implements Step.
func (s Service) Name() string {
	if s.Action == ActionDaemonReload {
		return "systemd daemon-reload"
	}
	return fmt.Sprintf("systemd %s %s", s.Action, s.Unit)
}

// Kind implements Step.
func (s Service) Kind() Kind { return KindService }

// Apply implements Step.
func (s Service) Apply(ctx context.Context) (Result, error) {
	var err error
	switch s.Action {
	case ActionDaemonReload:
		err = s.Manager.DaemonReload(ctx)
	case ActionEnable:
		err = s.Manager.Enable(ctx, s.Unit)
	case ActionStart:
		err = s.Manager.Start(ctx, s.Unit)
	case ActionRestart:
		err = s.Manager.Restart(ctx, s.Unit)
	default:
		return Result{}, errors.New(errors.ErrCodeInternal,
			fmt.Sprintf("unknown service action %q", s.Action))
	}
	if err != nil {
		return Result{}, err
	}
	return Changed(string(s.Action) + " completed")
}

// Command runs an external command.
type Command struct {
	Runner  execx.Runner
	Command execx.Command
	// Label overrides the step name; the full command line is used if empty.
	Label string
}

// Name implements Step.
func (s Command) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return "run " + s.Command.String()
}

// Kind implements Step.
func (s Command) Kind() Kind { return KindCommand }

// Apply implements Step.
func (s Command) Apply(ctx context.Context) (Result, error) {
	if _, err := s.Runner.Run(ctx, s.Command); err != nil {
		return Result{}, err
	}
	return Changed("command completed")
}

// Check verifies a precondition without mutating anything. A failed check
// aborts the sequence like any other step failure.
type Check struct {
	Label string
	Fn    func(ctx context.Context) error
}

// Name implements Step.
func (s Check) Name() string { return "check " + s.Label }

// Kind implements Step.
func (s Check) Kind() Kind { return KindCheck }

// Apply implements Step.
func (s Check) Apply(ctx context.Context) (Result, error) {
	if err := s.Fn(ctx); err != nil {
		return Result{}, err
	}
	return Unchanged("check passed")
}
