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

package status

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/forgeadm/forgeadm/pkg/execx"
	"github.com/forgeadm/forgeadm/pkg/pkgmgr"
	"github.com/forgeadm/forgeadm/pkg/systemd"
	"github.com/forgeadm/forgeadm/pkg/version"
)

// ManagedFile pairs a path with its desired content. A nil Desired means
// only presence is checked.
type ManagedFile struct {
	Path    string
	Desired []byte
}

// ServiceCollector observes one managed component: its packages, its systemd
// unit, the version its binary reports, and its managed files.
type ServiceCollector struct {
	Label    string
	Packages []string
	Unit     string
	// VersionCommand is run to obtain the component version; nil skips
	// version detection.
	VersionCommand *execx.Command
	Files          []ManagedFile

	Apt     *pkgmgr.Apt
	Systemd systemd.Manager
	Runner  execx.Runner
}

func (c *ServiceCollector) Name() string {
	return c.Label
}

func (c *ServiceCollector) Collect(ctx context.Context) (Component, error) {
	comp := Component{Installed: true, Unit: c.Unit}

	for _, pkg := range c.Packages {
		installed, err := c.Apt.IsInstalled(ctx, pkg)
		if err != nil {
			return comp, fmt.Errorf("failed to query package %s: %w", pkg, err)
		}
		if !installed {
			comp.Installed = false
			comp.Notes = append(comp.Notes, "package not installed: "+pkg)
		}
	}

	if c.Unit != "" && c.Systemd != nil {
		state, err := c.Systemd.ActiveState(ctx, c.Unit)
		if err != nil {
			// A missing unit is a finding, not a collection failure.
			comp.ActiveState = "unknown"
			comp.Notes = append(comp.Notes, "unit state unavailable: "+err.Error())
		} else {
			comp.ActiveState = state
		}
	}

	if c.VersionCommand != nil && comp.Installed {
		res, err := c.Runner.Run(ctx, *c.VersionCommand)
		if err == nil {
			if v, verr := version.Extract(res.Output); verr == nil {
				comp.Version = v.String()
			}
		}
	}

	for _, f := range c.Files {
		comp.Files = append(comp.Files, checkFile(f))
	}
	return comp, nil
}

func checkFile(f ManagedFile) FileStatus {
	st := FileStatus{Path: f.Path}
	current, err := os.ReadFile(f.Path)
	if err != nil {
		return st
	}
	st.Present = true
	if f.Desired == nil {
		st.InSync = true
	} else {
		st.InSync = bytes.Equal(current, f.Desired)
	}
	return st
}
