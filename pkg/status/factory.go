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
	"path/filepath"

	"github.com/forgeadm/forgeadm/pkg/config"
	"github.com/forgeadm/forgeadm/pkg/defaults"
	"github.com/forgeadm/forgeadm/pkg/execx"
	"github.com/forgeadm/forgeadm/pkg/pkgmgr"
	"github.com/forgeadm/forgeadm/pkg/systemd"
)

// Factory creates the standard collector set with shared dependencies.
type Factory struct {
	Apt     *pkgmgr.Apt
	Systemd systemd.Manager
	Runner  execx.Runner
}

// NewFactory creates a factory with production dependencies.
func NewFactory(runner execx.Runner) *Factory {
	return &Factory{
		Apt:     pkgmgr.NewApt(runner),
		Systemd: &systemd.DBusManager{},
		Runner:  runner,
	}
}

// All returns collectors for every managed component. Desired file renders
// passed in files (keyed by collector name) enable drift detection; absent
// keys degrade to presence-only checks.
func (f *Factory) All(cfg config.Config, files map[string][]ManagedFile) []Collector {
	return []Collector{
		f.Tomcat(cfg.Tomcat, files["tomcat"]),
		f.Node(files["node"]),
		f.Nginx(files["nginx"]),
		f.MySQL(cfg.MySQL, files["mysql"]),
		f.Harden(files["harden"]),
		f.App(cfg.App, files["app"]),
	}
}

func (f *Factory) Tomcat(cfg config.Tomcat, files []ManagedFile) Collector {
	files = append(files, ManagedFile{Path: defaults.TomcatUnitPath})
	return &ServiceCollector{
		Label:          "tomcat",
		Unit:           "tomcat.service",
		VersionCommand: cmd(filepath.Join(cfg.InstallDir, "latest", "bin", "version.sh")),
		Files:          files,
		Apt:            f.Apt,
		Systemd:        f.Systemd,
		Runner:         f.Runner,
	}
}

func (f *Factory) Node(files []ManagedFile) Collector {
	files = append(files, ManagedFile{Path: defaults.NodesourceRepoList})
	return &ServiceCollector{
		Label:          "node",
		Packages:       []string{"nodejs"},
		VersionCommand: cmd("node", "--version"),
		Files:          files,
		Apt:            f.Apt,
		Runner:         f.Runner,
	}
}

func (f *Factory) Nginx(files []ManagedFile) Collector {
	return &ServiceCollector{
		Label:          "nginx",
		Packages:       []string{"nginx"},
		Unit:           "nginx.service",
		VersionCommand: cmd("nginx", "-v"),
		Files:          files,
		Apt:            f.Apt,
		Systemd:        f.Systemd,
		Runner:         f.Runner,
	}
}

func (f *Factory) MySQL(cfg config.MySQL, files []ManagedFile) Collector {
	files = append(files, ManagedFile{Path: cfg.CredentialFile})
	return &ServiceCollector{
		Label:          "mysql",
		Packages:       []string{"mysql-server"},
		Unit:           "mysql.service",
		VersionCommand: cmd("mysql", "--version"),
		Files:          files,
		Apt:            f.Apt,
		Systemd:        f.Systemd,
		Runner:         f.Runner,
	}
}

func (f *Factory) Harden(files []ManagedFile) Collector {
	return &ServiceCollector{
		Label:    "harden",
		Packages: []string{"ufw", "fail2ban", "auditd"},
		Unit:     "ssh.service",
		Files:    files,
		Apt:      f.Apt,
		Systemd:  f.Systemd,
		Runner:   f.Runner,
	}
}

func (f *Factory) App(cfg config.App, files []ManagedFile) Collector {
	files = append(files,
		ManagedFile{Path: filepath.Join(cfg.Dir, "server.js")},
		ManagedFile{Path: filepath.Join(cfg.Dir, "ecosystem.config.js")},
	)
	return &ServiceCollector{
		Label:          "app",
		VersionCommand: cmd("pm2", "--version"),
		Files:          files,
		Apt:            f.Apt,
		Runner:         f.Runner,
	}
}

func cmd(name string, args ...string) *execx.Command {
	c := execx.Line(name, args...)
	return &c
}
