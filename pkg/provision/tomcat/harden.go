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

package tomcat

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/forgeadm/forgeadm/pkg/config"
	"github.com/forgeadm/forgeadm/pkg/errors"
	"github.com/forgeadm/forgeadm/pkg/fsutil"
	"github.com/forgeadm/forgeadm/pkg/provision"
	"github.com/forgeadm/forgeadm/pkg/secret"
	"github.com/forgeadm/forgeadm/pkg/step"
)

var requiredRoles = []string{"manager-gui", "admin-gui"}

// remoteAddrValve matches the RemoteAddrValve element in a context.xml,
// including multi-line attribute lists.
var remoteAddrValve = regexp.MustCompile(`(?s)[ \t]*<Valve[^>]*?RemoteAddrValve[^>]*?/>\n?`)

// HardenSteps returns the Tomcat hardening sequence: manager accounts in
// tomcat-users.xml and removal of the loopback-only access valve from the
// manager applications, followed by a service restart.
func HardenSteps(cfg config.Tomcat, d provision.Deps) []step.Step {
	latest := filepath.Join(cfg.InstallDir, "latest")
	return []step.Step{
		usersStep(cfg, filepath.Join(latest, "conf", "tomcat-users.xml")),
		valveStep("manager", filepath.Join(latest, "webapps", "manager", "META-INF", "context.xml")),
		valveStep("host-manager", filepath.Join(latest, "webapps", "host-manager", "META-INF", "context.xml")),
		step.Service{Manager: d.Systemd, Unit: "tomcat.service", Action: step.ActionRestart},
	}
}

// tomcatUsers mirrors the subset of conf/tomcat-users.xml we inspect.
type tomcatUsers struct {
	XMLName xml.Name     `xml:"tomcat-users"`
	Roles   []tomcatRole `xml:"role"`
	Users   []tomcatUser `xml:"user"`
}

type tomcatRole struct {
	Rolename string `xml:"rolename,attr"`
}

type tomcatUser struct {
	Username string `xml:"username,attr"`
	Password string `xml:"password,attr"`
	Roles    string `xml:"roles,attr"`
}

// usersStep ensures the manager roles and the admin account exist. Presence
// is checked by parsing the document, so reruns do not accumulate duplicate
// entries. Missing entries are inserted textually before the closing tag to
// preserve the rest of the file, comments included.
func usersStep(cfg config.Tomcat, path string) step.Step {
	return step.Func{
		StepName: "manager accounts " + path,
		StepKind: step.KindFile,
		Fn: func(_ context.Context) (step.Result, error) {
			raw, err := os.ReadFile(path)
			if err != nil {
				return step.Result{}, errors.WrapWithContext(errors.ErrCodeNotFound,
					"failed to read tomcat-users.xml", err, map[string]any{"path": path})
			}

			var doc tomcatUsers
			if err := xml.Unmarshal(raw, &doc); err != nil {
				return step.Result{}, errors.WrapWithContext(errors.ErrCodeConfigInvalid,
					"failed to parse tomcat-users.xml", err, map[string]any{"path": path})
			}

			var additions []string
			for _, want := range requiredRoles {
				if !hasRole(doc, want) {
					additions = append(additions, fmt.Sprintf("  <role rolename=%q/>", want))
				}
			}

			generated := false
			if !hasUser(doc, cfg.AdminUser) {
				password := cfg.AdminPassword
				if password == "" {
					if password, err = secret.GenerateAlphanumeric(secret.DefaultLength); err != nil {
						return step.Result{}, err
					}
					generated = true
				}
				additions = append(additions, fmt.Sprintf(
					"  <user username=%q password=%q roles=\"manager-gui,admin-gui\"/>",
					cfg.AdminUser, password))
				if generated {
					if err := secret.WriteCredentialFile(cfg.CredentialFile,
						fmt.Sprintf("username=%s\npassword=%s\n", cfg.AdminUser, password)); err != nil {
						return step.Result{}, err
					}
				}
			}

			if len(additions) == 0 {
				return step.Unchanged("manager roles and admin account already present")
			}

			updated, err := insertBeforeClose(string(raw), additions)
			if err != nil {
				return step.Result{}, err
			}
			if err := fsutil.WriteFileAtomic(path, []byte(updated), 0o600); err != nil {
				return step.Result{}, err
			}
			detail := fmt.Sprintf("added %d entries", len(additions))
			if generated {
				detail += ", generated admin password saved to " + cfg.CredentialFile
			}
			return step.Changed(detail)
		},
	}
}

func hasRole(doc tomcatUsers, name string) bool {
	for _, r := range doc.Roles {
		if r.Rolename == name {
			return true
		}
	}
	return false
}

func hasUser(doc tomcatUsers, name string) bool {
	for _, u := range doc.Users {
		if u.Username == name {
			return true
		}
	}
	return false
}

func insertBeforeClose(content string, lines []string) (string, error) {
	idx := strings.LastIndex(content, "</tomcat-users>")
	if idx < 0 {
		return "", errors.New(errors.ErrCodeConfigInvalid,
			"tomcat-users.xml has no closing tomcat-users tag")
	}
	return content[:idx] + strings.Join(lines, "\n") + "\n" + content[idx:], nil
}

// valveStep removes the RemoteAddrValve from a manager application's
// context.xml so the app is reachable from beyond loopback. A file without
// the valve is already hardened and reported unchanged; a missing file means
// the application is not deployed, also unchanged.
func valveStep(app, path string) step.Step {
	return step.Func{
		StepName: "remove access valve " + app,
		StepKind: step.KindFile,
		Fn: func(_ context.Context) (step.Result, error) {
			raw, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					return step.Unchanged(app + " not deployed")
				}
				return step.Result{}, errors.WrapWithContext(errors.ErrCodeInternal,
					"failed to read context.xml", err, map[string]any{"path": path})
			}

			updated := remoteAddrValve.ReplaceAll(raw, nil)
			if len(updated) == len(raw) {
				return step.Unchanged("valve not present, already hardened")
			}
			if err := fsutil.WriteFileAtomic(path, updated, 0o644); err != nil {
				return step.Result{}, err
			}
			return step.Changed("removed RemoteAddrValve")
		},
	}
}
