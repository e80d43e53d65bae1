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

// Package tomcat installs Apache Tomcat as a systemd service and hardens an
// existing installation (manager accounts, remote-access valve removal).
package tomcat

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/forgeadm/forgeadm/pkg/config"
	"github.com/forgeadm/forgeadm/pkg/defaults"
	"github.com/forgeadm/forgeadm/pkg/errors"
	"github.com/forgeadm/forgeadm/pkg/execx"
	"github.com/forgeadm/forgeadm/pkg/provision"
	"github.com/forgeadm/forgeadm/pkg/status"
	"github.com/forgeadm/forgeadm/pkg/step"
)

const unitTemplate = `[Unit]
Description=Apache Tomcat Web Application Container
After=network.target

[Service]
Type=forking

User={{.User}}
Group={{.User}}

Environment="JAVA_HOME={{.JavaHome}}"
Environment="CATALINA_PID={{.InstallDir}}/latest/temp/tomcat.pid"
Environment="CATALINA_HOME={{.InstallDir}}/latest"
Environment="CATALINA_BASE={{.InstallDir}}/latest"
Environment="CATALINA_OPTS={{.CatalinaOpts}}"

ExecStart={{.InstallDir}}/latest/bin/startup.sh
ExecStop={{.InstallDir}}/latest/bin/shutdown.sh

RemainAfterExit=yes
Restart=on-failure
RestartSec=10

[Install]
WantedBy=multi-user.target
`

// RenderUnit renders the tomcat.service unit file.
func RenderUnit(cfg config.Tomcat) []byte {
	var buf bytes.Buffer
	// The template is a compile-time constant; rendering cannot fail on
	// a valid config.
	template.Must(template.New("unit").Parse(unitTemplate)).Execute(&buf, cfg)
	return buf.Bytes()
}

// TarballURL derives the download URL for the configured release.
func TarballURL(cfg config.Tomcat) string {
	major, _, _ := strings.Cut(cfg.Version, ".")
	return fmt.Sprintf("%s/tomcat-%s/v%s/bin/apache-tomcat-%s.tar.gz",
		cfg.MirrorURL, major, cfg.Version, cfg.Version)
}

// releaseDir is the extraction target for the configured release.
func releaseDir(cfg config.Tomcat) string {
	return filepath.Join(cfg.InstallDir, "apache-tomcat-"+cfg.Version)
}

// InstallSteps returns the Tomcat installation sequence.
func InstallSteps(cfg config.Tomcat, d provision.Deps) []step.Step {
	return []step.Step{
		step.Package{Apt: d.Apt, Packages: []string{"default-jdk"}},
		provision.EnsureSystemUser(d.Runner, cfg.User, cfg.InstallDir, "/bin/false"),
		downloadStep(cfg, d.HTTP),
		symlinkStep(cfg),
		scriptPermsStep(cfg),
		ownershipStep(cfg, d.Runner),
		step.File{Path: defaults.TomcatUnitPath, Content: RenderUnit(cfg), Mode: 0o644},
		step.Service{Manager: d.Systemd, Action: step.ActionDaemonReload},
		step.Service{Manager: d.Systemd, Unit: "tomcat.service", Action: step.ActionEnable},
		step.Service{Manager: d.Systemd, Unit: "tomcat.service", Action: step.ActionStart},
	}
}

// ManagedFiles lists the artifacts the status drift check compares.
func ManagedFiles(cfg config.Tomcat) []status.ManagedFile {
	return []status.ManagedFile{
		{Path: defaults.TomcatUnitPath, Desired: RenderUnit(cfg)},
	}
}

func downloadStep(cfg config.Tomcat, client *http.Client) step.Step {
	return step.Func{
		StepName: "download tomcat " + cfg.Version,
		StepKind: step.KindFile,
		Fn: func(ctx context.Context) (step.Result, error) {
			dest := releaseDir(cfg)
			if _, err := os.Stat(dest); err == nil {
				return step.Unchanged("release already extracted")
			}
			if err := fetchAndExtract(ctx, client, TarballURL(cfg), dest); err != nil {
				return step.Result{}, err
			}
			return step.Changed("extracted to " + dest)
		},
	}
}

func symlinkStep(cfg config.Tomcat) step.Step {
	link := filepath.Join(cfg.InstallDir, "latest")
	target := "apache-tomcat-" + cfg.Version
	return step.Func{
		StepName: "symlink " + link,
		StepKind: step.KindFile,
		Fn: func(_ context.Context) (step.Result, error) {
			if current, err := os.Readlink(link); err == nil {
				if current == target {
					return step.Unchanged("symlink already points at " + target)
				}
				if err := os.Remove(link); err != nil {
					return step.Result{}, errors.Wrap(errors.ErrCodeInternal,
						"failed to replace symlink", err)
				}
			}
			if err := os.Symlink(target, link); err != nil {
				return step.Result{}, errors.Wrap(errors.ErrCodeInternal,
					"failed to create symlink", err)
			}
			return step.Changed("linked to " + target)
		},
	}
}

// scriptPermsStep makes the startup scripts executable; tarballs do not
// always carry the execute bit through extraction.
func scriptPermsStep(cfg config.Tomcat) step.Step {
	binDir := filepath.Join(releaseDir(cfg), "bin")
	return step.Func{
		StepName: "script permissions " + binDir,
		StepKind: step.KindFile,
		Fn: func(_ context.Context) (step.Result, error) {
			entries, err := os.ReadDir(binDir)
			if err != nil {
				return step.Result{}, errors.Wrap(errors.ErrCodeNotFound,
					"failed to read bin directory", err)
			}
			changed := 0
			for _, e := range entries {
				if e.IsDir() || !strings.HasSuffix(e.Name(), ".sh") {
					continue
				}
				path := filepath.Join(binDir, e.Name())
				info, err := e.Info()
				if err != nil {
					return step.Result{}, errors.Wrap(errors.ErrCodeInternal,
						"failed to stat script", err)
				}
				if info.Mode().Perm() == 0o755 {
					continue
				}
				if err := os.Chmod(path, 0o755); err != nil {
					return step.Result{}, errors.Wrap(errors.ErrCodeInternal,
						"failed to chmod script", err)
				}
				changed++
			}
			if changed == 0 {
				return step.Unchanged("scripts already executable")
			}
			return step.Changed(fmt.Sprintf("made %d scripts executable", changed))
		},
	}
}

func ownershipStep(cfg config.Tomcat, runner execx.Runner) step.Step {
	return step.Command{
		Runner:  runner,
		Command: execx.Line("chown", "-R", cfg.User+":"+cfg.User, cfg.InstallDir),
		Label:   "ownership " + cfg.InstallDir,
	}
}

// fetchAndExtract downloads a gzipped tarball and extracts it under dest,
// stripping the archive's single top-level directory.
func fetchAndExtract(ctx context.Context, client *http.Client, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to build download request", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeCommandFailed,
			"download failed", err, map[string]any{"url": url})
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.NewWithContext(errors.ErrCodeCommandFailed,
			"unexpected download status", map[string]any{
				"url":    url,
				"status": resp.Status,
			})
	}
	return Extract(resp.Body, dest)
}

// Extract unpacks a gzipped tar stream under dest, stripping the leading
// path element of every entry. Entries other than files and directories are
// skipped.
func Extract(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to open gzip stream", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, "failed to read archive", err)
		}

		rel := stripLeading(hdr.Name)
		if rel == "" {
			continue
		}
		// Reject entries that would escape the destination.
		target := filepath.Join(dest, rel)
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return errors.NewWithContext(errors.ErrCodeInternal,
				"archive entry escapes destination", map[string]any{"entry": hdr.Name})
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, fs.FileMode(hdr.Mode).Perm()|0o700); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, "failed to create directory", err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, "failed to create directory", err)
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fs.FileMode(hdr.Mode).Perm())
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, "failed to create file", err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return errors.Wrap(errors.ErrCodeInternal, "failed to write file", err)
			}
			if err := f.Close(); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, "failed to close file", err)
			}
		}
	}
}

func stripLeading(name string) string {
	name = filepath.ToSlash(name)
	_, rest, found := strings.Cut(name, "/")
	if !found {
		return ""
	}
	return filepath.FromSlash(strings.TrimSuffix(rest, "/"))
}
