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

// Package status inspects the host and reports what forgeadm manages:
// package presence, unit states, tool versions, and config drift. It never
// mutates the host, so it runs without root.
package status

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forgeadm/forgeadm/pkg/defaults"
	"github.com/forgeadm/forgeadm/pkg/fsutil"
)

// FileStatus reports one managed file on disk.
type FileStatus struct {
	Path    string `json:"path" yaml:"path"`
	Present bool   `json:"present" yaml:"present"`
	// InSync is true when the on-disk content matches the desired render.
	// Files without a desired render report InSync == Present.
	InSync bool `json:"inSync" yaml:"inSync"`
}

// Component is the observed state of one managed component.
type Component struct {
	Installed   bool         `json:"installed" yaml:"installed"`
	Version     string       `json:"version,omitempty" yaml:"version,omitempty"`
	Unit        string       `json:"unit,omitempty" yaml:"unit,omitempty"`
	ActiveState string       `json:"activeState,omitempty" yaml:"activeState,omitempty"`
	Files       []FileStatus `json:"files,omitempty" yaml:"files,omitempty"`
	Notes       []string     `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Drifted reports whether any managed file is missing or out of sync.
func (c Component) Drifted() bool {
	for _, f := range c.Files {
		if !f.Present || !f.InSync {
			return true
		}
	}
	return false
}

// Snapshot is the full host status.
type Snapshot struct {
	Hostname    string               `json:"hostname" yaml:"hostname"`
	OS          string               `json:"os,omitempty" yaml:"os,omitempty"`
	Kernel      string               `json:"kernel,omitempty" yaml:"kernel,omitempty"`
	CollectedAt time.Time            `json:"collectedAt" yaml:"collectedAt"`
	Components  map[string]Component `json:"components" yaml:"components"`
}

// Collector observes one component.
type Collector interface {
	Name() string
	Collect(ctx context.Context) (Component, error)
}

// Collect runs all collectors concurrently and assembles the snapshot.
// Each collector is bounded by the collector timeout; the first collector
// error aborts the whole collection.
func Collect(ctx context.Context, collectors ...Collector) (*Snapshot, error) {
	snap := &Snapshot{
		CollectedAt: time.Now().UTC(),
		Components:  make(map[string]Component, len(collectors)),
	}
	snap.Hostname, _ = os.Hostname()
	if b, err := os.ReadFile("/proc/sys/kernel/osrelease"); err == nil {
		snap.Kernel = strings.TrimSpace(string(b))
	}
	if m, err := fsutil.NewParser().GetMap("/etc/os-release"); err == nil {
		snap.OS = strings.Trim(m["PRETTY_NAME"], `"`)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range collectors {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, defaults.CollectorTimeout)
			defer cancel()

			comp, err := c.Collect(cctx)
			if err != nil {
				return err
			}
			mu.Lock()
			snap.Components[c.Name()] = comp
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}
