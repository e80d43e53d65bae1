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
	"fmt"
	"os"
	"syscall"

	"github.com/forgeadm/forgeadm/pkg/errors"
)

// Lock is an exclusive advisory lock held for the duration of a mutating
// run. It guards the shared package database and service registry against a
// second concurrent forgeadm process.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock takes a non-blocking flock on path. A held lock returns a
// PRECONDITION error immediately; provisioning runs are long and queueing a
// second one behind the first is never what the operator wants.
func AcquireLock(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodePrecondition,
			"failed to open lock file", err, map[string]any{"path": path})
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if err == syscall.EWOULDBLOCK {
			return nil, errors.NewWithContext(errors.ErrCodePrecondition,
				"another forgeadm run is in progress", map[string]any{"path": path})
		}
		return nil, errors.WrapWithContext(errors.ErrCodePrecondition,
			"failed to acquire lock", err, map[string]any{"path": path})
	}

	// Best effort: record the holder for operators inspecting the lock.
	_ = f.Truncate(0)
	_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())

	return &Lock{path: path, file: f}, nil
}

// Release drops the lock and removes the lock file.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	defer func() { l.file = nil }()

	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		l.file.Close()
		return fmt.Errorf("failed to unlock %q: %w", l.path, err)
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close lock file %q: %w", l.path, err)
	}
	// Removal is cosmetic; flock correctness does not depend on it.
	_ = os.Remove(l.path)
	return nil
}
