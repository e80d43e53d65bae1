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
	"strings"
	"sync"

	"github.com/forgeadm/forgeadm/pkg/errors"
)

// Fake is a Runner for tests. It records every invocation and answers from
// canned results keyed by the rendered command line. Unmatched commands
// succeed with empty output unless FailUnmatched is set.
type Fake struct {
	mu sync.Mutex

	// Calls records every command in invocation order.
	Calls []Command

	// Results maps full command lines (see Command.String) to outputs.
	Results map[string]Result

	// Errors maps full command lines to returned errors.
	Errors map[string]error

	// FailUnmatched makes any command without a canned result fail with a
	// COMMAND_FAILED error.
	FailUnmatched bool
}

// Run implements Runner.
func (f *Fake) Run(_ context.Context, cmd Command) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, cmd)
	key := cmd.String()

	if err, ok := f.Errors[key]; ok {
		res := f.Results[key]
		if res.ExitCode == 0 {
			res.ExitCode = 1
		}
		return res, err
	}
	if res, ok := f.Results[key]; ok {
		return res, nil
	}
	if f.FailUnmatched {
		return Result{ExitCode: 1}, errors.NewWithContext(errors.ErrCodeCommandFailed,
			"unexpected command", map[string]any{"command": key})
	}
	return Result{}, nil
}

// CalledWith reports whether any recorded command line contains the given
// substring.
func (f *Fake) CalledWith(substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Calls {
		if strings.Contains(c.String(), substr) {
			return true
		}
	}
	return false
}

// CommandLines returns the rendered command lines in invocation order.
func (f *Fake) CommandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		lines = append(lines, c.String())
	}
	return lines
}
