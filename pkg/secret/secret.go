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

// Package secret generates random credentials and persists them into
// owner-read-only files. Generation always draws from crypto/rand; there is
// no fallback source.
package secret

import (
	"crypto/rand"
	"fmt"

	"github.com/forgeadm/forgeadm/pkg/fsutil"
)

// DefaultLength is the credential length used for generated passwords.
const DefaultLength = 20

// GenerateAlphanumeric returns a random string of length n drawn from
// [A-Za-z0-9]. Random bytes are read in 32-byte batches and filtered to the
// alphanumeric range so the distribution stays uniform.
func GenerateAlphanumeric(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("credential length must be positive, got %d", n)
	}

	out := make([]byte, 0, n)
	buf := make([]byte, 32)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if !isAlphanumeric(b) {
				continue
			}
			out = append(out, b)
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

func isAlphanumeric(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return true
	default:
		return false
	}
}

// WriteCredentialFile writes content to path with mode 0600 so group and
// other access is excluded. The write is atomic; each run overwrites any
// previous credential.
func WriteCredentialFile(path, content string) error {
	if err := fsutil.WriteFileAtomic(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}
