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

// Package serializer renders run reports, status snapshots, and history
// listings in the formats the CLI exposes.
//
// Three formats are supported:
//   - JSON: machine-readable structured data with indentation
//   - YAML: human-readable configuration format
//   - Table: flattened key/value tabular output
//
// Usage:
//
//	w := serializer.NewStdoutWriter(serializer.FormatJSON)
//	defer w.Close()
//	if err := w.Serialize(ctx, report); err != nil {
//		log.Fatal(err)
//	}
package serializer

import "context"

// Serializer renders a value to the configured destination.
type Serializer interface {
	Serialize(ctx context.Context, v any) error
}
