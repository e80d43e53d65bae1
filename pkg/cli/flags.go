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

package cli

import (
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/forgeadm/forgeadm/pkg/logging"
	"github.com/forgeadm/forgeadm/pkg/serializer"
)

var (
	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		Sources: cli.EnvVars(logging.LogLevelEnvVar),
		Value:   "info",
	}

	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to a YAML config file",
		Sources: cli.EnvVars("FORGEADM_CONFIG"),
	}

	dryRunFlag = &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "List the step sequence without mutating the host",
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Usage:   "Output format: " + strings.Join(serializer.SupportedFormats(), ", "),
		Value:   string(serializer.FormatJSON),
	}

	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write output to a file instead of stdout",
	}

	reportFlag = &cli.BoolFlag{
		Name:  "report",
		Usage: "Print the run report after the sequence finishes",
	}
)
