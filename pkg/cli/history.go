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
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/forgeadm/forgeadm/pkg/defaults"
	"github.com/forgeadm/forgeadm/pkg/journal"
	"github.com/forgeadm/forgeadm/pkg/serializer"
)

func historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List past provisioning runs from the journal",
		Flags: []cli.Flag{
			formatFlag,
			outputFlag,
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to list",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "Show the full report for one run ID",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			outFormat := serializer.Format(cmd.String("format"))
			if outFormat.IsUnknown() {
				return fmt.Errorf("unknown output format: %q", outFormat)
			}

			j, err := journal.Open(defaults.JournalPath)
			if err != nil {
				return err
			}
			defer j.Close()

			w := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
			defer w.Close()

			if runID := cmd.String("run"); runID != "" {
				report, err := j.Run(ctx, runID)
				if err != nil {
					return err
				}
				return w.Serialize(ctx, report)
			}

			runs, err := j.Runs(ctx, int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			return w.Serialize(ctx, runs)
		},
	}
}
