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

// Package cli wires the forgeadm commands: one provisioner per managed
// component plus read-only status and history.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/forgeadm/forgeadm/pkg/logging"
)

const name = "forgeadm"

var (
	// overridden during build with ldflags
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Root builds the forgeadm command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "Provision and harden a single-host web stack",
		Version:               fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			logLevelFlag,
			configFlag,
			dryRunFlag,
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			tomcatCmd(),
			nodeCmd(),
			nginxCmd(),
			mysqlCmd(),
			hardenCmd(),
			appCmd(),
			statusCmd(),
			historyCmd(),
		},
	}
}

// Execute runs the CLI with signal-aware cancellation. It is called by
// main.main and exits nonzero on any failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Root().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
