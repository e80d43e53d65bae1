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

	"github.com/forgeadm/forgeadm/pkg/config"
	"github.com/forgeadm/forgeadm/pkg/execx"
	"github.com/forgeadm/forgeadm/pkg/provision/app"
	"github.com/forgeadm/forgeadm/pkg/provision/harden"
	"github.com/forgeadm/forgeadm/pkg/provision/mysql"
	"github.com/forgeadm/forgeadm/pkg/provision/nginx"
	"github.com/forgeadm/forgeadm/pkg/provision/node"
	"github.com/forgeadm/forgeadm/pkg/provision/tomcat"
	"github.com/forgeadm/forgeadm/pkg/serializer"
	"github.com/forgeadm/forgeadm/pkg/status"
)

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Report the state of every managed component",
		Description: `Collects package presence, systemd unit states, tool versions, and
config drift against the desired-state renders. Read-only: performs no
mutations and needs no root.

The snapshot can be output in JSON, YAML, or table format.`,
		Flags: []cli.Flag{formatFlag, outputFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}

			outFormat := serializer.Format(cmd.String("format"))
			if outFormat.IsUnknown() {
				return fmt.Errorf("unknown output format: %q", outFormat)
			}

			factory := status.NewFactory(execx.NewSystemRunner())
			snap, err := status.Collect(ctx, factory.All(cfg, desiredFiles(cfg))...)
			if err != nil {
				return err
			}

			w := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
			defer w.Close()
			return w.Serialize(ctx, snap)
		},
	}
}

// desiredFiles maps each collector to the renders drift is measured against.
func desiredFiles(cfg config.Config) map[string][]status.ManagedFile {
	return map[string][]status.ManagedFile{
		"tomcat": tomcat.ManagedFiles(cfg.Tomcat),
		"node":   node.ManagedFiles(cfg.Node),
		"nginx":  nginx.ManagedFiles(cfg.Nginx),
		"mysql":  mysql.ManagedFiles(cfg.MySQL),
		"harden": harden.ManagedFiles(cfg.Harden),
		"app":    app.ManagedFiles(cfg.App),
	}
}
