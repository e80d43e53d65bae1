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

	"github.com/urfave/cli/v3"

	"github.com/forgeadm/forgeadm/pkg/config"
	"github.com/forgeadm/forgeadm/pkg/provision"
	"github.com/forgeadm/forgeadm/pkg/provision/app"
	"github.com/forgeadm/forgeadm/pkg/provision/harden"
	"github.com/forgeadm/forgeadm/pkg/provision/mysql"
	"github.com/forgeadm/forgeadm/pkg/provision/nginx"
	"github.com/forgeadm/forgeadm/pkg/provision/node"
	"github.com/forgeadm/forgeadm/pkg/provision/tomcat"
	"github.com/forgeadm/forgeadm/pkg/step"
)

var provisionFlags = []cli.Flag{formatFlag, outputFlag, reportFlag}

func tomcatCmd() *cli.Command {
	return &cli.Command{
		Name:  "tomcat",
		Usage: "Install and harden Apache Tomcat",
		Commands: []*cli.Command{
			{
				Name:  "install",
				Usage: "Install Tomcat as a systemd service",
				Description: `Installs the JDK, creates the locked tomcat service account, downloads
and extracts the configured Tomcat release under the install directory,
writes the tomcat.service unit, and starts the service.`,
				Flags: provisionFlags,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runComponent(ctx, cmd, "tomcat",
						func(cfg config.Config, d provision.Deps) []step.Step {
							return tomcat.InstallSteps(cfg.Tomcat, d)
						})
				},
			},
			{
				Name:  "harden",
				Usage: "Harden an existing Tomcat installation",
				Description: `Ensures the manager roles and admin account exist in tomcat-users.xml
and removes the loopback-only access valve from the manager applications.
Reruns converge without duplicating entries.`,
				Flags: provisionFlags,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runComponent(ctx, cmd, "tomcat-harden",
						func(cfg config.Config, d provision.Deps) []step.Step {
							return tomcat.HardenSteps(cfg.Tomcat, d)
						})
				},
			},
		},
	}
}

func nodeCmd() *cli.Command {
	return &cli.Command{
		Name:  "node",
		Usage: "Install the Node.js runtime and PM2",
		Commands: []*cli.Command{
			{
				Name:  "install",
				Usage: "Install Node.js from NodeSource plus global npm tooling",
				Flags: provisionFlags,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runComponent(ctx, cmd, "node",
						func(cfg config.Config, d provision.Deps) []step.Step {
							return node.InstallSteps(cfg.Node, cfg.App.User, d)
						})
				},
			},
		},
	}
}

func nginxCmd() *cli.Command {
	return &cli.Command{
		Name:  "nginx",
		Usage: "Install Nginx as a hardened reverse proxy",
		Commands: []*cli.Command{
			{
				Name:  "install",
				Usage: "Install Nginx with hardened config and a landing page",
				Flags: provisionFlags,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runComponent(ctx, cmd, "nginx",
						func(cfg config.Config, d provision.Deps) []step.Step {
							return nginx.InstallSteps(cfg.Nginx, d)
						})
				},
			},
		},
	}
}

func mysqlCmd() *cli.Command {
	return &cli.Command{
		Name:  "mysql",
		Usage: "Install MySQL with a generated root credential",
		Commands: []*cli.Command{
			{
				Name:  "install",
				Usage: "Install MySQL server and converge its hardened config",
				Description: `Installs mysql-server, generates a fresh root password from a
cryptographic source, persists it owner-read-only, and converges
mysqld.cnf to the hardened baseline. Every run mints a new credential.`,
				Flags: provisionFlags,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runComponent(ctx, cmd, "mysql",
						func(cfg config.Config, d provision.Deps) []step.Step {
							return mysql.InstallSteps(cfg.MySQL, d)
						})
				},
			},
		},
	}
}

func hardenCmd() *cli.Command {
	return &cli.Command{
		Name:  "harden",
		Usage: "Apply the host security baseline",
		Description: `Installs the security tooling and converges sshd, password quality,
kernel parameters, audit rules, fail2ban, and the ufw firewall. The sshd
config is validated before the service restarts.`,
		Flags: provisionFlags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runComponent(ctx, cmd, "harden",
				func(cfg config.Config, d provision.Deps) []step.Step {
					return harden.Steps(cfg.Harden, d)
				})
		},
	}
}

func appCmd() *cli.Command {
	return &cli.Command{
		Name:  "app",
		Usage: "Deploy the sample application",
		Commands: []*cli.Command{
			{
				Name:  "deploy",
				Usage: "Deploy the sample Express application under PM2",
				Flags: provisionFlags,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runComponent(ctx, cmd, "app",
						func(cfg config.Config, d provision.Deps) []step.Step {
							return app.DeploySteps(cfg.App, d)
						})
				},
			},
		},
	}
}
