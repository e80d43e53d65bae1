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

// Package mysql installs MySQL server, sets a freshly generated root
// credential on every run, and converges mysqld.cnf to a hardened baseline.
package mysql

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/forgeadm/forgeadm/pkg/config"
	"github.com/forgeadm/forgeadm/pkg/defaults"
	"github.com/forgeadm/forgeadm/pkg/execx"
	"github.com/forgeadm/forgeadm/pkg/provision"
	"github.com/forgeadm/forgeadm/pkg/secret"
	"github.com/forgeadm/forgeadm/pkg/status"
	"github.com/forgeadm/forgeadm/pkg/step"
)

const cnfTemplate = `[mysqld]
user            = mysql
pid-file        = /var/run/mysqld/mysqld.pid
socket          = /var/run/mysqld/mysqld.sock
port            = 3306
datadir         = /var/lib/mysql

bind-address    = 127.0.0.1
mysqlx-bind-address = 127.0.0.1
skip-name-resolve

max_connections         = {{.MaxConnections}}
innodb_buffer_pool_size = {{.InnodbBufferPoolSize}}
innodb_log_file_size    = 64M
innodb_flush_log_at_trx_commit = 1
innodb_flush_method     = O_DIRECT

local-infile            = 0
symbolic-links          = 0

slow_query_log          = 1
slow_query_log_file     = /var/log/mysql/mysql-slow.log
long_query_time         = 2

log_error = /var/log/mysql/error.log
`

// RenderCnf renders the hardened mysqld.cnf.
func RenderCnf(cfg config.MySQL) []byte {
	var buf bytes.Buffer
	template.Must(template.New("cnf").Parse(cnfTemplate)).Execute(&buf, cfg)
	return buf.Bytes()
}

// InstallSteps returns the MySQL installation sequence. The root credential
// is regenerated on every run; setting a password is idempotent where
// appending users would not be.
func InstallSteps(cfg config.MySQL, d provision.Deps) []step.Step {
	return []step.Step{
		step.Package{Apt: d.Apt, Packages: []string{"mysql-server"}},
		step.Service{Manager: d.Systemd, Unit: "mysql.service", Action: step.ActionEnable},
		step.Service{Manager: d.Systemd, Unit: "mysql.service", Action: step.ActionStart},
		credentialStep(cfg, d.Runner),
		step.File{Path: defaults.MySQLConfPath, Content: RenderCnf(cfg), Mode: 0o644},
		step.Service{Manager: d.Systemd, Unit: "mysql.service", Action: step.ActionRestart},
	}
}

// ManagedFiles lists the artifacts the status drift check compares.
func ManagedFiles(cfg config.MySQL) []status.ManagedFile {
	return []status.ManagedFile{
		{Path: defaults.MySQLConfPath, Desired: RenderCnf(cfg)},
	}
}

// credentialStep generates a fresh alphanumeric root password, applies it via
// the socket-authenticated mysql CLI, and persists it owner-read-only. The
// generated alphabet is [A-Za-z0-9], so the SQL literal needs no escaping.
func credentialStep(cfg config.MySQL, runner execx.Runner) step.Step {
	return step.Func{
		StepName: "root credential " + cfg.CredentialFile,
		Fn: func(ctx context.Context) (step.Result, error) {
			password, err := secret.GenerateAlphanumeric(cfg.PasswordLength)
			if err != nil {
				return step.Result{}, err
			}

			sql := fmt.Sprintf(
				"ALTER USER 'root'@'localhost' IDENTIFIED WITH mysql_native_password BY '%s'; FLUSH PRIVILEGES;",
				password)
			if _, err := runner.Run(ctx, execx.Command{
				Name:  "mysql",
				Stdin: sql,
			}); err != nil {
				return step.Result{}, err
			}

			content := fmt.Sprintf("[client]\nuser=root\npassword=%s\n", password)
			if err := secret.WriteCredentialFile(cfg.CredentialFile, content); err != nil {
				return step.Result{}, err
			}
			return step.Changed("root credential regenerated")
		},
	}
}
