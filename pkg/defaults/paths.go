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

package defaults

// Filesystem locations owned by forgeadm itself.
const (
	// StateDir holds forgeadm state such as the run journal.
	StateDir = "/var/lib/forgeadm"

	// JournalPath is the SQLite run journal location.
	JournalPath = StateDir + "/journal.db"

	// LockPath is the exclusive lock taken around mutating runs so two
	// forgeadm processes cannot interleave package-manager and service
	// mutations.
	LockPath = "/run/forgeadm.lock"
)

// Target paths for provisioned artifacts. These mirror the conventional
// locations of each component on Debian/Ubuntu hosts and must remain stable
// for operational compatibility.
const (
	TomcatUnitPath      = "/etc/systemd/system/tomcat.service"
	NginxConfPath       = "/etc/nginx/nginx.conf"
	NginxSitePath       = "/etc/nginx/sites-available/default"
	NginxIndexPath      = "/var/www/html/index.html"
	MySQLConfPath       = "/etc/mysql/mysql.conf.d/mysqld.cnf"
	MySQLCredentialPath = "/root/.my.cnf"
	SSHDConfigPath      = "/etc/ssh/sshd_config"
	PwqualityConfPath   = "/etc/security/pwquality.conf"
	SysctlHardeningPath = "/etc/sysctl.d/99-hardening.conf"
	AuditRulesPath      = "/etc/audit/rules.d/hardening.rules"
	Fail2banJailPath    = "/etc/fail2ban/jail.local"
	ReportScriptPath    = "/usr/local/bin/security-report.sh"
	ReportCronPath      = "/etc/cron.daily/security-report"
	AppDir              = "/var/www/app"
	NodesourceKeyring   = "/etc/apt/keyrings/nodesource.gpg"
	NodesourceRepoList  = "/etc/apt/sources.list.d/nodesource.list"
)
