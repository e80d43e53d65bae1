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

// Package harden converges the host security baseline: sshd, password
// quality, kernel parameters, auditd, fail2ban, the ufw firewall, and a
// daily security report.
package harden

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/forgeadm/forgeadm/pkg/config"
	"github.com/forgeadm/forgeadm/pkg/defaults"
	"github.com/forgeadm/forgeadm/pkg/execx"
	"github.com/forgeadm/forgeadm/pkg/provision"
	"github.com/forgeadm/forgeadm/pkg/status"
	"github.com/forgeadm/forgeadm/pkg/step"
)

// securityPackages is the baseline tooling installed before any config is
// converged.
var securityPackages = []string{
	"fail2ban", "ufw", "auditd", "audispd-plugins", "aide",
	"clamav", "clamav-daemon", "rkhunter", "unattended-upgrades",
	"libpam-pwquality",
}

const sshdTemplate = `# Managed by forgeadm. Manual edits will be overwritten.
Port {{.SSHPort}}
Protocol 2

PermitRootLogin no
{{if .PermitPasswordAuth}}PasswordAuthentication yes{{else}}PasswordAuthentication no{{end}}
PermitEmptyPasswords no
ChallengeResponseAuthentication no
UsePAM yes
PubkeyAuthentication yes

MaxAuthTries 3
MaxSessions 5
LoginGraceTime 30
ClientAliveInterval 300
ClientAliveCountMax 2

X11Forwarding no
AllowAgentForwarding no
AllowTcpForwarding no
PrintMotd no
{{if .AllowUsers}}
AllowUsers {{join .AllowUsers " "}}
{{end}}
Ciphers chacha20-poly1305@openssh.com,aes256-gcm@openssh.com,aes128-gcm@openssh.com
MACs hmac-sha2-512-etm@openssh.com,hmac-sha2-256-etm@openssh.com
KexAlgorithms curve25519-sha256,curve25519-sha256@libssh.org,diffie-hellman-group16-sha512

AcceptEnv LANG LC_*
Subsystem sftp /usr/lib/openssh/sftp-server
`

const pwqualityConf = `# Managed by forgeadm. Manual edits will be overwritten.
minlen = 14
minclass = 3
dcredit = -1
ucredit = -1
lcredit = -1
ocredit = -1
maxrepeat = 3
dictcheck = 1
enforcing = 1
`

const sysctlConf = `# Managed by forgeadm. Manual edits will be overwritten.
net.ipv4.conf.all.rp_filter = 1
net.ipv4.conf.default.rp_filter = 1
net.ipv4.conf.all.accept_redirects = 0
net.ipv4.conf.default.accept_redirects = 0
net.ipv4.conf.all.secure_redirects = 0
net.ipv4.conf.all.send_redirects = 0
net.ipv4.conf.all.accept_source_route = 0
net.ipv4.conf.default.accept_source_route = 0
net.ipv4.conf.all.log_martians = 1
net.ipv4.icmp_echo_ignore_broadcasts = 1
net.ipv4.icmp_ignore_bogus_error_responses = 1
net.ipv4.tcp_syncookies = 1
net.ipv6.conf.all.accept_redirects = 0
net.ipv6.conf.default.accept_redirects = 0
net.ipv6.conf.all.accept_ra = 0
kernel.kptr_restrict = 2
kernel.dmesg_restrict = 1
kernel.unprivileged_bpf_disabled = 1
kernel.yama.ptrace_scope = 1
fs.protected_hardlinks = 1
fs.protected_symlinks = 1
fs.suid_dumpable = 0
`

const auditRules = `# Managed by forgeadm. Manual edits will be overwritten.
-D
-b 8192
-f 1

-w /etc/passwd -p wa -k identity
-w /etc/group -p wa -k identity
-w /etc/shadow -p wa -k identity
-w /etc/sudoers -p wa -k scope
-w /etc/sudoers.d/ -p wa -k scope
-w /etc/ssh/sshd_config -p wa -k sshd
-w /var/log/auth.log -p wa -k authlog
-a always,exit -F arch=b64 -S execve -F euid=0 -k rootcmd
-a always,exit -F arch=b64 -S settimeofday,clock_settime -k time-change
-a always,exit -F arch=b64 -S mount,umount2 -k mounts
-e 2
`

const reportScript = `#!/bin/bash
# Managed by forgeadm. Daily security summary written to the system log.
set -euo pipefail

{
  echo "=== Security report: $(hostname) $(date -u +%Y-%m-%dT%H:%M:%SZ) ==="
  echo "--- Failed SSH logins (last day) ---"
  journalctl -u ssh --since yesterday 2>/dev/null | grep -c "Failed password" || true
  echo "--- fail2ban status ---"
  fail2ban-client status sshd 2>/dev/null || echo "fail2ban not running"
  echo "--- ufw status ---"
  ufw status verbose
  echo "--- Pending security updates ---"
  apt-get -s upgrade 2>/dev/null | grep -ci security || true
  echo "--- Listening sockets ---"
  ss -tulnp
} | logger -t security-report
`

const reportCron = `#!/bin/sh
exec /usr/local/bin/security-report.sh
`

var tmplFuncs = template.FuncMap{"join": strings.Join}

// RenderSSHD renders the managed sshd_config.
func RenderSSHD(cfg config.Harden) []byte {
	var buf bytes.Buffer
	template.Must(template.New("sshd").Funcs(tmplFuncs).Parse(sshdTemplate)).Execute(&buf, cfg)
	return buf.Bytes()
}

// Steps returns the hardening sequence.
func Steps(cfg config.Harden, d provision.Deps) []step.Step {
	steps := []step.Step{
		step.Package{Apt: d.Apt, Packages: securityPackages},
		step.File{Path: defaults.SSHDConfigPath, Content: RenderSSHD(cfg), Mode: 0o644},
		step.Command{
			Runner:  d.Runner,
			Command: execx.Line("sshd", "-t"),
			Label:   "sshd config check",
		},
		step.File{Path: defaults.PwqualityConfPath, Content: []byte(pwqualityConf), Mode: 0o644},
		step.File{Path: defaults.SysctlHardeningPath, Content: []byte(sysctlConf), Mode: 0o644},
		step.Command{
			Runner:  d.Runner,
			Command: execx.Line("sysctl", "--system"),
			Label:   "apply kernel parameters",
		},
		step.File{Path: defaults.AuditRulesPath, Content: []byte(auditRules), Mode: 0o640},
		step.Command{
			Runner:  d.Runner,
			Command: execx.Line("augenrules", "--load"),
			Label:   "load audit rules",
		},
		step.File{Path: defaults.Fail2banJailPath, Content: RenderJail(cfg), Mode: 0o644},
	}

	steps = append(steps, firewallSteps(cfg, d.Runner)...)
	steps = append(steps,
		step.File{Path: defaults.ReportScriptPath, Content: []byte(reportScript), Mode: 0o755},
		step.File{Path: defaults.ReportCronPath, Content: []byte(reportCron), Mode: 0o755},
		step.Service{Manager: d.Systemd, Unit: "ssh.service", Action: step.ActionRestart},
		step.Service{Manager: d.Systemd, Unit: "fail2ban.service", Action: step.ActionRestart},
		step.Service{Manager: d.Systemd, Unit: "auditd.service", Action: step.ActionEnable},
		step.Service{Manager: d.Systemd, Unit: "auditd.service", Action: step.ActionStart},
	)
	return steps
}

// RenderJail renders the fail2ban jail.local with the sshd jail bound to the
// configured port.
func RenderJail(cfg config.Harden) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `# Managed by forgeadm. Manual edits will be overwritten.
[DEFAULT]
bantime = 1h
findtime = 10m
maxretry = 5
backend = systemd

[sshd]
enabled = true
port = %d
maxretry = 3
bantime = 2h
`, cfg.SSHPort)
	return buf.Bytes()
}

// firewallSteps configures ufw: default deny in, allow out, ssh plus the
// configured open ports, then enable.
func firewallSteps(cfg config.Harden, runner execx.Runner) []step.Step {
	steps := []step.Step{
		step.Command{
			Runner:  runner,
			Command: execx.Line("ufw", "default", "deny", "incoming"),
			Label:   "ufw default deny incoming",
		},
		step.Command{
			Runner:  runner,
			Command: execx.Line("ufw", "default", "allow", "outgoing"),
			Label:   "ufw default allow outgoing",
		},
		step.Command{
			Runner:  runner,
			Command: execx.Line("ufw", "allow", strconv.Itoa(cfg.SSHPort)+"/tcp"),
			Label:   "ufw allow ssh",
		},
	}
	for _, port := range cfg.OpenPorts {
		steps = append(steps, step.Command{
			Runner:  runner,
			Command: execx.Line("ufw", "allow", strconv.Itoa(port)+"/tcp"),
			Label:   "ufw allow " + strconv.Itoa(port),
		})
	}
	return append(steps, step.Command{
		Runner:  runner,
		Command: execx.Line("ufw", "--force", "enable"),
		Label:   "ufw enable",
	})
}

// ManagedFiles lists the artifacts the status drift check compares.
func ManagedFiles(cfg config.Harden) []status.ManagedFile {
	return []status.ManagedFile{
		{Path: defaults.SSHDConfigPath, Desired: RenderSSHD(cfg)},
		{Path: defaults.PwqualityConfPath, Desired: []byte(pwqualityConf)},
		{Path: defaults.SysctlHardeningPath, Desired: []byte(sysctlConf)},
		{Path: defaults.AuditRulesPath, Desired: []byte(auditRules)},
		{Path: defaults.Fail2banJailPath, Desired: RenderJail(cfg)},
		{Path: defaults.ReportScriptPath, Desired: []byte(reportScript)},
		{Path: defaults.ReportCronPath, Desired: []byte(reportCron)},
	}
}
