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

import "time"

// Command timeouts for external tools invoked during provisioning.
const (
	// CommandTimeout is the default timeout for short external commands
	// (dpkg-query, sysctl, useradd, chown and similar).
	CommandTimeout = 2 * time.Minute

	// PackageManagerTimeout is the timeout for apt-get operations, which may
	// download and unpack large package sets.
	PackageManagerTimeout = 15 * time.Minute

	// NpmInstallTimeout is the timeout for npm install runs, which fetch
	// dependency trees over the network.
	NpmInstallTimeout = 10 * time.Minute
)

// Service timeouts for systemd operations.
const (
	// ServiceTimeout is the timeout for a single systemd unit operation
	// (enable, start, restart) including the job completion wait.
	ServiceTimeout = 90 * time.Second

	// DaemonReloadTimeout is the timeout for systemd daemon-reload.
	DaemonReloadTimeout = 30 * time.Second
)

// HTTP client timeouts for outbound downloads.
const (
	// DownloadTimeout is the total timeout for artifact downloads such as
	// the Tomcat release tarball.
	DownloadTimeout = 10 * time.Minute

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading response headers.
	HTTPResponseHeaderTimeout = 10 * time.Second

	// HTTPKeepAlive is the keep-alive duration for connections.
	HTTPKeepAlive = 30 * time.Second
)

// Collector timeouts for read-only status collection.
const (
	// CollectorTimeout is the default timeout for a single status collector.
	// Collectors should respect parent context deadlines when shorter.
	CollectorTimeout = 10 * time.Second
)
