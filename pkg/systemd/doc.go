// Package systemd wraps the systemd D-Bus API behind a small Manager
// interface covering the operations provisioning needs: daemon-reload,
// enable, start, restart, and unit state queries.
//
// The production implementation talks to the system bus via
// github.com/coreos/go-systemd/v22/dbus and opens a fresh connection per
// operation; provisioning runs are sequential and infrequent, so connection
// reuse buys nothing and a stale bus connection after a daemon re-exec is a
// real failure mode.
package systemd
