// Package step implements the provisioning step engine.
//
// # Overview
//
// Every forgeadm command is a fixed, totally ordered sequence of steps of a
// few kinds: ensure a package is present, converge a file to desired-state
// content, control a systemd unit, run an external command, or check a
// precondition. The Runner executes a sequence under strict-abort semantics:
// if step i fails, steps i+1..n never execute, the run is reported as
// aborted, and the process exits nonzero. Nothing is rolled back.
//
// # Preconditions
//
// Before any mutation the Runner verifies the process runs as root and takes
// an exclusive lock file, so two runs cannot interleave package-manager and
// service mutations. Both failures surface as PRECONDITION errors with zero
// steps executed.
//
// # Step results
//
// Steps report changed, unchanged, or skipped. A mutation that finds nothing
// to do (the desired content already on disk, a package already present, an
// XML entry already in place) reports unchanged rather than silently
// no-opping, so logical no-ops are always visible in the run report.
//
// # Dry runs
//
// With DryRun set the Runner lists the sequence without applying anything;
// every step reports skipped. Root and lock preconditions are not required
// for a dry run since no mutation can occur.
package step
