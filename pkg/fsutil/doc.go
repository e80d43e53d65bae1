// Package fsutil implements desired-state file handling for provisioning
// steps: atomic full-content writes (write to a temp path, fsync, rename),
// content comparison so reruns report unchanged instead of rewriting, and a
// small line/key-value parser for reading existing configuration files.
package fsutil
