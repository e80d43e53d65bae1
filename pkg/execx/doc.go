// Package execx wraps invocation of external system tools (apt-get, mysql,
// ufw, npm and friends) behind a small Runner interface so provisioning steps
// can be exercised in tests without touching the host.
//
// All commands run non-interactively: DEBIAN_FRONTEND=noninteractive is
// injected into the environment and stdin is closed unless input is provided
// explicitly. Output is captured combined (stdout+stderr) since package
// managers interleave the two freely.
package execx
