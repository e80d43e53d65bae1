package mysql

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeadm/forgeadm/pkg/config"
	"github.com/forgeadm/forgeadm/pkg/execx"
	"github.com/forgeadm/forgeadm/pkg/provision"
	"github.com/forgeadm/forgeadm/pkg/step"
	"github.com/forgeadm/forgeadm/pkg/systemd"
)

func TestRenderCnf(t *testing.T) {
	cnf := string(RenderCnf(config.Default().MySQL))

	assert.Contains(t, cnf, "bind-address    = 127.0.0.1")
	assert.Contains(t, cnf, "skip-name-resolve")
	assert.Contains(t, cnf, "max_connections         = 150")
	assert.Contains(t, cnf, "innodb_buffer_pool_size = 256M")
	assert.Contains(t, cnf, "local-infile            = 0")
	assert.Contains(t, cnf, "slow_query_log          = 1")
}

func TestRenderCnfDeterministic(t *testing.T) {
	cfg := config.Default().MySQL
	assert.Equal(t, RenderCnf(cfg), RenderCnf(cfg))
}

func TestCredentialStep(t *testing.T) {
	cfg := config.Default().MySQL
	cfg.CredentialFile = filepath.Join(t.TempDir(), ".my.cnf")
	runner := &execx.Fake{}

	res, err := credentialStep(cfg, runner).Apply(t.Context())
	require.NoError(t, err)
	assert.Equal(t, step.StatusChanged, res.Status)

	// The password travels via stdin, never via argv.
	require.Len(t, runner.Calls, 1)
	call := runner.Calls[0]
	assert.Equal(t, "mysql", call.Name)
	assert.Empty(t, call.Args)
	assert.Contains(t, call.Stdin, "ALTER USER 'root'@'localhost'")

	cred, err := os.ReadFile(cfg.CredentialFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(cred)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "[client]", lines[0])
	assert.Equal(t, "user=root", lines[1])

	password := strings.TrimPrefix(lines[2], "password=")
	assert.Len(t, password, 20)
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]+$`), password)
	assert.Contains(t, call.Stdin, password)

	info, err := os.Stat(cfg.CredentialFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCredentialRegeneratedEachRun(t *testing.T) {
	cfg := config.Default().MySQL
	cfg.CredentialFile = filepath.Join(t.TempDir(), ".my.cnf")
	runner := &execx.Fake{}
	s := credentialStep(cfg, runner)

	_, err := s.Apply(t.Context())
	require.NoError(t, err)
	first, err := os.ReadFile(cfg.CredentialFile)
	require.NoError(t, err)

	_, err = s.Apply(t.Context())
	require.NoError(t, err)
	second, err := os.ReadFile(cfg.CredentialFile)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "each run must mint a fresh credential")
}

func TestCredentialStepCommandFailure(t *testing.T) {
	cfg := config.Default().MySQL
	cfg.CredentialFile = filepath.Join(t.TempDir(), ".my.cnf")
	runner := &execx.Fake{FailUnmatched: true}

	_, err := credentialStep(cfg, runner).Apply(t.Context())
	require.Error(t, err)
	assert.NoFileExists(t, cfg.CredentialFile,
		"no credential file is written when the password was not applied")
}

func TestInstallSteps(t *testing.T) {
	steps := InstallSteps(config.Default().MySQL, provision.NewDeps(&execx.Fake{}, &systemd.Fake{}))
	require.Len(t, steps, 6)

	assert.Equal(t, "packages mysql-server", steps[0].Name())
	assert.Equal(t, "file /etc/mysql/mysql.conf.d/mysqld.cnf", steps[4].Name())
	assert.Equal(t, "systemd restart mysql.service", steps[5].Name())
}
