package step

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	forgeerrors "github.com/forgeadm/forgeadm/pkg/errors"
	"github.com/forgeadm/forgeadm/pkg/execx"
	"github.com/forgeadm/forgeadm/pkg/pkgmgr"
	"github.com/forgeadm/forgeadm/pkg/systemd"
)

func TestFileStep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nginx.conf")
	s := File{Path: path, Content: []byte("worker_processes auto;\n"), Mode: 0o644}

	res, err := s.Apply(t.Context())
	require.NoError(t, err)
	assert.Equal(t, StatusChanged, res.Status)

	// Rerun converges to unchanged with byte-identical content.
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	res, err = s.Apply(t.Context())
	require.NoError(t, err)
	assert.Equal(t, StatusUnchanged, res.Status)

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFileStepDefaultMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	s := File{Path: path, Content: []byte("x")}

	_, err := s.Apply(t.Context())
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestPackageStep(t *testing.T) {
	f := &execx.Fake{
		Results: map[string]execx.Result{
			"dpkg-query -W -f ${Status} nginx": {Output: "install ok installed"},
		},
	}
	s := Package{Apt: pkgmgr.NewApt(f), Packages: []string{"nginx"}}

	res, err := s.Apply(t.Context())
	require.NoError(t, err)
	assert.Equal(t, StatusUnchanged, res.Status)

	s = Package{Apt: pkgmgr.NewApt(f), Packages: []string{"fail2ban"}}
	res, err = s.Apply(t.Context())
	require.NoError(t, err)
	assert.Equal(t, StatusChanged, res.Status)
}

func TestServiceStep(t *testing.T) {
	f := &systemd.Fake{}

	for _, action := range []ServiceAction{ActionDaemonReload, ActionEnable, ActionStart, ActionRestart} {
		s := Service{Manager: f, Unit: "nginx.service", Action: action}
		res, err := s.Apply(t.Context())
		require.NoError(t, err)
		assert.Equal(t, StatusChanged, res.Status)
	}
	assert.Equal(t, []string{
		"daemon-reload",
		"enable nginx.service",
		"start nginx.service",
		"restart nginx.service",
	}, f.Ops)

	s := Service{Manager: f, Unit: "x", Action: ServiceAction("bogus")}
	_, err := s.Apply(t.Context())
	assert.Error(t, err)
}

func TestServiceStepName(t *testing.T) {
	s := Service{Unit: "tomcat.service", Action: ActionRestart}
	assert.Equal(t, "systemd restart tomcat.service", s.Name())
	assert.Equal(t, "systemd daemon-reload", Service{Action: ActionDaemonReload}.Name())
}

func TestCommandStep(t *testing.T) {
	f := &execx.Fake{}
	s := Command{Runner: f, Command: execx.Line("ufw", "--force", "enable")}

	res, err := s.Apply(t.Context())
	require.NoError(t, err)
	assert.Equal(t, StatusChanged, res.Status)
	assert.True(t, f.CalledWith("ufw --force enable"))
	assert.Equal(t, "run ufw --force enable", s.Name())

	s.Label = "enable firewall"
	assert.Equal(t, "enable firewall", s.Name())
}

func TestCheckStep(t *testing.T) {
	ok := Check{Label: "node installed", Fn: func(context.Context) error { return nil }}
	res, err := ok.Apply(t.Context())
	require.NoError(t, err)
	assert.Equal(t, StatusUnchanged, res.Status)

	failing := Check{Label: "pm2 installed", Fn: func(context.Context) error {
		return forgeerrors.New(forgeerrors.ErrCodeDependencyMissing, "pm2 not found")
	}}
	_, err = failing.Apply(t.Context())
	require.Error(t, err)
	assert.Equal(t, forgeerrors.ErrCodeDependencyMissing, forgeerrors.CodeOf(err))
}

func TestFuncStep(t *testing.T) {
	s := Func{StepName: "custom", Fn: func(context.Context) (Result, error) {
		return Unchanged("nothing to do")
	}}
	assert.Equal(t, "custom", s.Name())
	assert.Equal(t, KindCommand, s.Kind(), "kind defaults to command")

	res, err := s.Apply(t.Context())
	require.NoError(t, err)
	assert.Equal(t, StatusUnchanged, res.Status)
}
