package status

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeadm/forgeadm/pkg/config"
	"github.com/forgeadm/forgeadm/pkg/execx"
	"github.com/forgeadm/forgeadm/pkg/pkgmgr"
	"github.com/forgeadm/forgeadm/pkg/systemd"
)

func TestServiceCollector(t *testing.T) {
	runner := &execx.Fake{
		Results: map[string]execx.Result{
			"dpkg-query -W -f ${Status} nginx": {Output: "install ok installed"},
			"nginx -v":                         {Output: "nginx version: nginx/1.24.0 (Ubuntu)"},
		},
	}
	mgr := &systemd.Fake{States: map[string]string{"nginx.service": "active"}}

	conf := filepath.Join(t.TempDir(), "nginx.conf")
	require.NoError(t, os.WriteFile(conf, []byte("worker_processes auto;\n"), 0o644))

	vc := execx.Line("nginx", "-v")
	c := &ServiceCollector{
		Label:          "nginx",
		Packages:       []string{"nginx"},
		Unit:           "nginx.service",
		VersionCommand: &vc,
		Files: []ManagedFile{
			{Path: conf, Desired: []byte("worker_processes auto;\n")},
			{Path: filepath.Join(t.TempDir(), "absent.conf")},
		},
		Apt:     pkgmgr.NewApt(runner),
		Systemd: mgr,
		Runner:  runner,
	}

	comp, err := c.Collect(t.Context())
	require.NoError(t, err)

	assert.True(t, comp.Installed)
	assert.Equal(t, "active", comp.ActiveState)
	assert.Equal(t, "1.24.0", comp.Version)
	require.Len(t, comp.Files, 2)
	assert.True(t, comp.Files[0].Present)
	assert.True(t, comp.Files[0].InSync)
	assert.False(t, comp.Files[1].Present)
	assert.True(t, comp.Drifted(), "missing managed file counts as drift")
}

func TestServiceCollectorNotInstalled(t *testing.T) {
	runner := &execx.Fake{
		Results: map[string]execx.Result{
			"dpkg-query -W -f ${Status} mysql-server": {Output: "unknown ok not-installed", ExitCode: 1},
		},
	}
	c := &ServiceCollector{
		Label:    "mysql",
		Packages: []string{"mysql-server"},
		Apt:      pkgmgr.NewApt(runner),
		Runner:   runner,
	}

	comp, err := c.Collect(t.Context())
	require.NoError(t, err)
	assert.False(t, comp.Installed)
	assert.NotEmpty(t, comp.Notes)
}

func TestServiceCollectorUnitStateUnavailable(t *testing.T) {
	mgr := &systemd.Fake{Errs: map[string]error{"state tomcat.service": os.ErrNotExist}}
	c := &ServiceCollector{
		Label:   "tomcat",
		Unit:    "tomcat.service",
		Apt:     pkgmgr.NewApt(&execx.Fake{}),
		Systemd: mgr,
	}

	comp, err := c.Collect(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "unknown", comp.ActiveState)
}

func TestFileDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mysqld.cnf")
	require.NoError(t, os.WriteFile(path, []byte("max_connections = 150\n"), 0o644))

	st := checkFile(ManagedFile{Path: path, Desired: []byte("max_connections = 300\n")})
	assert.True(t, st.Present)
	assert.False(t, st.InSync)
}

type stubCollector struct {
	name string
	comp Component
	err  error
}

func (s *stubCollector) Name() string { return s.name }
func (s *stubCollector) Collect(context.Context) (Component, error) {
	return s.comp, s.err
}

func TestCollect(t *testing.T) {
	snap, err := Collect(t.Context(),
		&stubCollector{name: "nginx", comp: Component{Installed: true, ActiveState: "active"}},
		&stubCollector{name: "mysql", comp: Component{Installed: false}},
	)
	require.NoError(t, err)

	assert.False(t, snap.CollectedAt.IsZero())
	require.Len(t, snap.Components, 2)
	assert.True(t, snap.Components["nginx"].Installed)
	assert.False(t, snap.Components["mysql"].Installed)
}

func TestCollectPropagatesError(t *testing.T) {
	_, err := Collect(t.Context(),
		&stubCollector{name: "ok", comp: Component{}},
		&stubCollector{name: "bad", err: os.ErrPermission},
	)
	assert.Error(t, err)
}

func TestFactoryAll(t *testing.T) {
	f := NewFactory(&execx.Fake{})
	cols := f.All(config.Default(), map[string][]ManagedFile{
		"nginx": {{Path: "/etc/nginx/nginx.conf"}},
	})
	require.Len(t, cols, 6)

	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"tomcat", "node", "nginx", "mysql", "harden", "app"}, names)
}
