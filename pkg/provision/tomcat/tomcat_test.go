package tomcat

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
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

func TestRenderUnit(t *testing.T) {
	unit := string(RenderUnit(config.Default().Tomcat))

	// The unit must export exactly these environment variables.
	for _, env := range []string{
		`Environment="JAVA_HOME=/usr/lib/jvm/default-java"`,
		`Environment="CATALINA_PID=/opt/tomcat/latest/temp/tomcat.pid"`,
		`Environment="CATALINA_HOME=/opt/tomcat/latest"`,
		`Environment="CATALINA_BASE=/opt/tomcat/latest"`,
		`Environment="CATALINA_OPTS=-Xms512M -Xmx1024M -server -XX:+UseParallelGC"`,
	} {
		assert.Contains(t, unit, env)
	}
	assert.Equal(t, 5, strings.Count(unit, "Environment="))

	assert.Contains(t, unit, "ExecStart=/opt/tomcat/latest/bin/startup.sh")
	assert.Contains(t, unit, "ExecStop=/opt/tomcat/latest/bin/shutdown.sh")
	assert.Contains(t, unit, "Type=forking")
	assert.Contains(t, unit, "RemainAfterExit=yes")
	assert.Contains(t, unit, "Restart=on-failure")
	assert.Contains(t, unit, "RestartSec=10")
	assert.Contains(t, unit, "User=tomcat")
}

func TestRenderUnitDeterministic(t *testing.T) {
	cfg := config.Default().Tomcat
	assert.Equal(t, RenderUnit(cfg), RenderUnit(cfg))
}

func TestTarballURL(t *testing.T) {
	cfg := config.Default().Tomcat
	assert.Equal(t,
		"https://archive.apache.org/dist/tomcat/tomcat-10/v10.1.34/bin/apache-tomcat-10.1.34.tar.gz",
		TarballURL(cfg))

	cfg.Version = "9.0.98"
	assert.Contains(t, TarballURL(cfg), "/tomcat-9/v9.0.98/")
}

func makeTarball(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		if strings.HasSuffix(name, "/") {
			require.NoError(t, tw.WriteHeader(&tar.Header{
				Name: name, Typeflag: tar.TypeDir, Mode: 0o755,
			}))
			continue
		}
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name, Typeflag: tar.TypeReg, Mode: 0o644, Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestExtract(t *testing.T) {
	data := makeTarball(t, map[string]string{
		"apache-tomcat-10.1.34/":                "",
		"apache-tomcat-10.1.34/bin/":            "",
		"apache-tomcat-10.1.34/bin/startup.sh":  "#!/bin/sh\n",
		"apache-tomcat-10.1.34/conf/server.xml": "<Server/>\n",
	})

	dest := filepath.Join(t.TempDir(), "apache-tomcat-10.1.34")
	require.NoError(t, Extract(bytes.NewReader(data), dest))

	// Leading path element is stripped.
	b, err := os.ReadFile(filepath.Join(dest, "bin", "startup.sh"))
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\n", string(b))
	assert.FileExists(t, filepath.Join(dest, "conf", "server.xml"))
}

func TestExtractRejectsEscape(t *testing.T) {
	data := makeTarball(t, map[string]string{
		"apache-tomcat-10.1.34/../../evil": "x",
	})
	err := Extract(bytes.NewReader(data), filepath.Join(t.TempDir(), "out"))
	assert.Error(t, err)
}

func TestSymlinkStep(t *testing.T) {
	cfg := config.Default().Tomcat
	cfg.InstallDir = t.TempDir()

	s := symlinkStep(cfg)
	res, err := s.Apply(t.Context())
	require.NoError(t, err)
	assert.Equal(t, step.StatusChanged, res.Status)

	res, err = s.Apply(t.Context())
	require.NoError(t, err)
	assert.Equal(t, step.StatusUnchanged, res.Status)

	// Version bump repoints the link.
	cfg.Version = "10.1.35"
	res, err = symlinkStep(cfg).Apply(t.Context())
	require.NoError(t, err)
	assert.Equal(t, step.StatusChanged, res.Status)

	target, err := os.Readlink(filepath.Join(cfg.InstallDir, "latest"))
	require.NoError(t, err)
	assert.Equal(t, "apache-tomcat-10.1.35", target)
}

func TestScriptPermsStep(t *testing.T) {
	cfg := config.Default().Tomcat
	cfg.InstallDir = t.TempDir()
	binDir := filepath.Join(releaseDir(cfg), "bin")
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "startup.sh"), []byte("#!/bin/sh\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "catalina.jar"), []byte("x"), 0o644))

	s := scriptPermsStep(cfg)
	res, err := s.Apply(t.Context())
	require.NoError(t, err)
	assert.Equal(t, step.StatusChanged, res.Status)

	info, err := os.Stat(filepath.Join(binDir, "startup.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	// Non-script files keep their mode.
	info, err = os.Stat(filepath.Join(binDir, "catalina.jar"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	res, err = s.Apply(t.Context())
	require.NoError(t, err)
	assert.Equal(t, step.StatusUnchanged, res.Status)
}

func TestInstallSteps(t *testing.T) {
	d := provision.NewDeps(&execx.Fake{}, &systemd.Fake{})
	steps := InstallSteps(config.Default().Tomcat, d)
	require.NotEmpty(t, steps)

	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name())
	}
	assert.Equal(t, "packages default-jdk", names[0], "packages come before any file mutation")
	assert.Contains(t, names, "user tomcat")
	assert.Contains(t, names, "file /etc/systemd/system/tomcat.service")
	assert.Equal(t, "systemd start tomcat.service", names[len(names)-1])
}
