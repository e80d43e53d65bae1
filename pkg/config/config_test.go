package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/opt/tomcat", cfg.Tomcat.InstallDir)
	assert.Equal(t, "tomcat", cfg.Tomcat.User)
	assert.Equal(t, 20, cfg.MySQL.PasswordLength)
	assert.Contains(t, cfg.Node.GlobalPackages, "pm2")
	assert.Equal(t, 3000, cfg.App.Port)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forgeadm.yaml")
	content := `
tomcat:
  version: "9.0.98"
nginx:
  appPort: 8080
harden:
  allowUsers: [deploy, ops]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9.0.98", cfg.Tomcat.Version)
	assert.Equal(t, 8080, cfg.Nginx.AppPort)
	assert.Equal(t, []string{"deploy", "ops"}, cfg.Harden.AllowUsers)
	// Untouched values keep their defaults.
	assert.Equal(t, "/opt/tomcat", cfg.Tomcat.InstallDir)
}

func TestLoadEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forgeadm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nginx:\n  appPort: 8080\n"), 0o644))

	t.Setenv("FORGEADM_NGINX_APP_PORT", "9090")
	t.Setenv("FORGEADM_NODE_GLOBAL_PACKAGES", "pm2,serve")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Nginx.AppPort)
	assert.Equal(t, []string{"pm2", "serve"}, cfg.Node.GlobalPackages)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\t: ["), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults valid", mutate: func(*Config) {}},
		{name: "empty tomcat version", mutate: func(c *Config) { c.Tomcat.Version = "" }, wantErr: true},
		{name: "short password", mutate: func(c *Config) { c.MySQL.PasswordLength = 8 }, wantErr: true},
		{name: "ancient node", mutate: func(c *Config) { c.Node.MajorVersion = 10 }, wantErr: true},
		{name: "bad app port", mutate: func(c *Config) { c.Nginx.AppPort = 70000 }, wantErr: true},
		{name: "bad ssh port", mutate: func(c *Config) { c.Harden.SSHPort = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
