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

// Package config defines the explicit provisioning configuration that
// replaces hard-coded top-of-script variables. Values resolve in layers:
// built-in defaults, then an optional YAML file, then FORGEADM_* environment
// variables.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"

	"github.com/forgeadm/forgeadm/pkg/errors"
)

// Tomcat configures the Tomcat installer and hardener.
type Tomcat struct {
	// Version is the Apache Tomcat release to install.
	Version string `yaml:"version" env:"FORGEADM_TOMCAT_VERSION"`
	// MirrorURL is the download mirror base; the tarball path is derived
	// from Version.
	MirrorURL string `yaml:"mirrorUrl" env:"FORGEADM_TOMCAT_MIRROR_URL"`
	// InstallDir is the root under which releases are extracted.
	InstallDir string `yaml:"installDir" env:"FORGEADM_TOMCAT_INSTALL_DIR"`
	// User is the locked service account owning the installation.
	User string `yaml:"user" env:"FORGEADM_TOMCAT_USER"`
	// JavaHome is the JAVA_HOME exported in the systemd unit.
	JavaHome string `yaml:"javaHome" env:"FORGEADM_TOMCAT_JAVA_HOME"`
	// CatalinaOpts is the CATALINA_OPTS exported in the systemd unit.
	CatalinaOpts string `yaml:"catalinaOpts" env:"FORGEADM_TOMCAT_CATALINA_OPTS"`
	// AdminUser is the manager/admin account ensured by the hardener.
	AdminUser string `yaml:"adminUser" env:"FORGEADM_TOMCAT_ADMIN_USER"`
	// AdminPassword is the admin password; empty means generate one and
	// persist it alongside the root credentials.
	AdminPassword string `yaml:"adminPassword" env:"FORGEADM_TOMCAT_ADMIN_PASSWORD"`
	// CredentialFile is where a generated admin password is persisted,
	// owner-read-only.
	CredentialFile string `yaml:"credentialFile" env:"FORGEADM_TOMCAT_CREDENTIAL_FILE"`
}

// Node configures the Node.js runtime installer.
type Node struct {
	// MajorVersion selects the NodeSource distribution channel.
	MajorVersion int `yaml:"majorVersion" env:"FORGEADM_NODE_MAJOR_VERSION"`
	// GlobalPackages are npm packages installed globally after the runtime.
	GlobalPackages []string `yaml:"globalPackages" env:"FORGEADM_NODE_GLOBAL_PACKAGES" envSeparator:","`
}

// Nginx configures the Nginx installer.
type Nginx struct {
	// ServerName is the server_name of the default site.
	ServerName string `yaml:"serverName" env:"FORGEADM_NGINX_SERVER_NAME"`
	// AppPort is the upstream port the default site proxies to.
	AppPort int `yaml:"appPort" env:"FORGEADM_NGINX_APP_PORT"`
	// WorkerConnections tunes events{} in nginx.conf.
	WorkerConnections int `yaml:"workerConnections" env:"FORGEADM_NGINX_WORKER_CONNECTIONS"`
}

// MySQL configures the MySQL installer.
type MySQL struct {
	// CredentialFile is where the generated root credential is persisted,
	// owner-read-only.
	CredentialFile string `yaml:"credentialFile" env:"FORGEADM_MYSQL_CREDENTIAL_FILE"`
	// PasswordLength is the generated root password length.
	PasswordLength int `yaml:"passwordLength" env:"FORGEADM_MYSQL_PASSWORD_LENGTH"`
	// InnodbBufferPoolSize is written into mysqld.cnf verbatim.
	InnodbBufferPoolSize string `yaml:"innodbBufferPoolSize" env:"FORGEADM_MYSQL_INNODB_BUFFER_POOL_SIZE"`
	// MaxConnections is written into mysqld.cnf.
	MaxConnections int `yaml:"maxConnections" env:"FORGEADM_MYSQL_MAX_CONNECTIONS"`
}

// Harden configures the server hardening run.
type Harden struct {
	// SSHPort is the sshd listen port.
	SSHPort int `yaml:"sshPort" env:"FORGEADM_HARDEN_SSH_PORT"`
	// AllowUsers restricts ssh logins when non-empty.
	AllowUsers []string `yaml:"allowUsers" env:"FORGEADM_HARDEN_ALLOW_USERS" envSeparator:","`
	// PermitPasswordAuth keeps password authentication enabled. Key-only
	// is the default.
	PermitPasswordAuth bool `yaml:"permitPasswordAuth" env:"FORGEADM_HARDEN_PERMIT_PASSWORD_AUTH"`
	// OpenPorts are allowed through ufw in addition to ssh.
	OpenPorts []int `yaml:"openPorts" env:"FORGEADM_HARDEN_OPEN_PORTS" envSeparator:","`
}

// App configures the sample application deployment.
type App struct {
	// Dir is the application directory.
	Dir string `yaml:"dir" env:"FORGEADM_APP_DIR"`
	// User runs the application under PM2.
	User string `yaml:"user" env:"FORGEADM_APP_USER"`
	// Port is the HTTP listen port.
	Port int `yaml:"port" env:"FORGEADM_APP_PORT"`
	// DBName is the MySQL database the app connects to.
	DBName string `yaml:"dbName" env:"FORGEADM_APP_DB_NAME"`
	// DBUser is the MySQL account the app connects as.
	DBUser string `yaml:"dbUser" env:"FORGEADM_APP_DB_USER"`
}

// Config is the full provisioning configuration.
type Config struct {
	Tomcat Tomcat `yaml:"tomcat"`
	Node   Node   `yaml:"node"`
	Nginx  Nginx  `yaml:"nginx"`
	MySQL  MySQL  `yaml:"mysql"`
	Harden Harden `yaml:"harden"`
	App    App    `yaml:"app"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Tomcat: Tomcat{
			Version:        "10.1.34",
			MirrorURL:      "https://archive.apache.org/dist/tomcat",
			InstallDir:     "/opt/tomcat",
			User:           "tomcat",
			JavaHome:       "/usr/lib/jvm/default-java",
			CatalinaOpts:   "-Xms512M -Xmx1024M -server -XX:+UseParallelGC",
			AdminUser:      "admin",
			CredentialFile: "/root/.tomcat-admin",
		},
		Node: Node{
			MajorVersion:   20,
			GlobalPackages: []string{"pm2", "yarn", "nodemon"},
		},
		Nginx: Nginx{
			ServerName:        "_",
			AppPort:           3000,
			WorkerConnections: 1024,
		},
		MySQL: MySQL{
			CredentialFile:       "/root/.my.cnf",
			PasswordLength:       20,
			InnodbBufferPoolSize: "256M",
			MaxConnections:       150,
		},
		Harden: Harden{
			SSHPort:   22,
			OpenPorts: []int{80, 443},
		},
		App: App{
			Dir:    "/var/www/app",
			User:   "www-data",
			Port:   3000,
			DBName: "appdb",
			DBUser: "appuser",
		},
	}
}

// Load resolves the configuration: defaults, then the YAML file at path (if
// path is non-empty), then FORGEADM_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.WrapWithContext(errors.ErrCodeConfigInvalid,
				"failed to read config file", err, map[string]any{"path": path})
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, errors.WrapWithContext(errors.ErrCodeConfigInvalid,
				"failed to parse config file", err, map[string]any{"path": path})
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeConfigInvalid,
			"failed to parse environment overrides", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations that would produce broken artifacts.
func (c Config) Validate() error {
	if c.Tomcat.Version == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "tomcat.version must not be empty")
	}
	if c.MySQL.PasswordLength < 12 {
		return errors.New(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("mysql.passwordLength must be at least 12, got %d", c.MySQL.PasswordLength))
	}
	if c.Node.MajorVersion < 16 {
		return errors.New(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("node.majorVersion must be at least 16, got %d", c.Node.MajorVersion))
	}
	if c.Nginx.AppPort <= 0 || c.Nginx.AppPort > 65535 {
		return errors.New(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("nginx.appPort out of range: %d", c.Nginx.AppPort))
	}
	if c.Harden.SSHPort <= 0 || c.Harden.SSHPort > 65535 {
		return errors.New(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("harden.sshPort out of range: %d", c.Harden.SSHPort))
	}
	return nil
}
