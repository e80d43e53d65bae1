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

// Package nginx installs Nginx with a hardened main config, a reverse-proxy
// default site in front of the app port, and a landing page.
package nginx

import (
	"bytes"
	"text/template"

	"github.com/forgeadm/forgeadm/pkg/config"
	"github.com/forgeadm/forgeadm/pkg/defaults"
	"github.com/forgeadm/forgeadm/pkg/execx"
	"github.com/forgeadm/forgeadm/pkg/provision"
	"github.com/forgeadm/forgeadm/pkg/status"
	"github.com/forgeadm/forgeadm/pkg/step"
)

const confTemplate = `user www-data;
worker_processes auto;
pid /run/nginx.pid;
include /etc/nginx/modules-enabled/*.conf;

events {
    worker_connections {{.WorkerConnections}};
    multi_accept on;
}

http {
    sendfile on;
    tcp_nopush on;
    tcp_nodelay on;
    keepalive_timeout 65;
    types_hash_max_size 2048;
    server_tokens off;

    client_max_body_size 16m;
    client_body_buffer_size 128k;

    include /etc/nginx/mime.types;
    default_type application/octet-stream;

    ssl_protocols TLSv1.2 TLSv1.3;
    ssl_prefer_server_ciphers on;

    access_log /var/log/nginx/access.log;
    error_log /var/log/nginx/error.log;

    gzip on;
    gzip_vary on;
    gzip_proxied any;
    gzip_comp_level 5;
    gzip_types text/plain text/css application/json application/javascript
               text/xml application/xml application/xml+rss image/svg+xml;

    limit_req_zone $binary_remote_addr zone=applimit:10m rate=10r/s;

    include /etc/nginx/conf.d/*.conf;
    include /etc/nginx/sites-enabled/*;
}
`

const siteTemplate = `server {
    listen 80 default_server;
    listen [::]:80 default_server;
    server_name {{.ServerName}};

    root /var/www/html;
    index index.html;

    add_header X-Frame-Options "SAMEORIGIN" always;
    add_header X-Content-Type-Options "nosniff" always;
    add_header Referrer-Policy "strict-origin-when-cross-origin" always;

    location /health {
        proxy_pass http://127.0.0.1:{{.AppPort}}/health;
        access_log off;
    }

    location /api/ {
        limit_req zone=applimit burst=20 nodelay;
        proxy_pass http://127.0.0.1:{{.AppPort}};
        proxy_http_version 1.1;
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;
        proxy_set_header Upgrade $http_upgrade;
        proxy_set_header Connection "upgrade";
    }

    location ~* \.(css|js|png|jpg|jpeg|gif|ico|svg|woff2?)$ {
        expires 30d;
        add_header Cache-Control "public, immutable";
    }

    location / {
        try_files $uri $uri/ =404;
    }
}
`

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Server Ready</title>
  <style>
    body { font-family: system-ui, sans-serif; display: flex; align-items: center;
           justify-content: center; min-height: 100vh; margin: 0; background: #f4f4f5; }
    main { text-align: center; color: #27272a; }
    h1 { font-weight: 600; }
    p { color: #71717a; }
  </style>
</head>
<body>
  <main>
    <h1>Server Ready</h1>
    <p>Nginx is installed and serving.</p>
  </main>
</body>
</html>
`

// RenderConf renders the hardened /etc/nginx/nginx.conf.
func RenderConf(cfg config.Nginx) []byte {
	return render(confTemplate, cfg)
}

// RenderSite renders the default reverse-proxy site.
func RenderSite(cfg config.Nginx) []byte {
	return render(siteTemplate, cfg)
}

// RenderIndex returns the landing page.
func RenderIndex() []byte {
	return []byte(indexHTML)
}

func render(tmpl string, cfg config.Nginx) []byte {
	var buf bytes.Buffer
	template.Must(template.New("nginx").Parse(tmpl)).Execute(&buf, cfg)
	return buf.Bytes()
}

// InstallSteps returns the Nginx installation sequence. Config renders are
// deterministic, so reruns converge to unchanged with byte-identical files.
func InstallSteps(cfg config.Nginx, d provision.Deps) []step.Step {
	return []step.Step{
		step.Package{Apt: d.Apt, Packages: []string{"nginx"}},
		step.File{Path: defaults.NginxConfPath, Content: RenderConf(cfg), Mode: 0o644},
		step.File{Path: defaults.NginxSitePath, Content: RenderSite(cfg), Mode: 0o644},
		step.File{Path: defaults.NginxIndexPath, Content: RenderIndex(), Mode: 0o644},
		step.Command{
			Runner:  d.Runner,
			Command: execx.Line("nginx", "-t"),
			Label:   "nginx config check",
		},
		step.Service{Manager: d.Systemd, Unit: "nginx.service", Action: step.ActionEnable},
		step.Service{Manager: d.Systemd, Unit: "nginx.service", Action: step.ActionRestart},
	}
}

// ManagedFiles lists the artifacts the status drift check compares.
func ManagedFiles(cfg config.Nginx) []status.ManagedFile {
	return []status.ManagedFile{
		{Path: defaults.NginxConfPath, Desired: RenderConf(cfg)},
		{Path: defaults.NginxSitePath, Desired: RenderSite(cfg)},
		{Path: defaults.NginxIndexPath, Desired: RenderIndex()},
	}
}
