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

package app

const serverJS = `'use strict';

const express = require('express');
const mysql = require('mysql2/promise');

const app = express();
const port = process.env.PORT || 3000;

app.use(express.json());
app.disable('x-powered-by');

const pool = mysql.createPool({
  host: process.env.DB_HOST || '127.0.0.1',
  port: process.env.DB_PORT || 3306,
  database: process.env.DB_NAME,
  user: process.env.DB_USER,
  password: process.env.DB_PASSWORD,
  waitForConnections: true,
  connectionLimit: 10,
  queueLimit: 0,
});

app.get('/health', (req, res) => {
  res.json({ status: 'ok', uptime: process.uptime(), timestamp: new Date().toISOString() });
});

app.get('/', (req, res) => {
  res.json({
    message: 'Sample application is running',
    version: '1.0.0',
    timestamp: new Date().toISOString(),
  });
});

app.get('/api/status', async (req, res) => {
  let database = 'unavailable';
  try {
    await pool.query('SELECT 1');
    database = 'connected';
  } catch (err) {
    // Database being down must not take the status endpoint with it.
  }
  res.json({ status: 'ok', database, timestamp: new Date().toISOString() });
});

app.get('/api/users', (req, res) => {
  res.json({
    users: [
      { id: 1, name: 'Alice Johnson', role: 'admin' },
      { id: 2, name: 'Bob Smith', role: 'developer' },
      { id: 3, name: 'Carol White', role: 'viewer' },
    ],
    timestamp: new Date().toISOString(),
  });
});

app.get('/api/projects', (req, res) => {
  res.json({
    projects: [
      { id: 1, name: 'Website Redesign', status: 'active' },
      { id: 2, name: 'API Migration', status: 'planning' },
      { id: 3, name: 'Monitoring Rollout', status: 'done' },
    ],
    timestamp: new Date().toISOString(),
  });
});

app.get('/api/system', (req, res) => {
  res.json({
    hostname: require('os').hostname(),
    platform: process.platform,
    nodeVersion: process.version,
    memory: process.memoryUsage(),
    timestamp: new Date().toISOString(),
  });
});

app.use((req, res) => {
  res.status(404).json({ error: 'Not found', timestamp: new Date().toISOString() });
});

app.listen(port, '127.0.0.1', () => {
  console.log('Server listening on port ' + port);
});
`

const packageJSON = `{
  "name": "sample-webapp",
  "version": "1.0.0",
  "description": "Sample Express application managed by PM2",
  "main": "server.js",
  "scripts": {
    "start": "node server.js"
  },
  "dependencies": {
    "express": "^4.19.0",
    "mysql2": "^3.9.0"
  },
  "engines": {
    "node": ">=18"
  },
  "private": true
}
`

const eslintrc = `{
  "env": {
    "node": true,
    "es2022": true
  },
  "parserOptions": {
    "ecmaVersion": 2022,
    "sourceType": "script"
  },
  "extends": "eslint:recommended",
  "rules": {
    "no-unused-vars": ["warn", { "argsIgnorePattern": "^_" }],
    "no-console": "off"
  }
}
`

const prettierrc = `{
  "singleQuote": true,
  "trailingComma": "all",
  "printWidth": 100,
  "semi": true
}
`
