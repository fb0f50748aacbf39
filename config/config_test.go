package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/formgate/formgate/config"
	"github.com/formgate/formgate/domain/endpoint"
	"github.com/formgate/formgate/domain/format"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "formgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 15s

auth:
  enabled: true
  secret: "test-secret"

database:
  dsn: ":memory:"

logging:
  level: debug
  format: console

endpoints:
  - path: /user/search
    methods: get
    handler: search
    request:
      name: string
      page: "?string"
  - path: /user/add
    methods: post
    handler: add
    content_type: application/json
    strict: true
    auth: true
    permissions: [admin]
    headers:
      x-api-version: number
    request:
      name: string
      age: number
      tags: [string]
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9090 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("read_timeout = %v", cfg.Server.ReadTimeout)
	}
	if !cfg.Auth.Enabled || cfg.Auth.Secret != "test-secret" {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if len(cfg.Endpoints) != 2 {
		t.Fatalf("endpoints = %d, want 2", len(cfg.Endpoints))
	}

	table, err := cfg.Table()
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	ep, ok := table.Lookup("/user/add")
	if !ok {
		t.Fatal("endpoint /user/add not registered")
	}
	if ep.Methods != endpoint.MethodPost || !ep.Strict || !ep.Auth {
		t.Errorf("endpoint = %+v", ep)
	}
	if ep.Request == nil || ep.Request.Kind != format.KindMap {
		t.Fatalf("request descriptor = %+v", ep.Request)
	}
	if ep.Request.Fields["tags"].Kind != format.KindArray {
		t.Errorf("tags descriptor = %+v", ep.Request.Fields["tags"])
	}
	if ep.Headers["x-api-version"].Kind != format.KindNumber {
		t.Errorf("header descriptor = %+v", ep.Headers["x-api-version"])
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `server: {}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Auth.TokenKey != "access-token" {
		t.Errorf("token_key = %q", cfg.Auth.TokenKey)
	}
	if cfg.Auth.TTL != 24*time.Hour {
		t.Errorf("ttl = %v", cfg.Auth.TTL)
	}
	if cfg.Database.DSN != "formgate.db" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("metrics path = %q", cfg.Metrics.Path)
	}
	if cfg.CORS.MaxHeaders != 256 {
		t.Errorf("cors max_headers = %d", cfg.CORS.MaxHeaders)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load("/nonexistent/formgate.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	if _, err := config.Load(writeConfig(t, "server: [not: a: mapping")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"port out of range", "server:\n  port: 70000\n"},
		{"bad log level", "logging:\n  level: chatty\n"},
		{"bad log format", "logging:\n  format: xml\n"},
		{"metrics path without slash", "metrics:\n  enabled: true\n  path: metrics\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := config.Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FORMGATE_SERVER_PORT", "3000")
	t.Setenv("FORMGATE_AUTH_ENABLED", "true")
	t.Setenv("FORMGATE_LOG_LEVEL", "debug")

	cfg, err := config.Load(writeConfig(t, "server:\n  port: 9090\nauth:\n  enabled: false\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want env override 3000", cfg.Server.Port)
	}
	if !cfg.Auth.Enabled {
		t.Error("auth.enabled not overridden")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestEnvExpansion(t *testing.T) {
	t.Setenv("TEST_SECRET", "expanded-secret")

	cfg, err := config.Load(writeConfig(t, "auth:\n  secret: ${TEST_SECRET}\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.Secret != "expanded-secret" {
		t.Errorf("secret = %q", cfg.Auth.Secret)
	}
}

func TestTableRejectsAuthoringFaults(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"empty array template",
			"endpoints:\n  - path: /a\n    handler: h\n    request:\n      tags: []\n",
		},
		{
			"get with non-string field",
			"endpoints:\n  - path: /a\n    methods: get\n    handler: h\n    request:\n      age: number\n",
		},
		{
			"duplicate path",
			"endpoints:\n  - path: /a\n    handler: h\n  - path: /a\n    handler: h\n",
		},
		{
			"unknown descriptor token",
			"endpoints:\n  - path: /a\n    handler: h\n    request:\n      name: varchar\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load(writeConfig(t, tt.content))
			if err != nil {
				return // some faults already surface at load time
			}
			if _, err := cfg.Table(); err == nil {
				t.Error("expected table build error")
			}
		})
	}
}

func TestEndpointDefaultsToAllMethods(t *testing.T) {
	ec := config.EndpointConfig{Path: "/a", Handler: "h"}
	ep, err := ec.Endpoint()
	if err != nil {
		t.Fatal(err)
	}
	if ep.Methods != endpoint.MethodAll {
		t.Errorf("methods = %q, want all", ep.Methods)
	}
}
