/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{port: 8080, sessionTimeout: time.Hour}, false},
		{"tls pair", Config{port: 443, tlsCert: "c.pem", tlsKey: "k.pem"}, false},
		{"cert without key", Config{port: 443, tlsCert: "c.pem"}, true},
		{"key without cert", Config{port: 443, tlsKey: "k.pem"}, true},
		{"port zero", Config{port: 0}, true},
		{"port too high", Config{port: 65536}, true},
		{"negative timeout", Config{port: 8080, sessionTimeout: -time.Second}, true},
		{"timeout disabled", Config{port: 8080, sessionTimeout: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestScheme(t *testing.T) {
	if got := (&Config{}).scheme(); got != "http" {
		t.Fatalf("expected http, got %s", got)
	}
	if got := (&Config{tlsCert: "c", tlsKey: "k"}).scheme(); got != "https" {
		t.Fatalf("expected https, got %s", got)
	}
}

// parseArgs runs the command's flag and environment handling without
// starting the server.
func parseArgs(t *testing.T, args ...string) (*Config, error) {
	t.Helper()

	cfg := &Config{}
	cmd := newCmd(cfg)
	cmd.RunE = func(*cobra.Command, []string) error { return nil }
	cmd.SetArgs(args)

	return cfg, cmd.Execute()
}

// unsetForTest clears key for the duration of the test.
func unsetForTest(t *testing.T, key string) {
	t.Helper()

	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatal(err)
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := parseArgs(t, "--env-file", "")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.bind != "0.0.0.0" || cfg.port != 8080 || cfg.sessionTimeout != time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("CONNECTFOUR_PORT", "9090")
	t.Setenv("CONNECTFOUR_SESSION_TIMEOUT", "5m")
	t.Setenv("CONNECTFOUR_VERBOSE", "true")

	cfg, err := parseArgs(t, "--env-file", "")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.port)
	}
	if cfg.sessionTimeout != 5*time.Minute {
		t.Errorf("expected 5m timeout, got %s", cfg.sessionTimeout)
	}
	if !cfg.verbose {
		t.Error("expected verbose from environment")
	}
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("CONNECTFOUR_BIND", "10.0.0.1")

	cfg, err := parseArgs(t, "--env-file", "", "--bind", "127.0.0.1")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.bind != "127.0.0.1" {
		t.Fatalf("expected flag value, got %s", cfg.bind)
	}
}

func TestBadEnvironmentValue(t *testing.T) {
	t.Setenv("CONNECTFOUR_PORT", "eighty")

	if _, err := parseArgs(t, "--env-file", ""); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}

func TestEnvFile(t *testing.T) {
	unsetForTest(t, "CONNECTFOUR_PREFIX")
	unsetForTest(t, "CONNECTFOUR_PORT")

	path := filepath.Join(t.TempDir(), "connectfour.env")
	if err := os.WriteFile(path, []byte("CONNECTFOUR_PREFIX=/games\nCONNECTFOUR_PORT=7070\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := parseArgs(t, "--env-file", path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.prefix != "/games" || cfg.port != 7070 {
		t.Fatalf("env file not applied: %+v", cfg)
	}
}

func TestEnvFileDoesNotReplaceEnvironment(t *testing.T) {
	t.Setenv("CONNECTFOUR_PORT", "6060")

	path := filepath.Join(t.TempDir(), "connectfour.env")
	if err := os.WriteFile(path, []byte("CONNECTFOUR_PORT=7070\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := parseArgs(t, "--env-file", path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.port != 6060 {
		t.Fatalf("expected environment to win over env file, got %d", cfg.port)
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	if err := loadEnvFile(missing, false); err != nil {
		t.Fatalf("missing default env file should be ignored, got %v", err)
	}
	if err := loadEnvFile(missing, true); err == nil {
		t.Fatal("missing explicit env file should be an error")
	}
}
