// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	cfg "github.com/toeirei/wpdatabase/internal/config"
)

func clearDBEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"DB_DRIVER", "DB_HOST", "DB_DATABASE", "DB_NAME", "DB_USERNAME", "DB_USER",
		"DB_PASSWORD", "DB_CHARSET", "DB_COLLATE", "DB_PREFIX", "DB_DSN", "DB_DEBUG",
	} {
		t.Setenv(name, "")
	}
}

func TestResolveDatabase_Defaults(t *testing.T) {
	clearDBEnv(t)

	d, err := cfg.ResolveDatabase(cfg.Database{})
	if err != nil {
		t.Fatalf("ResolveDatabase: %v", err)
	}
	if d.Driver != "mysql" || d.Host != "127.0.0.1" || d.Prefix != "wp_" {
		t.Fatalf("unexpected defaults: %+v", d)
	}
	if d.Charset != "utf8mb4" || d.Collation != "utf8mb4_unicode_ci" {
		t.Fatalf("unexpected charset/collation: %q/%q", d.Charset, d.Collation)
	}
	if d.Database != "" {
		t.Fatalf("expected no database name by default, got %q", d.Database)
	}
	if d.MaxOpenConns != 25 || d.ConnMaxLifetimeSeconds != 300 {
		t.Fatalf("unexpected pool defaults: %+v", d)
	}
}

func TestResolveDatabase_EnvOverridesDefault(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "wordpress")
	t.Setenv("DB_USER", "wp")
	t.Setenv("DB_PREFIX", "site_")
	t.Setenv("DB_COLLATE", "utf8mb4_general_ci")

	d, err := cfg.ResolveDatabase(cfg.Database{})
	if err != nil {
		t.Fatalf("ResolveDatabase: %v", err)
	}
	if d.Host != "db.internal" || d.Database != "wordpress" || d.Username != "wp" {
		t.Fatalf("env not applied: %+v", d)
	}
	if d.Prefix != "site_" {
		t.Fatalf("expected prefix from env, got %q", d.Prefix)
	}
	if d.Collation != "utf8mb4_general_ci" {
		t.Fatalf("expected collation from DB_COLLATE, got %q", d.Collation)
	}
}

func TestResolveDatabase_PreferredEnvName(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("DB_DATABASE", "primary")
	t.Setenv("DB_NAME", "secondary")

	d, err := cfg.ResolveDatabase(cfg.Database{})
	if err != nil {
		t.Fatalf("ResolveDatabase: %v", err)
	}
	if d.Database != "primary" {
		t.Fatalf("expected DB_DATABASE to win over DB_NAME, got %q", d.Database)
	}
}

func TestResolveDatabase_ExplicitWins(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("DB_HOST", "from-env")
	t.Setenv("DB_DATABASE", "envdb")

	d, err := cfg.ResolveDatabase(cfg.Database{Host: "explicit", MaxOpenConns: 3})
	if err != nil {
		t.Fatalf("ResolveDatabase: %v", err)
	}
	if d.Host != "explicit" {
		t.Fatalf("explicit host should win, got %q", d.Host)
	}
	if d.Database != "envdb" {
		t.Fatalf("unset explicit field should fall back to env, got %q", d.Database)
	}
	if d.MaxOpenConns != 3 {
		t.Fatalf("expected explicit pool size, got %d", d.MaxOpenConns)
	}
}

func TestLoadConfig_ReadsExplicitFile(t *testing.T) {
	clearDBEnv(t)
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	yml := "driver: sqlite\ndatabase: ./wp.db\nprefix: blog_\n"
	file := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(file, []byte(yml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	d, err := cfg.LoadConfig[cfg.Database](&cobra.Command{}, cfg.Defaults(), nil, &file)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if d.Driver != "sqlite" || d.Database != "./wp.db" || d.Prefix != "blog_" {
		t.Fatalf("file values not loaded: %+v", d)
	}
	if d.Host != "127.0.0.1" {
		t.Fatalf("defaults should fill unset keys, got host %q", d.Host)
	}
}

func TestLoadConfig_FlagOverridesFile(t *testing.T) {
	clearDBEnv(t)
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	file := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(file, []byte("host: filehost\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cmd := &cobra.Command{}
	cmd.Flags().String("host", "", "")
	if err := cmd.Flags().Set("host", "flaghost"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	d, err := cfg.LoadConfig[cfg.Database](cmd, cfg.Defaults(), nil, &file)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if d.Host != "flaghost" {
		t.Fatalf("expected flag to override file, got %q", d.Host)
	}
}

func TestWriteConfigFile_CreatesFile(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("HOME", tmp)

	c := cfg.Database{Driver: "mysql", Database: "wordpress", Prefix: "wp_"}
	if err := cfg.WriteConfigFile(&c, false); err != nil {
		t.Fatalf("WriteConfigFile failed: %v", err)
	}

	path, err := cfg.GetConfigPath(false)
	if err != nil {
		t.Fatalf("GetConfigPath failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file at %s, stat error: %v", path, err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 permissions, got %v", info.Mode().Perm())
	}
}
