// Copyright (c) 2026 Keymaster Team
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config resolves database settings for wpdatabase.
//
// Values are resolved with the precedence explicit value > environment
// variable > configuration file > built-in default. Environment variable
// names follow the ones used by WordPress installs (DB_HOST, DB_NAME, ...).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Database holds everything needed to open the WordPress database and derive
// table prefixes.
type Database struct {
	Driver                 string `mapstructure:"driver" yaml:"driver"`
	Host                   string `mapstructure:"host" yaml:"host"`
	Database               string `mapstructure:"database" yaml:"database"`
	Username               string `mapstructure:"username" yaml:"username"`
	Password               string `mapstructure:"password" yaml:"password,omitempty"`
	Charset                string `mapstructure:"charset" yaml:"charset"`
	Collation              string `mapstructure:"collation" yaml:"collation"`
	Prefix                 string `mapstructure:"prefix" yaml:"prefix"`
	DSN                    string `mapstructure:"dsn" yaml:"dsn,omitempty"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetimeSeconds int    `mapstructure:"conn_max_lifetime_seconds" yaml:"conn_max_lifetime_seconds"`
	Debug                  bool   `mapstructure:"debug" yaml:"debug"`
	BootDisabled           bool   `mapstructure:"boot_disabled" yaml:"boot_disabled,omitempty"`
}

// Defaults returns the built-in defaults, keyed like the mapstructure tags.
func Defaults() map[string]any {
	return map[string]any{
		"driver":                    "mysql",
		"host":                      "127.0.0.1",
		"charset":                   "utf8mb4",
		"collation":                 "utf8mb4_unicode_ci",
		"prefix":                    "wp_",
		"max_open_conns":            25,
		"max_idle_conns":            25,
		"conn_max_lifetime_seconds": 300,
	}
}

// envBindings maps config keys to the environment variables consulted for
// them, in order of preference.
var envBindings = map[string][]string{
	"driver":                    {"DB_DRIVER"},
	"host":                      {"DB_HOST"},
	"database":                  {"DB_DATABASE", "DB_NAME"},
	"username":                  {"DB_USERNAME", "DB_USER"},
	"password":                  {"DB_PASSWORD"},
	"charset":                   {"DB_CHARSET"},
	"collation":                 {"DB_COLLATE"},
	"prefix":                    {"DB_PREFIX"},
	"dsn":                       {"DB_DSN"},
	"max_open_conns":            {"DB_MAX_OPEN_CONNS"},
	"max_idle_conns":            {"DB_MAX_IDLE_CONNS"},
	"conn_max_lifetime_seconds": {"DB_CONN_MAX_LIFETIME_SECONDS"},
	"debug":                     {"DB_DEBUG"},
}

// Explicit returns the non-zero fields of d keyed like the mapstructure tags.
// These are applied with the highest precedence.
func (d Database) Explicit() map[string]any {
	out := map[string]any{}
	set := func(key, val string) {
		if val != "" {
			out[key] = val
		}
	}
	set("driver", d.Driver)
	set("host", d.Host)
	set("database", d.Database)
	set("username", d.Username)
	set("password", d.Password)
	set("charset", d.Charset)
	set("collation", d.Collation)
	set("prefix", d.Prefix)
	set("dsn", d.DSN)
	if d.MaxOpenConns > 0 {
		out["max_open_conns"] = d.MaxOpenConns
	}
	if d.MaxIdleConns > 0 {
		out["max_idle_conns"] = d.MaxIdleConns
	}
	if d.ConnMaxLifetimeSeconds > 0 {
		out["conn_max_lifetime_seconds"] = d.ConnMaxLifetimeSeconds
	}
	if d.Debug {
		out["debug"] = true
	}
	if d.BootDisabled {
		out["boot_disabled"] = true
	}
	return out
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "wpdb")
		default:
			configDir = "/etc/wpdb"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "wpdb")
	}

	return filepath.Join(configDir, "wpdb.yaml"), nil
}

func newViper(defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return v, nil
}

func decode[T any](v *viper.Viper, explicit map[string]any) (T, error) {
	var c T
	for key, value := range explicit {
		v.Set(key, value)
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// LoadConfig reads defaults, the wpdb.yaml config file (user, system or the
// current directory, or configFile when given), environment variables, the
// flags of cmd and finally explicit values into a T.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, explicit map[string]any, configFile *string) (T, error) {
	var c T
	v, err := newViper(defaults)
	if err != nil {
		return c, err
	}

	v.SetConfigName("wpdb")
	v.SetConfigType("yaml")
	if configFile != nil && *configFile != "" {
		v.SetConfigFile(*configFile)
	}
	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; a malformed one is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	return decode[T](v, explicit)
}

// ResolveDatabase fills the zero fields of explicit from the environment and
// the defaults. No config file is read.
func ResolveDatabase(explicit Database) (Database, error) {
	v, err := newViper(Defaults())
	if err != nil {
		return Database{}, err
	}
	return decode[Database](v, explicit.Explicit())
}

// WriteConfigFile writes c as YAML to the user (or system) config path.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := GetConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// 0600: the file may carry the database password.
	return os.WriteFile(path, data, 0600)
}
