// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	// SQL drivers for the supported dialects.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// sqlOpenFunc allows tests to override database opening behavior.
var sqlOpenFunc = sql.Open

// ConnectionConfig describes one named connection. Connections that resolve
// to the same driver and DSN share a single pool.
type ConnectionConfig struct {
	Driver    string
	Host      string
	Database  string
	Username  string
	Password  string
	Charset   string
	Collation string
	Prefix    string
	// DSN, when set, is used verbatim instead of being built from the fields above.
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 60 * time.Second
)

// normalizeDriver maps the driver aliases accepted in configuration to the
// canonical names used by this package.
func normalizeDriver(driver string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "mysql", "mariadb":
		return "mysql", nil
	case "pgsql", "postgres", "postgresql":
		return "pgsql", nil
	case "sqlite", "sqlite3":
		return "sqlite", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
}

// BuildDSN returns the driver name understood by database/sql and the DSN for
// cfg. It fails with ErrMissingDatabaseName when neither a DSN nor a database
// name is given.
func BuildDSN(cfg ConnectionConfig) (driverName, dsn string, err error) {
	driver, err := normalizeDriver(cfg.Driver)
	if err != nil {
		return "", "", err
	}
	if cfg.DSN == "" && cfg.Database == "" {
		return "", "", ErrMissingDatabaseName
	}

	switch driver {
	case "mysql":
		if cfg.DSN != "" {
			return "mysql", cfg.DSN, nil
		}
		mc := mysql.NewConfig()
		mc.User = cfg.Username
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = cfg.Host
		mc.DBName = cfg.Database
		mc.ParseTime = true
		if cfg.Collation != "" {
			mc.Collation = cfg.Collation
		}
		if cfg.Charset != "" {
			mc.Params = map[string]string{"charset": cfg.Charset}
		}
		return "mysql", mc.FormatDSN(), nil
	case "pgsql":
		// The pgx stdlib registers driver name "pgx".
		if cfg.DSN != "" {
			return "pgx", cfg.DSN, nil
		}
		u := url.URL{
			Scheme:   "postgres",
			Host:     cfg.Host,
			Path:     "/" + cfg.Database,
			RawQuery: "sslmode=disable",
		}
		if cfg.Username != "" {
			u.User = url.UserPassword(cfg.Username, cfg.Password)
		}
		return "pgx", u.String(), nil
	default:
		if cfg.DSN != "" {
			return "sqlite", cfg.DSN, nil
		}
		return "sqlite", cfg.Database, nil
	}
}

func dialectFor(driverName string) schema.Dialect {
	switch driverName {
	case "mysql":
		return mysqldialect.New()
	case "pgx":
		return pgdialect.New()
	default:
		return sqlitedialect.New()
	}
}

// openPool opens a sql.DB for cfg and wraps it in a *bun.DB.
func openPool(cfg ConnectionConfig) (*bun.DB, error) {
	driverName, dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	sqlDB, err := sqlOpenFunc(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdleConns
	}
	// A plain ":memory:" SQLite database is private to one connection.
	if driverName == "sqlite" && dsn == ":memory:" {
		maxOpen = 1
		maxIdle = 1
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = defaultConnMaxLifetime
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
	sqlDB.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	bdb := bun.NewDB(sqlDB, dialectFor(driverName), bun.WithDiscardUnknownColumns())
	if debugEnabled {
		bdb.AddQueryHook(queryLogger{pool: driverName})
	}
	dbLogf("db: opened %s driver in %s (conn max open=%d, idle=%d, maxLifetime=%s)", driverName, time.Since(start), maxOpen, maxIdle, lifetime)
	return bdb, nil
}
