// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// Connection is a named handle on a pool plus the table prefix its queries use.
type Connection struct {
	name   string
	config ConnectionConfig
	db     *bun.DB

	mu     sync.RWMutex
	prefix string
}

// Name returns the logical name the connection was registered under.
func (c *Connection) Name() string { return c.name }

// DB returns the underlying pool. Several connections may share one pool.
func (c *Connection) DB() *bun.DB { return c.db }

// Config returns the configuration the connection was added with.
func (c *Connection) Config() ConnectionConfig { return c.config }

// TablePrefix returns the current table prefix.
func (c *Connection) TablePrefix() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prefix
}

// SetTablePrefix changes the prefix used by subsequent queries.
func (c *Connection) SetTablePrefix(prefix string) {
	c.mu.Lock()
	c.prefix = prefix
	c.mu.Unlock()
}

// Table returns the prefixed name of table.
func (c *Connection) Table(table string) string {
	return c.TablePrefix() + table
}

// HasTable reports whether the physical table name exists in the current
// database or schema. name is used as given; callers prefix it with Table.
func (c *Connection) HasTable(ctx context.Context, name string) (bool, error) {
	var query string
	switch c.db.Dialect().Name() {
	case dialect.SQLite:
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	case dialect.PG:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?"
	default:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
	}
	var n int
	if err := QueryRawInto(ctx, c.db, &n, query, name); err != nil {
		return false, fmt.Errorf("database: check table %s: %w", name, err)
	}
	return n > 0, nil
}

// execRawProvider is a small interface used to accept either *bun.DB or *bun.Tx
// since both expose NewRaw(...).* methods returning *bun.RawQuery.
type execRawProvider interface {
	NewRaw(query string, args ...interface{}) *bun.RawQuery
}

// QueryRawInto runs a raw query and scans the result into dest using Bun's RawQuery.Scan.
func QueryRawInto(ctx context.Context, exec execRawProvider, dest interface{}, query string, args ...interface{}) error {
	return exec.NewRaw(query, args...).Scan(ctx, dest)
}
