// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

// Package database keeps the set of named connections wpdatabase queries run
// through.
//
// A Manager maps logical names ("default", "main", "blog.2", ...) to a
// Connection: a *bun.DB pool plus a table prefix. Connections that resolve to
// the same driver and DSN share one pool, so registering a connection per blog
// does not open a pool per blog. A process-wide Manager is available through
// Global and can be replaced with SetAsGlobal.
package database

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/uptrace/bun"
)

// DefaultConnection is the name used when a connection is added or fetched
// with an empty name.
const DefaultConnection = "default"

// Manager holds named connections.
type Manager struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	pools       map[string]*bun.DB
	defaultName string
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{
		connections: make(map[string]*Connection),
		pools:       make(map[string]*bun.DB),
		defaultName: DefaultConnection,
	}
}

var (
	globalMu sync.RWMutex
	global   = NewManager()
)

// Global returns the process-wide Manager.
func Global() *Manager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// SetAsGlobal makes m the process-wide Manager returned by Global.
func (m *Manager) SetAsGlobal() {
	globalMu.Lock()
	global = m
	globalMu.Unlock()
}

// AddConnection registers cfg under name, replacing any connection with the
// same name. The pool is opened lazily by database/sql; no round trip is made
// here beyond what the dialect needs.
func (m *Manager) AddConnection(cfg ConnectionConfig, name string) (*Connection, error) {
	if name == "" {
		name = m.DefaultName()
	}
	driverName, dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, fmt.Errorf("database: add connection %q: %w", name, err)
	}
	key := driverName + "|" + dsn

	m.mu.Lock()
	defer m.mu.Unlock()

	db, ok := m.pools[key]
	if !ok {
		db, err = openPool(cfg)
		if err != nil {
			return nil, fmt.Errorf("database: add connection %q: %w", name, err)
		}
		m.pools[key] = db
	}
	conn := &Connection{name: name, config: cfg, db: db, prefix: cfg.Prefix}
	m.connections[name] = conn
	dbLogf("db: registered connection %q (prefix %q)", name, cfg.Prefix)
	return conn, nil
}

// AddDB registers an already opened pool under name. When cfg resolves to a
// DSN the pool is also cached for later AddConnection calls with the same
// settings.
func (m *Manager) AddDB(name string, db *bun.DB, cfg ConnectionConfig) *Connection {
	if name == "" {
		name = m.DefaultName()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if driverName, dsn, err := BuildDSN(cfg); err == nil {
		m.pools[driverName+"|"+dsn] = db
	}
	conn := &Connection{name: name, config: cfg, db: db, prefix: cfg.Prefix}
	m.connections[name] = conn
	return conn
}

// Connection returns the connection registered under name, or the default
// connection when name is empty.
func (m *Manager) Connection(name string) (*Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if name == "" {
		name = m.defaultName
	}
	conn, ok := m.connections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrConnectionNotConfigured, name)
	}
	return conn, nil
}

// HasConnection reports whether name is registered.
func (m *Manager) HasConnection(name string) bool {
	_, err := m.Connection(name)
	return err == nil
}

// DefaultName returns the name of the default connection.
func (m *Manager) DefaultName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultName
}

// SetDefaultConnection changes which registered name is the default.
func (m *Manager) SetDefaultConnection(name string) {
	m.mu.Lock()
	m.defaultName = name
	m.mu.Unlock()
}

// Names returns the registered connection names, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.connections))
	for name := range m.connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every pool and forgets all connections.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for key, db := range m.pools {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", key, err))
		}
	}
	m.pools = make(map[string]*bun.DB)
	m.connections = make(map[string]*Connection)
	return errors.Join(errs...)
}
