// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

// Package wpdb registers the connections a WordPress multisite install needs.
//
// A Registry boots once: it makes sure the database Manager has a default
// connection, adds the "main" connection on the base table prefix and one
// "blog.<id>" connection per blog found in the blogs table. All connections
// share the same pool and differ only in their table prefix.
package wpdb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/toeirei/wpdatabase/container"
	"github.com/toeirei/wpdatabase/database"
	"github.com/toeirei/wpdatabase/internal/config"
	"github.com/toeirei/wpdatabase/internal/logging"
	"github.com/uptrace/bun"
)

// Config holds the database settings. Zero fields are filled from the
// environment and then from defaults.
type Config = config.Database

// DefaultPrefix is the base table prefix used when none is configured.
const DefaultPrefix = "wp_"

// Runtime is the host application's view of the running WordPress install.
// It is optional; without it the configured prefix is used and blog 1 is
// assumed current.
type Runtime interface {
	// BasePrefix returns the prefix of the network-wide tables.
	BasePrefix() string
	// IsMultisite reports whether the install runs as a network.
	IsMultisite() bool
	// CurrentBlogID returns the blog the current request is served for.
	CurrentBlogID() int64
}

// Registry owns the connection set of one WordPress install.
type Registry struct {
	cfg       Config
	manager   *database.Manager
	runtime   Runtime
	container *container.Container

	mu     sync.Mutex
	booted bool

	idsMu     sync.Mutex
	ids       []int64
	idsLoaded bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithRuntime attaches the host runtime.
func WithRuntime(rt Runtime) Option {
	return func(r *Registry) { r.runtime = rt }
}

// WithManager makes the registry register its connections on m instead of
// the global database Manager.
func WithManager(m *database.Manager) Option {
	return func(r *Registry) { r.manager = m }
}

// WithContainer records the container the registry was built from.
func WithContainer(c *container.Container) Option {
	return func(r *Registry) { r.container = c }
}

// New resolves cfg and returns a booted Registry, unless cfg.BootDisabled is
// set. The first Registry built becomes the one returned by Instance.
func New(ctx context.Context, cfg Config, opts ...Option) (*Registry, error) {
	resolved, err := config.ResolveDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("wpdb: resolve config: %w", err)
	}
	r := &Registry{cfg: resolved}
	for _, opt := range opts {
		opt(r)
	}
	if r.manager == nil {
		r.manager = database.Global()
	}
	if resolved.Debug {
		database.SetDebug(true)
	}
	if !resolved.BootDisabled {
		if err := r.Boot(ctx); err != nil {
			return nil, err
		}
	}
	setInstanceIfNil(r)
	return r, nil
}

// Boot registers the default, main and blog connections. Only the first
// successful call does any work.
func (r *Registry) Boot(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.booted {
		return nil
	}

	base := r.BasePrefix()
	if _, err := r.manager.Connection(""); err != nil {
		if !errors.Is(err, database.ErrConnectionNotConfigured) {
			return err
		}
		if _, err := r.manager.AddConnection(r.connectionConfig(base), ""); err != nil {
			return fmt.Errorf("wpdb: default connection: %w", err)
		}
		r.manager.SetAsGlobal()
	}

	if _, err := r.manager.AddConnection(r.connectionConfig(base), MainConnection()); err != nil {
		return fmt.Errorf("wpdb: main connection: %w", err)
	}

	ids, err := r.BlogIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := r.manager.AddConnection(r.connectionConfig(r.BlogPrefix(id)), BlogConnection(id)); err != nil {
			return fmt.Errorf("wpdb: blog %d connection: %w", id, err)
		}
	}

	if r.runtime != nil && r.runtime.IsMultisite() {
		def, err := r.manager.Connection("")
		if err != nil {
			return err
		}
		def.SetTablePrefix(r.CurrentBlogPrefix())
	}

	r.booted = true
	logging.Debugf("wpdb: booted with %d blog connection(s), base prefix %q", len(ids), base)
	return nil
}

// Booted reports whether Boot has completed.
func (r *Registry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

func (r *Registry) connectionConfig(prefix string) database.ConnectionConfig {
	return database.ConnectionConfig{
		Driver:          r.cfg.Driver,
		Host:            r.cfg.Host,
		Database:        r.cfg.Database,
		Username:        r.cfg.Username,
		Password:        r.cfg.Password,
		Charset:         r.cfg.Charset,
		Collation:       r.cfg.Collation,
		Prefix:          prefix,
		DSN:             r.cfg.DSN,
		MaxOpenConns:    r.cfg.MaxOpenConns,
		MaxIdleConns:    r.cfg.MaxIdleConns,
		ConnMaxLifetime: time.Duration(r.cfg.ConnMaxLifetimeSeconds) * time.Second,
	}
}

// BasePrefix returns the prefix of the network-wide tables: the runtime's if
// one is attached, else the configured one, else DefaultPrefix.
func (r *Registry) BasePrefix() string {
	if r.runtime != nil {
		if p := r.runtime.BasePrefix(); p != "" {
			return p
		}
	}
	if r.cfg.Prefix != "" {
		return r.cfg.Prefix
	}
	return DefaultPrefix
}

// BlogPrefix returns the table prefix of blog id.
func (r *Registry) BlogPrefix(id int64) string {
	return TablePrefix(r.BasePrefix(), id)
}

// CurrentBlogPrefix returns the table prefix of the blog the runtime reports
// as current, or of blog 1 without a runtime.
func (r *Registry) CurrentBlogPrefix() string {
	id := int64(1)
	if r.runtime != nil {
		id = r.runtime.CurrentBlogID()
	}
	return r.BlogPrefix(id)
}

// TablePrefix derives a blog's prefix from the base prefix. Blogs 0 and 1
// use the base prefix.
func TablePrefix(base string, id int64) string {
	if id == 0 || id == 1 {
		return base
	}
	return base + strconv.FormatInt(id, 10) + "_"
}

// BlogIDs returns the ids in the blogs table in ascending order. The result
// is read once and cached. A missing blogs table means a single-site install
// and yields no ids.
func (r *Registry) BlogIDs(ctx context.Context) ([]int64, error) {
	r.idsMu.Lock()
	defer r.idsMu.Unlock()
	if r.idsLoaded {
		return r.ids, nil
	}

	conn, err := r.manager.Connection(MainConnection())
	if errors.Is(err, database.ErrConnectionNotConfigured) {
		conn, err = r.manager.Connection("")
	}
	if err != nil {
		return nil, err
	}

	table := conn.Table("blogs")
	exists, err := conn.HasTable(ctx, table)
	if err != nil {
		return nil, err
	}
	var ids []int64
	if exists {
		err := conn.DB().NewSelect().
			TableExpr("?", bun.Ident(table)).
			Column("blog_id").
			OrderExpr("blog_id ASC").
			Scan(ctx, &ids)
		if err != nil {
			return nil, fmt.Errorf("wpdb: list blogs: %w", err)
		}
	}
	r.ids = ids
	r.idsLoaded = true
	return ids, nil
}

// Connection returns a registered connection by name. The empty name is the
// ambient default connection.
func (r *Registry) Connection(name string) (*database.Connection, error) {
	return r.manager.Connection(name)
}

// MainConnection returns the name of the main connection. It is a method so
// a Registry can be handed to code that only needs connection lookup.
func (r *Registry) MainConnection() string {
	return MainConnection()
}

// Manager returns the Manager the registry registers connections on.
func (r *Registry) Manager() *database.Manager { return r.manager }

// Config returns the resolved configuration.
func (r *Registry) Config() Config { return r.cfg }

// Container returns the container the registry was built from, if any.
func (r *Registry) Container() *container.Container { return r.container }
