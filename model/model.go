// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model maps the WordPress tables to Go types.
//
// Every entity embeds Base and describes itself with a Definition. Queries
// are built with NewQuery (or the per-entity helpers such as Posts) and run
// on a connection taken from a Resolver, normally a *wpdb.Registry. Entities
// declared Main always use the main connection; the others use the
// connection selected for the query, or the ambient default one.
//
// Relations are exposed as ToOne and ToMany descriptors. Nothing is loaded
// until Get is called; the result is then cached on the owning entity until
// ForgetRelation or ForgetRelations is called.
package model

import (
	"errors"
	"sort"

	"github.com/toeirei/wpdatabase/database"
)

var (
	// ErrNotFound is returned by First and Find when no row matches.
	ErrNotFound = errors.New("model: not found")
	// ErrNoPrimaryKey is returned for operations that need a key on an entity
	// without one.
	ErrNoPrimaryKey = errors.New("model: entity has no primary key")
	// ErrUnbound is returned when no connection can be determined, for example
	// when loading a relation of an entity that was neither loaded nor saved.
	ErrUnbound = errors.New("model: entity is not bound to a connection")
)

// Resolver looks up named connections. *wpdb.Registry implements it.
type Resolver interface {
	Connection(name string) (*database.Connection, error)
	MainConnection() string
}

// Cast names the coercion applied to a column.
type Cast string

const (
	CastInteger    Cast = "integer"
	CastString     Cast = "string"
	CastBoolean    Cast = "boolean"
	CastDatetime   Cast = "datetime"
	CastSerialized Cast = "serialized"
	CastYesNo      Cast = "yesno"
)

// Definition describes how an entity maps to its table.
type Definition struct {
	// Table is the unprefixed table name.
	Table string
	// Alias is the table alias used in queries; it matches the bun model tag.
	Alias string
	// PrimaryKey is empty for tables without a single-column key.
	PrimaryKey   string
	Incrementing bool
	// CreatedAt and UpdatedAt name the timestamp columns, empty when the
	// table does not track them.
	CreatedAt string
	UpdatedAt string
	// Main entities live in the network-wide tables and always use the main
	// connection.
	Main  bool
	Casts map[string]Cast
}

// Entity is implemented by every model type. Definition must not use its
// receiver so it can be called on a nil pointer.
type Entity interface {
	Definition() Definition
	base() *Base
}

// Base carries the per-instance state of an entity: the connection it was
// loaded from or saved to, and its relation cache.
type Base struct {
	conn      *database.Connection
	res       Resolver
	relations map[string]any
}

func (b *Base) base() *Base { return b }

func (b *Base) bind(conn *database.Connection, res Resolver) {
	b.conn = conn
	b.res = res
}

// Connection returns the connection the entity is bound to, or nil.
func (b *Base) Connection() *database.Connection { return b.conn }

// RelationLoaded reports whether name is cached.
func (b *Base) RelationLoaded(name string) bool {
	_, ok := b.relations[name]
	return ok
}

// Relations returns the names of the cached relations, sorted.
func (b *Base) Relations() []string {
	names := make([]string, 0, len(b.relations))
	for name := range b.relations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForgetRelation drops name from the cache; the next Get queries again.
func (b *Base) ForgetRelation(name string) {
	delete(b.relations, name)
}

// ForgetRelations empties the cache.
func (b *Base) ForgetRelations() {
	b.relations = nil
}

func (b *Base) cached(name string) (any, bool) {
	v, ok := b.relations[name]
	return v, ok
}

func (b *Base) cache(name string, v any) {
	if b.relations == nil {
		b.relations = make(map[string]any)
	}
	b.relations[name] = v
}

// Bind attaches e to conn, as if it had been loaded from it. res is used for
// the main connection of related entities.
func Bind(e Entity, conn *database.Connection, res Resolver) {
	e.base().bind(conn, res)
}
