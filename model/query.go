// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/toeirei/wpdatabase/database"
	"github.com/uptrace/bun"
)

// Selectors drive the global scopes of a query. The zero value applies none.
type Selectors struct {
	// PostTypes restricts Post queries to these post types.
	PostTypes []string
	// Taxonomies restricts TermTaxonomy queries to these taxonomies.
	Taxonomies []string
	// Roles restricts User queries to users whose capabilities mention any
	// of these roles.
	Roles []string
	// BlogID, when HasBlog is set, restricts User queries to members of
	// that blog.
	BlogID  int64
	HasBlog bool
}

type queryOptions struct {
	name string
	conn *database.Connection
	sel  Selectors
}

// QueryOption configures a query, an insert, an update or a delete.
type QueryOption func(*queryOptions)

// On runs the query on the named connection instead of the default one.
// It has no effect for entities bound to the main connection.
func On(name string) QueryOption {
	return func(o *queryOptions) { o.name = name }
}

// Using runs the query on conn.
func Using(conn *database.Connection) QueryOption {
	return func(o *queryOptions) { o.conn = conn }
}

// WithSelectors replaces all selectors.
func WithSelectors(sel Selectors) QueryOption {
	return func(o *queryOptions) { o.sel = sel }
}

// WithPostType sets the post types of the post type scope.
func WithPostType(types ...string) QueryOption {
	return func(o *queryOptions) { o.sel.PostTypes = types }
}

// WithTaxonomy sets the taxonomies of the taxonomy scope.
func WithTaxonomy(names ...string) QueryOption {
	return func(o *queryOptions) { o.sel.Taxonomies = names }
}

// WithRoleScope sets the roles of the user role scope.
func WithRoleScope(roles ...string) QueryOption {
	return func(o *queryOptions) { o.sel.Roles = roles }
}

// WithBlogScope sets the blog of the user blog scope.
func WithBlogScope(id int64) QueryOption {
	return func(o *queryOptions) {
		o.sel.BlogID = id
		o.sel.HasBlog = true
	}
}

func connectionFor(res Resolver, def Definition, o queryOptions) (*database.Connection, error) {
	switch {
	case def.Main && res != nil:
		return res.Connection(res.MainConnection())
	case o.conn != nil:
		return o.conn, nil
	case res != nil:
		return res.Connection(o.name)
	}
	return nil, ErrUnbound
}

type modifier func(sq *bun.SelectQuery, conn *database.Connection) *bun.SelectQuery

// Query selects entities of type T. Methods modify the query in place and
// return it for chaining; nothing runs until All, First, Find, Count or
// Exists.
type Query[T Entity] struct {
	res     Resolver
	opts    queryOptions
	mods    []modifier
	scopes  []Scope
	without map[string]bool
	limit   int
	offset  int
}

// NewQuery starts a query for T.
func NewQuery[T Entity](res Resolver, opts ...QueryOption) *Query[T] {
	q := &Query[T]{res: res}
	for _, opt := range opts {
		opt(&q.opts)
	}
	return q
}

func (q *Query[T]) definition() Definition {
	return zeroDefinition[T]()
}

func (q *Query[T]) clone() *Query[T] {
	c := *q
	c.mods = slices.Clone(q.mods)
	c.scopes = slices.Clone(q.scopes)
	c.without = maps.Clone(q.without)
	return &c
}

// Connection returns the connection the query runs on.
func (q *Query[T]) Connection() (*database.Connection, error) {
	return connectionFor(q.res, q.definition(), q.opts)
}

// Where adds a condition. Use ?TableAlias to qualify columns.
func (q *Query[T]) Where(query string, args ...any) *Query[T] {
	q.mods = append(q.mods, func(sq *bun.SelectQuery, _ *database.Connection) *bun.SelectQuery {
		return sq.Where(query, args...)
	})
	return q
}

// WhereIn restricts column to values. No values matches nothing.
func (q *Query[T]) WhereIn(column string, values ...any) *Query[T] {
	q.mods = append(q.mods, func(sq *bun.SelectQuery, _ *database.Connection) *bun.SelectQuery {
		if len(values) == 0 {
			return sq.Where("1 = 0")
		}
		return sq.Where("?TableAlias.? IN (?)", bun.Ident(column), bun.In(values))
	})
	return q
}

// Order adds ORDER BY columns, for example "post_date DESC".
func (q *Query[T]) Order(orders ...string) *Query[T] {
	q.mods = append(q.mods, func(sq *bun.SelectQuery, _ *database.Connection) *bun.SelectQuery {
		return sq.Order(orders...)
	})
	return q
}

// OrderExpr adds a raw ORDER BY expression.
func (q *Query[T]) OrderExpr(query string, args ...any) *Query[T] {
	q.mods = append(q.mods, func(sq *bun.SelectQuery, _ *database.Connection) *bun.SelectQuery {
		return sq.OrderExpr(query, args...)
	})
	return q
}

// Limit caps the number of rows returned by All.
func (q *Query[T]) Limit(n int) *Query[T] {
	q.limit = n
	return q
}

// Offset skips n rows.
func (q *Query[T]) Offset(n int) *Query[T] {
	q.offset = n
	return q
}

// Modify gives direct access to the bun query, for joins and the like.
// conn is the connection the query runs on.
func (q *Query[T]) Modify(fn func(sq *bun.SelectQuery, conn *database.Connection) *bun.SelectQuery) *Query[T] {
	q.mods = append(q.mods, fn)
	return q
}

// Apply adds named scopes.
func (q *Query[T]) Apply(scopes ...Scope) *Query[T] {
	q.scopes = append(q.scopes, scopes...)
	return q
}

// WithoutGlobalScope removes global scopes by name.
func (q *Query[T]) WithoutGlobalScope(names ...string) *Query[T] {
	if q.without == nil {
		q.without = make(map[string]bool, len(names))
	}
	for _, name := range names {
		q.without[name] = true
	}
	return q
}

func (q *Query[T]) activeScopes() []Scope {
	replaced := make(map[string]bool)
	for _, s := range q.scopes {
		if s.replaces != "" {
			replaced[s.replaces] = true
		}
	}
	var out []Scope
	var zero T
	if g, ok := any(zero).(globalScoped); ok {
		for _, s := range g.globalScopes(q.opts.sel) {
			if q.without[s.name] || replaced[s.name] {
				continue
			}
			out = append(out, s)
		}
	}
	return append(out, q.scopes...)
}

func (q *Query[T]) build(model any, paginate bool) (*bun.SelectQuery, *database.Connection, error) {
	conn, err := q.Connection()
	if err != nil {
		return nil, nil, err
	}
	def := q.definition()
	sq := conn.DB().NewSelect().
		Model(model).
		ModelTableExpr("? AS ?", bun.Ident(conn.Table(def.Table)), bun.Ident(def.Alias))
	for _, s := range q.activeScopes() {
		sq = s.apply(sq, conn)
	}
	for _, m := range q.mods {
		sq = m(sq, conn)
	}
	if paginate {
		if q.limit > 0 {
			sq = sq.Limit(q.limit)
		}
		if q.offset > 0 {
			sq = sq.Offset(q.offset)
		}
	}
	return sq, conn, nil
}

// All runs the query and returns every matching entity, bound to the
// query's connection.
func (q *Query[T]) All(ctx context.Context) ([]T, error) {
	var rows []T
	sq, conn, err := q.build(&rows, true)
	if err != nil {
		return nil, err
	}
	// Select every column so scanonly fields are filled too.
	if err := sq.ColumnExpr("?TableAlias.*").Scan(ctx); err != nil {
		return nil, fmt.Errorf("model: select %s: %w", q.definition().Table, err)
	}
	for _, row := range rows {
		row.base().bind(conn, q.res)
	}
	return rows, nil
}

// First returns the first matching entity or ErrNotFound.
func (q *Query[T]) First(ctx context.Context) (T, error) {
	var zero T
	rows, err := q.clone().Limit(1).All(ctx)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, ErrNotFound
	}
	return rows[0], nil
}

// Find returns the entity whose primary key is id.
func (q *Query[T]) Find(ctx context.Context, id any) (T, error) {
	var zero T
	pk := q.definition().PrimaryKey
	if pk == "" {
		return zero, ErrNoPrimaryKey
	}
	return q.clone().Where("?TableAlias.? = ?", bun.Ident(pk), id).First(ctx)
}

// Count returns the number of matching rows, ignoring Limit and Offset.
func (q *Query[T]) Count(ctx context.Context) (int, error) {
	var zero T
	sq, _, err := q.build(zero, false)
	if err != nil {
		return 0, err
	}
	n, err := sq.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("model: count %s: %w", q.definition().Table, err)
	}
	return n, nil
}

// Exists reports whether any row matches.
func (q *Query[T]) Exists(ctx context.Context) (bool, error) {
	var zero T
	sq, _, err := q.build(zero, false)
	if err != nil {
		return false, err
	}
	return sq.Exists(ctx)
}

// String returns the SQL of the query, or the error that prevents building it.
func (q *Query[T]) String() string {
	var zero T
	sq, _, err := q.build(zero, true)
	if err != nil {
		return "error: " + err.Error()
	}
	return sq.ColumnExpr("?TableAlias.*").String()
}
