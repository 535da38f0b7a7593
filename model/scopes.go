// Copyright (c) 2026 Keymaster Team
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"time"

	"github.com/toeirei/wpdatabase/database"
	"github.com/toeirei/wpdatabase/wpdb"
	"github.com/uptrace/bun"
)

// Names of the global scopes, for WithoutGlobalScope.
const (
	ScopePostType = "post_type"
	ScopeTaxonomy = "taxonomy"
	ScopeUserRole = "user_role"
	ScopeUserBlog = "user_blog"
)

// Scope is a reusable set of conditions. Global scopes are added by the
// entity from the query's Selectors; named scopes are added with Apply.
type Scope struct {
	name     string
	replaces string
	apply    func(sq *bun.SelectQuery, conn *database.Connection) *bun.SelectQuery
}

// globalScoped is implemented by entities with global scopes.
type globalScoped interface {
	globalScopes(sel Selectors) []Scope
}

// Published keeps posts with status "publish", and "future" posts whose date
// is not after at. at is bound as a time so the dialect formats it like the
// stored dates.
func Published(at time.Time) Scope {
	return Scope{apply: func(sq *bun.SelectQuery, _ *database.Connection) *bun.SelectQuery {
		return sq.WhereGroup(" AND ", func(g *bun.SelectQuery) *bun.SelectQuery {
			return g.Where("?TableAlias.post_status = ?", "publish").
				WhereOr("?TableAlias.post_status = ? AND ?TableAlias.post_date <= ?", "future", at)
		})
	}}
}

// Status keeps posts with the given status: a string or a []string.
// Other argument types leave the query unchanged.
func Status(status any) Scope {
	return columnScope("post_status", status)
}

// Type keeps posts of the given type: a string or a []string. Other
// argument types leave the query unchanged.
func Type(postType any) Scope {
	return columnScope("post_type", postType)
}

func columnScope(column string, v any) Scope {
	return Scope{apply: func(sq *bun.SelectQuery, _ *database.Connection) *bun.SelectQuery {
		return whereValues(sq, column, v)
	}}
}

func whereValues(sq *bun.SelectQuery, column string, v any) *bun.SelectQuery {
	switch x := v.(type) {
	case string:
		return sq.Where("?TableAlias.? = ?", bun.Ident(column), x)
	case []string:
		if len(x) == 0 {
			return sq.Where("1 = 0")
		}
		if len(x) == 1 {
			return sq.Where("?TableAlias.? = ?", bun.Ident(column), x[0])
		}
		return sq.Where("?TableAlias.? IN (?)", bun.Ident(column), bun.In(x))
	}
	return sq
}

// Role keeps users whose capabilities mention any of the given roles: a
// string or a []string. Other argument types, and an empty list, leave the
// query unchanged.
func Role(roles any) Scope {
	var list []string
	switch x := roles.(type) {
	case string:
		list = []string{x}
	case []string:
		list = x
	}
	return Scope{apply: func(sq *bun.SelectQuery, conn *database.Connection) *bun.SelectQuery {
		return whereRoles(sq, conn, list)
	}}
}

// ForBlog keeps users that have capabilities on blog id. It replaces the
// blog global scope.
func ForBlog(id int64) Scope {
	return Scope{replaces: ScopeUserBlog, apply: func(sq *bun.SelectQuery, conn *database.Connection) *bun.SelectQuery {
		return whereBlog(sq, conn, id)
	}}
}

// capabilities meta alias inside EXISTS subqueries.
const capAlias = "cap"

func userMetaExists(conn *database.Connection) *bun.SelectQuery {
	return conn.DB().NewSelect().
		ColumnExpr("1").
		TableExpr("? AS ?", bun.Ident(conn.Table("usermeta")), bun.Ident(capAlias)).
		Where("?.user_id = ?.?", bun.Ident(capAlias), bun.Ident(userAlias), bun.Ident("ID"))
}

func whereRoles(sq *bun.SelectQuery, conn *database.Connection, roles []string) *bun.SelectQuery {
	if len(roles) == 0 {
		return sq
	}
	sub := userMetaExists(conn).
		Where("?.meta_key LIKE ?", bun.Ident(capAlias), "%capabilities").
		WhereGroup(" AND ", func(g *bun.SelectQuery) *bun.SelectQuery {
		for i, role := range roles {
			if i == 0 {
				g = g.Where("?.meta_value LIKE ?", bun.Ident(capAlias), "%"+role+"%")
				continue
			}
			g = g.WhereOr("?.meta_value LIKE ?", bun.Ident(capAlias), "%"+role+"%")
		}
		return g
	})
	return sq.Where("EXISTS (?)", sub)
}

// CapabilitiesKey returns the usermeta key holding a user's roles on the blog
// whose tables use prefix.
func CapabilitiesKey(prefix string) string {
	return prefix + "capabilities"
}

func whereBlog(sq *bun.SelectQuery, conn *database.Connection, id int64) *bun.SelectQuery {
	key := CapabilitiesKey(wpdb.TablePrefix(conn.TablePrefix(), id))
	sub := userMetaExists(conn).Where("?.meta_key = ?", bun.Ident(capAlias), key)
	return sq.Where("EXISTS (?)", sub)
}
