// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"context"
	"errors"

	"github.com/toeirei/wpdatabase/database"
	"github.com/uptrace/bun"
)

// ToOne describes a relation to at most one entity.
type ToOne[T Entity] struct {
	owner *Base
	name  string
	query *Query[T]
}

// Name returns the cache key of the relation.
func (r *ToOne[T]) Name() string { return r.name }

// Query returns a copy of the relation's query for further constraints.
// Results of the copy are not cached.
func (r *ToOne[T]) Query() *Query[T] { return r.query.clone() }

// Get loads the related entity, or returns the cached one. A missing entity
// is reported as the zero T with a nil error.
func (r *ToOne[T]) Get(ctx context.Context) (T, error) {
	if v, ok := r.owner.cached(r.name); ok {
		if e, ok := v.(T); ok {
			return e, nil
		}
	}
	e, err := r.query.clone().First(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return e, err
	}
	r.owner.cache(r.name, e)
	return e, nil
}

// ToMany describes a relation to any number of entities.
type ToMany[T Entity] struct {
	owner *Base
	name  string
	query *Query[T]
}

// Name returns the cache key of the relation.
func (r *ToMany[T]) Name() string { return r.name }

// Query returns a copy of the relation's query for further constraints.
// Results of the copy are not cached.
func (r *ToMany[T]) Query() *Query[T] { return r.query.clone() }

// Get loads the related entities, or returns the cached ones.
func (r *ToMany[T]) Get(ctx context.Context) ([]T, error) {
	if v, ok := r.owner.cached(r.name); ok {
		if rows, ok := v.([]T); ok {
			return rows, nil
		}
	}
	rows, err := r.query.clone().All(ctx)
	if err != nil {
		return nil, err
	}
	r.owner.cache(r.name, rows)
	return rows, nil
}

// relatedQuery starts a query for entities related to owner. Main entities
// use the main connection; the others use owner's connection.
func relatedQuery[T Entity](owner *Base) *Query[T] {
	var zero T
	if zero.Definition().Main && owner.res != nil {
		return NewQuery[T](owner.res)
	}
	if owner.conn == nil {
		return NewQuery[T](owner.res)
	}
	return NewQuery[T](owner.res, Using(owner.conn))
}

// toOne relates owner to the T whose column equals value. It serves both
// has-one and belongs-to relations.
func toOne[T Entity](owner *Base, name, column string, value any) *ToOne[T] {
	q := relatedQuery[T](owner).Where("?TableAlias.? = ?", bun.Ident(column), value)
	return &ToOne[T]{owner: owner, name: name, query: q}
}

// hasMany relates owner to every T whose foreignKey equals value.
func hasMany[T Entity](owner *Base, name, foreignKey string, value any) *ToMany[T] {
	q := relatedQuery[T](owner).Where("?TableAlias.? = ?", bun.Ident(foreignKey), value)
	if pk := zeroDefinition[T]().PrimaryKey; pk != "" {
		q.OrderExpr("?TableAlias.? ASC", bun.Ident(pk))
	}
	return &ToMany[T]{owner: owner, name: name, query: q}
}

// belongsToMany relates owner to the T rows linked through junction:
// junction.foreignKey = value and junction.relatedKey = T.relatedKey.
func belongsToMany[T Entity](owner *Base, name, junction, foreignKey, relatedKey string, value any) *ToMany[T] {
	const alias = "j"
	q := relatedQuery[T](owner).Modify(func(sq *bun.SelectQuery, conn *database.Connection) *bun.SelectQuery {
		return sq.
			Join("JOIN ? AS ? ON ?.? = ?TableAlias.?",
				bun.Ident(conn.Table(junction)), bun.Ident(alias),
				bun.Ident(alias), bun.Ident(relatedKey), bun.Ident(relatedKey)).
			Where("?.? = ?", bun.Ident(alias), bun.Ident(foreignKey), value)
	})
	return &ToMany[T]{owner: owner, name: name, query: q}
}

func zeroDefinition[T Entity]() Definition {
	var zero T
	return zero.Definition()
}
