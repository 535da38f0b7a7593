// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import "context"

// MetaEntity is a row of a *meta side-table.
type MetaEntity interface {
	Entity
	MetaEntryID() int64
	MetaKey() string
	MetaValue() any
}

// HasMetadata is implemented by entities with a *meta side-table.
type HasMetadata[M MetaEntity] interface {
	Metas() *ToMany[M]
}

// GetMeta looks up the meta rows of owner with the given key. Each call
// queries the database.
//
// With single set it returns the value of the first row (lowest id), or def
// when there is none. Otherwise it returns a map[int64]any from row id to
// value, or def when no row matches.
func GetMeta[M MetaEntity](ctx context.Context, owner HasMetadata[M], key string, def any, single bool) (any, error) {
	q := owner.Metas().Query().Where("?TableAlias.meta_key = ?", key)

	if single {
		rows, err := q.Limit(1).All(ctx)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return def, nil
		}
		return rows[0].MetaValue(), nil
	}

	rows, err := q.All(ctx)
	if err != nil {
		return nil, err
	}
	values := make(map[int64]any, len(rows))
	for _, row := range rows {
		values[row.MetaEntryID()] = row.MetaValue()
	}
	if len(values) == 0 {
		return def, nil
	}
	return values, nil
}

// GetMetaSingle is GetMeta with single set.
func GetMetaSingle[M MetaEntity](ctx context.Context, owner HasMetadata[M], key string, def any) (any, error) {
	return GetMeta[M](ctx, owner, key, def, true)
}

// GetMetaMulti is GetMeta with single unset.
func GetMetaMulti[M MetaEntity](ctx context.Context, owner HasMetadata[M], key string, def any) (any, error) {
	return GetMeta[M](ctx, owner, key, def, false)
}

// firstMeta returns the first of rows with key.
func firstMeta[M MetaEntity](rows []M, key string) (M, bool) {
	for _, row := range rows {
		if row.MetaKey() == key {
			return row, true
		}
	}
	var zero M
	return zero, false
}
