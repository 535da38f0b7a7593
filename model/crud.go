// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/toeirei/wpdatabase/database"
	"github.com/uptrace/bun"
)

// now is the clock used for timestamp columns.
var now = time.Now

// writeConnection picks the connection a write runs on: the options when
// given, else the connection e is bound to, else the default one.
func writeConnection(res Resolver, e Entity, opts []QueryOption) (*database.Connection, error) {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	b := e.base()
	if res == nil {
		res = b.res
	}
	if len(opts) == 0 && b.conn != nil {
		return b.conn, nil
	}
	return connectionFor(res, e.Definition(), o)
}

// Insert stores e as a new row. Auto-incremented keys are written back to e,
// and e is bound to the connection used. Unique violations are reported as
// database.ErrDuplicate.
func Insert(ctx context.Context, res Resolver, e Entity, opts ...QueryOption) error {
	conn, err := writeConnection(res, e, opts)
	if err != nil {
		return err
	}
	def := e.Definition()
	_, err = conn.DB().NewInsert().
		Model(e).
		ModelTableExpr("?", bun.Ident(conn.Table(def.Table))).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("model: insert into %s: %w", def.Table, database.MapDBError(err))
	}
	if res == nil {
		res = e.base().res
	}
	e.base().bind(conn, res)
	return nil
}

// Update writes every column of e to its row, matched by primary key.
func Update(ctx context.Context, res Resolver, e Entity, opts ...QueryOption) error {
	conn, err := writeConnection(res, e, opts)
	if err != nil {
		return err
	}
	keys, err := primaryKey(conn.DB(), e)
	if err != nil {
		return err
	}
	def := e.Definition()
	uq := conn.DB().NewUpdate().
		Model(e).
		ModelTableExpr("? AS ?", bun.Ident(conn.Table(def.Table)), bun.Ident(def.Alias))
	for _, k := range keys {
		uq = uq.Where("?TableAlias.? = ?", bun.Ident(k.column), k.value)
	}
	if _, err := uq.Exec(ctx); err != nil {
		return fmt.Errorf("model: update %s: %w", def.Table, database.MapDBError(err))
	}
	return nil
}

// Delete removes the row of e. Rows of other tables that refer to it, such
// as meta rows or term relationships, are left in place.
func Delete(ctx context.Context, res Resolver, e Entity, opts ...QueryOption) error {
	conn, err := writeConnection(res, e, opts)
	if err != nil {
		return err
	}
	keys, err := primaryKey(conn.DB(), e)
	if err != nil {
		return err
	}
	def := e.Definition()
	dq := conn.DB().NewDelete().
		Model(e).
		ModelTableExpr("?", bun.Ident(conn.Table(def.Table)))
	for _, k := range keys {
		dq = dq.Where("? = ?", bun.Ident(k.column), k.value)
	}
	if _, err := dq.Exec(ctx); err != nil {
		return fmt.Errorf("model: delete from %s: %w", def.Table, err)
	}
	return nil
}

type keyValue struct {
	column string
	value  any
}

// primaryKey returns the key columns of e with their values. Every key
// column must be set.
func primaryKey(db *bun.DB, e Entity) ([]keyValue, error) {
	v := reflect.ValueOf(e)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return nil, fmt.Errorf("model: %T is not a non-nil pointer", e)
	}
	strct := v.Elem()
	table := db.Table(strct.Type())
	if len(table.PKs) == 0 {
		return nil, ErrNoPrimaryKey
	}
	keys := make([]keyValue, 0, len(table.PKs))
	for _, f := range table.PKs {
		fv := f.Value(strct)
		if fv.IsZero() {
			return nil, fmt.Errorf("%w: %s is not set", ErrNoPrimaryKey, f.Name)
		}
		keys = append(keys, keyValue{column: f.Name, value: fv.Interface()})
	}
	return keys, nil
}
