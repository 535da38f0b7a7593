// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"context"
	"errors"

	"github.com/toeirei/wpdatabase/serialize"
	"github.com/uptrace/bun"
)

// Option is a row of the options table.
type Option struct {
	bun.BaseModel `bun:"table:options,alias:o"`
	Base          `bun:"-"`

	ID       int64           `bun:"option_id,pk,autoincrement"`
	Name     string          `bun:"option_name"`
	Value    serialize.Value `bun:"option_value"`
	Autoload serialize.YesNo `bun:"autoload"`
}

var optionDefinition = Definition{
	Table:        "options",
	Alias:        "o",
	PrimaryKey:   "option_id",
	Incrementing: true,
	Casts: map[string]Cast{
		"option_id":    CastInteger,
		"option_name":  CastString,
		"option_value": CastSerialized,
		"autoload":     CastYesNo,
	},
}

func (*Option) Definition() Definition { return optionDefinition }

// Options starts a query over the options table.
func Options(res Resolver, opts ...QueryOption) *Query[*Option] {
	return NewQuery[*Option](res, opts...)
}

// GetOption returns the decoded value of the named option, or def when it
// does not exist.
func GetOption(ctx context.Context, res Resolver, name string, def any, opts ...QueryOption) (any, error) {
	o, err := Options(res, opts...).Where("?TableAlias.option_name = ?", name).First(ctx)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return nil, err
	}
	return o.Value.Get(), nil
}
