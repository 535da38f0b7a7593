// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"context"
	"time"

	"github.com/toeirei/wpdatabase/serialize"
	"github.com/uptrace/bun"
)

// Blog is a site of the network.
type Blog struct {
	bun.BaseModel `bun:"table:blogs,alias:b"`
	Base          `bun:"-"`

	ID          int64     `bun:"blog_id,pk,autoincrement"`
	SiteID      int64     `bun:"site_id"`
	Domain      string    `bun:"domain"`
	Path        string    `bun:"path"`
	Registered  time.Time `bun:"registered"`
	LastUpdated time.Time `bun:"last_updated"`
	Public      bool      `bun:"public"`
	Archived    bool      `bun:"archived"`
	Mature      bool      `bun:"mature"`
	Spam        bool      `bun:"spam"`
	Deleted     bool      `bun:"deleted"`
	LangID      int64     `bun:"lang_id"`
}

var blogDefinition = Definition{
	Table:        "blogs",
	Alias:        "b",
	PrimaryKey:   "blog_id",
	Incrementing: true,
	CreatedAt:    "registered",
	UpdatedAt:    "last_updated",
	Main:         true,
	Casts: map[string]Cast{
		"blog_id":      CastInteger,
		"site_id":      CastInteger,
		"domain":       CastString,
		"path":         CastString,
		"registered":   CastDatetime,
		"last_updated": CastDatetime,
		"public":       CastBoolean,
		"archived":     CastBoolean,
		"mature":       CastBoolean,
		"spam":         CastBoolean,
		"deleted":      CastBoolean,
		"lang_id":      CastInteger,
	},
}

func (*Blog) Definition() Definition { return blogDefinition }

var _ bun.BeforeAppendModelHook = (*Blog)(nil)

func (b *Blog) BeforeAppendModel(_ context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery:
		t := now()
		if b.Registered.IsZero() {
			b.Registered = t
		}
		if b.LastUpdated.IsZero() {
			b.LastUpdated = t
		}
	case *bun.UpdateQuery:
		b.LastUpdated = now()
	}
	return nil
}

// Metas relates the blog to its blogmeta rows.
func (b *Blog) Metas() *ToMany[*BlogMeta] {
	return hasMany[*BlogMeta](&b.Base, "metas", "blog_id", b.ID)
}

// Blogs starts a query over the blogs table.
func Blogs(res Resolver, opts ...QueryOption) *Query[*Blog] {
	return NewQuery[*Blog](res, opts...)
}

// BlogMeta is a row of the blogmeta table.
type BlogMeta struct {
	bun.BaseModel `bun:"table:blogmeta,alias:bm"`
	Base          `bun:"-"`

	ID     int64           `bun:"meta_id,pk,autoincrement"`
	BlogID int64           `bun:"blog_id"`
	Key    string          `bun:"meta_key"`
	Value  serialize.Value `bun:"meta_value"`
}

var blogMetaDefinition = Definition{
	Table:        "blogmeta",
	Alias:        "bm",
	PrimaryKey:   "meta_id",
	Incrementing: true,
	Main:         true,
	Casts: map[string]Cast{
		"meta_id":    CastInteger,
		"blog_id":    CastInteger,
		"meta_key":   CastString,
		"meta_value": CastSerialized,
	},
}

func (*BlogMeta) Definition() Definition { return blogMetaDefinition }

func (m *BlogMeta) MetaEntryID() int64 { return m.ID }
func (m *BlogMeta) MetaKey() string { return m.Key }
func (m *BlogMeta) MetaValue() any { return m.Value.Get() }

// Blog relates the row to its blog.
func (m *BlogMeta) Blog() *ToOne[*Blog] {
	return toOne[*Blog](&m.Base, "blog", "blog_id", m.BlogID)
}
