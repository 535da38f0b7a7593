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

// Comment is a row of the comments table.
type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:c"`
	Base          `bun:"-"`

	ID          int64     `bun:"comment_ID,pk,autoincrement"`
	PostID      int64     `bun:"comment_post_ID"`
	Author      string    `bun:"comment_author"`
	AuthorEmail string    `bun:"comment_author_email"`
	AuthorURL   string    `bun:"comment_author_url"`
	AuthorIP    string    `bun:"comment_author_IP"`
	Date        time.Time `bun:"comment_date"`
	DateGMT     time.Time `bun:"comment_date_gmt"`
	Content     string    `bun:"comment_content"`
	Karma       int64     `bun:"comment_karma"`
	// Approved is "1", "0", "spam" or "trash".
	Approved string `bun:"comment_approved"`
	Agent    string `bun:"comment_agent"`
	Type     string `bun:"comment_type"`
	ParentID int64  `bun:"comment_parent"`
	UserID   int64  `bun:"user_id"`
}

var commentDefinition = Definition{
	Table:        "comments",
	Alias:        "c",
	PrimaryKey:   "comment_ID",
	Incrementing: true,
	CreatedAt:    "comment_date",
	Casts: map[string]Cast{
		"comment_ID":           CastInteger,
		"comment_post_ID":      CastInteger,
		"comment_author":       CastString,
		"comment_author_email": CastString,
		"comment_author_url":   CastString,
		"comment_author_IP":    CastString,
		"comment_date":         CastDatetime,
		"comment_date_gmt":     CastDatetime,
		"comment_content":      CastString,
		"comment_karma":        CastInteger,
		"comment_approved":     CastString,
		"comment_agent":        CastString,
		"comment_type":         CastString,
		"comment_parent":       CastInteger,
		"user_id":              CastInteger,
	},
}

func (*Comment) Definition() Definition { return commentDefinition }

var _ bun.BeforeAppendModelHook = (*Comment)(nil)

func (c *Comment) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && c.Date.IsZero() {
		t := now()
		c.Date = t
		c.DateGMT = t.UTC()
	}
	return nil
}

// IsApproved reports whether the comment is approved.
func (c *Comment) IsApproved() bool {
	return c.Approved == "1"
}

// Comments starts a query over the comments table.
func Comments(res Resolver, opts ...QueryOption) *Query[*Comment] {
	return NewQuery[*Comment](res, opts...)
}

// Metas relates the comment to its commentmeta rows.
func (c *Comment) Metas() *ToMany[*CommentMeta] {
	return hasMany[*CommentMeta](&c.Base, "metas", "comment_id", c.ID)
}

// Post relates the comment to the post it was left on.
func (c *Comment) Post() *ToOne[*Post] {
	return toOne[*Post](&c.Base, "post", "ID", c.PostID)
}

// User relates the comment to its registered author, if any.
func (c *Comment) User() *ToOne[*User] {
	return toOne[*User](&c.Base, "user", "ID", c.UserID)
}

// CommentMeta is a row of the commentmeta table.
type CommentMeta struct {
	bun.BaseModel `bun:"table:commentmeta,alias:cm"`
	Base          `bun:"-"`

	ID        int64           `bun:"meta_id,pk,autoincrement"`
	CommentID int64           `bun:"comment_id"`
	Key       string          `bun:"meta_key"`
	Value     serialize.Value `bun:"meta_value"`
}

var commentMetaDefinition = Definition{
	Table:        "commentmeta",
	Alias:        "cm",
	PrimaryKey:   "meta_id",
	Incrementing: true,
	Casts: map[string]Cast{
		"meta_id":    CastInteger,
		"comment_id": CastInteger,
		"meta_key":   CastString,
		"meta_value": CastSerialized,
	},
}

func (*CommentMeta) Definition() Definition { return commentMetaDefinition }

func (m *CommentMeta) MetaEntryID() int64 { return m.ID }
func (m *CommentMeta) MetaKey() string { return m.Key }
func (m *CommentMeta) MetaValue() any { return m.Value.Get() }

// Comment relates the row to its comment.
func (m *CommentMeta) Comment() *ToOne[*Comment] {
	return toOne[*Comment](&m.Base, "comment", "comment_ID", m.CommentID)
}
