// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"context"
	"time"

	"github.com/toeirei/wpdatabase/database"
	"github.com/toeirei/wpdatabase/serialize"
	"github.com/uptrace/bun"
)

// Post is a row of the posts table: posts, pages, attachments, revisions and
// custom post types alike.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`
	Base          `bun:"-"`

	ID              int64     `bun:"ID,pk,autoincrement"`
	AuthorID        int64     `bun:"post_author"`
	Date            time.Time `bun:"post_date"`
	DateGMT         time.Time `bun:"post_date_gmt"`
	Content         string    `bun:"post_content"`
	Title           string    `bun:"post_title"`
	Excerpt         string    `bun:"post_excerpt"`
	Status          string    `bun:"post_status"`
	CommentStatus   string    `bun:"comment_status"`
	PingStatus      string    `bun:"ping_status"`
	Password        string    `bun:"post_password"`
	Name            string    `bun:"post_name"`
	ToPing          string    `bun:"to_ping"`
	Pinged          string    `bun:"pinged"`
	Modified        time.Time `bun:"post_modified"`
	ModifiedGMT     time.Time `bun:"post_modified_gmt"`
	ContentFiltered string    `bun:"post_content_filtered"`
	ParentID        int64     `bun:"post_parent"`
	GUID            string    `bun:"guid"`
	MenuOrder       int64     `bun:"menu_order"`
	Type            string    `bun:"post_type"`
	MimeType        string    `bun:"post_mime_type"`
	CommentCount    int64     `bun:"comment_count"`
}

var postDefinition = Definition{
	Table:        "posts",
	Alias:        "p",
	PrimaryKey:   "ID",
	Incrementing: true,
	CreatedAt:    "post_date",
	UpdatedAt:    "post_modified",
	Casts: map[string]Cast{
		"ID":                    CastInteger,
		"post_author":           CastInteger,
		"post_date":             CastDatetime,
		"post_date_gmt":         CastDatetime,
		"post_content":          CastString,
		"post_title":            CastString,
		"post_excerpt":          CastString,
		"post_status":           CastString,
		"comment_status":        CastString,
		"ping_status":           CastString,
		"post_password":         CastString,
		"post_name":             CastString,
		"to_ping":               CastString,
		"pinged":                CastString,
		"post_modified":         CastDatetime,
		"post_modified_gmt":     CastDatetime,
		"post_content_filtered": CastString,
		"post_parent":           CastInteger,
		"guid":                  CastString,
		"menu_order":            CastInteger,
		"post_type":             CastString,
		"post_mime_type":        CastString,
		"comment_count":         CastInteger,
	},
}

func (*Post) Definition() Definition { return postDefinition }

func (*Post) globalScopes(sel Selectors) []Scope {
	if len(sel.PostTypes) == 0 {
		return nil
	}
	types := sel.PostTypes
	return []Scope{{name: ScopePostType, apply: func(sq *bun.SelectQuery, _ *database.Connection) *bun.SelectQuery {
		return whereValues(sq, "post_type", types)
	}}}
}

var _ bun.BeforeAppendModelHook = (*Post)(nil)

func (p *Post) BeforeAppendModel(_ context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery:
		t := now()
		if p.Date.IsZero() {
			p.Date = t
			p.DateGMT = t.UTC()
		}
		if p.Modified.IsZero() {
			p.Modified = t
			p.ModifiedGMT = t.UTC()
		}
	case *bun.UpdateQuery:
		t := now()
		p.Modified = t
		p.ModifiedGMT = t.UTC()
	}
	return nil
}

// Posts starts a query over the posts table.
func Posts(res Resolver, opts ...QueryOption) *Query[*Post] {
	return NewQuery[*Post](res, opts...)
}

// Author relates the post to the user who wrote it.
func (p *Post) Author() *ToOne[*User] {
	return toOne[*User](&p.Base, "author", "ID", p.AuthorID)
}

// Comments relates the post to its comments.
func (p *Post) Comments() *ToMany[*Comment] {
	return hasMany[*Comment](&p.Base, "comments", "comment_post_ID", p.ID)
}

// Metas relates the post to its postmeta rows.
func (p *Post) Metas() *ToMany[*PostMeta] {
	return hasMany[*PostMeta](&p.Base, "metas", "post_id", p.ID)
}

// Parent relates the post to its parent post.
func (p *Post) Parent() *ToOne[*Post] {
	return toOne[*Post](&p.Base, "parent", "ID", p.ParentID)
}

// Taxonomies relates the post to the term taxonomies it is filed under,
// through term_relationships.
func (p *Post) Taxonomies() *ToMany[*TermTaxonomy] {
	return belongsToMany[*TermTaxonomy](&p.Base, "taxonomies", "term_relationships", "object_id", "term_taxonomy_id", p.ID)
}

// Terms groups the post's terms by taxonomy, then by slug. The post_tag
// taxonomy is reported as "tag".
func (p *Post) Terms(ctx context.Context) (map[string]map[string]*Term, error) {
	taxonomies, err := p.Taxonomies().Get(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]*Term)
	for _, tt := range taxonomies {
		term, err := tt.Term().Get(ctx)
		if err != nil {
			return nil, err
		}
		if term == nil {
			continue
		}
		group := tt.Taxonomy
		if group == "post_tag" {
			group = "tag"
		}
		if out[group] == nil {
			out[group] = make(map[string]*Term)
		}
		out[group][term.Slug] = term
	}
	return out, nil
}

// PostMeta is a row of the postmeta table.
type PostMeta struct {
	bun.BaseModel `bun:"table:postmeta,alias:pm"`
	Base          `bun:"-"`

	ID     int64           `bun:"meta_id,pk,autoincrement"`
	PostID int64           `bun:"post_id"`
	Key    string          `bun:"meta_key"`
	Value  serialize.Value `bun:"meta_value"`
}

var postMetaDefinition = Definition{
	Table:        "postmeta",
	Alias:        "pm",
	PrimaryKey:   "meta_id",
	Incrementing: true,
	Casts: map[string]Cast{
		"meta_id":    CastInteger,
		"post_id":    CastInteger,
		"meta_key":   CastString,
		"meta_value": CastSerialized,
	},
}

func (*PostMeta) Definition() Definition { return postMetaDefinition }

func (m *PostMeta) MetaEntryID() int64 { return m.ID }
func (m *PostMeta) MetaKey() string { return m.Key }
func (m *PostMeta) MetaValue() any { return m.Value.Get() }

// Post relates the row to its post.
func (m *PostMeta) Post() *ToOne[*Post] {
	return toOne[*Post](&m.Base, "post", "ID", m.PostID)
}
