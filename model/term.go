// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"github.com/toeirei/wpdatabase/database"
	"github.com/toeirei/wpdatabase/serialize"
	"github.com/uptrace/bun"
)

// Term is a row of the terms table.
type Term struct {
	bun.BaseModel `bun:"table:terms,alias:t"`
	Base          `bun:"-"`

	ID        int64  `bun:"term_id,pk,autoincrement"`
	Name      string `bun:"name"`
	Slug      string `bun:"slug"`
	TermGroup int64  `bun:"term_group"`
}

var termDefinition = Definition{
	Table:        "terms",
	Alias:        "t",
	PrimaryKey:   "term_id",
	Incrementing: true,
	Casts: map[string]Cast{
		"term_id":    CastInteger,
		"name":       CastString,
		"slug":       CastString,
		"term_group": CastInteger,
	},
}

func (*Term) Definition() Definition { return termDefinition }

// Terms starts a query over the terms table.
func Terms(res Resolver, opts ...QueryOption) *Query[*Term] {
	return NewQuery[*Term](res, opts...)
}

// Metas relates the term to its termmeta rows.
func (t *Term) Metas() *ToMany[*TermMeta] {
	return hasMany[*TermMeta](&t.Base, "metas", "term_id", t.ID)
}

// Taxonomy relates the term to its term_taxonomy row.
func (t *Term) Taxonomy() *ToOne[*TermTaxonomy] {
	return toOne[*TermTaxonomy](&t.Base, "taxonomy", "term_id", t.ID)
}

// TermMeta is a row of the termmeta table.
type TermMeta struct {
	bun.BaseModel `bun:"table:termmeta,alias:tm"`
	Base          `bun:"-"`

	ID     int64           `bun:"meta_id,pk,autoincrement"`
	TermID int64           `bun:"term_id"`
	Key    string          `bun:"meta_key"`
	Value  serialize.Value `bun:"meta_value"`
}

var termMetaDefinition = Definition{
	Table:        "termmeta",
	Alias:        "tm",
	PrimaryKey:   "meta_id",
	Incrementing: true,
	Casts: map[string]Cast{
		"meta_id":    CastInteger,
		"term_id":    CastInteger,
		"meta_key":   CastString,
		"meta_value": CastSerialized,
	},
}

func (*TermMeta) Definition() Definition { return termMetaDefinition }

func (m *TermMeta) MetaEntryID() int64 { return m.ID }
func (m *TermMeta) MetaKey() string { return m.Key }
func (m *TermMeta) MetaValue() any { return m.Value.Get() }

// Term relates the row to its term.
func (m *TermMeta) Term() *ToOne[*Term] {
	return toOne[*Term](&m.Base, "term", "term_id", m.TermID)
}

// TermTaxonomy is a row of the term_taxonomy table: a term within one
// taxonomy.
type TermTaxonomy struct {
	bun.BaseModel `bun:"table:term_taxonomy,alias:tt"`
	Base          `bun:"-"`

	ID          int64  `bun:"term_taxonomy_id,pk,autoincrement"`
	TermID      int64  `bun:"term_id"`
	Taxonomy    string `bun:"taxonomy"`
	Description string `bun:"description"`
	Parent      int64  `bun:"parent"`
	Count       int64  `bun:"count"`
}

var termTaxonomyDefinition = Definition{
	Table:        "term_taxonomy",
	Alias:        "tt",
	PrimaryKey:   "term_taxonomy_id",
	Incrementing: true,
	Casts: map[string]Cast{
		"term_taxonomy_id": CastInteger,
		"term_id":          CastInteger,
		"taxonomy":         CastString,
		"description":      CastString,
		"parent":           CastInteger,
		"count":            CastInteger,
	},
}

func (*TermTaxonomy) Definition() Definition { return termTaxonomyDefinition }

func (*TermTaxonomy) globalScopes(sel Selectors) []Scope {
	if len(sel.Taxonomies) == 0 {
		return nil
	}
	names := sel.Taxonomies
	return []Scope{{name: ScopeTaxonomy, apply: func(sq *bun.SelectQuery, _ *database.Connection) *bun.SelectQuery {
		return whereValues(sq, "taxonomy", names)
	}}}
}

// TermTaxonomies starts a query over the term_taxonomy table.
func TermTaxonomies(res Resolver, opts ...QueryOption) *Query[*TermTaxonomy] {
	return NewQuery[*TermTaxonomy](res, opts...)
}

// Term relates the row to its term.
func (tt *TermTaxonomy) Term() *ToOne[*Term] {
	return toOne[*Term](&tt.Base, "term", "term_id", tt.TermID)
}

// TermRelationships is a row of the term_relationships junction table. Its
// key is the pair (object_id, term_taxonomy_id).
type TermRelationships struct {
	bun.BaseModel `bun:"table:term_relationships,alias:tr"`
	Base          `bun:"-"`

	ObjectID       int64 `bun:"object_id,pk"`
	TermTaxonomyID int64 `bun:"term_taxonomy_id,pk"`
	TermOrder      int64 `bun:"term_order"`
}

var termRelationshipsDefinition = Definition{
	Table: "term_relationships",
	Alias: "tr",
	Casts: map[string]Cast{
		"object_id":        CastInteger,
		"term_taxonomy_id": CastInteger,
		"term_order":       CastInteger,
	},
}

func (*TermRelationships) Definition() Definition { return termRelationshipsDefinition }

// Post relates the row to its post.
func (r *TermRelationships) Post() *ToOne[*Post] {
	return toOne[*Post](&r.Base, "post", "ID", r.ObjectID)
}

// Taxonomy relates the row to its term taxonomy.
func (r *TermRelationships) Taxonomy() *ToOne[*TermTaxonomy] {
	return toOne[*TermTaxonomy](&r.Base, "taxonomy", "term_taxonomy_id", r.TermTaxonomyID)
}
