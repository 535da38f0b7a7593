// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/toeirei/wpdatabase/internal/testutil"
)

func TestPost_Terms(t *testing.T) {
	res, db := newNetwork(t)
	ctx := context.Background()
	testutil.Exec(t, db,
		`INSERT INTO wp_2_posts (ID, post_title) VALUES (1, 'Tagged')`,
		`INSERT INTO wp_2_terms (term_id, name, slug) VALUES (1, 'News', 'news'), (2, 'Go', 'go'), (3, 'Unused', 'unused')`,
		`INSERT INTO wp_2_term_taxonomy (term_taxonomy_id, term_id, taxonomy) VALUES (1, 1, 'category'), (2, 2, 'post_tag'), (3, 3, 'post_tag')`,
		`INSERT INTO wp_2_term_relationships (object_id, term_taxonomy_id) VALUES (1, 1), (1, 2), (2, 3)`,
	)
	p, err := Posts(res).Find(ctx, 1)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	terms, err := p.Terms(ctx)
	if err != nil {
		t.Fatalf("Terms: %v", err)
	}
	if len(terms) != 2 || len(terms["category"]) != 1 || len(terms["tag"]) != 1 {
		t.Fatalf("unexpected grouping %v", terms)
	}
	if terms["category"]["news"].Name != "News" || terms["tag"]["go"].Name != "Go" {
		t.Fatalf("unexpected terms %v", terms)
	}

	tax, err := terms["tag"]["go"].Taxonomy().Get(ctx)
	if err != nil || tax == nil || tax.Taxonomy != "post_tag" {
		t.Fatalf("Taxonomy: %+v %v", tax, err)
	}
}

func TestUser_RolesAndMeta(t *testing.T) {
	res, db := newNetwork(t)
	ctx := context.Background()
	testutil.Exec(t, db,
		`INSERT INTO wp_users (ID, user_login) VALUES (1, 'ada')`,
		`INSERT INTO wp_usermeta (user_id, meta_key, meta_value) VALUES
			(1, 'wp_capabilities', 'a:3:{s:6:"editor";b:1;s:6:"author";b:1;s:11:"contributor";b:0;}'),
			(1, 'nickname', 'countess'),
			(1, 'primary_blog', '2'),
			(1, 'rich_editing', 'true'),
			(1, 'use_ssl', '0'),
			(1, 'community-events-location', 'a:1:{s:2:"ip";s:9:"192.0.2.0";}')`,
	)
	u, err := Users(res).Find(ctx, 1)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	roles, err := u.Roles(ctx)
	if err != nil || !reflect.DeepEqual(roles, []string{"author", "editor"}) {
		t.Fatalf("Roles: %v %v", roles, err)
	}
	if role, _ := u.Role(ctx); role != "author" {
		t.Fatalf("Role: %q", role)
	}
	if nick, _ := u.Nickname(ctx); nick != "countess" {
		t.Fatalf("Nickname: %q", nick)
	}
	if last, _ := u.LastName(ctx); last != "" {
		t.Fatalf("LastName: %q", last)
	}
	if id, _ := u.PrimaryBlog(ctx); id != 2 {
		t.Fatalf("PrimaryBlog: %d", id)
	}
	if ok, _ := u.RichEditing(ctx); !ok {
		t.Fatalf("expected rich editing on")
	}
	if ok, _ := u.UseSSL(ctx); ok {
		t.Fatalf("expected use_ssl off")
	}
	if ok, _ := u.ShowWelcomePanel(ctx); ok {
		t.Fatalf("expected a missing flag to be off")
	}
	loc, err := u.CommunityEventsLocation(ctx)
	if err != nil || !reflect.DeepEqual(loc, map[string]any{"ip": "192.0.2.0"}) {
		t.Fatalf("CommunityEventsLocation: %v %v", loc, err)
	}
}

func TestUser_CommunityEventsLocationMissing(t *testing.T) {
	res, db := newNetwork(t)
	testutil.Exec(t, db, `INSERT INTO wp_users (ID, user_login) VALUES (1, 'ada')`)
	u, err := Users(res).Find(context.Background(), 1)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	loc, err := u.CommunityEventsLocation(context.Background())
	if err != nil || loc == nil || len(loc) != 0 {
		t.Fatalf("expected an empty map, got %v %v", loc, err)
	}
}

func TestUser_RolesUnbound(t *testing.T) {
	if _, err := (&User{ID: 1}).Roles(context.Background()); !errors.Is(err, ErrUnbound) {
		t.Fatalf("expected ErrUnbound, got %v", err)
	}
}

func TestOption_GetOption(t *testing.T) {
	res, db := newNetwork(t)
	ctx := context.Background()
	testutil.Exec(t, db,
		`INSERT INTO wp_2_options (option_name, option_value, autoload) VALUES ('blogname', 'Second blog', 'yes')`,
		`INSERT INTO wp_2_options (option_name, option_value, autoload) VALUES ('active_plugins', 'a:1:{i:0;s:9:"akismet/a";}', 'no')`,
		`INSERT INTO wp_options (option_name, option_value) VALUES ('blogname', 'Main blog')`,
	)

	got, err := GetOption(ctx, res, "blogname", nil)
	if err != nil || got != "Second blog" {
		t.Fatalf("GetOption: %v %v", got, err)
	}
	got, err = GetOption(ctx, res, "blogname", nil, On("blog.1"))
	if err != nil || got != "Main blog" {
		t.Fatalf("GetOption on blog 1: %v %v", got, err)
	}
	got, err = GetOption(ctx, res, "active_plugins", nil)
	if err != nil || !reflect.DeepEqual(got, []any{"akismet/a"}) {
		t.Fatalf("GetOption serialized: %#v %v", got, err)
	}
	got, err = GetOption(ctx, res, "missing", "fallback")
	if err != nil || got != "fallback" {
		t.Fatalf("GetOption default: %v %v", got, err)
	}

	opts, err := Options(res).Order("option_id").All(ctx)
	if err != nil || len(opts) != 2 {
		t.Fatalf("Options: %v %v", opts, err)
	}
	if !bool(opts[0].Autoload) || bool(opts[1].Autoload) {
		t.Fatalf("unexpected autoload flags %v %v", opts[0].Autoload, opts[1].Autoload)
	}
}

func TestBlog_Metas(t *testing.T) {
	res, db := newNetwork(t)
	ctx := context.Background()
	testutil.Exec(t, db,
		`INSERT INTO wp_blogs (blog_id, domain, path, archived) VALUES (1, 'example.com', '/', 0), (2, 'example.com', '/two/', 1)`,
		`INSERT INTO wp_blogmeta (blog_id, meta_key, meta_value) VALUES (2, 'db_version', '57155')`,
	)
	b, err := Blogs(res, On("blog.2")).Find(ctx, 2)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !b.Archived || b.Path != "/two/" {
		t.Fatalf("unexpected blog %+v", b)
	}
	v, err := GetMetaSingle[*BlogMeta](ctx, b, "db_version", nil)
	if err != nil || v != "57155" {
		t.Fatalf("GetMetaSingle: %v %v", v, err)
	}
}
