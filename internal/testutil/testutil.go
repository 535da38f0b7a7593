// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

// Package testutil opens throwaway SQLite databases laid out like a
// WordPress install for package tests.
package testutil

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// MemoryDSN returns a shared-cache in-memory DSN unique to the test.
func MemoryDSN(t *testing.T) string {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	return "file:" + name + "?mode=memory&cache=shared"
}

// OpenSQLite opens the in-memory database for MemoryDSN(t) and closes it when
// the test ends.
func OpenSQLite(t *testing.T) *bun.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", MemoryDSN(t))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New(), bun.WithDiscardUnknownColumns())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Exec runs each statement and fails the test on the first error.
func Exec(t *testing.T, db *bun.DB, statements ...string) {
	t.Helper()
	ctx := context.Background()
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
}

// CreateNetworkTables creates the tables shared by every blog of a network
// (users, usermeta, blogs, blogmeta) using prefix.
func CreateNetworkTables(t *testing.T, db *bun.DB, prefix string) {
	t.Helper()
	Exec(t, db,
		`CREATE TABLE `+prefix+`users (
			ID INTEGER PRIMARY KEY AUTOINCREMENT,
			user_login TEXT NOT NULL DEFAULT '',
			user_pass TEXT NOT NULL DEFAULT '',
			user_nicename TEXT NOT NULL DEFAULT '',
			user_email TEXT NOT NULL DEFAULT '',
			user_url TEXT NOT NULL DEFAULT '',
			user_registered DATETIME NOT NULL DEFAULT '0001-01-01 00:00:00',
			user_activation_key TEXT NOT NULL DEFAULT '',
			user_status INTEGER NOT NULL DEFAULT 0,
			display_name TEXT NOT NULL DEFAULT '',
			spam INTEGER NOT NULL DEFAULT 0,
			deleted INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE `+prefix+`usermeta (
			umeta_id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL DEFAULT 0,
			meta_key TEXT,
			meta_value TEXT
		)`,
		`CREATE TABLE `+prefix+`blogs (
			blog_id INTEGER PRIMARY KEY AUTOINCREMENT,
			site_id INTEGER NOT NULL DEFAULT 0,
			domain TEXT NOT NULL DEFAULT '',
			path TEXT NOT NULL DEFAULT '',
			registered DATETIME NOT NULL DEFAULT '0001-01-01 00:00:00',
			last_updated DATETIME NOT NULL DEFAULT '0001-01-01 00:00:00',
			public INTEGER NOT NULL DEFAULT 1,
			archived INTEGER NOT NULL DEFAULT 0,
			mature INTEGER NOT NULL DEFAULT 0,
			spam INTEGER NOT NULL DEFAULT 0,
			deleted INTEGER NOT NULL DEFAULT 0,
			lang_id INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE `+prefix+`blogmeta (
			meta_id INTEGER PRIMARY KEY AUTOINCREMENT,
			blog_id INTEGER NOT NULL DEFAULT 0,
			meta_key TEXT,
			meta_value TEXT
		)`,
	)
}

// CreateBlogTables creates the per-blog tables (posts, comments, terms,
// options and their side-tables) using prefix.
func CreateBlogTables(t *testing.T, db *bun.DB, prefix string) {
	t.Helper()
	Exec(t, db,
		`CREATE TABLE `+prefix+`posts (
			ID INTEGER PRIMARY KEY AUTOINCREMENT,
			post_author INTEGER NOT NULL DEFAULT 0,
			post_date DATETIME NOT NULL DEFAULT '0001-01-01 00:00:00',
			post_date_gmt DATETIME NOT NULL DEFAULT '0001-01-01 00:00:00',
			post_content TEXT NOT NULL DEFAULT '',
			post_title TEXT NOT NULL DEFAULT '',
			post_excerpt TEXT NOT NULL DEFAULT '',
			post_status TEXT NOT NULL DEFAULT 'publish',
			comment_status TEXT NOT NULL DEFAULT 'open',
			ping_status TEXT NOT NULL DEFAULT 'open',
			post_password TEXT NOT NULL DEFAULT '',
			post_name TEXT NOT NULL DEFAULT '',
			to_ping TEXT NOT NULL DEFAULT '',
			pinged TEXT NOT NULL DEFAULT '',
			post_modified DATETIME NOT NULL DEFAULT '0001-01-01 00:00:00',
			post_modified_gmt DATETIME NOT NULL DEFAULT '0001-01-01 00:00:00',
			post_content_filtered TEXT NOT NULL DEFAULT '',
			post_parent INTEGER NOT NULL DEFAULT 0,
			guid TEXT NOT NULL DEFAULT '',
			menu_order INTEGER NOT NULL DEFAULT 0,
			post_type TEXT NOT NULL DEFAULT 'post',
			post_mime_type TEXT NOT NULL DEFAULT '',
			comment_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE `+prefix+`postmeta (
			meta_id INTEGER PRIMARY KEY AUTOINCREMENT,
			post_id INTEGER NOT NULL DEFAULT 0,
			meta_key TEXT,
			meta_value TEXT
		)`,
		`CREATE TABLE `+prefix+`comments (
			comment_ID INTEGER PRIMARY KEY AUTOINCREMENT,
			comment_post_ID INTEGER NOT NULL DEFAULT 0,
			comment_author TEXT NOT NULL DEFAULT '',
			comment_author_email TEXT NOT NULL DEFAULT '',
			comment_author_url TEXT NOT NULL DEFAULT '',
			comment_author_IP TEXT NOT NULL DEFAULT '',
			comment_date DATETIME NOT NULL DEFAULT '0001-01-01 00:00:00',
			comment_date_gmt DATETIME NOT NULL DEFAULT '0001-01-01 00:00:00',
			comment_content TEXT NOT NULL DEFAULT '',
			comment_karma INTEGER NOT NULL DEFAULT 0,
			comment_approved TEXT NOT NULL DEFAULT '1',
			comment_agent TEXT NOT NULL DEFAULT '',
			comment_type TEXT NOT NULL DEFAULT 'comment',
			comment_parent INTEGER NOT NULL DEFAULT 0,
			user_id INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE `+prefix+`commentmeta (
			meta_id INTEGER PRIMARY KEY AUTOINCREMENT,
			comment_id INTEGER NOT NULL DEFAULT 0,
			meta_key TEXT,
			meta_value TEXT
		)`,
		`CREATE TABLE `+prefix+`terms (
			term_id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL DEFAULT '',
			slug TEXT NOT NULL DEFAULT '',
			term_group INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE `+prefix+`termmeta (
			meta_id INTEGER PRIMARY KEY AUTOINCREMENT,
			term_id INTEGER NOT NULL DEFAULT 0,
			meta_key TEXT,
			meta_value TEXT
		)`,
		`CREATE TABLE `+prefix+`term_taxonomy (
			term_taxonomy_id INTEGER PRIMARY KEY AUTOINCREMENT,
			term_id INTEGER NOT NULL DEFAULT 0,
			taxonomy TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			parent INTEGER NOT NULL DEFAULT 0,
			count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE `+prefix+`term_relationships (
			object_id INTEGER NOT NULL DEFAULT 0,
			term_taxonomy_id INTEGER NOT NULL DEFAULT 0,
			term_order INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (object_id, term_taxonomy_id)
		)`,
		`CREATE TABLE `+prefix+`options (
			option_id INTEGER PRIMARY KEY AUTOINCREMENT,
			option_name TEXT NOT NULL DEFAULT '' UNIQUE,
			option_value TEXT NOT NULL DEFAULT '',
			autoload TEXT NOT NULL DEFAULT 'yes'
		)`,
	)
}
