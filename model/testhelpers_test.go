// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"context"
	"testing"

	"github.com/toeirei/wpdatabase/database"
	"github.com/toeirei/wpdatabase/internal/testutil"
	"github.com/uptrace/bun"
)

// testResolver serves connections straight from a Manager.
type testResolver struct {
	m *database.Manager
}

func (r testResolver) Connection(name string) (*database.Connection, error) {
	return r.m.Connection(name)
}

func (r testResolver) MainConnection() string { return "main" }

// newNetwork returns a resolver over one SQLite database holding the network
// tables and blog tables for blogs 1 and 2. The default connection points at
// blog 2.
func newNetwork(t *testing.T) (testResolver, *bun.DB) {
	t.Helper()
	db := testutil.OpenSQLite(t)
	testutil.CreateNetworkTables(t, db, "wp_")
	testutil.CreateBlogTables(t, db, "wp_")
	testutil.CreateBlogTables(t, db, "wp_2_")

	m := database.NewManager()
	m.AddDB("main", db, database.ConnectionConfig{Driver: "sqlite", Prefix: "wp_"})
	m.AddDB("blog.1", db, database.ConnectionConfig{Driver: "sqlite", Prefix: "wp_"})
	m.AddDB("blog.2", db, database.ConnectionConfig{Driver: "sqlite", Prefix: "wp_2_"})
	m.AddDB("", db, database.ConnectionConfig{Driver: "sqlite", Prefix: "wp_2_"})
	return testResolver{m: m}, db
}

func postIDs(rows []*Post) []int64 {
	out := make([]int64, 0, len(rows))
	for _, p := range rows {
		out = append(out, p.ID)
	}
	return out
}

func userIDs(rows []*User) []int64 {
	out := make([]int64, 0, len(rows))
	for _, u := range rows {
		out = append(out, u.ID)
	}
	return out
}

func mustInsert(t *testing.T, res Resolver, e Entity, opts ...QueryOption) {
	t.Helper()
	if err := Insert(context.Background(), res, e, opts...); err != nil {
		t.Fatalf("insert %T: %v", e, err)
	}
}
