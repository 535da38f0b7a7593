// Copyright (c) 2026 Keymaster Team
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package wpdb

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/toeirei/wpdatabase/container"
	"github.com/toeirei/wpdatabase/database"
	"github.com/toeirei/wpdatabase/internal/testutil"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
)

type fakeRuntime struct {
	prefix    string
	multisite bool
	current   int64
}

func (f fakeRuntime) BasePrefix() string { return f.prefix }
func (f fakeRuntime) IsMultisite() bool { return f.multisite }
func (f fakeRuntime) CurrentBlogID() int64 { return f.current }

// isolate gives the test its own global Manager and singleton.
func isolate(t *testing.T) *database.Manager {
	t.Helper()
	prev := database.Global()
	m := database.NewManager()
	m.SetAsGlobal()
	resetInstance()
	t.Cleanup(func() {
		_ = m.Close()
		prev.SetAsGlobal()
		resetInstance()
	})
	return m
}

func clearDBEnv(t *testing.T) {
	for _, key := range []string{"DB_DRIVER", "DB_HOST", "DB_DATABASE", "DB_NAME", "DB_DSN", "DB_PREFIX"} {
		t.Setenv(key, "")
	}
}

// seedNetwork creates the network tables and the given blogs in the test's
// shared in-memory database.
func seedNetwork(t *testing.T, blogIDs ...int64) {
	t.Helper()
	db := testutil.OpenSQLite(t)
	testutil.CreateNetworkTables(t, db, "wp_")
	for _, id := range blogIDs {
		if _, err := db.NewRaw("INSERT INTO wp_blogs (blog_id, domain, path) VALUES (?, 'example.test', '/')", id).
			Exec(context.Background()); err != nil {
			t.Fatalf("insert blog %d: %v", id, err)
		}
	}
}

func sqliteConfig(t *testing.T) Config {
	return Config{Driver: "sqlite", DSN: testutil.MemoryDSN(t)}
}

func TestTablePrefix(t *testing.T) {
	cases := map[int64]string{0: "wp_", 1: "wp_", 2: "wp_2_", 17: "wp_17_", 1000: "wp_1000_"}
	for id, want := range cases {
		if got := TablePrefix("wp_", id); got != want {
			t.Errorf("TablePrefix(wp_, %d) = %q, want %q", id, got, want)
		}
	}
	if got := TablePrefix("site_", 3); got != "site_3_" {
		t.Errorf("custom base: got %q", got)
	}
}

func TestConnectionNamesArePure(t *testing.T) {
	for i := 0; i < 3; i++ {
		if MainConnection() != "main" {
			t.Fatalf("MainConnection changed: %q", MainConnection())
		}
		if BlogConnection(7) != "blog.7" {
			t.Fatalf("BlogConnection changed: %q", BlogConnection(7))
		}
	}
}

func TestBoot_RegistersBlogConnections(t *testing.T) {
	clearDBEnv(t)
	m := isolate(t)
	seedNetwork(t, 1, 2, 5)

	r, err := New(context.Background(), sqliteConfig(t), WithManager(m))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := []string{"blog.1", "blog.2", "blog.5", "default", "main"}
	if got := m.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("names = %v, want %v", got, want)
	}

	for id, prefix := range map[int64]string{1: "wp_", 2: "wp_2_", 5: "wp_5_"} {
		c, err := r.Connection(BlogConnection(id))
		if err != nil {
			t.Fatalf("blog %d: %v", id, err)
		}
		if c.TablePrefix() != prefix {
			t.Errorf("blog %d prefix = %q, want %q", id, c.TablePrefix(), prefix)
		}
	}
	main, _ := r.Connection(MainConnection())
	def, _ := r.Connection("")
	if main.DB() != def.DB() {
		t.Fatalf("main and default connections should share a pool")
	}
}

func TestBoot_Idempotent(t *testing.T) {
	clearDBEnv(t)
	m := isolate(t)
	seedNetwork(t, 1, 3)

	r, err := New(context.Background(), sqliteConfig(t), WithManager(m))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	first := m.Names()
	if err := r.Boot(context.Background()); err != nil {
		t.Fatalf("second Boot: %v", err)
	}
	if second := m.Names(); !reflect.DeepEqual(first, second) {
		t.Fatalf("second boot changed names: %v -> %v", first, second)
	}
	if !r.Booted() {
		t.Fatalf("registry should report booted")
	}
}

func TestBoot_SingleSite(t *testing.T) {
	clearDBEnv(t)
	m := isolate(t)
	_ = testutil.OpenSQLite(t)

	r, err := New(context.Background(), sqliteConfig(t), WithManager(m))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ids, err := r.BlogIDs(context.Background())
	if err != nil || len(ids) != 0 {
		t.Fatalf("expected no blogs, got %v %v", ids, err)
	}
	for _, name := range m.Names() {
		if strings.HasPrefix(name, "blog.") {
			t.Fatalf("unexpected blog connection %q", name)
		}
	}
}

func TestBoot_MultisiteSetsCurrentBlogPrefix(t *testing.T) {
	clearDBEnv(t)
	m := isolate(t)
	seedNetwork(t, 1, 4)

	rt := fakeRuntime{prefix: "wp_", multisite: true, current: 4}
	r, err := New(context.Background(), sqliteConfig(t), WithManager(m), WithRuntime(rt))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	def, _ := r.Connection("")
	if def.TablePrefix() != "wp_4_" {
		t.Fatalf("default prefix = %q, want wp_4_", def.TablePrefix())
	}
	main, _ := r.Connection(MainConnection())
	if main.TablePrefix() != "wp_" {
		t.Fatalf("main prefix = %q, want wp_", main.TablePrefix())
	}
}

func TestBasePrefix(t *testing.T) {
	r := &Registry{}
	if r.BasePrefix() != DefaultPrefix {
		t.Fatalf("expected default prefix, got %q", r.BasePrefix())
	}
	r.cfg.Prefix = "site_"
	if r.BasePrefix() != "site_" {
		t.Fatalf("expected configured prefix, got %q", r.BasePrefix())
	}
	r.runtime = fakeRuntime{prefix: "rt_"}
	if r.BasePrefix() != "rt_" {
		t.Fatalf("expected runtime prefix, got %q", r.BasePrefix())
	}
	if r.CurrentBlogPrefix() != "rt_" {
		t.Fatalf("blog 0 from runtime should use base prefix, got %q", r.CurrentBlogPrefix())
	}
}

func TestNew_MissingDatabaseNameIsReturned(t *testing.T) {
	clearDBEnv(t)
	m := isolate(t)
	_, err := New(context.Background(), Config{Driver: "mysql"}, WithManager(m))
	if !errors.Is(err, database.ErrMissingDatabaseName) {
		t.Fatalf("expected ErrMissingDatabaseName, got %v", err)
	}
	if _, err := Instance(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("failed construction must not set the instance: %v", err)
	}
}

func TestNew_BootDisabled(t *testing.T) {
	clearDBEnv(t)
	m := isolate(t)
	r, err := New(context.Background(), Config{Driver: "mysql", BootDisabled: true}, WithManager(m))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.Booted() || len(m.Names()) != 0 {
		t.Fatalf("boot should be skipped")
	}
}

func TestInstanceAndResolve(t *testing.T) {
	clearDBEnv(t)
	isolate(t)

	if _, err := Instance(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", testutil.MemoryDSN(t))
	c := container.New()
	c.AddServiceProvider(ServiceProvider{})

	r, err := Resolve(context.Background(), c)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Container() != c {
		t.Fatalf("registry should remember its container")
	}
	inst, err := Instance()
	if err != nil || inst != r {
		t.Fatalf("Instance should return the resolved registry: %v", err)
	}
	again, err := Resolve(context.Background(), nil)
	if err != nil || again != r {
		t.Fatalf("second Resolve should return the singleton: %v", err)
	}
}

func TestBlogIDs_QueriedOnce(t *testing.T) {
	clearDBEnv(t)
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	db := bun.NewDB(sqlDB, mysqldialect.New())
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`information_schema\.tables .* table_name = 'wp_blogs'`).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))
	mock.ExpectQuery("SELECT `blog_id` FROM `wp_blogs` ORDER BY blog_id ASC").
		WillReturnRows(sqlmock.NewRows([]string{"blog_id"}).AddRow(1).AddRow(2))

	m := database.NewManager()
	m.AddDB(MainConnection(), db, database.ConnectionConfig{Driver: "mysql", Prefix: "wp_"})
	r := &Registry{manager: m}

	for i := 0; i < 2; i++ {
		ids, err := r.BlogIDs(context.Background())
		if err != nil {
			t.Fatalf("BlogIDs call %d: %v", i, err)
		}
		if !reflect.DeepEqual(ids, []int64{1, 2}) {
			t.Fatalf("ids = %v", ids)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
