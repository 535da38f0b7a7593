// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFlattenYAML(t *testing.T) {
	m := map[string]any{
		"cli.flat": "x",
		"top": map[string]any{
			"sub":    "value",
			"plural": map[string]any{"one": "a row", "other": "%d rows"},
		},
	}
	keys := make(map[string]struct{})
	flattenYAML("", m, keys)
	for _, want := range []string{"cli.flat", "top.sub", "top.plural"} {
		if _, ok := keys[want]; !ok {
			t.Fatalf("expected %s in %v", want, keys)
		}
	}
	if _, ok := keys["top.plural.other"]; ok {
		t.Fatalf("plural forms should not be flattened")
	}
}

func TestLint(t *testing.T) {
	root := t.TempDir()
	locales := filepath.Join(root, "locales")
	writeFile(t, filepath.Join(root, "cmd", "a.go"), `package main
func f() { _ = i18n.T("cli.used"); _ = i18n.T("cli.other", 1) }`)
	writeFile(t, filepath.Join(root, "cmd", "a_test.go"), `package main
func g() { _ = i18n.T("cli.only_in_tests") }`)
	writeFile(t, filepath.Join(root, "tools", "b.go"), `package main
func h() { _ = i18n.T("cli.tooling") }`)
	writeFile(t, filepath.Join(locales, "en.yaml"), "cli.used: a\ncli.other: b\n")
	writeFile(t, filepath.Join(locales, "de.yaml"), "cli.used: a\ncli.other: b\n")

	var out bytes.Buffer
	ok, err := lint(root, locales, &out)
	if err != nil || !ok {
		t.Fatalf("expected a clean run, got %v %v\n%s", ok, err, out.String())
	}

	writeFile(t, filepath.Join(locales, "en.yaml"), "cli.used: a\ncli.other: b\ncli.stale: c\n")
	out.Reset()
	ok, err = lint(root, locales, &out)
	if err != nil || ok {
		t.Fatalf("expected a failing run, got %v %v", ok, err)
	}
	for _, want := range []string{"orphaned: cli.stale", "missing in de.yaml: cli.stale"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in\n%s", want, out.String())
		}
	}
}

func TestLint_UndefinedKey(t *testing.T) {
	root := t.TempDir()
	locales := filepath.Join(root, "locales")
	writeFile(t, filepath.Join(root, "a.go"), `package main
func f() { _ = i18n.T("cli.nowhere") }`)
	writeFile(t, filepath.Join(locales, "en.yaml"), "cli.used: a\n")

	var out bytes.Buffer
	ok, err := lint(root, locales, &out)
	if err != nil || ok || !strings.Contains(out.String(), "undefined: cli.nowhere") {
		t.Fatalf("expected an undefined key, got %v %v\n%s", ok, err, out.String())
	}
}

func TestLint_Repository(t *testing.T) {
	var out bytes.Buffer
	ok, err := lint("../..", filepath.Join("../..", localesDir), &out)
	if err != nil || !ok {
		t.Fatalf("locale files out of sync: %v\n%s", err, out.String())
	}
}
