// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks the wpdb locale files against the message ids used in
// the Go sources. It fails when a locale lacks a key of the primary locale or
// when the code uses an id no locale defines.
package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "en.yaml"
)

var usedKeyRe = regexp.MustCompile(`i18n\.T\("([^"]+)"`)

func main() {
	ok, err := lint(".", localesDir, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "i18n-linter: %v\n", err)
		os.Exit(2)
	}
	if !ok {
		os.Exit(1)
	}
}

// lint writes a report to w and returns false when keys are missing.
// Orphaned keys are reported but do not fail the run.
func lint(root, locales string, w io.Writer) (bool, error) {
	used, err := findUsedKeys(root)
	if err != nil {
		return false, fmt.Errorf("scan sources: %w", err)
	}
	primary, err := loadKeysFromLocale(filepath.Join(locales, primaryLocale))
	if err != nil {
		return false, fmt.Errorf("load %s: %w", primaryLocale, err)
	}
	files, err := filepath.Glob(filepath.Join(locales, "*.yaml"))
	if err != nil {
		return false, err
	}

	ok := true
	for _, key := range sortedDiff(used, primary) {
		fmt.Fprintf(w, "undefined: %s\n", key)
		ok = false
	}
	for _, key := range sortedDiff(primary, used) {
		fmt.Fprintf(w, "orphaned: %s\n", key)
	}
	for _, file := range files {
		if filepath.Base(file) == primaryLocale {
			continue
		}
		keys, err := loadKeysFromLocale(file)
		if err != nil {
			return false, fmt.Errorf("load %s: %w", filepath.Base(file), err)
		}
		for _, key := range sortedDiff(primary, keys) {
			fmt.Fprintf(w, "missing in %s: %s\n", filepath.Base(file), key)
			ok = false
		}
	}
	if ok {
		fmt.Fprintf(w, "%d keys, %d locales consistent\n", len(primary), len(files))
	}
	return ok, nil
}

// sortedDiff returns the keys of a that are not in b.
func sortedDiff(a, b map[string]struct{}) []string {
	var out []string
	for k := range a {
		if _, found := b[k]; !found {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// findUsedKeys scans non-test .go files below root for i18n.T("id") calls.
func findUsedKeys(root string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (name == "tools" || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, m := range usedKeyRe.FindAllStringSubmatch(string(content), -1) {
			keys[m[1]] = struct{}{}
		}
		return nil
	})
	return keys, err
}

// loadKeysFromLocale reads a locale file and returns its flattened keys.
func loadKeysFromLocale(path string) (map[string]struct{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{})
	flattenYAML("", m, keys)
	return keys, nil
}

// flattenYAML joins nested maps with dots. go-i18n reads the plural forms
// (one, other) of a message as a leaf, so they are not descended into.
func flattenYAML(prefix string, m map[string]any, keys map[string]struct{}) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok && !isPluralForm(sub) {
			flattenYAML(key, sub, keys)
			continue
		}
		keys[key] = struct{}{}
	}
}

func isPluralForm(m map[string]any) bool {
	_, ok := m["other"]
	return ok
}
