// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package database

import (
	"errors"
	"strings"
)

var (
	// ErrConnectionNotConfigured is returned when a named connection (or the
	// default one) has not been added to a Manager.
	ErrConnectionNotConfigured = errors.New("database: connection not configured")
	// ErrMissingDatabaseName is returned when a connection is added without a
	// database name or DSN.
	ErrMissingDatabaseName = errors.New("database: missing database name")
	// ErrUnsupportedDriver is returned for drivers other than mysql, pgsql and sqlite.
	ErrUnsupportedDriver = errors.New("database: unsupported driver")
	// ErrDuplicate is returned when attempting to insert a record that already exists.
	ErrDuplicate = errors.New("database: duplicate record")
)

// MapDBError inspects low-level driver errors and maps common constraint
// violations to package-level sentinel errors (like ErrDuplicate). This is a
// conservative, string-based mapping to avoid importing SQL driver packages
// into this package file.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	le := strings.ToLower(err.Error())
	// MySQL duplicate entry, Postgres unique violation (23505), SQLite unique constraint
	if strings.Contains(le, "duplicate") || strings.Contains(le, "unique") || strings.Contains(le, "23505") || strings.Contains(le, "1062") {
		return ErrDuplicate
	}
	return err
}
