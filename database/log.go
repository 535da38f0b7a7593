// Copyright (c) 2025 ToeiRei
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package database

import (
	"context"
	"time"

	"github.com/toeirei/wpdatabase/internal/logging"
	"github.com/uptrace/bun"
)

var debugEnabled bool

// SetDebug enables or disables query logging for pools opened afterwards.
// Disabled by default.
func SetDebug(enabled bool) {
	debugEnabled = enabled
	logging.SetDebug(enabled)
}

func dbLogf(format string, v ...any) {
	if debugEnabled {
		logging.Debugf(format, v...)
	}
}

// queryLogger is a bun.QueryHook that logs every statement with its duration.
type queryLogger struct {
	pool string
}

var _ bun.QueryHook = queryLogger{}

func (h queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h queryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	dur := time.Since(event.StartTime)
	if event.Err != nil {
		dbLogf("db[%s]: %s (%s) error: %v", h.pool, event.Query, dur, event.Err)
		return
	}
	dbLogf("db[%s]: %s (%s)", h.pool, event.Query, dur)
}
