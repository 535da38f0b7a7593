// Copyright (c) 2026 Keymaster Team
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package serialize

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Value is a column holding a serialized value. It decodes on Scan and
// encodes on Value, so entity fields of this type read and write plain Go
// values.
type Value struct {
	v any
}

// NewValue wraps v for storage.
func NewValue(v any) Value {
	return Value{v: v}
}

// Get returns the decoded value.
func (v Value) Get() any {
	return v.v
}

// String returns the decoded value formatted with fmt, or "" for nil.
func (v Value) String() string {
	if v.v == nil {
		return ""
	}
	if s, ok := v.v.(string); ok {
		return s
	}
	return fmt.Sprint(v.v)
}

// Scan implements sql.Scanner.
func (v *Value) Scan(src any) error {
	switch x := src.(type) {
	case nil:
		v.v = nil
	case []byte:
		v.v = Unserialize(string(x))
	case string:
		v.v = Unserialize(x)
	default:
		v.v = x
	}
	return nil
}

// Value implements driver.Valuer.
func (v Value) Value() (driver.Value, error) {
	return Serialize(v.v)
}

// YesNo is a boolean stored as "yes" / "no", as used by the autoload column
// of the options table.
type YesNo bool

// Scan implements sql.Scanner. "yes", "on" and "auto-on" are true; anything
// else is false.
func (b *YesNo) Scan(src any) error {
	var s string
	switch x := src.(type) {
	case nil:
		*b = false
		return nil
	case []byte:
		s = string(x)
	case string:
		s = x
	case bool:
		*b = YesNo(x)
		return nil
	case int64:
		*b = x != 0
		return nil
	default:
		return fmt.Errorf("serialize: cannot scan %T into YesNo", src)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "on", "auto-on":
		*b = true
	default:
		*b = false
	}
	return nil
}

// Value implements driver.Valuer.
func (b YesNo) Value() (driver.Value, error) {
	if b {
		return "yes", nil
	}
	return "no", nil
}
