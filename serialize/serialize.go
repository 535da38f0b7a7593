// Copyright (c) 2026 Keymaster Team
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

// Package serialize converts between the serialized strings WordPress stores
// in meta_value and option_value columns and plain Go values.
//
// Decoded arrays become []any when their keys are 0..n-1 in order and
// map[string]any otherwise. Scalars decode to string, int, float64, bool or
// nil. Strings that do not look serialized are returned unchanged.
package serialize

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/yvasiyarov/php_session_decoder/php_serialize"
)

var (
	arrayOrObject = regexp.MustCompile(`^[aOE]:[0-9]+:`)
	scalar        = regexp.MustCompile(`^[bid]:[0-9.E+-]+;$`)
)

// IsSerialized reports whether s is in serialized form. It follows the strict
// checks WordPress applies before unserializing a stored value.
func IsSerialized(s string) bool {
	s = strings.TrimSpace(s)
	if s == "N;" {
		return true
	}
	if len(s) < 4 || s[1] != ':' {
		return false
	}
	last := s[len(s)-1]
	if last != ';' && last != '}' {
		return false
	}
	switch s[0] {
	case 's':
		return s[len(s)-2] == '"'
	case 'a', 'O', 'E':
		return arrayOrObject.MatchString(s)
	case 'b', 'i', 'd':
		return scalar.MatchString(s)
	}
	return false
}

// Unserialize decodes s when it is serialized and returns it unchanged
// otherwise. A value that looks serialized but fails to decode is returned
// as the raw string.
func Unserialize(s string) any {
	if !IsSerialized(s) {
		return s
	}
	decoded, err := php_serialize.NewUnSerializer(strings.TrimSpace(s)).Decode()
	if err != nil {
		return s
	}
	return fromPHP(decoded)
}

// Serialize encodes v for storage. Strings are stored as-is unless they
// already look serialized, in which case they are serialized again so they
// round-trip. Other scalars are stored in their string form; slices, arrays,
// maps and structs-as-maps are serialized.
func Serialize(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		if IsSerialized(x) {
			return encode(x)
		}
		return x, nil
	case []byte:
		return Serialize(string(x))
	case bool:
		if x {
			return "1", nil
		}
		return "", nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	}
	return encode(v)
}

func encode(v any) (string, error) {
	php, err := toPHP(v)
	if err != nil {
		return "", err
	}
	out, err := php_serialize.NewSerializer().Encode(php)
	if err != nil {
		return "", fmt.Errorf("serialize: encode %T: %w", v, err)
	}
	return out, nil
}

func fromPHP(v php_serialize.PhpValue) any {
	if arr, ok := v.(php_serialize.PhpArray); ok {
		return fromPHPArray(arr)
	}
	return v
}

func fromPHPArray(arr php_serialize.PhpArray) any {
	list := make([]any, len(arr))
	sequential := true
	for k, item := range arr {
		i, ok := k.(int)
		if !ok || i < 0 || i >= len(arr) {
			sequential = false
			break
		}
		list[i] = fromPHP(item)
	}
	if sequential {
		return list
	}

	out := make(map[string]any, len(arr))
	for k, item := range arr {
		out[fmt.Sprint(k)] = fromPHP(item)
	}
	return out
}

func toPHP(v any) (php_serialize.PhpValue, error) {
	switch x := v.(type) {
	case nil, string, bool, int, float64:
		return x, nil
	case int64:
		return int(x), nil
	case int32:
		return int(x), nil
	case float32:
		return float64(x), nil
	case []any:
		arr := make(php_serialize.PhpArray, len(x))
		for i, item := range x {
			pv, err := toPHP(item)
			if err != nil {
				return nil, err
			}
			arr[i] = pv
		}
		return arr, nil
	case map[string]any:
		arr := make(php_serialize.PhpArray, len(x))
		for k, item := range x {
			pv, err := toPHP(item)
			if err != nil {
				return nil, err
			}
			arr[k] = pv
		}
		return arr, nil
	case map[string]bool:
		arr := make(php_serialize.PhpArray, len(x))
		for k, b := range x {
			arr[k] = b
		}
		return arr, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return toPHP(items)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(map[string]any, rv.Len())
		for _, k := range rv.MapKeys() {
			m[k.String()] = rv.MapIndex(k).Interface()
		}
		return toPHP(m)
	case reflect.Int, reflect.Int8, reflect.Int16:
		return int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int(rv.Uint()), nil
	}
	return nil, fmt.Errorf("serialize: unsupported type %T", v)
}

// Truthy reports whether v would count as true in the source application:
// nil, false, 0, "", "0" and empty collections are false.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != "" && x != "0"
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}
