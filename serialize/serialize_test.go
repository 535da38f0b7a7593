// Copyright (c) 2026 Keymaster Team
// wpdatabase - WordPress multisite data access
// This source code is licensed under the MIT license found in the LICENSE file.

package serialize

import (
	"reflect"
	"testing"
)

func TestIsSerialized(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"N;", true},
		{"b:1;", true},
		{"i:42;", true},
		{"d:0.5;", true},
		{`s:5:"hello";`, true},
		{`a:1:{s:13:"administrator";b:1;}`, true},
		{"  i:7;  ", true},
		{"hello", false},
		{"", false},
		{"i:x;", false},
		{"a:1:{", false},
		{`s:5:"hello"`, false},
		{"42", false},
	}
	for _, c := range cases {
		if got := IsSerialized(c.in); got != c.want {
			t.Errorf("IsSerialized(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestUnserialize_Capabilities(t *testing.T) {
	got := Unserialize(`a:2:{s:13:"administrator";b:1;s:6:"editor";b:0;}`)
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T (%v)", got, got)
	}
	if m["administrator"] != true || m["editor"] != false {
		t.Fatalf("unexpected capabilities: %v", m)
	}
}

func TestUnserialize_ListAndScalars(t *testing.T) {
	got := Unserialize(`a:2:{i:0;s:1:"a";i:1;s:1:"b";}`)
	if !reflect.DeepEqual(got, []any{"a", "b"}) {
		t.Fatalf("expected list, got %#v", got)
	}
	if got := Unserialize("i:12;"); got != 12 {
		t.Fatalf("expected 12, got %#v", got)
	}
	if got := Unserialize("plain text"); got != "plain text" {
		t.Fatalf("plain strings must pass through, got %#v", got)
	}
	if got := Unserialize("N;"); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
}

func TestUnserialize_BrokenReturnsRaw(t *testing.T) {
	raw := `s:10:"short";`
	if got := Unserialize(raw); got != raw {
		t.Fatalf("expected raw string back for undecodable input, got %#v", got)
	}
}

func TestSerialize_Scalars(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"plain", "plain"},
		{true, "1"},
		{false, ""},
		{7, "7"},
		{int64(8), "8"},
		{1.5, "1.5"},
	}
	for _, c := range cases {
		got, err := Serialize(c.in)
		if err != nil {
			t.Fatalf("Serialize(%v): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("Serialize(%#v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	in := map[string]any{"editor": true}
	s, err := Serialize(in)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !IsSerialized(s) {
		t.Fatalf("expected serialized output, got %q", s)
	}
	if got := Unserialize(s); !reflect.DeepEqual(got, in) {
		t.Fatalf("round trip mismatch: %#v vs %#v", got, in)
	}

	list := []string{"x", "y"}
	s, err = Serialize(list)
	if err != nil {
		t.Fatalf("Serialize list: %v", err)
	}
	if got := Unserialize(s); !reflect.DeepEqual(got, []any{"x", "y"}) {
		t.Fatalf("list round trip mismatch: %#v", got)
	}
}

func TestSerialize_AlreadySerializedStringIsWrapped(t *testing.T) {
	s, err := Serialize("i:1;")
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if s == "i:1;" {
		t.Fatalf("serialized-looking strings must be serialized again")
	}
	if got := Unserialize(s); got != "i:1;" {
		t.Fatalf("expected original string back, got %#v", got)
	}
}

func TestTruthy(t *testing.T) {
	falsy := []any{nil, false, "", "0", 0, int64(0), 0.0, []any{}, map[string]any{}}
	for _, v := range falsy {
		if Truthy(v) {
			t.Errorf("expected %#v to be falsy", v)
		}
	}
	truthy := []any{true, "1", "on", 1, []any{1}, map[string]any{"a": 1}}
	for _, v := range truthy {
		if !Truthy(v) {
			t.Errorf("expected %#v to be truthy", v)
		}
	}
}

func TestValue_ScanAndValue(t *testing.T) {
	var v Value
	if err := v.Scan([]byte(`a:1:{s:4:"size";i:3;}`)); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	m, ok := v.Get().(map[string]any)
	if !ok || m["size"] != 3 {
		t.Fatalf("unexpected decoded value: %#v", v.Get())
	}

	out, err := NewValue("hello").Value()
	if err != nil || out != "hello" {
		t.Fatalf("Value() = %v, %v", out, err)
	}
	if NewValue(nil).String() != "" {
		t.Fatalf("nil value should render empty")
	}
}

func TestYesNo(t *testing.T) {
	var b YesNo
	for in, want := range map[string]bool{"yes": true, "on": true, "auto-on": true, "no": false, "auto": false} {
		if err := b.Scan(in); err != nil {
			t.Fatalf("Scan(%q): %v", in, err)
		}
		if bool(b) != want {
			t.Errorf("Scan(%q) = %v, want %v", in, b, want)
		}
	}
	if v, _ := YesNo(true).Value(); v != "yes" {
		t.Fatalf("expected yes, got %v", v)
	}
	if v, _ := YesNo(false).Value(); v != "no" {
		t.Fatalf("expected no, got %v", v)
	}
}
