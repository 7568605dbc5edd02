package validation

import (
	"reflect"
	"testing"
)

func TestValidScopeName(t *testing.T) {
	valids := []string{"a", "read", "profile:read", "a_b-c.d:x2"}
	for _, v := range valids {
		if !ValidScopeName(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
	invalids := []string{"", ":lead", "trail:", "bad scope", "UPPER", "semi;colon"}
	for _, v := range invalids {
		if ValidScopeName(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestParseScope(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"read", []string{"read"}},
		{"read write", []string{"read", "write"}},
		{"  read   write ", []string{"read", "write"}},
	}
	for _, c := range cases {
		got := ParseScope(c.in)
		if !reflect.DeepEqual(got, c.want) {
			t.Fatalf("ParseScope(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestDisallowed(t *testing.T) {
	allowed := []string{"read", "write"}

	if bad := Disallowed(nil, allowed); len(bad) != 0 {
		t.Fatalf("empty requested should always pass, got %v", bad)
	}
	if bad := Disallowed([]string{"read"}, allowed); len(bad) != 0 {
		t.Fatalf("subset should pass, got %v", bad)
	}

	// El resultado preserva el orden de requested, no el de allowed.
	bad := Disallowed([]string{"delete", "read", "admin"}, allowed)
	if !reflect.DeepEqual(bad, []string{"delete", "admin"}) {
		t.Fatalf("want [delete admin] in request order, got %v", bad)
	}

	// Un nombre malformado cuenta como no permitido aunque "matchee" algo.
	bad = Disallowed([]string{"REad"}, allowed)
	if len(bad) != 1 {
		t.Fatalf("malformed scope should be disallowed, got %v", bad)
	}
}

func TestJoinScope(t *testing.T) {
	if got := JoinScope([]string{"read", "write"}); got != "read write" {
		t.Fatalf("got %q", got)
	}
	if got := JoinScope(nil); got != "" {
		t.Fatalf("got %q", got)
	}
}
