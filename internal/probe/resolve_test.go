package probe

import (
	"context"
	"testing"
)

func TestResolve_IPLiteralSkipsLookup(t *testing.T) {
	ip, err := Resolve(context.Background(), "192.0.2.10")
	if err != nil {
		t.Fatalf("Resolve literal: %v", err)
	}
	if ip.String() != "192.0.2.10" {
		t.Fatalf("want 192.0.2.10, got %s", ip)
	}
}

func TestResolve_EmptyIsResolutionError(t *testing.T) {
	_, err := Resolve(context.Background(), "  ")
	if !IsResolution(err) {
		t.Fatalf("want resolution error, got %v", err)
	}
}

func TestResolve_UnknownHostIsResolutionError(t *testing.T) {
	// .invalid is reserved (RFC 2606) and never resolves.
	_, err := Resolve(context.Background(), "fwrgrwetf3.invalid")
	if err == nil {
		t.Fatalf("expected an error for an unresolvable name")
	}
	if !IsResolution(err) {
		t.Fatalf("want resolution error, got %v", err)
	}
	if IsTransport(err) {
		t.Fatalf("resolution error must not be classified as transport")
	}
}

func TestCheckDNS_Classes(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "INVALID_NAME"},
		{"https://example.com", "INVALID_NAME"},
		{"10.0.0.1", "LITERAL"},
		{"::1", "LITERAL"},
	}
	for _, c := range cases {
		got := CheckDNS(c.in)
		if got.Class != c.want {
			t.Fatalf("CheckDNS(%q).Class=%q want %q", c.in, got.Class, c.want)
		}
	}
	if !CheckDNS("10.0.0.1").Resolvable() {
		t.Fatalf("IP literal should be resolvable")
	}
	if CheckDNS("").Resolvable() {
		t.Fatalf("empty name should not be resolvable")
	}
}
