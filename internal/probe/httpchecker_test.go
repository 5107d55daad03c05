package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPChecker_StatusOK(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer s.Close()

	out, err := NewHTTPChecker().Probe(context.Background(), s.URL, 2*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != Reachable {
		t.Fatalf("want reachable, got %v", out)
	}
}

func TestHTTPChecker_Status500IsUnreachable(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", 500)
	}))
	defer s.Close()

	out, err := NewHTTPChecker().Probe(context.Background(), s.URL, 2*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != Unreachable {
		t.Fatalf("want unreachable, got %v", out)
	}
}

func TestHTTPChecker_StatusCodes(t *testing.T) {
	cases := []struct {
		code int
		want Outcome
	}{
		{http.StatusNoContent, Reachable},
		{http.StatusMovedPermanently, Reachable},
		{http.StatusUnauthorized, Reachable},
		{http.StatusForbidden, Reachable},
		{http.StatusNotFound, Reachable},
		{http.StatusMethodNotAllowed, Reachable},
		{http.StatusTooManyRequests, Reachable},
		{http.StatusBadGateway, Unreachable},
		{http.StatusServiceUnavailable, Unreachable},
	}
	for _, tc := range cases {
		code := tc.code
		s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))

		out, err := NewHTTPChecker().Probe(context.Background(), s.URL, 2*time.Second)
		s.Close()
		if err != nil {
			t.Fatalf("%d: unexpected error: %v", tc.code, err)
		}
		if out != tc.want {
			t.Fatalf("%d: want %v, got %v", tc.code, tc.want, out)
		}
	}
}

func TestHTTPChecker_TimeoutIsUnreachableNotError(t *testing.T) {
	// Server sleeps longer than the probe timeout
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
	}))
	defer s.Close()

	out, err := NewHTTPChecker().Probe(context.Background(), s.URL, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("timeout must not be an error, got %v", err)
	}
	if out != Unreachable {
		t.Fatalf("want unreachable on timeout, got %v", out)
	}
}

func TestHTTPChecker_RefusedIsUnreachable(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := s.URL
	s.Close()

	out, err := NewHTTPChecker().Probe(context.Background(), addr, time.Second)
	if err != nil {
		t.Fatalf("refused connection must not be an error, got %v", err)
	}
	if out != Unreachable {
		t.Fatalf("want unreachable, got %v", out)
	}
}

func TestHTTPChecker_UnresolvableHostIsResolutionError(t *testing.T) {
	_, err := NewHTTPChecker().Probe(context.Background(), "http://fwrgrwetf3.invalid", time.Second)
	if !IsResolution(err) {
		t.Fatalf("want resolution error, got %v", err)
	}
}

func TestNew_Kinds(t *testing.T) {
	if p, err := New(""); err != nil || p == nil {
		t.Fatalf("default kind: %v", err)
	}
	if _, ok := mustNew(t, KindICMP).(*FallbackProber); !ok {
		t.Fatalf("icmp kind should build a FallbackProber")
	}
	if _, ok := mustNew(t, KindHTTP).(*HTTPChecker); !ok {
		t.Fatalf("http kind should build an HTTPChecker")
	}
	if _, err := New("carrier-pigeon"); err == nil {
		t.Fatalf("unknown kind should fail")
	}
}

func mustNew(t *testing.T, kind string) Prober {
	t.Helper()
	p, err := New(kind)
	if err != nil {
		t.Fatalf("New(%q): %v", kind, err)
	}
	return p
}

func TestHostOf(t *testing.T) {
	cases := map[string]string{
		"hub.byond.com":              "hub.byond.com",
		" 10.0.0.1 ":                 "10.0.0.1",
		"::1":                        "::1",
		"https://example.com:8443/x": "example.com",
		"http://[2001:db8::1]:80/":   "2001:db8::1",
	}
	for in, want := range cases {
		if got := HostOf(in); got != want {
			t.Errorf("HostOf(%q) = %q, want %q", in, got, want)
		}
	}
}
