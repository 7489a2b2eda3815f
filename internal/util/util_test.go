package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewProxyFunc_Explicit(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "http://secure.local:3128", "internal.example")

	tests := []struct {
		target string
		want   string
	}{
		{"http://www.reddit.com/r/startups", "http://proxy.local:3128"},
		{"https://www.reddit.com/r/startups", "http://secure.local:3128"},
		{"https://internal.example/x", ""},
	}

	for _, tt := range tests {
		u, _ := url.Parse(tt.target)
		got, err := proxy(&http.Request{URL: u})
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.target, err)
		}
		if tt.want == "" {
			if got != nil {
				t.Errorf("%s: expected no proxy, got %s", tt.target, got)
			}
			continue
		}
		if got == nil || got.String() != tt.want {
			t.Errorf("%s: expected %s, got %v", tt.target, tt.want, got)
		}
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := map[string]string{
		"startupscout/0.1 (+https://github.com/ppiankov/startupscout)": "startupscout",
		"curl/8.0": "curl",
		"plain":    "plain",
		"":         "",
	}
	for in, want := range tests {
		if got := NormalizeUserAgent(in); got != want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRobotsChecker_CanFetch(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		hits.Add(1)
		_, _ = w.Write([]byte("User-agent: startupscout\nDisallow: /private\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n"))
	}))
	defer server.Close()

	checker := NewRobotsChecker("startupscout/0.1", server.Client())
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, server.URL+"/r/startups/comments/abc.json")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("Expected public path allowed for our agent")
	}
	if delay != 2*time.Second {
		t.Errorf("Expected 2s crawl delay, got %v", delay)
	}

	allowed, _, _ = checker.CanFetch(ctx, server.URL+"/private/thing")
	if allowed {
		t.Error("Expected /private to be disallowed")
	}

	if hits.Load() != 1 {
		t.Errorf("Expected robots.txt fetched once, got %d", hits.Load())
	}

	other := NewRobotsChecker("otherbot/1.0", server.Client())
	if allowed, _, _ := other.CanFetch(ctx, server.URL+"/r/startups"); allowed {
		t.Error("Expected wildcard group to disallow other agents")
	}
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	checker := NewRobotsChecker("startupscout/0.1", server.Client())
	allowed, _, err := checker.CanFetch(context.Background(), server.URL+"/anything")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("Expected missing robots.txt to allow everything")
	}
}
