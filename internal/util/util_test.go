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

func TestNewProxyFunc_NoProxyUsesEnvironment(t *testing.T) {
	fn := NewProxyFunc("", "", "")
	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	if _, err := fn(req); err != nil {
		t.Fatalf("proxy func: %v", err)
	}
}

func TestNewProxyFunc_SchemeSelection(t *testing.T) {
	fn := NewProxyFunc("http://plain:8080", "http://secure:8443", "internal.local, .corp.example")

	tests := []struct {
		target string
		want   string
	}{
		{"http://example.com", "http://plain:8080"},
		{"https://example.com", "http://secure:8443"},
		{"https://internal.local/x", ""},
		{"https://api.corp.example/x", ""},
	}

	for _, tt := range tests {
		u, _ := url.Parse(tt.target)
		got, err := fn(&http.Request{URL: u})
		if err != nil {
			t.Fatalf("%s: %v", tt.target, err)
		}
		gotStr := ""
		if got != nil {
			gotStr = got.String()
		}
		if gotStr != tt.want {
			t.Errorf("%s: proxy = %q, want %q", tt.target, gotStr, tt.want)
		}
	}
}

func TestRobotsChecker(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			atomic.AddInt32(&hits, 1)
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /search\nCrawl-delay: 2\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rc := NewRobotsChecker(srv.Client(), "Mozilla/5.0 (X11)")
	ctx := context.Background()

	allowed, delay, err := rc.CanFetch(ctx, srv.URL+"/search?q=acme")
	if err != nil {
		t.Fatalf("CanFetch: %v", err)
	}
	if allowed {
		t.Error("/search should be disallowed")
	}
	if delay != 2*time.Second {
		t.Errorf("crawl delay = %v, want 2s", delay)
	}

	if allowed, _, _ := rc.CanFetch(ctx, srv.URL+"/rss"); !allowed {
		t.Error("/rss should be allowed")
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", hits)
	}
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	rc := NewRobotsChecker(srv.Client(), "polemica/1.0")
	if allowed, _, err := rc.CanFetch(context.Background(), srv.URL+"/anything"); !allowed || err != nil {
		t.Error("missing robots.txt should allow")
	}
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	rc := NewRobotsChecker(&http.Client{Timeout: 200 * time.Millisecond}, "polemica/1.0")
	if allowed, _, _ := rc.CanFetch(context.Background(), "http://127.0.0.1:1/x"); !allowed {
		t.Error("unreachable robots.txt should allow")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	if got := NormalizeUserAgent("Mozilla/5.0 (Windows NT 10.0)"); got != "Mozilla" {
		t.Errorf("got %q, want Mozilla", got)
	}
	if got := NormalizeUserAgent(""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
