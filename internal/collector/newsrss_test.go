package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/polemica/internal/model"
)

func newsRSSConfig(base string) model.NewsRSSConfig {
	cfg := model.DefaultConfig().Sources.GoogleNewsRSS
	cfg.SearchURL = base + "/rss/search"
	cfg.AlternateURL = base + "/rss"
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestNewsRSS_Primary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rss/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "Acme (controversy OR scandal OR allegations OR investigation)" {
			t.Errorf("q = %q", got)
		}
		if got := r.URL.Query().Get("ceid"); got != "US:en" {
			t.Errorf("ceid = %q", got)
		}
		if !strings.Contains(r.Header.Get("User-Agent"), "Chrome") {
			t.Errorf("primary should use the Chrome user agent, got %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(rssFeed(7)))
	}))
	defer server.Close()

	c := NewNewsRSS(newsRSSConfig(server.URL), model.DefaultConfig().Query.Qualifiers, testFetcher(), nil)
	out := c.Collect(context.Background(), "Acme")

	if out.Degraded || out.Path != PathPrimary {
		t.Fatalf("unexpected outcome: degraded=%v path=%s cause=%v", out.Degraded, out.Path, out.Cause)
	}
	if len(out.Items) != 5 {
		t.Fatalf("items = %d, want 5 (limit)", len(out.Items))
	}

	first := out.Items[0]
	if first.SourceDetail != "Publisher 1" {
		t.Errorf("SourceDetail = %q, want Publisher 1", first.SourceDetail)
	}
	if first.Content != "Acme story 1 Publisher 1" {
		t.Errorf("Content = %q", first.Content)
	}
	if first.Link != "https://news.example/1" {
		t.Errorf("Link = %q", first.Link)
	}
	if want := time.Date(2025, 2, 27, 8, 0, 0, 0, time.UTC); !first.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", first.Date, want)
	}
}

func TestNewsRSS_AlternateAfterFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rss/search":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/rss":
			if got := r.URL.Query().Get("q"); got != "Acme recent news controversy" {
				t.Errorf("alternate q = %q", got)
			}
			if !strings.Contains(r.Header.Get("User-Agent"), "Safari") || strings.Contains(r.Header.Get("User-Agent"), "Chrome") {
				t.Errorf("alternate should use the Safari user agent, got %q", r.Header.Get("User-Agent"))
			}
			_, _ = w.Write([]byte(rssFeed(2)))
		}
	}))
	defer server.Close()

	c := NewNewsRSS(newsRSSConfig(server.URL), nil, testFetcher(), nil)
	out := c.Collect(context.Background(), "Acme")

	if out.Degraded {
		t.Fatalf("fallback succeeded but outcome degraded: %v", out.Cause)
	}
	if out.Path != PathFallback || out.Attempts != 2 {
		t.Errorf("path=%s attempts=%d", out.Path, out.Attempts)
	}
	if !IsNetwork(out.Cause) {
		t.Errorf("cause should record the primary network failure, got %v", out.Cause)
	}
	if len(out.Items) != 2 || out.Items[0].SourceDetail != "Google News" {
		t.Errorf("unexpected items %+v", out.Items)
	}
}

func TestNewsRSS_MalformedFeedFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rss/search" {
			_, _ = w.Write([]byte("this is not a feed"))
			return
		}
		_, _ = w.Write([]byte(rssFeed(1)))
	}))
	defer server.Close()

	out := NewNewsRSS(newsRSSConfig(server.URL), nil, testFetcher(), nil).Collect(context.Background(), "Acme")

	if !IsParse(out.Cause) {
		t.Errorf("cause = %v, want parse error", out.Cause)
	}
	if len(out.Items) != 1 {
		t.Errorf("items = %d, want 1", len(out.Items))
	}
}

func TestNewsRSS_BothFail(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	out := NewNewsRSS(newsRSSConfig(server.URL), nil, testFetcher(), nil).Collect(context.Background(), "Acme")

	if !out.Degraded || len(out.Items) != 0 {
		t.Errorf("expected degraded empty outcome, got %+v", out)
	}
	if out.Attempts != 2 || hits.Load() != 2 {
		t.Errorf("attempts=%d hits=%d, want exactly one retry", out.Attempts, hits.Load())
	}
	if out.Cause == nil {
		t.Error("cause not recorded")
	}
}

func TestNewsRSS_EmptyFeedIsNotAFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rss/search" {
			t.Errorf("alternate feed should not be queried")
		}
		_, _ = w.Write([]byte(rssFeed(0)))
	}))
	defer server.Close()

	out := NewNewsRSS(newsRSSConfig(server.URL), nil, testFetcher(), nil).Collect(context.Background(), "Acme")
	if out.Degraded || len(out.Items) != 0 || out.Path != PathPrimary {
		t.Errorf("unexpected outcome %+v", out)
	}
}
