package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/polemica/internal/fetch"
	"github.com/ppiankov/polemica/internal/model"
)

func testFetcher() *fetch.Fetcher {
	return fetch.New(model.HTTPConfig{
		Timeout:      5 * time.Second,
		UserAgent:    "test-agent",
		MaxBodyBytes: 1 << 20,
	})
}

// rssFeed builds a Google News style feed with n items
func rssFeed(n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>Google News</title>`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<item>
<title>Acme story %d faces lawsuit - Publisher %d</title>
<link>https://news.example/%d</link>
<pubDate>Thu, 27 Feb 2025 08:00:00 GMT</pubDate>
<description>&lt;a href="https://news.example/%d"&gt;Acme story %d&lt;/a&gt;&amp;nbsp;&lt;font color="#6f6f6f"&gt;Publisher %d&lt;/font&gt;</description>
</item>`, i, i, i, i, i, i)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

type fakeRenderer struct {
	html  string
	err   error
	calls []string
}

func (f *fakeRenderer) Render(_ context.Context, pageURL string) (string, error) {
	f.calls = append(f.calls, pageURL)
	return f.html, f.err
}
