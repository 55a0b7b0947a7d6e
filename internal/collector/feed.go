package collector

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ppiankov/polemica/internal/extract"
	"github.com/ppiankov/polemica/internal/fetch"
	"github.com/ppiankov/polemica/internal/model"
)

const feedAccept = "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"

// feedQuery is one syndication request
type feedQuery struct {
	URL           string
	UserAgent     string
	Limit         int
	DefaultDetail string
	// Publisher from a "Headline - Publisher" title wins over DefaultDetail
	PublisherFromTitle bool
}

// readFeed fetches and parses an RSS/Atom feed into raw items
func readFeed(ctx context.Context, getter Getter, q feedQuery, timeout time.Duration) ([]model.RawItem, error) {
	resp, err := getter.Get(ctx, fetch.Request{
		URL:       q.URL,
		UserAgent: q.UserAgent,
		Accept:    feedAccept,
		Timeout:   timeout,
	})
	if err != nil {
		return nil, networkError(q.URL, err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, parseError(q.URL, err)
	}

	items := make([]model.RawItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			continue
		}

		item := model.RawItem{
			Title:        title,
			Link:         strings.TrimSpace(entry.Link),
			SourceDetail: q.DefaultDetail,
			Content:      extract.PlainText(entry.Description),
		}
		if entry.PublishedParsed != nil {
			item.Date = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			item.Date = *entry.UpdatedParsed
		}
		if q.PublisherFromTitle {
			if publisher := publisherFromTitle(title); publisher != "" {
				item.SourceDetail = publisher
			}
		}

		items = append(items, item)
		if q.Limit > 0 && len(items) == q.Limit {
			break
		}
	}

	return items, nil
}

// publisherFromTitle extracts "Publisher" from "Headline - Publisher"
func publisherFromTitle(title string) string {
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 {
		return ""
	}
	return strings.TrimSpace(title[idx+3:])
}
