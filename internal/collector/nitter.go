package collector

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/polemica/internal/extract"
	"github.com/ppiankov/polemica/internal/fetch"
	"github.com/ppiankov/polemica/internal/logger"
	"github.com/ppiankov/polemica/internal/model"
)

// tweet-date titles look like "Feb 27, 2025 · 10:38 AM UTC"
const nitterDateLayout = "Jan 2, 2006 · 3:04 PM MST"

// Nitter searches a pool of interchangeable Nitter mirrors. Mirrors are
// tried one after another, never in parallel, and each call tries at most
// min(MaxAttempts, len(pool)) of them. The collector keeps no state between
// calls.
type Nitter struct {
	cfg        model.NitterConfig
	qualifiers []string
	getter     Getter
	userAgent  string
	start      func(n int) int // Picks the first mirror of a call
	now        func() time.Time
	log        logrus.FieldLogger
}

// NewNitter creates the microblog collector
func NewNitter(cfg model.NitterConfig, qualifiers []string, getter Getter, userAgent string, log logrus.FieldLogger) *Nitter {
	cfg.Mirrors = append([]string(nil), cfg.Mirrors...)
	return &Nitter{
		cfg:        cfg,
		qualifiers: append([]string(nil), qualifiers...),
		getter:     getter,
		userAgent:  userAgent,
		start:      rand.IntN,
		now:        time.Now,
		log:        logger.OrDefault(log),
	}
}

func (c *Nitter) Source() model.SourceType { return model.SourceTwitter }

// Collect starts from a random mirror so repeated calls spread their load
func (c *Nitter) Collect(ctx context.Context, topic string) Outcome {
	start := 0
	if len(c.cfg.Mirrors) > 0 {
		start = c.start(len(c.cfg.Mirrors))
	}
	return c.CollectFrom(ctx, topic, start)
}

// CollectFrom rotates through the pool beginning at mirror index start
func (c *Nitter) CollectFrom(ctx context.Context, topic string, start int) Outcome {
	out := Outcome{Source: c.Source()}

	pool := c.cfg.Mirrors
	if len(pool) == 0 {
		out.Degraded = true
		out.Cause = fmt.Errorf("no mirrors configured: %w", ErrNoResults)
		return out
	}

	limit := len(pool)
	if c.cfg.MaxAttempts > 0 && c.cfg.MaxAttempts < limit {
		limit = c.cfg.MaxAttempts
	}
	start = ((start % len(pool)) + len(pool)) % len(pool)

	query := WidenQuery(topic, c.qualifiers)
	for attempt := 0; attempt < limit; attempt++ {
		mirror := strings.TrimRight(pool[(start+attempt)%len(pool)], "/")
		out.Attempts++

		items, err := c.search(ctx, mirror, query)
		if err == nil {
			out.Items, out.Path, out.Cause = items, mirror, nil
			return out
		}

		out.Cause = err
		logFailure(c.log.WithField("attempt", attempt+1), out.Source, mirror, err)
	}

	out.Degraded = true
	return out
}

func (c *Nitter) search(ctx context.Context, mirror, query string) ([]model.RawItem, error) {
	searchURL := withQuery(mirror+"/search", url.Values{
		"q": {query},
		"f": {"tweets"},
	})

	resp, err := c.getter.Get(ctx, fetch.Request{
		URL:       searchURL,
		UserAgent: c.userAgent,
		Timeout:   c.cfg.Timeout,
		Check:     rejectThrottled,
	})
	if err != nil {
		if IsRateLimited(err) {
			return nil, fmt.Errorf("%s: %w", mirror, err)
		}
		return nil, networkError(searchURL, err)
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, fmt.Errorf("%s: empty page: %w", mirror, ErrNoResults)
	}

	items, err := c.parseTimeline(resp.Body, searchURL)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", mirror, ErrNoResults)
	}
	return items, nil
}

// rejectThrottled spots the 200 page a mirror serves while throttling
func rejectThrottled(body []byte) error {
	if bytes.Contains(bytes.ToLower(body), []byte("rate limit")) {
		return ErrRateLimited
	}
	return nil
}

func (c *Nitter) parseTimeline(body []byte, pageURL string) ([]model.RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, parseError(pageURL, err)
	}

	var items []model.RawItem
	doc.Find(".timeline-item").EachWithBreak(func(_ int, tweet *goquery.Selection) bool {
		if tweet.Find(".embedded-tweet").Length() > 0 {
			return true
		}
		id, ok := tweet.Attr("data-tweet-id")
		if !ok || id == "" {
			return true
		}

		content := strings.TrimSpace(tweet.Find(".tweet-content").First().Text())
		if content == "" {
			return true
		}
		username := strings.TrimSpace(tweet.Find(".username").First().Text())
		fullname := strings.TrimSpace(tweet.Find(".fullname").First().Text())

		item := model.RawItem{
			Title:        fmt.Sprintf("%s (%s): %s", fullname, username, extract.Snippet(content, 60)),
			Link:         fmt.Sprintf("https://twitter.com/%s/status/%s", strings.TrimPrefix(username, "@"), id),
			Date:         c.now(),
			SourceDetail: username,
			Content:      content,
		}
		if title, ok := tweet.Find(".tweet-date a").First().Attr("title"); ok {
			if t, err := time.Parse(nitterDateLayout, title); err == nil {
				item.Date = t
			}
		}

		items = append(items, item)
		return c.cfg.MaxResults <= 0 || len(items) < c.cfg.MaxResults
	})

	return items, nil
}
