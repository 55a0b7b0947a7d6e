package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/polemica/internal/extract"
	"github.com/ppiankov/polemica/internal/fetch"
	"github.com/ppiankov/polemica/internal/logger"
	"github.com/ppiankov/polemica/internal/model"
)

// Reddit scrapes old.reddit.com search results and falls back to the JSON
// search endpoint when the page fails or lists nothing.
type Reddit struct {
	cfg        model.RedditConfig
	qualifiers []string
	getter     Getter
	pick       func(n int) int // Chooses a user agent index
	log        logrus.FieldLogger
}

// NewReddit creates the forum collector
func NewReddit(cfg model.RedditConfig, qualifiers []string, getter Getter, log logrus.FieldLogger) *Reddit {
	return &Reddit{
		cfg:        cfg,
		qualifiers: append([]string(nil), qualifiers...),
		getter:     getter,
		pick:       rand.IntN,
		log:        logger.OrDefault(log),
	}
}

func (c *Reddit) Source() model.SourceType { return model.SourceReddit }

func (c *Reddit) Collect(ctx context.Context, topic string) Outcome {
	out := Outcome{Source: c.Source()}
	query := WidenQuery(topic, c.qualifiers)

	searchURL := withQuery(c.cfg.SearchURL, url.Values{
		"q":               {query},
		"sort":            {"relevance"},
		"t":               {c.cfg.TimeRange},
		"include_over_18": {"on"},
	})

	out.Attempts++
	items, err := c.searchPage(ctx, searchURL)
	if err == nil {
		out.Items, out.Path = items, PathPrimary
		return out
	}
	logFailure(c.log, out.Source, searchURL, err)

	jsonURL := withQuery(c.cfg.JSONURL, url.Values{
		"q":     {query},
		"sort":  {"relevance"},
		"t":     {c.cfg.TimeRange},
		"limit": {strconv.Itoa(c.cfg.MaxResults)},
	})

	out.Attempts++
	items, jsonErr := c.searchJSON(ctx, jsonURL)
	if jsonErr != nil {
		logFailure(c.log, out.Source, jsonURL, jsonErr)
		out.Degraded = true
		out.Cause = errors.Join(err, jsonErr)
		return out
	}

	out.Items, out.Path, out.Cause = items, PathFallback, err
	return out
}

func (c *Reddit) userAgent() string {
	if len(c.cfg.UserAgents) == 0 {
		return ""
	}
	return c.cfg.UserAgents[c.pick(len(c.cfg.UserAgents))]
}

func (c *Reddit) searchPage(ctx context.Context, searchURL string) ([]model.RawItem, error) {
	base := origin(c.cfg.SearchURL)

	resp, err := c.getter.Get(ctx, fetch.Request{
		URL:       searchURL,
		UserAgent: c.userAgent(),
		Accept:    "text/html,application/xhtml+xml,application/xml",
		Headers:   map[string]string{"Referer": base + "/"},
		Timeout:   c.cfg.Timeout,
	})
	if err != nil {
		return nil, networkError(searchURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, parseError(searchURL, err)
	}

	var items []model.RawItem
	doc.Find(".search-result").EachWithBreak(func(_ int, result *goquery.Selection) bool {
		titleElem := result.Find(".search-title").First()
		title := strings.TrimSpace(titleElem.Text())
		href, _ := titleElem.Attr("href")
		link := extract.ResolveURL(base+"/", href)
		if title == "" || link == "" {
			return true
		}

		item := model.RawItem{
			Title:        title,
			Link:         link,
			SourceDetail: strings.TrimSpace(result.Find(".search-subreddit-link").First().Text()),
			Content:      title,
		}
		if ts, ok := result.Find("time").First().Attr("datetime"); ok {
			item.Date = parseTimestamp(ts)
		}

		items = append(items, item)
		return c.cfg.MaxResults <= 0 || len(items) < c.cfg.MaxResults
	})

	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", searchURL, ErrNoResults)
	}
	return items, nil
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title                 string  `json:"title"`
				Selftext              string  `json:"selftext"`
				Permalink             string  `json:"permalink"`
				CreatedUTC            float64 `json:"created_utc"`
				SubredditNamePrefixed string  `json:"subreddit_name_prefixed"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (c *Reddit) searchJSON(ctx context.Context, jsonURL string) ([]model.RawItem, error) {
	resp, err := c.getter.Get(ctx, fetch.Request{
		URL:       jsonURL,
		UserAgent: c.userAgent(),
		Accept:    "application/json",
		Timeout:   c.cfg.Timeout,
	})
	if err != nil {
		return nil, networkError(jsonURL, err)
	}

	var listing redditListing
	if err := json.Unmarshal(resp.Body, &listing); err != nil {
		return nil, parseError(jsonURL, err)
	}

	base := origin(c.cfg.JSONURL)
	var items []model.RawItem
	for _, child := range listing.Data.Children {
		post := child.Data
		if strings.TrimSpace(post.Title) == "" {
			continue
		}

		content := post.Title
		if post.Selftext != "" {
			content += " " + post.Selftext
		}

		item := model.RawItem{
			Title:        strings.TrimSpace(post.Title),
			Link:         base + post.Permalink,
			SourceDetail: post.SubredditNamePrefixed,
			Content:      content,
		}
		if post.CreatedUTC > 0 {
			item.Date = time.Unix(int64(post.CreatedUTC), 0).UTC()
		}
		items = append(items, item)
	}

	return limitItems(items, c.cfg.MaxResults), nil
}
