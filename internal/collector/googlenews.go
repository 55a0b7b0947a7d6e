package collector

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/polemica/internal/extract"
	"github.com/ppiankov/polemica/internal/logger"
	"github.com/ppiankov/polemica/internal/model"
)

// GoogleNews renders the Google News search page in a headless browser and
// scrapes its result cards. Any failure, or a page with no cards, falls back
// to the provider's RSS search.
type GoogleNews struct {
	cfg        model.GoogleNewsConfig
	qualifiers []string
	renderer   Renderer
	getter     Getter
	feedUA     string
	log        logrus.FieldLogger
}

// NewGoogleNews creates the rendered-search collector
func NewGoogleNews(cfg model.GoogleNewsConfig, qualifiers []string, renderer Renderer, getter Getter, feedUA string, log logrus.FieldLogger) *GoogleNews {
	return &GoogleNews{
		cfg:        cfg,
		qualifiers: append([]string(nil), qualifiers...),
		renderer:   renderer,
		getter:     getter,
		feedUA:     feedUA,
		log:        logger.OrDefault(log),
	}
}

func (c *GoogleNews) Source() model.SourceType { return model.SourceGoogleNews }

func (c *GoogleNews) Collect(ctx context.Context, topic string) Outcome {
	out := Outcome{Source: c.Source()}

	searchURL := withQuery(c.cfg.SearchURL, url.Values{
		"q":  {WidenQuery(topic, c.qualifiers)},
		"hl": {c.cfg.Language},
	})

	out.Attempts++
	items, err := c.rendered(ctx, searchURL)
	if err == nil {
		out.Items, out.Path = limitItems(items, c.cfg.MaxResults), PathPrimary
		return out
	}
	logFailure(c.log, out.Source, searchURL, err)

	feedURL := withQuery(c.cfg.RSSURL, url.Values{
		"q":    {topic + " controversy news"},
		"hl":   {c.cfg.Language},
		"gl":   {c.cfg.Country},
		"ceid": {c.cfg.Country + ":" + strings.SplitN(c.cfg.Language, "-", 2)[0]},
	})

	out.Attempts++
	items, feedErr := readFeed(ctx, c.getter, feedQuery{
		URL:           feedURL,
		UserAgent:     c.feedUA,
		Limit:         c.cfg.MaxResults,
		DefaultDetail: "Google News (RSS)",
	}, 0)
	if feedErr != nil {
		logFailure(c.log, out.Source, feedURL, feedErr)
		out.Degraded = true
		out.Cause = errors.Join(err, feedErr)
		return out
	}

	out.Items, out.Path, out.Cause = items, PathFallback, err
	return out
}

func (c *GoogleNews) rendered(ctx context.Context, searchURL string) ([]model.RawItem, error) {
	if c.renderer == nil {
		return nil, errors.New("no browser renderer configured")
	}

	html, err := c.renderer.Render(ctx, searchURL)
	if err != nil {
		return nil, &NetworkError{URL: searchURL, Err: err}
	}

	items, err := parseNewsCards(html, searchURL)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", searchURL, ErrNoResults)
	}
	return items, nil
}

// parseNewsCards extracts one item per <article> card
func parseNewsCards(html, pageURL string) ([]model.RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, parseError(pageURL, err)
	}

	var items []model.RawItem
	doc.Find("article").Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find("h3").First().Text())
		href, ok := card.Find("a").First().Attr("href")
		if title == "" || !ok {
			return
		}
		link := extract.ResolveURL(pageURL, href)
		if link == "" {
			return
		}

		item := model.RawItem{
			Title:        title,
			Link:         link,
			SourceDetail: "Google News",
		}
		if ts, ok := card.Find("time").First().Attr("datetime"); ok {
			item.Date = parseTimestamp(ts)
		}
		if src := strings.TrimSpace(card.Find("div[data-n-tid]").First().Text()); src != "" {
			item.SourceDetail = src
		}
		items = append(items, item)
	})

	return items, nil
}
