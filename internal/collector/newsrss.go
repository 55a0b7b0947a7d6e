package collector

import (
	"context"
	"errors"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/polemica/internal/logger"
	"github.com/ppiankov/polemica/internal/model"
)

// NewsRSS reads the Google News syndication feed. When the search feed
// fails it retries once against the alternate feed with another user agent.
type NewsRSS struct {
	cfg        model.NewsRSSConfig
	qualifiers []string
	getter     Getter
	log        logrus.FieldLogger
}

// NewNewsRSS creates the syndication feed collector
func NewNewsRSS(cfg model.NewsRSSConfig, qualifiers []string, getter Getter, log logrus.FieldLogger) *NewsRSS {
	return &NewsRSS{
		cfg:        cfg,
		qualifiers: append([]string(nil), qualifiers...),
		getter:     getter,
		log:        logger.OrDefault(log),
	}
}

func (c *NewsRSS) Source() model.SourceType { return model.SourceGoogleNewsRSS }

func (c *NewsRSS) Collect(ctx context.Context, topic string) Outcome {
	out := Outcome{Source: c.Source()}

	primary := feedQuery{
		URL: withQuery(c.cfg.SearchURL, url.Values{
			"q":    {WidenQuery(topic, c.qualifiers)},
			"hl":   {"en-US"},
			"gl":   {"US"},
			"ceid": {"US:en"},
		}),
		UserAgent:          c.cfg.UserAgent,
		Limit:              c.cfg.MaxResults,
		DefaultDetail:      "News Source",
		PublisherFromTitle: true,
	}

	out.Attempts++
	items, err := readFeed(ctx, c.getter, primary, c.cfg.Timeout)
	if err == nil {
		out.Items, out.Path = items, PathPrimary
		c.log.WithFields(logrus.Fields{"source": out.Source, "items": len(items)}).Debug("feed collected")
		return out
	}
	logFailure(c.log, out.Source, primary.URL, err)

	alternate := feedQuery{
		URL: withQuery(c.cfg.AlternateURL, url.Values{
			"q":    {topic + " recent news controversy"},
			"hl":   {"en-US"},
			"gl":   {"US"},
			"ceid": {"US:en"},
		}),
		UserAgent:     c.cfg.AlternateUA,
		Limit:         c.cfg.MaxResults,
		DefaultDetail: "Google News",
	}

	out.Attempts++
	items, altErr := readFeed(ctx, c.getter, alternate, c.cfg.Timeout)
	if altErr != nil {
		logFailure(c.log, out.Source, alternate.URL, altErr)
		out.Degraded = true
		out.Cause = errors.Join(err, altErr)
		return out
	}

	out.Items, out.Path, out.Cause = items, PathFallback, err
	return out
}
