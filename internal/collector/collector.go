// Package collector holds the source collectors. A collector turns a search
// topic into raw items and never returns an error to its caller: every
// failure degrades to an empty contribution with a recorded cause.
package collector

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/polemica/internal/fetch"
	"github.com/ppiankov/polemica/internal/model"
)

// Collector fetches raw items for one source
type Collector interface {
	Source() model.SourceType
	Collect(ctx context.Context, topic string) Outcome
}

// Getter is the slice of the fetcher collectors need
type Getter interface {
	Get(ctx context.Context, req fetch.Request) (*fetch.Response, error)
}

// Outcome is what one collector produced for one topic
type Outcome struct {
	Source   model.SourceType
	Items    []model.RawItem
	Degraded bool   // Every path failed; Items is empty
	Path     string // Which leg of the chain produced Items
	Cause    error  // Last failure seen, also set when a fallback succeeded
	Attempts int    // Requests or renders tried
}

// Availability summarizes the outcome for report metadata
func (o Outcome) Availability() model.SourceAvailability {
	a := model.SourceAvailability{
		Source:   o.Source,
		Count:    len(o.Items),
		Degraded: o.Degraded,
		Path:     o.Path,
		Attempts: o.Attempts,
	}
	if o.Cause != nil {
		a.Cause = o.Cause.Error()
		a.CauseClass = Classify(o.Cause)
	}
	return a
}

// Paths reported in Outcome.Path
const (
	PathPrimary  = "primary"
	PathFallback = "fallback"
)

// WidenQuery appends the qualifier terms to a topic, e.g.
// `Acme (controversy OR scandal)`
func WidenQuery(topic string, qualifiers []string) string {
	topic = strings.TrimSpace(topic)
	var terms []string
	for _, q := range qualifiers {
		if q = strings.TrimSpace(q); q != "" {
			terms = append(terms, q)
		}
	}
	if len(terms) == 0 {
		return topic
	}
	return topic + " (" + strings.Join(terms, " OR ") + ")"
}

// withQuery returns base with the given query parameters set
func withQuery(base string, params url.Values) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?" + params.Encode()
	}
	q := u.Query()
	for k, vs := range params {
		q[k] = vs
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// origin returns scheme://host of a URL
func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host
}

// parseTimestamp accepts the timestamp shapes the sources emit. The zero time
// means "unknown"; the orchestrator backfills it.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05-0700", time.RFC1123Z, time.RFC1123} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func limitItems(items []model.RawItem, n int) []model.RawItem {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// logFailure records a swallowed failure
func logFailure(log logrus.FieldLogger, source model.SourceType, path string, err error) {
	log.WithFields(logrus.Fields{
		"source": source,
		"path":   path,
		"class":  Classify(err),
	}).WithError(err).Warn("collector path failed")
}
