package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/polemica/internal/collector"
	"github.com/ppiankov/polemica/internal/model"
	"github.com/ppiankov/polemica/internal/worker"
)

// Backfill values for fields a collector left empty
const (
	untitled    = "Untitled Content"
	missingLink = "#"
)

// gather runs every selected collector concurrently and waits for all of
// them. It is detached from ctx cancellation: once started, every collector
// runs to completion under its own request timeouts. Outcomes come back in
// AllSourceTypes order and items are their concatenation.
func (p *Pipeline) gather(ctx context.Context, req Request) ([]model.AnalyzedItem, []collector.Outcome) {
	types := model.ExpandKinds(req.Sources)
	if len(types) == 0 {
		return nil, nil
	}

	pool := worker.NewPool[collector.Outcome](context.WithoutCancel(ctx), len(types))
	pool.Start()
	for _, t := range types {
		pool.Submit(p.collectJob(t, req.Name))
	}
	outcomes := pool.Wait()

	var items []model.AnalyzedItem
	for i := range outcomes {
		out := &outcomes[i]
		out.Source = types[i]

		p.log.WithFields(logrus.Fields{
			"source":   out.Source,
			"count":    len(out.Items),
			"degraded": out.Degraded,
			"path":     out.Path,
			"attempts": out.Attempts,
		}).Info("source settled")

		for _, raw := range out.Items {
			raw = backfill(raw, req)
			analysis := p.analyzer.Analyze(p.analysisText(out.Source, raw))
			items = append(items, model.NewAnalyzedItem(raw, analysis, out.Source, p.now()))
		}
	}

	return items, outcomes
}

// collectJob wraps one collector call. A panic inside a collector becomes a
// degraded outcome instead of taking the gather down.
func (p *Pipeline) collectJob(t model.SourceType, topic string) worker.JobFunc[collector.Outcome] {
	return func(ctx context.Context) (out collector.Outcome) {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("collector panic: %v", r)
				p.log.WithField("source", t).WithError(err).Error("collector crashed")
				out = collector.Outcome{Source: t, Degraded: true, Cause: err}
			}
		}()

		c, ok := p.registry.Get(t)
		if !ok {
			return collector.Outcome{Source: t, Degraded: true, Cause: fmt.Errorf("no collector registered for %s", t)}
		}

		out = c.Collect(ctx, topic)
		if t == model.SourceGoogleNewsRSS && p.config.Sources.GoogleNewsRSS.EnrichContent {
			p.enrich(ctx, out.Items)
		}
		return out
	}
}

// enrich replaces feed descriptions with readable article text where the
// article can be fetched. It is best effort: feed links forward through the
// feed host, and a page that never reaches the publisher is skipped
// (fetch.ErrUnresolvedRedirect). Failures keep the description.
func (p *Pipeline) enrich(ctx context.Context, items []model.RawItem) {
	if p.enricher == nil {
		return
	}
	timeout := p.config.Sources.GoogleNewsRSS.Timeout
	for i := range items {
		if !strings.HasPrefix(items[i].Link, "http") {
			continue
		}
		text, err := p.enricher.ArticleText(ctx, items[i].Link, timeout)
		if err != nil {
			p.log.WithField("link", items[i].Link).WithError(err).Debug("article enrichment failed")
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			items[i].Content = text
		}
	}
}

// analysisText picks what the analyzer sees. Headlines carry the signal for
// news and forum results; microblog posts are analyzed on their body. Feed
// items are analyzed on their body too when enrichment fetched it.
func (p *Pipeline) analysisText(source model.SourceType, raw model.RawItem) string {
	switch source {
	case model.SourceTwitter:
		return raw.Text()
	case model.SourceGoogleNewsRSS:
		if p.config.Sources.GoogleNewsRSS.EnrichContent && raw.Content != raw.Title {
			return raw.Title + ". " + raw.Content
		}
	}
	return raw.Title
}

// backfill gives every missing field a safe default
func backfill(raw model.RawItem, req Request) model.RawItem {
	raw.Title = strings.TrimSpace(raw.Title)
	if raw.Title == "" {
		raw.Title = untitled
	}
	if strings.TrimSpace(raw.Link) == "" {
		raw.Link = missingLink
	}
	if raw.Date.IsZero() {
		raw.Date = req.Now
	}
	if strings.TrimSpace(raw.Content) == "" {
		raw.Content = raw.Title
	}
	return raw
}
