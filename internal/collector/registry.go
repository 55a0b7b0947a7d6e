package collector

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/polemica/internal/model"
)

// Registry maps each source type to its collector
type Registry struct {
	collectors map[model.SourceType]Collector
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{collectors: make(map[model.SourceType]Collector)}
}

// Register adds or replaces the collector for c.Source(). Collectors for
// source types outside the closed set are rejected.
func (r *Registry) Register(c Collector) error {
	if !c.Source().Valid() {
		return fmt.Errorf("register collector: unknown source type %q", c.Source())
	}
	r.collectors[c.Source()] = c
	return nil
}

// Get returns the collector for a source type
func (r *Registry) Get(t model.SourceType) (Collector, bool) {
	c, ok := r.collectors[t]
	return c, ok
}

// Default builds the four standard collectors from configuration. renderer
// may be nil, in which case the rendered news search always uses its feed
// fallback.
func Default(cfg *model.Config, getter Getter, renderer Renderer, log logrus.FieldLogger) (*Registry, error) {
	src := cfg.Sources
	q := cfg.Query.Qualifiers

	r := NewRegistry()
	var errs []error
	for _, c := range []Collector{
		NewGoogleNews(src.GoogleNews, q, renderer, getter, cfg.HTTP.UserAgent, log),
		NewNewsRSS(src.GoogleNewsRSS, q, getter, log),
		NewReddit(src.Reddit, q, getter, log),
		NewNitter(src.Nitter, q, getter, cfg.HTTP.UserAgent, log),
	} {
		errs = append(errs, r.Register(c))
	}
	return r, errors.Join(errs...)
}

// NewChromeRenderer builds the headless renderer for the rendered news search
func NewChromeRenderer(cfg *model.Config, log logrus.FieldLogger) *ChromeRenderer {
	gn := cfg.Sources.GoogleNews
	return &ChromeRenderer{
		ExecPath:     gn.ChromePath,
		UserAgent:    cfg.HTTP.UserAgent,
		Timeout:      gn.BrowserTimeout,
		WaitSelector: "article",
		SelectorWait: gn.SelectorWait,
		SettleDelay:  gn.SettleDelay,
		Log:          log,
	}
}
