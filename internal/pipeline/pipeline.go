// Package pipeline turns a name into a controversy report: it fans out to the
// collectors, analyzes every item, filters by recency, scores and assembles.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/polemica/internal/analyze"
	"github.com/ppiankov/polemica/internal/collector"
	"github.com/ppiankov/polemica/internal/fetch"
	"github.com/ppiankov/polemica/internal/llm"
	"github.com/ppiankov/polemica/internal/logger"
	"github.com/ppiankov/polemica/internal/model"
)

// ErrEmptyName is returned for a blank name
var ErrEmptyName = errors.New("name is required")

// Enricher fetches the readable text of an article
type Enricher interface {
	ArticleText(ctx context.Context, url string, timeout time.Duration) (string, error)
}

// Request is everything one report depends on. Now anchors every recency
// calculation so no wall-clock state is shared between requests.
type Request struct {
	Name        string
	Sources     []model.SourceKind // Empty means the configured defaults
	WindowDays  int                // <= 0 means the configured default
	Now         time.Time          // Zero means the pipeline clock
	RequestedBy string
}

// Pipeline orchestrates the complete check
type Pipeline struct {
	config     *model.Config
	analyzer   *analyze.Analyzer
	registry   *collector.Registry
	enricher   Enricher
	summarizer *llm.Summarizer
	renderer   *Renderer
	sources    []model.SourceKind
	log        logrus.FieldLogger
	now        func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithEnricher sets the article text fetcher used when enrichment is enabled
func WithEnricher(e Enricher) Option {
	return func(p *Pipeline) { p.enricher = e }
}

// WithSummarizer attaches an optional LLM summarizer
func WithSummarizer(s *llm.Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.log = logger.OrDefault(l) }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New assembles a pipeline from its parts
func New(cfg *model.Config, analyzer *analyze.Analyzer, registry *collector.Registry, opts ...Option) (*Pipeline, error) {
	sources, err := model.ParseSourceKinds(cfg.Report.Sources)
	if err != nil {
		return nil, fmt.Errorf("report sources: %w", err)
	}

	p := &Pipeline{
		config:   cfg,
		analyzer: analyzer,
		registry: registry,
		renderer: NewRenderer(cfg.Output.IncludeFooter, cfg.Output.MaxItems),
		sources:  sources,
		log:      logger.OrDefault(nil),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// NewPipeline wires the production pipeline from configuration: the shared
// fetcher, the four collectors, the headless renderer and, when configured,
// the LLM summarizer
func NewPipeline(cfg *model.Config, log logrus.FieldLogger) (*Pipeline, error) {
	log = logger.OrDefault(log)

	analyzer, err := loadAnalyzer(cfg.Analysis)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.FromConfig(cfg, log)
	registry, err := collector.Default(cfg, fetcher, collector.NewChromeRenderer(cfg, log), log)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithLogger(log), WithEnricher(fetcher)}

	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			log.WithError(err).Warn("LLM summarizer disabled")
		} else {
			opts = append(opts, WithSummarizer(s))
		}
	}

	return New(cfg, analyzer, registry, opts...)
}

func loadAnalyzer(cfg model.AnalysisConfig) (*analyze.Analyzer, error) {
	if cfg.LexiconFile == "" {
		return analyze.New()
	}
	lex, err := analyze.LoadLexicon(cfg.LexiconFile)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	return analyze.NewWithLexicon(lex), nil
}

// GatherControversyReport builds a report for name over the given sources and
// window. Only a blank name is an error; collector failures show up as
// unavailable sources in the report.
func (p *Pipeline) GatherControversyReport(ctx context.Context, name string, sources []model.SourceKind, windowDays int) (*model.ControversyReport, error) {
	return p.Run(ctx, Request{Name: name, Sources: sources, WindowDays: windowDays})
}

// Check builds a report with the configured defaults
func (p *Pipeline) Check(ctx context.Context, name string) (*model.ControversyReport, error) {
	return p.Run(ctx, Request{Name: name})
}

// Run executes one request end to end
func (p *Pipeline) Run(ctx context.Context, req Request) (*model.ControversyReport, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, ErrEmptyName
	}
	if len(req.Sources) == 0 {
		req.Sources = p.sources
	}
	if req.WindowDays <= 0 {
		req.WindowDays = p.config.Report.WindowDays
	}
	if req.WindowDays <= 0 {
		req.WindowDays = 30
	}
	if req.Now.IsZero() {
		req.Now = p.now()
	}

	p.log.WithFields(logrus.Fields{
		"name":        req.Name,
		"sources":     req.Sources,
		"window_days": req.WindowDays,
	}).Info("checking name")

	items, outcomes := p.gather(ctx, req)
	report := p.assemble(req, items, outcomes)

	if p.summarizer.IsEnabled() {
		summary, err := p.summarizer.GenerateSummary(ctx, *report)
		if err != nil {
			p.log.WithError(err).Warn("LLM summary generation failed")
		} else {
			report.Summary = summary
		}
	}

	return report, nil
}

// RenderReport writes the requested outputs and prints the terminal summary
func (p *Pipeline) RenderReport(report *model.ControversyReport, jsonPath, mdPath string, verbose bool) error {
	return p.renderer.RenderAll(report, jsonPath, mdPath, verbose)
}
