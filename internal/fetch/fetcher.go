// Package fetch is the shared HTTP client every collector goes through.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/polemica/internal/cache"
	"github.com/ppiankov/polemica/internal/logger"
	"github.com/ppiankov/polemica/internal/model"
	"github.com/ppiankov/polemica/internal/util"
)

// ErrDisallowed is returned when robots.txt forbids a URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// ErrUnresolvedRedirect is returned by ArticleText when the page is still on
// a redirector host, i.e. the article link was never followed to the publisher
var ErrUnresolvedRedirect = errors.New("article link did not leave the redirector")

// StatusError is a completed exchange with a non-2xx status
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Request describes one GET
type Request struct {
	URL       string
	UserAgent string            // Falls back to the fetcher default
	Accept    string            // Falls back to an HTML-friendly Accept header
	Headers   map[string]string // Extra headers, e.g. Referer
	Timeout   time.Duration     // Per-request bound on top of the client timeout

	// Check rejects a 2xx body the caller cannot use, e.g. a throttling page.
	// Rejected bodies are never cached and Get returns the error as is.
	Check func(body []byte) error
}

// Response is a fully read body
type Response struct {
	Body        []byte
	StatusCode  int
	ContentType string
	FinalURL    string
	FromCache   bool
}

// Fetcher performs GET requests with shared headers, size limits, per-host
// rate limiting and optional robots.txt and cache layers
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64

	limiter  *Limiter
	robots   *util.RobotsChecker
	cache    cache.Cache
	cacheTTL time.Duration
	log      logrus.FieldLogger

	redirectors map[string]bool
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithLimiter rate-limits requests per host
func WithLimiter(l *Limiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

// WithRobots gates every request on robots.txt
func WithRobots(r *util.RobotsChecker) Option {
	return func(f *Fetcher) { f.robots = r }
}

// WithCache serves repeated GETs from c for ttl
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(f *Fetcher) {
		f.cache = c
		f.cacheTTL = ttl
	}
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(f *Fetcher) { f.log = l }
}

// WithRedirectors names hosts that serve link-forwarding pages rather than
// articles, such as news.google.com
func WithRedirectors(hosts ...string) Option {
	return func(f *Fetcher) {
		if f.redirectors == nil {
			f.redirectors = make(map[string]bool)
		}
		for _, h := range hosts {
			f.redirectors[strings.ToLower(h)] = true
		}
	}
}

// WithHTTPClient replaces the underlying client, mostly for tests
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = c }
}

// New creates a Fetcher from HTTP settings
func New(cfg model.HTTPConfig, opts ...Option) *Fetcher {
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     30 * time.Second,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
	}

	for _, opt := range opts {
		opt(f)
	}
	f.log = logger.OrDefault(f.log)

	return f
}

// FromConfig wires a Fetcher with the limiter, robots gate and cache the
// configuration asks for
func FromConfig(cfg *model.Config, log logrus.FieldLogger) *Fetcher {
	opts := []Option{
		WithLogger(log),
		WithLimiter(NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)),
		WithRedirectors(feedHosts(cfg)...),
	}
	if c := cache.New(cfg.Cache); c != nil {
		opts = append(opts, WithCache(c, cfg.Cache.TTL))
	}

	f := New(cfg.HTTP, opts...)
	if cfg.HTTP.RespectRobots {
		f.robots = util.NewRobotsChecker(f.httpClient, cfg.HTTP.UserAgent)
	}
	return f
}

// feedHosts are the hosts of the configured news feeds. Their item links
// point back at the feed host and forward to the publisher.
func feedHosts(cfg *model.Config) []string {
	var hosts []string
	for _, raw := range []string{
		cfg.Sources.GoogleNews.RSSURL,
		cfg.Sources.GoogleNewsRSS.SearchURL,
		cfg.Sources.GoogleNewsRSS.AlternateURL,
	} {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
		}
	}
	return hosts
}

// Get fetches req.URL and reads the whole (size-limited) body
func (f *Fetcher) Get(ctx context.Context, req Request) (*Response, error) {
	ua := req.UserAgent
	if ua == "" {
		ua = f.userAgent
	}

	key := ""
	if f.cache != nil {
		key = cache.Key(req.URL, ua, req.Accept)
		if body, ok := f.cache.Get(key); ok {
			f.log.WithField("url", req.URL).Debug("cache hit")
			return &Response{Body: body, StatusCode: http.StatusOK, FinalURL: req.URL, FromCache: true}, nil
		}
	}

	if err := f.gate(ctx, req.URL); err != nil {
		return nil, err
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	accept := req.Accept
	if accept == "" {
		accept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	}
	httpReq.Header.Set("User-Agent", ua)
	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: req.URL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	f.log.WithFields(logrus.Fields{
		"url":     req.URL,
		"status":  resp.StatusCode,
		"bytes":   len(body),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Debug("fetched")

	if req.Check != nil {
		if err := req.Check(body); err != nil {
			return nil, err
		}
	}

	if f.cache != nil {
		if err := f.cache.Set(key, body, f.cacheTTL); err != nil {
			f.log.WithError(err).Warn("cache write failed")
		}
	}

	return &Response{
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// ArticleText fetches a page and returns its main readable text
func (f *Fetcher) ArticleText(ctx context.Context, rawURL string, timeout time.Duration) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}

	resp, err := f.Get(ctx, Request{URL: rawURL, Timeout: timeout})
	if err != nil {
		return "", err
	}

	if final, err := url.Parse(resp.FinalURL); err == nil {
		if f.redirectors[strings.ToLower(final.Host)] {
			return "", fmt.Errorf("%s: %w", rawURL, ErrUnresolvedRedirect)
		}
		pageURL = final
	}

	article, err := readability.FromReader(bytes.NewReader(resp.Body), pageURL)
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}
	return article.TextContent, nil
}

// gate applies robots.txt and the rate limiter before a network request
func (f *Fetcher) gate(ctx context.Context, rawURL string) error {
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return err
		}
		if !allowed {
			return fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
		if delay > 0 && f.limiter != nil {
			if host, err := hostOf(rawURL); err == nil {
				f.limiter.SlowHost(host, delay)
			}
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}
	return nil
}
