package model

import "time"

// Config holds every tunable of the engine. It is built once and treated as
// read-only afterwards.
type Config struct {
	HTTP         HTTPConfig         `mapstructure:"http" yaml:"http"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting" yaml:"rate_limiting"`
	Cache        CacheConfig        `mapstructure:"cache" yaml:"cache"`
	Query        QueryConfig        `mapstructure:"query" yaml:"query"`
	Analysis     AnalysisConfig     `mapstructure:"analysis" yaml:"analysis"`
	Sources      SourcesConfig      `mapstructure:"sources" yaml:"sources"`
	Report       ReportConfig       `mapstructure:"report" yaml:"report"`
	Concurrency  ConcurrencyConfig  `mapstructure:"concurrency" yaml:"concurrency"`
	Log          LogConfig          `mapstructure:"log" yaml:"log"`
	LLM          LLMConfig          `mapstructure:"llm" yaml:"llm"`
	Output       OutputConfig       `mapstructure:"output" yaml:"output"`
}

// HTTPConfig configures the shared fetcher
type HTTPConfig struct {
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"` // Per request
	UserAgent     string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	HTTPProxy     string        `mapstructure:"http_proxy" yaml:"http_proxy"`
	HTTPSProxy    string        `mapstructure:"https_proxy" yaml:"https_proxy"`
	NoProxy       string        `mapstructure:"no_proxy" yaml:"no_proxy"`
	RespectRobots bool          `mapstructure:"respect_robots" yaml:"respect_robots"`
}

// RateLimitingConfig configures the per-host limiter
type RateLimitingConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size" yaml:"burst_size"`
}

// CacheConfig configures the optional response cache
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Dir     string        `mapstructure:"dir" yaml:"dir"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// QueryConfig configures topic widening
type QueryConfig struct {
	Qualifiers []string `mapstructure:"qualifiers" yaml:"qualifiers"` // Joined with OR and appended to every topic
}

// AnalysisConfig configures the content analyzer
type AnalysisConfig struct {
	LexiconFile string `mapstructure:"lexicon_file" yaml:"lexicon_file"` // Replaces the built-in word lists
}

// SourcesConfig groups per-collector settings
type SourcesConfig struct {
	GoogleNews    GoogleNewsConfig `mapstructure:"google_news" yaml:"google_news"`
	GoogleNewsRSS NewsRSSConfig    `mapstructure:"google_news_rss" yaml:"google_news_rss"`
	Reddit        RedditConfig     `mapstructure:"reddit" yaml:"reddit"`
	Nitter        NitterConfig     `mapstructure:"nitter" yaml:"nitter"`
}

// GoogleNewsConfig configures the rendered-search collector
type GoogleNewsConfig struct {
	SearchURL      string        `mapstructure:"search_url" yaml:"search_url"`
	RSSURL         string        `mapstructure:"rss_url" yaml:"rss_url"` // Fallback feed
	Language       string        `mapstructure:"language" yaml:"language"`
	Country        string        `mapstructure:"country" yaml:"country"`
	ChromePath     string        `mapstructure:"chrome_path" yaml:"chrome_path"`
	BrowserTimeout time.Duration `mapstructure:"browser_timeout" yaml:"browser_timeout"`
	SelectorWait   time.Duration `mapstructure:"selector_wait" yaml:"selector_wait"`
	SettleDelay    time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	MaxResults     int           `mapstructure:"max_results" yaml:"max_results"` // 0 keeps every rendered result
}

// NewsRSSConfig configures the syndication feed collector
type NewsRSSConfig struct {
	SearchURL     string        `mapstructure:"search_url" yaml:"search_url"`
	AlternateURL  string        `mapstructure:"alternate_url" yaml:"alternate_url"`
	UserAgent     string        `mapstructure:"user_agent" yaml:"user_agent"`
	AlternateUA   string        `mapstructure:"alternate_user_agent" yaml:"alternate_user_agent"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxResults    int           `mapstructure:"max_results" yaml:"max_results"`
	EnrichContent bool          `mapstructure:"enrich_content" yaml:"enrich_content"` // Fetch article text with readability
}

// RedditConfig configures the forum collector
type RedditConfig struct {
	SearchURL  string        `mapstructure:"search_url" yaml:"search_url"`
	JSONURL    string        `mapstructure:"json_url" yaml:"json_url"`
	UserAgents []string      `mapstructure:"user_agents" yaml:"user_agents"`
	TimeRange  string        `mapstructure:"time_range" yaml:"time_range"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxResults int           `mapstructure:"max_results" yaml:"max_results"`
}

// NitterConfig configures the microblog mirror pool
type NitterConfig struct {
	Mirrors     []string      `mapstructure:"mirrors" yaml:"mirrors"`
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"` // <= 0 means one pass over the pool
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxResults  int           `mapstructure:"max_results" yaml:"max_results"`
}

// ReportConfig configures report assembly
type ReportConfig struct {
	WindowDays int      `mapstructure:"window_days" yaml:"window_days"`
	Sources    []string `mapstructure:"sources" yaml:"sources"` // Source kinds checked when none are requested
}

// ConcurrencyConfig configures batch processing
type ConcurrencyConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"` // Names checked in parallel by `batch`
}

// LogConfig configures logrus
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // text or json
	File   string `mapstructure:"file" yaml:"file"`
}

// LLMConfig configures the optional report summary
type LLMConfig struct {
	Provider       string        `mapstructure:"provider" yaml:"provider"` // "" disables, "openai"
	Model          string        `mapstructure:"model" yaml:"model"`
	APIKey         string        `mapstructure:"api_key" yaml:"-"`
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxTokens      int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	StrictEvidence bool          `mapstructure:"strict_evidence" yaml:"strict_evidence"` // Reject summaries citing links outside the report
}

// OutputConfig configures rendering
type OutputConfig struct {
	Verbose       bool `mapstructure:"verbose" yaml:"verbose"`
	IncludeFooter bool `mapstructure:"include_footer" yaml:"include_footer"`
	MaxItems      int  `mapstructure:"max_items" yaml:"max_items"` // Items listed in Markdown / terminal output
}

const (
	chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	safariUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Safari/605.1.15"
)

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      10 * time.Second,
			UserAgent:    chromeUA,
			MaxBodyBytes: 2_000_000,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     ".polemica-cache",
			TTL:     15 * time.Minute,
		},
		Query: QueryConfig{
			Qualifiers: []string{"controversy", "scandal", "allegations", "investigation"},
		},
		Sources: SourcesConfig{
			GoogleNews: GoogleNewsConfig{
				SearchURL:      "https://news.google.com/search",
				RSSURL:         "https://news.google.com/rss/search",
				Language:       "en-US",
				Country:        "US",
				BrowserTimeout: 30 * time.Second,
				SelectorWait:   10 * time.Second,
				SettleDelay:    2 * time.Second,
			},
			GoogleNewsRSS: NewsRSSConfig{
				SearchURL:    "https://news.google.com/rss/search",
				AlternateURL: "https://news.google.com/rss",
				UserAgent:    chromeUA,
				AlternateUA:  safariUA,
				Timeout:      10 * time.Second,
				MaxResults:   5,
			},
			Reddit: RedditConfig{
				SearchURL: "https://old.reddit.com/search",
				JSONURL:   "https://www.reddit.com/search.json",
				UserAgents: []string{
					"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
					safariUA,
					"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36",
				},
				TimeRange:  "month",
				Timeout:    15 * time.Second,
				MaxResults: 5,
			},
			Nitter: NitterConfig{
				Mirrors: []string{
					"https://nitter.net",
					"https://nitter.lacontrevoie.fr",
					"https://nitter.1d4.us",
					"https://nitter.kavin.rocks",
					"https://nitter.unixfox.eu",
					"https://nitter.eu",
					"https://nitter.ca",
					"https://nitter.42l.fr",
				},
				Timeout:    8 * time.Second,
				MaxResults: 5,
			},
		},
		Report: ReportConfig{
			WindowDays: 30,
			Sources:    []string{"news", "forum", "microblog"},
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			Timeout:        60 * time.Second,
			MaxTokens:      1000,
			StrictEvidence: true,
		},
		Output: OutputConfig{
			IncludeFooter: true,
			MaxItems:      20,
		},
	}
}
