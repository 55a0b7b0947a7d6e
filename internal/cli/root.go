package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/polemica/internal/logger"
	"github.com/ppiankov/polemica/internal/model"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
	logFile   string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "polemica",
	Short: "Polemica - controversy signals for a name across news, forums and microblogs",
	Long: `Polemica searches recent news, forum and microblog content about a person or
organization, scores each item with a sentiment and keyword heuristic, and
rolls the results up into a 0-100 controversy score.

It does not decide whether any allegation is true. It measures how contested
the recent coverage is, and tells you which sources it could not reach.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return logger.Init(cfg.Log)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("polemica " + Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.polemica/config.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "", "log format (text, json)")
	pf.StringVar(&logFile, "log-file", "", "also write logs to this file")

	_ = viper.BindPFlag("output.verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", pf.Lookup("log-format"))
	_ = viper.BindPFlag("log.file", pf.Lookup("log-file"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".polemica"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// POLEMICA_HTTP_TIMEOUT overrides http.timeout, and so on
	viper.SetEnvPrefix("POLEMICA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("llm.api_key", "POLEMICA_LLM_API_KEY", "OPENAI_API_KEY")
	_ = viper.BindEnv("sources.google_news.chrome_path", "POLEMICA_SOURCES_GOOGLE_NEWS_CHROME_PATH", "CHROME_BIN")

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers the config file, environment and bound flags over the
// built-in defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	// Make every default key visible so AutomaticEnv can override it
	for key, value := range defaultSettings() {
		viper.SetDefault(key, value)
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// defaultSettings flattens the scalar defaults into dotted viper keys
func defaultSettings() map[string]any {
	d := model.DefaultConfig()
	return map[string]any{
		"http.timeout":                           d.HTTP.Timeout,
		"http.user_agent":                        d.HTTP.UserAgent,
		"http.max_body_bytes":                    d.HTTP.MaxBodyBytes,
		"http.http_proxy":                        d.HTTP.HTTPProxy,
		"http.https_proxy":                       d.HTTP.HTTPSProxy,
		"http.no_proxy":                          d.HTTP.NoProxy,
		"http.respect_robots":                    d.HTTP.RespectRobots,
		"rate_limiting.requests_per_second":      d.RateLimiting.RequestsPerSecond,
		"rate_limiting.burst_size":               d.RateLimiting.BurstSize,
		"cache.enabled":                          d.Cache.Enabled,
		"cache.dir":                              d.Cache.Dir,
		"cache.ttl":                              d.Cache.TTL,
		"analysis.lexicon_file":                  d.Analysis.LexiconFile,
		"sources.google_news.chrome_path":        d.Sources.GoogleNews.ChromePath,
		"sources.google_news_rss.enrich_content": d.Sources.GoogleNewsRSS.EnrichContent,
		"report.window_days":                     d.Report.WindowDays,
		"concurrency.workers":                    d.Concurrency.Workers,
		"log.level":                              d.Log.Level,
		"log.format":                             d.Log.Format,
		"log.file":                               d.Log.File,
		"llm.provider":                           d.LLM.Provider,
		"llm.model":                              d.LLM.Model,
		"llm.api_key":                            d.LLM.APIKey,
		"llm.base_url":                           d.LLM.BaseURL,
		"llm.timeout":                            d.LLM.Timeout,
		"output.include_footer":                  d.Output.IncludeFooter,
		"output.max_items":                       d.Output.MaxItems,
	}
}
