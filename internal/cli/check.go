package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/polemica/internal/logger"
	"github.com/ppiankov/polemica/internal/model"
	"github.com/ppiankov/polemica/internal/pipeline"
)

var (
	sourceNames []string
	windowDays  int
	outJSON     string
	outMD       string
	requestedBy string
	timeout     time.Duration
	noFooter    bool
	useCache    bool
	enrich      bool
	llmEnabled  bool
	llmModel    string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <name>",
	Short: "Check a single name for recent controversy",
	Long: `Check searches the selected sources for recent content about a name:
- news: rendered Google News search plus the Google News RSS feed
- forum: Reddit search (HTML, then JSON)
- microblog: a pool of Nitter mirrors

Every item is scored for sentiment, context and intensity, items outside the
window are dropped, and the rest roll up into a 0-100 controversy score.
Sources that could not be reached are reported as unavailable.

Example:
  polemica check "Acme Corp"
  polemica check "Acme Corp" --sources news,forum --window-days 14
  polemica check "Acme Corp" --json acme.json --md acme.md --llm`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	f := checkCmd.Flags()
	f.StringSliceVar(&sourceNames, "sources", nil, "source kinds to check: news, forum, microblog (default: all)")
	f.IntVar(&windowDays, "window-days", 0, "recency window in days (default from config, 30)")
	f.StringVar(&outJSON, "json", "", "output JSON path")
	f.StringVar(&outMD, "md", "", "output Markdown path")
	f.StringVar(&requestedBy, "requested-by", "", "who asked for the report, recorded in metadata")
	f.DurationVar(&timeout, "timeout", 3*time.Minute, "timeout for the LLM summary step (collection always runs to completion)")
	f.BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	f.BoolVar(&useCache, "cache", false, "cache fetched pages between runs")
	f.BoolVar(&enrich, "enrich", false, "fetch article text for feed items")
	f.BoolVar(&llmEnabled, "llm", false, "enable LLM summary generation (needs OPENAI_API_KEY)")
	f.StringVar(&llmModel, "llm-model", "", "LLM model name (default from config)")
}

// applyFlags overlays the per-run flags onto the loaded configuration
func applyFlags(cfg *model.Config) error {
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if useCache {
		cfg.Cache.Enabled = true
	}
	if enrich {
		cfg.Sources.GoogleNewsRSS.EnrichContent = true
	}
	if windowDays > 0 {
		cfg.Report.WindowDays = windowDays
	}
	if len(sourceNames) > 0 {
		cfg.Report.Sources = sourceNames
	}

	if llmEnabled {
		if cfg.LLM.Provider == "" {
			cfg.LLM.Provider = "openai"
		}
		if llmModel != "" {
			cfg.LLM.Model = llmModel
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFlags(cfg); err != nil {
		return err
	}

	kinds, err := model.ParseSourceKinds(cfg.Report.Sources)
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg, logger.Log)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking: %s\n", args[0])
		fmt.Fprintf(os.Stderr, "Sources:  %v\n", kinds)
		fmt.Fprintf(os.Stderr, "Window:   %d days\n", cfg.Report.WindowDays)
		fmt.Fprintln(os.Stderr)
	}

	report, err := p.Run(ctx, pipeline.Request{
		Name:        args[0],
		Sources:     kinds,
		WindowDays:  cfg.Report.WindowDays,
		RequestedBy: requestedBy,
	})
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if err := p.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}
