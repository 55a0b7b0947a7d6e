package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/polemica/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize writes a narrative for a finished report
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	Report model.ControversyReport

	// AllowedURLs is the only set of links the summary may cite: the item
	// links of the report
	AllowedURLs []string

	// Prompt overrides the default prompt when set
	Prompt string

	Model     string
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	Summary    string
	CitedURLs  []string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	Provider       string // "openai" or "" for disabled
	Model          string
	APIKey         string
	BaseURL        string
	Timeout        time.Duration
	StrictEvidence bool
	MaxTokens      int
}

// DefaultConfig returns the disabled configuration
func DefaultConfig() Config {
	return Config{
		Timeout:        30 * time.Second,
		StrictEvidence: true,
		MaxTokens:      1000,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(c model.LLMConfig) Config {
	return Config{
		Provider:       c.Provider,
		Model:          c.Model,
		APIKey:         c.APIKey,
		BaseURL:        c.BaseURL,
		Timeout:        c.Timeout,
		StrictEvidence: c.StrictEvidence,
		MaxTokens:      c.MaxTokens,
	}
}

// maxPromptItems bounds how many items are quoted in the prompt
const maxPromptItems = 10

// BuildPrompt constructs the default prompt. The model only restates what the
// report already measured.
func BuildPrompt(report model.ControversyReport, allowedURLs []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are summarizing a controversy report about %q. The report was produced by keyword and sentiment heuristics over recent public content; it does NOT establish that any allegation is true.

CRITICAL RULES:
1. You MUST ONLY cite URLs from this allowed list:
%s

2. DO NOT infer, speculate, or cite external sources beyond this list.
3. Describe what the coverage says, never whether it is true. Use phrases like:
   - "Several items report..."
   - "Coverage mentions..."
4. If a source was unavailable, say the picture may be incomplete.

Report:
- Controversy Score: %d/100 (controversy flagged: %t)
- Items: %d
- Average Sentiment: %.2f
- Window: %s to %s
`, report.Name, joinURLs(allowedURLs), report.Score, report.HasControversy, len(report.Items),
		report.AverageSentiment, report.SearchPeriod.From.Format("2006-01-02"), report.SearchPeriod.To.Format("2006-01-02"))

	if len(report.ControversyTypes) > 0 {
		b.WriteString("\nControversy Types:\n")
		for _, t := range sortedTypes(report.ControversyTypes) {
			fmt.Fprintf(&b, "- %s: %d\n", t, report.ControversyTypes[t])
		}
	}

	var unavailable []string
	for _, a := range report.Metadata.SourceAvailability {
		if a.Degraded {
			unavailable = append(unavailable, string(a.Source))
		}
	}
	if len(unavailable) > 0 {
		fmt.Fprintf(&b, "\nUnavailable sources: %s\n", strings.Join(unavailable, ", "))
	}

	if len(report.Items) > 0 {
		b.WriteString("\nTop Items:\n")
		for i, item := range report.Items {
			if i >= maxPromptItems {
				break
			}
			fmt.Fprintf(&b, "- [%s] %s (%s) %s\n", item.Severity, item.Title, item.SourceDetail, item.Link)
		}
	}

	b.WriteString("\nProvide a 3-4 sentence neutral summary of the coverage, not a verdict.")

	return b.String()
}

// ReportURLs lists the distinct item links of a report in item order
func ReportURLs(report model.ControversyReport) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, item := range report.Items {
		if !strings.HasPrefix(item.Link, "http") || seen[item.Link] {
			continue
		}
		seen[item.Link] = true
		urls = append(urls, item.Link)
	}
	return urls
}

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(No item URLs available)"
	}
	var b strings.Builder
	for i, url := range urls {
		if i >= 20 {
			fmt.Fprintf(&b, "\n... and %d more URLs", len(urls)-20)
			break
		}
		fmt.Fprintf(&b, "\n- %s", url)
	}
	return b.String()
}

func sortedTypes(m map[model.ControversyType]int) []model.ControversyType {
	types := make([]model.ControversyType, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if m[types[i]] != m[types[j]] {
			return m[types[i]] > m[types[j]]
		}
		return types[i] < types[j]
	})
	return types
}
