package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/polemica/internal/model"
)

// Summarizer attaches an optional narrative to a finished report. It runs
// after scoring and never changes any measured field.
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer builds a summarizer; a disabled config yields a summarizer
// whose IsEnabled is false
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// GenerateSummary returns nil when disabled. Provider failures are reported
// as warnings on the summary rather than errors.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.ControversyReport) (*model.LLMSummary, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	summary := &model.LLMSummary{
		Provider:       s.provider.Name(),
		Model:          s.config.Model,
		StrictEvidence: s.config.StrictEvidence,
	}

	if !s.provider.IsAvailable(ctx) {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("LLM provider %s is not available", s.provider.Name()))
		return summary, nil
	}
	summary.Enabled = true

	urls := ReportURLs(report)
	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:      report,
		AllowedURLs: urls,
		Model:       s.config.Model,
		MaxTokens:   s.config.MaxTokens,
	})
	if err != nil {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("Summary generation failed: %v", err))
		return summary, nil
	}

	if resp.Model != "" {
		summary.Model = resp.Model
	}
	summary.SummaryMD = resp.Summary
	summary.Warnings = append(summary.Warnings,
		fmt.Sprintf("Tokens used: %d", resp.TokensUsed),
		fmt.Sprintf("Verified %d citations against %d report links", len(resp.CitedURLs), len(urls)),
	)

	return summary, nil
}

// RenderSeparateMarkdown renders the summary as its own document, kept apart
// from the measured report
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# LLM Summary\n\n")
	b.WriteString("> **GENERATED CONTENT.** This text was written by a language model from the report below. ")
	b.WriteString("The controversy score and every item were determined independently of it.\n\n")

	fmt.Fprintf(&b, "- **Provider:** %s\n", summary.Provider)
	if summary.Model != "" {
		fmt.Fprintf(&b, "- **Model:** %s\n", summary.Model)
	}
	fmt.Fprintf(&b, "- **Strict Evidence Mode:** %t\n\n", summary.StrictEvidence)

	b.WriteString("## Summary\n\n")
	if summary.SummaryMD == "" {
		b.WriteString("_No summary generated._\n")
	} else {
		b.WriteString(summary.SummaryMD)
		b.WriteString("\n")
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}
