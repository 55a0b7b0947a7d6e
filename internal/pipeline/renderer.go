package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/polemica/internal/extract"
	"github.com/ppiankov/polemica/internal/llm"
	"github.com/ppiankov/polemica/internal/model"
)

// Renderer writes reports as JSON, Markdown and a terminal summary
type Renderer struct {
	includeFooter bool
	maxItems      int
	out           io.Writer
}

// NewRenderer creates a renderer; maxItems <= 0 lists every item
func NewRenderer(includeFooter bool, maxItems int) *Renderer {
	return &Renderer{includeFooter: includeFooter, maxItems: maxItems, out: os.Stdout}
}

// RenderAll writes the JSON and Markdown files that have a path, the LLM
// summary next to the Markdown file, and prints the terminal summary
func (r *Renderer) RenderAll(report *model.ControversyReport, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := r.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := r.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	if report.Summary != nil && report.Summary.Enabled && mdPath != "" {
		llmPath := strings.TrimSuffix(mdPath, ".md") + ".llm.md"
		if err := r.RenderLLMMarkdown(llm.RenderSeparateMarkdown(report.Summary), llmPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to write LLM summary: %v\n", err)
		} else if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote LLM Summary: %s\n", llmPath)
		}
	}

	r.RenderSummary(report)
	return nil
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.ControversyReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// RenderMarkdown writes the report as Markdown
func (r *Renderer) RenderMarkdown(report *model.ControversyReport, path string) error {
	return os.WriteFile(path, []byte(r.Markdown(report)), 0o644)
}

// RenderLLMMarkdown writes an already rendered LLM summary
func (r *Renderer) RenderLLMMarkdown(md, path string) error {
	return os.WriteFile(path, []byte(md), 0o644)
}

// Markdown renders the report document
func (r *Renderer) Markdown(report *model.ControversyReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Controversy Report: %s\n\n", report.Name)
	fmt.Fprintf(&b, "**Score:** %d/100  \n", report.Score)
	fmt.Fprintf(&b, "**Controversy:** %s  \n", yesNo(report.HasControversy))
	fmt.Fprintf(&b, "**Average Sentiment:** %.2f  \n", report.AverageSentiment)
	fmt.Fprintf(&b, "**Period:** %s to %s\n\n",
		report.SearchPeriod.From.Format("2006-01-02"), report.SearchPeriod.To.Format("2006-01-02"))

	if len(report.ControversyTypes) > 0 {
		b.WriteString("## Controversy Types\n\n")
		for _, t := range sortedTypeKeys(report.ControversyTypes) {
			fmt.Fprintf(&b, "- %s: %d\n", t, report.ControversyTypes[t])
		}
		b.WriteString("\n")
	}

	b.WriteString("## Sources\n\n")
	b.WriteString("| Source | Items | Returned | Avg Sentiment | Status |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, t := range model.AllSourceTypes {
		st, ok := report.SourceBreakdown[t]
		if !ok {
			continue
		}
		status := "ok"
		if !st.Available {
			status = "unavailable"
			if st.Cause != "" {
				status += ": " + escapeCell(extract.Snippet(st.Cause, 80))
			}
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %.2f | %s |\n", t, st.Count, st.Returned, st.AverageSentiment, status)
	}
	b.WriteString("\n")

	b.WriteString("## Items\n\n")
	if len(report.Items) == 0 {
		b.WriteString("_No items inside the window._\n")
	}
	for i, item := range report.Items {
		if r.maxItems > 0 && i >= r.maxItems {
			fmt.Fprintf(&b, "\n_... and %d more items in the JSON report._\n", len(report.Items)-r.maxItems)
			break
		}
		fmt.Fprintf(&b, "%d. **[%s]** [%s](%s)  \n", i+1, item.Severity, item.Title, item.Link)
		fmt.Fprintf(&b, "   %s · %s · %s · sentiment %.2f",
			item.SourceType, item.SourceDetail, item.Date.Format("2006-01-02"), item.Sentiment.Comparative)
		if item.ControversyType != model.ControversyNone {
			fmt.Fprintf(&b, " · %s", item.ControversyType)
		}
		if len(item.MatchedKeywords) > 0 {
			fmt.Fprintf(&b, " · keywords: %s", strings.Join(item.MatchedKeywords, ", "))
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("\n---\n\n")
		b.WriteString("_Scores come from keyword and sentiment heuristics over recent public content. ")
		b.WriteString("They measure how contested coverage is, not whether any claim is true._\n")
		fmt.Fprintf(&b, "_Generated %s", report.Metadata.SearchTimestamp.Format("2006-01-02 15:04 MST"))
		if report.Metadata.RequestedBy != "" {
			fmt.Fprintf(&b, " for %s", report.Metadata.RequestedBy)
		}
		b.WriteString("._\n")
	}

	return b.String()
}

// RenderSummary prints a short summary to the renderer's output
func (r *Renderer) RenderSummary(report *model.ControversyReport) {
	fmt.Fprintf(r.out, "\n%s\n", report.Name)
	fmt.Fprintf(r.out, "  Score: %d/100 (%s)\n", report.Score, controversyLabel(report))
	fmt.Fprintf(r.out, "  Items: %d in window, %d gathered\n", report.Metadata.TotalItems, report.Metadata.GatheredItems)

	for _, a := range report.Metadata.SourceAvailability {
		mark := "✓"
		if a.Degraded {
			mark = "✗"
		}
		fmt.Fprintf(r.out, "  %s %-16s %d", mark, a.Source, a.Count)
		if a.Path != "" {
			fmt.Fprintf(r.out, " via %s", a.Path)
		}
		if a.Degraded && a.CauseClass != "" {
			fmt.Fprintf(r.out, " (%s)", a.CauseClass)
		}
		fmt.Fprintln(r.out)
	}

	for i, item := range report.Items {
		if i >= 3 {
			break
		}
		fmt.Fprintf(r.out, "  [%s] %s\n", item.Severity, extract.Snippet(item.Title, 90))
	}
}

func controversyLabel(report *model.ControversyReport) string {
	if !report.HasControversy {
		return "no significant controversy"
	}
	types := sortedTypeKeys(report.ControversyTypes)
	if len(types) == 0 {
		return "controversy detected"
	}
	return "controversy detected, mostly " + string(types[0])
}

func sortedTypeKeys(m map[model.ControversyType]int) []model.ControversyType {
	keys := make([]model.ControversyType, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

