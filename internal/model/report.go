package model

import "time"

// ControversyThreshold is the score above which a report flags a controversy
const ControversyThreshold = 30

// ControversyReport is the aggregated answer for one name
type ControversyReport struct {
	Name             string                     `json:"name"`
	Score            int                        `json:"score"`          // Overall controversy score (0-100)
	HasControversy   bool                       `json:"hasControversy"` // Exactly Score > ControversyThreshold
	ControversyTypes map[ControversyType]int    `json:"controversyTypes"`
	AverageSentiment float64                    `json:"averageSentiment"`
	SourceBreakdown  map[SourceType]SourceStats `json:"sourceBreakdown"`
	SearchPeriod     SearchPeriod               `json:"searchPeriod"`
	Items            []AnalyzedItem             `json:"items"`
	Metadata         Metadata                   `json:"metadata"`

	Summary *LLMSummary `json:"summary,omitempty"` // Optional narrative (separate, never affects score)
}

// SearchPeriod is the recency window the report covers
type SearchPeriod struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the window
func (p SearchPeriod) Contains(t time.Time) bool {
	return !t.Before(p.From)
}

// SourceStats is the per-source slice of a report
type SourceStats struct {
	Count            int              `json:"count"`    // Items inside the window
	Returned         int              `json:"returned"` // Items the collector returned before filtering
	AverageSentiment float64          `json:"averageSentiment"`
	SeverityCounts   map[Severity]int `json:"severityCounts"`
	Available        bool             `json:"available"`       // False when every path of the collector failed
	Cause            string           `json:"cause,omitempty"` // Last failure when unavailable
}

// SourceAvailability records what one collector contributed to a gather
type SourceAvailability struct {
	Source     SourceType `json:"source"`
	Count      int        `json:"count"`
	Degraded   bool       `json:"degraded"`
	Path       string     `json:"path,omitempty"` // Which leg of the fallback chain produced the items
	Cause      string     `json:"cause,omitempty"`
	CauseClass string     `json:"causeClass,omitempty"` // rate_limited, network, parse, no_results or other
	Attempts   int        `json:"attempts"`
}

// Metadata describes how a report was produced
type Metadata struct {
	TotalItems         int                  `json:"totalItems"`
	GatheredItems      int                  `json:"gatheredItems"` // Before the recency filter
	SourcesChecked     []SourceKind         `json:"sourcesChecked"`
	SeverityCounts     map[Severity]int     `json:"severityCounts"`
	AverageIntensity   float64              `json:"averageIntensity"`
	SourceAvailability []SourceAvailability `json:"sourceAvailability"`
	WindowDays         int                  `json:"windowDays"`
	RequestedBy        string               `json:"requestedBy,omitempty"`
	SearchTimestamp    time.Time            `json:"searchTimestamp"`
}

// LLMSummary contains an optional LLM-written narrative of the report
type LLMSummary struct {
	Enabled        bool     `json:"enabled"`
	Provider       string   `json:"provider,omitempty"`
	Model          string   `json:"model,omitempty"`
	StrictEvidence bool     `json:"strict_evidence"`
	SummaryMD      string   `json:"summary_md,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}
