package model

import "time"

// RawItem is a single piece of content returned by a collector
type RawItem struct {
	Title        string    `json:"title"`
	Link         string    `json:"link"`
	Date         time.Time `json:"date"`
	SourceDetail string    `json:"sourceDetail"`      // Publisher, subreddit or account handle
	Content      string    `json:"content,omitempty"` // Body text; empty means "use the title"
}

// Text returns the content, falling back to the title
func (r RawItem) Text() string {
	if r.Content != "" {
		return r.Content
	}
	return r.Title
}

// Sentiment is the lexicon sentiment of a text
type Sentiment struct {
	Score       float64  `json:"score"`       // Sum of lexicon values
	Comparative float64  `json:"comparative"` // Score per token, scaled by 2, clamped to [-5, 5]
	Positive    []string `json:"positive,omitempty"`
	Negative    []string `json:"negative,omitempty"`
}

// Analysis is the output of the content analyzer for one text
type Analysis struct {
	Sentiment       Sentiment            `json:"sentiment"`
	ContextScores   map[Category]float64 `json:"contextScores"`
	Severity        Severity             `json:"severity"`
	SeverityScore   float64              `json:"severityScore"`
	ControversyType ControversyType      `json:"controversyType"`
	IntensityScore  float64              `json:"intensityScore"`
	MatchedKeywords []string             `json:"matchedKeywords"`
}

// Controversial reports whether the analysis produced any severity at all
func (a Analysis) Controversial() bool {
	return a.Severity != SeverityNone
}

// AnalyzedItem is a RawItem plus its analysis and origin.
// Values are built once by the orchestrator and never mutated afterwards.
type AnalyzedItem struct {
	RawItem
	Analysis
	SourceType      SourceType `json:"sourceType"`
	IsControversial bool       `json:"isControversial"`
	ProcessedAt     time.Time  `json:"processedAt"`
}

// NewAnalyzedItem stamps an analysis onto a raw item
func NewAnalyzedItem(raw RawItem, analysis Analysis, source SourceType, processedAt time.Time) AnalyzedItem {
	return AnalyzedItem{
		RawItem:         raw,
		Analysis:        analysis,
		SourceType:      source,
		IsControversial: analysis.Controversial(),
		ProcessedAt:     processedAt,
	}
}

// Severity is the discrete controversy intensity bucket
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
	SeverityNone   Severity = "NONE"
)

// Severities lists every severity from strongest to weakest
var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow, SeverityNone}

// Rank orders severities for sorting (HIGH=3 ... NONE=0)
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Multiplier is the weight a severity carries in the overall score
func (s Severity) Multiplier() float64 {
	switch s {
	case SeverityHigh:
		return 1.0
	case SeverityMedium:
		return 0.7
	case SeverityLow:
		return 0.4
	default:
		return 0.1
	}
}

// SeverityFromScore buckets a severity score against the fixed thresholds
func SeverityFromScore(score float64) Severity {
	switch {
	case score > 3.5:
		return SeverityHigh
	case score > 2:
		return SeverityMedium
	case score > 1:
		return SeverityLow
	default:
		return SeverityNone
	}
}

// Category is a context category with its own keyword patterns
type Category string

const (
	CategoryLegal     Category = "legal"
	CategoryEthical   Category = "ethical"
	CategorySocial    Category = "social"
	CategoryFinancial Category = "financial"
	CategoryPersonal  Category = "personal"
)

// Categories is the fixed evaluation order; ties resolve to the earlier entry
var Categories = []Category{CategoryLegal, CategoryEthical, CategorySocial, CategoryFinancial, CategoryPersonal}

// ControversyType is the human-readable controversy classification
type ControversyType string

const (
	ControversyPersonal     ControversyType = "Personal Conduct"
	ControversyProfessional ControversyType = "Professional Misconduct"
	ControversySocial       ControversyType = "Social Issues"
	ControversyPolitical    ControversyType = "Political"
	ControversyLegal        ControversyType = "Legal Issues"
	ControversyFinancial    ControversyType = "Financial"
	ControversyEthical      ControversyType = "Ethical"
	ControversyNone         ControversyType = "No Controversy"
)

// ControversyTypeFor maps a dominant category to its controversy type
func ControversyTypeFor(c Category) ControversyType {
	switch c {
	case CategoryLegal:
		return ControversyLegal
	case CategoryEthical:
		return ControversyEthical
	case CategorySocial:
		return ControversySocial
	case CategoryFinancial:
		return ControversyFinancial
	case CategoryPersonal:
		return ControversyPersonal
	default:
		return ControversyNone
	}
}
