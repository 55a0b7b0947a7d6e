package score

import (
	"math"
	"time"

	"github.com/ppiankov/polemica/internal/model"
)

// Per-item component weights
const (
	WeightSentiment = 0.4
	WeightSeverity  = 0.3
	WeightRecency   = 0.2
	WeightKeywords  = 0.1
)

// FullSample is the item count at which no small-sample damping applies
const FullSample = 5

// recencyDecay is the number of points an item loses per day of age
const recencyDecay = 3.33

// ItemScore is the transparent per-item breakdown behind the overall score
type ItemScore struct {
	Sentiment float64 `json:"sentiment"` // |(comparative+5)*10|
	Severity  float64 `json:"severity"`  // severity multiplier * 100
	Recency   float64 `json:"recency"`   // max(0, 100 - days*3.33)
	Keywords  float64 `json:"keywords"`  // min(100, keywords*20)
	Total     float64 `json:"total"`
}

// Result is everything the aggregator derives from a filtered item set
type Result struct {
	Score            int
	Items            []ItemScore // Parallel to the input slice
	Damping          float64     // min(1, n/FullSample)
	AverageSentiment float64
	AverageIntensity float64
	SeverityCounts   map[model.Severity]int
	TypeCounts       map[model.ControversyType]int // NONE excluded
	Sources          map[model.SourceType]model.SourceStats
}

// HasControversy reports whether the score crosses the controversy threshold
func (r Result) HasControversy() bool {
	return r.Score > model.ControversyThreshold
}

// Aggregator computes the overall controversy score
type Aggregator struct {
	now time.Time
}

// NewAggregator creates an aggregator measuring recency against now
func NewAggregator(now time.Time) *Aggregator {
	return &Aggregator{now: now}
}

// Aggregate scores a recency-filtered item list. An empty list scores 0.
func (a *Aggregator) Aggregate(items []model.AnalyzedItem) Result {
	res := Result{
		Items:          make([]ItemScore, len(items)),
		SeverityCounts: make(map[model.Severity]int),
		TypeCounts:     make(map[model.ControversyType]int),
		Sources:        make(map[model.SourceType]model.SourceStats),
	}
	if len(items) == 0 {
		return res
	}

	var total, sentiment, intensity float64
	sourceSentiment := make(map[model.SourceType]float64)

	for i, item := range items {
		s := a.ScoreItem(item)
		res.Items[i] = s
		total += s.Total

		sentiment += item.Sentiment.Comparative
		intensity += item.IntensityScore
		res.SeverityCounts[item.Severity]++
		if item.ControversyType != model.ControversyNone && item.ControversyType != "" {
			res.TypeCounts[item.ControversyType]++
		}

		st := res.Sources[item.SourceType]
		if st.SeverityCounts == nil {
			st.SeverityCounts = make(map[model.Severity]int)
		}
		st.Count++
		st.SeverityCounts[item.Severity]++
		res.Sources[item.SourceType] = st
		sourceSentiment[item.SourceType] += item.Sentiment.Comparative
	}

	n := float64(len(items))
	for src, st := range res.Sources {
		st.AverageSentiment = sourceSentiment[src] / float64(st.Count)
		res.Sources[src] = st
	}
	res.AverageSentiment = sentiment / n
	res.AverageIntensity = intensity / n

	res.Damping = math.Min(1, n/FullSample)
	res.Score = clamp(int(math.Round(total/n*res.Damping)), 0, 100)

	return res
}

// ScoreItem computes the weighted components for one item
func (a *Aggregator) ScoreItem(item model.AnalyzedItem) ItemScore {
	s := ItemScore{
		Sentiment: math.Abs((item.Sentiment.Comparative + 5) * 10),
		Severity:  item.Severity.Multiplier() * 100,
		Recency:   a.recency(item.Date),
		Keywords:  math.Min(100, float64(len(item.MatchedKeywords))*20),
	}
	s.Total = s.Sentiment*WeightSentiment +
		s.Severity*WeightSeverity +
		s.Recency*WeightRecency +
		s.Keywords*WeightKeywords
	return s
}

// recency decays linearly with age; future dates count as published now
func (a *Aggregator) recency(published time.Time) float64 {
	days := a.now.Sub(published).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Max(0, 100-days*recencyDecay)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
