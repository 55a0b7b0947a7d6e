package score

import (
	"math"
	"testing"
	"time"

	"github.com/ppiankov/polemica/internal/model"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func item(source model.SourceType, sev model.Severity, comparative float64, age time.Duration, keywords ...string) model.AnalyzedItem {
	typ := model.ControversyLegal
	if sev == model.SeverityNone {
		typ = model.ControversyNone
	}
	return model.AnalyzedItem{
		RawItem: model.RawItem{Title: "t", Date: now.Add(-age)},
		Analysis: model.Analysis{
			Sentiment:       model.Sentiment{Comparative: comparative},
			Severity:        sev,
			ControversyType: typ,
			IntensityScore:  math.Abs(comparative),
			MatchedKeywords: keywords,
		},
		SourceType: source,
	}
}

func TestAggregate_Empty(t *testing.T) {
	res := NewAggregator(now).Aggregate(nil)

	if res.Score != 0 {
		t.Errorf("expected score 0, got %d", res.Score)
	}
	if res.HasControversy() {
		t.Error("expected no controversy for an empty item set")
	}
	if len(res.Sources) != 0 || len(res.TypeCounts) != 0 {
		t.Error("expected empty histograms")
	}
}

func TestAggregate_FiveHighItems(t *testing.T) {
	items := make([]model.AnalyzedItem, 5)
	for i := range items {
		items[i] = item(model.SourceGoogleNewsRSS, model.SeverityHigh, -3, 0)
	}

	res := NewAggregator(now).Aggregate(items)

	// 0.4*20 + 0.3*100 + 0.2*100 + 0.1*0
	if res.Score != 58 {
		t.Errorf("expected score 58, got %d", res.Score)
	}
	if res.Damping != 1 {
		t.Errorf("expected no damping with 5 items, got %.2f", res.Damping)
	}
	if !res.HasControversy() {
		t.Error("expected controversy above threshold")
	}
	if res.SeverityCounts[model.SeverityHigh] != 5 {
		t.Errorf("expected 5 HIGH, got %d", res.SeverityCounts[model.SeverityHigh])
	}
	if res.TypeCounts[model.ControversyLegal] != 5 {
		t.Errorf("expected 5 legal, got %d", res.TypeCounts[model.ControversyLegal])
	}
}

func TestAggregate_SmallSampleDamping(t *testing.T) {
	items := []model.AnalyzedItem{item(model.SourceReddit, model.SeverityHigh, -3, 0)}

	res := NewAggregator(now).Aggregate(items)

	// 58 * 1/5 = 11.6
	if res.Score != 12 {
		t.Errorf("expected damped score 12, got %d", res.Score)
	}
	if res.Damping != 0.2 {
		t.Errorf("expected damping 0.2, got %.2f", res.Damping)
	}
	if res.HasControversy() {
		t.Error("expected a single item to stay under the threshold")
	}
}

func TestScoreItem_Components(t *testing.T) {
	agg := NewAggregator(now)

	tests := []struct {
		name string
		item model.AnalyzedItem
		want ItemScore
	}{
		{
			name: "fresh neutral no keywords",
			item: item(model.SourceReddit, model.SeverityNone, 0, 0),
			want: ItemScore{Sentiment: 50, Severity: 10, Recency: 100, Keywords: 0},
		},
		{
			name: "ten days old",
			item: item(model.SourceReddit, model.SeverityLow, 5, 10*24*time.Hour),
			want: ItemScore{Sentiment: 100, Severity: 40, Recency: 100 - 33.3, Keywords: 0},
		},
		{
			name: "old item bottoms out",
			item: item(model.SourceReddit, model.SeverityMedium, -5, 60*24*time.Hour),
			want: ItemScore{Sentiment: 0, Severity: 70, Recency: 0, Keywords: 0},
		},
		{
			name: "keywords capped",
			item: item(model.SourceReddit, model.SeverityHigh, 0, 0, "a", "b", "c", "d", "e", "f", "g"),
			want: ItemScore{Sentiment: 50, Severity: 100, Recency: 100, Keywords: 100},
		},
		{
			name: "future date counts as fresh",
			item: item(model.SourceReddit, model.SeverityNone, 0, -48*time.Hour),
			want: ItemScore{Sentiment: 50, Severity: 10, Recency: 100, Keywords: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := agg.ScoreItem(tt.item)
			if !near(got.Sentiment, tt.want.Sentiment) || !near(got.Severity, tt.want.Severity) ||
				!near(got.Recency, tt.want.Recency) || !near(got.Keywords, tt.want.Keywords) {
				t.Errorf("ScoreItem() = %+v, want %+v", got, tt.want)
			}
			wantTotal := tt.want.Sentiment*WeightSentiment + tt.want.Severity*WeightSeverity +
				tt.want.Recency*WeightRecency + tt.want.Keywords*WeightKeywords
			if !near(got.Total, wantTotal) {
				t.Errorf("Total = %.3f, want %.3f", got.Total, wantTotal)
			}
		})
	}
}

func TestAggregate_ScoreBounds(t *testing.T) {
	var items []model.AnalyzedItem
	for i := 0; i < 20; i++ {
		items = append(items, item(model.SourceTwitter, model.SeverityHigh, 5, 0, "a", "b", "c", "d", "e"))
	}

	res := NewAggregator(now).Aggregate(items)
	if res.Score < 0 || res.Score > 100 {
		t.Errorf("score %d outside [0, 100]", res.Score)
	}
	if res.Score != 100 {
		t.Errorf("expected maximal items to score 100, got %d", res.Score)
	}
}

func TestAggregate_PerSource(t *testing.T) {
	items := []model.AnalyzedItem{
		item(model.SourceReddit, model.SeverityHigh, -4, 0),
		item(model.SourceReddit, model.SeverityLow, -2, 0),
		item(model.SourceTwitter, model.SeverityNone, 1, 0),
	}

	res := NewAggregator(now).Aggregate(items)

	reddit := res.Sources[model.SourceReddit]
	if reddit.Count != 2 {
		t.Errorf("expected 2 reddit items, got %d", reddit.Count)
	}
	if !near(reddit.AverageSentiment, -3) {
		t.Errorf("expected reddit average sentiment -3, got %.2f", reddit.AverageSentiment)
	}
	if reddit.SeverityCounts[model.SeverityLow] != 1 {
		t.Errorf("expected 1 LOW reddit item, got %d", reddit.SeverityCounts[model.SeverityLow])
	}

	if _, ok := res.TypeCounts[model.ControversyNone]; ok {
		t.Error("type histogram must exclude the no-controversy type")
	}
	if res.TypeCounts[model.ControversyLegal] != 2 {
		t.Errorf("expected 2 legal items, got %d", res.TypeCounts[model.ControversyLegal])
	}
	if !near(res.AverageSentiment, -5.0/3) {
		t.Errorf("expected average sentiment -1.67, got %.2f", res.AverageSentiment)
	}
	if !near(res.AverageIntensity, 7.0/3) {
		t.Errorf("expected average intensity 2.33, got %.2f", res.AverageIntensity)
	}
}

func TestHasControversy_Threshold(t *testing.T) {
	for _, tc := range []struct {
		score int
		want  bool
	}{{0, false}, {30, false}, {31, true}, {100, true}} {
		if got := (Result{Score: tc.score}).HasControversy(); got != tc.want {
			t.Errorf("HasControversy(%d) = %v, want %v", tc.score, got, tc.want)
		}
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
