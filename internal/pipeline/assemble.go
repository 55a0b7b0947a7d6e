package pipeline

import (
	"math"
	"sort"
	"time"

	"github.com/ppiankov/polemica/internal/collector"
	"github.com/ppiankov/polemica/internal/model"
	"github.com/ppiankov/polemica/internal/score"
)

// searchPeriod is the window [now - windowDays, now]
func searchPeriod(req Request) model.SearchPeriod {
	return model.SearchPeriod{
		From: req.Now.AddDate(0, 0, -req.WindowDays),
		To:   req.Now,
	}
}

// filterWindow keeps the items dated inside the period
func filterWindow(items []model.AnalyzedItem, period model.SearchPeriod) []model.AnalyzedItem {
	kept := make([]model.AnalyzedItem, 0, len(items))
	for _, item := range items {
		if period.Contains(item.Date) {
			kept = append(kept, item)
		}
	}
	return kept
}

// sortItems orders by severity rank, then sentiment magnitude, then newest first
func sortItems(items []model.AnalyzedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if ra, rb := a.Severity.Rank(), b.Severity.Rank(); ra != rb {
			return ra > rb
		}
		if ma, mb := math.Abs(a.Sentiment.Comparative), math.Abs(b.Sentiment.Comparative); ma != mb {
			return ma > mb
		}
		return a.Date.After(b.Date)
	})
}

// assemble filters, scores and shapes the report
func (p *Pipeline) assemble(req Request, gathered []model.AnalyzedItem, outcomes []collector.Outcome) *model.ControversyReport {
	period := searchPeriod(req)
	items := filterWindow(gathered, period)
	sortItems(items)

	res := score.NewAggregator(req.Now).Aggregate(items)

	availability := make([]model.SourceAvailability, 0, len(outcomes))
	breakdown := make(map[model.SourceType]model.SourceStats, len(outcomes))
	for _, out := range outcomes {
		a := out.Availability()
		availability = append(availability, a)

		st := res.Sources[out.Source]
		if st.SeverityCounts == nil {
			st.SeverityCounts = make(map[model.Severity]int)
		}
		st.Returned = len(out.Items)
		st.Available = !out.Degraded
		if out.Degraded {
			st.Cause = a.Cause
		}
		breakdown[out.Source] = st
	}

	report := &model.ControversyReport{
		Name:             req.Name,
		Score:            res.Score,
		HasControversy:   res.HasControversy(),
		ControversyTypes: res.TypeCounts,
		AverageSentiment: res.AverageSentiment,
		SourceBreakdown:  breakdown,
		SearchPeriod:     period,
		Items:            items,
		Metadata: model.Metadata{
			TotalItems:         len(items),
			GatheredItems:      len(gathered),
			SourcesChecked:     append([]model.SourceKind(nil), req.Sources...),
			SeverityCounts:     res.SeverityCounts,
			AverageIntensity:   res.AverageIntensity,
			SourceAvailability: availability,
			WindowDays:         req.WindowDays,
			RequestedBy:        req.RequestedBy,
			SearchTimestamp:    p.now().UTC().Truncate(time.Second),
		},
	}

	p.log.WithField("name", req.Name).
		WithField("score", report.Score).
		WithField("items", len(items)).
		WithField("gathered", len(gathered)).
		Info("report assembled")

	return report
}
