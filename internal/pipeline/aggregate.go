package pipeline

import (
	"github.com/AngelCh415/marketing-intel/internal/models"
)

// Groups is an explicit grouping of marketing records. Keys keeps first-seen order.
type Groups[K comparable] struct {
	Keys    []K
	Members map[K][]models.MarketingRecord
}

func groupBy[K comparable](recs []models.MarketingRecord, key func(models.MarketingRecord) K) Groups[K] {
	g := Groups[K]{Members: make(map[K][]models.MarketingRecord)}
	for _, r := range recs {
		k := key(r)
		if _, ok := g.Members[k]; !ok {
			g.Keys = append(g.Keys, k)
		}
		g.Members[k] = append(g.Members[k], r)
	}
	return g
}

// GroupByDate groups on the exact date string; no timezone or format
// normalization happens here.
func GroupByDate(recs []models.MarketingRecord) Groups[string] {
	return groupBy(recs, func(r models.MarketingRecord) string { return r.Date })
}

// AggregateDaily produces one aggregate per date in first-seen order. Volumes
// are summed; rate fields are the mean of the per-record rounded rates, not
// recomputed from the summed volumes.
func AggregateDaily(recs []models.MarketingRecord) []models.DailyAggregate {
	g := GroupByDate(recs)
	out := make([]models.DailyAggregate, 0, len(g.Keys))
	for _, date := range g.Keys {
		out = append(out, aggregateDay(date, g.Members[date]))
	}
	return out
}

func aggregateDay(date string, members []models.MarketingRecord) models.DailyAggregate {
	agg := models.DailyAggregate{Date: date}
	ctr := make([]float64, 0, len(members))
	cpc := make([]float64, 0, len(members))
	roas := make([]float64, 0, len(members))
	for _, m := range members {
		agg.TotalSpend += m.Spend
		agg.TotalImpressions += m.Impressions
		agg.TotalClicks += m.Clicks
		agg.TotalAttributedRevenue += m.AttributedRevenue
		ctr = append(ctr, m.CTR)
		cpc = append(cpc, m.CPC)
		roas = append(roas, m.ROAS)
	}
	agg.AvgCTR = mean(ctr)
	agg.AvgCPC = mean(cpc)
	agg.AvgROAS = mean(roas)
	return agg
}
