package pipeline

import (
	"github.com/AngelCh415/marketing-intel/internal/models"
)

// Attribute splits total revenue into marketing-attributed and other, and
// reports each channel's share of attributed revenue and of spend.
func Attribute(k models.KPISet, channels []models.ChannelRollup) models.Attribution {
	a := models.Attribution{
		MarketingAttributed: k.TotalAttributedRevenue,
		OtherSources:        k.TotalRevenue - k.TotalAttributedRevenue,
		Channels:            make([]models.ChannelShare, 0, len(channels)),
	}
	for _, c := range channels {
		a.Channels = append(a.Channels, models.ChannelShare{
			Channel:             c.Channel,
			Revenue:             c.Revenue,
			RevenueContribution: models.Ratio(round(ratio(c.Revenue, k.TotalAttributedRevenue)*100, 1)),
			SpendShare:          models.Ratio(round(ratio(c.Spend, k.TotalSpend)*100, 1)),
		})
	}
	return a
}

// Scatter pairs daily spend with business revenue; days without a business
// record have no revenue to plot and are skipped.
func Scatter(days []models.JoinedDay) []models.ScatterPoint {
	out := make([]models.ScatterPoint, 0, len(days))
	for _, d := range days {
		if !d.HasBusiness() {
			continue
		}
		out = append(out, models.ScatterPoint{Date: d.Date, Spend: d.TotalSpend, Revenue: d.TotalRevenue})
	}
	return out
}

type Targets struct {
	ROAS float64
	CTR  float64
	CAC  float64
}

// Compare checks ROAS and CTR (higher is better) and CAC (lower is better)
// against targets. A non-finite actual never meets its target.
func Compare(k models.KPISet, t Targets) []models.Benchmark {
	return []models.Benchmark{
		benchmark("roas", k.ROAS, t.ROAS, true),
		benchmark("ctr", k.CTR, t.CTR, true),
		benchmark("cac", k.CAC, t.CAC, false),
	}
}

func benchmark(metric string, actual models.Ratio, target float64, higherIsBetter bool) models.Benchmark {
	b := models.Benchmark{
		Metric: metric,
		Actual: actual,
		Target: target,
		Delta:  models.Ratio(round(float64(actual)-target, 2)),
	}
	if actual.Finite() {
		if higherIsBetter {
			b.Met = float64(actual) >= target
		} else {
			b.Met = float64(actual) <= target
		}
	}
	return b
}
