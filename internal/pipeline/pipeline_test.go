package pipeline

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/marketing-intel/internal/fixture"
	"github.com/AngelCh415/marketing-intel/internal/models"
)

func mkt(date string, ch models.Channel, impressions, clicks int64, spend, revenue float64) models.MarketingRecord {
	rec, _ := NormalizeMarketing(models.RawRow{
		"date":               date,
		"impressions":        float64(impressions),
		"clicks":             float64(clicks),
		"spend":              spend,
		"attributed_revenue": revenue,
	}, ch)
	return rec
}

func biz(date string, orders int64, revenue, cogs float64) models.BusinessRecord {
	rec, _ := NormalizeBusiness(models.RawRow{
		"date":          date,
		"orders":        float64(orders),
		"total_revenue": revenue,
		"cogs":          cogs,
	})
	return rec
}

func TestSingleDayScenario(t *testing.T) {
	out := Run(Uploaded(models.RawSet{
		models.SourceFacebook: {{
			"date": "2024-01-01", "impressions": float64(1000), "clicks": float64(20),
			"spend": float64(100), "attributed_revenue": float64(240),
		}},
		models.SourceBusiness: {{
			"date": "2024-01-01", "orders": float64(5), "total_revenue": float64(500), "cogs": float64(200),
		}},
	}), Filter{})

	require.Len(t, out.Daily, 1)
	day := out.Daily[0]
	assert.Equal(t, 100.0, day.TotalSpend)
	assert.Equal(t, int64(20), day.TotalClicks)
	assert.Equal(t, 2.4, day.AvgROAS)
	assert.Equal(t, 240.0, day.EfficiencyScore)
	require.True(t, day.HasBusiness())
	assert.Equal(t, 300.0, day.GrossProfit)
	assert.Equal(t, 100.0, day.AOV)
	assert.Equal(t, models.ModeUploaded, out.Mode)
}

func TestAggregateDailyMeansRatesInsteadOfRecomputing(t *testing.T) {
	recs := []models.MarketingRecord{
		mkt("2024-01-01", models.ChannelFacebook, 1000, 10, 100, 300),
		mkt("2024-01-01", models.ChannelGoogle, 1000, 10, 300, 300),
	}
	daily := AggregateDaily(recs)
	require.Len(t, daily, 1)

	d := daily[0]
	assert.Equal(t, 400.0, d.TotalSpend)
	assert.Equal(t, 600.0, d.TotalAttributedRevenue)
	assert.Equal(t, 2.0, d.AvgROAS)
	assert.NotEqual(t, d.TotalAttributedRevenue/d.TotalSpend, d.AvgROAS)
	assert.InDelta(t, 20.0, d.AvgCPC, 1e-9)
	assert.InDelta(t, 1.0, d.AvgCTR, 1e-9)
}

func TestAggregateDailyKeepsFirstSeenOrderAndExactKeys(t *testing.T) {
	recs := []models.MarketingRecord{
		mkt("2024-01-02", models.ChannelFacebook, 1, 1, 1, 1),
		mkt("2024-01-01", models.ChannelFacebook, 1, 1, 1, 1),
		mkt("2024-1-1", models.ChannelGoogle, 1, 1, 1, 1),
	}
	daily := AggregateDaily(recs)
	require.Len(t, daily, 3)
	assert.Equal(t, "2024-01-02", daily[0].Date)
	assert.Equal(t, "2024-01-01", daily[1].Date)
	assert.Equal(t, "2024-1-1", daily[2].Date)
}

func TestJoinSortsAndDropsBusinessOnlyDays(t *testing.T) {
	daily := AggregateDaily([]models.MarketingRecord{
		mkt("2024-01-03", models.ChannelGoogle, 100, 1, 10, 10),
		mkt("2024-01-01", models.ChannelGoogle, 100, 1, 10, 10),
		mkt("2024-01-02", models.ChannelGoogle, 100, 1, 10, 10),
	})
	joined, dups := Join(daily, []models.BusinessRecord{
		biz("2024-01-01", 1, 10, 1),
		biz("2024-02-01", 1, 10, 1),
	})
	assert.Empty(t, dups)
	require.Len(t, joined, 3)
	for i := 1; i < len(joined); i++ {
		assert.True(t, dateLess(joined[i-1].Date, joined[i].Date))
	}
	assert.True(t, joined[0].HasBusiness())
	assert.False(t, joined[1].HasBusiness())
	for _, d := range joined {
		assert.NotEqual(t, "2024-02-01", d.Date)
	}
}

func TestJoinMissingBusinessIsAbsentInJSON(t *testing.T) {
	joined, _ := Join(AggregateDaily([]models.MarketingRecord{
		mkt("2024-01-01", models.ChannelGoogle, 100, 1, 10, 10),
	}), nil)
	b, err := json.Marshal(joined[0])
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.NotContains(t, m, "orders")
	assert.NotContains(t, m, "total_revenue")
	assert.Contains(t, m, "total_spend")
	assert.Contains(t, m, "efficiency_score")
}

func TestJoinDuplicateBusinessDateFirstWins(t *testing.T) {
	daily := AggregateDaily([]models.MarketingRecord{mkt("2024-01-01", models.ChannelGoogle, 100, 1, 10, 10)})
	joined, dups := Join(daily, []models.BusinessRecord{
		biz("2024-01-01", 5, 500, 0),
		biz("2024-01-01", 9, 900, 0),
		biz("2024-01-01", 7, 700, 0),
	})
	assert.Equal(t, []string{"2024-01-01"}, dups)
	require.True(t, joined[0].HasBusiness())
	assert.Equal(t, int64(5), joined[0].Orders)
}

func TestEfficiencyScoreGuarded(t *testing.T) {
	joined, _ := Join(AggregateDaily([]models.MarketingRecord{
		mkt("2024-01-01", models.ChannelGoogle, 100, 1, 0, 50),
	}), nil)
	assert.Equal(t, 0.0, joined[0].EfficiencyScore)
}

func TestRollupChannelsZeroSpendIsGuarded(t *testing.T) {
	rollups := RollupChannels([]models.MarketingRecord{
		mkt("2024-01-01", models.ChannelFacebook, 100, 1, 100, 50),
		mkt("2024-01-01", models.ChannelGoogle, 100, 1, 0, 0),
	})
	require.Len(t, rollups, 2)
	assert.Equal(t, models.ChannelFacebook, rollups[0].Channel)
	assert.Equal(t, 0.5, rollups[0].ROAS)
	assert.Equal(t, models.ChannelGoogle, rollups[1].Channel)
	assert.Equal(t, 0.0, rollups[1].ROAS)
}

func TestRollupSpendMatchesDailySpend(t *testing.T) {
	n := Normalize(fixture.Generate(fixture.DefaultOptions()))
	require.NotEmpty(t, n.Marketing)

	var byChannel, byDate float64
	for _, r := range RollupChannels(n.Marketing) {
		byChannel += r.Spend
	}
	for _, d := range AggregateDaily(n.Marketing) {
		byDate += d.TotalSpend
	}
	assert.InDelta(t, byDate, byChannel, 1e-6)
}

func TestSummarizeUnguardedRatios(t *testing.T) {
	k := Summarize(nil)
	for name, r := range map[string]models.Ratio{
		"roas": k.ROAS, "ctr": k.CTR, "aov": k.AOV,
		"contribution": k.MarketingContribution, "conversion": k.ConversionRate, "cac": k.CAC,
	} {
		assert.True(t, math.IsNaN(float64(r)), name)
	}

	joined, _ := Join(AggregateDaily([]models.MarketingRecord{
		mkt("2024-01-01", models.ChannelGoogle, 1000, 10, 100, 250),
	}), nil)
	k = Summarize(joined)
	assert.Equal(t, models.Ratio(2.5), k.ROAS)
	assert.Equal(t, models.Ratio(1), k.CTR)
	assert.True(t, math.IsNaN(float64(k.AOV)))
	assert.True(t, math.IsInf(float64(k.MarketingContribution), 1))
	assert.Zero(t, k.TotalRevenue)
}

func TestSummarizeTotals(t *testing.T) {
	joined, _ := Join(AggregateDaily([]models.MarketingRecord{
		mkt("2024-01-01", models.ChannelGoogle, 1000, 20, 100, 240),
		mkt("2024-01-02", models.ChannelGoogle, 1000, 30, 100, 160),
	}), []models.BusinessRecord{
		biz("2024-01-01", 5, 500, 200),
		biz("2024-01-02", 3, 300, 100),
	})
	k := Summarize(joined)
	assert.Equal(t, 200.0, k.TotalSpend)
	assert.Equal(t, 800.0, k.TotalRevenue)
	assert.Equal(t, 400.0, k.TotalAttributedRevenue)
	assert.Equal(t, int64(8), k.TotalOrders)
	assert.Equal(t, models.Ratio(2), k.ROAS)
	assert.Equal(t, models.Ratio(2.5), k.CTR)
	assert.Equal(t, models.Ratio(100), k.AOV)
	assert.Equal(t, models.Ratio(50), k.MarketingContribution)
	assert.Equal(t, models.Ratio(16), k.ConversionRate)
}

func TestRunIsIdempotent(t *testing.T) {
	src := Sample(fixture.DefaultOptions())
	a, err := json.Marshal(Run(src, Filter{}))
	require.NoError(t, err)
	b, err := json.Marshal(Run(Sample(fixture.DefaultOptions()), Filter{}))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRunReportsDiagnostics(t *testing.T) {
	out := Run(Uploaded(models.RawSet{
		models.SourceGoogle: {
			{"date": "2024-01-01", "spend": float64(10)},
			{"spend": float64(10)},
		},
		models.SourceBusiness: {
			{"date": "2024-01-01", "orders": float64(1)},
			{"date": "2024-01-01", "orders": float64(2)},
		},
	}), Filter{})
	assert.Equal(t, map[models.Source]int{models.SourceGoogle: 1}, out.Diagnostics.Rejected)
	assert.Equal(t, []string{"2024-01-01"}, out.Diagnostics.DuplicateBusinessDates)
}

func TestFilter(t *testing.T) {
	recs := []models.MarketingRecord{
		mkt("2024-01-01", models.ChannelFacebook, 1, 1, 1, 1),
		mkt("2024-01-02", models.ChannelGoogle, 1, 1, 1, 1),
		mkt("2024-01-03", models.ChannelFacebook, 1, 1, 1, 1),
		mkt("garbage", models.ChannelFacebook, 1, 1, 1, 1),
	}

	assert.Len(t, Filter{}.Apply(recs), 4)

	got := Filter{Channels: []models.Channel{models.ChannelFacebook}}.Apply(recs)
	assert.Len(t, got, 3)

	got = Filter{Days: 2}.Apply(recs)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01-02", got[0].Date)
	assert.Equal(t, "2024-01-03", got[1].Date)

	got = Filter{Days: 2, Channels: []models.Channel{models.ChannelFacebook}}.Apply(recs)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-03", got[0].Date)
}

func TestFilterDaysWindowEndsAtLatestDateOfAnyChannel(t *testing.T) {
	recs := []models.MarketingRecord{
		mkt("2024-01-01", models.ChannelTikTok, 1, 1, 1, 1),
		mkt("2024-01-02", models.ChannelTikTok, 1, 1, 1, 1),
		mkt("2024-01-02", models.ChannelGoogle, 1, 1, 1, 1),
		mkt("2024-01-03", models.ChannelGoogle, 1, 1, 1, 1),
		mkt("2024-01-04", models.ChannelGoogle, 1, 1, 1, 1),
	}
	got := Filter{Days: 3, Channels: []models.Channel{models.ChannelTikTok}}.Apply(recs)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-02", got[0].Date)
}

func TestAttributeAndCompare(t *testing.T) {
	channels := []models.ChannelRollup{
		{Channel: models.ChannelFacebook, Spend: 100, Revenue: 300},
		{Channel: models.ChannelGoogle, Spend: 300, Revenue: 100},
	}
	k := models.KPISet{TotalSpend: 400, TotalAttributedRevenue: 400, TotalRevenue: 1000, ROAS: 1, CTR: 2, CAC: 30}

	a := Attribute(k, channels)
	assert.Equal(t, 600.0, a.OtherSources)
	require.Len(t, a.Channels, 2)
	assert.Equal(t, models.Ratio(75), a.Channels[0].RevenueContribution)
	assert.Equal(t, models.Ratio(25), a.Channels[0].SpendShare)

	b := Compare(k, Targets{ROAS: 4.2, CTR: 1.8, CAC: 35})
	require.Len(t, b, 3)
	assert.False(t, b[0].Met)
	assert.Equal(t, models.Ratio(-3.2), b[0].Delta)
	assert.True(t, b[1].Met)
	assert.True(t, b[2].Met)

	k.CAC = models.Ratio(math.Inf(1))
	assert.False(t, Compare(k, Targets{CAC: 35})[2].Met)
}

func TestScatterSkipsDaysWithoutBusiness(t *testing.T) {
	joined, _ := Join(AggregateDaily([]models.MarketingRecord{
		mkt("2024-01-01", models.ChannelGoogle, 1, 1, 10, 1),
		mkt("2024-01-02", models.ChannelGoogle, 1, 1, 20, 1),
	}), []models.BusinessRecord{biz("2024-01-02", 1, 99, 0)})
	pts := Scatter(joined)
	require.Len(t, pts, 1)
	assert.Equal(t, models.ScatterPoint{Date: "2024-01-02", Spend: 20, Revenue: 99}, pts[0])
}
