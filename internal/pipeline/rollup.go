package pipeline

import (
	"sort"

	"github.com/AngelCh415/marketing-intel/internal/models"
)

func GroupByChannel(recs []models.MarketingRecord) Groups[models.Channel] {
	return groupBy(recs, func(r models.MarketingRecord) models.Channel { return r.Channel })
}

// RollupChannels sums each channel over the whole period. ROAS is guarded
// like the row-level ratios: zero spend gives 0. Output is sorted by channel
// name.
func RollupChannels(recs []models.MarketingRecord) []models.ChannelRollup {
	g := GroupByChannel(recs)
	out := make([]models.ChannelRollup, 0, len(g.Keys))
	for _, ch := range g.Keys {
		r := models.ChannelRollup{Channel: ch}
		for _, m := range g.Members[ch] {
			r.Spend += m.Spend
			r.Revenue += m.AttributedRevenue
			r.Clicks += m.Clicks
			r.Impressions += m.Impressions
		}
		r.ROAS = round(safeDiv(r.Revenue, r.Spend), 2)
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Channel < out[j].Channel })
	return out
}
