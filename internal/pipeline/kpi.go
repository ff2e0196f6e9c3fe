package pipeline

import (
	"github.com/AngelCh415/marketing-intel/internal/models"
)

// Summarize reduces the joined series to top-line KPIs. Unlike the row and
// day level, ratios here are unguarded: a zero denominator leaves NaN or Inf
// in the result.
func Summarize(days []models.JoinedDay) models.KPISet {
	var k models.KPISet
	for _, d := range days {
		k.TotalSpend += d.TotalSpend
		k.TotalAttributedRevenue += d.TotalAttributedRevenue
		k.TotalClicks += d.TotalClicks
		k.TotalImpressions += d.TotalImpressions
		if d.HasBusiness() {
			k.TotalRevenue += d.TotalRevenue
			k.TotalOrders += d.Orders
			k.TotalNewCustomers += d.NewCustomers
		}
	}
	k.ROAS = models.Ratio(round(ratio(k.TotalAttributedRevenue, k.TotalSpend), 2))
	k.CTR = models.Ratio(round(ratio(float64(k.TotalClicks), float64(k.TotalImpressions))*100, 2))
	k.AOV = models.Ratio(round(ratio(k.TotalRevenue, float64(k.TotalOrders)), 2))
	k.MarketingContribution = models.Ratio(round(ratio(k.TotalAttributedRevenue, k.TotalRevenue)*100, 1))
	k.ConversionRate = models.Ratio(round(ratio(float64(k.TotalOrders), float64(k.TotalClicks))*100, 2))
	k.CAC = models.Ratio(round(ratio(k.TotalSpend, float64(k.TotalNewCustomers)), 2))
	return k
}
