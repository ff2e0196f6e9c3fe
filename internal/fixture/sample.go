// Package fixture synthesizes a demonstration dataset shaped exactly like the
// four uploaded sources, so the normalizer never knows which one it is reading.
package fixture

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/AngelCh415/marketing-intel/internal/models"
)

type Options struct {
	Seed  uint64
	Days  int
	Start time.Time
}

func DefaultOptions() Options {
	return Options{Seed: 42, Days: 120, Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

type channelProfile struct {
	source         models.Source
	baseSpend      float64
	impressionsPer float64 // impressions per unit of spend
	ctr            float64
	revenuePer     float64 // attributed revenue per click
}

var profiles = []channelProfile{
	{models.SourceFacebook, 3000, 80, 0.015, 8},
	{models.SourceGoogle, 5000, 50, 0.03, 12},
	{models.SourceTikTok, 2000, 120, 0.02, 6},
}

var (
	states    = []string{"CA", "NY", "TX", "FL", "IL"}
	campaigns = []string{"Brand_Awareness", "Conversion", "Retargeting", "Prospecting"}
)

// Generate returns one row per channel per day plus one business row per day.
// The same options always produce the same rows.
func Generate(opts Options) models.RawSet {
	if opts.Days <= 0 {
		opts.Days = DefaultOptions().Days
	}
	if opts.Start.IsZero() {
		opts.Start = DefaultOptions().Start
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	jitter := func(lo, width float64) float64 { return lo + rng.Float64()*width }

	set := models.RawSet{}
	for i := 0; i < opts.Days; i++ {
		day := opts.Start.AddDate(0, 0, i)
		date := day.Format("2006-01-02")
		seasonality := 1 + 0.3*math.Sin(float64(i)/float64(opts.Days)*2*math.Pi)
		weekend := 1.0
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend = 0.7
		}

		var daySpend float64
		for _, p := range profiles {
			spend := math.Round(p.baseSpend * seasonality * weekend * jitter(0.8, 0.4))
			impressions := math.Round(spend * p.impressionsPer * jitter(0.9, 0.2))
			clicks := math.Round(impressions * p.ctr * jitter(0.8, 0.4))
			revenue := math.Round(clicks * p.revenuePer * jitter(0.7, 0.6))
			daySpend += spend

			set[p.source] = append(set[p.source], models.RawRow{
				"date":               date,
				"state":              states[rng.IntN(len(states))],
				"campaign":           campaigns[rng.IntN(len(campaigns))],
				"impressions":        impressions,
				"clicks":             clicks,
				"spend":              spend,
				"attributed_revenue": revenue,
			})
		}

		orders := math.Round(30 + daySpend*0.002*seasonality*jitter(0.8, 0.4))
		newCustomers := math.Round(orders * 0.4 * jitter(0.8, 0.4))
		revenue := math.Round(orders * 85 * jitter(0.9, 0.2))
		cogs := math.Round(revenue * 0.4)
		set[models.SourceBusiness] = append(set[models.SourceBusiness], models.RawRow{
			"date":          date,
			"orders":        orders,
			"new_orders":    math.Round(orders * 0.6),
			"new_customers": newCustomers,
			"total_revenue": revenue,
			"cogs":          cogs,
		})
	}
	return set
}
