package pipeline

import (
	"github.com/AngelCh415/marketing-intel/internal/models"
)

// Filter narrows the marketing records fed into aggregation. The zero value
// keeps everything.
type Filter struct {
	Channels []models.Channel
	// Days keeps the last N calendar days ending at the latest marketing date
	// across all channels, before the channel filter applies. A channel that
	// stopped reporting earlier can therefore yield fewer than N days.
	// Records whose date cannot be parsed are dropped when Days > 0.
	Days int
}

func (f Filter) Apply(recs []models.MarketingRecord) []models.MarketingRecord {
	if len(f.Channels) == 0 && f.Days <= 0 {
		return recs
	}
	allowed := make(map[models.Channel]bool, len(f.Channels))
	for _, c := range f.Channels {
		allowed[c] = true
	}

	var latest string
	if f.Days > 0 {
		for _, r := range recs {
			if _, ok := parseDate(r.Date); ok && (latest == "" || dateLess(latest, r.Date)) {
				latest = r.Date
			}
		}
	}
	last, cutoffOK := parseDate(latest)
	start := last.AddDate(0, 0, -(f.Days - 1))

	out := make([]models.MarketingRecord, 0, len(recs))
	for _, r := range recs {
		if len(allowed) > 0 && !allowed[r.Channel] {
			continue
		}
		if f.Days > 0 {
			t, ok := parseDate(r.Date)
			if !ok || !cutoffOK || t.Before(start) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}
