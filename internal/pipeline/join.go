package pipeline

import (
	"sort"
	"time"

	"github.com/AngelCh415/marketing-intel/internal/models"
)

const dateLayout = "2006-01-02"

// layouts accepted when ordering dates; the first is canonical.
var layouts = []string{dateLayout, "2006/01/02", "1/2/2006", time.RFC3339}

func parseDate(s string) (time.Time, bool) {
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateLess orders by calendar date. Unparseable dates sort after parseable
// ones; ties fall back to the raw string so ordering is total.
func dateLess(a, b string) bool {
	ta, oka := parseDate(a)
	tb, okb := parseDate(b)
	switch {
	case oka && okb:
		if !ta.Equal(tb) {
			return ta.Before(tb)
		}
	case oka != okb:
		return oka
	}
	return a < b
}

// IndexBusiness keys business records by date. The first record for a date
// wins; later duplicates are reported in first-seen order.
func IndexBusiness(recs []models.BusinessRecord) (map[string]models.BusinessRecord, []string) {
	idx := make(map[string]models.BusinessRecord, len(recs))
	var dups []string
	reported := map[string]bool{}
	for _, r := range recs {
		if _, ok := idx[r.Date]; ok {
			if !reported[r.Date] {
				dups = append(dups, r.Date)
				reported[r.Date] = true
			}
			continue
		}
		idx[r.Date] = r
	}
	return idx, dups
}

// Join merges each daily aggregate with the business record for its date and
// sorts the result ascending by date. The marketing side drives the join, so
// business-only dates never appear.
func Join(daily []models.DailyAggregate, business []models.BusinessRecord) ([]models.JoinedDay, []string) {
	idx, dups := IndexBusiness(business)
	out := make([]models.JoinedDay, 0, len(daily))
	for _, d := range daily {
		jd := models.JoinedDay{
			DailyAggregate:  d,
			EfficiencyScore: round(safeDiv(d.TotalAttributedRevenue, d.TotalSpend)*100, 1),
		}
		if b, ok := idx[d.Date]; ok {
			outcome := b.BusinessOutcome
			jd.BusinessOutcome = &outcome
		}
		out = append(out, jd)
	}
	sort.SliceStable(out, func(i, j int) bool { return dateLess(out[i].Date, out[j].Date) })
	return out, dups
}
