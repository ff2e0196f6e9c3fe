package pipeline

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/AngelCh415/marketing-intel/internal/models"
)

var ErrMissingDate = errors.New("missing date")

// RowError identifies a rejected row by source and 0-based position.
type RowError struct {
	Source models.Source
	Index  int
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.Source, e.Index, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// NormalizeMarketing converts one decoded ad-channel row into its canonical
// shape. Missing or non-numeric volume fields read as 0; only a missing date
// rejects the row.
func NormalizeMarketing(row models.RawRow, ch models.Channel) (models.MarketingRecord, error) {
	date := dateField(row, "date")
	if date == "" {
		return models.MarketingRecord{}, ErrMissingDate
	}
	impressions := intField(row, "impressions")
	clicks := intField(row, "clicks")
	spend := numField(row, "spend")
	revenue := numField(row, "attributed_revenue")

	return models.MarketingRecord{
		Date:              date,
		Channel:           ch,
		State:             strField(row, "state"),
		Campaign:          strField(row, "campaign"),
		Impressions:       impressions,
		Clicks:            clicks,
		Spend:             spend,
		AttributedRevenue: revenue,
		CTR:               round(safeDiv(float64(clicks), float64(impressions))*100, 2),
		CPC:               round(safeDiv(spend, float64(clicks)), 2),
		ROAS:              round(safeDiv(revenue, spend), 2),
	}, nil
}

// NormalizeBusiness converts one decoded business row. gross_profit and aov
// are always recomputed from revenue, cogs and orders.
func NormalizeBusiness(row models.RawRow) (models.BusinessRecord, error) {
	date := dateField(row, "date")
	if date == "" {
		return models.BusinessRecord{}, ErrMissingDate
	}
	orders := intField(row, "orders")
	revenue := numField(row, "total_revenue")
	cogs := numField(row, "cogs")

	return models.BusinessRecord{
		Date: date,
		BusinessOutcome: models.BusinessOutcome{
			Orders:       orders,
			NewOrders:    intField(row, "new_orders"),
			NewCustomers: intField(row, "new_customers"),
			TotalRevenue: revenue,
			COGS:         cogs,
			GrossProfit:  revenue - cogs,
			AOV:          round(safeDiv(revenue, float64(orders)), 2),
		},
	}, nil
}

// Normalized is the canonical record set of one pipeline pass.
type Normalized struct {
	Marketing []models.MarketingRecord
	Business  []models.BusinessRecord
	Rejected  []*RowError
}

// Normalize runs every row of every source through the matching normalizer.
// Rejected rows are collected, never fatal.
func Normalize(set models.RawSet) Normalized {
	var out Normalized
	for _, src := range models.Sources {
		rows := set[src]
		if src == models.SourceBusiness {
			for i, r := range rows {
				rec, err := NormalizeBusiness(r)
				if err != nil {
					out.Rejected = append(out.Rejected, &RowError{Source: src, Index: i, Err: err})
					continue
				}
				out.Business = append(out.Business, rec)
			}
			continue
		}
		ch, _ := src.Channel()
		for i, r := range rows {
			rec, err := NormalizeMarketing(r, ch)
			if err != nil {
				out.Rejected = append(out.Rejected, &RowError{Source: src, Index: i, Err: err})
				continue
			}
			out.Marketing = append(out.Marketing, rec)
		}
	}
	return out
}

// lookup matches the header exactly first, then case-insensitively. When
// several headers differ only in case, the smallest one wins.
func lookup(row models.RawRow, key string) (any, bool) {
	if v, ok := row[key]; ok {
		return v, true
	}
	var match string
	found := false
	for k := range row {
		if strings.EqualFold(strings.TrimSpace(k), key) && (!found || k < match) {
			match, found = k, true
		}
	}
	if !found {
		return nil, false
	}
	return row[match], true
}

func strField(row models.RawRow, key string) string {
	v, ok := lookup(row, key)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func dateField(row models.RawRow, key string) string {
	v, ok := lookup(row, key)
	if !ok {
		return ""
	}
	if t, ok := v.(time.Time); ok {
		return t.Format(dateLayout)
	}
	return strField(row, key)
}

// numField coerces to a non-negative finite decimal; anything else is 0.
func numField(row models.RawRow, key string) float64 {
	v, ok := lookup(row, key)
	if !ok {
		return 0
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = p
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// intField is numField rounded to a count, saturating at math.MaxInt64.
func intField(row models.RawRow, key string) int64 {
	f := math.Round(numField(row, key))
	if f >= float64(math.MaxInt64) {
		return math.MaxInt64
	}
	return int64(f)
}
