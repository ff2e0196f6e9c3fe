package models

import (
	"strings"
	"time"
)

// Source is one of the four logical inputs: three ad channels plus business outcomes.
type Source string

const (
	SourceFacebook Source = "facebook"
	SourceGoogle   Source = "google"
	SourceTikTok   Source = "tiktok"
	SourceBusiness Source = "business"
)

// Sources lists every source in processing order.
var Sources = []Source{SourceFacebook, SourceGoogle, SourceTikTok, SourceBusiness}

func ParseSource(s string) (Source, bool) {
	src := Source(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Sources {
		if src == known {
			return src, true
		}
	}
	return "", false
}

// Channel returns the canonical channel label for a marketing source.
func (s Source) Channel() (Channel, bool) {
	switch s {
	case SourceFacebook:
		return ChannelFacebook, true
	case SourceGoogle:
		return ChannelGoogle, true
	case SourceTikTok:
		return ChannelTikTok, true
	}
	return "", false
}

type Channel string

const (
	ChannelFacebook Channel = "Facebook"
	ChannelGoogle   Channel = "Google"
	ChannelTikTok   Channel = "TikTok"
)

var Channels = []Channel{ChannelFacebook, ChannelGoogle, ChannelTikTok}

func ParseChannel(s string) (Channel, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Channels {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// RawRow is one decoded row: header name -> string, float64, bool or nil.
type RawRow map[string]any

// RawSet holds the decoded rows of every source of one dataset.
type RawSet map[Source][]RawRow

type DataMode string

const (
	ModeSample   DataMode = "sample"
	ModeUploaded DataMode = "uploaded"
)

type MarketingRecord struct {
	Date              string  `json:"date"`
	Channel           Channel `json:"channel"`
	State             string  `json:"state"`
	Campaign          string  `json:"campaign"`
	Impressions       int64   `json:"impressions"`
	Clicks            int64   `json:"clicks"`
	Spend             float64 `json:"spend"`
	AttributedRevenue float64 `json:"attributed_revenue"`
	CTR               float64 `json:"ctr"`
	CPC               float64 `json:"cpc"`
	ROAS              float64 `json:"roas"`
}

// BusinessOutcome is the date-less part of a business record, merged into JoinedDay.
type BusinessOutcome struct {
	Orders       int64   `json:"orders"`
	NewOrders    int64   `json:"new_orders"`
	NewCustomers int64   `json:"new_customers"`
	TotalRevenue float64 `json:"total_revenue"`
	COGS         float64 `json:"cogs"`
	GrossProfit  float64 `json:"gross_profit"`
	AOV          float64 `json:"aov"`
}

type BusinessRecord struct {
	Date string `json:"date"`
	BusinessOutcome
}

type DailyAggregate struct {
	Date                   string  `json:"date"`
	TotalSpend             float64 `json:"total_spend"`
	TotalImpressions       int64   `json:"total_impressions"`
	TotalClicks            int64   `json:"total_clicks"`
	TotalAttributedRevenue float64 `json:"total_attributed_revenue"`
	AvgCTR                 float64 `json:"avg_ctr"`
	AvgCPC                 float64 `json:"avg_cpc"`
	AvgROAS                float64 `json:"avg_roas"`
}

// JoinedDay flattens to one JSON object; business fields are omitted when
// no business record exists for the date.
type JoinedDay struct {
	DailyAggregate
	*BusinessOutcome
	EfficiencyScore float64 `json:"efficiency_score"`
}

// HasBusiness reports whether a business record was merged for the day.
func (d JoinedDay) HasBusiness() bool { return d.BusinessOutcome != nil }

type ChannelRollup struct {
	Channel     Channel `json:"channel"`
	Spend       float64 `json:"spend"`
	Revenue     float64 `json:"revenue"`
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
	ROAS        float64 `json:"roas"`
}

type KPISet struct {
	TotalSpend             float64 `json:"total_spend"`
	TotalRevenue           float64 `json:"total_revenue"`
	TotalAttributedRevenue float64 `json:"total_attributed_revenue"`
	TotalOrders            int64   `json:"total_orders"`
	TotalNewCustomers      int64   `json:"total_new_customers"`
	TotalClicks            int64   `json:"total_clicks"`
	TotalImpressions       int64   `json:"total_impressions"`
	ROAS                   Ratio   `json:"roas"`
	CTR                    Ratio   `json:"ctr"`
	AOV                    Ratio   `json:"aov"`
	MarketingContribution  Ratio   `json:"marketing_contribution"`
	ConversionRate         Ratio   `json:"conversion_rate"`
	CAC                    Ratio   `json:"cac"`
}

type ChannelShare struct {
	Channel             Channel `json:"channel"`
	Revenue             float64 `json:"revenue"`
	RevenueContribution Ratio   `json:"revenue_contribution"`
	SpendShare          Ratio   `json:"spend_share"`
}

type Attribution struct {
	MarketingAttributed float64        `json:"marketing_attributed"`
	OtherSources        float64        `json:"other_sources"`
	Channels            []ChannelShare `json:"channels"`
}

type ScatterPoint struct {
	Date    string  `json:"date"`
	Spend   float64 `json:"spend"`
	Revenue float64 `json:"revenue"`
}

type Benchmark struct {
	Metric string  `json:"metric"`
	Actual Ratio   `json:"actual"`
	Target float64 `json:"target"`
	Delta  Ratio   `json:"delta"`
	Met    bool    `json:"met"`
}

type Diagnostics struct {
	Rejected               map[Source]int `json:"rejected,omitempty"`
	DuplicateBusinessDates []string       `json:"duplicate_business_dates,omitempty"`
}

// Output is what one pipeline pass hands to the presentation layer.
type Output struct {
	Mode        DataMode        `json:"mode"`
	Daily       []JoinedDay     `json:"daily"`
	Channels    []ChannelRollup `json:"channels"`
	KPIs        KPISet          `json:"kpis"`
	Diagnostics Diagnostics     `json:"diagnostics"`
}

type Report struct {
	DatasetID   string         `json:"dataset_id"`
	Attribution Attribution    `json:"attribution"`
	Scatter     []ScatterPoint `json:"scatter"`
	Benchmarks  []Benchmark    `json:"benchmarks"`
	Output
}

type SourceStatus string

const (
	StatusNotProvided SourceStatus = "not-provided"
	StatusPending     SourceStatus = "pending"
	StatusReady       SourceStatus = "ready"
	StatusFailed      SourceStatus = "failed"
)

type SourceState struct {
	Source    Source       `json:"source"`
	Status    SourceStatus `json:"status"`
	Rows      int          `json:"rows"`
	Filename  string       `json:"filename,omitempty"`
	Error     string       `json:"error,omitempty"`
	UpdatedAt time.Time    `json:"updated_at,omitempty"`
}
