// Package pipeline turns decoded channel and business rows into the daily
// joined series, per-channel rollups and top-line KPIs.
//
// Every pass is pure: it reads an immutable RawSet and returns a fresh
// Output. New input means a new pass; nothing is updated incrementally.
package pipeline

import (
	"github.com/AngelCh415/marketing-intel/internal/fixture"
	"github.com/AngelCh415/marketing-intel/internal/models"
)

// DataSource names where one pass reads from. There is no ambient toggle:
// callers pick Sample or Uploaded explicitly.
type DataSource struct {
	Mode models.DataMode
	Rows models.RawSet
}

func Sample(opts fixture.Options) DataSource {
	return DataSource{Mode: models.ModeSample, Rows: fixture.Generate(opts)}
}

func Uploaded(set models.RawSet) DataSource {
	return DataSource{Mode: models.ModeUploaded, Rows: set}
}

// Run executes one full pass.
func Run(src DataSource, f Filter) models.Output {
	n := Normalize(src.Rows)
	marketing := f.Apply(n.Marketing)

	daily, dups := Join(AggregateDaily(marketing), n.Business)
	out := models.Output{
		Mode:     src.Mode,
		Daily:    daily,
		Channels: RollupChannels(marketing),
		KPIs:     Summarize(daily),
		Diagnostics: models.Diagnostics{
			DuplicateBusinessDates: dups,
		},
	}
	if len(n.Rejected) > 0 {
		out.Diagnostics.Rejected = map[models.Source]int{}
		for _, r := range n.Rejected {
			out.Diagnostics.Rejected[r.Source]++
		}
	}
	return out
}
