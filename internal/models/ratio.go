package models

import (
	"encoding/json"
	"math"
	"strconv"
)

// Ratio is a top-level KPI value. A zero denominator is not coerced: the
// value stays NaN or ±Inf and marshals as a JSON string so it stays visible.
type Ratio float64

func (r Ratio) Finite() bool {
	f := float64(r)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (r Ratio) String() string {
	f := float64(r)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Finite() {
		return json.Marshal(r.String())
	}
	return []byte(r.String()), nil
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		switch s {
		case "NaN":
			*r = Ratio(math.NaN())
		case "Infinity":
			*r = Ratio(math.Inf(1))
		case "-Infinity":
			*r = Ratio(math.Inf(-1))
		default:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			*r = Ratio(f)
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}
