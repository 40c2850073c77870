// Package timeweight discounts far-dated projects so that pipeline value
// reflects near-term work. Every project is placed in a horizon bucket by the
// number of days between a reference instant and its let date (or ad date, or
// a date derived from its fiscal year), and its cost is multiplied by the
// bucket weight.
//
// The same discount is applied to the scoring baseline through
// Aggregate.TimeWeightedBaseline so that a pipeline skewed toward distant
// lettings is not penalised twice.
package timeweight

import (
	"fmt"
	"math"
	"time"

	"infrapulse/pkg/contracts/domain"
)

// Bucket is one horizon band: projects up to MaxDays away get Weight
type Bucket struct {
	MaxDays int     `yaml:"max_days" json:"max_days"`
	Weight  float64 `yaml:"weight" json:"weight"`
}

// Table configures the horizon buckets and the special cases
type Table struct {
	PastWeight    float64  `yaml:"past_weight" json:"past_weight"`
	UndatedWeight float64  `yaml:"undated_weight" json:"undated_weight"`
	Buckets       []Bucket `yaml:"buckets" json:"buckets"`
	BeyondWeight  float64  `yaml:"beyond_weight" json:"beyond_weight"`
	// DefaultRatio is the assumed average weight when no priced project exists
	DefaultRatio float64 `yaml:"default_ratio" json:"default_ratio"`
	// FiscalYearMonth is the month of a fiscal year's closing calendar year
	// used to date projects known only by fiscal year.
	FiscalYearMonth int `yaml:"fiscal_year_month" json:"fiscal_year_month"`
}

// DefaultTable returns the standard horizon table
func DefaultTable() Table {
	return Table{
		PastWeight:    0.8,
		UndatedWeight: 0.5,
		Buckets: []Bucket{
			{MaxDays: 180, Weight: 1.0},
			{MaxDays: 365, Weight: 0.7},
			{MaxDays: 540, Weight: 0.5},
			{MaxDays: 730, Weight: 0.3},
		},
		BeyondWeight:    0.1,
		DefaultRatio:    0.5,
		FiscalYearMonth: 4,
	}
}

// Validate checks that buckets ascend and weights are within [0,1]
func (t Table) Validate() error {
	if len(t.Buckets) == 0 {
		return fmt.Errorf("time decay table has no buckets")
	}
	prev := -1
	for i, b := range t.Buckets {
		if b.MaxDays <= prev {
			return fmt.Errorf("time decay bucket %d: max_days %d must exceed %d", i, b.MaxDays, prev)
		}
		if b.Weight < 0 || b.Weight > 1 {
			return fmt.Errorf("time decay bucket %d: weight %.2f outside [0,1]", i, b.Weight)
		}
		prev = b.MaxDays
	}
	for name, w := range map[string]float64{
		"past_weight":    t.PastWeight,
		"undated_weight": t.UndatedWeight,
		"beyond_weight":  t.BeyondWeight,
		"default_ratio":  t.DefaultRatio,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("time decay %s %.2f outside [0,1]", name, w)
		}
	}
	if t.FiscalYearMonth < 1 || t.FiscalYearMonth > 12 {
		return fmt.Errorf("time decay fiscal_year_month %d outside 1..12", t.FiscalYearMonth)
	}
	return nil
}

// Weighter assigns horizon weights relative to a fixed reference instant
type Weighter struct {
	table     Table
	reference time.Time
}

// NewWeighter creates a weighter anchored at reference
func NewWeighter(table Table, reference time.Time) *Weighter {
	return &Weighter{table: table, reference: calendarDay(reference)}
}

// ResolveDate picks the let date, then the ad date, then the fiscal-year date
func (w *Weighter) ResolveDate(p domain.ProjectRecord) (time.Time, bool) {
	switch {
	case p.LetDate != nil:
		return calendarDay(*p.LetDate), true
	case p.AdDate != nil:
		return calendarDay(*p.AdDate), true
	case p.FiscalYear != nil:
		year := p.FiscalYear.End
		if year == 0 {
			year = p.FiscalYear.Start
		}
		return time.Date(year, time.Month(w.table.FiscalYearMonth), 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// DaysUntil returns whole calendar days from the reference to d, negative for past dates
func (w *Weighter) DaysUntil(d time.Time) int {
	return int(math.Round(calendarDay(d).Sub(w.reference).Hours() / 24))
}

// WeightForDays maps a day distance onto the horizon table
func (w *Weighter) WeightForDays(days int) float64 {
	if days < 0 {
		return w.table.PastWeight
	}
	for _, b := range w.table.Buckets {
		if days <= b.MaxDays {
			return b.Weight
		}
	}
	return w.table.BeyondWeight
}

// Weight returns the horizon weight of one project
func (w *Weighter) Weight(p domain.ProjectRecord) float64 {
	d, ok := w.ResolveDate(p)
	if !ok {
		return w.table.UndatedWeight
	}
	return w.WeightForDays(w.DaysUntil(d))
}

// Aggregate is the raw and time-weighted value of a record set
type Aggregate struct {
	RawValue      float64 `json:"raw_value"`
	WeightedValue float64 `json:"weighted_value"`
	Ratio         float64 `json:"ratio"`
	Dated         int     `json:"dated"`
	Undated       int     `json:"undated"`
}

// Aggregate sums cost and cost times weight over records
func (w *Weighter) Aggregate(records []domain.ProjectRecord) Aggregate {
	var agg Aggregate
	for _, p := range records {
		if _, ok := w.ResolveDate(p); ok {
			agg.Dated++
		} else {
			agg.Undated++
		}
		v := p.Value()
		if v <= 0 {
			continue
		}
		agg.RawValue += v
		agg.WeightedValue += v * w.Weight(p)
	}
	if agg.RawValue > 0 {
		agg.Ratio = agg.WeightedValue / agg.RawValue
	} else {
		agg.Ratio = w.table.DefaultRatio
	}
	return agg
}

// TimeWeightedBaseline discounts a nominal baseline by the observed weight ratio
func (a Aggregate) TimeWeightedBaseline(nominal float64) float64 {
	return nominal * a.Ratio
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
