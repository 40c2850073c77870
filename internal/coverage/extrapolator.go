package coverage

import (
	"fmt"
	"math"
	"sort"

	"infrapulse/pkg/contracts/domain"
)

// ratioTolerance bounds rounding error when checking that ratios sum to 1
const ratioTolerance = 1e-6

// Apportionment maps a region code to its fixed share of expected activity
type Apportionment map[string]float64

// Validate checks every ratio is in (0,1] and the table sums to 1
func (a Apportionment) Validate() error {
	if len(a) == 0 {
		return fmt.Errorf("apportionment table is empty")
	}
	sum := 0.0
	for region, r := range a {
		if r <= 0 || r > 1 {
			return fmt.Errorf("apportionment ratio for %s is %.4f, want (0,1]", region, r)
		}
		sum += r
	}
	if math.Abs(sum-1) > ratioTolerance {
		return fmt.Errorf("apportionment ratios sum to %.6f, want 1", sum)
	}
	return nil
}

// Regions returns region codes in a stable order
func (a Apportionment) Regions() []string {
	out := make([]string, 0, len(a))
	for r := range a {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// RegionTotal is the observed value for one region
type RegionTotal struct {
	Region  string
	HasData bool
	Total   float64
	Records int
}

// Extrapolator estimates a market-wide total from partial regional coverage
type Extrapolator struct {
	ratios Apportionment
}

// NewExtrapolator creates an extrapolator over a validated apportionment table
func NewExtrapolator(ratios Apportionment) (*Extrapolator, error) {
	if err := ratios.Validate(); err != nil {
		return nil, fmt.Errorf("create extrapolator: %w", err)
	}
	return &Extrapolator{ratios: ratios}, nil
}

// Extrapolate scales the captured total by the captured share of the market.
// Regions absent from totals count as having no data. With zero coverage the
// raw total is returned unchanged.
func (e *Extrapolator) Extrapolate(totals []RegionTotal) domain.CoverageSummary {
	byRegion := make(map[string]RegionTotal, len(totals))
	for _, t := range totals {
		byRegion[t.Region] = t
	}

	var summary domain.CoverageSummary
	for _, region := range e.ratios.Regions() {
		t := byRegion[region]
		if t.HasData {
			summary.CapturedRatio += e.ratios[region]
			summary.CapturedRawTotal += t.Total
		}
	}

	summary.ExtrapolatedTotal = summary.CapturedRawTotal
	if summary.CapturedRatio > 0 {
		summary.ExtrapolatedTotal = summary.CapturedRawTotal / summary.CapturedRatio
		summary.Extrapolated = summary.CapturedRatio < 1-ratioTolerance
	}
	if !summary.Extrapolated {
		// full coverage reproduces the captured total exactly
		summary.ExtrapolatedTotal = summary.CapturedRawTotal
	}

	for _, region := range e.ratios.Regions() {
		t := byRegion[region]
		rc := domain.RegionCoverage{
			Region:             region,
			ApportionmentRatio: e.ratios[region],
			HasData:            t.HasData,
			RecordCount:        t.Records,
			CapturedTotal:      t.Total,
			EstimatedTotal:     t.Total,
		}
		if !t.HasData && summary.CapturedRatio > 0 {
			rc.EstimatedTotal = summary.ExtrapolatedTotal * e.ratios[region]
			rc.Estimated = true
		}
		summary.Regions = append(summary.Regions, rc)
	}
	return summary
}
