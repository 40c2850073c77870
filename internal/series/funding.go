package series

import (
	"sort"
	"time"

	"infrapulse/internal/config"
)

// FundingSchedule is the legislated funding table by federal fiscal year
type FundingSchedule struct {
	years []config.FundingYear
}

// NewFundingSchedule sorts the table by fiscal year
func NewFundingSchedule(years []config.FundingYear) FundingSchedule {
	sorted := append([]config.FundingYear(nil), years...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FiscalYear < sorted[j].FiscalYear })
	return FundingSchedule{years: sorted}
}

// FederalFiscalYear returns the federal fiscal year containing t; it
// starts on October 1
func FederalFiscalYear(t time.Time) int {
	if t.Month() >= time.October {
		return t.Year() + 1
	}
	return t.Year()
}

// Amount returns the funding of fiscal year fy. Years outside the table
// take the nearest end; inSchedule is false in that case.
func (s FundingSchedule) Amount(fy int) (amount float64, inSchedule bool) {
	if len(s.years) == 0 {
		return 0, false
	}
	first, last := s.years[0], s.years[len(s.years)-1]
	switch {
	case fy < first.FiscalYear:
		return first.Amount, false
	case fy > last.FiscalYear:
		return last.Amount, false
	}
	for _, y := range s.years {
		if y.FiscalYear == fy {
			return y.Amount, true
		}
	}
	// gap inside the table: carry the latest earlier year forward
	var carried float64
	for _, y := range s.years {
		if y.FiscalYear > fy {
			break
		}
		carried = y.Amount
	}
	return carried, false
}
