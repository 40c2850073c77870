package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"infrapulse/internal/sources"
)

// DefaultNoiseFloor drops dollar figures too small to be a construction contract
const DefaultNoiseFloor = 100_000

var (
	moneyRe = regexp.MustCompile(`(?i)\$\s*(\d{1,3}(?:,\d{3})+|\d+)(\.\d+)?(?:\s*(billion|million|thousand|bn|mm|m|b|k)\b)?`)
	plainRe = regexp.MustCompile(`(?i)^\s*(\d{1,3}(?:,\d{3})+|\d+)(\.\d+)?(?:\s*(billion|million|thousand|bn|mm|m|b|k)\b)?\s*$`)
)

var costLabelWords = []string{
	"total", "estimate", "cost", "amount", "budget", "value", "price", "low bid", "bid amount",
}

// isCostLabel reports whether a field label names a dollar figure
func isCostLabel(label string) bool {
	if strings.Contains(label, "date") || strings.Contains(label, "opening") {
		return false
	}
	if label == "bid" {
		return true
	}
	for _, w := range costLabelWords {
		if strings.Contains(label, w) {
			return true
		}
	}
	return false
}

// parseAmounts returns every dollar figure in s. With plain set, a bare
// number that fills the whole string is accepted too (spreadsheet cells).
func parseAmounts(s string, plain bool) []float64 {
	var out []float64
	for _, m := range moneyRe.FindAllStringSubmatch(s, -1) {
		if v, ok := amountOf(m[1], m[2], m[3]); ok {
			out = append(out, v)
		}
	}
	if len(out) == 0 && plain {
		if m := plainRe.FindStringSubmatch(s); m != nil {
			if v, ok := amountOf(m[1], m[2], m[3]); ok {
				out = append(out, v)
			}
		}
	}
	return out
}

func amountOf(whole, frac, suffix string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(whole, ",", "")+frac, 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(suffix) {
	case "billion", "bn", "b":
		v *= 1e9
	case "million", "mm", "m":
		v *= 1e6
	case "thousand", "k":
		v *= 1e3
	}
	return v, true
}

// extractCost finds the cost bounds of a row. Labeled cost fields win over
// a scan of the free text; figures under floor are ignored. One figure sets
// both bounds, several give the min and max.
func extractCost(row sources.Row, floor float64) (low, high *float64) {
	var amounts []float64
	for _, label := range sortedLabels(row) {
		if isCostLabel(label) {
			amounts = append(amounts, aboveFloor(parseAmounts(row.Fields[label], true), floor)...)
		}
	}
	if len(amounts) == 0 {
		amounts = aboveFloor(parseAmounts(rowText(row), false), floor)
	}
	if len(amounts) == 0 {
		return nil, nil
	}
	sort.Float64s(amounts)
	lo, hi := amounts[0], amounts[len(amounts)-1]
	return &lo, &hi
}

func aboveFloor(amounts []float64, floor float64) []float64 {
	out := amounts[:0]
	for _, a := range amounts {
		if a >= floor {
			out = append(out, a)
		}
	}
	return out
}
