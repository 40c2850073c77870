package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"infrapulse/internal/sources"
	"infrapulse/pkg/contracts/domain"
)

// dateLayouts are tried in order; the first successful parse wins
var dateLayouts = []string{
	"1/2/2006",
	"1/2/06",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	time.RFC1123,
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006",
}

// Excel serials accepted as dates (1954 to 2119)
const (
	minExcelSerial = 20_000
	maxExcelSerial = 80_000
)

// Fiscal years outside this range are read as noise
const (
	minFiscalYear = 1900
	maxFiscalYear = 2200
)

var (
	dateTokenRe = regexp.MustCompile(`(?i)\b(\d{1,2}/\d{1,2}/\d{2,4}|\d{4}-\d{2}-\d{2}|(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4})\b`)
	fiscalRe    = regexp.MustCompile(`(?i)\bFY\s*'?(\d{4}|\d{2})(?:\s*[-–/]\s*'?(\d{4}|\d{2}))?\b`)
	yearRangeRe = regexp.MustCompile(`^\s*(\d{4})(?:\s*[-–/]\s*(\d{4}|\d{2}))?\s*$`)
	letCueRe    = regexp.MustCompile(`(?i)\b(letting|let|bid opening|bids? due|bids? open(?:s|ing)?|opens?|award(?:ed)?)(?:\s+(?:date|on))?\W*$`)
)

// ParseDate reads a calendar date. Unparsable input yields nil, never an error.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	cleaned := strings.ReplaceAll(s, ".", "")
	cleaned = strings.NewReplacer("Sept ", "Sep ", "sept ", "sep ", "SEPT ", "SEP ").Replace(cleaned)
	for _, layout := range dateLayouts {
		candidate := cleaned
		if strings.Contains(layout, "2006-01-02") {
			candidate = s
		}
		if t, err := time.Parse(layout, candidate); err == nil {
			return calendarDate(t)
		}
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && v > minExcelSerial && v < maxExcelSerial {
		if t, err := excelize.ExcelDateToTime(v, false); err == nil {
			return calendarDate(t)
		}
	}
	return nil
}

func calendarDate(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// parseDateField parses a whole cell, then the first date-looking token in it
func parseDateField(s string) *time.Time {
	if t := ParseDate(s); t != nil {
		return t
	}
	if m := dateTokenRe.FindString(s); m != "" {
		return ParseDate(m)
	}
	return nil
}

func isLetLabel(label string) bool {
	for _, w := range []string{"letting", "let date", "bid opening", "bid open", "opening", "bids due", "award date"} {
		if strings.Contains(label, w) {
			return true
		}
	}
	return label == "let"
}

func isAdLabel(label string) bool {
	for _, w := range []string{"advertis", "ad date", "posted", "issue date"} {
		if strings.Contains(label, w) {
			return true
		}
	}
	return label == "ad" || label == "date"
}

// extractDates reads ad and let dates from labeled fields, then from dates
// found in the free text. A free-text date preceded by a letting cue is a
// let date; any other is an ad date.
func extractDates(row sources.Row) (ad, let *time.Time) {
	for _, label := range sortedLabels(row) {
		switch {
		case let == nil && isLetLabel(label):
			let = parseDateField(row.Fields[label])
		case ad == nil && isAdLabel(label):
			ad = parseDateField(row.Fields[label])
		}
	}
	if ad != nil || let != nil {
		return ad, let
	}

	text := rowText(row)
	for _, loc := range dateTokenRe.FindAllStringIndex(text, -1) {
		t := ParseDate(text[loc[0]:loc[1]])
		if t == nil {
			continue
		}
		prefix := text[max(0, loc[0]-40):loc[0]]
		if let == nil && letCueRe.MatchString(strings.TrimSpace(prefix)) {
			let = t
		} else if ad == nil {
			ad = t
		}
	}
	return ad, let
}

// extractFiscalYear reads "FY2026", "FY 26", "FY2026-27" or a labeled year column
func extractFiscalYear(row sources.Row) *domain.FiscalYear {
	for _, label := range sortedLabels(row) {
		if strings.Contains(label, "fiscal") || label == "fy" {
			v := row.Fields[label]
			if m := fiscalRe.FindStringSubmatch(v); m != nil {
				return fiscalYear(m[1], m[2])
			}
			if m := yearRangeRe.FindStringSubmatch(v); m != nil {
				return fiscalYear(m[1], m[2])
			}
		}
	}
	if m := fiscalRe.FindStringSubmatch(rowText(row)); m != nil {
		return fiscalYear(m[1], m[2])
	}
	return nil
}

func fiscalYear(start, end string) *domain.FiscalYear {
	s := expandYear(start)
	if s == 0 {
		return nil
	}
	e := expandYear(end)
	if e < s {
		e = s
	}
	return &domain.FiscalYear{Start: s, End: e}
}

// expandYear reads a two or four digit year; anything unreadable or out of
// range is 0
func expandYear(s string) int {
	if s == "" {
		return 0
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	if y < 100 {
		y += 2000
	}
	if y < minFiscalYear || y > maxFiscalYear {
		return 0
	}
	return y
}
