// Package dedup resolves the same project reported by several sources.
package dedup

import (
	"strings"
	"unicode"

	"infrapulse/pkg/contracts/domain"
)

// Result is the unique record set plus the number of records dropped
type Result struct {
	Records []domain.ProjectRecord
	Removed int
}

// Deduplicate keeps the first occurrence of each project. Records are the
// same project when they share a record id, a normalized project number,
// or (when either side lacks a number) a normalized title. Input order is
// provider priority order, so the higher tier's version survives.
//
// Deduplicate is idempotent: running it on its own output removes nothing.
func Deduplicate(records []domain.ProjectRecord) Result {
	var (
		out      = make([]domain.ProjectRecord, 0, len(records))
		ids      = make(map[string]bool, len(records))
		numbers  = make(map[string]bool, len(records))
		titles   = make(map[string]bool, len(records))
		untitled = make(map[string]bool)
	)

	for _, rec := range records {
		number := NormalizeIdentifier(rec.ProjectNumber)
		title := NormalizeTitle(rec.Description)

		dup := rec.ID != "" && ids[rec.ID]
		if !dup && number != "" && numbers[number] {
			dup = true
		}
		if !dup && title != "" {
			// titles only decide when at least one side has no number
			if number == "" {
				dup = titles[title]
			} else {
				dup = untitled[title]
			}
		}
		if dup {
			continue
		}

		out = append(out, rec)
		if rec.ID != "" {
			ids[rec.ID] = true
		}
		if number != "" {
			numbers[number] = true
		}
		if title != "" {
			titles[title] = true
			if number == "" {
				untitled[title] = true
			}
		}
	}
	return Result{Records: out, Removed: len(records) - len(out)}
}

// NormalizeIdentifier strips everything but letters and digits and uppercases
func NormalizeIdentifier(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToUpper(r))
		}
	}
	return sb.String()
}

// NormalizeTitle lowercases, drops punctuation and collapses whitespace
func NormalizeTitle(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}
