package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"infrapulse/internal/sources"
)

// maxDescription bounds descriptions taken from free text
const maxDescription = 300

var descriptionLabels = []string{
	"description", "project description", "title", "project title", "project name", "name",
	"work description", "scope", "scope of work", "type of work", "work",
}

var locationLabels = []string{"location", "town", "towns", "city", "municipality", "county", "limits"}

var projectNumberRe = regexp.MustCompile(`(?i)\b(?:project|contract|proj\.?|pin)\s*(?:no\.?|number|#)?\s*:?\s*([A-Z0-9][A-Z0-9()\-./]*\d[A-Z0-9()\-./]*)`)

func sortedLabels(row sources.Row) []string {
	labels := make([]string, 0, len(row.Fields))
	for l := range row.Fields {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// rowText is the free text of a row, or its field values when it has none
func rowText(row sources.Row) string {
	if strings.TrimSpace(row.Text) != "" {
		return row.Text
	}
	parts := make([]string, 0, len(row.Fields))
	for _, l := range sortedLabels(row) {
		parts = append(parts, row.Fields[l])
	}
	return strings.Join(parts, " | ")
}

func extractDescription(row sources.Row) string {
	if d := row.Field(descriptionLabels...); d != "" {
		return d
	}
	text := strings.Join(strings.Fields(rowText(row)), " ")
	return truncate(text, maxDescription)
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return strings.TrimSpace(s[:n])
}

// isProjectNumberLabel matches headers like "Project No.", "Contract #" or "PIN"
func isProjectNumberLabel(label string) bool {
	if label == "pin" || label == "contract" || label == "contract id" {
		return true
	}
	if !strings.Contains(label, "project") && !strings.Contains(label, "contract") {
		return false
	}
	for _, w := range []string{"number", "no", "#", "id", "pin"} {
		for _, tok := range strings.Fields(strings.NewReplacer(".", " ", "#", " # ").Replace(label)) {
			if tok == w {
				return true
			}
		}
	}
	return false
}

func extractProjectNumber(row sources.Row) string {
	for _, label := range sortedLabels(row) {
		if isProjectNumberLabel(label) {
			if v := strings.TrimSpace(row.Fields[label]); strings.ContainsAny(v, "0123456789") {
				return v
			}
		}
	}
	if m := projectNumberRe.FindStringSubmatch(rowText(row)); m != nil {
		return strings.TrimRight(m[1], ".-/")
	}
	return ""
}
