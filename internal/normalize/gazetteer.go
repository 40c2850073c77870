package normalize

import (
	"regexp"
	"strings"

	"infrapulse/internal/sources"
)

// corridorRe finds "Town A - Town B", "Town A – Town B" and "Town A to Town B".
// Each side is up to three capitalized words.
var corridorRe = regexp.MustCompile(`\b([A-Z][a-zA-Z.']*(?:\s+[A-Z][a-zA-Z.']*){0,2})\s*(?:–|—|-|\s+to\s+)\s*([A-Z][a-zA-Z.']*(?:\s+[A-Z][a-zA-Z.']*){0,2})`)

type townPattern struct {
	name string
	re   *regexp.Regexp
}

// Gazetteer knows the place names of each region
type Gazetteer struct {
	known    map[string]map[string]bool
	patterns map[string][]townPattern
}

// NewGazetteer indexes towns by region code
func NewGazetteer(towns map[string][]string) *Gazetteer {
	g := &Gazetteer{
		known:    make(map[string]map[string]bool, len(towns)),
		patterns: make(map[string][]townPattern, len(towns)),
	}
	for region, list := range towns {
		set := make(map[string]bool, len(list))
		for _, t := range list {
			set[strings.ToLower(t)] = true
			g.patterns[region] = append(g.patterns[region], townPattern{
				name: t,
				re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(t) + `\b`),
			})
		}
		g.known[region] = set
	}
	return g
}

func (g *Gazetteer) isTown(region, name string) bool {
	return g.known[region][strings.ToLower(strings.TrimSpace(name))]
}

// Locate returns the location of a row: a labeled location field as given,
// a corridor kept verbatim, or the first known town mentioned in the text.
func (g *Gazetteer) Locate(region string, row sources.Row) string {
	if loc := row.Field(locationLabels...); loc != "" {
		return loc
	}
	text := rowText(row)
	if c := g.corridor(region, text); c != "" {
		return c
	}
	return g.firstTown(region, text)
}

// corridor finds a two-ended span where at least one end is a known town.
// The returned text is the exact span from the source, separator included.
func (g *Gazetteer) corridor(region, text string) string {
	for _, m := range corridorRe.FindAllStringSubmatchIndex(text, -1) {
		aStart, aEnd, bStart, bEnd := m[2], m[3], m[4], m[5]
		aWords := strings.Fields(text[aStart:aEnd])
		bWords := strings.Fields(text[bStart:bEnd])

		// shortest trailing run of side A that names a town, else its last word
		start, aKnown := -1, false
		for k := 1; k <= len(aWords); k++ {
			if g.isTown(region, strings.Join(aWords[len(aWords)-k:], " ")) {
				start, aKnown = k, true
				break
			}
		}
		if start < 0 {
			start = 1
		}
		// shortest leading run of side B that names a town, else its first word
		end, bKnown := -1, false
		for k := 1; k <= len(bWords); k++ {
			if g.isTown(region, strings.Join(bWords[:k], " ")) {
				end, bKnown = k, true
				break
			}
		}
		if end < 0 {
			end = 1
		}
		if !aKnown && !bKnown {
			continue
		}

		first := strings.Join(aWords[len(aWords)-start:], " ")
		last := strings.Join(bWords[:end], " ")
		from := aStart + strings.LastIndex(text[aStart:aEnd], first)
		to := bStart + strings.Index(text[bStart:bEnd], last) + len(last)
		return text[from:to]
	}
	return ""
}

func (g *Gazetteer) firstTown(region, text string) string {
	best, bestAt := "", -1
	for _, p := range g.patterns[region] {
		if loc := p.re.FindStringIndex(text); loc != nil && (bestAt < 0 || loc[0] < bestAt) {
			best, bestAt = p.name, loc[0]
		}
	}
	return best
}
