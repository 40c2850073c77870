package normalize

import (
	"regexp"
	"strings"

	"infrapulse/pkg/contracts/domain"
)

// TypeRule tags text matching Pattern with Type
type TypeRule struct {
	Type    domain.ProjectType
	Pattern *regexp.Regexp
}

// DefaultTypeRules in priority order: the first rule that matches wins
var DefaultTypeRules = []TypeRule{
	{domain.ProjectTypeBridge, regexp.MustCompile(`(?i)\b(bridges?|culverts?|overpass|underpass|viaduct|deck|abutment|superstructure|substructure)\b`)},
	{domain.ProjectTypePavement, regexp.MustCompile(`(?i)\b(pave|paved|paving|pavement|resurfac\w*|overlay|milling|mill and (fill|overlay)|asphalt|reclamation|reclaim|chip seal|crack seal|shim)\b`)},
	{domain.ProjectTypeHighway, regexp.MustCompile(`(?i)\b(highway|interstate|turnpike|thruway|expressway|parkway|roadways?|roads?|routes?|intersections?|interchanges?|widening|reconstruction|(i|us|sr)-\s?\d+)\b`)},
	{domain.ProjectTypeSafety, regexp.MustCompile(`(?i)\b(safety|guard\s?rails?|guide\s?rails?|traffic signals?|signals?|signage|signs?|striping|rumble strips?|rumble|lighting|barriers?|pedestrian|crosswalks?|sidewalks?)\b`)},
}

// LineRule tags text containing any of Keywords with Line
type LineRule struct {
	Line    domain.BusinessLine
	Pattern *regexp.Regexp
}

func keywordRule(line domain.BusinessLine, keywords ...string) LineRule {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return LineRule{Line: line, Pattern: regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)}
}

// DefaultLineRules in priority order; every matching line is tagged
var DefaultLineRules = []LineRule{
	keywordRule(domain.BusinessLineLiquidAsphalt,
		"bitumen", "liquid asphalt", "asphalt cement", "emulsion", "ac grade", "pg grade", "binder", "cutback", "asphalt terminal"),
	keywordRule(domain.BusinessLineHMA,
		"asphalt", "hot mix", "hma", "bituminous", "blacktop", "tack coat", "wearing course", "overlay", "asphalt plant", "paver", "roller"),
	keywordRule(domain.BusinessLineAggregates,
		"aggregate", "aggregates", "quarry", "gravel", "sand", "stone", "crushed", "pit", "mining", "excavation", "crusher",
		"screening", "base course", "subbase", "fill material"),
	keywordRule(domain.BusinessLineConcrete,
		"concrete", "ready mix", "ready-mix", "cement", "batch plant", "redi-mix", "precast", "reinforced concrete", "structural concrete"),
	keywordRule(domain.BusinessLineTrucking,
		"trucking", "hauling", "dump truck", "fleet", "cdl", "freight", "delivery", "transport", "logistics"),
	keywordRule(domain.BusinessLineHighway,
		"highway", "road construction", "paving", "resurfacing", "milling", "interstate", "turnpike", "dot", "transportation",
		"vtrans", "nhdot", "mainedot", "nysdot", "penndot", "massdot", "ridot", "ctdot", "bridge", "overpass", "culvert",
		"guardrail", "pavement"),
}

// Classifier applies the type and business-line rule tables
type Classifier struct {
	types []TypeRule
	lines []LineRule
}

// NewClassifier creates a classifier; nil tables use the defaults
func NewClassifier(types []TypeRule, lines []LineRule) *Classifier {
	if types == nil {
		types = DefaultTypeRules
	}
	if lines == nil {
		lines = DefaultLineRules
	}
	return &Classifier{types: types, lines: lines}
}

// ProjectType returns the first matching type, or Other
func (c *Classifier) ProjectType(text string) domain.ProjectType {
	for _, r := range c.types {
		if r.Pattern.MatchString(text) {
			return r.Type
		}
	}
	return domain.ProjectTypeOther
}

// BusinessLines returns every matching line in priority order
func (c *Classifier) BusinessLines(text string) []domain.BusinessLine {
	var out []domain.BusinessLine
	for _, r := range c.lines {
		if r.Pattern.MatchString(text) {
			out = append(out, r.Line)
		}
	}
	return out
}
