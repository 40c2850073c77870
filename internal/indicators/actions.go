package indicators

import "fmt"

// ActionBasis selects which value an action table is evaluated against
type ActionBasis string

const (
	BasisScore  ActionBasis = "score"
	BasisChange ActionBasis = "change"
)

// ActionRule yields Action when the basis value reaches Above.
// Strict rules require the value to exceed Above.
type ActionRule struct {
	Above  float64 `yaml:"above" json:"above"`
	Strict bool    `yaml:"strict" json:"strict"`
	Action string  `yaml:"action" json:"action"`
}

func (r ActionRule) matches(v float64) bool {
	if r.Strict {
		return v > r.Above
	}
	return v >= r.Above
}

// ActionTable is a priority-ordered list of rules; the first match wins
type ActionTable struct {
	Basis   ActionBasis  `yaml:"basis" json:"basis"`
	Rules   []ActionRule `yaml:"rules" json:"rules"`
	Default string       `yaml:"default" json:"default"`
	// Neutral is returned when the indicator fell back to the neutral score.
	// Empty means evaluate the table normally.
	Neutral string `yaml:"neutral,omitempty" json:"neutral,omitempty"`
}

// Lookup returns the action for a score and change ratio
func (t ActionTable) Lookup(score, change float64) string {
	v := score
	if t.Basis == BasisChange {
		v = change
	}
	for _, r := range t.Rules {
		if r.matches(v) {
			return r.Action
		}
	}
	return t.Default
}

// LookupNeutral returns the action used when history was missing
func (t ActionTable) LookupNeutral(neutral float64) string {
	if t.Neutral != "" {
		return t.Neutral
	}
	return t.Lookup(neutral, 0)
}

// Validate checks the basis and that thresholds descend
func (t ActionTable) Validate() error {
	if t.Basis != BasisScore && t.Basis != BasisChange {
		return fmt.Errorf("unknown action basis %q", t.Basis)
	}
	if t.Default == "" {
		return fmt.Errorf("action table needs a default action")
	}
	for i := 1; i < len(t.Rules); i++ {
		if t.Rules[i].Above > t.Rules[i-1].Above {
			return fmt.Errorf("action rule %d threshold %.3f exceeds previous %.3f", i, t.Rules[i].Above, t.Rules[i-1].Above)
		}
	}
	for i, r := range t.Rules {
		if r.Action == "" {
			return fmt.Errorf("action rule %d has no action", i)
		}
	}
	return nil
}

func scoreTable(deflt string, rules ...ActionRule) ActionTable {
	return ActionTable{Basis: BasisScore, Rules: rules, Default: deflt}
}

func changeTable(deflt, neutral string, rules ...ActionRule) ActionTable {
	return ActionTable{Basis: BasisChange, Rules: rules, Default: deflt, Neutral: neutral}
}

func atLeast(v float64, action string) ActionRule { return ActionRule{Above: v, Action: action} }

func above(v float64, action string) ActionRule {
	return ActionRule{Above: v, Strict: true, Action: action}
}
