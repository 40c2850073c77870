package indicators

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"infrapulse/pkg/contracts/domain"
)

// Scorer maps indicator inputs onto bounded scores
type Scorer struct {
	params Params
	logger *slog.Logger
}

// NewScorer creates a scorer with the given constants
func NewScorer(params Params, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{params: params, logger: logger.With(slog.String("component", "indicators"))}
}

// Params returns the scoring constants in use
func (s *Scorer) Params() Params {
	return s.params
}

// ScoreAll scores all seven indicators against the previous run's snapshot
func (s *Scorer) ScoreAll(in Inputs, prev *domain.Snapshot) map[domain.IndicatorName]domain.IndicatorScore {
	scores := []domain.IndicatorScore{
		s.ScorePipeline(in.Pipeline, prev),
		s.ScoreHousingPermits(in.HousingPermits, prev),
		s.ScoreConstructionSpending(in.ConstructionSpending, prev),
		s.ScoreMigration(in.Migration, prev),
		s.ScoreConstructionEmployment(in.ConstructionEmployment, prev),
		s.ScoreInputCost(in.InputCost, prev),
		s.ScoreInfrastructureFunding(in.InfrastructureFunding, prev),
	}

	out := make(map[domain.IndicatorName]domain.IndicatorScore, len(scores))
	for _, sc := range scores {
		s.logger.Debug("indicator scored",
			slog.String("indicator", string(sc.Name)),
			slog.Float64("raw", sc.RawValue),
			slog.Float64("score", sc.Score),
			slog.String("trend", string(sc.Trend)),
			slog.String("source", string(sc.ConfidenceSource)))
		out[sc.Name] = sc
	}
	return out
}

// ScorePipeline scores the time-weighted pipeline against the discounted baseline
func (s *Scorer) ScorePipeline(in PipelineInput, prev *domain.Snapshot) domain.IndicatorScore {
	p := s.params.Pipeline
	name := domain.IndicatorDOTPipeline
	if in.RawValue <= 0 {
		return s.neutral(name, in.RawValue, p.Actions, in.Source)
	}

	weighted, baseline := in.WeightedValue, in.TimeWeightedBaseline
	if baseline <= 0 {
		weighted, baseline = in.RawValue, p.Baseline
	}
	raw := weighted / baseline * p.Multiplier
	score := Clamp(raw)

	return domain.IndicatorScore{
		Name:              name,
		RawValue:          in.RawValue,
		Score:             score,
		Trend:             s.trend(name, in.RawValue, prev),
		RecommendedAction: p.Actions.Lookup(score, 0),
		ConfidenceSource:  in.Source,
		Details: map[string]float64{
			"weighted_value":         weighted,
			"time_weighted_baseline": baseline,
		},
	}
}

// ScoreHousingPermits scores year-over-year permit growth
func (s *Scorer) ScoreHousingPermits(in ChangeInput, prev *domain.Snapshot) domain.IndicatorScore {
	return s.scoreChange(domain.IndicatorHousingPermits, s.params.HousingPermits, in, prev)
}

// ScoreConstructionSpending scores year-over-year highway spending growth
func (s *Scorer) ScoreConstructionSpending(in ChangeInput, prev *domain.Snapshot) domain.IndicatorScore {
	return s.scoreChange(domain.IndicatorConstructionSpending, s.params.ConstructionSpending, in, prev)
}

// ScoreConstructionEmployment scores year-over-year construction employment growth
func (s *Scorer) ScoreConstructionEmployment(in ChangeInput, prev *domain.Snapshot) domain.IndicatorScore {
	return s.scoreChange(domain.IndicatorConstructionEmployment, s.params.ConstructionEmployment, in, prev)
}

func (s *Scorer) scoreChange(name domain.IndicatorName, p ChangeParams, in ChangeInput, prev *domain.Snapshot) domain.IndicatorScore {
	if in.Current <= 0 || in.Prior <= 0 {
		return s.neutral(name, in.Current, p.Actions, in.Source)
	}

	change := (in.Current - in.Prior) / in.Prior
	score := Clamp(p.Midpoint + change*p.Slope)

	return domain.IndicatorScore{
		Name:              name,
		RawValue:          in.Current,
		Score:             score,
		Trend:             s.trend(name, in.Current, prev),
		RecommendedAction: p.Actions.Lookup(score, change),
		ConfidenceSource:  in.Source,
		ChangePct:         round(change*100, 1),
		Details:           map[string]float64{"prior": in.Prior},
	}
}

// ScoreMigration scores the population-weighted share of net migration.
// Each region's change is taken relative to its prior-year population.
func (s *Scorer) ScoreMigration(in MigrationInput, prev *domain.Snapshot) domain.IndicatorScore {
	p := s.params.Migration
	name := domain.IndicatorMigration

	var total, weighted float64
	for _, r := range in.Regions {
		base := r.Population - r.Change
		if r.Population <= 0 || base <= 0 {
			continue
		}
		total += r.Population
		weighted += r.Change / base * r.Population
	}
	if total <= 0 {
		return s.neutral(name, 0, p.Actions, in.Source)
	}

	change := weighted / total
	score := Clamp(p.Midpoint + change*p.Slope)

	return domain.IndicatorScore{
		Name:              name,
		RawValue:          total,
		Score:             score,
		Trend:             s.trend(name, total, prev),
		RecommendedAction: p.Actions.Lookup(score, change),
		ConfidenceSource:  in.Source,
		ChangePct:         round(change*100, 2),
	}
}

// ScoreInputCost blends per-commodity price stability.
// stability = 1 / (priceRatio x (1 + volatility)), where priceRatio is the
// latest price over the baseline and volatility is stdev/mean of the window.
func (s *Scorer) ScoreInputCost(in InputCostInput, prev *domain.Snapshot) domain.IndicatorScore {
	p := s.params.InputCost
	name := domain.IndicatorInputCost

	details := make(map[string]float64)
	var blend, totalWeight, current float64
	observed := 0
	for _, c := range p.Commodities {
		prices := in.Prices[c.Name]
		sub := s.commodityScore(prices, c.Baseline)
		details[c.Name+"_score"] = round(Clamp(sub), 1)

		price := c.Baseline
		if len(prices) > 0 {
			price = prices[len(prices)-1]
			observed++
		}
		details[c.Name+"_price"] = round(price, 2)

		blend += sub * c.Weight
		totalWeight += c.Weight
		current += price * c.Weight
	}
	if observed == 0 || totalWeight <= 0 {
		sc := s.neutral(name, 0, p.Actions, in.Source)
		sc.Details = details
		return sc
	}

	current /= totalWeight
	score := Clamp(blend / totalWeight)

	return domain.IndicatorScore{
		Name:              name,
		RawValue:          round(current, 4),
		Score:             score,
		Trend:             s.trend(name, current, prev),
		RecommendedAction: p.Actions.Lookup(score, 0),
		ConfidenceSource:  in.Source,
		Details:           details,
	}
}

// commodityScore returns the unclamped stability sub-score of one series
func (s *Scorer) commodityScore(prices []float64, baseline float64) float64 {
	if len(prices) < 2 || baseline <= 0 {
		return s.params.NeutralScore
	}
	current := prices[len(prices)-1]
	if current <= 0 {
		return s.params.NeutralScore
	}
	mean, stdev := stat.MeanStdDev(prices, nil)
	volatility := 0.0
	if mean > 0 {
		volatility = stdev / mean
	}
	ratio := current / baseline
	return 1 / (ratio * (1 + volatility)) * s.params.InputCost.StabilityScale
}

// ScoreInfrastructureFunding scores scheduled funding against the pre-program baseline
func (s *Scorer) ScoreInfrastructureFunding(in FundingInput, prev *domain.Snapshot) domain.IndicatorScore {
	p := s.params.InfrastructureFunding
	name := domain.IndicatorInfrastructureFunding
	if in.Amount <= 0 {
		return s.neutral(name, 0, p.Actions, in.Source)
	}

	score := Clamp(in.Amount / p.Baseline * p.Multiplier)
	return domain.IndicatorScore{
		Name:              name,
		RawValue:          in.Amount,
		Score:             score,
		Trend:             s.trend(name, in.Amount, prev),
		RecommendedAction: p.Actions.Lookup(score, 0),
		ConfidenceSource:  in.Source,
		Details:           map[string]float64{"fiscal_year": float64(in.FiscalYear)},
	}
}

func (s *Scorer) neutral(name domain.IndicatorName, raw float64, actions ActionTable, source domain.ConfidenceSource) domain.IndicatorScore {
	if source == "" {
		source = domain.SourceFallback
	}
	s.logger.Info("indicator has insufficient history, using neutral score",
		slog.String("indicator", string(name)))
	return domain.IndicatorScore{
		Name:              name,
		RawValue:          raw,
		Score:             s.params.NeutralScore,
		Trend:             domain.TrendStable,
		RecommendedAction: actions.LookupNeutral(s.params.NeutralScore),
		ConfidenceSource:  source,
	}
}

func (s *Scorer) trend(name domain.IndicatorName, current float64, prev *domain.Snapshot) domain.Trend {
	previous, ok := prev.Value(name)
	if !ok {
		return domain.TrendStable
	}
	return TrendOf(current, previous, s.params.TrendThreshold)
}

// TrendOf compares current with previous using a relative threshold
func TrendOf(current, previous, threshold float64) domain.Trend {
	if previous <= 0 {
		return domain.TrendStable
	}
	change := (current - previous) / previous
	switch {
	case change > threshold:
		return domain.TrendUp
	case change < -threshold:
		return domain.TrendDown
	}
	return domain.TrendStable
}

// Clamp bounds a raw score to [0,10] and rounds it to one decimal
func Clamp(raw float64) float64 {
	if math.IsNaN(raw) {
		return 0
	}
	return round(math.Max(0, math.Min(10, raw)), 1)
}

func round(v float64, places int) float64 {
	f := math.Pow(10, float64(places))
	return math.Round(v*f) / f
}
