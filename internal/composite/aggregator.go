package composite

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"infrapulse/pkg/contracts/domain"
)

// Band maps a minimum overall score to a status
type Band struct {
	Status domain.HealthStatus `yaml:"status" json:"status"`
	Min    float64             `yaml:"min" json:"min"`
}

// Params holds indicator weights and status bands
type Params struct {
	Weights map[domain.IndicatorName]float64 `yaml:"weights" json:"weights"`
	// Bands are ordered highest threshold first; scores below every band
	// fall through to Floor.
	Bands []Band              `yaml:"bands" json:"bands"`
	Floor domain.HealthStatus `yaml:"floor" json:"floor"`
}

// DefaultParams returns the standard indicator weights and bands
func DefaultParams() Params {
	return Params{
		Weights: map[domain.IndicatorName]float64{
			domain.IndicatorDOTPipeline:            0.15,
			domain.IndicatorHousingPermits:         0.10,
			domain.IndicatorConstructionSpending:   0.08,
			domain.IndicatorMigration:              0.07,
			domain.IndicatorConstructionEmployment: 0.08,
			domain.IndicatorInputCost:              0.07,
			domain.IndicatorInfrastructureFunding:  0.05,
		},
		Bands: []Band{
			{Status: domain.HealthGrowth, Min: 7.6},
			{Status: domain.HealthStable, Min: 6.1},
			{Status: domain.HealthWatchlist, Min: 5.0},
		},
		Floor: domain.HealthDefensive,
	}
}

// Validate checks weights and band ordering
func (p Params) Validate() error {
	for _, name := range domain.AllIndicators() {
		w, ok := p.Weights[name]
		if !ok {
			return fmt.Errorf("composite weight missing for %s", name)
		}
		if w <= 0 {
			return fmt.Errorf("composite weight for %s must be positive, got %.3f", name, w)
		}
	}
	for name := range p.Weights {
		if !name.IsValid() {
			return fmt.Errorf("composite weight for unknown indicator %s", name)
		}
	}
	for i := 1; i < len(p.Bands); i++ {
		if p.Bands[i].Min >= p.Bands[i-1].Min {
			return fmt.Errorf("composite bands must descend: %s (%.1f) after %s (%.1f)",
				p.Bands[i].Status, p.Bands[i].Min, p.Bands[i-1].Status, p.Bands[i-1].Min)
		}
	}
	if p.Floor == "" {
		return fmt.Errorf("composite floor status is required")
	}
	return nil
}

// Aggregator rolls indicator scores into one banded health score
type Aggregator struct {
	params Params
	logger *slog.Logger
}

// NewAggregator creates an aggregator
func NewAggregator(params Params, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{params: params, logger: logger.With(slog.String("component", "composite"))}
}

// Aggregate computes the weighted mean of the scores, rounded to one decimal,
// and assigns its status band. Indicators without a weight are ignored.
func (a *Aggregator) Aggregate(scores map[domain.IndicatorName]domain.IndicatorScore, at time.Time) domain.CompositeHealth {
	var weighted, total float64
	for _, name := range scoreOrder(scores) {
		s := scores[name]
		w, ok := a.params.Weights[name]
		if !ok || w <= 0 {
			a.logger.Warn("indicator has no composite weight", slog.String("indicator", string(name)))
			continue
		}
		weighted += s.Score * w
		total += w
	}

	overall := 0.0
	if total > 0 {
		overall = Round1(weighted / total)
	}
	overall = math.Max(0, math.Min(10, overall))

	return domain.CompositeHealth{
		IndicatorScores: scores,
		OverallScore:    overall,
		OverallStatus:   a.Status(overall),
		GeneratedAt:     at,
	}
}

// scoreOrder lists the known indicators first, in their canonical order,
// then any others by name, so the float sum is the same on every run.
func scoreOrder(scores map[domain.IndicatorName]domain.IndicatorScore) []domain.IndicatorName {
	names := make([]domain.IndicatorName, 0, len(scores))
	known := make(map[domain.IndicatorName]bool, len(scores))
	for _, name := range domain.AllIndicators() {
		known[name] = true
		if _, ok := scores[name]; ok {
			names = append(names, name)
		}
	}
	var extra []domain.IndicatorName
	for name := range scores {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(names, extra...)
}

// Status maps a score onto the first band whose minimum it reaches
func (a *Aggregator) Status(score float64) domain.HealthStatus {
	for _, b := range a.params.Bands {
		if score >= b.Min {
			return b.Status
		}
	}
	return a.params.Floor
}

// Round1 rounds half away from zero to one decimal place
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
