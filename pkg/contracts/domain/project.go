package domain

import (
	"fmt"
	"time"
)

// ProjectType is the canonical infrastructure category of a project
type ProjectType string

const (
	ProjectTypeBridge   ProjectType = "bridge"
	ProjectTypePavement ProjectType = "pavement"
	ProjectTypeHighway  ProjectType = "highway"
	ProjectTypeSafety   ProjectType = "safety"
	ProjectTypeOther    ProjectType = "other"
)

// IsValid reports whether the project type is one of the known categories
func (t ProjectType) IsValid() bool {
	switch t {
	case ProjectTypeBridge, ProjectTypePavement, ProjectTypeHighway, ProjectTypeSafety, ProjectTypeOther:
		return true
	}
	return false
}

// ProjectStatus expresses how much a record can be trusted
type ProjectStatus string

const (
	// StatusConfirmed marks a record parsed from an agency listing
	StatusConfirmed ProjectStatus = "confirmed"
	// StatusVerify marks a placeholder that must be checked by hand
	StatusVerify ProjectStatus = "verify"
	// StatusBaselineEstimate marks a figure derived from a baseline rather than a listing
	StatusBaselineEstimate ProjectStatus = "baseline-estimate"
)

// IsValid reports whether the status is known
func (s ProjectStatus) IsValid() bool {
	switch s {
	case StatusConfirmed, StatusVerify, StatusBaselineEstimate:
		return true
	}
	return false
}

// BusinessLine tags the product lines a project is likely to consume
type BusinessLine string

const (
	BusinessLineLiquidAsphalt BusinessLine = "liquid_asphalt"
	BusinessLineHMA           BusinessLine = "hma"
	BusinessLineAggregates    BusinessLine = "aggregates"
	BusinessLineConcrete      BusinessLine = "concrete"
	BusinessLineTrucking      BusinessLine = "trucking"
	BusinessLineHighway       BusinessLine = "highway"
)

// FiscalYear is a single fiscal year (Start == End) or an inclusive range
type FiscalYear struct {
	Start int `json:"start" validate:"min=1900,max=2200"`
	End   int `json:"end" validate:"gtefield=Start"`
}

// String renders "FY2026" or "FY2026-2027"
func (fy FiscalYear) String() string {
	if fy.End == 0 || fy.End == fy.Start {
		return fmt.Sprintf("FY%d", fy.Start)
	}
	return fmt.Sprintf("FY%d-%d", fy.Start, fy.End)
}

// ProjectRecord is one normalized project listing.
// Records are created by the normalizer and never mutated afterwards.
type ProjectRecord struct {
	ID            string         `json:"id" validate:"required"`
	Region        string         `json:"region" validate:"required"`
	SourceName    string         `json:"source_name" validate:"required"`
	ProjectNumber string         `json:"project_number,omitempty"`
	Description   string         `json:"description"`
	Location      string         `json:"location,omitempty"`
	ProjectType   ProjectType    `json:"project_type" validate:"required"`
	CostLow       *float64       `json:"cost_low"`
	CostHigh      *float64       `json:"cost_high"`
	AdDate        *time.Time     `json:"ad_date"`
	LetDate       *time.Time     `json:"let_date"`
	FiscalYear    *FiscalYear    `json:"fiscal_year"`
	URL           string         `json:"url,omitempty"`
	BusinessLines []BusinessLine `json:"business_lines,omitempty"`
	Status        ProjectStatus  `json:"status" validate:"required"`
}

// HasCost reports whether at least one cost bound is known
func (p ProjectRecord) HasCost() bool {
	return p.CostLow != nil || p.CostHigh != nil
}

// Value is the dollar figure used for pipeline totals: the midpoint when
// both bounds are known, the known bound otherwise, and zero without cost.
func (p ProjectRecord) Value() float64 {
	switch {
	case p.CostLow != nil && p.CostHigh != nil:
		return (*p.CostLow + *p.CostHigh) / 2
	case p.CostHigh != nil:
		return *p.CostHigh
	case p.CostLow != nil:
		return *p.CostLow
	}
	return 0
}

// Validate checks record invariants
func (p ProjectRecord) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("project %s: %w", p.ID, err)
	}
	if !p.ProjectType.IsValid() {
		return fmt.Errorf("project %s: unknown project type %q", p.ID, p.ProjectType)
	}
	if !p.Status.IsValid() {
		return fmt.Errorf("project %s: unknown status %q", p.ID, p.Status)
	}
	if p.CostLow != nil && p.CostHigh != nil && *p.CostLow > *p.CostHigh {
		return fmt.Errorf("project %s: cost_low %.2f exceeds cost_high %.2f", p.ID, *p.CostLow, *p.CostHigh)
	}
	return nil
}
