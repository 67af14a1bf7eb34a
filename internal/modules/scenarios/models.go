// Package scenarios runs pro-forma "what-if" simulations: adjust a copy of a
// deal's financials, evaluate covenants before and after, and compare.
package scenarios

import (
	"github.com/aristath/covenantmonitor/internal/domain"
)

// AdjustmentType selects how an adjustment changes a field
type AdjustmentType string

const (
	// AdjustAbsolute adds Value to the field
	AdjustAbsolute AdjustmentType = "absolute"
	// AdjustPercentage multiplies the field by (1 + Value/100)
	AdjustPercentage AdjustmentType = "percentage"
)

// Adjustment is one change to a financial field
type Adjustment struct {
	Field string         `json:"field"`
	Type  AdjustmentType `json:"type"`
	Value float64        `json:"value"`
}

// ScenarioInput is a labelled base plus an ordered list of adjustments
type ScenarioInput struct {
	Label          string            `json:"label"`
	BaseFinancials domain.Financials `json:"baseFinancials"`
	Adjustments    []Adjustment      `json:"adjustments"`
}

// ImpactType classifies how a covenant moved under the scenario
type ImpactType string

const (
	ImpactImproved  ImpactType = "improved"
	ImpactWorsened  ImpactType = "worsened"
	ImpactUnchanged ImpactType = "unchanged"
)

// CovenantComparison is the baseline-versus-scenario view of one covenant
type CovenantComparison struct {
	Name              string     `json:"name"`
	BaselineActual    float64    `json:"baselineActual"`
	ScenarioActual    float64    `json:"scenarioActual"`
	Change            float64    `json:"change"`
	ChangePercent     float64    `json:"changePercent"`
	BaselineCompliant bool       `json:"baselineCompliant"`
	ScenarioCompliant bool       `json:"scenarioCompliant"`
	BaselineHeadroom  float64    `json:"baselineHeadroom"`
	ScenarioHeadroom  float64    `json:"scenarioHeadroom"`
	ImpactType        ImpactType `json:"impactType"`
}

// ScenarioResult is the outcome of one simulation
type ScenarioResult struct {
	Label              string                  `json:"label"`
	AdjustedFinancials domain.Financials       `json:"adjustedFinancials"`
	CovenantResults    []domain.CovenantResult `json:"covenantResults"`
	AllCompliant       bool                    `json:"allCompliant"`
	Comparison         []CovenantComparison    `json:"comparison"`
}
