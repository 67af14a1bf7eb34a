package scenarios

import (
	"fmt"
	"math"

	"github.com/aristath/covenantmonitor/internal/domain"
)

// negligibleChange is the absolute actual-value change below which a covenant
// whose compliance did not flip is reported as unchanged
const negligibleChange = 0.001

// Simulator applies adjustments and compares covenant evaluations.
//
// Adjustments are applied sequentially in list order, each to the current
// (possibly already adjusted) value of its field. Order is therefore
// significant: +10% then +5,000,000 differs from +5,000,000 then +10%.
//
// By default a field absent from the base starts at 0. With Strict set the
// run fails with domain.ErrFieldNotFound instead.
type Simulator struct {
	Strict bool
}

// ApplyAdjustments returns an adjusted copy of base; base is never modified
func (s Simulator) ApplyAdjustments(base domain.Financials, adjustments []Adjustment) (domain.Financials, error) {
	adjusted := base.Clone()
	for i, adj := range adjustments {
		current, ok := adjusted[adj.Field]
		if !ok && s.Strict {
			return nil, fmt.Errorf("%w: adjustment %d references %q", domain.ErrFieldNotFound, i, adj.Field)
		}

		switch adj.Type {
		case AdjustAbsolute:
			adjusted[adj.Field] = current + adj.Value
		case AdjustPercentage:
			adjusted[adj.Field] = current * (1 + adj.Value/100)
		default:
			return nil, fmt.Errorf("%w: %q (adjustment %d)", domain.ErrUnsupportedAdjustment, adj.Type, i)
		}
	}
	return adjusted, nil
}

// Run evaluates the base and adjusted financials with the same evaluator and
// compares every baseline covenant with its scenario counterpart.
//
// The evaluator is called twice on independent copies. A stateful evaluator
// must not be shared with concurrent callers while Run is in progress.
func (s Simulator) Run(input ScenarioInput, evaluator domain.CovenantEvaluator) (*ScenarioResult, error) {
	if evaluator == nil {
		return nil, domain.ValidationError("a covenant evaluator is required")
	}

	adjusted, err := s.ApplyAdjustments(input.BaseFinancials, input.Adjustments)
	if err != nil {
		return nil, err
	}

	baseline, err := evaluator.Evaluate(input.BaseFinancials.Clone())
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate baseline: %w", err)
	}
	scenario, err := evaluator.Evaluate(adjusted.Clone())
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate scenario: %w", err)
	}
	if scenario == nil {
		scenario = []domain.CovenantResult{}
	}

	byName := make(map[string]domain.CovenantResult, len(scenario))
	for _, r := range scenario {
		byName[r.Name] = r
	}

	comparison := make([]CovenantComparison, 0, len(baseline))
	for _, b := range baseline {
		sc, ok := byName[b.Name]
		if !ok {
			// missing from the scenario: unchanged with zero delta
			sc = b
		}
		comparison = append(comparison, compare(b, sc))
	}

	allCompliant := true
	for _, r := range scenario {
		if !r.Suspended && !r.Compliant {
			allCompliant = false
			break
		}
	}

	return &ScenarioResult{
		Label:              input.Label,
		AdjustedFinancials: adjusted,
		CovenantResults:    scenario,
		AllCompliant:       allCompliant,
		Comparison:         comparison,
	}, nil
}

// compare reports the movement of one covenant. When either side is undefined
// the change is 0 and only a compliance flip counts as an impact.
func compare(baseline, scenario domain.CovenantResult) CovenantComparison {
	undefined := baseline.Undefined || scenario.Undefined
	change := scenario.Actual - baseline.Actual
	if undefined {
		change = 0
	}
	c := CovenantComparison{
		Name:              baseline.Name,
		BaselineActual:    baseline.Actual,
		ScenarioActual:    scenario.Actual,
		Change:            change,
		BaselineCompliant: baseline.Compliant,
		ScenarioCompliant: scenario.Compliant,
		BaselineHeadroom:  baseline.Headroom,
		ScenarioHeadroom:  scenario.Headroom,
	}
	if !undefined && baseline.Actual != 0 {
		c.ChangePercent = change / math.Abs(baseline.Actual) * 100
	}

	switch {
	case scenario.Compliant && !baseline.Compliant:
		c.ImpactType = ImpactImproved
	case !scenario.Compliant && baseline.Compliant:
		c.ImpactType = ImpactWorsened
	case undefined, math.Abs(change) < negligibleChange:
		c.ImpactType = ImpactUnchanged
	case scenario.Headroom > baseline.Headroom:
		c.ImpactType = ImpactImproved
	case scenario.Headroom < baseline.Headroom:
		c.ImpactType = ImpactWorsened
	default:
		c.ImpactType = ImpactUnchanged
	}
	return c
}
