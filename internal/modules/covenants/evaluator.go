package covenants

import (
	"math"

	"github.com/aristath/covenantmonitor/internal/domain"
)

// RatioEvaluator evaluates a fixed set of definitions.
// It holds no mutable state, so one instance may serve concurrent baseline
// and scenario evaluations.
type RatioEvaluator struct {
	definitions []Definition
}

var _ domain.CovenantEvaluator = (*RatioEvaluator)(nil)

// NewRatioEvaluator copies the definitions into a new evaluator
func NewRatioEvaluator(definitions []Definition) *RatioEvaluator {
	defs := make([]Definition, len(definitions))
	copy(defs, definitions)
	return &RatioEvaluator{definitions: defs}
}

// Evaluate computes actual, compliance and headroom for every definition,
// in definition order. Missing financial fields count as 0.
//
// A ratio whose denominator sums to 0 is reported Undefined with actual and
// headroom 0. Its compliance is judged against the infinity of the
// numerator's sign: zero EBITDA fails a leverage cap, zero debt service
// passes a DSCR floor. A 0/0 ratio is never compliant.
func (e *RatioEvaluator) Evaluate(financials domain.Financials) ([]domain.CovenantResult, error) {
	results := make([]domain.CovenantResult, 0, len(e.definitions))
	for _, def := range e.definitions {
		result := domain.CovenantResult{
			Name:      def.Name,
			Required:  def.Threshold,
			Operator:  def.Operator,
			Suspended: def.Suspended,
		}

		numerator, denominator, isRatio := terms(financials, def)
		if isRatio && denominator == 0 {
			result.Undefined = true
			result.Compliant = numerator != 0 && def.Operator.Compare(math.Inf(sign(numerator)), def.Threshold)
		} else {
			if isRatio {
				result.Actual = numerator / denominator
			} else {
				result.Actual = numerator
			}
			result.Compliant = def.Operator.Compare(result.Actual, def.Threshold)
			result.Headroom = headroom(result.Actual, def.Threshold, def.Operator, result.Compliant)
		}
		results = append(results, result)
	}
	return results, nil
}

// terms sums the numerator and denominator fields; isRatio is false for
// absolute covenants without denominator fields.
func terms(financials domain.Financials, def Definition) (numerator, denominator float64, isRatio bool) {
	numerator = sumFields(financials, def.NumeratorFields)
	if len(def.DenominatorFields) == 0 {
		return numerator, 0, false
	}
	return numerator, sumFields(financials, def.DenominatorFields), true
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}

func sumFields(financials domain.Financials, fields []string) float64 {
	var total float64
	for _, f := range fields {
		total += financials[f]
	}
	return total
}

// headroom is positive while compliant for directional operators.
// Equality operators have no margin: 0 when compliant, -|diff| otherwise.
func headroom(actual, threshold float64, op domain.Operator, compliant bool) float64 {
	switch {
	case op.IsMaxType():
		return threshold - actual
	case op.IsMinType():
		return actual - threshold
	case compliant:
		return 0
	}
	return -math.Abs(actual - threshold)
}
