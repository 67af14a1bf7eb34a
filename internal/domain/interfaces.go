package domain

import "context"

// CovenantEvaluator turns a full financial-field map into evaluated covenant results.
// Implementations must be pure: the same input always yields the same output.
type CovenantEvaluator interface {
	Evaluate(financials Financials) ([]CovenantResult, error)
}

// EvaluatorFunc adapts a plain function to CovenantEvaluator
type EvaluatorFunc func(financials Financials) ([]CovenantResult, error)

// Evaluate calls f(financials)
func (f EvaluatorFunc) Evaluate(financials Financials) ([]CovenantResult, error) {
	return f(financials)
}

// EvaluatorProvider resolves the evaluator configured for a deal
type EvaluatorProvider interface {
	EvaluatorFor(ctx context.Context, dealID string) (CovenantEvaluator, error)
}
