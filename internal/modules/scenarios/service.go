package scenarios

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/covenantmonitor/internal/domain"
	"github.com/aristath/covenantmonitor/internal/metrics"
)

// BaselineSource supplies a deal's most recently submitted financials
type BaselineSource interface {
	LatestFinancials(ctx context.Context, dealID string) (domain.Financials, error)
}

// Service runs scenarios against a deal's configured covenants
type Service struct {
	evaluators domain.EvaluatorProvider
	baselines  BaselineSource
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// NewService creates a new scenario service. baselines and m may be nil.
func NewService(evaluators domain.EvaluatorProvider, baselines BaselineSource, m *metrics.Metrics, log zerolog.Logger) *Service {
	return &Service{
		evaluators: evaluators,
		baselines:  baselines,
		metrics:    m,
		log:        log.With().Str("service", "scenarios").Logger(),
	}
}

// Run simulates input for a deal. An empty BaseFinancials is filled from the
// deal's latest submission.
func (s *Service) Run(ctx context.Context, dealID string, input ScenarioInput, strict bool) (*ScenarioResult, error) {
	if len(input.BaseFinancials) == 0 && s.baselines != nil {
		latest, err := s.baselines.LatestFinancials(ctx, dealID)
		if err != nil {
			return nil, fmt.Errorf("failed to load baseline for deal %s: %w", dealID, err)
		}
		input.BaseFinancials = latest
	}
	if len(input.BaseFinancials) == 0 {
		return nil, domain.ValidationError("baseFinancials is empty and deal %s has no submissions", dealID)
	}

	evaluator, err := s.evaluators.EvaluatorFor(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve evaluator for deal %s: %w", dealID, err)
	}

	result, err := Simulator{Strict: strict}.Run(input, evaluator)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordScenario(result.AllCompliant)
	s.log.Info().
		Str("deal_id", dealID).
		Str("label", input.Label).
		Int("adjustments", len(input.Adjustments)).
		Bool("all_compliant", result.AllCompliant).
		Msg("Scenario simulated")
	return result, nil
}
