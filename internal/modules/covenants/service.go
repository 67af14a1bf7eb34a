package covenants

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/covenantmonitor/internal/domain"
)

// Service manages covenant definitions and resolves per-deal evaluators
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

var _ domain.EvaluatorProvider = (*Service)(nil)

// NewService creates a new covenant service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "covenants").Logger(),
	}
}

// Create stores a new definition
func (s *Service) Create(ctx context.Context, input CreateDefinitionInput) (*Definition, error) {
	return s.repo.Create(ctx, input)
}

// Get returns nil, nil when absent
func (s *Service) Get(ctx context.Context, id string) (*Definition, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByDeal returns all definitions of a deal
func (s *Service) ListByDeal(ctx context.Context, dealID string) ([]Definition, error) {
	return s.repo.ListByDeal(ctx, dealID)
}

// Update applies a patch. Returns nil, nil when absent.
func (s *Service) Update(ctx context.Context, id string, patch DefinitionPatch) (*Definition, error) {
	def, err := s.repo.Update(ctx, id, func(d *Definition) error {
		patch.Apply(d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if def != nil {
		s.log.Info().Str("deal_id", def.DealID).Str("covenant", def.Name).Msg("Covenant definition updated")
	}
	return def, nil
}

// Delete removes a definition
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// EvaluatorFor builds a RatioEvaluator over the deal's current definitions.
// A deal with no definitions gets an evaluator that yields no results.
func (s *Service) EvaluatorFor(ctx context.Context, dealID string) (domain.CovenantEvaluator, error) {
	defs, err := s.repo.ListByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to load covenants for deal %s: %w", dealID, err)
	}
	return NewRatioEvaluator(defs), nil
}
