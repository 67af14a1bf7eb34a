package submissions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/covenantmonitor/internal/domain"
	"github.com/aristath/covenantmonitor/internal/events"
	"github.com/aristath/covenantmonitor/internal/metrics"
	"github.com/aristath/covenantmonitor/internal/utils"
)

// Service handles the submission lifecycle: create with evaluation, patch,
// verify and dispute.
type Service struct {
	repo         *Repository
	evaluators   domain.EvaluatorProvider
	eventManager *events.Manager
	metrics      *metrics.Metrics
	now          func() time.Time
	log          zerolog.Logger
}

// NewService creates a new submission service.
// eventManager and m may be nil.
func NewService(
	repo *Repository,
	evaluators domain.EvaluatorProvider,
	eventManager *events.Manager,
	m *metrics.Metrics,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:         repo,
		evaluators:   evaluators,
		eventManager: eventManager,
		metrics:      m,
		now:          func() time.Time { return time.Now().UTC().Truncate(time.Second) },
		log:          log.With().Str("service", "submissions").Logger(),
	}
}

// Create validates the input, evaluates the deal's covenants against the
// submitted financials and stores the pending submission.
func (s *Service) Create(ctx context.Context, input CreateFinancialSubmissionInput) (*FinancialSubmission, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	periodEnd, err := utils.ParseDate(input.PeriodEndDate)
	if err != nil {
		return nil, domain.ValidationError("periodEndDate: %v", err)
	}

	results, err := s.evaluate(ctx, input.DealID, input.FinancialData)
	if err != nil {
		return nil, err
	}

	now := s.now()
	baskets := input.BasketCapacities
	if baskets == nil {
		baskets = []domain.BasketCapacity{}
	}
	sub := &FinancialSubmission{
		ID:                 uuid.NewString(),
		DealID:             input.DealID,
		Period:             strings.TrimSpace(input.Period),
		PeriodType:         input.PeriodType,
		PeriodEndDate:      periodEnd,
		FinancialData:      input.FinancialData.Clone(),
		SubmittedBy:        input.SubmittedBy,
		SubmittedAt:        now,
		VerificationStatus: StatusPending,
		CovenantResults:    results,
		BasketCapacities:   baskets,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("deal_id", sub.DealID).
		Str("submission_id", sub.ID).
		Str("period", sub.Period).
		Int("covenants", len(results)).
		Bool("overall_compliant", sub.OverallCompliant()).
		Msg("Financial submission created")
	s.publish(sub, "created", sub.SubmittedBy, "")
	return sub, nil
}

// Get returns nil, nil when absent
func (s *Service) Get(ctx context.Context, id string) (*FinancialSubmission, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByDeal returns a deal's submissions, newest period first
func (s *Service) ListByDeal(ctx context.Context, dealID string) ([]FinancialSubmission, error) {
	return s.repo.ListByDeal(ctx, dealID)
}

// ListDealIDs returns every deal with submissions
func (s *Service) ListDealIDs(ctx context.Context) ([]string, error) {
	return s.repo.ListDealIDs(ctx)
}

// LatestFinancials returns the financial data of the deal's most recent
// period, or nil when the deal has no submissions
func (s *Service) LatestFinancials(ctx context.Context, dealID string) (domain.Financials, error) {
	list, err := s.repo.ListByDeal(ctx, dealID)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0].FinancialData.Clone(), nil
}

// Update applies a patch. Changing financialData re-evaluates the covenants
// and returns a verified or disputed submission to pending.
// Returns nil, nil when absent.
func (s *Service) Update(ctx context.Context, id string, patch SubmissionPatch) (*FinancialSubmission, error) {
	var (
		periodEnd time.Time
		results   []domain.CovenantResult
	)
	if patch.PeriodType.Set && !patch.PeriodType.Value.IsValid() {
		return nil, domain.ValidationError("periodType %q must be monthly, quarterly or annual", patch.PeriodType.Value)
	}
	if patch.Period.Set && strings.TrimSpace(patch.Period.Value) == "" {
		return nil, domain.ValidationError("period may not be empty")
	}
	if patch.PeriodEndDate.Set {
		parsed, err := utils.ParseDate(patch.PeriodEndDate.Value)
		if err != nil {
			return nil, domain.ValidationError("periodEndDate: %v", err)
		}
		periodEnd = parsed
	}
	if patch.ChangesFinancials() {
		if len(patch.FinancialData.Value) == 0 {
			return nil, domain.ValidationError("financialData must contain at least one field")
		}
		existing, err := s.repo.GetByID(ctx, id)
		if err != nil || existing == nil {
			return nil, err
		}
		results, err = s.evaluate(ctx, existing.DealID, patch.FinancialData.Value)
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Mutate(ctx, id, func(sub *FinancialSubmission) error {
		patch.Period.Apply(&sub.Period)
		patch.PeriodType.Apply(&sub.PeriodType)
		patch.BasketCapacities.Apply(&sub.BasketCapacities)
		patch.ComplianceCertificateID.Apply(&sub.ComplianceCertificateID)
		if patch.PeriodEndDate.Set {
			sub.PeriodEndDate = periodEnd
		}
		if patch.ChangesFinancials() {
			sub.FinancialData = patch.FinancialData.Value.Clone()
			sub.CovenantResults = results
			sub.VerificationStatus = StatusPending
			sub.VerifiedBy, sub.VerifiedAt, sub.DisputeReason = nil, nil, nil
		}
		if sub.BasketCapacities == nil {
			sub.BasketCapacities = []domain.BasketCapacity{}
		}
		return nil
	})
	if err != nil || updated == nil {
		return nil, err
	}

	s.publish(updated, "updated", "", "")
	return updated, nil
}

// Verify marks a pending or disputed submission as verified.
// Returns nil, nil when absent.
func (s *Service) Verify(ctx context.Context, id, verifiedBy string) (*FinancialSubmission, error) {
	if strings.TrimSpace(verifiedBy) == "" {
		return nil, domain.ValidationError("verifiedBy is required")
	}

	updated, err := s.repo.Mutate(ctx, id, func(sub *FinancialSubmission) error {
		if !sub.VerificationStatus.CanVerify() {
			return domain.NewInvalidTransition("submission", string(sub.VerificationStatus), string(StatusVerified))
		}
		now := s.now()
		sub.VerificationStatus = StatusVerified
		sub.VerifiedBy = &verifiedBy
		sub.VerifiedAt = &now
		sub.DisputeReason = nil
		return nil
	})
	if err != nil || updated == nil {
		return nil, err
	}

	s.log.Info().Str("submission_id", id).Str("deal_id", updated.DealID).Str("verified_by", verifiedBy).Msg("Submission verified")
	s.publish(updated, "verified", verifiedBy, "")
	return updated, nil
}

// Dispute marks a pending or verified submission as disputed with a reason.
// Returns nil, nil when absent.
func (s *Service) Dispute(ctx context.Context, id, disputedBy, reason string) (*FinancialSubmission, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ValidationError("a dispute reason is required")
	}

	updated, err := s.repo.Mutate(ctx, id, func(sub *FinancialSubmission) error {
		if !sub.VerificationStatus.CanDispute() {
			return domain.NewInvalidTransition("submission", string(sub.VerificationStatus), string(StatusDisputed))
		}
		sub.VerificationStatus = StatusDisputed
		sub.DisputeReason = &reason
		sub.VerifiedBy, sub.VerifiedAt = nil, nil
		return nil
	})
	if err != nil || updated == nil {
		return nil, err
	}

	s.log.Info().Str("submission_id", id).Str("deal_id", updated.DealID).Str("reason", reason).Msg("Submission disputed")
	s.publish(updated, "disputed", disputedBy, reason)
	return updated, nil
}

func (s *Service) evaluate(ctx context.Context, dealID string, financials domain.Financials) ([]domain.CovenantResult, error) {
	if s.evaluators == nil {
		return []domain.CovenantResult{}, nil
	}
	evaluator, err := s.evaluators.EvaluatorFor(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve evaluator for deal %s: %w", dealID, err)
	}
	results, err := evaluator.Evaluate(financials.Clone())
	if err != nil {
		s.log.Error().Err(err).Str("deal_id", dealID).Msg("Covenant evaluation failed")
		return nil, fmt.Errorf("failed to evaluate covenants for deal %s: %w", dealID, err)
	}
	if results == nil {
		results = []domain.CovenantResult{}
	}
	return results, nil
}

func (s *Service) publish(sub *FinancialSubmission, action, actor, reason string) {
	s.metrics.RecordSubmission(string(sub.VerificationStatus))
	s.eventManager.EmitTyped("submissions", &events.SubmissionData{
		SubmissionID:       sub.ID,
		DealID:             sub.DealID,
		Period:             sub.Period,
		VerificationStatus: string(sub.VerificationStatus),
		OverallCompliant:   sub.OverallCompliant(),
		Action:             action,
		Actor:              actor,
		Reason:             reason,
	})
}
