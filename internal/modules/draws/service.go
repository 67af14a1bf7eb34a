package draws

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/covenantmonitor/internal/events"
	"github.com/aristath/covenantmonitor/internal/metrics"
)

// Service runs the draw workflow. Every state change is a single
// read-modify-write transaction on the repository.
type Service struct {
	repo         *Repository
	templates    []ConditionTemplate
	eventManager *events.Manager
	metrics      *metrics.Metrics
	now          func() time.Time
	log          zerolog.Logger
}

// NewService creates a new draw service.
// templates seed draws created without conditions; eventManager and m may be nil.
func NewService(
	repo *Repository,
	templates []ConditionTemplate,
	eventManager *events.Manager,
	m *metrics.Metrics,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:         repo,
		templates:    templates,
		eventManager: eventManager,
		metrics:      m,
		now:          func() time.Time { return time.Now().UTC().Truncate(time.Second) },
		log:          log.With().Str("service", "draws").Logger(),
	}
}

// Templates returns the condition templates new draws are seeded from
func (s *Service) Templates() []ConditionTemplate {
	return append([]ConditionTemplate(nil), s.templates...)
}

// Create stores a new draft draw with the next draw number for its deal
func (s *Service) Create(ctx context.Context, input CreateDrawRequestInput) (*DrawRequest, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	conditions := conditionsFromTemplates(s.templates)
	if len(input.Conditions) > 0 {
		conditions = make([]DrawCondition, 0, len(input.Conditions))
		for _, c := range input.Conditions {
			conditions = append(conditions, DrawCondition{
				ConditionID: c.ConditionID,
				Title:       c.Title,
				Description: c.Description,
				Category:    c.Category,
				Status:      ConditionPending,
			})
		}
	}
	docs := append([]string{}, input.SupportingDocumentIDs...)

	now := s.now()
	d := &DrawRequest{
		ID:                    uuid.NewString(),
		DealID:                input.DealID,
		RequestedAmount:       input.RequestedAmount,
		Status:                StatusDraft,
		RequestedAt:           now,
		Conditions:            conditions,
		SupportingDocumentIDs: docs,
		UpdatedAt:             now,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("deal_id", d.DealID).
		Str("draw_id", d.ID).
		Int("draw_number", d.DrawNumber).
		Str("requested_amount", d.RequestedAmount.String()).
		Int("conditions", len(d.Conditions)).
		Msg("Draw request created")
	s.publishStatus(d, "", d.RequestedAmount)
	return d, nil
}

// Get returns nil, nil when absent
func (s *Service) Get(ctx context.Context, id string) (*DrawRequest, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByDeal returns a deal's draws in draw number order
func (s *Service) ListByDeal(ctx context.Context, dealID string) ([]DrawRequest, error) {
	return s.repo.ListByDeal(ctx, dealID)
}

// Submit moves a draft to submitted
func (s *Service) Submit(ctx context.Context, id string) (*DrawRequest, error) {
	return s.transition(ctx, id, func(d *DrawRequest, now time.Time) (decimal.Decimal, error) {
		return decimal.Zero, d.Submit(now)
	})
}

// StartReview moves a submitted draw under review
func (s *Service) StartReview(ctx context.Context, id string) (*DrawRequest, error) {
	return s.transition(ctx, id, func(d *DrawRequest, now time.Time) (decimal.Decimal, error) {
		return decimal.Zero, d.StartReview(now)
	})
}

// Approve approves a draw under review for amount
func (s *Service) Approve(ctx context.Context, id string, amount decimal.Decimal) (*DrawRequest, error) {
	return s.transition(ctx, id, func(d *DrawRequest, now time.Time) (decimal.Decimal, error) {
		return amount, d.Approve(amount, now)
	})
}

// Reject rejects a draw under review
func (s *Service) Reject(ctx context.Context, id, reason string) (*DrawRequest, error) {
	return s.transition(ctx, id, func(d *DrawRequest, now time.Time) (decimal.Decimal, error) {
		return decimal.Zero, d.Reject(reason, now)
	})
}

// Fund releases an approved draw once every condition is resolved
func (s *Service) Fund(ctx context.Context, id string, amount decimal.Decimal) (*DrawRequest, error) {
	return s.transition(ctx, id, func(d *DrawRequest, now time.Time) (decimal.Decimal, error) {
		return amount, d.Fund(amount, now)
	})
}

// SatisfyCondition marks a condition satisfied
func (s *Service) SatisfyCondition(ctx context.Context, id, conditionID string) (*DrawRequest, error) {
	return s.resolveCondition(ctx, id, conditionID, func(d *DrawRequest, now time.Time) error {
		return d.SatisfyCondition(conditionID, now)
	})
}

// WaiveCondition marks a condition waived
func (s *Service) WaiveCondition(ctx context.Context, id, conditionID, note string) (*DrawRequest, error) {
	return s.resolveCondition(ctx, id, conditionID, func(d *DrawRequest, now time.Time) error {
		return d.WaiveCondition(conditionID, note, now)
	})
}

func (s *Service) transition(
	ctx context.Context,
	id string,
	apply func(*DrawRequest, time.Time) (decimal.Decimal, error),
) (*DrawRequest, error) {
	var (
		from   Status
		amount decimal.Decimal
	)
	updated, err := s.repo.Mutate(ctx, id, func(d *DrawRequest) error {
		from = d.Status
		var err error
		amount, err = apply(d, s.now())
		return err
	})
	if err != nil {
		s.log.Warn().Err(err).Str("draw_id", id).Str("status", string(from)).Msg("Draw transition refused")
		return nil, err
	}
	if updated == nil {
		return nil, nil
	}

	s.log.Info().
		Str("deal_id", updated.DealID).
		Str("draw_id", id).
		Str("from", string(from)).
		Str("status", string(updated.Status)).
		Msg("Draw status changed")
	s.publishStatus(updated, from, amount)
	return updated, nil
}

func (s *Service) resolveCondition(
	ctx context.Context,
	id, conditionID string,
	apply func(*DrawRequest, time.Time) error,
) (*DrawRequest, error) {
	updated, err := s.repo.Mutate(ctx, id, func(d *DrawRequest) error {
		return apply(d, s.now())
	})
	if err != nil || updated == nil {
		return nil, err
	}

	status := ""
	for _, c := range updated.Conditions {
		if c.ConditionID == conditionID {
			status = string(c.Status)
		}
	}
	outstanding := len(updated.OutstandingConditions())

	s.log.Info().
		Str("deal_id", updated.DealID).
		Str("draw_id", id).
		Str("condition_id", conditionID).
		Str("status", status).
		Int("outstanding", outstanding).
		Msg("Draw condition resolved")
	s.eventManager.EmitTyped("draws", &events.DrawConditionResolvedData{
		DrawID:      id,
		DealID:      updated.DealID,
		ConditionID: conditionID,
		Status:      status,
		Outstanding: outstanding,
	})
	return updated, nil
}

func (s *Service) publishStatus(d *DrawRequest, from Status, amount decimal.Decimal) {
	s.metrics.RecordDrawTransition(string(d.Status))
	data := &events.DrawStatusChangedData{
		DrawID:     d.ID,
		DealID:     d.DealID,
		DrawNumber: d.DrawNumber,
		From:       string(from),
		To:         string(d.Status),
	}
	if !amount.IsZero() {
		data.Amount = amount.String()
	}
	s.eventManager.EmitTyped("draws", data)
}
