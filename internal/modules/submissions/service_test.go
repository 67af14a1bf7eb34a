package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/covenantmonitor/internal/domain"
	"github.com/aristath/covenantmonitor/internal/events"
	testingpkg "github.com/aristath/covenantmonitor/internal/testing"
)

// leverageProvider evaluates Debt/EBITDA <= 4.5 for every deal
type leverageProvider struct {
	err   error
	calls int
}

func (p *leverageProvider) EvaluatorFor(_ context.Context, _ string) (domain.CovenantEvaluator, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return domain.EvaluatorFunc(func(f domain.Financials) ([]domain.CovenantResult, error) {
		actual := 0.0
		if f["EBITDA"] != 0 {
			actual = f["Debt"] / f["EBITDA"]
		}
		return []domain.CovenantResult{{
			Name:      "Leverage",
			Actual:    actual,
			Required:  4.5,
			Operator:  domain.OperatorLTE,
			Compliant: actual <= 4.5,
			Headroom:  4.5 - actual,
		}}, nil
	}), nil
}

func newTestService(t *testing.T) (*Service, *leverageProvider, *events.Manager) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "compliance")
	t.Cleanup(cleanup)

	provider := &leverageProvider{}
	manager := events.NewManager(zerolog.Nop())
	svc := NewService(NewRepository(db.Conn(), zerolog.Nop()), provider, manager, nil, zerolog.Nop())
	return svc, provider, manager
}

func q1Input() CreateFinancialSubmissionInput {
	return CreateFinancialSubmissionInput{
		DealID:        "deal-1",
		Period:        "Q1 2026",
		PeriodType:    PeriodQuarterly,
		PeriodEndDate: "2026-03-31",
		FinancialData: domain.Financials{"Debt": 100, "EBITDA": 25},
		SubmittedBy:   "borrower@example.com",
	}
}

func TestService_CreateEvaluatesCovenants(t *testing.T) {
	svc, provider, manager := newTestService(t)
	ctx := context.Background()

	var emitted []events.EventWithData
	manager.SubscribeAll(func(e events.EventWithData) { emitted = append(emitted, e) })

	sub, err := svc.Create(ctx, q1Input())
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, StatusPending, sub.VerificationStatus)
	require.Len(t, sub.CovenantResults, 1)
	assert.Equal(t, 4.0, sub.CovenantResults[0].Actual)
	assert.True(t, sub.OverallCompliant())
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), sub.PeriodEndDate)

	stored, err := svc.Get(ctx, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, sub.CovenantResults, stored.CovenantResults)
	assert.Equal(t, domain.Financials{"Debt": 100, "EBITDA": 25}, stored.FinancialData)
	assert.Nil(t, stored.VerifiedAt)

	require.Len(t, emitted, 1)
	assert.Equal(t, events.SubmissionCreated, emitted[0].Type)
}

func TestService_CreateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	in := q1Input()
	in.PeriodType = "weekly"
	_, err := svc.Create(ctx, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	in = q1Input()
	in.PeriodEndDate = "31/03/2026"
	_, err = svc.Create(ctx, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	in = q1Input()
	in.FinancialData = nil
	_, err = svc.Create(ctx, in)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_CreatePropagatesEvaluatorFailure(t *testing.T) {
	svc, provider, _ := newTestService(t)
	provider.err = errors.New("definitions unavailable")

	_, err := svc.Create(context.Background(), q1Input())
	assert.ErrorContains(t, err, "definitions unavailable")
}

func TestService_GetMissingReturnsNil(t *testing.T) {
	svc, _, _ := newTestService(t)

	sub, err := svc.Get(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, sub)

	sub, err = svc.Verify(context.Background(), "missing", "agent")
	assert.NoError(t, err)
	assert.Nil(t, sub)
}

func TestService_VerifyAndDisputeTransitions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, q1Input())
	require.NoError(t, err)

	verified, err := svc.Verify(ctx, sub.ID, "agent@bank.example")
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, verified.VerificationStatus)
	require.NotNil(t, verified.VerifiedBy)
	assert.Equal(t, "agent@bank.example", *verified.VerifiedBy)
	assert.NotNil(t, verified.VerifiedAt)

	_, err = svc.Verify(ctx, sub.ID, "agent@bank.example")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.Dispute(ctx, sub.ID, "agent", "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	disputed, err := svc.Dispute(ctx, sub.ID, "agent", "EBITDA add-backs not permitted")
	require.NoError(t, err)
	assert.Equal(t, StatusDisputed, disputed.VerificationStatus)
	require.NotNil(t, disputed.DisputeReason)
	assert.Nil(t, disputed.VerifiedAt)

	_, err = svc.Dispute(ctx, sub.ID, "agent", "again")
	var transitionErr *domain.InvalidTransitionError
	require.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, "disputed", transitionErr.From)

	reverified, err := svc.Verify(ctx, sub.ID, "agent")
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, reverified.VerificationStatus)
	assert.Nil(t, reverified.DisputeReason)
}

func TestService_UpdatePatchSemantics(t *testing.T) {
	svc, provider, _ := newTestService(t)
	ctx := context.Background()

	sub, err := svc.Create(ctx, q1Input())
	require.NoError(t, err)
	_, err = svc.Verify(ctx, sub.ID, "agent")
	require.NoError(t, err)

	var patch SubmissionPatch
	require.NoError(t, json.Unmarshal([]byte(`{"complianceCertificateId":"cert-7"}`), &patch))
	updated, err := svc.Update(ctx, sub.ID, patch)
	require.NoError(t, err)
	require.NotNil(t, updated.ComplianceCertificateID)
	assert.Equal(t, "cert-7", *updated.ComplianceCertificateID)
	assert.Equal(t, StatusVerified, updated.VerificationStatus, "metadata patch keeps verification")
	assert.Equal(t, 1, provider.calls, "no re-evaluation without financial data")

	patch = SubmissionPatch{}
	require.NoError(t, json.Unmarshal([]byte(`{"complianceCertificateId":null,"financialData":{"Debt":120,"EBITDA":25}}`), &patch))
	updated, err = svc.Update(ctx, sub.ID, patch)
	require.NoError(t, err)
	assert.Nil(t, updated.ComplianceCertificateID)
	assert.Equal(t, 2, provider.calls)
	assert.InDelta(t, 4.8, updated.CovenantResults[0].Actual, 1e-9)
	assert.False(t, updated.OverallCompliant())
	assert.Equal(t, StatusPending, updated.VerificationStatus)
	assert.Equal(t, "Q1 2026", updated.Period)

	_, err = svc.Update(ctx, sub.ID, SubmissionPatch{PeriodType: domain.Some(PeriodType("weekly"))})
	assert.ErrorIs(t, err, domain.ErrValidation)

	missing, err := svc.Update(ctx, "missing", SubmissionPatch{Period: domain.Some("Q2 2026")})
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestService_ListByDealNewestFirst(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, p := range []struct{ label, end string }{
		{"Q2 2026", "2026-06-30"},
		{"Q4 2025", "2025-12-31"},
		{"Q1 2026", "2026-03-31"},
	} {
		in := q1Input()
		in.Period, in.PeriodEndDate = p.label, p.end
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}
	other := q1Input()
	other.DealID = "deal-2"
	_, err := svc.Create(ctx, other)
	require.NoError(t, err)

	list, err := svc.ListByDeal(ctx, "deal-1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Q2 2026", "Q1 2026", "Q4 2025"}, []string{list[0].Period, list[1].Period, list[2].Period})

	ids, err := svc.ListDealIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"deal-1", "deal-2"}, ids)
}

func TestService_LatestFinancials(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	none, err := svc.LatestFinancials(ctx, "deal-1")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = svc.Create(ctx, q1Input())
	require.NoError(t, err)
	in := q1Input()
	in.Period, in.PeriodEndDate = "Q2 2026", "2026-06-30"
	in.FinancialData = domain.Financials{"Debt": 90, "EBITDA": 30}
	_, err = svc.Create(ctx, in)
	require.NoError(t, err)

	latest, err := svc.LatestFinancials(ctx, "deal-1")
	require.NoError(t, err)
	assert.Equal(t, domain.Financials{"Debt": 90, "EBITDA": 30}, latest)
}
