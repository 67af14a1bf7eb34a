package covenants

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/covenantmonitor/internal/domain"
)

func TestService_UpdateAppliesOnlyPresentFields(t *testing.T) {
	svc := NewService(newTestRepository(t), zerolog.Nop())
	ctx := context.Background()

	created, err := svc.Create(ctx, leverageInput("deal-1"))
	require.NoError(t, err)

	var patch DefinitionPatch
	require.NoError(t, json.Unmarshal([]byte(`{"threshold": 5.25, "suspended": true}`), &patch))

	updated, err := svc.Update(ctx, created.ID, patch)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 5.25, updated.Threshold)
	assert.True(t, updated.Suspended)
	assert.Equal(t, "Leverage", updated.Name)
	assert.Equal(t, domain.OperatorLTE, updated.Operator)
}

func TestService_EvaluatorFor(t *testing.T) {
	svc := NewService(newTestRepository(t), zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, leverageInput("deal-1"))
	require.NoError(t, err)

	evaluator, err := svc.EvaluatorFor(ctx, "deal-1")
	require.NoError(t, err)

	results, err := evaluator.Evaluate(domain.Financials{"SeniorDebt": 100, "EBITDA": 25})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 4.0, results[0].Actual)
	assert.True(t, results[0].Compliant)

	empty, err := svc.EvaluatorFor(ctx, "deal-without-covenants")
	require.NoError(t, err)
	results, err = empty.Evaluate(domain.Financials{"SeniorDebt": 1})
	require.NoError(t, err)
	assert.Empty(t, results)
}
