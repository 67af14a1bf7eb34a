package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/covenantmonitor/internal/modules/draws"
	testingpkg "github.com/aristath/covenantmonitor/internal/testing"
)

func newRouter(t *testing.T) chi.Router {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "compliance")
	t.Cleanup(cleanup)

	svc := draws.NewService(draws.NewRepository(db.Conn(), zerolog.Nop()), draws.DefaultTemplates(), nil, nil, zerolog.Nop())
	router := chi.NewRouter()
	NewHandler(svc, zerolog.Nop()).RegisterRoutes(router)
	return router
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func decodeDraw(t *testing.T, rec *httptest.ResponseRecorder) draws.DrawRequest {
	t.Helper()
	var body struct {
		Data draws.DrawRequest `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Data
}

func TestDrawEndpoints(t *testing.T) {
	router := newRouter(t)

	rec := do(router, "POST", "/draws/", `{
		"dealId": "deal-1",
		"requestedAmount": "750000.50",
		"conditions": [{"conditionId": "CP-1", "title": "Lien Waivers"}]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeDraw(t, rec)
	assert.Equal(t, 1, created.DrawNumber)
	assert.Equal(t, "750000.5", created.RequestedAmount.String())
	base := "/draws/" + created.ID

	rec = do(router, "POST", base+"/fund", `{"amount": 1}`)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	require.Equal(t, http.StatusOK, do(router, "POST", base+"/submit", "").Code)
	require.Equal(t, http.StatusOK, do(router, "POST", base+"/review", "").Code)

	rec = do(router, "POST", base+"/approve", `{"amount": 800000}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	rec = do(router, "POST", base+"/approve", `{"amount": "700000"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(router, "POST", base+"/fund", `{"amount": 700000}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "CP-1")

	rec = do(router, "POST", base+"/conditions/CP-9/satisfy", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(router, "POST", base+"/conditions/CP-1/waive", `{"note": "next draw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, draws.ConditionWaived, decodeDraw(t, rec).Conditions[0].Status)

	rec = do(router, "POST", base+"/fund", `{"amount": 700000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	funded := decodeDraw(t, rec)
	assert.Equal(t, draws.StatusFunded, funded.Status)
	assert.Equal(t, "700000", funded.FundedAmount.String())

	rec = do(router, "GET", base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, draws.StatusFunded, decodeDraw(t, rec).Status)

	rec = do(router, "GET", "/deals/deal-1/draws", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []draws.DrawRequest `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Len(t, list.Data[0].Conditions, 1)
}

func TestRejectWithoutBody(t *testing.T) {
	router := newRouter(t)

	rec := do(router, "POST", "/draws/", `{"dealId": "deal-1", "requestedAmount": 10}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	base := "/draws/" + decodeDraw(t, rec).ID

	do(router, "POST", base+"/submit", "")
	do(router, "POST", base+"/review", "")
	rec = do(router, "POST", base+"/reject", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rejected := decodeDraw(t, rec)
	assert.Equal(t, draws.StatusRejected, rejected.Status)
	assert.Nil(t, rejected.RejectionReason)
	assert.Len(t, rejected.Conditions, len(draws.DefaultTemplates()))
}

func TestDrawNotFoundAndBadInput(t *testing.T) {
	router := newRouter(t)

	assert.Equal(t, http.StatusNotFound, do(router, "GET", "/draws/missing", "").Code)
	assert.Equal(t, http.StatusNotFound, do(router, "POST", "/draws/missing/submit", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, "POST", "/draws/", `{"dealId": "deal-1"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, "POST", "/draws/", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, do(router, "POST", "/draws/missing/approve", `{"amount": "abc"}`).Code)

	rec := do(router, "GET", "/draws/condition-templates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Lien Waivers")
}
