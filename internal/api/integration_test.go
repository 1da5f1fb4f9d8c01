package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ren-perez/saldo-backend/internal/api"
	"github.com/ren-perez/saldo-backend/internal/api/dto"
	"github.com/ren-perez/saldo-backend/internal/infrastructure/config"
	"github.com/ren-perez/saldo-backend/internal/infrastructure/storage"
)

// These tests use a real SQLite database to exercise the full stack:
// HTTP request → Router → Handlers → Services → Storage → SQLite.

const testUser = "user-1"

func createTestServer(t *testing.T) (*httptest.Server, *storage.Storage) {
	t.Helper()

	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "api_integration.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	services := api.NewServices(store, config.MatchingConfig{
		IncomeWindowDays:     7,
		IncomeMaxRatio:       0.20,
		AllocationWindowDays: 30,
		AllocationMaxRatio:   0.20,
		TransferMaxDays:      2,
		TransferMaxRatio:     0.05,
	}, logger)

	server := api.NewServer(api.DefaultConfig(), store, services, logger)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	return ts, store
}

// do sends a request as testUser and decodes the JSON response into out
// when out is non-nil.
func do(t *testing.T, ts *httptest.Server, method, path string, body any, out any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", testUser)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func seedDeposit(t *testing.T, store *storage.Storage, id, accountID string, amount float64, date time.Time) {
	t.Helper()
	require.NoError(t, store.SaveTransaction(&storage.Transaction{
		ID:        id,
		UserID:    testUser,
		AccountID: accountID,
		Amount:    amount,
		Date:      date,
	}))
}

func TestAPI_Integration_HealthCheck(t *testing.T) {
	ts, _ := createTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health dto.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
}

func TestAPI_Integration_RequiresUserHeader(t *testing.T) {
	ts, _ := createTestServer(t)

	resp, err := http.Get(ts.URL + "/api/rules")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Integration_WaterfallLifecycle(t *testing.T) {
	ts, store := createTestServer(t)

	// Two rules: 50% to savings, then $400 fixed to investing.
	var savingsRule storage.AllocationRule
	resp := do(t, ts, http.MethodPost, "/api/rules", dto.CreateRuleRequest{
		AccountID: "acct-savings", Category: "savings", RuleType: "percent", Value: 50,
	}, &savingsRule)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/api/rules", dto.CreateRuleRequest{
		AccountID: "acct-invest", Category: "investing", RuleType: "fixed", Value: 400,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Preview against a hypothetical paycheck.
	var preview dto.PreviewResponse
	resp = do(t, ts, http.MethodPost, "/api/allocations/preview", dto.PreviewAllocationRequest{IncomeAmount: 1000}, &preview)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, preview.Items, 2)
	assert.Equal(t, 500.0, preview.Items[0].Amount)
	assert.Equal(t, 400.0, preview.Items[1].Amount)
	assert.Equal(t, 100.0, preview.Unallocated)

	// Plan the paycheck and generate forecast records.
	var plan storage.IncomePlan
	resp = do(t, ts, http.MethodPost, "/api/plans", dto.CreatePlanRequest{
		Label: "march paycheck", ExpectedDate: "2024-03-01", ExpectedAmount: 1000,
	}, &plan)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var run dto.RunAllocationsResponse
	resp = do(t, ts, http.MethodPost, "/api/plans/"+plan.ID+"/allocations/run", nil, &run)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, run.Records, 2)
	assert.True(t, run.Records[0].IsForecast)

	// The paycheck lands slightly short; match with reallocation.
	seedDeposit(t, store, "tx-paycheck", "acct-checking", 980, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))

	var suggestions dto.SuggestionListResponse
	resp = do(t, ts, http.MethodGet, "/api/plans/"+plan.ID+"/suggestions", nil, &suggestions)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, suggestions.Count)
	assert.Equal(t, "tx-paycheck", suggestions.Suggestions[0].Match.TransactionID)

	var matched storage.IncomePlan
	resp = do(t, ts, http.MethodPost, "/api/plans/"+plan.ID+"/match", dto.MatchPlanRequest{
		TransactionID: "tx-paycheck", Reallocate: true,
	}, &matched)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, storage.PlanStatusMatched, matched.Status)
	require.NotNil(t, matched.ActualAmount)
	assert.Equal(t, 980.0, *matched.ActualAmount)

	// Records regenerated from the actual amount: 50% of 980, then 400.
	var records dto.RecordListResponse
	resp = do(t, ts, http.MethodGet, "/api/plans/"+plan.ID+"/allocations", nil, &records)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, records.Count)

	var savingsRecord *storage.AllocationRecord
	for _, rec := range records.Records {
		assert.False(t, rec.IsForecast)
		if rec.AccountID == "acct-savings" {
			savingsRecord = rec
		}
	}
	require.NotNil(t, savingsRecord)
	assert.Equal(t, 490.0, savingsRecord.Amount)

	// Matching the plan again conflicts.
	resp = do(t, ts, http.MethodPost, "/api/plans/"+plan.ID+"/match", dto.MatchPlanRequest{TransactionID: "tx-paycheck"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Fund the savings record in two transfers and watch the checklist.
	seedDeposit(t, store, "tx-fund-1", "acct-savings", 300, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC))
	seedDeposit(t, store, "tx-fund-2", "acct-savings", 190, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))

	resp = do(t, ts, http.MethodPost, "/api/allocations/"+savingsRecord.ID+"/matches", dto.MatchAllocationRequest{
		TransactionID: "tx-fund-1", Amount: 300,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var checklist map[string]any
	resp = do(t, ts, http.MethodGet, "/api/plans/"+plan.ID+"/checklist", nil, &checklist)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), checklist["completed_count"])
	assert.Equal(t, false, checklist["is_complete"])

	resp = do(t, ts, http.MethodPost, "/api/allocations/"+savingsRecord.ID+"/matches", dto.MatchAllocationRequest{
		TransactionID: "tx-fund-2", Amount: 190,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/plans/"+plan.ID+"/checklist", nil, &checklist)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), checklist["completed_count"])

	// Over-consuming a transaction across records is rejected.
	var investRecord *storage.AllocationRecord
	for _, rec := range records.Records {
		if rec.AccountID == "acct-invest" {
			investRecord = rec
		}
	}
	require.NotNil(t, investRecord)
	resp = do(t, ts, http.MethodPost, "/api/allocations/"+investRecord.ID+"/matches", dto.MatchAllocationRequest{
		TransactionID: "tx-fund-2", Amount: 50,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Integration_OwnershipReturns403(t *testing.T) {
	ts, store := createTestServer(t)

	require.NoError(t, store.CreatePlan(&storage.IncomePlan{
		ID:             "plan-other",
		UserID:         "someone-else",
		Label:          "their paycheck",
		ExpectedDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ExpectedAmount: 1000,
		Status:         storage.PlanStatusPlanned,
	}))

	resp := do(t, ts, http.MethodGet, "/api/plans/plan-other", nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_Integration_NotFoundReturns404(t *testing.T) {
	ts, _ := createTestServer(t)

	var apiErr dto.APIError
	resp := do(t, ts, http.MethodGet, "/api/plans/missing-plan", nil, &apiErr)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, dto.ErrCodeNotFound, apiErr.Code)
}

func TestAPI_Integration_DuplicateActiveRuleReturns400(t *testing.T) {
	ts, _ := createTestServer(t)

	resp := do(t, ts, http.MethodPost, "/api/rules", dto.CreateRuleRequest{
		AccountID: "acct-savings", Category: "savings", RuleType: "percent", Value: 20,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var apiErr dto.APIError
	resp = do(t, ts, http.MethodPost, "/api/rules", dto.CreateRuleRequest{
		AccountID: "acct-savings", Category: "savings", RuleType: "fixed", Value: 100,
	}, &apiErr)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, dto.ErrCodeValidation, apiErr.Code)
}

func TestAPI_Integration_TransferWorkflow(t *testing.T) {
	ts, store := createTestServer(t)

	seedDeposit(t, store, "tx-out", "acct-checking", -250, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	seedDeposit(t, store, "tx-in", "acct-savings", 250, time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC))

	var potential dto.PotentialTransferListResponse
	resp := do(t, ts, http.MethodGet, "/api/transfers/potential", nil, &potential)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, potential.Count)
	assert.Equal(t, "tx-out", potential.Transfers[0].Outgoing.ID)

	var paired dto.PairTransferResponse
	resp = do(t, ts, http.MethodPost, "/api/transfers/pair", dto.PairTransferRequest{
		OutgoingID: "tx-out", IncomingID: "tx-in",
	}, &paired)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, paired.PairID)

	// Paired legs disappear from the potential list.
	resp = do(t, ts, http.MethodGet, "/api/transfers/potential", nil, &potential)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, potential.Count)

	// Unpaired transactions filter on the read endpoint.
	var txs dto.TransactionListResponse
	resp = do(t, ts, http.MethodGet, "/api/transactions?unpaired=true", nil, &txs)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, txs.Count)

	resp = do(t, ts, http.MethodPost, "/api/transfers/unpair", dto.UnpairTransferRequest{TransactionID: "tx-out"}, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Dismiss the suggestion instead.
	resp = do(t, ts, http.MethodPost, "/api/transfers/ignore", dto.IgnorePairRequest{
		OutgoingID: "tx-out", IncomingID: "tx-in",
	}, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/transfers/potential", nil, &potential)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, potential.Count)

	var ignored dto.IgnoredPairListResponse
	resp = do(t, ts, http.MethodGet, "/api/transfers/ignored", nil, &ignored)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, ignored.Count)
}

func TestAPI_Integration_CORS(t *testing.T) {
	ts, _ := createTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/plans", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
