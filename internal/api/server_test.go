package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/vantage-network/vantage/internal/app/settlement"
	"github.com/vantage-network/vantage/internal/infra/sqlite"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewServer(settlement.New(db, zap.NewNop())).Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func registerMember(t *testing.T, h http.Handler, id string) {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/members", map[string]string{"id": id, "name": "Member " + id})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register member: status %d body %s", rec.Code, rec.Body.String())
	}
}

func postEntry(t *testing.T, h http.Handler, userID, amount string) entryJSON {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/transactions", map[string]interface{}{
		"userId":      userID,
		"amount":      amount,
		"type":        "retail_profit",
		"description": "retail profit payout",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("post entry: status %d body %s", rec.Code, rec.Body.String())
	}
	var e entryJSON
	decode(t, rec, &e)
	return e
}

var testAccountJSON = accountJSON{
	AccountName:   "Asha Rao",
	AccountNumber: "001122334455",
	BankName:      "State Bank",
	IFSCCode:      "SBIN0000123",
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestTransactions_CreateAndGet(t *testing.T) {
	h := newTestServer(t)
	registerMember(t, h, "m1")

	e := postEntry(t, h, "m1", "500")
	if e.Amount != "500.00" {
		t.Fatalf("amount = %q, want 500.00", e.Amount)
	}
	if e.Status != "completed" { // default when the body omits status
		t.Fatalf("status = %q, want completed", e.Status)
	}

	rec := doJSON(t, h, http.MethodGet, "/api/transactions/"+e.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get entry: status %d", rec.Code)
	}
	var got entryJSON
	decode(t, rec, &got)
	if got.ID != e.ID || got.Amount != "500.00" || got.Type != "retail_profit" {
		t.Fatalf("got %+v", got)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/transactions?userId=m1&type=retail_profit", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list entries: status %d", rec.Code)
	}
	var list []entryJSON
	decode(t, rec, &list)
	if len(list) != 1 {
		t.Fatalf("got %d entries, want 1", len(list))
	}
}

func TestTransactions_Errors(t *testing.T) {
	h := newTestServer(t)
	registerMember(t, h, "m1")

	tests := []struct {
		name string
		body map[string]interface{}
		want int
	}{
		{"malformed amount", map[string]interface{}{"userId": "m1", "amount": "12.345", "type": "retail_profit", "description": "x"}, http.StatusBadRequest},
		{"unknown category", map[string]interface{}{"userId": "m1", "amount": "10", "type": "lottery", "description": "x"}, http.StatusBadRequest},
		{"unknown member", map[string]interface{}{"userId": "ghost", "amount": "10", "type": "retail_profit", "description": "x"}, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/transactions", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}

	rec := doJSON(t, h, http.MethodGet, "/api/transactions/txn-missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing entry: status %d", rec.Code)
	}
}

func TestWithdrawals_FullLifecycle(t *testing.T) {
	h := newTestServer(t)
	registerMember(t, h, "m1")
	postEntry(t, h, "m1", "500")

	rec := doJSON(t, h, http.MethodPost, "/api/withdrawals", map[string]interface{}{
		"userId":         "m1",
		"userName":       "Member m1",
		"amount":         "200",
		"accountDetails": testAccountJSON,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create withdrawal: status %d body %s", rec.Code, rec.Body.String())
	}
	var req withdrawalJSON
	decode(t, rec, &req)
	if req.Status != "pending" || req.Amount != "200.00" {
		t.Fatalf("request = %+v", req)
	}

	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/withdrawals/%s/resolve", req.ID), resolveRequest{Decision: "approve", Remarks: "ref PAY-7"})
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve: status %d body %s", rec.Code, rec.Body.String())
	}
	var resolved withdrawalJSON
	decode(t, rec, &resolved)
	if resolved.Status != "paid" || resolved.TransactionID == "" || resolved.ProcessedDate == "" {
		t.Fatalf("resolved = %+v", resolved)
	}
	if resolved.Remarks != "ref PAY-7" {
		t.Fatalf("remarks = %q", resolved.Remarks)
	}

	// Resolving again reports the same terminal state.
	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/withdrawals/%s/resolve", req.ID), resolveRequest{Decision: "reject"})
	if rec.Code != http.StatusOK {
		t.Fatalf("re-resolve: status %d", rec.Code)
	}
	var again withdrawalJSON
	decode(t, rec, &again)
	if again.Status != "paid" || again.TransactionID != resolved.TransactionID {
		t.Fatalf("re-resolve changed request: %+v", again)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/wallets/m1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("wallet: status %d", rec.Code)
	}
	var wallet map[string]string
	decode(t, rec, &wallet)
	if wallet["balance"] != "300.00" {
		t.Fatalf("balance = %q, want 300.00", wallet["balance"])
	}
}

func TestWithdrawals_Errors(t *testing.T) {
	h := newTestServer(t)
	registerMember(t, h, "m1")

	rec := doJSON(t, h, http.MethodPost, "/api/withdrawals", map[string]interface{}{
		"userId": "m1", "amount": "50",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty account: status %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/withdrawals/wdr-missing/resolve", resolveRequest{Decision: "approve"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing request: status %d", rec.Code)
	}
}

func TestStats_Endpoint(t *testing.T) {
	h := newTestServer(t)
	registerMember(t, h, "m1")
	postEntry(t, h, "m1", "500")

	rec := doJSON(t, h, http.MethodGet, "/api/stats/m1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: status %d body %s", rec.Code, rec.Body.String())
	}
	var st statsJSON
	decode(t, rec, &st)
	if st.TotalEarnings != "500.00" {
		t.Fatalf("total earnings = %q", st.TotalEarnings)
	}
	if st.EarningsByType["retail_profit"] != "500.00" {
		t.Fatalf("earnings by type = %v", st.EarningsByType)
	}
	if len(st.RecentTransactions) != 1 || len(st.EarningsTimeline) != 1 {
		t.Fatalf("stats = %+v", st)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/stats/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing stats: status %d", rec.Code)
	}
}

func TestMembers_DuplicateConflict(t *testing.T) {
	h := newTestServer(t)
	registerMember(t, h, "m1")

	rec := doJSON(t, h, http.MethodPost, "/api/members", map[string]string{"id": "m1", "name": "Again"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate member: status %d", rec.Code)
	}
}

func TestWallet_LazyCreate(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/wallets/walk-in", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var wallet map[string]string
	decode(t, rec, &wallet)
	if wallet["balance"] != "0.00" {
		t.Fatalf("balance = %q, want 0.00", wallet["balance"])
	}
}
