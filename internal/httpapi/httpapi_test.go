package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/ledgerline/bookkeeper/internal/config"
	"github.com/ledgerline/bookkeeper/internal/fx"
	"github.com/ledgerline/bookkeeper/internal/ledger"
	"github.com/ledgerline/bookkeeper/internal/storage/memory"
)

type testEnv struct {
	srv   *Server
	store *memory.Store
	asset ledger.Chart
	exp   ledger.Chart
	bank  ledger.Account
	meals ledger.Account
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg, err := config.New("GBP", nil)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	store := memory.New()

	asset := ledger.Chart{ID: uuid.New(), Name: "Assets", Type: ledger.AccountTypeAsset}
	exp := ledger.Chart{ID: uuid.New(), Name: "Expenses", Type: ledger.AccountTypeExpense}
	store.SeedChart(asset)
	store.SeedChart(exp)

	bank := ledger.Account{ID: uuid.New(), Name: "Bank", Type: ledger.AccountTypeAsset, Currency: "GBP", Chart: asset}
	meals := ledger.Account{ID: uuid.New(), Name: "Meals", Type: ledger.AccountTypeExpense, Chart: exp}
	store.SeedAccount(bank)
	store.SeedAccount(meals)

	gateway := fx.NewTable(cfg)
	gateway.SetRate("USD", "2025-03-01", 0.8)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{
		srv:   New(cfg, store, gateway, logger),
		store: store,
		asset: asset,
		exp:   exp,
		bank:  bank,
		meals: meals,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
	return v
}

func TestChartLifecycle(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/v1/charts", postChartRequest{
		Name: "Current Assets", AcctType: ledger.AccountTypeAsset, ParentID: e.asset.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("post chart: got %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[chartResponse](t, rec)
	if created.ParentID == nil || *created.ParentID != e.asset.ID {
		t.Fatalf("expected parent %s, got %v", e.asset.ID, created.ParentID)
	}

	rec = e.do(t, http.MethodGet, "/v1/charts/"+created.ChartID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get chart: got %d", rec.Code)
	}

	rec = e.do(t, http.MethodGet, "/v1/charts/"+created.ChartID.String()+"/parent", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get parent: got %d", rec.Code)
	}
	parent := decodeBody[chartResponse](t, rec)
	if parent.ChartID != e.asset.ID {
		t.Fatalf("expected parent %s, got %s", e.asset.ID, parent.ChartID)
	}

	rec = e.do(t, http.MethodGet, "/v1/charts?acct_type=asset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list charts: got %d", rec.Code)
	}
	if list := decodeBody[[]chartResponse](t, rec); len(list) != 2 {
		t.Fatalf("expected 2 asset nodes, got %d", len(list))
	}

	rec = e.do(t, http.MethodDelete, "/v1/charts/"+created.ChartID.String(), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete chart: got %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestMoveChart(t *testing.T) {
	e := newTestEnv(t)

	recA := e.do(t, http.MethodPost, "/v1/charts", postChartRequest{Name: "A", AcctType: ledger.AccountTypeAsset, ParentID: e.asset.ID})
	recB := e.do(t, http.MethodPost, "/v1/charts", postChartRequest{Name: "B", AcctType: ledger.AccountTypeAsset, ParentID: e.asset.ID})
	a := decodeBody[chartResponse](t, recA)
	b := decodeBody[chartResponse](t, recB)

	rec := e.do(t, http.MethodPost, "/v1/charts/"+a.ChartID.String()+"/move", moveChartRequest{NewParentID: b.ChartID})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("move chart: got %d, body %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodGet, "/v1/charts/"+a.ChartID.String(), nil)
	moved := decodeBody[chartResponse](t, rec)
	if moved.ParentID == nil || *moved.ParentID != b.ChartID {
		t.Fatalf("expected parent %s after move, got %v", b.ChartID, moved.ParentID)
	}
}

func TestPutChartTree(t *testing.T) {
	e := newTestEnv(t)

	child := uuid.New()
	rootID := e.asset.ID
	rec := e.do(t, http.MethodPut, "/v1/charts/tree", putChartTreeRequest{
		AcctType: ledger.AccountTypeAsset,
		Nodes: []chartNode{
			{ChartID: rootID, Name: "Assets"},
			{ChartID: child, Name: "Inventory", ParentID: &rootID},
		},
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("put tree: got %d, body %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodGet, "/v1/charts/"+child.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected inserted node, got %d", rec.Code)
	}
}

func TestDeleteChartBlockedByAccount(t *testing.T) {
	e := newTestEnv(t)

	// Expenses root has Meals attached but roots are never deletable, so
	// give Meals a deletable parent first.
	rec := e.do(t, http.MethodPost, "/v1/charts", postChartRequest{Name: "Ops", AcctType: ledger.AccountTypeExpense, ParentID: e.exp.ID})
	ops := decodeBody[chartResponse](t, rec)

	opsChart := ledger.Chart{ID: ops.ChartID, Name: ops.Name, Type: ops.AcctType, ParentID: e.exp.ID}
	e.store.SeedAccount(ledger.Account{ID: uuid.New(), Name: "Travel", Type: ledger.AccountTypeExpense, Chart: opsChart})

	rec = e.do(t, http.MethodDelete, "/v1/charts/"+ops.ChartID.String(), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d, body %s", rec.Code, rec.Body.String())
	}
	if resp := decodeBody[errorResponse](t, rec); resp.Code != "fk_no_delete_or_update" {
		t.Fatalf("expected fk_no_delete_or_update, got %q", resp.Code)
	}
}

func TestAccountLifecycle(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/v1/accounts", accountPayload{
		AcctName: "Savings", AcctType: ledger.AccountTypeAsset, Currency: "GBP", Chart: toChartResponse(e.asset),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("post account: got %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[accountPayload](t, rec)

	// Duplicate name collides.
	rec = e.do(t, http.MethodPost, "/v1/accounts", accountPayload{
		AcctName: "savings", AcctType: ledger.AccountTypeAsset, Currency: "GBP", Chart: toChartResponse(e.asset),
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate name, got %d", rec.Code)
	}

	rec = e.do(t, http.MethodGet, "/v1/accounts/"+created.AcctID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get account: got %d", rec.Code)
	}

	rec = e.do(t, http.MethodGet, "/v1/accounts?chart_id="+e.asset.ID.String(), nil)
	if list := decodeBody[[]accountPayload](t, rec); len(list) != 2 {
		t.Fatalf("expected 2 asset accounts, got %d", len(list))
	}

	renamed := created
	renamed.AcctName = "Deposit"
	rec = e.do(t, http.MethodPatch, "/v1/accounts/"+created.AcctID.String(), renamed)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch account: got %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[accountPayload](t, rec); got.AcctName != "Deposit" {
		t.Fatalf("expected rename, got %q", got.AcctName)
	}

	rec = e.do(t, http.MethodDelete, "/v1/accounts/"+created.AcctID.String(), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete account: got %d", rec.Code)
	}
}

func TestDeleteSystemAccountNeedsForce(t *testing.T) {
	e := newTestEnv(t)

	sys := ledger.Account{ID: uuid.New(), Name: "Vault", Type: ledger.AccountTypeAsset, Currency: "GBP", Chart: e.asset, System: true}
	e.store.SeedAccount(sys)

	rec := e.do(t, http.MethodDelete, "/v1/accounts/"+sys.ID.String(), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = e.do(t, http.MethodDelete, "/v1/accounts/"+sys.ID.String()+"?force=true", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 with force, got %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestPostJournal(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/v1/journals", postJournalRequest{
		Source: ledger.SourceManual,
		Note:   "lunch",
		Entries: []postJournalEntry{
			{EntryType: ledger.SideDebit, AccountID: e.meals.ID, Amount: 12.5, AmountBase: 12.5},
			{EntryType: ledger.SideCredit, AccountID: e.bank.ID, Amount: 12.5, AmountBase: 12.5},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("post journal: got %d, body %s", rec.Code, rec.Body.String())
	}
	posted := decodeBody[journalResponse](t, rec)
	if len(posted.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(posted.Entries))
	}
	if posted.Entries[0].Currency != "GBP" {
		t.Fatalf("expected expense entry to default to GBP, got %q", posted.Entries[0].Currency)
	}
	if posted.Date.IsZero() {
		t.Fatal("expected date to default to now")
	}

	rec = e.do(t, http.MethodGet, "/v1/journals/"+posted.JournalID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get journal: got %d", rec.Code)
	}
	got := decodeBody[journalResponse](t, rec)
	if got.Entries[0].EntryType != ledger.SideDebit {
		t.Fatalf("expected debit first, got %s", got.Entries[0].EntryType)
	}
	if got.Entries[0].AcctName != "Meals" {
		t.Fatalf("expected hydrated account name, got %q", got.Entries[0].AcctName)
	}
}

func TestPostJournalReduce(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/v1/journals", postJournalRequest{
		Reduce: true,
		Entries: []postJournalEntry{
			{EntryType: ledger.SideDebit, AccountID: e.meals.ID, Currency: "GBP", Amount: 5, AmountBase: 5, Description: "starter"},
			{EntryType: ledger.SideDebit, AccountID: e.meals.ID, Currency: "GBP", Amount: 7, AmountBase: 7, Description: "main"},
			{EntryType: ledger.SideCredit, AccountID: e.bank.ID, Amount: 12, AmountBase: 12},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("post journal: got %d, body %s", rec.Code, rec.Body.String())
	}
	posted := decodeBody[journalResponse](t, rec)
	if len(posted.Entries) != 2 {
		t.Fatalf("expected reduced to 2 entries, got %d", len(posted.Entries))
	}
	if posted.Redundant {
		t.Fatal("reduced journal must not be redundant")
	}
}

func TestPostJournalUnbalanced(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/v1/journals", postJournalRequest{
		Entries: []postJournalEntry{
			{EntryType: ledger.SideDebit, AccountID: e.meals.ID, Amount: 10, AmountBase: 10},
			{EntryType: ledger.SideCredit, AccountID: e.bank.ID, Amount: 9, AmountBase: 9},
		},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d, body %s", rec.Code, rec.Body.String())
	}
	if resp := decodeBody[errorResponse](t, rec); resp.Code != "unbalanced" {
		t.Fatalf("expected unbalanced, got %q", resp.Code)
	}
}

func TestPutJournalReplaces(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/v1/journals", postJournalRequest{
		Entries: []postJournalEntry{
			{EntryType: ledger.SideDebit, AccountID: e.meals.ID, Amount: 10, AmountBase: 10},
			{EntryType: ledger.SideCredit, AccountID: e.bank.ID, Amount: 10, AmountBase: 10},
		},
	})
	posted := decodeBody[journalResponse](t, rec)

	rec = e.do(t, http.MethodPut, "/v1/journals/"+posted.JournalID.String(), postJournalRequest{
		Entries: []postJournalEntry{
			{EntryType: ledger.SideDebit, AccountID: e.meals.ID, Amount: 11, AmountBase: 11},
			{EntryType: ledger.SideCredit, AccountID: e.bank.ID, Amount: 11, AmountBase: 11},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put journal: got %d, body %s", rec.Code, rec.Body.String())
	}
	replaced := decodeBody[journalResponse](t, rec)
	if replaced.JournalID == posted.JournalID {
		t.Fatal("expected a fresh journal id")
	}

	rec = e.do(t, http.MethodGet, "/v1/journals/"+posted.JournalID.String(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected old journal gone, got %d", rec.Code)
	}
}

func TestDeleteJournal(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/v1/journals", postJournalRequest{
		Entries: []postJournalEntry{
			{EntryType: ledger.SideDebit, AccountID: e.meals.ID, Amount: 10, AmountBase: 10},
			{EntryType: ledger.SideCredit, AccountID: e.bank.ID, Amount: 10, AmountBase: 10},
		},
	})
	posted := decodeBody[journalResponse](t, rec)

	e.store.SeedJournalRef(posted.JournalID)
	rec = e.do(t, http.MethodDelete, "/v1/journals/"+posted.JournalID.String(), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while referenced, got %d", rec.Code)
	}

	e.store.DropJournalRef(posted.JournalID)
	rec = e.do(t, http.MethodDelete, "/v1/journals/"+posted.JournalID.String(), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestGetRate(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/v1/rates?currency=USD&date=2025-03-01", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get rate: got %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[rateResponse](t, rec); got.Rate != 0.8 {
		t.Fatalf("expected 0.8, got %v", got.Rate)
	}

	rec = e.do(t, http.MethodGet, "/v1/rates?currency=USD&date=2025-03-02", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing rate, got %d", rec.Code)
	}

	rec = e.do(t, http.MethodGet, "/v1/rates?currency=USD&date=bad", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rec.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	e := newTestEnv(t)

	if rec := e.do(t, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz: got %d", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Fatalf("readyz: got %d", rec.Code)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/v1/charts", map[string]any{
		"name": "X", "acct_type": "asset", "parent_chart_id": e.asset.ID, "bogus": true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}
