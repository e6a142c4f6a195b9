package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/bookkeeper/internal/errs"
	"github.com/ledgerline/bookkeeper/internal/ledger"
)

func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres store tests")
	}
	return dsn
}

func mustOpen(t *testing.T, dsn string) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func applyInitSQL(t *testing.T, dsn string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open for init: %v", err)
	}
	defer s.Close()
	// Resolve init SQL path relative to this test file so CWD doesn't matter
	_, thisFile, _, _ := runtime.Caller(0)
	repoRoot := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "../../../"))
	path := filepath.Join(repoRoot, "db", "migrations", "0001_init.sql")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read init sql: %v", err)
	}
	if _, err := s.pool.Exec(ctx, string(b)); err != nil {
		t.Fatalf("apply init sql: %v", err)
	}
}

func truncateAll(t *testing.T, dsn string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open for truncate: %v", err)
	}
	defer s.Close()
	_, _ = s.pool.Exec(ctx, `truncate table item_refs, journal_refs, entries, journals, accounts, charts cascade`)
}

func seedTree(t *testing.T, ctx context.Context, s *Store) (root, child ledger.Chart) {
	t.Helper()
	root = ledger.Chart{ID: uuid.New(), Name: "Assets", Type: ledger.AccountTypeAsset}
	child = ledger.Chart{ID: uuid.New(), Name: "Cash", Type: ledger.AccountTypeAsset, ParentID: root.ID}
	if err := s.InsertChart(ctx, root); err != nil {
		t.Fatalf("insert root: %v", err)
	}
	if err := s.InsertChart(ctx, child); err != nil {
		t.Fatalf("insert child: %v", err)
	}
	return root, child
}

func TestStore_ChartsAndAccounts(t *testing.T) {
	dsn := getTestDSN(t)
	applyInitSQL(t, dsn)
	truncateAll(t, dsn)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s := mustOpen(t, dsn)
	defer s.Close()

	if err := s.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}

	root, child := seedTree(t, ctx, s)

	rows, err := s.ChartsByType(ctx, ledger.AccountTypeAsset)
	if err != nil {
		t.Fatalf("charts by type: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(rows))
	}

	got, err := s.Chart(ctx, child.ID)
	if err != nil {
		t.Fatalf("get chart: %v", err)
	}
	if got.ParentID != root.ID {
		t.Fatalf("expected parent %s, got %s", root.ID, got.ParentID)
	}
	if _, err := s.Chart(ctx, uuid.New()); !errors.Is(err, errs.ErrNotExist) {
		t.Fatalf("expected NotExist, got %v", err)
	}

	// Duplicate id maps the SQLSTATE to AlreadyExist.
	if err := s.InsertChart(ctx, root); !errors.Is(err, errs.ErrAlreadyExist) {
		t.Fatalf("expected AlreadyExist, got %v", err)
	}
	// Missing parent maps to FKNotExist.
	orphan := ledger.Chart{ID: uuid.New(), Name: "Orphan", Type: ledger.AccountTypeAsset, ParentID: uuid.New()}
	if err := s.InsertChart(ctx, orphan); !errors.Is(err, errs.ErrFKNotExist) {
		t.Fatalf("expected FKNotExist, got %v", err)
	}

	acc := ledger.Account{ID: uuid.New(), Name: "Bank", Type: ledger.AccountTypeAsset, Currency: "GBP", Chart: child}
	inserted, err := s.InsertAccount(ctx, acc)
	if err != nil {
		t.Fatalf("insert account: %v", err)
	}
	if inserted.Chart.ID != child.ID {
		t.Fatalf("expected joined chart, got %+v", inserted.Chart)
	}

	if _, err := s.InsertAccount(ctx, ledger.Account{ID: uuid.New(), Name: "bank", Type: ledger.AccountTypeAsset, Currency: "GBP", Chart: child}); !errors.Is(err, errs.ErrAlreadyExist) {
		t.Fatalf("expected AlreadyExist for duplicate name, got %v", err)
	}

	byChart, err := s.AccountsByChart(ctx, child.ID)
	if err != nil || len(byChart) != 1 {
		t.Fatalf("accounts by chart: %v, n=%d", err, len(byChart))
	}

	// A node with an account attached cannot be deleted.
	if err := s.ApplyChartDiff(ctx, nil, nil, []uuid.UUID{child.ID}); !errors.Is(err, errs.ErrFKNoDeleteOrUpdate) {
		t.Fatalf("expected FKNoDeleteOrUpdate, got %v", err)
	}

	if err := s.DeleteAccount(ctx, acc.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if err := s.ApplyChartDiff(ctx, nil, nil, []uuid.UUID{child.ID}); err != nil {
		t.Fatalf("delete chart after account removed: %v", err)
	}
}

func TestStore_Journals(t *testing.T) {
	dsn := getTestDSN(t)
	applyInitSQL(t, dsn)
	truncateAll(t, dsn)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s := mustOpen(t, dsn)
	defer s.Close()

	_, child := seedTree(t, ctx, s)
	bank := ledger.Account{ID: uuid.New(), Name: "Bank", Type: ledger.AccountTypeAsset, Currency: "GBP", Chart: child}
	if _, err := s.InsertAccount(ctx, bank); err != nil {
		t.Fatalf("insert account: %v", err)
	}

	expRoot := ledger.Chart{ID: uuid.New(), Name: "Expenses", Type: ledger.AccountTypeExpense}
	if err := s.InsertChart(ctx, expRoot); err != nil {
		t.Fatalf("insert expense root: %v", err)
	}
	meals := ledger.Account{ID: uuid.New(), Name: "Meals", Type: ledger.AccountTypeExpense, Chart: expRoot}
	if _, err := s.InsertAccount(ctx, meals); err != nil {
		t.Fatalf("insert expense account: %v", err)
	}

	jid := uuid.New()
	j := ledger.Journal{
		ID:     jid,
		Date:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Source: ledger.SourceManual,
		Note:   "lunch",
		Entries: []ledger.Entry{
			{ID: uuid.New(), JournalID: jid, Side: ledger.SideDebit, AccountID: meals.ID, Currency: "GBP", Amount: 12.5, AmountBase: 12.5},
			{ID: uuid.New(), JournalID: jid, Side: ledger.SideCredit, AccountID: bank.ID, Amount: 12.5, AmountBase: 12.5},
		},
	}
	if _, err := s.CreateJournal(ctx, j); err != nil {
		t.Fatalf("create journal: %v", err)
	}

	got, err := s.Journal(ctx, jid)
	if err != nil {
		t.Fatalf("get journal: %v", err)
	}
	if len(got.Entries) != 2 || got.Note != "lunch" {
		t.Fatalf("unexpected journal: %+v", got)
	}

	// An entry referencing an unknown account rolls the whole write back.
	bad := ledger.Journal{
		ID:   uuid.New(),
		Date: time.Now().UTC(),
		Entries: []ledger.Entry{
			{ID: uuid.New(), Side: ledger.SideDebit, AccountID: uuid.New(), Amount: 1, AmountBase: 1},
			{ID: uuid.New(), Side: ledger.SideCredit, AccountID: bank.ID, Amount: 1, AmountBase: 1},
		},
	}
	if _, err := s.CreateJournal(ctx, bad); !errors.Is(err, errs.ErrFKNotExist) {
		t.Fatalf("expected FKNotExist, got %v", err)
	}
	if _, err := s.Journal(ctx, bad.ID); !errors.Is(err, errs.ErrNotExist) {
		t.Fatalf("expected rolled-back journal to be absent, got %v", err)
	}

	// The posting account is not deletable while the entry exists.
	if err := s.DeleteAccount(ctx, bank.ID); !errors.Is(err, errs.ErrFKNoDeleteOrUpdate) {
		t.Fatalf("expected FKNoDeleteOrUpdate, got %v", err)
	}

	// A document reference blocks journal deletion until released.
	refID, err := s.AddJournalRef(ctx, jid, "invoice")
	if err != nil {
		t.Fatalf("add journal ref: %v", err)
	}
	if err := s.DeleteJournal(ctx, jid); !errors.Is(err, errs.ErrFKNoDeleteOrUpdate) {
		t.Fatalf("expected FKNoDeleteOrUpdate, got %v", err)
	}
	if err := s.RemoveJournalRef(ctx, refID); err != nil {
		t.Fatalf("remove journal ref: %v", err)
	}
	if err := s.DeleteJournal(ctx, jid); err != nil {
		t.Fatalf("delete journal: %v", err)
	}
	if _, err := s.Journal(ctx, jid); !errors.Is(err, errs.ErrNotExist) {
		t.Fatalf("expected NotExist after delete, got %v", err)
	}
}
