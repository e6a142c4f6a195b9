package account

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/bookkeeper/internal/config"
	"github.com/ledgerline/bookkeeper/internal/errs"
	"github.com/ledgerline/bookkeeper/internal/ledger"
	"github.com/ledgerline/bookkeeper/internal/storage/memory"
)

type fixture struct {
	svc   Service
	store *memory.Store
	asset ledger.Chart
	exp   ledger.Chart
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg, err := config.New("GBP", nil)
	require.NoError(t, err)
	store := memory.New()
	asset := ledger.Chart{ID: uuid.New(), Name: "Assets", Type: ledger.AccountTypeAsset}
	exp := ledger.Chart{ID: uuid.New(), Name: "Expenses", Type: ledger.AccountTypeExpense}
	store.SeedChart(asset)
	store.SeedChart(exp)
	return fixture{svc: New(cfg, store, store), store: store, asset: asset, exp: exp}
}

func TestAddBalanceSheetAccountRequiresCurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, ledger.Account{Name: "Bank", Type: ledger.AccountTypeAsset, Chart: f.asset})
	assert.True(t, errors.Is(err, errs.ErrInvalid))

	a, err := f.svc.Add(ctx, ledger.Account{Name: "Bank", Type: ledger.AccountTypeAsset, Currency: "gbp", Chart: f.asset})
	require.NoError(t, err)
	assert.Equal(t, "GBP", a.Currency)
	assert.NotEqual(t, uuid.Nil, a.ID)
}

func TestAddIncomeExpenseAccountForbidsCurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, ledger.Account{Name: "Meals", Type: ledger.AccountTypeExpense, Currency: "GBP", Chart: f.exp})
	assert.True(t, errors.Is(err, errs.ErrInvalid))

	_, err = f.svc.Add(ctx, ledger.Account{Name: "Meals", Type: ledger.AccountTypeExpense, Chart: f.exp})
	assert.NoError(t, err)
}

func TestAddRejectsDriftedChartCopy(t *testing.T) {
	f := newFixture(t)

	drifted := f.asset
	drifted.Name = "Assetz"
	_, err := f.svc.Add(context.Background(), ledger.Account{Name: "Bank", Type: ledger.AccountTypeAsset, Currency: "GBP", Chart: drifted})
	assert.True(t, errors.Is(err, errs.ErrNotMatchWithSystem))
}

func TestAddRejectsTypeChartMismatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Add(context.Background(), ledger.Account{Name: "Bank", Type: ledger.AccountTypeAsset, Currency: "GBP", Chart: f.exp})
	assert.True(t, errors.Is(err, errs.ErrInvalid))
}

func TestAddDuplicateNameCollides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, ledger.Account{Name: "Bank", Type: ledger.AccountTypeAsset, Currency: "GBP", Chart: f.asset})
	require.NoError(t, err)

	_, err = f.svc.Add(ctx, ledger.Account{Name: "bank", Type: ledger.AccountTypeAsset, Currency: "GBP", Chart: f.asset})
	assert.True(t, errors.Is(err, errs.ErrAlreadyExist))
}

func TestUpdateCurrencyAndTypeImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Add(ctx, ledger.Account{Name: "Bank", Type: ledger.AccountTypeAsset, Currency: "GBP", Chart: f.asset})
	require.NoError(t, err)

	changed := a
	changed.Currency = "USD"
	_, err = f.svc.Update(ctx, changed)
	assert.True(t, errors.Is(err, errs.ErrOpNotPermitted))

	renamed := a
	renamed.Name = "Main Bank"
	got, err := f.svc.Update(ctx, renamed)
	require.NoError(t, err)
	assert.Equal(t, "Main Bank", got.Name)
	assert.Equal(t, "GBP", got.Currency)
}

func TestDeleteSystemAccountProtected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Add(ctx, ledger.Account{Name: "Sales Bank", Type: ledger.AccountTypeAsset, Currency: "GBP", Chart: f.asset, System: true})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, a.ID, false)
	assert.True(t, errors.Is(err, errs.ErrOpNotPermitted))

	require.NoError(t, f.svc.Delete(ctx, a.ID, true))
	_, err = f.svc.Get(ctx, a.ID)
	assert.True(t, errors.Is(err, errs.ErrNotExist))
}

func TestDeleteReservedNameProtected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Not flagged System, but the name is in the reserved set.
	a, err := f.svc.Add(ctx, ledger.Account{Name: "Accounts Receivable", Type: ledger.AccountTypeAsset, Currency: "GBP", Chart: f.asset})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, a.ID, false)
	assert.True(t, errors.Is(err, errs.ErrOpNotPermitted))
}

func TestDeleteReferencedAccountBlocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Add(ctx, ledger.Account{Name: "Bank", Type: ledger.AccountTypeAsset, Currency: "GBP", Chart: f.asset})
	require.NoError(t, err)
	f.store.SeedItemRef(a.ID)

	err = f.svc.Delete(ctx, a.ID, true)
	assert.True(t, errors.Is(err, errs.ErrFKNoDeleteOrUpdate))
}

func TestGetByChart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, ledger.Account{Name: "Bank", Type: ledger.AccountTypeAsset, Currency: "GBP", Chart: f.asset})
	require.NoError(t, err)

	accounts, err := f.svc.GetByChart(ctx, f.asset.ID)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	_, err = f.svc.GetByChart(ctx, uuid.New())
	assert.True(t, errors.Is(err, errs.ErrNotExist))
}
