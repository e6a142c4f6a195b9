// Package account implements the account registry: named, typed, optionally
// currency-bound entities attached to chart nodes. The currency rule is
// strict: balance-sheet accounts carry a fixed currency, income/expense
// accounts carry none, and a currency can never change once persisted.
package account

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ledgerline/bookkeeper/internal/config"
	"github.com/ledgerline/bookkeeper/internal/errs"
	"github.com/ledgerline/bookkeeper/internal/ledger"
)

// Repo defines the read operations needed by the service.
type Repo interface {
	Chart(ctx context.Context, id uuid.UUID) (ledger.Chart, error)
	Account(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	AccountsByChart(ctx context.Context, chartID uuid.UUID) ([]ledger.Account, error)
}

// Writer defines the write operations needed by the service.
type Writer interface {
	InsertAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error)
	// DeleteAccount fails FKNoDeleteOrUpdate while any entry, invoice item
	// or payment item still references the account.
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

// Service exposes the account registry operations.
type Service interface {
	Add(ctx context.Context, a ledger.Account) (ledger.Account, error)
	Update(ctx context.Context, a ledger.Account) (ledger.Account, error)
	// Delete removes the account. System accounts are protected unless
	// force is set; referenced accounts are never deletable.
	Delete(ctx context.Context, id uuid.UUID, force bool) error
	Get(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	GetByChart(ctx context.Context, chartID uuid.UUID) ([]ledger.Account, error)
}

type service struct {
	cfg    *config.Config
	repo   Repo
	writer Writer
}

// New constructs the account service.
func New(cfg *config.Config, repo Repo, writer Writer) Service {
	return &service{cfg: cfg, repo: repo, writer: writer}
}

// validate checks the type/currency coupling and the embedded chart copy
// against the persisted node. A caller copy that drifted from the source of
// truth fails NotMatchWithSystem rather than being silently accepted.
func (s *service) validate(ctx context.Context, a ledger.Account) error {
	if a.Name == "" {
		return errs.Wrap(errs.ErrInvalid, "name is required")
	}
	if !a.Type.Valid() {
		return errs.Wrap(errs.ErrInvalid, "unknown account type %q", a.Type)
	}
	if a.Type.BalanceSheet() {
		if a.Currency == "" {
			return errs.Wrap(errs.ErrInvalid, "%s accounts require a currency", a.Type)
		}
	} else if a.Currency != "" {
		return errs.Wrap(errs.ErrInvalid, "%s accounts must not carry a currency", a.Type)
	}
	persisted, err := s.repo.Chart(ctx, a.Chart.ID)
	if err != nil {
		return err
	}
	if !persisted.Equal(a.Chart) {
		return errs.Wrap(errs.ErrNotMatchWithSystem, "chart %s differs from persisted state", a.Chart.ID)
	}
	if persisted.Type != a.Type {
		return errs.Wrap(errs.ErrInvalid, "account type %q does not match chart type %q", a.Type, persisted.Type)
	}
	return nil
}

// Add registers an account against an existing, unchanged chart node.
func (s *service) Add(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
	if err := s.validate(ctx, a); err != nil {
		return ledger.Account{}, err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return s.writer.InsertAccount(ctx, a)
}

// Update applies changes to an existing account. The chart copy must match
// the persisted node; the currency is immutable once set.
func (s *service) Update(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	a.Currency = strings.ToUpper(strings.TrimSpace(a.Currency))
	current, err := s.repo.Account(ctx, a.ID)
	if err != nil {
		return ledger.Account{}, err
	}
	if current.Currency != a.Currency {
		return ledger.Account{}, errs.Wrap(errs.ErrOpNotPermitted, "currency of account %s cannot change", a.ID)
	}
	if current.Type != a.Type {
		return ledger.Account{}, errs.Wrap(errs.ErrOpNotPermitted, "type of account %s cannot change", a.ID)
	}
	if err := s.validate(ctx, a); err != nil {
		return ledger.Account{}, err
	}
	return s.writer.UpdateAccount(ctx, a)
}

// Delete removes the account unless it is referenced or protected.
func (s *service) Delete(ctx context.Context, id uuid.UUID, force bool) error {
	a, err := s.repo.Account(ctx, id)
	if err != nil {
		return err
	}
	if (a.System || s.cfg.SystemAccount(a.Name)) && !force {
		return errs.Wrap(errs.ErrOpNotPermitted, "account %q is a system account", a.Name)
	}
	return s.writer.DeleteAccount(ctx, id)
}

// Get returns the account joined with its resolved chart node.
func (s *service) Get(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	return s.repo.Account(ctx, id)
}

// GetByChart returns all accounts attached to the chart node.
func (s *service) GetByChart(ctx context.Context, chartID uuid.UUID) ([]ledger.Account, error) {
	if _, err := s.repo.Chart(ctx, chartID); err != nil {
		return nil, err
	}
	return s.repo.AccountsByChart(ctx, chartID)
}
