// Package journal implements the ledger invariant engine. A journal is
// absent, posted or removed; there is no partial or draft persisted state.
// Trial construction (Validate + Reduce) is pure; Add persists the header
// and every entry as one all-or-nothing unit, and Update is a full delete
// followed by a re-add, never a field-level patch.
package journal

import (
	"context"

	"github.com/google/uuid"

	"github.com/ledgerline/bookkeeper/internal/config"
	"github.com/ledgerline/bookkeeper/internal/errs"
	"github.com/ledgerline/bookkeeper/internal/ledger"
)

// Repo defines the read operations needed by the service.
type Repo interface {
	// AccountsByIDs returns accounts keyed by id, joined with their chart.
	AccountsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ledger.Account, error)
	Journal(ctx context.Context, id uuid.UUID) (ledger.Journal, error)
}

// Writer defines the write operations needed by the service.
type Writer interface {
	// CreateJournal persists the header and all entries atomically. A
	// referential failure while writing entries rolls the header back.
	CreateJournal(ctx context.Context, j ledger.Journal) (ledger.Journal, error)
	// DeleteJournal cascades to entries and fails FKNoDeleteOrUpdate while
	// another persisted record still references the journal id.
	DeleteJournal(ctx context.Context, id uuid.UUID) error
}

// Service exposes journal validation, posting and removal.
type Service interface {
	Validate(ctx context.Context, j ledger.Journal) error
	Add(ctx context.Context, j ledger.Journal) (ledger.Journal, error)
	Get(ctx context.Context, id uuid.UUID) (ledger.Journal, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Update replaces the posted journal under a fresh id: delete then add.
	Update(ctx context.Context, id uuid.UUID, j ledger.Journal) (ledger.Journal, error)
}

type service struct {
	cfg    *config.Config
	repo   Repo
	writer Writer
}

// New constructs the journal service.
func New(cfg *config.Config, repo Repo, writer Writer) Service {
	return &service{cfg: cfg, repo: repo, writer: writer}
}

// Validate checks every construction invariant without touching storage
// beyond account lookups: at least two entries, debit and credit base
// totals equal within tolerance, the currency-nullability rule per account
// type, and exact raw/base equality for base-currency entries.
func (s *service) Validate(ctx context.Context, j ledger.Journal) error {
	_, err := s.prepare(ctx, j)
	return err
}

// prepare resolves accounts, applies the base-currency default for
// income/expense entries posted without an explicit currency, and runs the
// full validation. It returns the normalized journal ready for persistence.
func (s *service) prepare(ctx context.Context, j ledger.Journal) (ledger.Journal, error) {
	if len(j.Entries) < 2 {
		return ledger.Journal{}, errs.Wrap(errs.ErrTooFewEntries, "journal needs at least 2 entries, got %d", len(j.Entries))
	}
	if j.Source == "" {
		j.Source = ledger.SourceManual
	}
	ids := make([]uuid.UUID, 0, len(j.Entries))
	for i, e := range j.Entries {
		if !e.Side.Valid() {
			return ledger.Journal{}, errs.Wrap(errs.ErrInvalid, "entry %d: side must be debit or credit", i)
		}
		if e.AccountID == uuid.Nil {
			return ledger.Journal{}, errs.Wrap(errs.ErrInvalid, "entry %d: account is required", i)
		}
		if e.Amount <= 0 || e.AmountBase <= 0 {
			return ledger.Journal{}, errs.Wrap(errs.ErrInvalid, "entry %d: amounts must be > 0", i)
		}
		ids = append(ids, e.AccountID)
	}
	accounts, err := s.repo.AccountsByIDs(ctx, ids)
	if err != nil {
		return ledger.Journal{}, err
	}
	base := s.cfg.BaseCurrency()
	for i := range j.Entries {
		e := &j.Entries[i]
		acc, ok := accounts[e.AccountID]
		if !ok {
			return ledger.Journal{}, errs.Wrap(errs.ErrFKNotExist, "entry %d: account %s not found", i, e.AccountID)
		}
		if acc.Type.BalanceSheet() {
			if e.Currency != "" {
				return ledger.Journal{}, errs.Wrap(errs.ErrCurrencyForbidden, "entry %d: %s account %q posts in its own currency", i, acc.Type, acc.Name)
			}
		} else if e.Currency == "" {
			// Income/expense entries posted without a currency default to
			// the reporting currency.
			e.Currency = base
		}
		effective := e.Currency
		if effective == "" {
			effective = acc.Currency
		}
		if effective == base && e.Amount != e.AmountBase {
			return ledger.Journal{}, errs.Wrap(errs.ErrBaseAmountMismatch, "entry %d: %s amount %.6f != base amount %.6f", i, base, e.Amount, e.AmountBase)
		}
		e.Account = acc
	}
	if !j.Balanced() {
		return ledger.Journal{}, errs.Wrap(errs.ErrUnbalanced, "debits %.6f != credits %.6f", j.DebitTotal(), j.CreditTotal())
	}
	return j, nil
}

// Add validates and posts the journal atomically.
func (s *service) Add(ctx context.Context, j ledger.Journal) (ledger.Journal, error) {
	prepared, err := s.prepare(ctx, j)
	if err != nil {
		return ledger.Journal{}, err
	}
	if prepared.ID == uuid.Nil {
		prepared.ID = uuid.New()
	}
	for i := range prepared.Entries {
		prepared.Entries[i].ID = uuid.New()
		prepared.Entries[i].JournalID = prepared.ID
	}
	return s.writer.CreateJournal(ctx, prepared)
}

// Get returns the journal fully hydrated: entries resolved to accounts,
// accounts resolved to their chart node.
func (s *service) Get(ctx context.Context, id uuid.UUID) (ledger.Journal, error) {
	j, err := s.repo.Journal(ctx, id)
	if err != nil {
		return ledger.Journal{}, err
	}
	ids := make([]uuid.UUID, 0, len(j.Entries))
	for _, e := range j.Entries {
		ids = append(ids, e.AccountID)
	}
	accounts, err := s.repo.AccountsByIDs(ctx, ids)
	if err != nil {
		return ledger.Journal{}, err
	}
	for i := range j.Entries {
		j.Entries[i].Account = accounts[j.Entries[i].AccountID]
	}
	j.SortEntries()
	return j, nil
}

// Delete removes the journal and its entries.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.writer.DeleteJournal(ctx, id)
}

// Update replaces a posted journal: validate the replacement first (fail
// fast, nothing written), then delete the old journal and post the new one.
func (s *service) Update(ctx context.Context, id uuid.UUID, j ledger.Journal) (ledger.Journal, error) {
	if _, err := s.repo.Journal(ctx, id); err != nil {
		return ledger.Journal{}, err
	}
	if err := s.Validate(ctx, j); err != nil {
		return ledger.Journal{}, err
	}
	if err := s.writer.DeleteJournal(ctx, id); err != nil {
		return ledger.Journal{}, err
	}
	j.ID = uuid.Nil
	return s.Add(ctx, j)
}
