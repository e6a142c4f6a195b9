// Package memory provides an RWMutex-guarded in-memory store used for
// development and tests. It implements every Repo/Writer interface the
// services declare and returns the same sentinel errors the postgres store
// maps SQLSTATEs onto, so the two backends are interchangeable.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ledgerline/bookkeeper/internal/errs"
	"github.com/ledgerline/bookkeeper/internal/ledger"
)

// Store is the in-memory implementation of the chart, account and journal
// repositories and writers.
type Store struct {
	mu       sync.RWMutex
	charts   map[uuid.UUID]ledger.Chart
	accounts map[uuid.UUID]ledger.Account
	journals map[uuid.UUID]ledger.Journal
	// journalRefs counts external document records holding a journal id.
	journalRefs map[uuid.UUID]int
	// itemRefs counts invoice/payment item references per account, on top
	// of the entry references derived from posted journals.
	itemRefs map[uuid.UUID]int
}

// New constructs an empty store.
func New() *Store {
	return &Store{
		charts:      make(map[uuid.UUID]ledger.Chart),
		accounts:    make(map[uuid.UUID]ledger.Account),
		journals:    make(map[uuid.UUID]ledger.Journal),
		journalRefs: make(map[uuid.UUID]int),
		itemRefs:    make(map[uuid.UUID]int),
	}
}

// Seed helpers for local dev/tests.

func (s *Store) SeedChart(c ledger.Chart) { s.mu.Lock(); s.charts[c.ID] = c; s.mu.Unlock() }

func (s *Store) SeedAccount(a ledger.Account) { s.mu.Lock(); s.accounts[a.ID] = a; s.mu.Unlock() }

// SeedJournalRef registers an external document reference to a journal,
// standing in for an invoice/payment row carrying the journal id.
func (s *Store) SeedJournalRef(journalID uuid.UUID) {
	s.mu.Lock()
	s.journalRefs[journalID]++
	s.mu.Unlock()
}

// DropJournalRef releases one external document reference.
func (s *Store) DropJournalRef(journalID uuid.UUID) {
	s.mu.Lock()
	if s.journalRefs[journalID] > 0 {
		s.journalRefs[journalID]--
	}
	s.mu.Unlock()
}

// SeedItemRef registers an invoice/payment item reference to an account.
func (s *Store) SeedItemRef(accountID uuid.UUID) {
	s.mu.Lock()
	s.itemRefs[accountID]++
	s.mu.Unlock()
}

// --- Chart reads ---

// ChartsByType returns every node of the account type.
func (s *Store) ChartsByType(_ context.Context, typ ledger.AccountType) ([]ledger.Chart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Chart, 0)
	for _, c := range s.charts {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out, nil
}

// Chart returns a single node by id.
func (s *Store) Chart(_ context.Context, id uuid.UUID) (ledger.Chart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.charts[id]
	if !ok {
		return ledger.Chart{}, errs.Wrap(errs.ErrNotExist, "chart %s", id)
	}
	return c, nil
}

// AccountsByCharts returns accounts attached to any of the given nodes.
func (s *Store) AccountsByCharts(_ context.Context, chartIDs []uuid.UUID) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[uuid.UUID]struct{}, len(chartIDs))
	for _, id := range chartIDs {
		want[id] = struct{}{}
	}
	out := make([]ledger.Account, 0)
	for _, a := range s.accounts {
		if _, ok := want[a.Chart.ID]; ok {
			out = append(out, s.resolveLocked(a))
		}
	}
	return out, nil
}

// --- Chart writes ---

// InsertChart persists a new node. A second root for a type, or a missing
// parent, is rejected.
func (s *Store) InsertChart(_ context.Context, c ledger.Chart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertChartLocked(c)
}

func (s *Store) insertChartLocked(c ledger.Chart) error {
	if _, ok := s.charts[c.ID]; ok {
		return errs.Wrap(errs.ErrAlreadyExist, "chart %s", c.ID)
	}
	if c.Root() {
		for _, other := range s.charts {
			if other.Type == c.Type && other.Root() {
				return errs.Wrap(errs.ErrAlreadyExist, "root for type %q already persisted", c.Type)
			}
		}
	} else if _, ok := s.charts[c.ParentID]; !ok {
		return errs.Wrap(errs.ErrFKNotExist, "parent chart %s", c.ParentID)
	}
	s.charts[c.ID] = c
	return nil
}

// UpdateChart persists changes to a node.
func (s *Store) UpdateChart(_ context.Context, c ledger.Chart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateChartLocked(c)
}

func (s *Store) updateChartLocked(c ledger.Chart) error {
	if _, ok := s.charts[c.ID]; !ok {
		return errs.Wrap(errs.ErrNotExist, "chart %s", c.ID)
	}
	if !c.Root() {
		if _, ok := s.charts[c.ParentID]; !ok {
			return errs.Wrap(errs.ErrFKNotExist, "parent chart %s", c.ParentID)
		}
	}
	s.charts[c.ID] = c
	return nil
}

// ApplyChartDiff applies inserts, updates and deletes as one unit. All
// checks run before the first mutation so a failure leaves the store
// untouched.
func (s *Store) ApplyChartDiff(_ context.Context, inserts, updates []ledger.Chart, deletes []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleting := make(map[uuid.UUID]struct{}, len(deletes))
	for _, id := range deletes {
		deleting[id] = struct{}{}
	}
	for _, id := range deletes {
		if _, ok := s.charts[id]; !ok {
			return errs.Wrap(errs.ErrNotExist, "chart %s", id)
		}
		for _, a := range s.accounts {
			if a.Chart.ID == id {
				return errs.Wrap(errs.ErrFKNoDeleteOrUpdate, "account %q attached to chart %s", a.Name, id)
			}
		}
	}
	present := func(id uuid.UUID) bool {
		if _, gone := deleting[id]; gone {
			return false
		}
		_, ok := s.charts[id]
		return ok
	}
	staged := make(map[uuid.UUID]struct{}, len(inserts))
	for _, c := range inserts {
		if present(c.ID) {
			return errs.Wrap(errs.ErrAlreadyExist, "chart %s", c.ID)
		}
		if !c.Root() {
			if _, ok := staged[c.ParentID]; !ok && !present(c.ParentID) {
				return errs.Wrap(errs.ErrFKNotExist, "parent chart %s", c.ParentID)
			}
		}
		staged[c.ID] = struct{}{}
	}
	for _, c := range updates {
		if _, ok := s.charts[c.ID]; !ok {
			return errs.Wrap(errs.ErrNotExist, "chart %s", c.ID)
		}
	}

	for _, c := range inserts {
		s.charts[c.ID] = c
	}
	for _, c := range updates {
		s.charts[c.ID] = c
	}
	for _, id := range deletes {
		delete(s.charts, id)
	}
	return nil
}

// --- Account reads ---

// resolveLocked joins the account with the current persisted chart node.
// Caller must hold s.mu.
func (s *Store) resolveLocked(a ledger.Account) ledger.Account {
	if c, ok := s.charts[a.Chart.ID]; ok {
		a.Chart = c
	}
	return a
}

// Account returns the account joined with its resolved chart node.
func (s *Store) Account(_ context.Context, id uuid.UUID) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return ledger.Account{}, errs.Wrap(errs.ErrNotExist, "account %s", id)
	}
	return s.resolveLocked(a), nil
}

// AccountsByChart returns accounts attached to the chart node.
func (s *Store) AccountsByChart(ctx context.Context, chartID uuid.UUID) ([]ledger.Account, error) {
	return s.AccountsByCharts(ctx, []uuid.UUID{chartID})
}

// AccountsByIDs returns accounts keyed by id, joined with their chart.
func (s *Store) AccountsByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]ledger.Account, len(ids))
	for _, id := range ids {
		if a, ok := s.accounts[id]; ok {
			out[id] = s.resolveLocked(a)
		}
	}
	return out, nil
}

// --- Account writes ---

// InsertAccount persists a new account. Duplicate ids and names collide.
func (s *Store) InsertAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; ok {
		return ledger.Account{}, errs.Wrap(errs.ErrAlreadyExist, "account %s", a.ID)
	}
	for _, other := range s.accounts {
		if strings.EqualFold(other.Name, a.Name) {
			return ledger.Account{}, errs.Wrap(errs.ErrAlreadyExist, "account name %q", a.Name)
		}
	}
	if _, ok := s.charts[a.Chart.ID]; !ok {
		return ledger.Account{}, errs.Wrap(errs.ErrFKNotExist, "chart %s", a.Chart.ID)
	}
	s.accounts[a.ID] = a
	return s.resolveLocked(a), nil
}

// UpdateAccount persists changes to an account.
func (s *Store) UpdateAccount(_ context.Context, a ledger.Account) (ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return ledger.Account{}, errs.Wrap(errs.ErrNotExist, "account %s", a.ID)
	}
	for _, other := range s.accounts {
		if other.ID != a.ID && strings.EqualFold(other.Name, a.Name) {
			return ledger.Account{}, errs.Wrap(errs.ErrAlreadyExist, "account name %q", a.Name)
		}
	}
	if _, ok := s.charts[a.Chart.ID]; !ok {
		return ledger.Account{}, errs.Wrap(errs.ErrFKNotExist, "chart %s", a.Chart.ID)
	}
	s.accounts[a.ID] = a
	return s.resolveLocked(a), nil
}

// DeleteAccount removes the account unless an entry or item references it.
func (s *Store) DeleteAccount(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return errs.Wrap(errs.ErrNotExist, "account %s", id)
	}
	if s.itemRefs[id] > 0 {
		return errs.Wrap(errs.ErrFKNoDeleteOrUpdate, "account %s referenced by document items", id)
	}
	for _, j := range s.journals {
		for _, e := range j.Entries {
			if e.AccountID == id {
				return errs.Wrap(errs.ErrFKNoDeleteOrUpdate, "account %s referenced by journal %s", id, j.ID)
			}
		}
	}
	delete(s.accounts, id)
	return nil
}

// --- Journal reads ---

// Journal returns a journal with its entries.
func (s *Store) Journal(_ context.Context, id uuid.UUID) (ledger.Journal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.journals[id]
	if !ok {
		return ledger.Journal{}, errs.Wrap(errs.ErrNotExist, "journal %s", id)
	}
	out := j
	out.Entries = append([]ledger.Entry(nil), j.Entries...)
	return out, nil
}

// Journals returns every posted journal.
func (s *Store) Journals(_ context.Context) ([]ledger.Journal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Journal, 0, len(s.journals))
	for _, j := range s.journals {
		cp := j
		cp.Entries = append([]ledger.Entry(nil), j.Entries...)
		out = append(out, cp)
	}
	return out, nil
}

// --- Journal writes ---

// CreateJournal persists the header and all entries as one unit. A missing
// account fails the whole write; nothing is stored.
func (s *Store) CreateJournal(_ context.Context, j ledger.Journal) (ledger.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.journals[j.ID]; ok {
		return ledger.Journal{}, errs.Wrap(errs.ErrAlreadyExist, "journal %s", j.ID)
	}
	for _, e := range j.Entries {
		if _, ok := s.accounts[e.AccountID]; !ok {
			return ledger.Journal{}, errs.Wrap(errs.ErrFKNotExist, "entry account %s", e.AccountID)
		}
	}
	cp := j
	cp.Entries = append([]ledger.Entry(nil), j.Entries...)
	s.journals[j.ID] = cp
	return j, nil
}

// DeleteJournal cascades to entries. The owning document record must be
// deleted first; a live reference blocks the call.
func (s *Store) DeleteJournal(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.journals[id]; !ok {
		return errs.Wrap(errs.ErrNotExist, "journal %s", id)
	}
	if s.journalRefs[id] > 0 {
		return errs.Wrap(errs.ErrFKNoDeleteOrUpdate, "journal %s referenced by a document record", id)
	}
	delete(s.journals, id)
	return nil
}

// Ready reports the store as always ready.
func (s *Store) Ready(context.Context) error { return nil }
