// Package postgres provides a pgx-backed store that satisfies the chart,
// account and journal repository/writer interfaces. The schema lives under
// db/migrations. SQLSTATEs are mapped onto the shared sentinel errors so
// services see the same failures from both backends: 23505 unique
// violations become AlreadyExist, 23503 foreign-key violations become
// FKNotExist on writes and FKNoDeleteOrUpdate on deletes.
package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/bookkeeper/internal/errs"
	"github.com/ledgerline/bookkeeper/internal/ledger"
)

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// mapWriteErr translates insert/update failures.
func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return errs.Wrap(errs.ErrAlreadyExist, "%s", pgErr.ConstraintName)
		case "23503":
			return errs.Wrap(errs.ErrFKNotExist, "%s", pgErr.ConstraintName)
		}
	}
	return err
}

// mapDeleteErr translates delete failures, where a foreign-key violation
// means a dependent row blocks the removal.
func mapDeleteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return errs.Wrap(errs.ErrFKNoDeleteOrUpdate, "%s", pgErr.ConstraintName)
	}
	return err
}

// --- Chart reads ---

// ChartsByType returns every node of the account type.
func (s *Store) ChartsByType(ctx context.Context, typ ledger.AccountType) ([]ledger.Chart, error) {
	rows, err := s.pool.Query(ctx, `
        select id, name, acct_type, coalesce(parent_id, '00000000-0000-0000-0000-000000000000')
        from charts
        where acct_type = $1
        order by name
    `, string(typ))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ledger.Chart, 0)
	for rows.Next() {
		var c ledger.Chart
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.ParentID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Chart returns a single node by id.
func (s *Store) Chart(ctx context.Context, id uuid.UUID) (ledger.Chart, error) {
	var c ledger.Chart
	err := s.pool.QueryRow(ctx, `
        select id, name, acct_type, coalesce(parent_id, '00000000-0000-0000-0000-000000000000')
        from charts
        where id = $1
    `, id).Scan(&c.ID, &c.Name, &c.Type, &c.ParentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Chart{}, errs.Wrap(errs.ErrNotExist, "chart %s", id)
	}
	if err != nil {
		return ledger.Chart{}, err
	}
	return c, nil
}

// AccountsByCharts returns accounts attached to any of the given nodes.
func (s *Store) AccountsByCharts(ctx context.Context, chartIDs []uuid.UUID) ([]ledger.Account, error) {
	if len(chartIDs) == 0 {
		return []ledger.Account{}, nil
	}
	rows, err := s.pool.Query(ctx, accountSelect+` where a.chart_id = any($1)`, chartIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccounts(rows)
}

// --- Chart writes ---

// InsertChart persists a new node.
func (s *Store) InsertChart(ctx context.Context, c ledger.Chart) error {
	_, err := s.pool.Exec(ctx, `
        insert into charts (id, name, acct_type, parent_id)
        values ($1, $2, $3, nullif($4, '00000000-0000-0000-0000-000000000000'))
    `, c.ID, c.Name, string(c.Type), c.ParentID)
	return mapWriteErr(err)
}

// UpdateChart persists changes to a node.
func (s *Store) UpdateChart(ctx context.Context, c ledger.Chart) error {
	ct, err := s.pool.Exec(ctx, `
        update charts
        set name = $1, parent_id = nullif($2, '00000000-0000-0000-0000-000000000000')
        where id = $3
    `, c.Name, c.ParentID, c.ID)
	if err != nil {
		return mapWriteErr(err)
	}
	if ct.RowsAffected() == 0 {
		return errs.Wrap(errs.ErrNotExist, "chart %s", c.ID)
	}
	return nil
}

// ApplyChartDiff applies inserts (parents first), updates and deletes
// (deepest first) in one transaction.
func (s *Store) ApplyChartDiff(ctx context.Context, inserts, updates []ledger.Chart, deletes []uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	for _, c := range inserts {
		if _, err := tx.Exec(ctx, `
            insert into charts (id, name, acct_type, parent_id)
            values ($1, $2, $3, nullif($4, '00000000-0000-0000-0000-000000000000'))
        `, c.ID, c.Name, string(c.Type), c.ParentID); err != nil {
			return mapWriteErr(err)
		}
	}
	for _, c := range updates {
		if _, err := tx.Exec(ctx, `
            update charts
            set name = $1, parent_id = nullif($2, '00000000-0000-0000-0000-000000000000')
            where id = $3
        `, c.Name, c.ParentID, c.ID); err != nil {
			return mapWriteErr(err)
		}
	}
	for _, id := range deletes {
		if _, err := tx.Exec(ctx, `delete from charts where id = $1`, id); err != nil {
			return mapDeleteErr(err)
		}
	}
	return tx.Commit(ctx)
}

// --- Account reads ---

const accountSelect = `
        select a.id, a.name, a.acct_type, coalesce(a.currency, ''), a.system,
               c.id, c.name, c.acct_type, coalesce(c.parent_id, '00000000-0000-0000-0000-000000000000')
        from accounts a
        join charts c on c.id = a.chart_id`

func scanAccounts(rows pgx.Rows) ([]ledger.Account, error) {
	out := make([]ledger.Account, 0)
	for rows.Next() {
		var a ledger.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Currency, &a.System,
			&a.Chart.ID, &a.Chart.Name, &a.Chart.Type, &a.Chart.ParentID); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Account returns the account joined with its resolved chart node.
func (s *Store) Account(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	var a ledger.Account
	err := s.pool.QueryRow(ctx, accountSelect+` where a.id = $1`, id).
		Scan(&a.ID, &a.Name, &a.Type, &a.Currency, &a.System,
			&a.Chart.ID, &a.Chart.Name, &a.Chart.Type, &a.Chart.ParentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Account{}, errs.Wrap(errs.ErrNotExist, "account %s", id)
	}
	if err != nil {
		return ledger.Account{}, err
	}
	return a, nil
}

// AccountsByChart returns accounts attached to the chart node.
func (s *Store) AccountsByChart(ctx context.Context, chartID uuid.UUID) ([]ledger.Account, error) {
	return s.AccountsByCharts(ctx, []uuid.UUID{chartID})
}

// AccountsByIDs returns accounts keyed by id, joined with their chart.
func (s *Store) AccountsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ledger.Account, error) {
	out := make(map[uuid.UUID]ledger.Account, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, accountSelect+` where a.id = any($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	accs, err := scanAccounts(rows)
	if err != nil {
		return nil, err
	}
	for _, a := range accs {
		out[a.ID] = a
	}
	return out, nil
}

// --- Account writes ---

// InsertAccount persists a new account.
func (s *Store) InsertAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	_, err := s.pool.Exec(ctx, `
        insert into accounts (id, name, acct_type, currency, chart_id, system)
        values ($1, $2, $3, nullif($4, ''), $5, $6)
    `, a.ID, a.Name, string(a.Type), strings.ToUpper(a.Currency), a.Chart.ID, a.System)
	if err != nil {
		return ledger.Account{}, mapWriteErr(err)
	}
	return s.Account(ctx, a.ID)
}

// UpdateAccount persists changes to an account.
func (s *Store) UpdateAccount(ctx context.Context, a ledger.Account) (ledger.Account, error) {
	ct, err := s.pool.Exec(ctx, `
        update accounts
        set name = $1, chart_id = $2, system = $3
        where id = $4
    `, a.Name, a.Chart.ID, a.System, a.ID)
	if err != nil {
		return ledger.Account{}, mapWriteErr(err)
	}
	if ct.RowsAffected() == 0 {
		return ledger.Account{}, errs.Wrap(errs.ErrNotExist, "account %s", a.ID)
	}
	return s.Account(ctx, a.ID)
}

// DeleteAccount removes the account; entry and item references block it.
func (s *Store) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `delete from accounts where id = $1`, id)
	if err != nil {
		return mapDeleteErr(err)
	}
	if ct.RowsAffected() == 0 {
		return errs.Wrap(errs.ErrNotExist, "account %s", id)
	}
	return nil
}

// --- Journal reads ---

// Journal returns a journal with its entries.
func (s *Store) Journal(ctx context.Context, id uuid.UUID) (ledger.Journal, error) {
	var j ledger.Journal
	err := s.pool.QueryRow(ctx, `
        select id, date, source, note from journals where id = $1
    `, id).Scan(&j.ID, &j.Date, &j.Source, &j.Note)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Journal{}, errs.Wrap(errs.ErrNotExist, "journal %s", id)
	}
	if err != nil {
		return ledger.Journal{}, err
	}
	rows, err := s.pool.Query(ctx, `
        select id, journal_id, account_id, side, coalesce(currency, ''), amount, amount_base, description
        from entries
        where journal_id = $1
        order by id
    `, id)
	if err != nil {
		return ledger.Journal{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(&e.ID, &e.JournalID, &e.AccountID, &e.Side, &e.Currency, &e.Amount, &e.AmountBase, &e.Description); err != nil {
			return ledger.Journal{}, err
		}
		j.Entries = append(j.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return ledger.Journal{}, err
	}
	return j, nil
}

// --- Journal writes ---

// CreateJournal inserts the header and all entries in one transaction. A
// referential failure on any entry rolls the header back; no orphan header
// is left behind.
func (s *Store) CreateJournal(ctx context.Context, j ledger.Journal) (ledger.Journal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ledger.Journal{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, `
        insert into journals (id, date, source, note)
        values ($1, $2, $3, $4)
    `, j.ID, j.Date, string(j.Source), j.Note); err != nil {
		return ledger.Journal{}, mapWriteErr(err)
	}
	for _, e := range j.Entries {
		if _, err := tx.Exec(ctx, `
            insert into entries (id, journal_id, account_id, side, currency, amount, amount_base, description)
            values ($1, $2, $3, $4, nullif($5, ''), $6, $7, $8)
        `, e.ID, j.ID, e.AccountID, string(e.Side), e.Currency, e.Amount, e.AmountBase, e.Description); err != nil {
			return ledger.Journal{}, mapWriteErr(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return ledger.Journal{}, err
	}
	return j, nil
}

// DeleteJournal removes the journal; entries cascade, document references
// block.
func (s *Store) DeleteJournal(ctx context.Context, id uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `delete from journals where id = $1`, id)
	if err != nil {
		return mapDeleteErr(err)
	}
	if ct.RowsAffected() == 0 {
		return errs.Wrap(errs.ErrNotExist, "journal %s", id)
	}
	return nil
}

// --- Document references ---

// AddJournalRef records that a document record carries the journal id.
func (s *Store) AddJournalRef(ctx context.Context, journalID uuid.UUID, source string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
        insert into journal_refs (id, journal_id, source) values ($1, $2, $3)
    `, id, journalID, source)
	if err != nil {
		return uuid.Nil, mapWriteErr(err)
	}
	return id, nil
}

// RemoveJournalRef releases a document reference.
func (s *Store) RemoveJournalRef(ctx context.Context, refID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `delete from journal_refs where id = $1`, refID)
	return mapDeleteErr(err)
}
