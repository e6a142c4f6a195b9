package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Side represents the accounting position of a journal entry.
type Side string

const (
	// SideDebit records a value on the debit side of an account.
	SideDebit Side = "debit"
	// SideCredit records a value on the credit side of an account.
	SideCredit Side = "credit"
)

// Valid reports whether the side is one of the two known values.
func (s Side) Valid() bool { return s == SideDebit || s == SideCredit }

// AccountType enumerates the broad classification of an account.
// Each type owns exactly one chart-of-accounts tree.
type AccountType string

const (
	// AccountTypeAsset increases on the debit side and holds owned resources.
	AccountTypeAsset AccountType = "asset"
	// AccountTypeLiability increases on the credit side and tracks obligations.
	AccountTypeLiability AccountType = "liability"
	// AccountTypeEquity captures the owner's residual interest in the entity.
	AccountTypeEquity AccountType = "equity"
	// AccountTypeIncome represents inflows that increase equity.
	AccountTypeIncome AccountType = "income"
	// AccountTypeExpense represents outflows that decrease equity.
	AccountTypeExpense AccountType = "expense"
)

// AccountTypes lists every known type in reporting order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeIncome,
	AccountTypeExpense,
}

// Valid reports whether the type is one of the known values.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// BalanceSheet reports whether the type belongs to the balance sheet.
// Balance-sheet accounts carry a fixed currency; income/expense accounts
// are posted with an explicit per-entry currency instead.
func (t AccountType) BalanceSheet() bool {
	return t == AccountTypeAsset || t == AccountTypeLiability || t == AccountTypeEquity
}

// Source tags the document that produced a journal.
type Source string

const (
	SourceManual   Source = "manual"
	SourceInvoice  Source = "invoice"
	SourcePayment  Source = "payment"
	SourceExpense  Source = "expense"
	SourceShare    Source = "share"
	SourceProperty Source = "property"
	SourceOpening  Source = "opening"
)

// Chart is one classification node in the chart-of-accounts tree.
// A node's Type always equals its parent's; ParentID is uuid.Nil for the
// root of a type's tree (or for a node detached prior to removal).
type Chart struct {
	ID       uuid.UUID
	Name     string
	Type     AccountType
	ParentID uuid.UUID
}

// Root reports whether the node has no parent.
func (c Chart) Root() bool { return c.ParentID == uuid.Nil }

// Equal reports whether two nodes agree on every field. The account
// registry uses it to detect caller copies that drifted from the
// persisted source of truth.
func (c Chart) Equal(other Chart) bool {
	return c.ID == other.ID && c.Name == other.Name && c.Type == other.Type && c.ParentID == other.ParentID
}

// Account is a named ledger target attached to one chart node.
// Currency is set iff the account type is balance-sheet; income and
// expense accounts receive postings in many currencies and carry none.
type Account struct {
	ID   uuid.UUID
	Name string
	Type AccountType
	// Currency is the fixed posting currency for balance-sheet accounts
	// and empty for income/expense accounts.
	Currency string
	// Chart is a denormalized copy of the classification node the account
	// belongs to. Writes validate it against the persisted node.
	Chart Chart
	// System marks reserved accounts (tax, AR, AP, capital, ...) that are
	// protected from deletion unless explicitly overridden.
	System bool
}

// Journal is an atomic, balanced set of debit/credit postings representing
// one business event. Journal ids are write-once: an update is a full
// delete followed by a re-add under a fresh id.
type Journal struct {
	ID      uuid.UUID
	Date    time.Time
	Source  Source
	Note    string
	Entries []Entry
}

// Entry is one side of a journal, referencing one account. Its lifetime is
// 1:1 with the owning journal; it is never created or addressed alone.
type Entry struct {
	ID        uuid.UUID
	JournalID uuid.UUID
	Side      Side
	AccountID uuid.UUID
	// Account is populated on hydrated reads; zero during construction.
	Account Account
	// Currency is the transaction currency, set iff the referenced account
	// is an income/expense account.
	Currency string
	// Amount is the raw amount in the entry's transaction currency (or the
	// account's own currency for balance-sheet accounts).
	Amount float64
	// AmountBase is the amount converted to the reporting currency. Debit
	// and credit base totals of a journal must agree.
	AmountBase  float64
	Description string
}
