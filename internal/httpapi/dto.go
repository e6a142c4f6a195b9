package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/bookkeeper/internal/ledger"
)

// Charts

type chartResponse struct {
	ChartID  uuid.UUID          `json:"chart_id"`
	Name     string             `json:"name"`
	AcctType ledger.AccountType `json:"acct_type"`
	ParentID *uuid.UUID         `json:"parent_chart_id,omitempty"`
}

func toChartResponse(c ledger.Chart) chartResponse {
	out := chartResponse{ChartID: c.ID, Name: c.Name, AcctType: c.Type}
	if !c.Root() {
		p := c.ParentID
		out.ParentID = &p
	}
	return out
}

type postChartRequest struct {
	Name     string             `json:"name"`
	AcctType ledger.AccountType `json:"acct_type"`
	ParentID uuid.UUID          `json:"parent_chart_id"`
}

type moveChartRequest struct {
	NewParentID uuid.UUID `json:"new_parent_chart_id"`
}

// putChartTreeRequest carries a full in-memory tree to diff against the
// persisted state.
type putChartTreeRequest struct {
	AcctType ledger.AccountType `json:"acct_type"`
	Nodes    []chartNode        `json:"nodes"`
}

type chartNode struct {
	ChartID  uuid.UUID  `json:"chart_id"`
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_chart_id,omitempty"`
}

// Accounts

type accountPayload struct {
	AcctID   uuid.UUID          `json:"acct_id,omitempty"`
	AcctName string             `json:"acct_name"`
	AcctType ledger.AccountType `json:"acct_type"`
	Currency string             `json:"currency,omitempty"`
	Chart    chartResponse      `json:"chart"`
	System   bool               `json:"system,omitempty"`
}

func toAccountResponse(a ledger.Account) accountPayload {
	return accountPayload{
		AcctID:   a.ID,
		AcctName: a.Name,
		AcctType: a.Type,
		Currency: a.Currency,
		Chart:    toChartResponse(a.Chart),
		System:   a.System,
	}
}

func toAccountDomain(p accountPayload) ledger.Account {
	chart := ledger.Chart{ID: p.Chart.ChartID, Name: p.Chart.Name, Type: p.Chart.AcctType}
	if p.Chart.ParentID != nil {
		chart.ParentID = *p.Chart.ParentID
	}
	return ledger.Account{
		ID:       p.AcctID,
		Name:     p.AcctName,
		Type:     p.AcctType,
		Currency: p.Currency,
		Chart:    chart,
		System:   p.System,
	}
}

// Journals

type postJournalRequest struct {
	Date    time.Time          `json:"date"`
	Source  ledger.Source      `json:"source_tag"`
	Note    string             `json:"note,omitempty"`
	Entries []postJournalEntry `json:"entries"`
	// Reduce collapses same-key entries before posting when set.
	Reduce bool `json:"reduce,omitempty"`
}

type postJournalEntry struct {
	EntryType   ledger.Side `json:"entry_type"`
	AccountID   uuid.UUID   `json:"account_id"`
	Currency    string      `json:"currency,omitempty"`
	Amount      float64     `json:"amount"`
	AmountBase  float64     `json:"amount_base"`
	Description string      `json:"description,omitempty"`
}

func toJournalDomain(req postJournalRequest) ledger.Journal {
	entries := make([]ledger.Entry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, ledger.Entry{
			Side:        e.EntryType,
			AccountID:   e.AccountID,
			Currency:    e.Currency,
			Amount:      e.Amount,
			AmountBase:  e.AmountBase,
			Description: e.Description,
		})
	}
	return ledger.Journal{Date: req.Date, Source: req.Source, Note: req.Note, Entries: entries}
}

type journalResponse struct {
	JournalID uuid.UUID       `json:"journal_id"`
	Date      time.Time       `json:"date"`
	Source    ledger.Source   `json:"source_tag"`
	Note      string          `json:"note,omitempty"`
	Entries   []entryResponse `json:"entries"`
	Redundant bool            `json:"redundant"`
}

type entryResponse struct {
	EntryID     uuid.UUID   `json:"entry_id"`
	EntryType   ledger.Side `json:"entry_type"`
	AccountID   uuid.UUID   `json:"account_id"`
	AcctName    string      `json:"acct_name,omitempty"`
	Currency    string      `json:"currency,omitempty"`
	Amount      float64     `json:"amount"`
	AmountBase  float64     `json:"amount_base"`
	Description string      `json:"description,omitempty"`
}

func toJournalResponse(j ledger.Journal) journalResponse {
	entries := make([]entryResponse, 0, len(j.Entries))
	for _, e := range j.Entries {
		entries = append(entries, entryResponse{
			EntryID:     e.ID,
			EntryType:   e.Side,
			AccountID:   e.AccountID,
			AcctName:    e.Account.Name,
			Currency:    e.Currency,
			Amount:      e.Amount,
			AmountBase:  e.AmountBase,
			Description: e.Description,
		})
	}
	return journalResponse{
		JournalID: j.ID,
		Date:      j.Date,
		Source:    j.Source,
		Note:      j.Note,
		Entries:   entries,
		Redundant: j.Redundant(),
	}
}

// FX

type rateResponse struct {
	Currency string  `json:"currency"`
	Date     string  `json:"date"`
	Rate     float64 `json:"rate"`
}
