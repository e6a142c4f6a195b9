// Package fx implements the currency-conversion contract the ledger and
// every document service depend on. Conversion is a date-keyed lookup,
// deterministic per (currency, date); converting the base currency is the
// identity for every date.
package fx

import (
	"strings"
	"time"

	"github.com/ledgerline/bookkeeper/internal/config"
	"github.com/ledgerline/bookkeeper/internal/errs"
)

// Gateway converts amounts into the reporting currency.
type Gateway interface {
	// Rate returns the exchange rate from currency to the base currency
	// effective on date.
	Rate(currency string, date time.Time) (float64, error)
	// ConvertToBase converts amount from currency into the base currency
	// using the rate effective on date.
	ConvertToBase(amount float64, currency string, date time.Time) (float64, error)
}

type rateKey struct {
	Currency string
	Date     string // YYYY-MM-DD
}

// Table is an in-memory Gateway seeded from configuration.
type Table struct {
	base  string
	rates map[rateKey]float64
}

var _ Gateway = (*Table)(nil)

// NewTable builds a rate table for the configured base currency.
func NewTable(cfg *config.Config) *Table {
	t := &Table{base: cfg.BaseCurrency(), rates: make(map[rateKey]float64)}
	for _, r := range cfg.Rates() {
		t.SetRate(r.Currency, r.Date, r.Rate)
	}
	return t
}

// SetRate records the rate for (currency, date). Date is YYYY-MM-DD.
func (t *Table) SetRate(currency, date string, rate float64) {
	t.rates[rateKey{Currency: strings.ToUpper(currency), Date: date}] = rate
}

// Rate implements Gateway. The base currency converts at 1 on every date;
// a missing (currency, date) pair fails with ErrNotExist.
func (t *Table) Rate(currency string, date time.Time) (float64, error) {
	currency = strings.ToUpper(currency)
	if currency == t.base {
		return 1, nil
	}
	k := rateKey{Currency: currency, Date: date.Format("2006-01-02")}
	rate, ok := t.rates[k]
	if !ok {
		return 0, errs.Wrap(errs.ErrNotExist, "no rate for %s on %s", k.Currency, k.Date)
	}
	return rate, nil
}

// ConvertToBase implements Gateway.
func (t *Table) ConvertToBase(amount float64, currency string, date time.Time) (float64, error) {
	if strings.ToUpper(currency) == t.base {
		return amount, nil
	}
	rate, err := t.Rate(currency, date)
	if err != nil {
		return 0, err
	}
	return amount * rate, nil
}
