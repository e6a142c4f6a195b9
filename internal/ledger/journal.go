package ledger

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

// RelTolerance is the relative tolerance within which debit and credit base
// totals of a journal must agree.
const RelTolerance = 1e-6

// ApproxEqual reports whether a and b agree within RelTolerance, relative to
// the larger magnitude of the two.
func ApproxEqual(a, b float64) bool {
	diff := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale == 0 {
		return true
	}
	return diff <= RelTolerance*scale
}

// DebitTotal sums the base amounts of the debit entries.
func (j Journal) DebitTotal() float64 { return j.sideTotal(SideDebit) }

// CreditTotal sums the base amounts of the credit entries.
func (j Journal) CreditTotal() float64 { return j.sideTotal(SideCredit) }

func (j Journal) sideTotal(side Side) float64 {
	var total float64
	for _, e := range j.Entries {
		if e.Side == side {
			total += e.AmountBase
		}
	}
	return total
}

// Balanced reports whether debit and credit base totals agree within
// RelTolerance.
func (j Journal) Balanced() bool {
	return ApproxEqual(j.DebitTotal(), j.CreditTotal())
}

// reduceKey identifies entries that a reduction collapses into one.
type reduceKey struct {
	AccountID uuid.UUID
	Side      Side
	Currency  string
}

// Redundant reports whether two or more entries share the same
// (account, side, currency) key. It is a pre-posting lint; callers decide
// whether to Reduce, nothing applies it automatically.
func (j Journal) Redundant() bool {
	seen := make(map[reduceKey]struct{}, len(j.Entries))
	for _, e := range j.Entries {
		k := reduceKey{AccountID: e.AccountID, Side: e.Side, Currency: e.Currency}
		if _, ok := seen[k]; ok {
			return true
		}
		seen[k] = struct{}{}
	}
	return false
}

// Reduce returns a copy of the journal with entries sharing the same
// (account, side, currency) key collapsed into one, summing raw and base
// amounts and joining descriptions with "; ". Entry order follows the first
// occurrence of each key, so Reduce is idempotent and preserves the debit
// and credit totals.
func (j Journal) Reduce() Journal {
	byKey := make(map[reduceKey]int, len(j.Entries))
	merged := make([]Entry, 0, len(j.Entries))
	for _, e := range j.Entries {
		k := reduceKey{AccountID: e.AccountID, Side: e.Side, Currency: e.Currency}
		if i, ok := byKey[k]; ok {
			merged[i].Amount += e.Amount
			merged[i].AmountBase += e.AmountBase
			merged[i].Description = joinDescriptions(merged[i].Description, e.Description)
			continue
		}
		byKey[k] = len(merged)
		merged = append(merged, e)
	}
	out := j
	out.Entries = merged
	return out
}

func joinDescriptions(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "; " + b
}

// SortEntries orders entries debit-first, then by account id, for stable
// presentation. The entry set itself is unordered.
func (j *Journal) SortEntries() {
	sort.SliceStable(j.Entries, func(a, b int) bool {
		ea, eb := j.Entries[a], j.Entries[b]
		if ea.Side != eb.Side {
			return ea.Side == SideDebit
		}
		return ea.AccountID.String() < eb.AccountID.String()
	})
}
