package errs

import (
	"errors"
	"fmt"
)

// Common sentinel errors for cross-layer signaling. Services raise these at
// the point of detection and callers propagate them unmodified; the HTTP
// layer maps them onto status codes.
var (
	// ErrNotExist signals a lookup miss.
	ErrNotExist = errors.New("not_exist")
	// ErrAlreadyExist signals a unique-constraint collision on create.
	ErrAlreadyExist = errors.New("already_exist")
	// ErrFKNotExist signals a create/update referencing a missing parent row.
	ErrFKNotExist = errors.New("fk_not_exist")
	// ErrFKNoDeleteOrUpdate signals a delete/update blocked by a dependent row.
	ErrFKNoDeleteOrUpdate = errors.New("fk_no_delete_or_update")
	// ErrNotMatchWithSystem signals a caller-supplied denormalized copy of an
	// entity disagreeing with the persisted source of truth.
	ErrNotMatchWithSystem = errors.New("not_match_with_system")
	// ErrOpNotPermitted signals mutation of a protected resource
	// (system accounts, immutable currency, base currency after setup).
	ErrOpNotPermitted = errors.New("op_not_permitted")
	// ErrInvalid signals malformed input caught before any persistence call.
	ErrInvalid = errors.New("invalid")
)

// Journal construction invariants, detected before any persistence call.
var (
	ErrTooFewEntries      = errors.New("too_few_entries")
	ErrUnbalanced         = errors.New("unbalanced")
	ErrCurrencyRequired   = errors.New("currency_required")
	ErrCurrencyForbidden  = errors.New("currency_forbidden")
	ErrBaseAmountMismatch = errors.New("base_amount_mismatch")
)

// Wrap attaches a details string to a sentinel while keeping errors.Is intact.
func Wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)
}
