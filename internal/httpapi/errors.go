package httpapi

import (
	"errors"
	"net/http"

	"github.com/ledgerline/bookkeeper/internal/errs"
)

// errorResponse is the standard error payload for the API: a short code
// plus the details string carried by the wrapped sentinel.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func badRequest(w http.ResponseWriter, msg string) {
	toJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// writeDomainErr maps the sentinel taxonomy onto HTTP status codes.
func writeDomainErr(w http.ResponseWriter, err error) {
	code, status := classify(err)
	toJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func classify(err error) (code string, status int) {
	switch {
	case errors.Is(err, errs.ErrNotExist):
		return "not_exist", http.StatusNotFound
	case errors.Is(err, errs.ErrAlreadyExist):
		return "already_exist", http.StatusConflict
	case errors.Is(err, errs.ErrFKNotExist):
		return "fk_not_exist", http.StatusConflict
	case errors.Is(err, errs.ErrFKNoDeleteOrUpdate):
		return "fk_no_delete_or_update", http.StatusConflict
	case errors.Is(err, errs.ErrNotMatchWithSystem):
		return "not_match_with_system", http.StatusConflict
	case errors.Is(err, errs.ErrOpNotPermitted):
		return "op_not_permitted", http.StatusForbidden
	case errors.Is(err, errs.ErrTooFewEntries):
		return "too_few_entries", http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrUnbalanced):
		return "unbalanced", http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrCurrencyRequired):
		return "currency_required", http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrCurrencyForbidden):
		return "currency_forbidden", http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrBaseAmountMismatch):
		return "base_amount_mismatch", http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrInvalid):
		return "invalid", http.StatusBadRequest
	default:
		return "internal", http.StatusInternalServerError
	}
}
