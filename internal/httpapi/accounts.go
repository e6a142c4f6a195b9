package httpapi

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// postAccount handles POST /v1/accounts
func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	var req accountPayload
	if err := decodeStrict(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	created, err := s.accountSvc.Add(r.Context(), toAccountDomain(req))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toAccountResponse(created))
}

// listAccountsByChart handles GET /v1/accounts?chart_id=
func (s *Server) listAccountsByChart(w http.ResponseWriter, r *http.Request) {
	chartID, err := uuid.Parse(r.URL.Query().Get("chart_id"))
	if err != nil {
		badRequest(w, "chart_id is required")
		return
	}
	accounts, err := s.accountSvc.GetByChart(r.Context(), chartID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]accountPayload, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	toJSON(w, http.StatusOK, out)
}

// getAccount handles GET /v1/accounts/{id}
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid account id")
		return
	}
	a, err := s.accountSvc.Get(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(a))
}

// updateAccount handles PATCH /v1/accounts/{id}
func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid account id")
		return
	}
	var req accountPayload
	if err := decodeStrict(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	a := toAccountDomain(req)
	a.ID = id
	updated, err := s.accountSvc.Update(r.Context(), a)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(updated))
}

// deleteAccount handles DELETE /v1/accounts/{id}?force=
func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid account id")
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	if err := s.accountSvc.Delete(r.Context(), id, force); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
