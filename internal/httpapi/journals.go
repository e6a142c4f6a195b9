package httpapi

import (
	"net/http"
	"time"
)

// postJournal handles POST /v1/journals. With "reduce": true, entries
// sharing the same (account, entry_type, currency) key are collapsed
// before posting, the way document services do it.
func (s *Server) postJournal(w http.ResponseWriter, r *http.Request) {
	var req postJournalRequest
	if err := decodeStrict(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	j := toJournalDomain(req)
	if j.Date.IsZero() {
		j.Date = time.Now().UTC()
	}
	if req.Reduce {
		j = j.Reduce()
	}
	posted, err := s.journalSvc.Add(r.Context(), j)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	journalsPosted.Inc()
	toJSON(w, http.StatusCreated, toJournalResponse(posted))
}

// getJournal handles GET /v1/journals/{id}
func (s *Server) getJournal(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid journal id")
		return
	}
	j, err := s.journalSvc.Get(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toJournalResponse(j))
}

// putJournal handles PUT /v1/journals/{id}: delete then re-add under a
// fresh id, never a field-level patch.
func (s *Server) putJournal(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid journal id")
		return
	}
	var req postJournalRequest
	if err := decodeStrict(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	j := toJournalDomain(req)
	if j.Date.IsZero() {
		j.Date = time.Now().UTC()
	}
	if req.Reduce {
		j = j.Reduce()
	}
	replaced, err := s.journalSvc.Update(r.Context(), id, j)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toJournalResponse(replaced))
}

// deleteJournal handles DELETE /v1/journals/{id}
func (s *Server) deleteJournal(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid journal id")
		return
	}
	if err := s.journalSvc.Delete(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
