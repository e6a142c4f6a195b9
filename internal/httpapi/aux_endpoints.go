package httpapi

import (
	"net/http"
	"time"
)

// healthz reports process liveness.
func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	toJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz reports storage readiness when the store supports it.
func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if rc, ok := s.store.(ReadyChecker); ok {
		if err := rc.Ready(r.Context()); err != nil {
			toJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	toJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getRate handles GET /v1/rates?currency=&date=YYYY-MM-DD
func (s *Server) getRate(w http.ResponseWriter, r *http.Request) {
	currency := r.URL.Query().Get("currency")
	if currency == "" {
		badRequest(w, "currency is required")
		return
	}
	raw := r.URL.Query().Get("date")
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		badRequest(w, "invalid date")
		return
	}
	rate, err := s.gateway.Rate(currency, date)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, rateResponse{Currency: currency, Date: raw, Rate: rate})
}
