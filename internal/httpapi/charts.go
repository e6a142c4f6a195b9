package httpapi

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ledgerline/bookkeeper/internal/ledger"
	"github.com/ledgerline/bookkeeper/internal/service/chart"
)

func parseID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// listCharts handles GET /v1/charts?acct_type=
func (s *Server) listCharts(w http.ResponseWriter, r *http.Request) {
	typ := ledger.AccountType(r.URL.Query().Get("acct_type"))
	charts, err := s.chartSvc.GetCharts(r.Context(), typ)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	out := make([]chartResponse, 0, len(charts))
	for _, c := range charts {
		out = append(out, toChartResponse(c))
	}
	toJSON(w, http.StatusOK, out)
}

// getChart handles GET /v1/charts/{id}
func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid chart id")
		return
	}
	c, err := s.chartSvc.GetChart(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toChartResponse(c))
}

// getParentChart handles GET /v1/charts/{id}/parent
func (s *Server) getParentChart(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid chart id")
		return
	}
	c, err := s.chartSvc.GetParentChart(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toChartResponse(c))
}

// postChart handles POST /v1/charts
func (s *Server) postChart(w http.ResponseWriter, r *http.Request) {
	var req postChartRequest
	if err := decodeStrict(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	child := ledger.Chart{Name: req.Name, Type: req.AcctType}
	created, err := s.chartSvc.AddChart(r.Context(), child, req.ParentID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toChartResponse(created))
}

// moveChart handles POST /v1/charts/{id}/move
func (s *Server) moveChart(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid chart id")
		return
	}
	var req moveChartRequest
	if err := decodeStrict(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if err := s.chartSvc.MoveChart(r.Context(), id, req.NewParentID); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// putChartTree handles PUT /v1/charts/tree: the bulk save that diffs the
// supplied tree against the persisted state.
func (s *Server) putChartTree(w http.ResponseWriter, r *http.Request) {
	var req putChartTreeRequest
	if err := decodeStrict(r, &req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	nodes := make([]ledger.Chart, 0, len(req.Nodes))
	for _, n := range req.Nodes {
		c := ledger.Chart{ID: n.ChartID, Name: n.Name, Type: req.AcctType}
		if n.ParentID != nil {
			c.ParentID = *n.ParentID
		}
		nodes = append(nodes, c)
	}
	tree, err := chart.FromNodes(req.AcctType, nodes)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if err := s.chartSvc.Save(r.Context(), tree); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteChart handles DELETE /v1/charts/{id}
func (s *Server) deleteChart(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		badRequest(w, "invalid chart id")
		return
	}
	if err := s.chartSvc.DeleteChart(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
