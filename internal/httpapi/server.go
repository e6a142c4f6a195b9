// Package httpapi wires the HTTP surface of the bookkeeping service. It
// keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ledgerline/bookkeeper/internal/config"
	"github.com/ledgerline/bookkeeper/internal/fx"
	"github.com/ledgerline/bookkeeper/internal/service/account"
	"github.com/ledgerline/bookkeeper/internal/service/chart"
	"github.com/ledgerline/bookkeeper/internal/service/journal"
)

// Store is the union of repository and writer interfaces the API needs;
// both storage backends satisfy it.
type Store interface {
	chart.Repo
	chart.Writer
	account.Repo
	account.Writer
	journal.Repo
	journal.Writer
}

// ReadyChecker is optionally implemented by stores to indicate readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// Server wires handlers and middleware using chi.
type Server struct {
	cfg        *config.Config
	chartSvc   chart.Service
	accountSvc account.Service
	journalSvc journal.Service
	gateway    fx.Gateway
	store      Store
	log        *slog.Logger
	rt         *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
func New(cfg *config.Config, store Store, gateway fx.Gateway, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		cfg:        cfg,
		chartSvc:   chart.New(store, store),
		accountSvc: account.New(cfg, store, store),
		journalSvc: journal.New(cfg, store, store),
		gateway:    gateway,
		store:      store,
		log:        logger,
		rt:         r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints.
func (s *Server) routes() {
	// Charts
	s.rt.Get("/v1/charts", s.listCharts)
	s.rt.Get("/v1/charts/{id}", s.getChart)
	s.rt.Get("/v1/charts/{id}/parent", s.getParentChart)
	s.rt.Post("/v1/charts", s.postChart)
	s.rt.Post("/v1/charts/{id}/move", s.moveChart)
	s.rt.Put("/v1/charts/tree", s.putChartTree)
	s.rt.Delete("/v1/charts/{id}", s.deleteChart)
	// Accounts
	s.rt.Post("/v1/accounts", s.postAccount)
	s.rt.Get("/v1/accounts", s.listAccountsByChart)
	s.rt.Get("/v1/accounts/{id}", s.getAccount)
	s.rt.Patch("/v1/accounts/{id}", s.updateAccount)
	s.rt.Delete("/v1/accounts/{id}", s.deleteAccount)
	// Journals
	s.rt.Post("/v1/journals", s.postJournal)
	s.rt.Get("/v1/journals/{id}", s.getJournal)
	s.rt.Put("/v1/journals/{id}", s.putJournal)
	s.rt.Delete("/v1/journals/{id}", s.deleteJournal)
	// FX
	s.rt.Get("/v1/rates", s.getRate)
	// Ops
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Handle("/metrics", metricsHandler())
}
