package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/ledgerline/bookkeeper/internal/coa"
	"github.com/ledgerline/bookkeeper/internal/config"
	"github.com/ledgerline/bookkeeper/internal/fx"
	"github.com/ledgerline/bookkeeper/internal/httpapi"
	"github.com/ledgerline/bookkeeper/internal/ledger"
	"github.com/ledgerline/bookkeeper/internal/storage/memory"
	pgstore "github.com/ledgerline/bookkeeper/internal/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	logger := buildLogger(cfg)
	slog.SetDefault(logger)

	gateway := fx.NewTable(cfg)

	var store httpapi.Store
	var closeFn func()

	if dsn := strings.TrimSpace(cfg.DatabaseURL()); dsn != "" {
		pg, err := pgstore.Open(ctx, dsn)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = func() { pg.Close() }
		store = pg
		logger.Info("storage backend: postgres")
	} else {
		mem := memory.New()
		if devSeedEnabled() {
			seedDefaultBooks(cfg, mem, logger)
		}
		store = mem
		logger.Info("storage backend: memory")
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httpapi.New(cfg, store, gateway, logger).Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("bookkeeper service listening", "addr", srv.Addr, "base_currency", cfg.BaseCurrency())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

func devSeedEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEV_SEED"))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// seedDefaultBooks loads the curated chart skeleton and system accounts
// into the in-memory store so a fresh process is immediately usable.
func seedDefaultBooks(cfg *config.Config, store *memory.Store, l *slog.Logger) {
	byName := make(map[string]ledger.Chart)
	for _, typ := range ledger.AccountTypes {
		def, ok := coa.DefaultTree(typ)
		if !ok {
			continue
		}
		seedNode(store, typ, def, uuid.Nil, byName)
	}
	for _, ad := range coa.SystemAccountDefs {
		node, ok := byName[ad.Chart]
		if !ok {
			l.Warn("seed: no chart node for system account", "account", ad.Name, "chart", ad.Chart)
			continue
		}
		currency := ""
		if ad.Type.BalanceSheet() {
			currency = cfg.BaseCurrency()
		}
		store.SeedAccount(ledger.Account{
			ID:       uuid.New(),
			Name:     ad.Name,
			Type:     ad.Type,
			Currency: currency,
			Chart:    node,
			System:   ad.System,
		})
	}
	l.Info("seeded default chart of accounts", "nodes", len(byName), "accounts", len(coa.SystemAccountDefs))
}

func seedNode(store *memory.Store, typ ledger.AccountType, def coa.NodeDef, parentID uuid.UUID, byName map[string]ledger.Chart) {
	c := ledger.Chart{ID: uuid.New(), Name: def.Name, Type: typ, ParentID: parentID}
	store.SeedChart(c)
	byName[def.Name] = c
	for _, child := range def.Children {
		seedNode(store, typ, child, c.ID, byName)
	}
}

func parseLogLevel(s string) slog.Leveler {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel())}
	if cfg.LogFormat() == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
