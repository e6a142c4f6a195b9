package memory

import (
	"github.com/ledgerline/bookkeeper/internal/service/account"
	"github.com/ledgerline/bookkeeper/internal/service/chart"
	"github.com/ledgerline/bookkeeper/internal/service/journal"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ chart.Repo     = (*Store)(nil)
	_ chart.Writer   = (*Store)(nil)
	_ account.Repo   = (*Store)(nil)
	_ account.Writer = (*Store)(nil)
	_ journal.Repo   = (*Store)(nil)
	_ journal.Writer = (*Store)(nil)
)
