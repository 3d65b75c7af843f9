// Package tagging orchestrates a full run: fetch ledger transactions,
// match them against the order-history reports, validate the proposed
// replacements, and apply them.
package tagging

import (
	"log/slog"

	"github.com/LC1207/mint-amazon-tagger/internal/adapters/ledger"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/matcher"
	"github.com/LC1207/mint-amazon-tagger/internal/infrastructure/storage"
)

// Options holds run configuration
type Options struct {
	DryRun          bool
	Itemize         bool   // one entry per item; false summarizes into a single entry
	RetagChanged    bool   // redo transactions already carrying the prefix when the split changed
	DebitPrefix     string // prepended to synthesized purchase descriptions
	CreditPrefix    string // prepended to synthesized refund descriptions
	MerchantKeyword string // case-insensitive description filter for candidates
}

// Prefix returns the description prefix for a debit or credit entry.
func (o Options) Prefix(isDebit bool) string {
	if isDebit {
		return o.DebitPrefix
	}
	return o.CreditPrefix
}

// Stats counts what happened during a run.
type Stats struct {
	Candidates       int // transactions matching the merchant keyword
	Pending          int // candidates skipped because still pending
	OrderMatch       int
	RefundMatch      int
	QuantityAdjust   int
	TaxRebalance     int
	MiscCharge       int
	CombinatoricFail int // matched but itemization abandoned
	Tagged           int // proposed before validation
	NoChange         int
	AlreadyTagged    int
	ToUpdate         int // proposed after validation
}

// Map flattens the stats for storage and logging.
func (s *Stats) Map() map[string]int {
	return map[string]int{
		"candidates":        s.Candidates,
		"pending":           s.Pending,
		"order_match":       s.OrderMatch,
		"refund_match":      s.RefundMatch,
		"quantity_adjust":   s.QuantityAdjust,
		"tax_rebalance":     s.TaxRebalance,
		"misc_charge":       s.MiscCharge,
		"combinatoric_fail": s.CombinatoricFail,
		"tagged":            s.Tagged,
		"no_change":         s.NoChange,
		"already_tagged":    s.AlreadyTagged,
		"to_update":         s.ToUpdate,
	}
}

// RunResult holds the outcome of a run
type RunResult struct {
	RunID   string
	Results []*ledger.Result // validated, ready-to-apply (or dry-run preview)
	Stats   *Stats
}

// Orchestrator runs the tagging process
type Orchestrator struct {
	client  ledger.Client
	matcher *matcher.Matcher
	storage storage.Repository
	logger  *slog.Logger
}

// NewOrchestrator creates a new tagging orchestrator. storage may be nil
// to skip run recording.
func NewOrchestrator(client ledger.Client, store storage.Repository, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		client:  client,
		matcher: matcher.NewMatcher(matcher.DefaultConfig(), logger),
		storage: store,
		logger:  logger,
	}
}
