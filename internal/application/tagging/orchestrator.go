package tagging

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LC1207/mint-amazon-tagger/internal/adapters/ledger"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/formatter"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/index"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/matcher"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/money"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/report"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/validator"
)

// Tag matches ledger transactions against the report records and returns
// the proposed replacements, unvalidated. Transactions are processed in
// posted-date order so earlier charges claim earlier shipments.
func (o *Orchestrator) Tag(
	items []*report.Item,
	orders []*report.Order,
	refunds []*report.Refund,
	trans []*ledger.Transaction,
	opts Options,
) ([]*ledger.Result, *Stats) {
	stats := &Stats{}

	var charged, refunded money.MicroUSD
	for _, ord := range orders {
		charged += ord.TotalCharged
	}
	for _, r := range refunds {
		refunded += r.TotalRefund
	}
	o.logger.Info("Report corpus",
		"items", len(items),
		"orders", len(orders),
		"charged", charged.String(),
		"refunds", len(refunds),
		"refunded", refunded.String(),
		"transactions", len(trans),
	)

	trans = ledger.Unsplit(trans)
	sort.SliceStable(trans, func(i, j int) bool {
		return trans[i].Date.Before(trans[j].Date)
	})

	idx := index.Build(items, orders, refunds)
	claims := matcher.NewClaimSet()
	keyword := strings.ToLower(opts.MerchantKeyword)

	var results []*ledger.Result
	for _, t := range trans {
		if !strings.Contains(strings.ToLower(t.Description), keyword) {
			continue
		}
		stats.Candidates++

		if t.IsPending {
			o.logger.Debug("Skipping pending transaction", "transaction_id", t.ID)
			stats.Pending++
			continue
		}

		var out *matcher.Outcome
		if t.IsDebit {
			out = o.matcher.MatchOrder(t, idx, claims)
			if out.Matched {
				stats.OrderMatch++
			}
		} else {
			out = o.matcher.MatchRefund(t, idx, claims)
			if out.Matched {
				stats.RefundMatch++
			}
		}
		if !out.Matched {
			continue
		}

		if out.QuantityAdjusted {
			stats.QuantityAdjust++
		}
		if out.TaxRebalanced {
			stats.TaxRebalance++
		}
		if out.MiscCharge {
			stats.MiscCharge++
		}
		if out.NeedsCombinatoricFix {
			stats.CombinatoricFail++
		}
		if len(out.Lines) == 0 {
			// Matched and claimed, but itemization was abandoned.
			continue
		}

		prefix := opts.Prefix(t.IsDebit)
		var replacements []*ledger.Transaction
		if opts.Itemize {
			replacements = formatter.Itemize(out.Lines, prefix)
		} else {
			replacements = formatter.Summarize(t, out.Lines, prefix)
		}

		results = append(results, &ledger.Result{
			Original:     t,
			Replacements: replacements,
		})
		stats.Tagged++
	}

	return results, stats
}

// Run executes a full tagging run: fetch, match, validate, apply, record.
func (o *Orchestrator) Run(
	ctx context.Context,
	items []*report.Item,
	orders []*report.Order,
	refunds []*report.Refund,
	opts Options,
) (*RunResult, error) {
	runID := uuid.NewString()
	startedAt := time.Now()

	o.logger.Info("Starting tagging run",
		"run_id", runID,
		"dry_run", opts.DryRun,
		"itemize", opts.Itemize,
	)

	o.logger.Debug("Fetching ledger transactions")
	trans, err := o.client.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	o.logger.Debug("Loading ledger categories")
	categoryIDs, err := o.client.CategoryIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	o.backupLedger(trans, categoryIDs)

	results, stats := o.Tag(items, orders, refunds, trans, opts)

	valid, vsum, err := validator.ValidateAndFilter(results, categoryIDs, validator.Options{
		RetagChanged: opts.RetagChanged,
		Prefix:       opts.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	stats.NoChange = vsum.NoChange
	stats.AlreadyTagged = vsum.AlreadyTagged
	stats.ToUpdate = len(valid)

	if !opts.DryRun {
		if err := o.apply(ctx, valid); err != nil {
			return nil, err
		}
	} else {
		o.logger.Info("[DRY RUN] Skipping ledger updates", "to_update", len(valid))
	}

	o.recordRun(runID, startedAt, valid, stats, opts)

	o.logger.Info("Tagging run complete",
		"run_id", runID,
		"candidates", stats.Candidates,
		"order_matches", stats.OrderMatch,
		"refund_matches", stats.RefundMatch,
		"updated", stats.ToUpdate,
	)

	return &RunResult{RunID: runID, Results: valid, Stats: stats}, nil
}

// apply pushes validated replacements to the ledger. A single replacement
// is an in-place edit; several become a split.
func (o *Orchestrator) apply(ctx context.Context, results []*ledger.Result) error {
	for _, res := range results {
		var err error
		if len(res.Replacements) == 1 {
			err = o.client.UpdateTransaction(ctx, res)
		} else {
			err = o.client.SplitTransaction(ctx, res)
		}
		if err != nil {
			return fmt.Errorf("failed to update transaction %s: %w", res.Original.ID, err)
		}
		o.logger.Debug("Updated transaction",
			"transaction_id", res.Original.ID,
			"replacements", len(res.Replacements),
		)
	}
	return nil
}
