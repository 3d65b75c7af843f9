package tagging

import (
	"encoding/json"
	"time"

	"github.com/LC1207/mint-amazon-tagger/internal/adapters/ledger"
	"github.com/LC1207/mint-amazon-tagger/internal/infrastructure/storage"
)

// backupLedger snapshots the fetched ledger state before anything is
// modified. Failure is logged, not fatal.
func (o *Orchestrator) backupLedger(trans []*ledger.Transaction, categoryIDs map[string]string) {
	if o.storage == nil {
		return
	}

	transJSON, err := json.Marshal(trans)
	if err != nil {
		o.logger.Warn("Failed to serialize transactions for backup", "error", err)
		return
	}
	catsJSON, err := json.Marshal(categoryIDs)
	if err != nil {
		o.logger.Warn("Failed to serialize categories for backup", "error", err)
		return
	}

	if err := o.storage.SaveBackup(transJSON, catsJSON); err != nil {
		o.logger.Warn("Failed to save ledger backup", "error", err)
	}
}

// recordRun persists the run and one record per tagged transaction.
func (o *Orchestrator) recordRun(runID string, startedAt time.Time, results []*ledger.Result, stats *Stats, opts Options) {
	if o.storage == nil {
		return
	}

	run := &storage.TaggingRun{
		ID:         runID,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		DryRun:     opts.DryRun,
		Itemize:    opts.Itemize,
		Stats:      stats.Map(),
	}
	if err := o.storage.SaveRun(run); err != nil {
		o.logger.Warn("Failed to record run", "run_id", runID, "error", err)
		return
	}

	records := make([]*storage.TagRecord, 0, len(results))
	for _, res := range results {
		rec := &storage.TagRecord{
			RunID:            runID,
			TransactionID:    res.Original.ID,
			TransactionDate:  res.Original.Date,
			Description:      res.Original.Description,
			Amount:           res.Original.Amount.Float64(),
			ReplacementCount: len(res.Replacements),
		}
		for _, repl := range res.Replacements {
			rec.Replacements = append(rec.Replacements, storage.ReplacementDetail{
				Description: repl.Description,
				Category:    repl.Category,
				CategoryID:  repl.CategoryID,
				Amount:      repl.Amount.Float64(),
				IsDebit:     repl.IsDebit,
				Note:        repl.Note,
			})
		}
		records = append(records, rec)
	}
	if err := o.storage.SaveTagRecords(records); err != nil {
		o.logger.Warn("Failed to record tagged transactions", "run_id", runID, "error", err)
	}
}
