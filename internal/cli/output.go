package cli

import (
	"fmt"
	"strings"

	"github.com/LC1207/mint-amazon-tagger/internal/adapters/ledger"
	"github.com/LC1207/mint-amazon-tagger/internal/application/tagging"
	"github.com/LC1207/mint-amazon-tagger/internal/infrastructure/storage"
)

// PrintHeader prints the application header
func PrintHeader(dryRun bool) {
	mode := "PRODUCTION"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Printf("mint-amazon-tagger (%s mode)\n", mode)
}

// PrintConfiguration prints the tagging configuration
func PrintConfiguration(opts tagging.Options, items, orders, refunds int) {
	fmt.Printf("Items: %d | Orders: %d | Refunds: %d", items, orders, refunds)
	if !opts.Itemize {
		fmt.Printf(" | Itemize: off")
	}
	if opts.RetagChanged {
		fmt.Printf(" | Retag changed: true")
	}
	fmt.Print("\n\n")
}

// PrintProposed prints each proposed replacement set, one original
// transaction followed by the entries that would replace it.
func PrintProposed(results []*ledger.Result) {
	for _, res := range results {
		orig := res.Original
		fmt.Printf("%s  %s  %s  (%s)\n",
			orig.Date.Format("2006-01-02"),
			orig.Amount,
			orig.Description,
			orig.Category)
		for _, rep := range res.Replacements {
			fmt.Printf("    -> %s  %s  (%s)\n",
				rep.Amount,
				rep.Description,
				rep.Category)
		}
	}
}

// PrintRunSummary prints the run result summary
func PrintRunSummary(result *tagging.RunResult, store storage.Repository, dryRun bool) {
	stats := result.Stats
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Summary: Candidates=%d OrderMatches=%d RefundMatches=%d Proposed=%d\n",
		stats.Candidates,
		stats.OrderMatch,
		stats.RefundMatch,
		stats.ToUpdate)
	fmt.Printf("Skipped: Pending=%d NoChange=%d AlreadyTagged=%d CombinatoricFail=%d\n",
		stats.Pending,
		stats.NoChange,
		stats.AlreadyTagged,
		stats.CombinatoricFail)
	if stats.QuantityAdjust > 0 || stats.TaxRebalance > 0 || stats.MiscCharge > 0 {
		fmt.Printf("Adjustments: Quantity=%d Tax=%d Misc=%d\n",
			stats.QuantityAdjust,
			stats.TaxRebalance,
			stats.MiscCharge)
	}

	// Get stats from database
	if store != nil {
		allTime, _ := store.GetStats()
		if allTime != nil && allTime.TotalRuns > 0 {
			fmt.Printf("\nAll-Time Stats: Runs=%d Tagged=%d DryRuns=%d\n",
				allTime.TotalRuns,
				allTime.TotalTagged,
				allTime.DryRunCount)
		}
	}

	if !dryRun && stats.ToUpdate > 0 {
		fmt.Println("\nTagging completed successfully.")
	}
}
