package matcher

import (
	"math"

	"github.com/LC1207/mint-amazon-tagger/internal/adapters/ledger"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/money"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/report"
)

// rebalanceTax redistributes a per-item tax miscalculation across the item
// lines one cent at a time: a shortfall goes to the item with the lowest
// current tax rate, an excess comes off the item with the highest. Rates
// are recomputed after every step and ties go to the first item in sorted
// order. Greedy, not proven optimal; kept as-is because its exact
// allocation is observable in the output.
//
// items[i] must correspond to lines[i]; item tax, item total, and line
// amount move in lockstep with diff until it converges.
func rebalanceTax(items []report.Item, lines []*ledger.Transaction, diff money.MicroUSD) {
	rates := make([]float64, len(items))
	for i := range items {
		rates[i] = taxRate(&items[i])
	}

	for diff.Abs() > money.Eps {
		if diff > 0 {
			idx := -1
			for i, rate := range rates {
				if rate != 0 && (idx == -1 || rate < rates[idx]) {
					idx = i
				}
			}
			if idx == -1 {
				// Every item is untaxed; nothing to credit the
				// shortfall against.
				return
			}
			items[idx].SubtotalTax += money.Cent
			items[idx].Total += money.Cent
			lines[idx].Amount += money.Cent
			diff -= money.Cent
			rates[idx] = taxRate(&items[idx])
		} else {
			idx := 0
			for i, rate := range rates {
				if rate > rates[idx] {
					idx = i
				}
			}
			items[idx].SubtotalTax -= money.Cent
			items[idx].Total -= money.Cent
			lines[idx].Amount -= money.Cent
			diff += money.Cent
			rates[idx] = taxRate(&items[idx])
		}
	}
}

// taxRate is the item's tax percentage rounded to one decimal place. The
// rounding makes near-equal rates compare equal, so corrections go to the
// true extremes first.
func taxRate(item *report.Item) float64 {
	if item.Subtotal == 0 {
		return 0
	}
	return math.Round(float64(item.SubtotalTax)*1000/float64(item.Subtotal)) / 10
}
