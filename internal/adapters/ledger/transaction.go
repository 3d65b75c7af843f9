// Package ledger defines the ledger-side transaction model and the HTTP
// client used to apply reconciliation results to the ledger service.
package ledger

import (
	"time"

	"github.com/LC1207/mint-amazon-tagger/internal/domain/money"
)

// Transaction is a single ledger entry. Amounts are sign-normalized:
// debits positive, credits negative.
type Transaction struct {
	ID          string
	ParentID    string
	Date        time.Time
	OrderDate   time.Time // posted date used for matching
	Amount      money.MicroUSD
	Description string
	Category    string
	CategoryID  string
	Note        string
	IsDebit     bool
	IsPending   bool
	IsChild     bool

	// Children holds the prior itemized split of a reconstituted parent.
	// Set only by Unsplit.
	Children []*Transaction
}

// Clone returns a copy of the transaction with no children.
func (t *Transaction) Clone() *Transaction {
	c := *t
	c.Children = nil
	return &c
}

// Result pairs one original ledger transaction with its synthesized
// replacements. A single replacement is applied as an in-place edit;
// several become a split.
type Result struct {
	Original     *Transaction
	Replacements []*Transaction
}

// SumAmounts totals the amounts of a transaction list.
func SumAmounts(trans []*Transaction) money.MicroUSD {
	var sum money.MicroUSD
	for _, t := range trans {
		sum += t.Amount
	}
	return sum
}

// Unsplit reconstitutes previously split transactions: children sharing a
// parent id collapse into one synthetic parent whose amount is the sum of
// the children. Itemization is always re-derived from the unsplit amount,
// never patched incrementally, so matching operates on parents only.
func Unsplit(trans []*Transaction) []*Transaction {
	var result []*Transaction
	childrenByParent := make(map[string][]*Transaction)
	var parentOrder []string

	for _, t := range trans {
		if t.IsChild {
			if _, seen := childrenByParent[t.ParentID]; !seen {
				parentOrder = append(parentOrder, t.ParentID)
			}
			childrenByParent[t.ParentID] = append(childrenByParent[t.ParentID], t)
		} else {
			result = append(result, t)
		}
	}

	for _, pid := range parentOrder {
		children := childrenByParent[pid]
		parent := children[0].Clone()
		parent.ID = pid
		parent.ParentID = ""
		parent.IsChild = false
		parent.Amount = SumAmounts(children)
		parent.IsDebit = parent.Amount > 0
		parent.Children = children
		result = append(result, parent)
	}

	return result
}
