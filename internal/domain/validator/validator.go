// Package validator performs the final gate before results reach the
// ledger: amount conservation, category resolution, and suppression of
// entries that would be no-ops.
package validator

import (
	"fmt"
	"strings"

	"github.com/LC1207/mint-amazon-tagger/internal/adapters/ledger"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/money"
)

// Options controls filtering behavior.
type Options struct {
	// RetagChanged keeps entries whose original description already
	// carries the prefix (i.e. were tagged by a prior run).
	RetagChanged bool

	// Prefix returns the description prefix for a debit or credit.
	Prefix func(isDebit bool) string
}

// Summary counts the entries dropped by filtering.
type Summary struct {
	NoChange      int
	AlreadyTagged int
}

// signature identifies a transaction for change detection. The amount is
// compared as a string to sidestep numeric representation differences.
type signature struct {
	description string
	amount      string
	category    string
}

func signatureOf(t *ledger.Transaction) signature {
	return signature{t.Description, t.Amount.String(), t.Category}
}

// ValidateAndFilter checks every result and drops the ones that would not
// change the ledger. A conservation violation or an unknown category name
// is an internal defect and fails the whole run; nothing may be applied
// after a partial validation.
func ValidateAndFilter(results []*ledger.Result, categoryIDs map[string]string, opts Options) ([]*ledger.Result, Summary, error) {
	var summary Summary

	for _, res := range results {
		diff := res.Original.Amount - ledger.SumAmounts(res.Replacements)
		if diff.Abs() >= money.Eps {
			return nil, summary, fmt.Errorf(
				"amount conservation violated for transaction %s: original %s, replacements sum %s",
				res.Original.ID, res.Original.Amount, ledger.SumAmounts(res.Replacements))
		}
	}

	for _, res := range results {
		for _, repl := range res.Replacements {
			id, ok := categoryIDs[repl.Category]
			if !ok {
				return nil, summary, fmt.Errorf(
					"unknown ledger category %q on replacement for transaction %s",
					repl.Category, res.Original.ID)
			}
			repl.CategoryID = id
		}
	}

	var filtered []*ledger.Result
	for _, res := range results {
		if !changed(res) {
			summary.NoChange++
			continue
		}
		if !opts.RetagChanged && hasPrefix(res.Original, opts.Prefix) {
			summary.AlreadyTagged++
			continue
		}
		filtered = append(filtered, res)
	}
	return filtered, summary, nil
}

// changed compares the original (or its prior split, when present)
// against the replacements as order-insensitive signature sets.
func changed(res *ledger.Result) bool {
	originals := []*ledger.Transaction{res.Original}
	if len(res.Original.Children) > 0 {
		originals = res.Original.Children
	}

	before := make(map[signature]int)
	for _, t := range originals {
		before[signatureOf(t)]++
	}
	after := make(map[signature]int)
	for _, t := range res.Replacements {
		after[signatureOf(t)]++
	}

	if len(before) != len(after) {
		return true
	}
	for sig, n := range before {
		if after[sig] != n {
			return true
		}
	}
	return false
}

func hasPrefix(t *ledger.Transaction, prefix func(bool) string) bool {
	if prefix == nil {
		return false
	}
	p := prefix(t.IsDebit)
	return p != "" && strings.HasPrefix(t.Description, p)
}
