// Package formatter turns a matched transaction's synthesized lines into
// the final replacement records, either as N itemized entries or one
// summarized entry.
package formatter

import (
	"strings"

	"github.com/LC1207/mint-amazon-tagger/internal/adapters/ledger"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/category"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/report"
)

// summaryLengthBudget is the ledger's description length limit, shared
// evenly across summarized item titles.
const summaryLengthBudget = 100

// Administrative lines are excluded from summarized descriptions.
var adminDescriptions = map[string]bool{
	"Promotion(s)":   true,
	"Shipping":       true,
	"Tax adjustment": true,
}

// Itemize prefixes every line's description for easy keyword searching and
// reverses the list: the ledger UI renders splits in reverse order, so the
// first (most expensive) entry must go in last.
func Itemize(lines []*ledger.Transaction, prefix string) []*ledger.Transaction {
	reversed := make([]*ledger.Transaction, len(lines))
	for i, line := range lines {
		line.Description = prefix + line.Description
		reversed[len(lines)-1-i] = line
	}
	return reversed
}

// Summarize folds all lines into a single replacement for the original
// transaction: the description concatenates the truncated item titles
// under a shared length budget, the category survives only when there is
// exactly one item, and the full itemization is preserved in the note.
func Summarize(original *ledger.Transaction, lines []*ledger.Transaction, prefix string) []*ledger.Transaction {
	var itemLines []*ledger.Transaction
	for _, line := range lines {
		if !adminDescriptions[line.Description] {
			itemLines = append(itemLines, line)
		}
	}

	titles := make([]string, 0, len(itemLines))
	if len(itemLines) > 0 {
		perItem := (summaryLengthBudget - len(prefix) - 2*len(itemLines)) / len(itemLines)
		for _, line := range itemLines {
			titles = append(titles, report.TruncateTitle(line.Description, perItem, ""))
		}
	}

	var notes strings.Builder
	if len(lines) > 0 {
		notes.WriteString(lines[0].Note)
	}
	notes.WriteString("\nItem(s):")
	for _, line := range lines {
		notes.WriteString("\n - ")
		notes.WriteString(line.Description)
	}

	summary := original.Clone()
	summary.Description = prefix + strings.Join(titles, ", ")
	if len(itemLines) == 1 {
		summary.Category = itemLines[0].Category
	} else {
		summary.Category = category.Default
	}
	summary.CategoryID = ""
	summary.Note = notes.String()
	return []*ledger.Transaction{summary}
}
