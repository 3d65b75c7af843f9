package matcher

import (
	"github.com/LC1207/mint-amazon-tagger/internal/adapters/ledger"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/category"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/index"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/money"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/report"
)

// MatchRefund finds the refund group credited by a credit transaction and
// emits one credit line per (collapsed) refund row. Candidate groups are
// those whose total refund equals the credited amount; the closest
// unclaimed refund date within the day window wins, and claiming a group
// claims every row in it.
func (m *Matcher) MatchRefund(t *ledger.Transaction, idx *index.Indexes, claims *ClaimSet) *Outcome {
	out := &Outcome{}

	var group []*report.Refund
	closestDays := 365
	for _, g := range idx.AmountToRefunds[-t.Amount] {
		dated := firstDated(g)
		if dated == nil {
			continue
		}
		days := absInt(money.DaysApart(t.OrderDate, dated.RefundDate))
		if days <= m.config.DateToleranceDays && days < closestDays && !claims.AnyRefundClaimed(g) {
			group = g
			closestDays = days
		}
	}
	if group == nil {
		m.logger.Debug("no viable refund for transaction",
			"transaction_id", t.ID, "amount", t.Amount)
		return out
	}
	out.Matched = true
	claims.ClaimRefunds(group, t.ID)
	m.logger.Debug("matched refund group",
		"transaction_id", t.ID, "order_id", group[0].OrderID,
		"rows", len(group), "days_apart", closestDays)

	// Per-unit refunds come back as N rows of quantity 1; fold them.
	collapsed := report.CollapseRefunds(group)

	lines := make([]*ledger.Transaction, 0, len(collapsed))
	for _, r := range collapsed {
		line := t.Clone()
		line.Description = report.LineTitle(r.Quantity, r.Title, m.config.DescriptionLength)
		line.Category = category.ForRefund(r.Category)
		line.CategoryID = ""
		line.Amount = -r.TotalRefund
		line.IsDebit = false
		line.Note = r.NotesHeader()
		lines = append(lines, line)
	}
	out.Lines = lines
	return out
}

// firstDated returns the first refund in the group carrying a refund date.
func firstDated(group []*report.Refund) *report.Refund {
	for _, r := range group {
		if !r.RefundDate.IsZero() {
			return r
		}
	}
	return nil
}
