package matcher

import (
	"sort"

	"github.com/LC1207/mint-amazon-tagger/internal/adapters/ledger"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/category"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/index"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/money"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/report"
)

// subtotalEps is the tolerance (0.0001 USD) for comparing summed item
// subtotals against the order subtotal. Both sides are cent-quantized
// ints, so this is an exact-equality check with float-era slack.
const subtotalEps money.MicroUSD = 100

// MatchOrder finds the order charged for a debit transaction and breaks it
// into per-item, shipping, and promotion lines. The candidate orders are
// those whose Total Charged equals the transaction amount; the closest
// unclaimed shipment date within the day window wins.
func (m *Matcher) MatchOrder(t *ledger.Transaction, idx *index.Indexes, claims *ClaimSet) *Outcome {
	out := &Outcome{}

	var order *report.Order
	closestDays := 365
	for _, o := range idx.AmountToOrders[t.Amount] {
		days := absInt(money.DaysApart(t.OrderDate, o.ShipmentDate))
		if days <= m.config.DateToleranceDays && days < closestDays && !claims.OrderClaimed(o) {
			order = o
			closestDays = days
		}
	}
	if order == nil {
		m.logger.Debug("no viable order for transaction",
			"transaction_id", t.ID, "amount", t.Amount)
		return out
	}
	out.Matched = true
	claims.ClaimOrder(order, t.ID)
	m.logger.Debug("matched order",
		"transaction_id", t.ID, "order_id", order.OrderID, "days_apart", closestDays)

	items, ok := m.resolveItems(order, idx, out)
	if !ok {
		return out
	}

	// Costlier items are more interesting for budgeting, so show them
	// first (for both itemized and summarized output).
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Total > items[j].Total
	})

	items, ok = m.reconcileSubtotal(order, items, out)
	if !ok {
		return out
	}

	lines := m.synthesizeLines(t, order, items)
	out.Lines = m.reconcileTotal(t, order, items, lines, out)
	return out
}

// resolveItems cross-references the order's shipment with the item
// reports. The tracking id is preferred since one order id can span
// several shipments and charges; the order-id index is the fallback for
// re-associating split-quantity shipments and trackingless digital goods.
func (m *Matcher) resolveItems(order *report.Order, idx *index.Indexes, out *Outcome) ([]report.Item, bool) {
	tracked := idx.TrackingToItems[order.TrackingID]
	if order.TrackingID != "" && len(tracked) > 0 {
		// Items from multiple orders can ship in one box (but are
		// charged independently), so restrict to this order id.
		var items []report.Item
		for _, i := range tracked {
			if i.OrderID == order.OrderID {
				items = append(items, *i)
			}
		}
		if len(items) == 0 {
			out.NeedsCombinatoricFix = true
			m.logger.Debug("order needs combinatoric adjustment", "order_id", order.OrderID)
			return nil, false
		}
		return items, true
	}

	pool := idx.OrderIDToItems[order.OrderID]
	if len(pool) == 0 {
		return nil, false
	}

	// This shipment carries a one-unit slice of a multi-unit item row.
	// Find the item whose unit price equals the charged subtotal and
	// carve a quantity-1 copy off it.
	for _, i := range pool {
		if i.UnitPrice != order.Subtotal {
			continue
		}
		adjusted, err := report.AdjustQuantity(*i, 1)
		if err != nil {
			continue
		}
		absorbCentResidue(&adjusted, order)
		out.QuantityAdjusted = true
		return []report.Item{adjusted}, true
	}

	// No single-item slice explains the charge; a subset of items would
	// have to be searched, which is deliberately not attempted.
	out.NeedsCombinatoricFix = true
	m.logger.Debug("order needs combinatoric adjustment", "order_id", order.OrderID)
	return nil, false
}

// reconcileSubtotal verifies the item subtotals sum to the order subtotal.
// A lone mismatching item usually means this charge covers fewer units
// than the row's quantity; try every smaller quantity for an exact fit.
func (m *Matcher) reconcileSubtotal(order *report.Order, items []report.Item, out *Outcome) ([]report.Item, bool) {
	var itemsSum money.MicroUSD
	for i := range items {
		itemsSum += items[i].Subtotal
	}
	if (itemsSum - order.Subtotal).Abs() <= subtotalEps {
		return items, true
	}

	if len(items) != 1 {
		out.NeedsCombinatoricFix = true
		m.logger.Debug("multi-item subtotal mismatch", "order_id", order.OrderID)
		return nil, false
	}

	item := items[0]
	for q := 1; q <= item.Quantity; q++ {
		if item.UnitPrice*money.MicroUSD(q) != order.Subtotal {
			continue
		}
		adjusted, err := report.AdjustQuantity(item, q)
		if err != nil {
			break
		}
		absorbCentResidue(&adjusted, order)
		items[0] = adjusted
		return items, true
	}

	// No quantity explains the charge. Drop the match.
	return nil, false
}

// synthesizeLines builds the replacement entries: one debit per item, a
// shipping line carrying the derived shipping tax, and a single credit for
// all promotions.
func (m *Matcher) synthesizeLines(t *ledger.Transaction, order *report.Order, items []report.Item) []*ledger.Transaction {
	lines := make([]*ledger.Transaction, 0, len(items)+2)
	notes := order.NotesHeader()

	for i := range items {
		it := &items[i]
		line := t.Clone()
		line.Description = report.LineTitle(it.Quantity, it.Title, m.config.DescriptionLength)
		line.Category = category.ForItem(it.Category)
		line.CategoryID = ""
		line.Amount = it.Total
		line.IsDebit = true
		line.Note = notes
		lines = append(lines, line)
	}

	var ship, promo *ledger.Transaction
	if order.ShippingCharge != 0 {
		// Shipping is taxed like the items, but its tax is not broken
		// out anywhere in the reports; derive it.
		shipTax := order.TaxCharged - sumSubtotalTax(items)
		ship = t.Clone()
		ship.Description = "Shipping"
		ship.Category = "Shipping"
		ship.CategoryID = ""
		ship.Amount = order.ShippingCharge + shipTax
		ship.IsDebit = true
		ship.Note = notes
		lines = append(lines, ship)
	}

	if order.TotalPromotions != 0 {
		promo = t.Clone()
		promo.Description = "Promotion(s)"
		promo.Category = category.Default
		promo.CategoryID = ""
		promo.Amount = -order.TotalPromotions
		promo.IsDebit = false
		promo.Note = notes
		lines = append(lines, promo)
	}

	// A promotion matching the shipping cost is nearly certainly a free
	// shipping promo; categorize it as Shipping so the two cancel out in
	// spending trends. Otherwise, if tax was computed before the
	// promotion applied, attribute the difference to the promotion.
	taxDiff := order.TaxBeforePromotions - order.TaxCharged
	switch {
	case promo != nil && ship != nil && promo.Amount.Abs() == ship.Amount:
		promo.Category = "Shipping"
	case promo != nil && taxDiff != 0:
		promo.Amount -= taxDiff
	}

	return lines
}

// reconcileTotal closes the gap between the synthesized lines and the
// original transaction amount. A gap explained by per-item tax
// miscalculation is rebalanced cent by cent; anything else becomes a
// visible misc-charge line.
func (m *Matcher) reconcileTotal(t *ledger.Transaction, order *report.Order, items []report.Item, lines []*ledger.Transaction, out *Outcome) []*ledger.Transaction {
	itemizedDiff := t.Amount - ledger.SumAmounts(lines)
	if itemizedDiff.Abs() <= money.Eps {
		return lines
	}

	// The cent-stepping rebalance converges only on a gap that is a whole
	// number of cents; quantity proration can leave a fractional-cent gap
	// that would make it oscillate forever.
	taxGap := order.TaxBeforePromotions - sumSubtotalTax(items)
	if money.NearlyEqual(itemizedDiff, taxGap) && centAligned(taxGap) {
		out.TaxRebalanced = true
		rebalanceTax(items, lines, taxGap)
		return lines
	}

	// Untracked fees (gift wrap and friends). Itemize with a vague line
	// rather than failing the match.
	out.MiscCharge = true
	adjustment := t.Clone()
	adjustment.Description = "Misc Charge (Gift wrap, etc)"
	adjustment.Category = category.Default
	adjustment.CategoryID = ""
	adjustment.Amount = itemizedDiff
	adjustment.IsDebit = true
	adjustment.Note = order.NotesHeader()
	return append(lines, adjustment)
}

// absorbCentResidue folds any sub-cent difference between the recomputed
// item total and the charged total into the item's tax fields.
func absorbCentResidue(item *report.Item, order *report.Order) {
	diff := order.TotalCharged - item.Total
	if diff != 0 && diff.Abs() < money.Cent {
		item.Total += diff
		item.SubtotalTax += diff
	}
}

// centAligned reports whether the amount is within Eps of a whole number
// of cents.
func centAligned(amount money.MicroUSD) bool {
	rem := amount.Abs() % money.Cent
	return rem < money.Eps || money.Cent-rem < money.Eps
}

func sumSubtotalTax(items []report.Item) money.MicroUSD {
	var sum money.MicroUSD
	for i := range items {
		sum += items[i].SubtotalTax
	}
	return sum
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
