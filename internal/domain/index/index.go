// Package index builds the lookup structures the matchers search: orders
// keyed by charged amount, items keyed by tracking id and by order id, and
// refund groups keyed by total refunded amount.
package index

import (
	"fmt"

	"github.com/LC1207/mint-amazon-tagger/internal/domain/money"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/report"
)

// Indexes holds the multi-maps for one reconciliation run. Values keep
// input order so date tie-breaks stay deterministic.
type Indexes struct {
	AmountToOrders  map[money.MicroUSD][]*report.Order
	TrackingToItems map[string][]*report.Item
	OrderIDToItems  map[string][]*report.Item

	// AmountToRefunds maps a refunded amount to candidate refund groups.
	// A group is one or more refund rows that were (or may have been)
	// combined into a single credit.
	AmountToRefunds map[money.MicroUSD][][]*report.Refund
}

// Build constructs all indexes for a run.
func Build(items []*report.Item, orders []*report.Order, refunds []*report.Refund) *Indexes {
	idx := &Indexes{
		AmountToOrders:  make(map[money.MicroUSD][]*report.Order),
		TrackingToItems: make(map[string][]*report.Item),
		OrderIDToItems:  make(map[string][]*report.Item),
		AmountToRefunds: make(map[money.MicroUSD][][]*report.Refund),
	}

	for _, o := range orders {
		idx.AmountToOrders[o.TotalCharged] = append(idx.AmountToOrders[o.TotalCharged], o)
	}

	for _, i := range items {
		idx.TrackingToItems[i.TrackingID] = append(idx.TrackingToItems[i.TrackingID], i)
		idx.OrderIDToItems[i.OrderID] = append(idx.OrderIDToItems[i.OrderID], i)
	}

	idx.indexRefunds(refunds)
	return idx
}

// indexRefunds populates AmountToRefunds from three group shapes:
// every refund row alone, all rows of an order when they span more than
// one refund date, and all rows sharing an order id and refund date.
// The multi-date guard avoids double-counting orders fully refunded in a
// single day, which the per-day grouping already covers.
func (idx *Indexes) indexRefunds(refunds []*report.Refund) {
	for _, r := range refunds {
		idx.AmountToRefunds[r.TotalRefund] = append(
			idx.AmountToRefunds[r.TotalRefund], []*report.Refund{r})
	}

	byOrder := make(map[string][]*report.Refund)
	var orderKeys []string
	for _, r := range refunds {
		if _, seen := byOrder[r.OrderID]; !seen {
			orderKeys = append(orderKeys, r.OrderID)
		}
		byOrder[r.OrderID] = append(byOrder[r.OrderID], r)
	}
	for _, key := range orderKeys {
		group := byOrder[key]
		if len(group) == 1 {
			continue
		}
		dates := make(map[string]bool)
		for _, r := range group {
			dates[r.RefundDate.Format("2006-01-02")] = true
		}
		if len(dates) <= 1 {
			continue
		}
		total := refundTotal(group)
		idx.AmountToRefunds[total] = append(idx.AmountToRefunds[total], group)
	}

	byOrderDay := make(map[string][]*report.Refund)
	var dayKeys []string
	for _, r := range refunds {
		key := fmt.Sprintf("%s_%s", r.OrderID, r.RefundDate.Format("2006-01-02"))
		if _, seen := byOrderDay[key]; !seen {
			dayKeys = append(dayKeys, key)
		}
		byOrderDay[key] = append(byOrderDay[key], r)
	}
	for _, key := range dayKeys {
		group := byOrderDay[key]
		if len(group) == 1 {
			continue
		}
		total := refundTotal(group)
		idx.AmountToRefunds[total] = append(idx.AmountToRefunds[total], group)
	}
}

func refundTotal(group []*report.Refund) money.MicroUSD {
	var total money.MicroUSD
	for _, r := range group {
		total += r.TotalRefund
	}
	return total
}
