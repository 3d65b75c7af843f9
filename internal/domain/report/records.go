// Package report defines the normalized Amazon order-history records the
// reconciliation core consumes: items, orders (one row per shipment), and
// refunds. Records are read-only facts for a run; adjustments always
// produce new values.
package report

import (
	"errors"
	"time"

	"github.com/LC1207/mint-amazon-tagger/internal/domain/money"
)

// Item is one purchased item row from the Items report. An item with
// quantity > 1 that ships in multiple boxes still appears as a single row,
// with its tracking id covering only one of the shipments.
type Item struct {
	OrderID     string
	TrackingID  string
	Title       string
	Category    string
	Quantity    int
	UnitPrice   money.MicroUSD // purchase price per unit
	Subtotal    money.MicroUSD
	SubtotalTax money.MicroUSD
	Total       money.MicroUSD
	OrderDate   time.Time

	// OriginalQuantity is non-zero only on quantity-adjusted copies and
	// records the quantity of the source row.
	OriginalQuantity int
}

// Order is one row from the Orders and Shipments report. One order id may
// span several rows when the order ships in several shipments, each with
// its own charge.
type Order struct {
	OrderID             string
	TrackingID          string
	OrderDate           time.Time
	ShipmentDate        time.Time
	Subtotal            money.MicroUSD
	ShippingCharge      money.MicroUSD
	TaxCharged          money.MicroUSD
	TaxBeforePromotions money.MicroUSD
	TotalPromotions     money.MicroUSD
	TotalCharged        money.MicroUSD
}

// Refund is one row from the Refunds report. Refunds of N units of an item
// often appear as N rows of quantity 1.
type Refund struct {
	OrderID         string
	ItemID          string // ASIN/ISBN
	OrderDate       time.Time
	RefundDate      time.Time
	Reason          string
	Title           string
	Category        string
	Quantity        int
	RefundAmount    money.MicroUSD
	RefundTaxAmount money.MicroUSD
	TotalRefund     money.MicroUSD // RefundAmount + RefundTaxAmount
}

// AdjustQuantity returns a copy of item resized to newQuantity. The
// subtotal scales by the unit price and the tax scales proportionally to
// the quantity. The copy is tagged with the source row's quantity.
func AdjustQuantity(item Item, newQuantity int) (Item, error) {
	if newQuantity <= 0 || newQuantity > item.Quantity {
		return Item{}, errors.New("new quantity out of range")
	}
	if item.UnitPrice*money.MicroUSD(item.Quantity) != item.Subtotal {
		return Item{}, errors.New("item subtotal does not equal unit price times quantity")
	}

	adjusted := item
	adjusted.Subtotal = item.UnitPrice * money.MicroUSD(newQuantity)
	adjusted.SubtotalTax = item.SubtotalTax / money.MicroUSD(item.Quantity) * money.MicroUSD(newQuantity)
	adjusted.Total = adjusted.Subtotal + adjusted.SubtotalTax
	adjusted.Quantity = newQuantity
	adjusted.OriginalQuantity = item.Quantity
	return adjusted, nil
}

// CollapseRefunds merges duplicate per-unit refund rows into one row with
// the combined quantity and monetary fields multiplied accordingly. Rows
// are duplicates when date, reason, title, amount, item id, and quantity
// all agree. Order of first appearance is preserved.
func CollapseRefunds(refunds []*Refund) []*Refund {
	if len(refunds) <= 1 {
		return refunds
	}

	type key struct {
		date     time.Time
		reason   string
		title    string
		total    money.MicroUSD
		itemID   string
		quantity int
	}

	order := make([]key, 0, len(refunds))
	byKey := make(map[key][]*Refund)
	for _, r := range refunds {
		k := key{r.RefundDate, r.Reason, r.Title, r.TotalRefund, r.ItemID, r.Quantity}
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], r)
	}

	var results []*Refund
	for _, k := range order {
		same := byKey[k]
		if len(same) == 1 {
			results = append(results, same[0])
			continue
		}
		qty := money.MicroUSD(len(same))
		merged := *same[0]
		merged.Quantity = len(same)
		merged.TotalRefund *= qty
		merged.RefundAmount *= qty
		merged.RefundTaxAmount *= qty
		results = append(results, &merged)
	}
	return results
}
