// Package reports parses the Amazon order-history report CSVs (Items,
// Orders and Shipments, Refunds) into normalized report records.
//
// Columns are resolved by header name, so column reordering across report
// vintages is harmless. Monetary cells become integer micro USD and date
// cells become calendar dates at parse time.
package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/LC1207/mint-amazon-tagger/internal/domain/money"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/report"
)

// row is one CSV record with header-keyed access.
type row struct {
	header map[string]int
	fields []string
	line   int
}

func (r row) get(column string) string {
	idx, ok := r.header[column]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return r.fields[idx]
}

func (r row) usd(column string) money.MicroUSD {
	return money.ParseUSD(r.get(column))
}

func (r row) date(column string) (time.Time, error) {
	d, err := money.ParseReportDate(r.get(column))
	if err != nil {
		return d, fmt.Errorf("line %d: bad %s %q: %w", r.line, column, r.get(column), err)
	}
	return d, nil
}

func (r row) count(column string) int {
	n, err := strconv.Atoi(r.get(column))
	if err != nil {
		return 0
	}
	return n
}

func readRows(rd io.Reader) ([]row, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read report csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[name] = i
	}

	rows := make([]row, 0, len(records)-1)
	for i, fields := range records[1:] {
		rows = append(rows, row{header: header, fields: fields, line: i + 2})
	}
	return rows, nil
}

// ReadItems parses the Items report.
func ReadItems(rd io.Reader) ([]*report.Item, error) {
	rows, err := readRows(rd)
	if err != nil {
		return nil, err
	}

	items := make([]*report.Item, 0, len(rows))
	for _, r := range rows {
		orderDate, err := r.date("Order Date")
		if err != nil {
			return nil, err
		}
		items = append(items, &report.Item{
			OrderID:     r.get("Order ID"),
			TrackingID:  r.get("Carrier Name & Tracking Number"),
			Title:       r.get("Title"),
			Category:    r.get("Category"),
			Quantity:    r.count("Quantity"),
			UnitPrice:   r.usd("Purchase Price Per Unit"),
			Subtotal:    r.usd("Item Subtotal"),
			SubtotalTax: r.usd("Item Subtotal Tax"),
			Total:       r.usd("Item Total"),
			OrderDate:   orderDate,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].OrderDate.Before(items[j].OrderDate)
	})
	return items, nil
}

// ReadOrders parses the Orders and Shipments report.
func ReadOrders(rd io.Reader) ([]*report.Order, error) {
	rows, err := readRows(rd)
	if err != nil {
		return nil, err
	}

	orders := make([]*report.Order, 0, len(rows))
	for _, r := range rows {
		orderDate, err := r.date("Order Date")
		if err != nil {
			return nil, err
		}
		shipmentDate, err := r.date("Shipment Date")
		if err != nil {
			return nil, err
		}
		orders = append(orders, &report.Order{
			OrderID:             r.get("Order ID"),
			TrackingID:          r.get("Carrier Name & Tracking Number"),
			OrderDate:           orderDate,
			ShipmentDate:        shipmentDate,
			Subtotal:            r.usd("Subtotal"),
			ShippingCharge:      r.usd("Shipping Charge"),
			TaxCharged:          r.usd("Tax Charged"),
			TaxBeforePromotions: r.usd("Tax Before Promotions"),
			TotalPromotions:     r.usd("Total Promotions"),
			TotalCharged:        r.usd("Total Charged"),
		})
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].OrderDate.Before(orders[j].OrderDate)
	})
	return orders, nil
}

// ReadRefunds parses the Refunds report. The report does not total the
// refund and its tax, so TotalRefund is computed here.
func ReadRefunds(rd io.Reader) ([]*report.Refund, error) {
	rows, err := readRows(rd)
	if err != nil {
		return nil, err
	}

	refunds := make([]*report.Refund, 0, len(rows))
	for _, r := range rows {
		orderDate, err := r.date("Order Date")
		if err != nil {
			return nil, err
		}
		refundDate, err := r.date("Refund Date")
		if err != nil {
			return nil, err
		}
		refund := &report.Refund{
			OrderID:         r.get("Order ID"),
			ItemID:          r.get("ASIN/ISBN"),
			OrderDate:       orderDate,
			RefundDate:      refundDate,
			Reason:          r.get("Refund Reason"),
			Title:           r.get("Title"),
			Category:        r.get("Category"),
			Quantity:        r.count("Quantity"),
			RefundAmount:    r.usd("Refund Amount"),
			RefundTaxAmount: r.usd("Refund Tax Amount"),
		}
		refund.TotalRefund = refund.RefundAmount + refund.RefundTaxAmount
		refunds = append(refunds, refund)
	}

	sort.SliceStable(refunds, func(i, j int) bool {
		return refunds[i].OrderDate.Before(refunds[j].OrderDate)
	})
	return refunds, nil
}
