// Package matcher pairs ledger transactions with order and refund records
// and synthesizes the itemized replacement entries.
//
// Matching is strict: the charged amount must key an order (or refund
// group) exactly, and the transaction's posted date must fall within the
// configured day window of the shipment (or refund) date. A record is
// claimed by at most one transaction per run.
package matcher

import (
	"log/slog"

	"github.com/LC1207/mint-amazon-tagger/internal/adapters/ledger"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/report"
)

// Config holds matcher configuration
type Config struct {
	DateToleranceDays int // max days between posted and ship/refund date (default: 3)
	DescriptionLength int // target length for synthesized descriptions (default: 88)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		DateToleranceDays: 3,
		DescriptionLength: 88,
	}
}

// Matcher matches ledger transactions against order-history records
type Matcher struct {
	config Config
	logger *slog.Logger
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config, logger *slog.Logger) *Matcher {
	return &Matcher{
		config: config,
		logger: logger,
	}
}

// Outcome reports one match attempt. Matched is set once a record was
// selected and claimed, even when itemization is later abandoned; Lines is
// non-empty only for a fully itemized match. The remaining flags feed run
// statistics.
type Outcome struct {
	Matched bool
	Lines   []*ledger.Transaction

	QuantityAdjusted     bool
	TaxRebalanced        bool
	MiscCharge           bool
	NeedsCombinatoricFix bool
}

// ClaimSet tracks which orders and refunds have been consumed during a
// run. Claim state lives here, not on the shared records, so the records
// stay read-only facts.
type ClaimSet struct {
	orders  map[*report.Order]string
	refunds map[*report.Refund]string
}

// NewClaimSet creates an empty claim set for one reconciliation run.
func NewClaimSet() *ClaimSet {
	return &ClaimSet{
		orders:  make(map[*report.Order]string),
		refunds: make(map[*report.Refund]string),
	}
}

// OrderClaimed reports whether the order was already matched.
func (c *ClaimSet) OrderClaimed(o *report.Order) bool {
	_, ok := c.orders[o]
	return ok
}

// ClaimOrder marks the order as consumed by the given transaction.
func (c *ClaimSet) ClaimOrder(o *report.Order, transactionID string) {
	c.orders[o] = transactionID
}

// AnyRefundClaimed reports whether any refund in the group was matched.
func (c *ClaimSet) AnyRefundClaimed(group []*report.Refund) bool {
	for _, r := range group {
		if _, ok := c.refunds[r]; ok {
			return true
		}
	}
	return false
}

// ClaimRefunds marks every refund in the group as consumed.
func (c *ClaimSet) ClaimRefunds(group []*report.Refund, transactionID string) {
	for _, r := range group {
		c.refunds[r] = transactionID
	}
}
