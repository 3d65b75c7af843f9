package tagging

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LC1207/mint-amazon-tagger/internal/adapters/ledger"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/money"
	"github.com/LC1207/mint-amazon-tagger/internal/domain/report"
	"github.com/LC1207/mint-amazon-tagger/internal/infrastructure/storage"
)

// fakeClient implements ledger.Client against fixtures and records every
// apply call.
type fakeClient struct {
	trans       []*ledger.Transaction
	categoryIDs map[string]string

	updated []*ledger.Result
	split   []*ledger.Result
}

func (f *fakeClient) Transactions(ctx context.Context) ([]*ledger.Transaction, error) {
	return f.trans, nil
}

func (f *fakeClient) CategoryIDs(ctx context.Context) (map[string]string, error) {
	return f.categoryIDs, nil
}

func (f *fakeClient) UpdateTransaction(ctx context.Context, res *ledger.Result) error {
	f.updated = append(f.updated, res)
	return nil
}

func (f *fakeClient) SplitTransaction(ctx context.Context, res *ledger.Result) error {
	f.split = append(f.split, res)
	return nil
}

func day(d int) time.Time {
	return time.Date(2024, 7, d, 0, 0, 0, 0, time.UTC)
}

func testOptions() Options {
	return Options{
		Itemize:         true,
		DebitPrefix:     "Amazon.com: ",
		CreditPrefix:    "Amazon.com refund: ",
		MerchantKeyword: "amazon",
	}
}

func testCategoryIDs() map[string]string {
	return map[string]string{
		"Shopping":               "1",
		"Electronics & Software": "2",
		"Home":                   "3",
		"Shipping":               "4",
		"Returned Purchase":      "5",
	}
}

func fixtures() ([]*report.Item, []*report.Order, []*report.Refund) {
	items := []*report.Item{
		{OrderID: "A", TrackingID: "TBA1", Title: "USB-C Cable", Category: "Electronics",
			Quantity: 1, UnitPrice: 4500000, Subtotal: 4500000, SubtotalTax: 500000, Total: 5000000},
		{OrderID: "B", TrackingID: "TBA2", Title: "Desk Lamp", Category: "Home",
			Quantity: 1, UnitPrice: 18000000, Subtotal: 18000000, SubtotalTax: 1800000, Total: 19800000},
		{OrderID: "B", TrackingID: "TBA2", Title: "Bulbs", Category: "Home",
			Quantity: 1, UnitPrice: 2000000, Subtotal: 2000000, SubtotalTax: 200000, Total: 2200000},
	}
	orders := []*report.Order{
		{OrderID: "A", TrackingID: "TBA1", ShipmentDate: day(15),
			Subtotal: 4500000, TaxCharged: 500000, TaxBeforePromotions: 500000, TotalCharged: 5000000},
		{OrderID: "B", TrackingID: "TBA2", ShipmentDate: day(16),
			Subtotal: 20000000, TaxCharged: 2000000, TaxBeforePromotions: 2000000, TotalCharged: 22000000},
	}
	refunds := []*report.Refund{
		{OrderID: "A", RefundDate: day(20), Reason: "Customer Return",
			Title: "USB-C Cable", Category: "Electronics", Quantity: 1,
			RefundAmount: 4500000, RefundTaxAmount: 500000, TotalRefund: 5000000},
	}
	return items, orders, refunds
}

func testOrchestrator(client ledger.Client, store storage.Repository) *Orchestrator {
	return NewOrchestrator(client, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTagMatchesOrdersAndRefunds(t *testing.T) {
	items, orders, refunds := fixtures()
	trans := []*ledger.Transaction{
		{ID: "t1", Date: day(16), OrderDate: day(16), Amount: 5000000,
			Description: "Amazon", IsDebit: true},
		{ID: "t2", Date: day(17), OrderDate: day(17), Amount: 22000000,
			Description: "AMAZON.COM*XY12", IsDebit: true},
		{ID: "t3", Date: day(21), OrderDate: day(21), Amount: -5000000,
			Description: "Amazon refund", IsDebit: false},
		{ID: "t4", Date: day(17), OrderDate: day(17), Amount: 9990000,
			Description: "Grocery Store", IsDebit: true},
	}

	o := testOrchestrator(&fakeClient{}, nil)
	results, stats := o.Tag(items, orders, refunds, trans, testOptions())

	require.Len(t, results, 3)
	assert.Equal(t, 3, stats.Candidates)
	assert.Equal(t, 2, stats.OrderMatch)
	assert.Equal(t, 1, stats.RefundMatch)
	assert.Equal(t, 3, stats.Tagged)

	// Itemized output carries the prefix on every line, costliest last.
	twoItem := results[1]
	require.Len(t, twoItem.Replacements, 2)
	assert.Equal(t, "Amazon.com: Bulbs", twoItem.Replacements[0].Description)
	assert.Equal(t, "Amazon.com: Desk Lamp", twoItem.Replacements[1].Description)

	refund := results[2]
	require.Len(t, refund.Replacements, 1)
	assert.Equal(t, "Amazon.com refund: USB-C Cable", refund.Replacements[0].Description)
	assert.Equal(t, money.MicroUSD(-5000000), refund.Replacements[0].Amount)
}

func TestTagIsDeterministicAcrossRuns(t *testing.T) {
	// Claim state is rebuilt per call and report records are never
	// mutated, so the same unclaimed inputs must match identically,
	// date tie-breaks included.
	newTrans := func() []*ledger.Transaction {
		return []*ledger.Transaction{
			{ID: "t1", Date: day(16), OrderDate: day(16), Amount: 5000000,
				Description: "Amazon", IsDebit: true},
			{ID: "t2", Date: day(17), OrderDate: day(17), Amount: 22000000,
				Description: "AMAZON.COM*XY12", IsDebit: true},
			{ID: "t3", Date: day(21), OrderDate: day(21), Amount: -5000000,
				Description: "Amazon refund", IsDebit: false},
		}
	}

	items, orders, refunds := fixtures()
	o := testOrchestrator(&fakeClient{}, nil)

	first, firstStats := o.Tag(items, orders, refunds, newTrans(), testOptions())
	second, secondStats := o.Tag(items, orders, refunds, newTrans(), testOptions())

	assert.Equal(t, firstStats, secondStats)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Original.ID, second[i].Original.ID)
		assert.Equal(t, first[i].Replacements, second[i].Replacements)
	}
}

func TestTagSkipsPendingAndNonKeyword(t *testing.T) {
	items, orders, refunds := fixtures()
	trans := []*ledger.Transaction{
		{ID: "t1", Date: day(16), OrderDate: day(16), Amount: 5000000,
			Description: "Amazon", IsDebit: true, IsPending: true},
		{ID: "t2", Date: day(17), OrderDate: day(17), Amount: 5000000,
			Description: "Hardware Store", IsDebit: true},
	}

	o := testOrchestrator(&fakeClient{}, nil)
	results, stats := o.Tag(items, orders, refunds, trans, testOptions())

	assert.Empty(t, results)
	assert.Equal(t, 1, stats.Candidates)
	assert.Equal(t, 1, stats.Pending)
	assert.Zero(t, stats.OrderMatch)
}

func TestTagSummarizesWhenItemizeOff(t *testing.T) {
	items, orders, refunds := fixtures()
	trans := []*ledger.Transaction{
		{ID: "t2", Date: day(17), OrderDate: day(17), Amount: 22000000,
			Description: "Amazon", IsDebit: true},
	}

	opts := testOptions()
	opts.Itemize = false

	o := testOrchestrator(&fakeClient{}, nil)
	results, _ := o.Tag(items, orders, refunds, trans, opts)
	require.Len(t, results, 1)
	require.Len(t, results[0].Replacements, 1)

	summary := results[0].Replacements[0]
	assert.Equal(t, money.MicroUSD(22000000), summary.Amount)
	assert.Contains(t, summary.Description, "Amazon.com: ")
	assert.Contains(t, summary.Note, "Item(s):")
}

func TestTagUnsplitsPriorChildren(t *testing.T) {
	items, orders, refunds := fixtures()
	// A previous run split t2 into two children; they must be folded
	// back into one parent before matching.
	trans := []*ledger.Transaction{
		{ID: "c1", ParentID: "t2", IsChild: true, Date: day(17), OrderDate: day(17),
			Amount: 19800000, Description: "Amazon.com: Desk Lamp", IsDebit: true},
		{ID: "c2", ParentID: "t2", IsChild: true, Date: day(17), OrderDate: day(17),
			Amount: 2200000, Description: "Amazon.com: Bulbs", IsDebit: true},
	}

	o := testOrchestrator(&fakeClient{}, nil)
	results, stats := o.Tag(items, orders, refunds, trans, testOptions())

	require.Len(t, results, 1)
	assert.Equal(t, 1, stats.OrderMatch)
	assert.Equal(t, "t2", results[0].Original.ID)
	assert.Equal(t, money.MicroUSD(22000000), results[0].Original.Amount)
	assert.Len(t, results[0].Original.Children, 2)
}

func TestRunAppliesAndRecords(t *testing.T) {
	items, orders, refunds := fixtures()
	client := &fakeClient{
		trans: []*ledger.Transaction{
			{ID: "t1", Date: day(16), OrderDate: day(16), Amount: 5000000,
				Description: "Amazon", IsDebit: true},
			{ID: "t2", Date: day(17), OrderDate: day(17), Amount: 22000000,
				Description: "Amazon", IsDebit: true},
		},
		categoryIDs: testCategoryIDs(),
	}

	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	o := testOrchestrator(client, store)
	res, err := o.Run(context.Background(), items, orders, refunds, testOptions())
	require.NoError(t, err)

	// One single-line result edited in place, one split.
	assert.Len(t, client.updated, 1)
	assert.Len(t, client.split, 1)
	assert.Equal(t, 2, res.Stats.ToUpdate)

	// Category ids resolved during validation.
	assert.Equal(t, "2", client.updated[0].Replacements[0].CategoryID)

	run, err := store.GetRun(res.RunID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 2, run.Stats["order_match"])
	assert.False(t, run.DryRun)

	records, err := store.ListTagRecords(res.RunID)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	// The pre-update ledger state was snapshotted.
	trans, cats, err := store.LatestBackup()
	require.NoError(t, err)
	assert.NotEmpty(t, trans)
	assert.NotEmpty(t, cats)
}

func TestRunDryRunDoesNotApply(t *testing.T) {
	items, orders, refunds := fixtures()
	client := &fakeClient{
		trans: []*ledger.Transaction{
			{ID: "t1", Date: day(16), OrderDate: day(16), Amount: 5000000,
				Description: "Amazon", IsDebit: true},
		},
		categoryIDs: testCategoryIDs(),
	}

	opts := testOptions()
	opts.DryRun = true

	o := testOrchestrator(client, nil)
	res, err := o.Run(context.Background(), items, orders, refunds, opts)
	require.NoError(t, err)

	assert.Empty(t, client.updated)
	assert.Empty(t, client.split)
	assert.Equal(t, 1, res.Stats.ToUpdate)
	require.Len(t, res.Results, 1)
}
