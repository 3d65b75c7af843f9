package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LC1207/mint-amazon-tagger/internal/domain/report"
)

func day(d int) time.Time {
	return time.Date(2024, 7, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildOrderAndItemIndexes(t *testing.T) {
	o1 := &report.Order{OrderID: "A", TrackingID: "TBA1", TotalCharged: 5000000}
	o2 := &report.Order{OrderID: "B", TrackingID: "TBA2", TotalCharged: 5000000}
	o3 := &report.Order{OrderID: "C", TrackingID: "TBA3", TotalCharged: 9900000}

	i1 := &report.Item{OrderID: "A", TrackingID: "TBA1"}
	i2 := &report.Item{OrderID: "A", TrackingID: "TBA1"}
	i3 := &report.Item{OrderID: "B", TrackingID: "TBA2"}

	idx := Build([]*report.Item{i1, i2, i3}, []*report.Order{o1, o2, o3}, nil)

	require.Len(t, idx.AmountToOrders[5000000], 2)
	assert.Same(t, o1, idx.AmountToOrders[5000000][0])
	assert.Same(t, o2, idx.AmountToOrders[5000000][1])
	require.Len(t, idx.AmountToOrders[9900000], 1)

	assert.Len(t, idx.TrackingToItems["TBA1"], 2)
	assert.Len(t, idx.OrderIDToItems["A"], 2)
	assert.Len(t, idx.OrderIDToItems["B"], 1)
	assert.Empty(t, idx.OrderIDToItems["C"])
}

func TestIndexRefundsSingletons(t *testing.T) {
	r := &report.Refund{OrderID: "A", RefundDate: day(20), TotalRefund: 5500000}
	idx := Build(nil, nil, []*report.Refund{r})

	groups := idx.AmountToRefunds[5500000]
	require.Len(t, groups, 1)
	require.Len(t, groups[0], 1)
	assert.Same(t, r, groups[0][0])
}

func TestIndexRefundsGroupsAcrossDates(t *testing.T) {
	// Two rows of the same order refunded on different days: each row
	// keys its own amount, and the pair keys the combined amount.
	r1 := &report.Refund{OrderID: "A", RefundDate: day(20), TotalRefund: 5500000}
	r2 := &report.Refund{OrderID: "A", RefundDate: day(22), TotalRefund: 9900000}
	idx := Build(nil, nil, []*report.Refund{r1, r2})

	require.Len(t, idx.AmountToRefunds[5500000], 1)
	require.Len(t, idx.AmountToRefunds[9900000], 1)

	combined := idx.AmountToRefunds[15400000]
	require.Len(t, combined, 1)
	assert.Len(t, combined[0], 2)
}

func TestIndexRefundsSameDayGroupedOnce(t *testing.T) {
	// Same order, same day: per-order and per-day grouping would produce
	// the same group twice, so only the per-day grouping applies.
	r1 := &report.Refund{OrderID: "A", RefundDate: day(20), TotalRefund: 5500000}
	r2 := &report.Refund{OrderID: "A", RefundDate: day(20), TotalRefund: 9900000}
	idx := Build(nil, nil, []*report.Refund{r1, r2})

	combined := idx.AmountToRefunds[15400000]
	require.Len(t, combined, 1)
	assert.Len(t, combined[0], 2)
}

func TestIndexRefundsMixedDays(t *testing.T) {
	// Three rows over two days: three singletons, one whole-order group,
	// and one same-day pair.
	r1 := &report.Refund{OrderID: "A", RefundDate: day(20), TotalRefund: 1000000}
	r2 := &report.Refund{OrderID: "A", RefundDate: day(20), TotalRefund: 2000000}
	r3 := &report.Refund{OrderID: "A", RefundDate: day(22), TotalRefund: 4000000}
	idx := Build(nil, nil, []*report.Refund{r1, r2, r3})

	assert.Len(t, idx.AmountToRefunds[1000000], 1)
	assert.Len(t, idx.AmountToRefunds[2000000], 1)
	assert.Len(t, idx.AmountToRefunds[4000000], 1)

	wholeOrder := idx.AmountToRefunds[7000000]
	require.Len(t, wholeOrder, 1)
	assert.Len(t, wholeOrder[0], 3)

	sameDay := idx.AmountToRefunds[3000000]
	require.Len(t, sameDay, 1)
	assert.Len(t, sameDay[0], 2)
}
