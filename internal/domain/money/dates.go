package money

import (
	"strconv"
	"time"
)

// Report dates come in two textual layouts depending on report vintage.
var reportDateLayouts = []string{"01/02/2006", "01/02/06"}

// ParseReportDate parses an order/shipment/refund date from a report.
// An empty string yields the zero time (e.g. refund rows with no date).
func ParseReportDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range reportDateLayouts {
		d, err := time.Parse(layout, s)
		if err == nil {
			return d, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ParseLedgerDate parses a ledger transaction date. The ledger renders
// recent dates without a year ("Jan 2"), so those default to the current
// year; older dates carry a full short date ("01/02/06").
func ParseLedgerDate(s string) (time.Time, error) {
	year := time.Now().Year()
	if d, err := time.Parse("Jan 2 2006", s+" "+strconv.Itoa(year)); err == nil {
		return d, nil
	}
	return time.Parse("01/02/06", s)
}

// DaysApart returns the whole-day difference a-b for two calendar dates.
func DaysApart(a, b time.Time) int {
	return int(a.Sub(b).Hours() / 24)
}
