package report

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const trailingJunk = ",.-()[]{}\\/|~!@#$%^&*_+=`'\" "

// LineTitle builds a display title for an item or refund row: an optional
// "Nx" quantity marker plus the row title truncated to roughly
// targetLength. Non-ASCII runes are stripped first since the ledger UI
// mangles them.
func LineTitle(quantity int, title string, targetLength int) string {
	base := ""
	if quantity > 1 {
		base = strconv.Itoa(quantity) + "x"
	}
	clean := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, title)
	return TruncateTitle(clean, targetLength, base)
}

// TruncateTitle shortens title to approximately targetLength without
// splitting words, prepending base when given. A word is still taken when
// at least half of it fits.
func TruncateTitle(title string, targetLength int, base string) string {
	var words []string
	if base != "" {
		for _, w := range strings.Split(base, " ") {
			if w != "" {
				words = append(words, w)
			}
		}
		targetLength -= len(base)
	}
	for _, word := range strings.Split(title, " ") {
		if len(word)/2 >= targetLength {
			break
		}
		words = append(words, word)
		targetLength -= len(word) + 1
	}
	truncated := strings.Join(words, " ")
	for truncated != "" && strings.ContainsRune(trailingJunk, rune(truncated[len(truncated)-1])) {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated
}

// NotesHeader renders the note text attached to every line synthesized
// from an order.
func (o *Order) NotesHeader() string {
	return fmt.Sprintf("Amazon order id: %s\nOrder date: %s\nShip date: %s\nTracking: %s",
		o.OrderID,
		o.OrderDate.Format("2006-01-02"),
		o.ShipmentDate.Format("2006-01-02"),
		o.TrackingID)
}

// NotesHeader renders the note text attached to a refund line.
func (r *Refund) NotesHeader() string {
	return fmt.Sprintf("Amazon refund for order id: %s\nOrder date: %s\nRefund date: %s\nRefund reason: %s",
		r.OrderID,
		r.OrderDate.Format("2006-01-02"),
		r.RefundDate.Format("2006-01-02"),
		r.Reason)
}
