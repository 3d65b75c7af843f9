// Package money provides exact micro-USD arithmetic for reconciliation.
//
// All monetary values are carried as integer micro-dollars (1 USD =
// 1,000,000 micro USD) so that sums and differences are exact. Textual
// amounts from reports are rounded to cents before conversion.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MicroUSD is an amount in integer micro-dollars. Debits are positive,
// credits negative.
type MicroUSD int64

const (
	// Eps is the tolerance under which two amounts are considered equal.
	// Allows wiggle room for division/multiplication rounding.
	Eps MicroUSD = 50

	// Cent is one cent, the atomic unit for tax redistribution.
	Cent MicroUSD = 10000

	// dollarEps compensates for binary float representation when rounding
	// parsed amounts to cents.
	dollarEps = 0.0001
)

// ParseUSD converts a report currency string ("$1,234.56") to micro USD.
// Empty or unparseable strings yield zero, matching report semantics where
// a blank cell means no charge.
func ParseUSD(amount string) MicroUSD {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0
	}
	amount = strings.ReplaceAll(amount, ",", "")
	amount = strings.TrimPrefix(amount, "$")
	v, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0
	}
	return FromFloat(v)
}

// FromFloat converts a dollar amount to micro USD, rounding to cents.
func FromFloat(v float64) MicroUSD {
	neg := v < 0
	if neg {
		v = -v
	}
	cents := MicroUSD(math.Round((v + dollarEps) * 100))
	if neg {
		cents = -cents
	}
	return cents * Cent
}

// Float64 returns the amount in dollars, rounded to cents.
func (m MicroUSD) Float64() float64 {
	v := float64(m.Abs()) / 1000000.0
	v = math.Round((v+dollarEps)*100) / 100
	if m < 0 {
		return -v
	}
	return v
}

// Abs returns the magnitude of the amount.
func (m MicroUSD) Abs() MicroUSD {
	if m < 0 {
		return -m
	}
	return m
}

// NearlyEqual reports whether two amounts are within Eps of each other.
func NearlyEqual(a, b MicroUSD) bool {
	return (a - b).Abs() < Eps
}

// String renders the amount as a currency string, e.g. "$5.00" or "-$1.23".
// String comparison is also used downstream for change detection, since it
// sidesteps float comparison entirely.
func (m MicroUSD) String() string {
	sign := ""
	if m < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s$%.2f", sign, m.Abs().Float64())
}
