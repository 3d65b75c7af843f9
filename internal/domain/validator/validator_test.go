package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LC1207/mint-amazon-tagger/internal/adapters/ledger"
)

var testCategoryIDs = map[string]string{
	"Shopping":               "1",
	"Electronics & Software": "2",
	"Shipping":               "3",
	"Returned Purchase":      "4",
}

func testPrefix(isDebit bool) string {
	if isDebit {
		return "Amazon.com: "
	}
	return "Amazon.com refund: "
}

func result(original *ledger.Transaction, replacements ...*ledger.Transaction) *ledger.Result {
	return &ledger.Result{Original: original, Replacements: replacements}
}

func TestValidateAndFilterResolvesCategoryIDs(t *testing.T) {
	res := result(
		&ledger.Transaction{ID: "t1", Description: "Amazon", Amount: 5000000, IsDebit: true},
		&ledger.Transaction{Description: "Amazon.com: Cable", Category: "Electronics & Software", Amount: 5000000, IsDebit: true},
	)

	valid, summary, err := ValidateAndFilter([]*ledger.Result{res}, testCategoryIDs, Options{Prefix: testPrefix})
	require.NoError(t, err)
	require.Len(t, valid, 1)
	assert.Equal(t, "2", valid[0].Replacements[0].CategoryID)
	assert.Zero(t, summary.NoChange)
	assert.Zero(t, summary.AlreadyTagged)
}

func TestValidateAndFilterConservationViolationIsFatal(t *testing.T) {
	res := result(
		&ledger.Transaction{ID: "t1", Amount: 5000000, IsDebit: true},
		&ledger.Transaction{Category: "Shopping", Amount: 4000000, IsDebit: true},
	)

	valid, _, err := ValidateAndFilter([]*ledger.Result{res}, testCategoryIDs, Options{Prefix: testPrefix})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conservation")
	assert.Nil(t, valid)
}

func TestValidateAndFilterUnknownCategoryIsFatal(t *testing.T) {
	res := result(
		&ledger.Transaction{ID: "t1", Amount: 5000000, IsDebit: true},
		&ledger.Transaction{Category: "Not A Category", Amount: 5000000, IsDebit: true},
	)

	_, _, err := ValidateAndFilter([]*ledger.Result{res}, testCategoryIDs, Options{Prefix: testPrefix})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not A Category")
}

func TestValidateAndFilterDropsNoChange(t *testing.T) {
	// Replacement is byte-identical to the original in description,
	// amount, and category; applying it would be a no-op.
	res := result(
		&ledger.Transaction{ID: "t1", Description: "Amazon.com: Cable", Category: "Shopping", Amount: 5000000, IsDebit: true},
		&ledger.Transaction{Description: "Amazon.com: Cable", Category: "Shopping", Amount: 5000000, IsDebit: true},
	)

	valid, summary, err := ValidateAndFilter([]*ledger.Result{res}, testCategoryIDs, Options{Prefix: testPrefix})
	require.NoError(t, err)
	assert.Empty(t, valid)
	assert.Equal(t, 1, summary.NoChange)
}

func TestValidateAndFilterComparesAgainstPriorSplit(t *testing.T) {
	original := &ledger.Transaction{
		ID: "t1", Description: "Amazon", Category: "Shopping", Amount: 10000000, IsDebit: true,
		Children: []*ledger.Transaction{
			{Description: "Amazon.com: Pricey", Category: "Shopping", Amount: 8000000, IsDebit: true, IsChild: true},
			{Description: "Amazon.com: Cheap", Category: "Shopping", Amount: 2000000, IsDebit: true, IsChild: true},
		},
	}

	// Same split proposed again, in a different order: no change.
	res := result(original,
		&ledger.Transaction{Description: "Amazon.com: Cheap", Category: "Shopping", Amount: 2000000, IsDebit: true},
		&ledger.Transaction{Description: "Amazon.com: Pricey", Category: "Shopping", Amount: 8000000, IsDebit: true},
	)
	valid, summary, err := ValidateAndFilter([]*ledger.Result{res}, testCategoryIDs, Options{RetagChanged: true, Prefix: testPrefix})
	require.NoError(t, err)
	assert.Empty(t, valid)
	assert.Equal(t, 1, summary.NoChange)

	// A category moved: the split changed and is kept under RetagChanged.
	res = result(original,
		&ledger.Transaction{Description: "Amazon.com: Cheap", Category: "Shopping", Amount: 2000000, IsDebit: true},
		&ledger.Transaction{Description: "Amazon.com: Pricey", Category: "Electronics & Software", Amount: 8000000, IsDebit: true},
	)
	valid, _, err = ValidateAndFilter([]*ledger.Result{res}, testCategoryIDs, Options{RetagChanged: true, Prefix: testPrefix})
	require.NoError(t, err)
	assert.Len(t, valid, 1)
}

func TestValidateAndFilterSkipsAlreadyTagged(t *testing.T) {
	// The original already carries the prefix from a prior run and the
	// proposed replacement differs; without RetagChanged it is skipped.
	res := result(
		&ledger.Transaction{ID: "t1", Description: "Amazon.com: Cable", Category: "Shopping", Amount: 5000000, IsDebit: true},
		&ledger.Transaction{Description: "Amazon.com: USB-C Cable", Category: "Electronics & Software", Amount: 5000000, IsDebit: true},
	)

	valid, summary, err := ValidateAndFilter([]*ledger.Result{res}, testCategoryIDs, Options{Prefix: testPrefix})
	require.NoError(t, err)
	assert.Empty(t, valid)
	assert.Equal(t, 1, summary.AlreadyTagged)

	// With RetagChanged the update goes through.
	valid, summary, err = ValidateAndFilter([]*ledger.Result{res}, testCategoryIDs, Options{RetagChanged: true, Prefix: testPrefix})
	require.NoError(t, err)
	assert.Len(t, valid, 1)
	assert.Zero(t, summary.AlreadyTagged)
}
