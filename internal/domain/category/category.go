// Package category maps Amazon item categories onto ledger category names.
package category

const (
	// Default is used when an item category has no mapping.
	Default = "Shopping"

	// DefaultRefund is used for refund lines with no mapped category.
	DefaultRefund = "Returned Purchase"
)

// amazonToLedger maps Amazon report category names to ledger categories.
// Unmapped categories fall back to the defaults above.
var amazonToLedger = map[string]string{
	"Accessory":                      "Electronics & Software",
	"Apparel":                        "Clothing",
	"Audio CD":                       "Music",
	"Automotive":                     "Auto & Transport",
	"Baby Product":                   "Baby Supplies",
	"Beauty":                         "Personal Care",
	"Blu-ray":                        "Movies & DVDs",
	"Camera":                         "Electronics & Software",
	"CE":                             "Electronics & Software",
	"Computer":                       "Electronics & Software",
	"DVD":                            "Movies & DVDs",
	"Electronics":                    "Electronics & Software",
	"Eyewear":                        "Eyecare",
	"Grocery":                        "Groceries",
	"Hardcover":                      "Books",
	"Health and Beauty":              "Personal Care",
	"Health and Personal Care":       "Personal Care",
	"Home":                           "Home",
	"Home Improvement":               "Home Improvement",
	"Kindle Edition":                 "Books",
	"Kitchen":                        "Kitchen",
	"Lawn & Patio":                   "Lawn & Garden",
	"Luggage":                        "Shopping",
	"Mass Market Paperback":          "Books",
	"Misc.":                          "Shopping",
	"Musical Instruments":            "Entertainment",
	"Office Product":                 "Office Supplies",
	"Pantry":                         "Groceries",
	"Paperback":                      "Books",
	"Personal Computers":             "Electronics & Software",
	"Pet Products":                   "Pet Food & Supplies",
	"Prime Video":                    "Movies & DVDs",
	"Shoes":                          "Clothing",
	"Software Download":              "Electronics & Software",
	"Sports":                         "Sporting Goods",
	"Sports Apparel":                 "Sporting Goods",
	"T-shirt":                        "Clothing",
	"Tools & Hardware":               "Home Improvement",
	"Tools & Home Improvement":       "Home Improvement",
	"Toy":                            "Toys",
	"Video Game":                     "Entertainment",
	"Vitamins & Dietary Supplements": "Personal Care",
	"Watch":                          "Shopping",
	"Wireless Phone Accessory":       "Electronics & Software",
}

// ForItem resolves an item category to a ledger category name.
func ForItem(amazonCategory string) string {
	if mapped, ok := amazonToLedger[amazonCategory]; ok {
		return mapped
	}
	return Default
}

// ForRefund resolves a refund row category to a ledger category name.
func ForRefund(amazonCategory string) string {
	if mapped, ok := amazonToLedger[amazonCategory]; ok {
		return mapped
	}
	return DefaultRefund
}
