package accounts

import "strings"

// Category identifies the semantic class of a general ledger account.
type Category string

const (
	CategoryAsset        Category = "asset"
	CategoryLiability    Category = "liability"
	CategoryEquity       Category = "equity"
	CategoryRevenue      Category = "revenue"
	CategoryCOGS         Category = "cogs"
	CategoryOpex         Category = "opex"
	CategoryOther        Category = "other"
	CategoryUnclassified Category = "unclassified"
)

// Classify maps an account code to its category by leading digit. The code is
// trimmed first so padded codes such as " 301.00 " classify normally.
func Classify(code string) Category {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return CategoryUnclassified
	}
	switch trimmed[0] {
	case '1':
		return CategoryAsset
	case '2':
		return CategoryLiability
	case '3':
		return CategoryEquity
	case '4':
		return CategoryRevenue
	case '5':
		return CategoryCOGS
	case '6':
		return CategoryOpex
	case '7':
		return CategoryOther
	default:
		return CategoryUnclassified
	}
}

// Nominal reports whether the category resets each period via net income.
func (c Category) Nominal() bool {
	switch c {
	case CategoryRevenue, CategoryCOGS, CategoryOpex, CategoryOther:
		return true
	}
	return false
}

// CreditNormal reports whether the category normally carries a credit balance.
func (c Category) CreditNormal() bool {
	return c == CategoryLiability || c == CategoryEquity
}

// HasPrefix reports whether the trimmed account code starts with any of the
// given prefixes. An empty prefix set matches every code.
func HasPrefix(code string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	trimmed := strings.TrimSpace(code)
	for _, p := range prefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}
