package snapshots

import (
	"math"

	"github.com/kencana-erp/kencana/internal/accounting/accounts"
)

// SignedFromSaldo normalizes a stored ending balance. The magnitude is taken as
// given; credit-normal classes (leading digit 2 and 3) flip negative so that
// the balance equation can be summed in one convention. Unclassified codes keep
// the stored sign.
func SignedFromSaldo(code string, raw float64) float64 {
	category := accounts.Classify(code)
	if category.CreditNormal() {
		return -math.Abs(raw)
	}
	if category == accounts.CategoryUnclassified {
		return raw
	}
	return math.Abs(raw)
}

// SignedFromPair normalizes an opening debit/credit pair. The pair already
// encodes the side, so no class-based flip applies.
func SignedFromPair(debit, credit float64) float64 {
	return debit - credit
}
