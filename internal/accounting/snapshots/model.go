package snapshots

// Row is a normalized period-end balance for one account. Signed follows the
// debit-looks-positive convention: asset balances are positive, liability and
// equity balances negative, regardless of how the source stored the sign.
type Row struct {
	AccountCode string
	AccountName string
	Signed      float64
}

// Abs returns the magnitude of the signed balance.
func (r Row) Abs() float64 {
	if r.Signed < 0 {
		return -r.Signed
	}
	return r.Signed
}
