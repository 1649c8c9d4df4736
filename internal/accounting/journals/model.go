package journals

import "time"

// Source distinguishes transactional journal lines from adjusting entries.
type Source string

const (
	SourceTransactional Source = "trx"
	SourceAdjusting     Source = "ajp"
)

// LedgerLine is one debit/credit movement, fully resolved at the repository
// boundary: optional source columns are already coalesced to blank strings.
// Transactional lines carry their entry's transaction date, adjusting lines
// carry their own period date.
type LedgerLine struct {
	DocCode     string
	Source      Source
	Date        time.Time
	AccountCode string
	AccountName string
	Debit       float64
	Credit      float64
	Voucher     string
	Remark      string
	PostingDate time.Time // adjusting entries only; zero when the column is absent
}

// DocumentAggregate sums the lines of one ledger document. Adjusting documents
// are keyed by (code, period date); transactional documents by code alone.
type DocumentAggregate struct {
	DocCode     string
	Source      Source
	Date        time.Time
	PostingDate time.Time
	Voucher     string
	Remark      string
	Lines       int
	TotalDebit  float64
	TotalCredit float64
	Difference  float64
	Balanced    bool
}

// Magnitude ranks the document by absolute imbalance.
func (d DocumentAggregate) Magnitude() float64 {
	if d.Difference < 0 {
		return -d.Difference
	}
	return d.Difference
}

// Occurred returns the document date used for mode "all" ordering.
func (d DocumentAggregate) Occurred() time.Time { return d.Date }

// Imbalanced reports whether the document violates debit == credit.
func (d DocumentAggregate) Imbalanced() bool { return !d.Balanced }

// AccountAggregate sums movements per account over a date range. Net follows
// the credit-normal convention (credit − debit) used by nominal and equity
// analysis.
type AccountAggregate struct {
	AccountCode string
	AccountName string
	Debit       float64
	Credit      float64
	Net         float64
}
