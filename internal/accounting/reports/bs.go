package reports

import (
	"math"
	"time"

	"github.com/kencana-erp/kencana/internal/accounting/accounts"
	"github.com/kencana-erp/kencana/internal/accounting/snapshots"
)

// BalanceAnomaly is a snapshot row whose sign contradicts its class: an asset
// carried negative, or a liability/equity carried positive.
type BalanceAnomaly struct {
	AccountCode string
	AccountName string
	Category    accounts.Category
	Signed      float64
}

// Magnitude ranks anomalies by balance size.
func (a BalanceAnomaly) Magnitude() float64 { return math.Abs(a.Signed) }

// Occurred returns the zero time; snapshot rows are point-in-time.
func (a BalanceAnomaly) Occurred() time.Time { return time.Time{} }

// Imbalanced always holds for an anomaly row.
func (a BalanceAnomaly) Imbalanced() bool { return true }

// BalanceSheet is the point-in-time statement with the balance-equation check.
type BalanceSheet struct {
	TotalAsset     float64
	TotalLiability float64
	TotalEquity    float64
	Difference     float64
	Tolerance      float64
	Balanced       bool
	Anomalies      []BalanceAnomaly
}

// BuildBalanceSheet classifies normalized snapshot rows and computes the
// asset/liability/equity totals and the equation check. Unclassified rows are
// bucketed by sign so the equation stays exhaustive; rows whose sign
// contradicts their class contribute zero to their total and surface as
// anomalies instead.
func BuildBalanceSheet(rows []snapshots.Row, pol Policy) BalanceSheet {
	bs := BalanceSheet{}
	anomalies := make([]BalanceAnomaly, 0)
	for _, row := range rows {
		category := accounts.Classify(row.AccountCode)
		switch category {
		case accounts.CategoryAsset:
			bs.TotalAsset += math.Max(row.Signed, 0)
			if row.Signed < 0 {
				anomalies = append(anomalies, anomaly(row, category))
			}
		case accounts.CategoryLiability:
			bs.TotalLiability += math.Max(-row.Signed, 0)
			if row.Signed > 0 {
				anomalies = append(anomalies, anomaly(row, category))
			}
		case accounts.CategoryEquity:
			bs.TotalEquity += math.Max(-row.Signed, 0)
			if row.Signed > 0 {
				anomalies = append(anomalies, anomaly(row, category))
			}
		default:
			if row.Signed >= 0 {
				bs.TotalAsset += row.Signed
			} else {
				bs.TotalLiability += -row.Signed
			}
		}
	}
	bs.Difference = bs.TotalAsset - (bs.TotalLiability + bs.TotalEquity)
	bs.Tolerance = pol.Tolerance(bs.TotalAsset)
	bs.Balanced = math.Abs(bs.Difference) <= bs.Tolerance
	bs.Anomalies = Select(anomalies, ModeUnbalanced, pol.TopN)
	return bs
}

// EquityMagnitude sums the absolute signed balance of equity-classified rows.
// It backs the roll-forward's opening and ending equity figures, which compare
// magnitudes rather than displayed totals.
func EquityMagnitude(rows []snapshots.Row) float64 {
	var total float64
	for _, row := range rows {
		if accounts.Classify(row.AccountCode) == accounts.CategoryEquity {
			total += row.Abs()
		}
	}
	return total
}

func anomaly(row snapshots.Row, category accounts.Category) BalanceAnomaly {
	return BalanceAnomaly{
		AccountCode: row.AccountCode,
		AccountName: row.AccountName,
		Category:    category,
		Signed:      row.Signed,
	}
}
