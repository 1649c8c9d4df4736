package reports

import (
	"math"

	"github.com/kencana-erp/kencana/internal/accounting/accounts"
	"github.com/kencana-erp/kencana/internal/accounting/journals"
)

// EquityInputs collects the figures the roll-forward law is checked against.
// OpeningEquity and SnapshotEnding are equity magnitudes at the opening and
// effective snapshot periods; Movements are the period's per-account aggregates
// restricted to equity accounts (prefix 3).
type EquityInputs struct {
	OpeningPeriod  string
	EndingPeriod   string
	OpeningEquity  float64
	SnapshotEnding float64
	NetIncome      float64
	Movements      []journals.AccountAggregate
}

// EquityRollForward is the continuity check: ending equity must equal opening
// equity plus contributions and net income minus withdrawals, within tolerance.
type EquityRollForward struct {
	OpeningPeriod  string
	EndingPeriod   string
	OpeningEquity  float64
	Contributions  float64
	Withdrawals    float64
	NetIncome      float64
	ComputedEnding float64
	SnapshotEnding float64
	Difference     float64
	Tolerance      float64
	IsMatch        bool
	Movements      []Driver
}

// BuildEquityRollForward applies the continuity law. Positive net movement on
// an equity account is a contribution, negative a withdrawal.
func BuildEquityRollForward(in EquityInputs, pol Policy) EquityRollForward {
	rf := EquityRollForward{
		OpeningPeriod:  in.OpeningPeriod,
		EndingPeriod:   in.EndingPeriod,
		OpeningEquity:  in.OpeningEquity,
		NetIncome:      in.NetIncome,
		SnapshotEnding: in.SnapshotEnding,
	}
	movements := make([]Driver, 0, len(in.Movements))
	for _, acc := range in.Movements {
		rf.Contributions += math.Max(acc.Net, 0)
		rf.Withdrawals += math.Max(-acc.Net, 0)
		movements = append(movements, Driver{
			AccountCode: acc.AccountCode,
			AccountName: acc.AccountName,
			Category:    accounts.Classify(acc.AccountCode),
			Net:         acc.Net,
		})
	}
	rf.ComputedEnding = rf.OpeningEquity + rf.Contributions + rf.NetIncome - rf.Withdrawals
	rf.Difference = rf.SnapshotEnding - rf.ComputedEnding
	rf.Tolerance = pol.Tolerance(rf.SnapshotEnding)
	rf.IsMatch = math.Abs(rf.Difference) <= rf.Tolerance
	rf.Movements = Select(movements, ModeUnbalanced, pol.TopN)
	return rf
}
