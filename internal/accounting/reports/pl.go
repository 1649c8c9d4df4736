package reports

import (
	"math"
	"time"

	"github.com/kencana-erp/kencana/internal/accounting/accounts"
	"github.com/kencana-erp/kencana/internal/accounting/journals"
)

// Driver is a top contributing account within an income statement bucket or an
// equity movement list.
type Driver struct {
	AccountCode string
	AccountName string
	Category    accounts.Category
	Net         float64
}

// Magnitude ranks drivers by absolute net movement.
func (d Driver) Magnitude() float64 { return math.Abs(d.Net) }

// Occurred returns the zero time; drivers aggregate a whole range.
func (d Driver) Occurred() time.Time { return time.Time{} }

// Imbalanced always holds so drivers survive unbalanced-mode selection.
func (d Driver) Imbalanced() bool { return true }

// IncomeStatement carries the layered period result. Buckets follow the
// account class; the "other" class splits by sign of the net movement.
type IncomeStatement struct {
	Revenue         float64
	COGS            float64
	Opex            float64
	OtherIncome     float64
	OtherExpense    float64
	GrossProfit     float64
	OperatingProfit float64
	NetIncome       float64
	RevenueDrivers  []Driver
	COGSDrivers     []Driver
	OpexDrivers     []Driver
	OtherDrivers    []Driver
}

// BuildIncomeStatement folds per-account movement aggregates (prefixes 4..7)
// into the layered result. Net is credit − debit, so revenue accumulates
// positive nets and cost buckets accumulate negative nets. Accounts that fall
// outside the four classes split into the other bucket by sign, keeping the
// statement exhaustive over its input.
func BuildIncomeStatement(accts []journals.AccountAggregate, pol Policy) IncomeStatement {
	is := IncomeStatement{}
	var revenue, cogs, opex, other []Driver
	for _, acc := range accts {
		category := accounts.Classify(acc.AccountCode)
		driver := Driver{AccountCode: acc.AccountCode, AccountName: acc.AccountName, Category: category, Net: acc.Net}
		switch category {
		case accounts.CategoryRevenue:
			is.Revenue += math.Max(acc.Net, 0)
			revenue = append(revenue, driver)
		case accounts.CategoryCOGS:
			is.COGS += math.Max(-acc.Net, 0)
			cogs = append(cogs, driver)
		case accounts.CategoryOpex:
			is.Opex += math.Max(-acc.Net, 0)
			opex = append(opex, driver)
		default:
			if acc.Net >= 0 {
				is.OtherIncome += acc.Net
			} else {
				is.OtherExpense += -acc.Net
			}
			other = append(other, driver)
		}
	}
	is.GrossProfit = is.Revenue - is.COGS
	is.OperatingProfit = is.GrossProfit - is.Opex
	is.NetIncome = is.OperatingProfit + (is.OtherIncome - is.OtherExpense)
	is.RevenueDrivers = Select(revenue, ModeUnbalanced, pol.TopN)
	is.COGSDrivers = Select(cogs, ModeUnbalanced, pol.TopN)
	is.OpexDrivers = Select(opex, ModeUnbalanced, pol.TopN)
	is.OtherDrivers = Select(other, ModeUnbalanced, pol.TopN)
	return is
}
