package recon

import (
	"time"

	"github.com/kencana-erp/kencana/internal/accounting/journals"
	"github.com/kencana-erp/kencana/internal/accounting/periods"
	"github.com/kencana-erp/kencana/internal/accounting/reports"
)

// Filters selects the reporting scope for one reconciliation run. An empty
// Period resolves to the most recent period with data; an empty Mode falls back
// to the policy default.
type Filters struct {
	Granularity periods.Granularity
	Period      string
	Mode        reports.Mode
}

// TotalsKPI summarises one ledger source (transactional or adjusting).
type TotalsKPI struct {
	TotalDebit      float64 `json:"total_debit"`
	TotalCredit     float64 `json:"total_credit"`
	DocCount        int     `json:"doc_count"`
	UnbalancedCount int     `json:"unbalanced_count"`
	SumSelisihAbs   float64 `json:"sum_selisih_abs"`
}

// BalanceKPI carries the balance-sheet totals and equation check.
type BalanceKPI struct {
	TotalAsset     float64 `json:"total_asset"`
	TotalLiability float64 `json:"total_liability"`
	TotalEquity    float64 `json:"total_equity"`
	Difference     float64 `json:"difference"`
	Tolerance      float64 `json:"tolerance"`
	Balanced       bool    `json:"balanced"`
}

// ProfitKPI carries the layered income statement scalars.
type ProfitKPI struct {
	Revenue         float64 `json:"revenue"`
	COGS            float64 `json:"cogs"`
	Opex            float64 `json:"opex"`
	OtherIncome     float64 `json:"other_income"`
	OtherExpense    float64 `json:"other_expense"`
	GrossProfit     float64 `json:"gross_profit"`
	OperatingProfit float64 `json:"operating_profit"`
	NetIncome       float64 `json:"net_income"`
}

// EquityKPI carries the roll-forward continuity check.
type EquityKPI struct {
	OpeningPeriod  string  `json:"opening_period"`
	OpeningEquity  float64 `json:"opening_equity"`
	Contributions  float64 `json:"contributions"`
	Withdrawals    float64 `json:"withdrawals"`
	NetIncome      float64 `json:"net_income"`
	ComputedEnding float64 `json:"computed_ending"`
	SnapshotEnding float64 `json:"snapshot_ending"`
	Difference     float64 `json:"difference"`
	Tolerance      float64 `json:"tolerance"`
	IsMatch        bool    `json:"is_match"`
}

// KPIs groups section scalars by report section.
type KPIs struct {
	Trx      TotalsKPI  `json:"trx"`
	Ajp      TotalsKPI  `json:"ajp"`
	Neraca   BalanceKPI `json:"neraca"`
	RugiLaba ProfitKPI  `json:"rugi_laba"`
	Modal    EquityKPI  `json:"modal"`
}

// DocumentRow is a ranked ledger document finding.
type DocumentRow struct {
	DocCode     string  `json:"kode"`
	Source      string  `json:"sumber"`
	Date        string  `json:"tanggal"`
	PostingDate string  `json:"tgl_posting"`
	Voucher     string  `json:"voucher"`
	Remark      string  `json:"keterangan"`
	Lines       int     `json:"jumlah_baris"`
	TotalDebit  float64 `json:"total_debit"`
	TotalCredit float64 `json:"total_credit"`
	Difference  float64 `json:"selisih"`
	Balanced    bool    `json:"balanced"`
}

// AnomalyRow is a balance-sheet row violating its class sign expectation.
type AnomalyRow struct {
	AccountCode string  `json:"kode_akun"`
	AccountName string  `json:"nama_akun"`
	Category    string  `json:"kategori"`
	Signed      float64 `json:"saldo"`
}

// MovementRow is a ranked equity movement account.
type MovementRow struct {
	AccountCode string  `json:"kode_akun"`
	AccountName string  `json:"nama_akun"`
	Category    string  `json:"kategori"`
	Net         float64 `json:"mutasi"`
}

// Findings groups ranked rows per report section. Arrays are always non-nil so
// a degraded payload serialises as [] rather than null.
type Findings struct {
	Trx    []DocumentRow `json:"trx"`
	Ajp    []DocumentRow `json:"ajp"`
	Neraca []AnomalyRow  `json:"neraca"`
	Modal  []MovementRow `json:"modal"`
}

// Report is the consolidated reconciliation payload. A report is either fully
// computed or fully degraded: on failure every KPI is zero, every findings
// array empty, and Error is non-nil.
type Report struct {
	ReportID             string   `json:"report_id"`
	PeriodType           string   `json:"period_type"`
	Period               string   `json:"period"`
	PeriodLabel          string   `json:"period_label"`
	EffectivePeriod      *string  `json:"effective_period"`
	EffectivePeriodLabel string   `json:"effective_period_label"`
	FindingsMode         string   `json:"findings_mode"`
	KPIs                 KPIs     `json:"kpis"`
	Findings             Findings `json:"findings"`
	Error                *string  `json:"error"`
}

// Degraded reports whether the payload carries an error instead of figures.
func (r Report) Degraded() bool { return r.Error != nil }

func emptyFindings() Findings {
	return Findings{
		Trx:    []DocumentRow{},
		Ajp:    []DocumentRow{},
		Neraca: []AnomalyRow{},
		Modal:  []MovementRow{},
	}
}

func documentRow(d journals.DocumentAggregate) DocumentRow {
	posting := ""
	if !d.PostingDate.IsZero() {
		posting = d.PostingDate.Format(time.DateOnly)
	}
	return DocumentRow{
		DocCode:     d.DocCode,
		Source:      string(d.Source),
		Date:        d.Date.Format(time.DateOnly),
		PostingDate: posting,
		Voucher:     d.Voucher,
		Remark:      d.Remark,
		Lines:       d.Lines,
		TotalDebit:  d.TotalDebit,
		TotalCredit: d.TotalCredit,
		Difference:  d.Difference,
		Balanced:    d.Balanced,
	}
}

func totalsKPI(docs []journals.DocumentAggregate) TotalsKPI {
	kpi := TotalsKPI{}
	for _, d := range docs {
		kpi.TotalDebit += d.TotalDebit
		kpi.TotalCredit += d.TotalCredit
		kpi.DocCount++
		if !d.Balanced {
			kpi.UnbalancedCount++
			kpi.SumSelisihAbs += d.Magnitude()
		}
	}
	return kpi
}
