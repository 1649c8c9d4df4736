package recon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kencana-erp/kencana/internal/accounting/journals"
	"github.com/kencana-erp/kencana/internal/accounting/periods"
	"github.com/kencana-erp/kencana/internal/accounting/reports"
	"github.com/kencana-erp/kencana/internal/accounting/snapshots"
	_ "github.com/kencana-erp/kencana/testing"
)

type stubPeriods struct {
	defaultToken string
	latestByYear map[string]string
	err          error
}

func (s stubPeriods) DefaultToken(context.Context, periods.Granularity) (string, error) {
	return s.defaultToken, s.err
}

func (s stubPeriods) ResolveEffective(ctx context.Context, g periods.Granularity, token string) (periods.Period, error) {
	if s.err != nil {
		return periods.Period{}, s.err
	}
	svc := periods.NewService(stubSnapshotLookup{latestByYear: s.latestByYear})
	return svc.ResolveEffective(ctx, g, token)
}

func (s stubPeriods) LatestSnapshotInYear(_ context.Context, year string) (string, error) {
	return s.latestByYear[year], nil
}

type stubSnapshotLookup struct {
	latestByYear map[string]string
}

func (s stubSnapshotLookup) Latest(context.Context) (string, error) { return "", nil }
func (s stubSnapshotLookup) LatestInYear(_ context.Context, year string) (string, error) {
	return s.latestByYear[year], nil
}
func (s stubSnapshotLookup) LatestJournalMonth(context.Context) (string, error) { return "", nil }

type stubLedger struct {
	trx []journals.LedgerLine
	ajp []journals.LedgerLine
	err error
}

func (s stubLedger) TransactionalLines(context.Context, time.Time, time.Time) ([]journals.LedgerLine, error) {
	return s.trx, s.err
}

func (s stubLedger) AdjustingLines(context.Context, time.Time, time.Time) ([]journals.LedgerLine, error) {
	return s.ajp, s.err
}

type stubBalances struct {
	byPeriod map[string][]snapshots.Row
	err      error
}

func (s stubBalances) Balances(_ context.Context, period string, prefixes []string) ([]snapshots.Row, error) {
	if s.err != nil {
		return nil, s.err
	}
	rows := s.byPeriod[period]
	if len(prefixes) == 0 {
		return rows, nil
	}
	var out []snapshots.Row
	for _, row := range rows {
		for _, p := range prefixes {
			if len(row.AccountCode) > 0 && string(row.AccountCode[0]) == p {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

type stubNames struct {
	names map[string]string
	err   error
}

func (s stubNames) Names(context.Context, []string) (map[string]string, error) {
	return s.names, s.err
}

func trxLine(doc string, day int, account string, debit, credit float64) journals.LedgerLine {
	return journals.LedgerLine{
		DocCode:     doc,
		Source:      journals.SourceTransactional,
		Date:        time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		AccountCode: account,
		Debit:       debit,
		Credit:      credit,
	}
}

func newTestService(p PeriodSource, l LedgerSource, b BalanceSource, n NameSource) *Service {
	return NewService(p, l, b, n, reports.DefaultPolicy(), nil)
}

func TestBuildMonthlyReport(t *testing.T) {
	ledger := stubLedger{
		trx: []journals.LedgerLine{
			trxLine("JU-001", 5, "101", 500, 0),
			trxLine("JU-001", 5, "411", 0, 500),
			trxLine("JU-002", 9, "601", 120, 0),
			trxLine("JU-002", 9, "101", 0, 100), // unbalanced by 20
		},
		ajp: []journals.LedgerLine{
			{DocCode: "AJP-01", Source: journals.SourceAdjusting, Date: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), AccountCode: "601", Debit: 30},
			{DocCode: "AJP-01", Source: journals.SourceAdjusting, Date: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), AccountCode: "114", Credit: 30},
		},
	}
	balances := stubBalances{byPeriod: map[string][]snapshots.Row{
		"202401": {
			{AccountCode: "101", Signed: 1000},
			{AccountCode: "201", Signed: -400},
			{AccountCode: "301", Signed: -600},
		},
		"202312": {
			{AccountCode: "301", Signed: -550},
		},
	}}
	svc := newTestService(stubPeriods{}, ledger, balances, stubNames{})

	report := svc.Build(context.Background(), Filters{Granularity: periods.GranularityMonth, Period: "202401"})
	require.Nil(t, report.Error)

	assert.Equal(t, "month", report.PeriodType)
	assert.Equal(t, "202401", report.Period)
	assert.Equal(t, "Jan 2024", report.PeriodLabel)
	require.NotNil(t, report.EffectivePeriod)
	assert.Equal(t, "202401", *report.EffectivePeriod)

	assert.Equal(t, 2, report.KPIs.Trx.DocCount)
	assert.Equal(t, 1, report.KPIs.Trx.UnbalancedCount)
	assert.InDelta(t, 20, report.KPIs.Trx.SumSelisihAbs, 1e-9)
	assert.Equal(t, 1, report.KPIs.Ajp.DocCount)
	assert.Equal(t, 0, report.KPIs.Ajp.UnbalancedCount)

	assert.InDelta(t, 1000, report.KPIs.Neraca.TotalAsset, 1e-9)
	assert.InDelta(t, 400, report.KPIs.Neraca.TotalLiability, 1e-9)
	assert.InDelta(t, 600, report.KPIs.Neraca.TotalEquity, 1e-9)
	assert.True(t, report.KPIs.Neraca.Balanced)

	// Revenue 500 credit vs opex 120+30 debit.
	assert.InDelta(t, 500, report.KPIs.RugiLaba.Revenue, 1e-9)
	assert.InDelta(t, 150, report.KPIs.RugiLaba.Opex, 1e-9)
	assert.InDelta(t, 350, report.KPIs.RugiLaba.NetIncome, 1e-9)

	assert.Equal(t, "202312", report.KPIs.Modal.OpeningPeriod)
	assert.InDelta(t, 550, report.KPIs.Modal.OpeningEquity, 1e-9)
	assert.InDelta(t, 600, report.KPIs.Modal.SnapshotEnding, 1e-9)
	// 550 + 0 + 350 - 0 = 900 vs snapshot 600.
	assert.False(t, report.KPIs.Modal.IsMatch)

	require.Len(t, report.Findings.Trx, 1)
	assert.Equal(t, "JU-002", report.Findings.Trx[0].DocCode)
	assert.Empty(t, report.Findings.Ajp)
}

func TestBuildIncomeStatementKPIsPopulated(t *testing.T) {
	// The profit KPI group carries the layered margins even when every document
	// balances and no findings survive unbalanced mode.
	ledger := stubLedger{trx: []journals.LedgerLine{
		trxLine("JU-001", 2, "411", 0, 900),
		trxLine("JU-001", 2, "510", 300, 0),
		trxLine("JU-001", 2, "101", 600, 0),
	}}
	svc := newTestService(stubPeriods{}, ledger, stubBalances{}, stubNames{})
	report := svc.Build(context.Background(), Filters{Granularity: periods.GranularityMonth, Period: "202402"})
	require.Nil(t, report.Error)
	assert.InDelta(t, 900, report.KPIs.RugiLaba.Revenue, 1e-9)
	assert.InDelta(t, 300, report.KPIs.RugiLaba.COGS, 1e-9)
	assert.InDelta(t, 600, report.KPIs.RugiLaba.GrossProfit, 1e-9)
	assert.Empty(t, report.Findings.Trx)
}

func TestBuildYearlyUsesEffectivePeriod(t *testing.T) {
	balances := stubBalances{byPeriod: map[string][]snapshots.Row{
		"202411": {{AccountCode: "101", Signed: 70}, {AccountCode: "301", Signed: -70}},
		"202312": {{AccountCode: "301", Signed: -60}},
	}}
	svc := newTestService(
		stubPeriods{latestByYear: map[string]string{"2024": "202411", "2023": "202312"}},
		stubLedger{}, balances, stubNames{},
	)
	report := svc.Build(context.Background(), Filters{Granularity: periods.GranularityYear, Period: "2024"})
	require.Nil(t, report.Error)
	require.NotNil(t, report.EffectivePeriod)
	assert.Equal(t, "202411", *report.EffectivePeriod)
	assert.Equal(t, "Nov 2024", report.EffectivePeriodLabel)
	assert.InDelta(t, 70, report.KPIs.Neraca.TotalAsset, 1e-9)
	assert.InDelta(t, 60, report.KPIs.Modal.OpeningEquity, 1e-9)
}

func TestBuildYearlyWithoutSnapshotsKeepsTransactionalSections(t *testing.T) {
	ledger := stubLedger{trx: []journals.LedgerLine{
		trxLine("JU-001", 3, "101", 10, 0),
		trxLine("JU-001", 3, "411", 0, 10),
	}}
	svc := newTestService(stubPeriods{latestByYear: map[string]string{}}, ledger, stubBalances{}, stubNames{})
	report := svc.Build(context.Background(), Filters{Granularity: periods.GranularityYear, Period: "2024"})
	require.Nil(t, report.Error)
	assert.Nil(t, report.EffectivePeriod)
	assert.Equal(t, 1, report.KPIs.Trx.DocCount)
	assert.Zero(t, report.KPIs.Neraca.TotalAsset)
	assert.Empty(t, report.Findings.Neraca)
}

func TestBuildDefaultPeriodSubstitution(t *testing.T) {
	svc := newTestService(stubPeriods{defaultToken: "202403"}, stubLedger{}, stubBalances{}, stubNames{})
	report := svc.Build(context.Background(), Filters{})
	require.Nil(t, report.Error)
	assert.Equal(t, "202403", report.Period)
	assert.Equal(t, "month", report.PeriodType)
}

func assertDegradedShape(t *testing.T, report Report) {
	t.Helper()
	require.NotNil(t, report.Error)
	assert.Zero(t, report.KPIs.Trx)
	assert.Zero(t, report.KPIs.Ajp)
	assert.Zero(t, report.KPIs.Neraca)
	assert.Zero(t, report.KPIs.RugiLaba)
	assert.Zero(t, report.KPIs.Modal)
	require.NotNil(t, report.Findings.Trx)
	require.NotNil(t, report.Findings.Ajp)
	require.NotNil(t, report.Findings.Neraca)
	require.NotNil(t, report.Findings.Modal)
	assert.Empty(t, report.Findings.Trx)
	assert.Empty(t, report.Findings.Ajp)
	assert.Empty(t, report.Findings.Neraca)
	assert.Empty(t, report.Findings.Modal)
}

func TestBuildDegradesOnInvalidPeriod(t *testing.T) {
	svc := newTestService(stubPeriods{}, stubLedger{}, stubBalances{}, stubNames{})
	report := svc.Build(context.Background(), Filters{Granularity: periods.GranularityMonth, Period: "2024-01"})
	assertDegradedShape(t, report)
}

func TestBuildDegradesOnLedgerFailure(t *testing.T) {
	svc := newTestService(stubPeriods{}, stubLedger{err: errors.New("relation jurnal does not exist")}, stubBalances{}, stubNames{})
	report := svc.Build(context.Background(), Filters{Granularity: periods.GranularityMonth, Period: "202401"})
	assertDegradedShape(t, report)
	assert.Contains(t, *report.Error, "jurnal")
}

func TestBuildDegradesOnSnapshotFailure(t *testing.T) {
	svc := newTestService(stubPeriods{}, stubLedger{}, stubBalances{err: errors.New("no balance source available")}, stubNames{})
	report := svc.Build(context.Background(), Filters{Granularity: periods.GranularityMonth, Period: "202401"})
	assertDegradedShape(t, report)
}

func TestBuildNameLookupFailureDoesNotDegrade(t *testing.T) {
	balances := stubBalances{byPeriod: map[string][]snapshots.Row{
		"202401": {{AccountCode: "113", Signed: -40}},
	}}
	svc := newTestService(stubPeriods{}, stubLedger{}, balances, stubNames{err: errors.New("akun missing")})
	report := svc.Build(context.Background(), Filters{Granularity: periods.GranularityMonth, Period: "202401"})
	require.Nil(t, report.Error)
	require.Len(t, report.Findings.Neraca, 1)
	assert.Equal(t, "", report.Findings.Neraca[0].AccountName)
}

func TestBuildEnrichesAccountNames(t *testing.T) {
	balances := stubBalances{byPeriod: map[string][]snapshots.Row{
		"202401": {{AccountCode: "113", Signed: -40}},
	}}
	svc := newTestService(stubPeriods{}, stubLedger{}, balances, stubNames{names: map[string]string{"113": "Piutang Usaha"}})
	report := svc.Build(context.Background(), Filters{Granularity: periods.GranularityMonth, Period: "202401"})
	require.Nil(t, report.Error)
	require.Len(t, report.Findings.Neraca, 1)
	assert.Equal(t, "Piutang Usaha", report.Findings.Neraca[0].AccountName)
}

func TestBuildFindingsModeAll(t *testing.T) {
	ledger := stubLedger{trx: []journals.LedgerLine{
		trxLine("JU-001", 2, "101", 10, 0),
		trxLine("JU-001", 2, "411", 0, 10),
	}}
	svc := newTestService(stubPeriods{}, ledger, stubBalances{}, stubNames{})
	report := svc.Build(context.Background(), Filters{Granularity: periods.GranularityMonth, Period: "202401", Mode: reports.ModeAll})
	require.Nil(t, report.Error)
	assert.Equal(t, "all", report.FindingsMode)
	assert.Len(t, report.Findings.Trx, 1)
}

func TestBuildAdjustingPostingDateSurfaced(t *testing.T) {
	posted := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	ledger := stubLedger{ajp: []journals.LedgerLine{
		{DocCode: "AJP-05", Source: journals.SourceAdjusting, Date: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), AccountCode: "601", Debit: 40, PostingDate: posted},
		{DocCode: "AJP-06", Source: journals.SourceAdjusting, Date: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), AccountCode: "601", Debit: 15},
	}}
	svc := newTestService(stubPeriods{}, ledger, stubBalances{}, stubNames{})
	report := svc.Build(context.Background(), Filters{Granularity: periods.GranularityMonth, Period: "202401", Mode: reports.ModeAll})
	require.Nil(t, report.Error)
	require.Len(t, report.Findings.Ajp, 2)
	byCode := map[string]DocumentRow{}
	for _, row := range report.Findings.Ajp {
		byCode[row.DocCode] = row
	}
	assert.Equal(t, "2024-02-03", byCode["AJP-05"].PostingDate)
	assert.Equal(t, "", byCode["AJP-06"].PostingDate)
}

type recordingObserver struct {
	statuses []string
}

func (r *recordingObserver) ObserveReportBuild(status string, _ float64) {
	r.statuses = append(r.statuses, status)
}

func TestBuildReportsObserverStatus(t *testing.T) {
	obs := &recordingObserver{}
	svc := newTestService(stubPeriods{}, stubLedger{}, stubBalances{}, stubNames{}).WithObserver(obs)
	_ = svc.Build(context.Background(), Filters{Granularity: periods.GranularityMonth, Period: "202401"})
	_ = svc.Build(context.Background(), Filters{Granularity: periods.GranularityMonth, Period: "bad"})
	require.Equal(t, []string{"ok", "degraded"}, obs.statuses)
}
