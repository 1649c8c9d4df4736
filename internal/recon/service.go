package recon

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kencana-erp/kencana/internal/accounting/journals"
	"github.com/kencana-erp/kencana/internal/accounting/periods"
	"github.com/kencana-erp/kencana/internal/accounting/reports"
	"github.com/kencana-erp/kencana/internal/accounting/snapshots"
)

// PeriodSource resolves reporting periods against the available snapshots.
type PeriodSource interface {
	DefaultToken(ctx context.Context, g periods.Granularity) (string, error)
	ResolveEffective(ctx context.Context, g periods.Granularity, token string) (periods.Period, error)
	LatestSnapshotInYear(ctx context.Context, year string) (string, error)
}

// LedgerSource reads transactional and adjusting ledger lines for a range.
type LedgerSource interface {
	TransactionalLines(ctx context.Context, from, to time.Time) ([]journals.LedgerLine, error)
	AdjustingLines(ctx context.Context, from, to time.Time) ([]journals.LedgerLine, error)
}

// BalanceSource reads normalized snapshot balances for a period and prefix set.
type BalanceSource interface {
	Balances(ctx context.Context, period string, prefixes []string) ([]snapshots.Row, error)
}

// NameSource resolves account display names; absence degrades to blank names.
type NameSource interface {
	Names(ctx context.Context, codes []string) (map[string]string, error)
}

// BuildObserver receives build outcome metrics.
type BuildObserver interface {
	ObserveReportBuild(status string, seconds float64)
}

// Service sequences the period resolver, ledger aggregator, snapshot reader
// and report builders into one consolidated payload. It is stateless and
// read-only; every build is a request-scoped pipeline.
type Service struct {
	periods  PeriodSource
	ledger   LedgerSource
	balances BalanceSource
	names    NameSource
	policy   reports.Policy
	logger   *slog.Logger
	observer BuildObserver
	now      func() time.Time
}

// NewService constructs the reconciliation orchestrator.
func NewService(periodSrc PeriodSource, ledger LedgerSource, balances BalanceSource, names NameSource, policy reports.Policy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		periods:  periodSrc,
		ledger:   ledger,
		balances: balances,
		names:    names,
		policy:   policy,
		logger:   logger,
		now:      time.Now,
	}
}

// WithObserver attaches a build metrics observer.
func (s *Service) WithObserver(observer BuildObserver) *Service {
	if s != nil {
		s.observer = observer
	}
	return s
}

// Build computes the reconciliation report for the filters. It never returns
// an error: any failure degrades the whole payload to zeroed KPIs and empty
// findings plus an error string, so a half-computed report is never presented.
func (s *Service) Build(ctx context.Context, f Filters) (report Report) {
	start := s.now()
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("recon build panic", slog.Any("panic", rec))
			report = s.degraded(f, nil, fmt.Errorf("computation failed: %v", rec))
		}
		status := "ok"
		if report.Degraded() {
			status = "degraded"
		}
		if s.observer != nil {
			s.observer.ObserveReportBuild(status, time.Since(start).Seconds())
		}
	}()

	granularity := f.Granularity
	if granularity == "" {
		granularity = periods.GranularityMonth
	}
	f.Granularity = granularity
	mode := s.policy.Mode(f.Mode)

	token := strings.TrimSpace(f.Period)
	if token == "" {
		var err error
		token, err = s.periods.DefaultToken(ctx, granularity)
		if err != nil {
			return s.degraded(f, nil, err)
		}
	}
	f.Period = token

	period, err := s.periods.ResolveEffective(ctx, granularity, token)
	if err != nil {
		return s.degraded(f, nil, err)
	}

	openingPeriod, err := s.openingPeriod(ctx, period)
	if err != nil {
		return s.degraded(f, &period, err)
	}

	var (
		trxLines, ajpLines    []journals.LedgerLine
		endingRows, eqOpening []snapshots.Row
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		trxLines, err = s.ledger.TransactionalLines(egCtx, period.Start, period.End)
		return err
	})
	eg.Go(func() error {
		var err error
		ajpLines, err = s.ledger.AdjustingLines(egCtx, period.Start, period.End)
		return err
	})
	if period.Effective != "" {
		eg.Go(func() error {
			var err error
			endingRows, err = s.balances.Balances(egCtx, period.Effective, nil)
			return err
		})
	}
	if openingPeriod != "" {
		eg.Go(func() error {
			var err error
			eqOpening, err = s.balances.Balances(egCtx, openingPeriod, []string{"3"})
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return s.degraded(f, &period, err)
	}

	union := make([]journals.LedgerLine, 0, len(trxLines)+len(ajpLines))
	union = append(union, trxLines...)
	union = append(union, ajpLines...)

	trxDocs := journals.AggregateDocuments(trxLines)
	ajpDocs := journals.AggregateDocuments(ajpLines)
	nominal := journals.AggregateAccounts(union, []string{"4", "5", "6", "7"})
	equityMoves := journals.AggregateAccounts(union, []string{"3"})

	bs := reports.BuildBalanceSheet(endingRows, s.policy)
	is := reports.BuildIncomeStatement(nominal, s.policy)
	rf := reports.BuildEquityRollForward(reports.EquityInputs{
		OpeningPeriod:  openingPeriod,
		EndingPeriod:   period.Effective,
		OpeningEquity:  reports.EquityMagnitude(eqOpening),
		SnapshotEnding: reports.EquityMagnitude(endingRows),
		NetIncome:      is.NetIncome,
		Movements:      equityMoves,
	}, s.policy)

	report = s.assemble(f, period, mode, trxDocs, ajpDocs, bs, is, rf)
	s.enrichNames(ctx, &report)
	s.logger.Info("recon report built",
		slog.String("report_id", report.ReportID),
		slog.String("period", report.Period),
		slog.String("period_type", report.PeriodType),
		slog.Bool("neraca_balanced", report.KPIs.Neraca.Balanced),
		slog.Bool("modal_match", report.KPIs.Modal.IsMatch),
	)
	return report
}

// openingPeriod resolves the snapshot period the roll-forward opens from: the
// previous calendar month in month mode, the effective month of the prior year
// in year mode. Empty when no opening snapshot can exist.
func (s *Service) openingPeriod(ctx context.Context, period periods.Period) (string, error) {
	switch period.Granularity {
	case periods.GranularityMonth:
		return periods.PrevMonth(period.Effective), nil
	case periods.GranularityYear:
		year, err := strconv.Atoi(period.Token)
		if err != nil {
			return "", nil
		}
		return s.periods.LatestSnapshotInYear(ctx, strconv.Itoa(year-1))
	default:
		return "", nil
	}
}

func (s *Service) assemble(f Filters, period periods.Period, mode reports.Mode, trxDocs, ajpDocs []journals.DocumentAggregate, bs reports.BalanceSheet, is reports.IncomeStatement, rf reports.EquityRollForward) Report {
	report := Report{
		ReportID:             uuid.NewString(),
		PeriodType:           string(period.Granularity),
		Period:               period.Token,
		PeriodLabel:          period.Label,
		EffectivePeriodLabel: period.EffectiveLabel,
		FindingsMode:         string(mode),
		Findings:             emptyFindings(),
	}
	if period.Effective != "" {
		effective := period.Effective
		report.EffectivePeriod = &effective
	}

	report.KPIs.Trx = totalsKPI(trxDocs)
	report.KPIs.Ajp = totalsKPI(ajpDocs)
	report.KPIs.Neraca = BalanceKPI{
		TotalAsset:     bs.TotalAsset,
		TotalLiability: bs.TotalLiability,
		TotalEquity:    bs.TotalEquity,
		Difference:     bs.Difference,
		Tolerance:      bs.Tolerance,
		Balanced:       bs.Balanced,
	}
	report.KPIs.RugiLaba = ProfitKPI{
		Revenue:         is.Revenue,
		COGS:            is.COGS,
		Opex:            is.Opex,
		OtherIncome:     is.OtherIncome,
		OtherExpense:    is.OtherExpense,
		GrossProfit:     is.GrossProfit,
		OperatingProfit: is.OperatingProfit,
		NetIncome:       is.NetIncome,
	}
	report.KPIs.Modal = EquityKPI{
		OpeningPeriod:  rf.OpeningPeriod,
		OpeningEquity:  rf.OpeningEquity,
		Contributions:  rf.Contributions,
		Withdrawals:    rf.Withdrawals,
		NetIncome:      rf.NetIncome,
		ComputedEnding: rf.ComputedEnding,
		SnapshotEnding: rf.SnapshotEnding,
		Difference:     rf.Difference,
		Tolerance:      rf.Tolerance,
		IsMatch:        rf.IsMatch,
	}

	for _, doc := range reports.Select(trxDocs, mode, s.policy.TopN) {
		report.Findings.Trx = append(report.Findings.Trx, documentRow(doc))
	}
	for _, doc := range reports.Select(ajpDocs, mode, s.policy.TopN) {
		report.Findings.Ajp = append(report.Findings.Ajp, documentRow(doc))
	}
	for _, a := range bs.Anomalies {
		report.Findings.Neraca = append(report.Findings.Neraca, AnomalyRow{
			AccountCode: a.AccountCode,
			AccountName: a.AccountName,
			Category:    string(a.Category),
			Signed:      a.Signed,
		})
	}
	for _, m := range rf.Movements {
		report.Findings.Modal = append(report.Findings.Modal, MovementRow{
			AccountCode: m.AccountCode,
			AccountName: m.AccountName,
			Category:    string(m.Category),
			Net:         m.Net,
		})
	}
	return report
}

// enrichNames fills blank account names on findings from the optional master
// lookup. Lookup failure leaves names blank; it never degrades the report.
func (s *Service) enrichNames(ctx context.Context, report *Report) {
	if s.names == nil {
		return
	}
	codes := make([]string, 0, len(report.Findings.Neraca)+len(report.Findings.Modal))
	for _, row := range report.Findings.Neraca {
		if row.AccountName == "" {
			codes = append(codes, row.AccountCode)
		}
	}
	for _, row := range report.Findings.Modal {
		if row.AccountName == "" {
			codes = append(codes, row.AccountCode)
		}
	}
	if len(codes) == 0 {
		return
	}
	names, err := s.names.Names(ctx, codes)
	if err != nil {
		s.logger.Warn("account name lookup", slog.Any("error", err))
		return
	}
	for i := range report.Findings.Neraca {
		if report.Findings.Neraca[i].AccountName == "" {
			report.Findings.Neraca[i].AccountName = names[report.Findings.Neraca[i].AccountCode]
		}
	}
	for i := range report.Findings.Modal {
		if report.Findings.Modal[i].AccountName == "" {
			report.Findings.Modal[i].AccountName = names[report.Findings.Modal[i].AccountCode]
		}
	}
}

// degraded builds the all-or-nothing failure payload: every KPI exactly zero,
// every findings array exactly empty, and the error string attached.
func (s *Service) degraded(f Filters, period *periods.Period, err error) Report {
	msg := err.Error()
	report := Report{
		ReportID:     uuid.NewString(),
		PeriodType:   string(f.Granularity),
		Period:       f.Period,
		FindingsMode: string(s.policy.Mode(f.Mode)),
		Findings:     emptyFindings(),
		Error:        &msg,
	}
	if period != nil {
		report.Period = period.Token
		report.PeriodLabel = period.Label
		report.EffectivePeriodLabel = period.EffectiveLabel
		if period.Effective != "" {
			effective := period.Effective
			report.EffectivePeriod = &effective
		}
	}
	s.logger.Error("recon report degraded",
		slog.String("report_id", report.ReportID),
		slog.String("period", report.Period),
		slog.Any("error", err),
	)
	return report
}
