package http

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kencana-erp/kencana/internal/recon"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

var decimalPrinter = message.NewPrinter(language.Indonesian)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeComment(line string) error {
	if s == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if !strings.HasSuffix(line, "\r\n") {
		line = strings.TrimSuffix(line, "\n")
		line += "\r\n"
	}
	if _, err := s.buf.WriteString(line); err != nil {
		return err
	}
	return nil
}

func (s *csvStreamer) writeRow(row []string) error {
	if s == nil || s.csv == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	if s == nil || s.csv == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

func (s *csvStreamer) Close() error {
	return s.Flush()
}

// writeReportCSV streams the reconciliation payload as a sectioned CSV:
// metadata comments, the five KPI groups, then the four findings lists.
func writeReportCSV(w io.Writer, report recon.Report) error {
	streamer := newCSVStreamer(w)
	if err := writeReportMetadata(streamer, report); err != nil {
		return err
	}

	kpiRows := [][]string{
		{"KPI", "trx", "Jumlah Dokumen", formatCount(report.KPIs.Trx.DocCount)},
		{"KPI", "trx", "Dokumen Tidak Seimbang", formatCount(report.KPIs.Trx.UnbalancedCount)},
		{"KPI", "trx", "Total Selisih Absolut", formatDecimal(report.KPIs.Trx.SumSelisihAbs)},
		{"KPI", "ajp", "Jumlah Dokumen", formatCount(report.KPIs.Ajp.DocCount)},
		{"KPI", "ajp", "Dokumen Tidak Seimbang", formatCount(report.KPIs.Ajp.UnbalancedCount)},
		{"KPI", "ajp", "Total Selisih Absolut", formatDecimal(report.KPIs.Ajp.SumSelisihAbs)},
		{"KPI", "neraca", "Total Aset", formatDecimal(report.KPIs.Neraca.TotalAsset)},
		{"KPI", "neraca", "Total Kewajiban", formatDecimal(report.KPIs.Neraca.TotalLiability)},
		{"KPI", "neraca", "Total Modal", formatDecimal(report.KPIs.Neraca.TotalEquity)},
		{"KPI", "neraca", "Selisih", formatDecimal(report.KPIs.Neraca.Difference)},
		{"KPI", "neraca", "Seimbang", strconv.FormatBool(report.KPIs.Neraca.Balanced)},
		{"KPI", "rugi_laba", "Pendapatan", formatDecimal(report.KPIs.RugiLaba.Revenue)},
		{"KPI", "rugi_laba", "HPP", formatDecimal(report.KPIs.RugiLaba.COGS)},
		{"KPI", "rugi_laba", "Laba Kotor", formatDecimal(report.KPIs.RugiLaba.GrossProfit)},
		{"KPI", "rugi_laba", "Beban Operasional", formatDecimal(report.KPIs.RugiLaba.Opex)},
		{"KPI", "rugi_laba", "Laba Operasional", formatDecimal(report.KPIs.RugiLaba.OperatingProfit)},
		{"KPI", "rugi_laba", "Laba Bersih", formatDecimal(report.KPIs.RugiLaba.NetIncome)},
		{"KPI", "modal", "Modal Awal", formatDecimal(report.KPIs.Modal.OpeningEquity)},
		{"KPI", "modal", "Laba Bersih", formatDecimal(report.KPIs.Modal.NetIncome)},
		{"KPI", "modal", "Modal Akhir (Hitung)", formatDecimal(report.KPIs.Modal.ComputedEnding)},
		{"KPI", "modal", "Modal Akhir (NaBB)", formatDecimal(report.KPIs.Modal.SnapshotEnding)},
		{"KPI", "modal", "Cocok", strconv.FormatBool(report.KPIs.Modal.IsMatch)},
	}
	for _, row := range kpiRows {
		if err := streamer.writeRow(row); err != nil {
			return err
		}
	}

	if err := streamer.writeRow([]string{"", "", "", "", "", ""}); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Bagian", "Kode", "Tanggal", "Debit", "Kredit", "Selisih"}); err != nil {
		return err
	}
	for _, section := range []struct {
		name string
		rows []recon.DocumentRow
	}{{"trx", report.Findings.Trx}, {"ajp", report.Findings.Ajp}} {
		for _, doc := range section.rows {
			if err := streamer.writeRow([]string{
				section.name,
				doc.DocCode,
				doc.Date,
				formatDecimal(doc.TotalDebit),
				formatDecimal(doc.TotalCredit),
				formatDecimal(doc.Difference),
			}); err != nil {
				return err
			}
		}
	}

	if err := streamer.writeRow([]string{"", "", "", ""}); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Bagian", "Kode Akun", "Nama Akun", "Nilai"}); err != nil {
		return err
	}
	for _, row := range report.Findings.Neraca {
		if err := streamer.writeRow([]string{"neraca", row.AccountCode, row.AccountName, formatDecimal(row.Signed)}); err != nil {
			return err
		}
	}
	for _, row := range report.Findings.Modal {
		if err := streamer.writeRow([]string{"modal", row.AccountCode, row.AccountName, formatDecimal(row.Net)}); err != nil {
			return err
		}
	}
	return streamer.Close()
}

func writeReportMetadata(streamer *csvStreamer, report recon.Report) error {
	if err := streamer.writeComment("# Laporan: Rekonsiliasi Keuangan"); err != nil {
		return err
	}
	effective := "-"
	if report.EffectivePeriod != nil {
		effective = *report.EffectivePeriod
	}
	line := fmt.Sprintf("# Periode: %s (%s) | Efektif: %s | Mode: %s",
		report.Period, report.PeriodType, effective, report.FindingsMode)
	if err := streamer.writeComment(line); err != nil {
		return err
	}
	if report.Error != nil {
		return streamer.writeComment("# Kesalahan: " + *report.Error)
	}
	return streamer.writeComment("# Kesalahan: tidak ada")
}

func formatDecimal(v float64) string {
	return decimalPrinter.Sprintf("%.2f", v)
}

func formatCount(n int) string {
	return strconv.Itoa(n)
}
