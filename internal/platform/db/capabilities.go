package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Capabilities describes which optional tables and columns exist in the ledger
// schema. It is resolved once at startup and passed to repositories as an
// immutable value; the engine never probes structure at query time. Optional
// fields that are absent resolve to blank/zero in query output and never change
// computed totals.
type Capabilities struct {
	VoucherCode          bool // jurnal.kode_voucher
	JournalRemark        bool // jurnal.keterangan
	AdjustingRemark      bool // jurnal_penyesuaian.keterangan
	AdjustingPostingDate bool // jurnal_penyesuaian.tgl_posting
	AdjustingAccountName bool // jurnal_penyesuaian.nama_akun
	SnapshotSigned       bool // nabb_rekap.saldo
	SnapshotOpeningPair  bool // nabb_rekap.debet_awal + kredit_awal
	AccountMaster        bool // akun table
}

// HasBalanceSource reports whether any snapshot balance column is usable.
func (c Capabilities) HasBalanceSource() bool {
	return c.SnapshotSigned || c.SnapshotOpeningPair
}

// ProbeCapabilities inspects information_schema for the optional structures the
// reporting engine can use.
func ProbeCapabilities(ctx context.Context, pool *pgxpool.Pool) (Capabilities, error) {
	var caps Capabilities
	checks := []struct {
		table  string
		column string
		target *bool
	}{
		{"jurnal", "kode_voucher", &caps.VoucherCode},
		{"jurnal", "keterangan", &caps.JournalRemark},
		{"jurnal_penyesuaian", "keterangan", &caps.AdjustingRemark},
		{"jurnal_penyesuaian", "tgl_posting", &caps.AdjustingPostingDate},
		{"jurnal_penyesuaian", "nama_akun", &caps.AdjustingAccountName},
		{"nabb_rekap", "saldo", &caps.SnapshotSigned},
	}
	const columnQuery = `
SELECT EXISTS (
    SELECT 1 FROM information_schema.columns
    WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2
)`
	for _, chk := range checks {
		if err := pool.QueryRow(ctx, columnQuery, chk.table, chk.column).Scan(chk.target); err != nil {
			return Capabilities{}, fmt.Errorf("platform/db: probe %s.%s: %w", chk.table, chk.column, err)
		}
	}

	var hasDebet, hasKredit bool
	if err := pool.QueryRow(ctx, columnQuery, "nabb_rekap", "debet_awal").Scan(&hasDebet); err != nil {
		return Capabilities{}, fmt.Errorf("platform/db: probe nabb_rekap.debet_awal: %w", err)
	}
	if err := pool.QueryRow(ctx, columnQuery, "nabb_rekap", "kredit_awal").Scan(&hasKredit); err != nil {
		return Capabilities{}, fmt.Errorf("platform/db: probe nabb_rekap.kredit_awal: %w", err)
	}
	caps.SnapshotOpeningPair = hasDebet && hasKredit

	const tableQuery = `SELECT to_regclass($1) IS NOT NULL`
	if err := pool.QueryRow(ctx, tableQuery, "akun").Scan(&caps.AccountMaster); err != nil {
		return Capabilities{}, fmt.Errorf("platform/db: probe akun: %w", err)
	}
	return caps, nil
}
