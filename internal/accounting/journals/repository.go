package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kencana-erp/kencana/internal/accounting/shared"
	"github.com/kencana-erp/kencana/internal/platform/db"
)

// Postgres error codes for structurally absent relations and columns.
const (
	pgUndefinedTable  = "42P01"
	pgUndefinedColumn = "42703"
)

// Repository reads ledger lines for a date range. Optional columns are only
// selected when the capability descriptor says they exist; absent optionals
// resolve to blank strings in the output DTOs.
type Repository struct {
	pool *pgxpool.Pool
	caps db.Capabilities
}

// NewRepository constructs a ledger line repository.
func NewRepository(pool *pgxpool.Pool, caps db.Capabilities) *Repository {
	return &Repository{pool: pool, caps: caps}
}

// transactionalQuery builds the journal select. Each optional column is
// replaced by a blank literal when the descriptor says it does not exist, so
// a partially-provisioned schema never raises 42703.
func transactionalQuery(caps db.Capabilities) string {
	voucher := "''"
	if caps.VoucherCode {
		voucher = "COALESCE(j.kode_voucher, '')"
	}
	remark := "''"
	if caps.JournalRemark {
		remark = "COALESCE(j.keterangan, '')"
	}
	return fmt.Sprintf(`
SELECT j.kode_jurnal,
       j.tgl_transaksi,
       TRIM(d.kode_akun),
       COALESCE(d.debet, 0),
       COALESCE(d.kredit, 0),
       %s,
       %s
FROM jurnal j
JOIN jurnal_detail d ON d.kode_jurnal = j.kode_jurnal
WHERE j.tgl_transaksi BETWEEN $1 AND $2
ORDER BY j.tgl_transaksi, j.kode_jurnal`, voucher, remark)
}

// adjustingQuery builds the adjusting-entry select. The remark and posting
// date are gated on the jurnal_penyesuaian columns specifically; the
// transactional table having them says nothing about this one.
func adjustingQuery(caps db.Capabilities) string {
	name := "''"
	if caps.AdjustingAccountName {
		name = "COALESCE(p.nama_akun, '')"
	}
	remark := "''"
	if caps.AdjustingRemark {
		remark = "COALESCE(p.keterangan, '')"
	}
	posting := "'0001-01-01'::timestamp"
	if caps.AdjustingPostingDate {
		posting = "COALESCE(p.tgl_posting, '0001-01-01'::timestamp)"
	}
	return fmt.Sprintf(`
SELECT p.kode_jp,
       p.tgl_periode,
       TRIM(p.kode_akun),
       COALESCE(p.debet, 0),
       COALESCE(p.kredit, 0),
       %s,
       %s,
       %s
FROM jurnal_penyesuaian p
WHERE p.tgl_periode BETWEEN $1 AND $2
ORDER BY p.tgl_periode, p.kode_jp`, name, remark, posting)
}

// TransactionalLines returns journal lines joined to their entry, for entries
// dated within [from, to].
func (r *Repository) TransactionalLines(ctx context.Context, from, to time.Time) ([]LedgerLine, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("journals repo not initialised")
	}
	rows, err := r.pool.Query(ctx, transactionalQuery(r.caps), from, to)
	if err != nil {
		return nil, mapStructuralError(err, "jurnal/jurnal_detail")
	}
	defer rows.Close()
	var lines []LedgerLine
	for rows.Next() {
		line := LedgerLine{Source: SourceTransactional}
		if err := rows.Scan(&line.DocCode, &line.Date, &line.AccountCode, &line.Debit, &line.Credit, &line.Voucher, &line.Remark); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStructuralError(err, "jurnal/jurnal_detail")
	}
	return lines, nil
}

// AdjustingLines returns adjusting entries whose period date falls within
// [from, to]. The period date is both the grouping key and the effective date.
func (r *Repository) AdjustingLines(ctx context.Context, from, to time.Time) ([]LedgerLine, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("journals repo not initialised")
	}
	rows, err := r.pool.Query(ctx, adjustingQuery(r.caps), from, to)
	if err != nil {
		return nil, mapStructuralError(err, "jurnal_penyesuaian")
	}
	defer rows.Close()
	var lines []LedgerLine
	for rows.Next() {
		line := LedgerLine{Source: SourceAdjusting}
		if err := rows.Scan(&line.DocCode, &line.Date, &line.AccountCode, &line.Debit, &line.Credit, &line.AccountName, &line.Remark, &line.PostingDate); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStructuralError(err, "jurnal_penyesuaian")
	}
	return lines, nil
}

// mapStructuralError folds undefined table/column errors into the
// MissingDataSource taxonomy so the orchestrator can degrade with a message
// naming the missing structure.
func mapStructuralError(err error, structure string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUndefinedTable || pgErr.Code == pgUndefinedColumn {
			return fmt.Errorf("%w: %s (%s)", shared.ErrMissingDataSource, structure, pgErr.Code)
		}
	}
	return err
}
