package snapshots

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kencana-erp/kencana/internal/accounting/accounts"
	"github.com/kencana-erp/kencana/internal/accounting/shared"
	"github.com/kencana-erp/kencana/internal/platform/db"
)

const (
	pgUndefinedTable  = "42P01"
	pgUndefinedColumn = "42703"
)

// Repository reads period-end account balances. The balance source is an
// ordered fallback chain fixed by the capability descriptor: the signed saldo
// column when present, else the opening debit/credit pair, else the read fails
// with ErrMissingBalanceSource.
type Repository struct {
	pool *pgxpool.Pool
	caps db.Capabilities
}

// NewRepository constructs a snapshot balance repository.
func NewRepository(pool *pgxpool.Pool, caps db.Capabilities) *Repository {
	return &Repository{pool: pool, caps: caps}
}

// Balances returns non-zero normalized balances for the exact 6-digit snapshot
// period, filtered to the given account code prefixes (empty set = all).
func (r *Repository) Balances(ctx context.Context, period string, prefixes []string) ([]Row, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("snapshots repo not initialised")
	}
	if period == "" {
		return nil, nil
	}
	switch {
	case r.caps.SnapshotSigned:
		return r.fromSaldo(ctx, period, prefixes)
	case r.caps.SnapshotOpeningPair:
		return r.fromPair(ctx, period, prefixes)
	default:
		return nil, fmt.Errorf("%w: nabb_rekap has neither saldo nor debet_awal/kredit_awal", shared.ErrMissingBalanceSource)
	}
}

func (r *Repository) fromSaldo(ctx context.Context, period string, prefixes []string) ([]Row, error) {
	const query = `
SELECT TRIM(kode_akun), COALESCE(saldo, 0)
FROM nabb_rekap
WHERE RIGHT(kode_nabb, 6) = $1
ORDER BY kode_akun`
	rows, err := r.pool.Query(ctx, query, period)
	if err != nil {
		return nil, mapStructuralError(err)
	}
	defer rows.Close()
	var out []Row
	for rows.Next() {
		var code string
		var raw float64
		if err := rows.Scan(&code, &raw); err != nil {
			return nil, err
		}
		if raw == 0 || !accounts.HasPrefix(code, prefixes) {
			continue
		}
		out = append(out, Row{AccountCode: code, Signed: SignedFromSaldo(code, raw)})
	}
	if err := rows.Err(); err != nil {
		return nil, mapStructuralError(err)
	}
	return out, nil
}

func (r *Repository) fromPair(ctx context.Context, period string, prefixes []string) ([]Row, error) {
	const query = `
SELECT TRIM(kode_akun), COALESCE(debet_awal, 0), COALESCE(kredit_awal, 0)
FROM nabb_rekap
WHERE RIGHT(kode_nabb, 6) = $1
ORDER BY kode_akun`
	rows, err := r.pool.Query(ctx, query, period)
	if err != nil {
		return nil, mapStructuralError(err)
	}
	defer rows.Close()
	var out []Row
	for rows.Next() {
		var code string
		var debit, credit float64
		if err := rows.Scan(&code, &debit, &credit); err != nil {
			return nil, err
		}
		signed := SignedFromPair(debit, credit)
		if signed == 0 || !accounts.HasPrefix(code, prefixes) {
			continue
		}
		out = append(out, Row{AccountCode: code, Signed: signed})
	}
	if err := rows.Err(); err != nil {
		return nil, mapStructuralError(err)
	}
	return out, nil
}

func mapStructuralError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUndefinedTable || pgErr.Code == pgUndefinedColumn {
			return fmt.Errorf("%w: nabb_rekap (%s)", shared.ErrMissingDataSource, pgErr.Code)
		}
	}
	return err
}
