package periods

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
)

var sixDigits = regexp.MustCompile(`^\d{6}$`)

// Repository reads available snapshot periods from the ledger store. Snapshot
// identifiers end in a six digit YYYYMM suffix; everything before the suffix is
// an opaque prefix.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a snapshot period repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Latest returns the lexicographically maximal snapshot period, or empty when
// no snapshots exist.
func (r *Repository) Latest(ctx context.Context) (string, error) {
	if r == nil || r.pool == nil {
		return "", fmt.Errorf("periods repo not initialised")
	}
	const query = `
SELECT COALESCE(MAX(RIGHT(kode_nabb, 6)), '')
FROM nabb_rekap
WHERE RIGHT(kode_nabb, 6) ~ '^[0-9]{6}$'`
	var token string
	if err := r.pool.QueryRow(ctx, query).Scan(&token); err != nil {
		return "", err
	}
	if token != "" && !sixDigits.MatchString(token) {
		return "", nil
	}
	return token, nil
}

// LatestInYear returns the maximal snapshot period whose first four digits
// equal the requested year, or empty when the year has no snapshots.
func (r *Repository) LatestInYear(ctx context.Context, year string) (string, error) {
	if r == nil || r.pool == nil {
		return "", fmt.Errorf("periods repo not initialised")
	}
	const query = `
SELECT COALESCE(MAX(RIGHT(kode_nabb, 6)), '')
FROM nabb_rekap
WHERE RIGHT(kode_nabb, 6) ~ '^[0-9]{6}$'
  AND LEFT(RIGHT(kode_nabb, 6), 4) = $1`
	var token string
	if err := r.pool.QueryRow(ctx, query, year).Scan(&token); err != nil {
		return "", err
	}
	return token, nil
}

// LatestJournalMonth returns the month of the most recent transactional journal
// entry as YYYYMM, or empty when the journal is empty.
func (r *Repository) LatestJournalMonth(ctx context.Context) (string, error) {
	if r == nil || r.pool == nil {
		return "", fmt.Errorf("periods repo not initialised")
	}
	const query = `SELECT COALESCE(TO_CHAR(MAX(tgl_transaksi), 'YYYYMM'), '') FROM jurnal`
	var token string
	if err := r.pool.QueryRow(ctx, query).Scan(&token); err != nil {
		return "", err
	}
	return token, nil
}
