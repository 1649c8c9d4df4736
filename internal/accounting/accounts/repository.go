package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kencana-erp/kencana/internal/platform/db"
)

// Repository resolves account display names from the optional master table.
type Repository struct {
	pool *pgxpool.Pool
	caps db.Capabilities
}

// NewRepository constructs the account name lookup.
func NewRepository(pool *pgxpool.Pool, caps db.Capabilities) *Repository {
	return &Repository{pool: pool, caps: caps}
}

// Names maps account codes to display names. When the master table is absent
// every code resolves to a blank name rather than an error.
func (r *Repository) Names(ctx context.Context, codes []string) (map[string]string, error) {
	names := make(map[string]string, len(codes))
	if r == nil || r.pool == nil {
		return names, fmt.Errorf("accounts repo not initialised")
	}
	if !r.caps.AccountMaster || len(codes) == 0 {
		return names, nil
	}
	unique := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		unique = append(unique, trimmed)
	}
	if len(unique) == 0 {
		return names, nil
	}
	const query = `SELECT TRIM(kode_akun), COALESCE(nama_akun, '') FROM akun WHERE TRIM(kode_akun) = ANY($1)`
	rows, err := r.pool.Query(ctx, query, unique)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var code, name string
		if err := rows.Scan(&code, &name); err != nil {
			return nil, err
		}
		names[code] = name
	}
	return names, rows.Err()
}
