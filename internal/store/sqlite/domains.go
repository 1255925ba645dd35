package sqlite

import (
	"context"
	"database/sql"
)

// Lookup implements redirect.DomainLookup directly on Store: the registered
// custom-domain table is small and read far more often than written, so it
// rides the same connection as everything else rather than a separate KV
// dependency.
func (s *Store) Lookup(ctx context.Context, host string) (string, bool) {
	var tenantID string
	err := s.db.QueryRowContext(ctx, `select tenant_id from tenant_domains where host = ?`, host).Scan(&tenantID)
	if err != nil {
		if err != sql.ErrNoRows {
			return "", false
		}
		return "", false
	}
	return tenantID, true
}

// RegisterDomain inserts or updates a custom-domain-to-tenant mapping.
func (s *Store) RegisterDomain(ctx context.Context, host, tenantID string) error {
	_, err := s.db.ExecContext(ctx, `
		insert into tenant_domains(host, tenant_id) values (?, ?)
		on conflict(host) do update set tenant_id = excluded.tenant_id`, host, tenantID)
	return err
}
