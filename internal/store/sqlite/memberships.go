package sqlite

import (
	"context"
	"database/sql"

	"qazna.org/internal/ids"
	"qazna.org/internal/store"
)

type membershipStore struct{ db *sql.DB }

// EnsureCustomer inserts an active customer-role row; on conflict with the
// (userID, tenantID, role) uniqueness constraint it is a no-op and leaves
// any existing status untouched, per spec §4.2 and the Open Question
// decision recorded in DESIGN.md.
func (s *membershipStore) EnsureCustomer(ctx context.Context, userID, tenantID string) error {
	_, err := s.db.ExecContext(ctx,
		`insert into tenant_memberships(id, user_id, tenant_id, role, status, created_at)
		 values(?,?,?,?,?,?)
		 on conflict(user_id, tenant_id, role) do nothing`,
		ids.New(), userID, tenantID, store.RoleCustomer, store.MembershipActive, formatTime(timeNow()),
	)
	return err
}

func (s *membershipStore) ListByUser(ctx context.Context, userID string) ([]store.TenantMembership, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, user_id, tenant_id, role, status, created_at
		 from tenant_memberships where user_id=? order by created_at asc`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.TenantMembership
	for rows.Next() {
		var m store.TenantMembership
		var createdAt string
		if err := rows.Scan(&m.ID, &m.UserID, &m.TenantID, &m.Role, &m.Status, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(createdAt)
		out = append(out, m)
	}
	return out, rows.Err()
}
