package sqlite

import (
	"context"
	"database/sql"

	"qazna.org/internal/store"
)

type flowStateStore struct{ db *sql.DB }

func (s *flowStateStore) Insert(ctx context.Context, fs store.FederationFlowState) error {
	_, err := s.db.ExecContext(ctx,
		`insert into federation_flow_states(state, tenant_id, redirect_url, code_verifier, nonce, provider, expires_at)
		 values(?,?,?,?,?,?,?)`,
		fs.State, fs.TenantID, fs.RedirectURL, fs.CodeVerifier, nullable(fs.Nonce), fs.Provider, formatTime(fs.ExpiresAt),
	)
	return err
}

// Consume mirrors authCodeStore.Consume's atomic DELETE ... RETURNING.
func (s *flowStateStore) Consume(ctx context.Context, state string) (store.FederationFlowState, error) {
	row := s.db.QueryRowContext(ctx,
		`delete from federation_flow_states where state=?
		 returning state, tenant_id, redirect_url, code_verifier, nonce, provider, expires_at`,
		state)
	var (
		fs        store.FederationFlowState
		nonce     sql.NullString
		expiresAt string
	)
	if err := row.Scan(&fs.State, &fs.TenantID, &fs.RedirectURL, &fs.CodeVerifier, &nonce, &fs.Provider, &expiresAt); err != nil {
		return store.FederationFlowState{}, mapErr(err)
	}
	fs.Nonce = nonce.String
	fs.ExpiresAt = parseTime(expiresAt)
	return fs, nil
}
