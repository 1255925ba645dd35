package sqlite

import (
	"context"
	"database/sql"

	"qazna.org/internal/store"
)

type authCodeStore struct{ db *sql.DB }

func (s *authCodeStore) Insert(ctx context.Context, c store.AuthCode) error {
	_, err := s.db.ExecContext(ctx,
		`insert into auth_codes(code_hash, user_id, tenant_id, redirect_origin, audience, expires_at, code_challenge, code_challenge_method)
		 values(?,?,?,?,?,?,?,?)`,
		c.CodeHash, c.UserID, c.TenantID, c.RedirectOrigin, c.Audience, formatTime(c.ExpiresAt),
		nullable(c.CodeChallenge), nullable(c.CodeChallengeMethod),
	)
	return err
}

// Consume performs the read-and-delete as a single atomic statement via
// SQLite's DELETE ... RETURNING (3.35+), closing the race the spec's Open
// Questions flag in the two-statement source behavior: at most one caller
// can ever observe the row, even one that later fails validation.
func (s *authCodeStore) Consume(ctx context.Context, codeHash string) (store.AuthCode, error) {
	row := s.db.QueryRowContext(ctx,
		`delete from auth_codes where code_hash=?
		 returning code_hash, user_id, tenant_id, redirect_origin, audience, expires_at, code_challenge, code_challenge_method`,
		codeHash)
	var (
		c             store.AuthCode
		expiresAt     string
		challenge     sql.NullString
		challengeMode sql.NullString
	)
	if err := row.Scan(&c.CodeHash, &c.UserID, &c.TenantID, &c.RedirectOrigin, &c.Audience, &expiresAt, &challenge, &challengeMode); err != nil {
		return store.AuthCode{}, mapErr(err)
	}
	c.ExpiresAt = parseTime(expiresAt)
	c.CodeChallenge = challenge.String
	c.CodeChallengeMethod = challengeMode.String
	return c, nil
}
