package sqlite

import (
	"context"
	"database/sql"

	"qazna.org/internal/store"
)

type passwordResetStore struct{ db *sql.DB }

func (s *passwordResetStore) Insert(ctx context.Context, t store.PasswordResetToken) error {
	_, err := s.db.ExecContext(ctx,
		`insert into password_reset_tokens(token_hash, user_id, expires_at, used_at) values(?,?,?,null)`,
		t.TokenHash, t.UserID, formatTime(t.ExpiresAt),
	)
	return err
}

// Consume reads the row and, iff found and unused, marks used_at in the
// same logical unit (a single UPDATE ... WHERE used_at is null ... RETURNING),
// so a subsequent read never observes it as unused again.
func (s *passwordResetStore) Consume(ctx context.Context, tokenHash string) (store.PasswordResetToken, error) {
	now := formatTime(timeNow())
	row := s.db.QueryRowContext(ctx,
		`update password_reset_tokens set used_at=?
		 where token_hash=? and used_at is null
		 returning token_hash, user_id, expires_at, used_at`,
		now, tokenHash)
	var (
		t         store.PasswordResetToken
		expiresAt string
		usedAt    sql.NullString
	)
	if err := row.Scan(&t.TokenHash, &t.UserID, &expiresAt, &usedAt); err != nil {
		return store.PasswordResetToken{}, mapErr(err)
	}
	t.ExpiresAt = parseTime(expiresAt)
	if usedAt.Valid {
		parsed := parseTime(usedAt.String)
		t.UsedAt = &parsed
	}
	return t, nil
}
