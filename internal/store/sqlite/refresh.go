package sqlite

import (
	"context"
	"database/sql"

	"qazna.org/internal/store"
)

type refreshTokenStore struct{ db *sql.DB }

func (s *refreshTokenStore) Insert(ctx context.Context, rt store.RefreshToken) error {
	_, err := s.db.ExecContext(ctx,
		`insert into refresh_tokens(id, user_id, token_hash, family_id, expires_at, revoked_at, last_used_at, created_at, created_ip, user_agent)
		 values(?,?,?,?,?,null,null,?,?,?)`,
		rt.ID, rt.UserID, rt.TokenHash, rt.FamilyID, formatTime(rt.ExpiresAt), formatTime(timeNow()),
		nullable(rt.CreatedIP), nullable(rt.UserAgent),
	)
	return err
}

func (s *refreshTokenStore) FindByHash(ctx context.Context, tokenHash string) (store.RefreshToken, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, user_id, token_hash, family_id, expires_at, revoked_at, last_used_at, created_at, created_ip, user_agent
		 from refresh_tokens where token_hash=?`, tokenHash)
	return scanRefreshToken(row)
}

func scanRefreshToken(row *sql.Row) (store.RefreshToken, error) {
	var (
		rt         store.RefreshToken
		expiresAt  string
		createdAt  string
		revokedAt  sql.NullString
		lastUsedAt sql.NullString
		createdIP  sql.NullString
		userAgent  sql.NullString
	)
	if err := row.Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &rt.FamilyID, &expiresAt, &revokedAt, &lastUsedAt, &createdAt, &createdIP, &userAgent); err != nil {
		return store.RefreshToken{}, mapErr(err)
	}
	rt.ExpiresAt = parseTime(expiresAt)
	rt.CreatedAt = parseTime(createdAt)
	rt.CreatedIP = createdIP.String
	rt.UserAgent = userAgent.String
	if revokedAt.Valid {
		t := parseTime(revokedAt.String)
		rt.RevokedAt = &t
	}
	if lastUsedAt.Valid {
		t := parseTime(lastUsedAt.String)
		rt.LastUsedAt = &t
	}
	return rt, nil
}

// Rotate atomically marks oldHash revoked and inserts next within the same
// family, but only when oldHash was not already revoked. This is the
// conditional-update-in-a-transaction the spec's concurrency model asks
// for: across concurrent presenters of the same token, at most one rotation
// succeeds.
func (s *refreshTokenStore) Rotate(ctx context.Context, oldHash string, next store.RefreshToken) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	now := formatTime(timeNow())
	res, err := tx.ExecContext(ctx,
		`update refresh_tokens set revoked_at=?, last_used_at=? where token_hash=? and revoked_at is null`,
		now, now, oldHash)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		var exists int
		row := tx.QueryRowContext(ctx, `select 1 from refresh_tokens where token_hash=?`, oldHash)
		if scanErr := row.Scan(&exists); scanErr != nil {
			if scanErr == sql.ErrNoRows {
				return false, store.ErrNotFound
			}
			return false, scanErr
		}
		// Row exists but was already revoked: reuse of an already-rotated
		// token. The caller must revoke the whole family.
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		`insert into refresh_tokens(id, user_id, token_hash, family_id, expires_at, revoked_at, last_used_at, created_at, created_ip, user_agent)
		 values(?,?,?,?,?,null,null,?,?,?)`,
		next.ID, next.UserID, next.TokenHash, next.FamilyID, formatTime(next.ExpiresAt), now,
		nullable(next.CreatedIP), nullable(next.UserAgent),
	)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *refreshTokenStore) RevokeFamily(ctx context.Context, familyID string) error {
	_, err := s.db.ExecContext(ctx,
		`update refresh_tokens set revoked_at=? where family_id=? and revoked_at is null`,
		formatTime(timeNow()), familyID)
	return err
}

func (s *refreshTokenStore) RevokeByUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`update refresh_tokens set revoked_at=? where user_id=? and revoked_at is null`,
		formatTime(timeNow()), userID)
	return err
}

func (s *refreshTokenStore) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx,
		`update refresh_tokens set revoked_at=? where token_hash=? and revoked_at is null`,
		formatTime(timeNow()), tokenHash)
	return err
}
