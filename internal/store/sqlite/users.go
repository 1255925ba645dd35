package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"qazna.org/internal/ids"
	"qazna.org/internal/store"
)

type userStore struct{ db *sql.DB }

func (s *userStore) Create(ctx context.Context, u store.User) (store.User, error) {
	if u.ID == "" {
		u.ID = ids.New()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	now := formatTime(timeNow())
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, email, email_verified, password_hash, name, avatar_url, created_at, updated_at)
		 values(?,?,?,?,?,?,?,?)`,
		u.ID, u.Email, boolToInt(u.EmailVerified), nullable(u.PasswordHash), u.Name, nullable(u.AvatarURL), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.User{}, store.ErrAlreadyExists
		}
		return store.User{}, err
	}
	u.CreatedAt = parseTime(now)
	u.UpdatedAt = u.CreatedAt
	return u, nil
}

func (s *userStore) FindByID(ctx context.Context, id string) (store.User, error) {
	return s.scanOne(ctx, `select id, email, email_verified, password_hash, name, avatar_url, created_at, updated_at
		from users where id=?`, id)
}

func (s *userStore) FindByEmail(ctx context.Context, lowercasedEmail string) (store.User, error) {
	return s.scanOne(ctx, `select id, email, email_verified, password_hash, name, avatar_url, created_at, updated_at
		from users where email=?`, strings.ToLower(strings.TrimSpace(lowercasedEmail)))
}

func (s *userStore) scanOne(ctx context.Context, query string, arg string) (store.User, error) {
	row := s.db.QueryRowContext(ctx, query, arg)
	var (
		u            store.User
		passwordHash sql.NullString
		avatarURL    sql.NullString
		createdAt    string
		updatedAt    string
		verified     int
	)
	if err := row.Scan(&u.ID, &u.Email, &verified, &passwordHash, &u.Name, &avatarURL, &createdAt, &updatedAt); err != nil {
		return store.User{}, mapErr(err)
	}
	u.EmailVerified = verified != 0
	u.PasswordHash = passwordHash.String
	u.AvatarURL = avatarURL.String
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return u, nil
}

func (s *userStore) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set password_hash=?, updated_at=? where id=?`, hash, formatTime(timeNow()), userID)
	return checkAffected(res, err)
}

func (s *userStore) MarkEmailVerified(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set email_verified=1, updated_at=? where id=?`, formatTime(timeNow()), userID)
	return checkAffected(res, err)
}

// BackfillProfile sets name/avatar only where the existing column is empty,
// matching the federation callback's "backfill if previously empty" rule.
func (s *userStore) BackfillProfile(ctx context.Context, userID, name, avatarURL string) error {
	_, err := s.db.ExecContext(ctx,
		`update users set
			name = case when (name is null or name='') then ? else name end,
			avatar_url = case when (avatar_url is null or avatar_url='') then ? else avatar_url end,
			updated_at = ?
		 where id=?`,
		name, nullable(avatarURL), formatTime(timeNow()), userID,
	)
	return err
}
