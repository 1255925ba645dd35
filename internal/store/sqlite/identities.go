package sqlite

import (
	"context"
	"database/sql"

	"qazna.org/internal/ids"
	"qazna.org/internal/store"
)

type identityStore struct{ db *sql.DB }

func (s *identityStore) Find(ctx context.Context, provider, providerAccountID string) (store.FederatedIdentityLink, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, user_id, provider, provider_account_id, created_at
		 from federated_identity_links where provider=? and provider_account_id=?`,
		provider, providerAccountID)
	var l store.FederatedIdentityLink
	var createdAt string
	if err := row.Scan(&l.ID, &l.UserID, &l.Provider, &l.ProviderAccount, &createdAt); err != nil {
		return store.FederatedIdentityLink{}, mapErr(err)
	}
	l.CreatedAt = parseTime(createdAt)
	return l, nil
}

func (s *identityStore) Create(ctx context.Context, link store.FederatedIdentityLink) (store.FederatedIdentityLink, error) {
	if link.ID == "" {
		link.ID = ids.New()
	}
	now := formatTime(timeNow())
	_, err := s.db.ExecContext(ctx,
		`insert into federated_identity_links(id, user_id, provider, provider_account_id, created_at)
		 values(?,?,?,?,?)`,
		link.ID, link.UserID, link.Provider, link.ProviderAccount, now)
	if err != nil {
		if isUniqueViolation(err) {
			return store.FederatedIdentityLink{}, store.ErrAlreadyExists
		}
		return store.FederatedIdentityLink{}, err
	}
	link.CreatedAt = parseTime(now)
	return link, nil
}
