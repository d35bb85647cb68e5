package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// UpsertAccount creates an account on first login and refreshes the mutable
// profile fields on subsequent logins, keyed by the external provider id.
func (s *Store) UpsertAccount(ctx context.Context, providerID, email, name, avatarURL string) (*Account, error) {
	query := `
		INSERT INTO accounts (id, provider_id, email, name, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (provider_id) DO UPDATE
		SET name = EXCLUDED.name, avatar_url = EXCLUDED.avatar_url, updated_at = NOW()
		RETURNING id, provider_id, email, name, avatar_url, created_at, updated_at
	`

	var account Account
	err := s.db.QueryRowContext(ctx, query,
		uuid.New().String(), providerID, email, name, avatarURL,
	).Scan(
		&account.ID,
		&account.ProviderID,
		&account.Email,
		&account.Name,
		&account.AvatarURL,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}

	return &account, nil
}

// GetAccount fetches an account by id; returns (nil, nil) when absent
func (s *Store) GetAccount(ctx context.Context, id string) (*Account, error) {
	query := `
		SELECT id, provider_id, email, name, avatar_url, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	var account Account
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.ProviderID,
		&account.Email,
		&account.Name,
		&account.AvatarURL,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}
