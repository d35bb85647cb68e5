package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const credentialColumns = `id, account_id, secret, app_name, domain, active, expires_at, created_at, revoked_at, last_used_at`

func scanCredential(row *sql.Row) (*Credential, error) {
	var cred Credential
	err := row.Scan(
		&cred.ID,
		&cred.AccountID,
		&cred.Secret,
		&cred.AppName,
		&cred.Domain,
		&cred.Active,
		&cred.ExpiresAt,
		&cred.CreatedAt,
		&cred.RevokedAt,
		&cred.LastUsedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// CreateCredential registers a new application under an account
func (s *Store) CreateCredential(ctx context.Context, accountID, secret, appName, domain string, expiresAt *time.Time) (*Credential, error) {
	query := `
		INSERT INTO credentials (id, account_id, secret, app_name, domain, active, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, NOW())
		RETURNING ` + credentialColumns

	cred, err := scanCredential(s.db.QueryRowContext(ctx, query,
		uuid.New().String(), accountID, secret, appName, domain, expiresAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}
	return cred, nil
}

// GetCredentialBySecret resolves a secret to its credential; (nil, nil) when absent
func (s *Store) GetCredentialBySecret(ctx context.Context, secret string) (*Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE secret = $1`

	cred, err := scanCredential(s.db.QueryRowContext(ctx, query, secret))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up credential: %w", err)
	}
	return cred, nil
}

// GetCredential fetches a credential by id scoped to its owning account;
// (nil, nil) when absent or owned elsewhere
func (s *Store) GetCredential(ctx context.Context, accountID, id string) (*Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE id = $1 AND account_id = $2`

	cred, err := scanCredential(s.db.QueryRowContext(ctx, query, id, accountID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return cred, nil
}

// ListCredentials returns every credential owned by an account, newest first
func (s *Store) ListCredentials(ctx context.Context, accountID string) ([]*Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE account_id = $1 ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	var creds []*Credential
	for rows.Next() {
		var cred Credential
		err := rows.Scan(
			&cred.ID,
			&cred.AccountID,
			&cred.Secret,
			&cred.AppName,
			&cred.Domain,
			&cred.Active,
			&cred.ExpiresAt,
			&cred.CreatedAt,
			&cred.RevokedAt,
			&cred.LastUsedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		creds = append(creds, &cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credentials: %w", err)
	}

	return creds, nil
}

// RevokeCredential deactivates a credential, retaining the row and secret.
// Reports whether a row was updated so callers can distinguish NotFound.
func (s *Store) RevokeCredential(ctx context.Context, accountID, id string) (bool, error) {
	query := `
		UPDATE credentials
		SET active = FALSE, revoked_at = NOW()
		WHERE id = $1 AND account_id = $2
	`

	res, err := s.db.ExecContext(ctx, query, id, accountID)
	if err != nil {
		return false, fmt.Errorf("failed to revoke credential: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read revoke result: %w", err)
	}
	return affected > 0, nil
}

// ReplaceCredentialSecret installs a freshly generated secret and expiry,
// forcing the credential active and clearing any revocation. The row's
// identity persists; only the secret changes.
func (s *Store) ReplaceCredentialSecret(ctx context.Context, accountID, id, secret string, expiresAt *time.Time) (*Credential, error) {
	query := `
		UPDATE credentials
		SET secret = $1, expires_at = $2, active = TRUE, revoked_at = NULL
		WHERE id = $3 AND account_id = $4
		RETURNING ` + credentialColumns

	cred, err := scanCredential(s.db.QueryRowContext(ctx, query, secret, expiresAt, id, accountID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to replace credential secret: %w", err)
	}
	return cred, nil
}

// TouchCredential stamps last_used_at. Best-effort by contract: callers fire
// it detached and only log failures.
func (s *Store) TouchCredential(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE credentials SET last_used_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to touch credential: %w", err)
	}
	return nil
}

// DeactivateExpiredCredentials flips active off for credentials past their
// expiry. Redundant with validation-time checks but keeps listings honest.
func (s *Store) DeactivateExpiredCredentials(ctx context.Context) (int64, error) {
	query := `
		UPDATE credentials
		SET active = FALSE
		WHERE active = TRUE AND expires_at IS NOT NULL AND expires_at <= NOW()
	`

	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired credentials: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read sweep result: %w", err)
	}
	return affected, nil
}
