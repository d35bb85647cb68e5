package credentials

import (
	"context"
	"time"

	"github.com/ita004/analytics-engine/pkg/apperr"
	"github.com/ita004/analytics-engine/pkg/storage"
)

// lifecycleStore is the slice of storage the lifecycle service needs
type lifecycleStore interface {
	CreateCredential(ctx context.Context, accountID, secret, appName, domain string, expiresAt *time.Time) (*storage.Credential, error)
	ListCredentials(ctx context.Context, accountID string) ([]*storage.Credential, error)
	RevokeCredential(ctx context.Context, accountID, id string) (bool, error)
	ReplaceCredentialSecret(ctx context.Context, accountID, id, secret string, expiresAt *time.Time) (*storage.Credential, error)
}

// Service manages the credential lifecycle for an account
type Service struct {
	store lifecycleStore
	now   func() time.Time
}

// NewService creates a credential lifecycle service
func NewService(store lifecycleStore) *Service {
	return &Service{store: store, now: time.Now}
}

// expiry converts an optional day count into an absolute expiry timestamp
func (s *Service) expiry(expiresInDays int) *time.Time {
	if expiresInDays <= 0 {
		return nil
	}
	t := s.now().Add(time.Duration(expiresInDays) * 24 * time.Hour)
	return &t
}

// Register creates a credential with a freshly generated secret. The secret
// is returned in the credential exactly once here; listings include it too
// since this system shows keys to their owner by design.
func (s *Service) Register(ctx context.Context, accountID, appName, domain string, expiresInDays int) (*storage.Credential, error) {
	if appName == "" {
		return nil, apperr.Validation("name is required", map[string]string{"name": "required"})
	}
	if len(appName) > 100 {
		return nil, apperr.Validation("name must be at most 100 characters", map[string]string{"name": "too long"})
	}

	secret, err := GenerateSecret()
	if err != nil {
		return nil, apperr.Storage(err)
	}

	cred, err := s.store.CreateCredential(ctx, accountID, secret, appName, domain, s.expiry(expiresInDays))
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return cred, nil
}

// List returns the account's credentials
func (s *Service) List(ctx context.Context, accountID string) ([]*storage.Credential, error) {
	creds, err := s.store.ListCredentials(ctx, accountID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return creds, nil
}

// Revoke deactivates a credential, keeping the row for audit
func (s *Service) Revoke(ctx context.Context, accountID, id string) error {
	revoked, err := s.store.RevokeCredential(ctx, accountID, id)
	if err != nil {
		return apperr.Storage(err)
	}
	if !revoked {
		return apperr.NotFound("application not found")
	}
	return nil
}

// Regenerate issues a new secret and expiry for an existing credential,
// forcing it active and clearing any revocation
func (s *Service) Regenerate(ctx context.Context, accountID, id string, expiresInDays int) (*storage.Credential, error) {
	secret, err := GenerateSecret()
	if err != nil {
		return nil, apperr.Storage(err)
	}

	cred, err := s.store.ReplaceCredentialSecret(ctx, accountID, id, secret, s.expiry(expiresInDays))
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if cred == nil {
		return nil, apperr.NotFound("application not found")
	}
	return cred, nil
}
