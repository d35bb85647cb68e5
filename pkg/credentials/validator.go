package credentials

import (
	"context"
	"time"

	"github.com/ita004/analytics-engine/pkg/apperr"
	"github.com/ita004/analytics-engine/pkg/observability"
	"github.com/ita004/analytics-engine/pkg/storage"
)

// validatorStore is the slice of storage the validator needs
type validatorStore interface {
	GetCredentialBySecret(ctx context.Context, secret string) (*storage.Credential, error)
	TouchCredential(ctx context.Context, id string) error
}

// Validator resolves opaque secrets to credentials on the hot path.
// Absent, inactive, and expired secrets all collapse into the same
// Unauthenticated result so the response leaks nothing about which
// condition failed.
type Validator struct {
	store  validatorStore
	logger *observability.Logger
	// now is swappable for expiry tests
	now func() time.Time
}

// NewValidator creates a credential validator
func NewValidator(store validatorStore, logger *observability.Logger) *Validator {
	return &Validator{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Validate resolves a secret to its credential and stamps usage. The usage
// stamp is detached and best-effort: its failure never fails the request.
func (v *Validator) Validate(ctx context.Context, secret string) (*storage.Credential, error) {
	if !ValidSecretFormat(secret) {
		return nil, apperr.Unauthenticated()
	}

	cred, err := v.store.GetCredentialBySecret(ctx, secret)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if cred == nil || !cred.Usable(v.now()) {
		return nil, apperr.Unauthenticated()
	}

	go v.touch(cred.ID)

	return cred, nil
}

// touch records last_used_at outside the request lifecycle
func (v *Validator) touch(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := v.store.TouchCredential(ctx, id); err != nil {
		v.logger.WithError(err).WithField("credential_id", id).Warn("failed to record credential usage")
	}
}
