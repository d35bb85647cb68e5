package credentials

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/ita004/analytics-engine/pkg/apperr"
	"github.com/ita004/analytics-engine/pkg/observability"
	"github.com/ita004/analytics-engine/pkg/storage"
)

const testSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type fakeValidatorStore struct {
	cred    *storage.Credential
	err     error
	touched chan string
}

func (f *fakeValidatorStore) GetCredentialBySecret(ctx context.Context, secret string) (*storage.Credential, error) {
	return f.cred, f.err
}

func (f *fakeValidatorStore) TouchCredential(ctx context.Context, id string) error {
	if f.touched != nil {
		f.touched <- id
	}
	return nil
}

func newTestValidator(store *fakeValidatorStore) *Validator {
	return NewValidator(store, observability.NewLogger(observability.ErrorLevel, os.Stderr))
}

func TestValidateAcceptsUsableCredential(t *testing.T) {
	store := &fakeValidatorStore{
		cred:    &storage.Credential{ID: "cred-1", AccountID: "acc-1", Active: true},
		touched: make(chan string, 1),
	}
	v := newTestValidator(store)

	cred, err := v.Validate(context.Background(), testSecret)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if cred.ID != "cred-1" {
		t.Errorf("credential id = %q, want cred-1", cred.ID)
	}

	// Usage stamping is detached; wait for it.
	select {
	case id := <-store.touched:
		if id != "cred-1" {
			t.Errorf("touched credential %q, want cred-1", id)
		}
	case <-time.After(2 * time.Second):
		t.Error("credential usage was never stamped")
	}
}

func TestValidateRejectsMalformedSecret(t *testing.T) {
	v := newTestValidator(&fakeValidatorStore{})

	_, err := v.Validate(context.Background(), "not-a-secret")
	if !apperr.IsKind(err, apperr.KindUnauthenticated) {
		t.Errorf("error = %v, want unauthenticated", err)
	}
}

func TestValidateRejectsUnknownSecret(t *testing.T) {
	v := newTestValidator(&fakeValidatorStore{cred: nil})

	_, err := v.Validate(context.Background(), testSecret)
	if !apperr.IsKind(err, apperr.KindUnauthenticated) {
		t.Errorf("error = %v, want unauthenticated", err)
	}
}

func TestValidateRejectsInactiveCredential(t *testing.T) {
	v := newTestValidator(&fakeValidatorStore{
		cred: &storage.Credential{ID: "cred-1", Active: false},
	})

	_, err := v.Validate(context.Background(), testSecret)
	if !apperr.IsKind(err, apperr.KindUnauthenticated) {
		t.Errorf("error = %v, want unauthenticated", err)
	}
}

func TestValidateRejectsExpiredCredential(t *testing.T) {
	expiry := time.Now().Add(-time.Hour)
	v := newTestValidator(&fakeValidatorStore{
		cred: &storage.Credential{ID: "cred-1", Active: true, ExpiresAt: &expiry},
	})

	_, err := v.Validate(context.Background(), testSecret)
	if !apperr.IsKind(err, apperr.KindUnauthenticated) {
		t.Errorf("error = %v, want unauthenticated", err)
	}
}

func TestValidateAcceptsFutureExpiry(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	v := newTestValidator(&fakeValidatorStore{
		cred: &storage.Credential{ID: "cred-1", Active: true, ExpiresAt: &expiry},
	})

	if _, err := v.Validate(context.Background(), testSecret); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestValidateSurfacesStorageFailure(t *testing.T) {
	v := newTestValidator(&fakeValidatorStore{err: errors.New("connection refused")})

	_, err := v.Validate(context.Background(), testSecret)
	if !apperr.IsKind(err, apperr.KindStorage) {
		t.Errorf("error = %v, want storage", err)
	}
}
