package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func credentialRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "account_id", "secret", "app_name", "domain",
		"active", "expires_at", "created_at", "revoked_at", "last_used_at",
	})
}

func TestGetCredentialBySecret(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM credentials WHERE secret = \$1`).
		WithArgs("some-secret").
		WillReturnRows(credentialRows().
			AddRow("cred-1", "acc-1", "some-secret", "web", "", true, nil, now, nil, nil))

	cred, err := store.GetCredentialBySecret(context.Background(), "some-secret")
	if err != nil {
		t.Fatalf("GetCredentialBySecret() error: %v", err)
	}
	if cred.ID != "cred-1" || cred.AccountID != "acc-1" || !cred.Active {
		t.Errorf("credential = %+v", cred)
	}
}

func TestGetCredentialBySecretAbsent(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM credentials WHERE secret = \$1`).
		WithArgs("unknown").
		WillReturnRows(credentialRows())

	cred, err := store.GetCredentialBySecret(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("GetCredentialBySecret() error: %v", err)
	}
	if cred != nil {
		t.Errorf("expected nil credential, got %+v", cred)
	}
}

func TestRevokeCredential(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE credentials\s+SET active = FALSE, revoked_at = NOW\(\)`).
		WithArgs("cred-1", "acc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	revoked, err := store.RevokeCredential(context.Background(), "acc-1", "cred-1")
	if err != nil {
		t.Fatalf("RevokeCredential() error: %v", err)
	}
	if !revoked {
		t.Error("expected revocation to report an updated row")
	}
}

func TestRevokeCredentialNotOwned(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE credentials\s+SET active = FALSE, revoked_at = NOW\(\)`).
		WithArgs("cred-1", "other-acc").
		WillReturnResult(sqlmock.NewResult(0, 0))

	revoked, err := store.RevokeCredential(context.Background(), "other-acc", "cred-1")
	if err != nil {
		t.Fatalf("RevokeCredential() error: %v", err)
	}
	if revoked {
		t.Error("revocation must not cross account boundaries")
	}
}

func TestDeactivateExpiredCredentials(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE credentials\s+SET active = FALSE\s+WHERE active = TRUE AND expires_at IS NOT NULL`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	swept, err := store.DeactivateExpiredCredentials(context.Background())
	if err != nil {
		t.Fatalf("DeactivateExpiredCredentials() error: %v", err)
	}
	if swept != 3 {
		t.Errorf("swept = %d, want 3", swept)
	}
}

func TestCredentialUsable(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		cred Credential
		want bool
	}{
		{"active without expiry", Credential{Active: true}, true},
		{"inactive", Credential{Active: false}, false},
		{"active with future expiry", Credential{Active: true, ExpiresAt: &future}, true},
		{"active but expired", Credential{Active: true, ExpiresAt: &past}, false},
		{"expiry exactly now", Credential{Active: true, ExpiresAt: &now}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cred.Usable(now); got != tt.want {
				t.Errorf("Usable() = %v, want %v", got, tt.want)
			}
		})
	}
}
