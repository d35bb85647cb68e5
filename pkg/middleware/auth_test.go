package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ita004/analytics-engine/pkg/apperr"
	"github.com/ita004/analytics-engine/pkg/observability"
	"github.com/ita004/analytics-engine/pkg/storage"
)

type fakeValidator struct {
	cred *storage.Credential
	err  error
}

func (f *fakeValidator) Validate(ctx context.Context, secret string) (*storage.Credential, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cred, nil
}

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, os.Stderr)
}

func TestAPIKeyAuthRequired(t *testing.T) {
	cred := &storage.Credential{ID: "cred-1", AccountID: "acc-1"}
	validator := &fakeValidator{cred: cred}

	var attached *storage.Credential
	handler := APIKeyAuth(validator, testLogger(), nil, true)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attached = GetCredential(r.Context())
			w.WriteHeader(http.StatusOK)
		}),
	)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/events", nil)
	req.Header.Set("X-API-Key", "some-secret")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if attached == nil || attached.ID != "cred-1" {
		t.Errorf("credential not attached to context: %+v", attached)
	}
}

func TestAPIKeyAuthRequiredMissingHeader(t *testing.T) {
	handler := APIKeyAuth(&fakeValidator{}, testLogger(), nil, true)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not run without a key")
		}),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/events", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAPIKeyAuthRejectsBadCredential(t *testing.T) {
	validator := &fakeValidator{err: apperr.Unauthenticated()}
	handler := APIKeyAuth(validator, testLogger(), nil, true)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not run with a rejected key")
		}),
	)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/events", nil)
	req.Header.Set("X-API-Key", "bad-secret")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAPIKeyAuthOptionalPassesWithoutHeader(t *testing.T) {
	handler := APIKeyAuth(&fakeValidator{}, testLogger(), nil, false)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetCredential(r.Context()) != nil {
				t.Error("no credential should be attached")
			}
			w.WriteHeader(http.StatusOK)
		}),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/analytics/summary", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAPIKeyAuthOptionalIgnoresInvalidKey(t *testing.T) {
	validator := &fakeValidator{err: apperr.Unauthenticated()}
	handler := APIKeyAuth(validator, testLogger(), nil, false)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetCredential(r.Context()) != nil {
				t.Error("no credential should be attached for a rejected key")
			}
			w.WriteHeader(http.StatusOK)
		}),
	)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/analytics/summary", nil)
	req.Header.Set("X-API-Key", "bad-secret")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 passthrough", rec.Code)
	}
}
