package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ita004/analytics-engine/pkg/contextkeys"
	"github.com/ita004/analytics-engine/pkg/storage"
)

func TestSessionAttachesAccountID(t *testing.T) {
	resolver := HeaderSessionResolver{}

	var got string
	handler := Session(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = contextkeys.GetAccountID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/apps", nil)
	req.Header.Set("X-Account-ID", "acc-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "acc-1" {
		t.Errorf("account id = %q, want %q", got, "acc-1")
	}
}

func TestRequireSession(t *testing.T) {
	handler := RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/apps", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status without session = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/apps", nil)
	req = req.WithContext(contextkeys.WithAccountID(req.Context(), "acc-1"))
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status with session = %d, want 200", rec.Code)
	}
}

func TestRequireIdentityAcceptsEither(t *testing.T) {
	handler := RequireIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/analytics/summary", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status without identity = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/analytics/summary", nil)
	req = req.WithContext(contextkeys.WithAccountID(req.Context(), "acc-1"))
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status with session = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/analytics/summary", nil)
	req = req.WithContext(contextkeys.WithCredential(req.Context(), &storage.Credential{ID: "cred-1", AccountID: "acc-1"}))
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status with credential = %d, want 200", rec.Code)
	}
}

func TestScopedAccountIDPrefersSession(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	ctx := contextkeys.WithAccountID(req.Context(), "session-acc")
	ctx = contextkeys.WithCredential(ctx, &storage.Credential{ID: "cred-1", AccountID: "key-acc"})

	if got := ScopedAccountID(ctx); got != "session-acc" {
		t.Errorf("ScopedAccountID = %q, want session-acc", got)
	}

	ctx = contextkeys.WithCredential(req.Context(), &storage.Credential{ID: "cred-1", AccountID: "key-acc"})
	if got := ScopedAccountID(ctx); got != "key-acc" {
		t.Errorf("ScopedAccountID = %q, want key-acc", got)
	}

	if got := ScopedAccountID(req.Context()); got != "" {
		t.Errorf("ScopedAccountID = %q, want empty", got)
	}
}
