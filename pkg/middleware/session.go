package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ita004/analytics-engine/pkg/contextkeys"
	"github.com/ita004/analytics-engine/pkg/httputil"
)

// SessionResolver resolves the caller's session to an account id. An empty
// id with a nil error means no session is present.
type SessionResolver interface {
	Resolve(r *http.Request) (string, error)
}

// HeaderSessionResolver trusts the identity asserted by an authenticating
// proxy in front of the service. The proxy terminates the browser session
// and forwards the authenticated account id in a header it strips from
// client traffic.
type HeaderSessionResolver struct {
	Header string
}

// Resolve reads the proxy-asserted account id
func (h HeaderSessionResolver) Resolve(r *http.Request) (string, error) {
	header := h.Header
	if header == "" {
		header = "X-Account-ID"
	}
	return strings.TrimSpace(r.Header.Get(header)), nil
}

// Session attaches the session account id to the context when a session is
// present. It never rejects: handlers that need an identity pair this with
// RequireIdentity or accept a credential instead.
func Session(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID, err := resolver.Resolve(r)
			if err != nil || accountID == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(contextkeys.WithAccountID(r.Context(), accountID)))
		})
	}
}

// RequireSession rejects requests that carry no session identity
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contextkeys.GetAccountID(r.Context()) == "" {
			httputil.WriteUnauthenticated(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireIdentity rejects requests that carry neither a session nor a
// validated credential. Query endpoints accept either.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contextkeys.GetAccountID(r.Context()) == "" && GetCredential(r.Context()) == nil {
			httputil.WriteUnauthenticated(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ScopedAccountID resolves the account the request operates on: the session
// account when present, otherwise the account owning the validated
// credential. Empty when the request carries no identity.
func ScopedAccountID(ctx context.Context) string {
	if accountID := contextkeys.GetAccountID(ctx); accountID != "" {
		return accountID
	}
	if cred := GetCredential(ctx); cred != nil {
		return cred.AccountID
	}
	return ""
}
