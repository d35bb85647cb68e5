// Package middleware provides the HTTP middleware chain: request identity,
// credential authentication, session resolution and rate limiting.
package middleware

import (
	"context"
	"net/http"

	"github.com/ita004/analytics-engine/pkg/apperr"
	"github.com/ita004/analytics-engine/pkg/contextkeys"
	"github.com/ita004/analytics-engine/pkg/httputil"
	"github.com/ita004/analytics-engine/pkg/observability"
	"github.com/ita004/analytics-engine/pkg/storage"
)

// apiKeyHeader carries the opaque credential secret
const apiKeyHeader = "X-API-Key"

// CredentialValidator resolves an API key header value to a credential
type CredentialValidator interface {
	Validate(ctx context.Context, secret string) (*storage.Credential, error)
}

// APIKeyAuth authenticates requests by the X-API-Key header and attaches the
// resolved credential to the context. When required is false a missing or
// failing key never rejects the request: it passes through with no credential
// attached and whatever session identity it carries decides its fate.
func APIKeyAuth(validator CredentialValidator, logger *observability.Logger, metrics *observability.Metrics, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secret := r.Header.Get(apiKeyHeader)
			if secret == "" {
				if required {
					if metrics != nil {
						metrics.AuthFailuresTotal.Inc()
					}
					httputil.WriteUnauthenticated(w)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			cred, err := validator.Validate(r.Context(), secret)
			if err != nil {
				if !required {
					logger.FromContext(r.Context()).WithError(err).Debug("ignoring invalid credential on optional route")
					next.ServeHTTP(w, r)
					return
				}
				if apperr.IsKind(err, apperr.KindUnauthenticated) {
					if metrics != nil {
						metrics.AuthFailuresTotal.Inc()
					}
					httputil.WriteUnauthenticated(w)
					return
				}
				logger.FromContext(r.Context()).WithError(err).Error("credential validation failed")
				httputil.WriteAppError(w, err, false)
				return
			}

			next.ServeHTTP(w, r.WithContext(contextkeys.WithCredential(r.Context(), cred)))
		})
	}
}

// GetCredential retrieves the validated credential attached by APIKeyAuth
func GetCredential(ctx context.Context) *storage.Credential {
	if cred, ok := ctx.Value(contextkeys.CredentialKey).(*storage.Credential); ok {
		return cred
	}
	return nil
}
