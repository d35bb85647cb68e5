// Package contextkeys provides centralized context key definitions
//
// All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// CredentialKey contains the *storage.Credential resolved from the API key header
	// Set by: middleware.APIKeyAuth (pkg/middleware/auth.go)
	// Required by: ingestion handlers, query handlers accepting key-based identity
	CredentialKey Key = "credential"

	// AccountIDKey contains the session-authenticated account id string
	// Set by: middleware.Session (pkg/middleware/session.go)
	// Required by: query, credential and account endpoints
	AccountIDKey Key = "account_id"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: middleware.RequestID
	// Used by: logger, error responses
	RequestIDKey Key = "request_id"
)

// WithCredential adds the validated credential to the context
func WithCredential(ctx context.Context, cred interface{}) context.Context {
	return context.WithValue(ctx, CredentialKey, cred)
}

// WithAccountID adds the session account id to the context
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, AccountIDKey, accountID)
}

// WithRequestID adds the request id to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetAccountID retrieves the session account id from the context
func GetAccountID(ctx context.Context) string {
	if accountID, ok := ctx.Value(AccountIDKey).(string); ok {
		return accountID
	}
	return ""
}

// GetRequestID retrieves the request id from the context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
